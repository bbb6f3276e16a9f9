package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/san-kum/fluidsim/internal/fluid"
	"github.com/san-kum/fluidsim/internal/metrics"
)

const (
	metadataFile = "metadata.json"
	framesFile   = "frames.csv"
)

var ErrRunNotFound = errors.New("storage: run not found")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID        string             `json:"id"`
	Scenario  string             `json:"scenario"`
	Timestamp time.Time          `json:"timestamp"`
	Seed      int64              `json:"seed"`
	Frames    int                `json:"frames"`
	Params    fluid.Params       `json:"params"`
	Metrics   map[string]float64 `json:"metrics"`
}

// Save writes a finished run in one go and returns its ID.
func (s *Store) Save(meta RunMetadata, frames []metrics.Frame) (string, error) {
	rec, err := s.Record(meta)
	if err != nil {
		return "", err
	}
	for _, f := range frames {
		rec.OnFrame(f)
	}
	return rec.Close(meta.Metrics)
}

func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("reading %s metadata: %w", runID, err)
	}
	return &meta, nil
}

func (s *Store) LoadFrames(runID string) ([]metrics.Frame, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, framesFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}
	defer file.Close()

	frames := []metrics.Frame{}
	if err := gocsv.UnmarshalFile(file, &frames); err != nil {
		if errors.Is(err, gocsv.ErrEmptyCSVFile) {
			return frames, nil
		}
		return nil, fmt.Errorf("reading %s frames: %w", runID, err)
	}
	return frames, nil
}

// ExportData is the single-document JSON form of a run.
type ExportData struct {
	RunMetadata
	History []metrics.Frame `json:"history"`
}

// ExportJSON writes a stored run, metadata and frames, as indented JSON.
func (s *Store) ExportJSON(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	frames, err := s.LoadFrames(runID)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(ExportData{RunMetadata: *meta, History: frames})
}

// newRunDir creates a fresh directory for a run. IDs follow
// <scenario>_<unix seconds>, with a counter appended on collision.
func (s *Store) newRunDir(scenario string, now time.Time) (string, string, error) {
	if err := s.Init(); err != nil {
		return "", "", err
	}
	base := fmt.Sprintf("%s_%d", scenario, now.Unix())
	id := base
	for i := 1; ; i++ {
		dir := filepath.Join(s.baseDir, id)
		err := os.Mkdir(dir, 0755)
		if err == nil {
			return id, dir, nil
		}
		if !os.IsExist(err) {
			return "", "", err
		}
		id = fmt.Sprintf("%s_%d", base, i)
	}
}
