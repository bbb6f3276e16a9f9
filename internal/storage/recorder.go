package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/san-kum/fluidsim/internal/metrics"
)

const defaultFlushEvery = 60

// Recorder streams frames of a running simulation into a new run directory.
// It satisfies the engine's observer interface. The first write error is
// kept and reported by Close; later frames are dropped.
type Recorder struct {
	meta    RunMetadata
	dir     string
	file    *os.File
	pending []metrics.Frame
	header  bool
	written int
	err     error
}

// Record creates the run directory and returns a recorder for it. The ID
// and timestamp in meta are assigned here.
func (s *Store) Record(meta RunMetadata) (*Recorder, error) {
	now := time.Now()
	id, dir, err := s.newRunDir(meta.Scenario, now)
	if err != nil {
		return nil, err
	}
	f, err := os.Create(filepath.Join(dir, framesFile))
	if err != nil {
		return nil, err
	}
	meta.ID = id
	meta.Timestamp = now
	return &Recorder{
		meta:    meta,
		dir:     dir,
		file:    f,
		pending: make([]metrics.Frame, 0, defaultFlushEvery),
	}, nil
}

// ID is the run ID frames are recorded under.
func (r *Recorder) ID() string { return r.meta.ID }

func (r *Recorder) OnFrame(f metrics.Frame) {
	if r.err != nil {
		return
	}
	r.pending = append(r.pending, f)
	if len(r.pending) >= defaultFlushEvery {
		r.err = r.flush()
	}
}

func (r *Recorder) flush() error {
	if len(r.pending) == 0 {
		return nil
	}
	if !r.header {
		// First write includes headers
		if err := gocsv.Marshal(r.pending, r.file); err != nil {
			return fmt.Errorf("writing frames: %w", err)
		}
		r.header = true
	} else {
		if err := gocsv.MarshalWithoutHeaders(r.pending, r.file); err != nil {
			return fmt.Errorf("writing frames: %w", err)
		}
	}
	r.written += len(r.pending)
	r.pending = r.pending[:0]
	return nil
}

// Close flushes outstanding frames and writes metadata.json with the given
// summary metrics. It returns the run ID.
func (r *Recorder) Close(summary map[string]float64) (string, error) {
	if r.err == nil {
		r.err = r.flush()
	}
	if err := r.file.Close(); err != nil && r.err == nil {
		r.err = err
	}
	if r.err != nil {
		return r.meta.ID, r.err
	}

	r.meta.Frames = r.written
	r.meta.Metrics = summary
	if r.meta.Metrics == nil {
		r.meta.Metrics = map[string]float64{}
	}

	metaFile, err := os.Create(filepath.Join(r.dir, metadataFile))
	if err != nil {
		return r.meta.ID, err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r.meta); err != nil {
		return r.meta.ID, err
	}
	return r.meta.ID, nil
}
