package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/san-kum/fluidsim/internal/fluid"
	"gopkg.in/yaml.v3"
)

const (
	DefaultScenario   = "default"
	DefaultSeed       = 1
	DefaultFrames     = 600
	DefaultStore      = "runs"
	DefaultStreamAddr = "localhost:8080"
	DefaultStreamFPS  = 30
)

var ErrInvalidConfig = errors.New("config: invalid configuration")

type Config struct {
	Scenario    string       `yaml:"scenario"`
	ScenarioDir string       `yaml:"scenario_dir,omitempty"`
	Seed        int64        `yaml:"seed"`
	Frames      int          `yaml:"frames"`
	Store       string       `yaml:"store"`
	Stream      StreamConfig `yaml:"stream"`
	Params      fluid.Params `yaml:"params"`
}

type StreamConfig struct {
	Addr string `yaml:"addr"`
	FPS  int    `yaml:"fps"`
}

func DefaultConfig() *Config {
	return &Config{
		Scenario: DefaultScenario,
		Seed:     DefaultSeed,
		Frames:   DefaultFrames,
		Store:    DefaultStore,
		Stream: StreamConfig{
			Addr: DefaultStreamAddr,
			FPS:  DefaultStreamFPS,
		},
		Params: fluid.DefaultParams(),
	}
}

// Load reads a YAML file over the defaults, so a file only needs the keys
// it changes.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate rejects values the engine cannot run with. The core itself does
// not range-check parameters.
func (c *Config) Validate() error {
	var problems []string
	if c.Frames <= 0 {
		problems = append(problems, fmt.Sprintf("frames must be positive, got %d", c.Frames))
	}
	if c.Params.TimeStep <= 0 {
		problems = append(problems, fmt.Sprintf("time_step must be positive, got %g", c.Params.TimeStep))
	}
	if c.Params.ParticleCount <= 0 {
		problems = append(problems, fmt.Sprintf("particle_count must be positive, got %d", c.Params.ParticleCount))
	}
	if c.Params.SmoothingLength <= 0 {
		problems = append(problems, fmt.Sprintf("smoothing_length must be positive, got %g", c.Params.SmoothingLength))
	}
	if c.Params.RestDensity <= 0 {
		problems = append(problems, fmt.Sprintf("rest_density must be positive, got %g", c.Params.RestDensity))
	}
	if c.Stream.FPS <= 0 {
		problems = append(problems, fmt.Sprintf("stream fps must be positive, got %d", c.Stream.FPS))
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// ApplyOverrides sets parameters from name=value pairs, as given on the
// command line.
func (c *Config) ApplyOverrides(pairs []string) error {
	for _, pair := range pairs {
		name, raw, ok := strings.Cut(pair, "=")
		if !ok {
			return fmt.Errorf("%w: override %q is not name=value", ErrInvalidConfig, pair)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return fmt.Errorf("%w: override %q: %v", ErrInvalidConfig, pair, err)
		}
		if err := c.Params.Set(strings.TrimSpace(name), v); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	}
	return nil
}
