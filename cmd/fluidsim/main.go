package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/san-kum/fluidsim/internal/config"
	"github.com/san-kum/fluidsim/internal/scenario"
	"github.com/san-kum/fluidsim/internal/sim"
	"github.com/spf13/cobra"
)

var (
	configFile   string
	dataDir      string
	scenarioName string
	scenarioDir  string
	seed         int64
	frames       int
	overrides    []string
	logLevel     string
	logFormat    string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "fluidsim",
		Short:         "interactive SPH fluid simulation",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(os.Stderr, logLevel, logFormat)
			if err != nil {
				return err
			}
			slog.SetDefault(logger)
			return nil
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "config file path (yaml)")
	pf.StringVar(&dataDir, "data", config.DefaultStore, "run store directory")
	pf.StringVar(&scenarioName, "scenario", config.DefaultScenario, "scenario to load")
	pf.StringVar(&scenarioDir, "scenario-dir", "", "directory of extra scenario yaml files")
	pf.Int64Var(&seed, "seed", config.DefaultSeed, "random seed")
	pf.IntVar(&frames, "frames", config.DefaultFrames, "frames to simulate")
	pf.StringArrayVar(&overrides, "set", nil, "parameter override name=value (repeatable)")
	pf.StringVar(&logLevel, "log-level", "info", "debug, info, warn or error")
	pf.StringVar(&logFormat, "log-format", "text", "text or json")

	rootCmd.AddCommand(
		newRunCmd(),
		newLiveCmd(),
		newServeCmd(),
		newSnapshotCmd(),
		newSweepCmd(),
		newBatchCmd(),
		newMonteCarloCmd(),
		newListCmd(),
		newPlotCmd(),
		newAnalyzeCmd(),
		newExportCmd(),
		newScenariosCmd(),
		newParamsCmd(),
		newInitConfigCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("log level %q: %w", level, err)
	}
	opts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(format) {
	case "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return nil, fmt.Errorf("unknown log format %q", format)
}

// loadConfig merges defaults, the config file and explicitly set flags, in
// that order, then applies --set overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		var err error
		if cfg, err = config.Load(configFile); err != nil {
			return nil, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("data") {
		cfg.Store = dataDir
	}
	if flags.Changed("scenario") {
		cfg.Scenario = scenarioName
	}
	if flags.Changed("scenario-dir") {
		cfg.ScenarioDir = scenarioDir
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("frames") {
		cfg.Frames = frames
	}
	if err := cfg.ApplyOverrides(overrides); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func loadCatalog(cfg *config.Config) (scenario.Catalog, error) {
	catalog := scenario.Presets()
	if cfg.ScenarioDir == "" {
		return catalog, nil
	}
	names, err := catalog.RegisterDir(cfg.ScenarioDir)
	if err != nil {
		return nil, err
	}
	slog.Debug("scenarios registered", "dir", cfg.ScenarioDir, "names", names)
	return catalog, nil
}

func newEngine(cmd *cobra.Command) (*sim.Engine, *config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	catalog, err := loadCatalog(cfg)
	if err != nil {
		return nil, nil, err
	}
	eng := sim.New(simConfig(cfg, catalog))
	return eng, cfg, nil
}

func simConfig(cfg *config.Config, catalog scenario.Catalog) sim.Config {
	return sim.Config{
		Params:   cfg.Params,
		Seed:     cfg.Seed,
		Scenario: cfg.Scenario,
		Catalog:  catalog,
		Logger:   slog.Default(),
	}
}
