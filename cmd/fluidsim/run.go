package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/san-kum/fluidsim/internal/analysis"
	"github.com/san-kum/fluidsim/internal/export"
	"github.com/san-kum/fluidsim/internal/metrics"
	"github.com/san-kum/fluidsim/internal/sim"
	"github.com/san-kum/fluidsim/internal/storage"
	"github.com/san-kum/fluidsim/internal/viz"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/stat"
)

var (
	saveRun   bool
	ensemble  int
	sweepFrom float64
	sweepTo   float64
	sweepN    int
	minimize  string
	viewName  string
	snapOut   string
	svgSize   int
)

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "run a headless simulation and report metrics",
		RunE:  runSimulation,
	}
	cmd.Flags().BoolVar(&saveRun, "save", false, "record frames to the run store")
	cmd.Flags().IntVar(&ensemble, "ensemble", 0, "run N seeds in parallel instead of one")
	return cmd
}

func runSimulation(cmd *cobra.Command, args []string) error {
	if ensemble > 0 {
		return runEnsemble(cmd)
	}
	eng, cfg, err := newEngine(cmd)
	if err != nil {
		return err
	}
	p := eng.Params()
	for _, m := range metrics.Standard(p.RestDensity, p.MaxVelocity) {
		eng.AddMetric(m)
	}

	var rec *storage.Recorder
	if saveRun {
		st := storage.New(cfg.Store)
		if err := st.Init(); err != nil {
			return err
		}
		rec, err = st.Record(storage.RunMetadata{
			Scenario: eng.Controller().Active(),
			Seed:     cfg.Seed,
			Params:   p,
		})
		if err != nil {
			return err
		}
		eng.AddObserver(rec)
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("running %s for %d frames...\n", eng.Controller().Active(), cfg.Frames)
	start := time.Now()
	result, runErr := eng.Run(ctx, cfg.Frames, nil)
	elapsed := time.Since(start)

	if result == nil {
		if rec != nil {
			rec.Close(nil)
		}
		return runErr
	}
	if rec != nil {
		id, err := rec.Close(result.Metrics)
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", id)
	}

	fmt.Printf("completed %d frames in %v (%.1f frames/s)\n", result.Frames, elapsed, float64(result.Frames)/elapsed.Seconds())
	fmt.Printf("simulated: %.2fs\n", result.Time)
	printMetrics(result.Metrics)
	return runErr
}

func printMetrics(m map[string]float64) {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Println("\nmetrics:")
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, m[name])
	}
}

func runEnsemble(cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	catalog, err := loadCatalog(cfg)
	if err != nil {
		return err
	}
	p := cfg.Params
	ens := sim.NewEnsemble(simConfig(cfg, catalog), ensemble, cfg.Seed, func() []metrics.Metric {
		return metrics.Standard(p.RestDensity, p.MaxVelocity)
	})

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("running %d x %s for %d frames...\n", ensemble, cfg.Scenario, cfg.Frames)
	results, err := ens.Run(ctx, cfg.Frames)
	if err != nil {
		return err
	}

	names := make([]string, 0)
	for name := range results[0].Metrics {
		names = append(names, name)
	}
	sort.Strings(names)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprint(w, "SEED")
	for _, name := range names {
		fmt.Fprintf(w, "\t%s", name)
	}
	fmt.Fprintln(w)
	for i, r := range results {
		fmt.Fprintf(w, "%d", cfg.Seed+int64(i))
		for _, name := range names {
			fmt.Fprintf(w, "\t%.4f", r.Metrics[name])
		}
		fmt.Fprintln(w)
	}
	fmt.Fprint(w, "mean±sd")
	for _, name := range names {
		vals := make([]float64, len(results))
		for i, r := range results {
			vals[i] = r.Metrics[name]
		}
		mean, sd := stat.MeanStdDev(vals, nil)
		fmt.Fprintf(w, "\t%.4f±%.4f", mean, sd)
	}
	fmt.Fprintln(w)
	return w.Flush()
}

func newSweepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep [param]",
		Short: "sweep one parameter and compare run metrics",
		Args:  cobra.ExactArgs(1),
		RunE:  runSweep,
	}
	cmd.Flags().Float64Var(&sweepFrom, "from", 0.05, "first value")
	cmd.Flags().Float64Var(&sweepTo, "to", 0.5, "last value")
	cmd.Flags().IntVar(&sweepN, "steps", 5, "number of values")
	cmd.Flags().StringVar(&minimize, "minimize", "compression", "metric to pick the best value by")
	return cmd
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	catalog, err := loadCatalog(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	values := analysis.Linspace(sweepFrom, sweepTo, sweepN)
	points, err := analysis.Sweep(ctx, simConfig(cfg, catalog), args[0], values, cfg.Frames)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tENERGY\tPEAK_SPEED\tCOMPRESSION\tSTABILITY\n", args[0])
	for _, pt := range points {
		fmt.Fprintf(w, "%.4f\t%.4f\t%.4f\t%.4f\t%.4f\n", pt.Param,
			pt.Metrics["energy"], pt.Metrics["peak_speed"], pt.Metrics["compression"], pt.Metrics["stability"])
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if best, ok := analysis.Best(points, minimize); ok {
		fmt.Printf("\nbest %s by %s: %.4f\n", args[0], minimize, best.Param)
	}
	return nil
}

func parseView(name string) (viz.View, error) {
	for _, v := range []viz.View{viz.ViewSide, viz.ViewTop, viz.ViewOrbit} {
		if v.String() == name {
			return v, nil
		}
	}
	return 0, fmt.Errorf("unknown view %q (side, top, orbit)", name)
}

func newSnapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "simulate and write the final frame as svg",
		RunE:  runSnapshot,
	}
	cmd.Flags().StringVar(&viewName, "view", "side", "side, top or orbit")
	cmd.Flags().StringVarP(&snapOut, "out", "o", "snapshot.svg", "output file")
	cmd.Flags().IntVar(&svgSize, "size", 600, "image size in pixels")
	return cmd
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	view, err := parseView(viewName)
	if err != nil {
		return err
	}
	eng, cfg, err := newEngine(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()
	if _, err := eng.Run(ctx, cfg.Frames, nil); err != nil {
		return err
	}

	f, err := os.Create(snapOut)
	if err != nil {
		return err
	}
	cam := viz.NewCamera()
	cam.View = view
	if err := export.Snapshot(f, eng.World(), cam, svgSize, svgSize); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Printf("wrote %s (%d particles, frame %d)\n", snapOut, eng.World().State.Len(), eng.World().Frames())
	return nil
}
