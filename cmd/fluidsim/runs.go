package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/fluidsim/internal/analysis"
	"github.com/san-kum/fluidsim/internal/config"
	"github.com/san-kum/fluidsim/internal/export"
	"github.com/san-kum/fluidsim/internal/fluid"
	"github.com/san-kum/fluidsim/internal/metrics"
	"github.com/san-kum/fluidsim/internal/scenario"
	"github.com/san-kum/fluidsim/internal/storage"
	"github.com/spf13/cobra"
)

var (
	plotColumns   []string
	svgOut        string
	analyzeColumn string
	peakN         int
	exportOut     string
	dumpName      string
	dumpOut       string
)

func openStore(cmd *cobra.Command) (*storage.Store, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return storage.New(cfg.Store), nil
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		RunE:  listRuns,
	}
}

func listRuns(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENARIO\tTIME\tFRAMES\tSEED\tSTABILITY")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%.3f\n",
			run.ID,
			run.Scenario,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Frames,
			run.Seed,
			run.Metrics["stability"],
		)
	}
	return w.Flush()
}

func loadSeries(st *storage.Store, runID, column string) (*storage.RunMetadata, []float64, []float64, error) {
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, nil, err
	}
	frames, err := st.LoadFrames(runID)
	if err != nil {
		return nil, nil, nil, err
	}
	if len(frames) == 0 {
		return nil, nil, nil, fmt.Errorf("run %s has no frames", runID)
	}
	values, ok := metrics.Series(frames, column)
	if !ok {
		return nil, nil, nil, fmt.Errorf("unknown column %q (have %s)", column, strings.Join(metrics.Columns(), ", "))
	}
	times, _ := metrics.Series(frames, "time")
	return meta, times, values, nil
}

func newPlotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot recorded columns of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	cmd.Flags().StringSliceVar(&plotColumns, "column", []string{"kinetic_energy", "mean_height", "max_speed"}, "columns to plot")
	cmd.Flags().StringVar(&svgOut, "svg", "", "also write the first column as svg to this file")
	return cmd
}

func plotRun(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}

	for i, col := range plotColumns {
		meta, times, values, err := loadSeries(st, args[0], col)
		if err != nil {
			return err
		}
		if i == 0 {
			fmt.Printf("run: %s\n", meta.ID)
			fmt.Printf("scenario: %s\n", meta.Scenario)
			fmt.Printf("samples: %d\n\n", len(values))
		}
		fmt.Println(asciigraph.Plot(values,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(col),
		))
		fmt.Println()

		if i == 0 && svgOut != "" {
			f, err := os.Create(svgOut)
			if err != nil {
				return err
			}
			if err := export.Series(f, times, values, 800, 300, "#00ccff"); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
		}
	}
	return nil
}

func newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency analysis of a recorded column",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	cmd.Flags().StringVar(&analyzeColumn, "column", "mean_height", "column to analyze")
	cmd.Flags().IntVar(&peakN, "peaks", 3, "number of spectral peaks to list")
	return cmd
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	col := analyzeColumn
	meta, _, values, err := loadSeries(st, args[0], col)
	if err != nil {
		return err
	}

	dt := meta.Params.TimeStep
	ps, err := analysis.PowerSpectrum(values, dt)
	if err != nil {
		return err
	}

	fmt.Printf("frequency analysis: %s\n", meta.ID)
	fmt.Printf("scenario: %s\n\n", meta.Scenario)

	plot := ps.Power
	if len(plot) > 8 {
		plot = plot[:len(plot)/4]
	}
	fmt.Println(asciigraph.Plot(plot,
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption("amplitude spectrum ("+col+")"),
	))
	fmt.Println()

	freq, _ := ps.Dominant()
	fmt.Printf("dominant frequency: %.3f hz\n", freq)
	if freq > 0 {
		fmt.Printf("period: %.3f s\n", 1.0/freq)
	}
	for _, k := range ps.Peaks(peakN) {
		fmt.Printf("  peak %.3f hz  amplitude %.4f\n", ps.Freqs[k], ps.Power[k])
	}
	return nil
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a run as json",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(cmd)
			if err != nil {
				return err
			}
			if exportOut == "" || exportOut == "-" {
				return st.ExportJSON(os.Stdout, args[0])
			}
			f, err := os.Create(exportOut)
			if err != nil {
				return err
			}
			if err := st.ExportJSON(f, args[0]); err != nil {
				f.Close()
				return err
			}
			return f.Close()
		},
	}
	cmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (default stdout)")
	return cmd
}

func newScenariosCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scenarios",
		Short: "list scenarios, or dump one as yaml",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			catalog, err := loadCatalog(cfg)
			if err != nil {
				return err
			}
			if dumpName != "" {
				s, ok := catalog[dumpName]
				if !ok {
					return fmt.Errorf("unknown scenario %q", dumpName)
				}
				path := dumpOut
				if path == "" {
					path = dumpName + ".yaml"
				}
				if err := scenario.SaveFile(path, s); err != nil {
					return err
				}
				fmt.Printf("wrote %s\n", path)
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tOBSTACLES\tSOURCES\tFIELDS\tDESCRIPTION")
			for _, name := range catalog.Names() {
				s := catalog[name]
				fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%s\n", name, len(s.Obstacles), len(s.Sources), len(s.Fields), s.Description)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&dumpName, "dump", "", "write this scenario to a yaml file")
	cmd.Flags().StringVarP(&dumpOut, "out", "o", "", "output file for --dump")
	return cmd
}

func newParamsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "params",
		Short: "show the effective parameter set",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			values := cfg.Params.Map()
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			for _, name := range fluid.ParamNames() {
				fmt.Fprintf(w, "%s\t%g\n", name, values[name])
			}
			return w.Flush()
		},
	}
}

func newInitConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init-config [path]",
		Short: "write the default configuration",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "fluidsim.yaml"
			if len(args) > 0 {
				path = args[0]
			}
			if err := config.Save(path, config.DefaultConfig()); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", path)
			return nil
		},
	}
}
