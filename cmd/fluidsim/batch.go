package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/san-kum/fluidsim/internal/automation"
	"github.com/san-kum/fluidsim/internal/storage"
	"github.com/spf13/cobra"
)

var (
	trials   int
	perturbs []string
)

func newBatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "batch [script]",
		Short: "run a yaml script of simulations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			script, err := automation.LoadScript(args[0])
			if err != nil {
				return err
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			catalog, err := loadCatalog(cfg)
			if err != nil {
				return err
			}
			st := storage.New(cfg.Store)
			if err := st.Init(); err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()
			results, err := automation.Run(ctx, script, simConfig(cfg, catalog), st)

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "STEP\tSCENARIO\tFRAMES\tENERGY\tCOMPRESSION\tSTABILITY\tRUN")
			for _, r := range results {
				fmt.Fprintf(w, "%d\t%s\t%d\t%.4f\t%.4f\t%.3f\t%s\n", r.Step, r.Scenario, r.Frames,
					r.Metrics["energy"], r.Metrics["compression"], r.Metrics["stability"], r.RunID)
			}
			if ferr := w.Flush(); ferr != nil && err == nil {
				err = ferr
			}
			return err
		},
	}
}

func parsePerturbations(pairs []string) (map[string]float64, error) {
	out := make(map[string]float64, len(pairs))
	for _, pair := range pairs {
		name, val, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("perturbation %q: want name=fraction", pair)
		}
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return nil, fmt.Errorf("perturbation %q: %w", pair, err)
		}
		out[strings.TrimSpace(name)] = f
	}
	return out, nil
}

func newMonteCarloCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "montecarlo",
		Short: "run randomly perturbed trials and count stable ones",
		RunE: func(cmd *cobra.Command, args []string) error {
			perturb, err := parsePerturbations(perturbs)
			if err != nil {
				return err
			}
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
			results, err := automation.RunMonteCarlo(ctx, simConfig(cfg, catalog), automation.MonteCarloConfig{
				Trials:  trials,
				Frames:  cfg.Frames,
				Seed:    cfg.Seed,
				Perturb: perturb,
			})
			if err != nil {
				return err
			}

			stable, unstable := automation.MonteCarloStats(results)
			fmt.Printf("trials: %d  stable: %d  unstable: %d\n", len(results), stable, unstable)
			for _, r := range results {
				if !r.Stable {
					fmt.Printf("  trial %d unstable: %v\n", r.ID, r.Params)
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&trials, "trials", 10, "number of trials")
	cmd.Flags().StringArrayVar(&perturbs, "perturb", []string{"viscosity=0.5", "gasConstant=0.5"}, "relative perturbation name=fraction (repeatable)")
	return cmd
}
