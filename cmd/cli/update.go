package main

import (
	"encoding/json"
	"fmt"
	"io"

	"goposterior/adapters/rng"
	"goposterior/domain/posterior"
	"goposterior/internal/report"
	"goposterior/internal/updater"

	"github.com/spf13/cobra"
)

func newUpdateCmd() *cobra.Command {
	var (
		specs  specFlags
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "update [method]",
		Short: "Combine a prior and an observation with one or every method",
		Long: `Apply a conjugate normal update. With no method every method whose
inputs are present is applied; the rest are listed as skipped.

Methods: sample_size, mean_sd, full`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prior, obs := specs.specs(cmd.Flags())
			engine := updater.NewEngine()

			batch := updater.Batch{Results: map[posterior.Method]posterior.Result{}}
			if len(args) == 1 {
				method, err := posterior.ParseMethod(args[0])
				if err != nil {
					return err
				}
				r, err := engine.Update(method, prior, obs)
				if err != nil {
					return err
				}
				batch.Results[method] = r
			} else {
				var err error
				if batch, err = engine.UpdateAll(prior, obs); err != nil {
					return err
				}
			}

			results := ordered(batch.Results)
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), map[string]interface{}{
					"results": results,
					"skipped": batch.Skipped,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), report.ResultsTerminal(results))
			printSkipped(cmd.OutOrStdout(), batch.Skipped)
			return nil
		},
	}

	specs.register(cmd.Flags())
	specs.markRequired(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}

func newSimulateCmd() *cobra.Command {
	var (
		specs      specFlags
		method     string
		n          int
		seed       int64
		fallbackSD float64
		compare    bool
		draws      int
		bins       int
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Draw samples from a posterior or compare every method's density",
		RunE: func(cmd *cobra.Command, args []string) error {
			prior, obs := specs.specs(cmd.Flags())
			engine := updater.NewEngine()
			seeded := rng.NewSeededAdapter()

			if compare {
				batch, err := engine.UpdateAll(prior, obs)
				if err != nil {
					return err
				}
				opts := updater.DefaultCompareOptions()
				opts.RunID = "cli"
				opts.Seed = seed
				opts.Draws = draws
				opts.Bins = bins
				opts.FallbackSD = fallbackSD
				cmp, err := updater.NewComparer(engine, seeded).Compare(cmd.Context(), batch.Results, opts)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), cmp)
				}
				fmt.Fprintln(cmd.OutOrStdout(), report.ComparisonTerminal(cmp))
				return nil
			}

			m, err := posterior.ParseMethod(method)
			if err != nil {
				return err
			}
			r, err := engine.Update(m, prior, obs)
			if err != nil {
				return err
			}
			if !r.HasSD() && fallbackSD > 0 {
				if r, err = engine.WithExternalSD(r, fallbackSD); err != nil {
					return err
				}
			}
			values, err := updater.NewSampler(seeded).Draw(cmd.Context(), r, n, seed)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), map[string]interface{}{
					"method":  m,
					"seed":    seed,
					"samples": values,
				})
			}
			for _, v := range values {
				fmt.Fprintf(cmd.OutOrStdout(), "%.6f\n", v)
			}
			return nil
		},
	}

	defaults := updater.DefaultCompareOptions()
	specs.register(cmd.Flags())
	specs.markRequired(cmd)
	cmd.Flags().StringVar(&method, "method", string(posterior.MethodMeanSD), "Method to sample from")
	cmd.Flags().IntVar(&n, "n", 10, "Number of samples")
	cmd.Flags().Int64Var(&seed, "seed", defaults.Seed, "Random seed")
	cmd.Flags().Float64Var(&fallbackSD, "fallback-sd", 0, "SD used for methods that produce none")
	cmd.Flags().BoolVar(&compare, "compare", false, "Compare every method instead of sampling one")
	cmd.Flags().IntVar(&draws, "draws", defaults.Draws, "Draws per method when comparing")
	cmd.Flags().IntVar(&bins, "bins", defaults.Bins, "Histogram bins when comparing")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func ordered(results map[posterior.Method]posterior.Result) []posterior.Result {
	out := make([]posterior.Result, 0, len(results))
	for _, m := range posterior.Methods {
		if r, ok := results[m]; ok {
			out = append(out, r)
		}
	}
	return out
}

func printSkipped(w io.Writer, skipped map[posterior.Method]string) {
	for _, m := range posterior.Methods {
		if reason, ok := skipped[m]; ok {
			fmt.Fprintf(w, "skipped %s: %s\n", m, reason)
		}
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
