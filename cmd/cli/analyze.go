package main

import (
	"fmt"
	"os"
	"path/filepath"

	"goposterior/domain/dataset"
	"goposterior/domain/run"
	"goposterior/internal/config"
	"goposterior/internal/container"
	"goposterior/internal/report"

	"github.com/spf13/cobra"
)

func newAnalyzeCmd() *cobra.Command {
	var (
		dataFile   string
		sheet      string
		prior      dataset.Filter
		obs        dataset.Filter
		minMinutes float64
		nuisance   string
		byGames    bool
		compare    bool
		seed       int64
		draws      int
		fallbackSD float64
		htmlOut    string
		exportDir  string
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Build a prior from history, update it with a player's seasons and record the run",
		Example: `  posterior analyze --data per.xlsx --prior-to 2019 --player "Anthony Davis" --obs-from 2020
  posterior analyze --data per.csv --player "Zion Williamson" --compare --fallback-sd 1.5 --html report.html`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if dataFile != "" {
				cfg.Data.File = dataFile
			}
			if sheet != "" {
				cfg.Data.Sheet = sheet
			}

			flags := cmd.Flags()
			req := run.Request{
				Prior:         prior,
				Observation:   obs,
				Nuisance:      cfg.Analysis.Nuisance,
				WeightByGames: cfg.Analysis.WeightByGames || byGames,
				Compare:       compare,
				Seed:          cfg.Sampler.Seed,
				Draws:         cfg.Sampler.Draws,
				FallbackSD:    cfg.Sampler.FallbackSD,
			}
			req.Prior.MinMinutes = cfg.Analysis.MinMinutes
			if flags.Changed("min-minutes") {
				req.Prior.MinMinutes = minMinutes
			}
			if flags.Changed("nuisance") {
				req.Nuisance = nuisance
			}
			if flags.Changed("seed") {
				req.Seed = seed
			}
			if flags.Changed("draws") {
				req.Draws = draws
			}
			if flags.Changed("fallback-sd") {
				req.FallbackSD = fallbackSD
			}

			c, err := openWith(cmd, cfg)
			if err != nil {
				return err
			}
			defer c.Close()

			result, err := c.Analysis.Run(cmd.Context(), req)
			if err != nil {
				return err
			}
			r := result.Run

			if htmlOut != "" {
				page := report.Page("Posterior run "+r.ID.String(), report.HTML(report.Markdown(r)))
				if err := os.WriteFile(htmlOut, page, 0o644); err != nil {
					return fmt.Errorf("failed to write report: %w", err)
				}
			}
			if exportDir != "" {
				if err := exportRun(exportDir, r); err != nil {
					return err
				}
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), result)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, report.RunTerminal(r))
			printSkipped(out, r.Skipped)
			if result.Comparison != nil {
				fmt.Fprintln(out, report.ComparisonTerminal(result.Comparison))
			}
			fmt.Fprintf(out, "run %s recorded in %dms\n", r.ID, result.RuntimeMs)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&dataFile, "data", "", "Player-season table (.csv or .xlsx); overrides DATA_FILE")
	f.StringVar(&sheet, "sheet", "", "Worksheet name for .xlsx files")

	f.IntVar(&prior.FromSeason, "prior-from", 0, "First season in the prior")
	f.IntVar(&prior.ToSeason, "prior-to", 0, "Last season in the prior")
	f.Float64Var(&minMinutes, "min-minutes", 0, "Minimum minutes for a prior row (default MIN_MINUTES)")
	f.IntVar(&prior.MinGames, "min-games", 0, "Minimum games for a prior row")
	f.StringVar(&prior.Position, "position", "", "Restrict the prior to one position")

	f.StringVar(&obs.Player, "player", "", "Player whose seasons form the observation")
	f.IntVar(&obs.FromSeason, "obs-from", 0, "First observed season")
	f.IntVar(&obs.ToSeason, "obs-to", 0, "Last observed season")
	f.StringVar(&obs.Team, "team", "", "Restrict the observation to one team")
	_ = cmd.MarkFlagRequired("player")

	f.StringVar(&nuisance, "nuisance", "", "Nuisance SD estimate: pooled or within_player")
	f.BoolVar(&byGames, "weight-by-games", false, "Weight observed seasons by games played")
	f.BoolVar(&compare, "compare", false, "Sample every posterior and compare densities")
	f.Int64Var(&seed, "seed", 42, "Random seed for the comparison")
	f.IntVar(&draws, "draws", 0, "Draws per method (default SAMPLER_DRAWS)")
	f.Float64Var(&fallbackSD, "fallback-sd", 0, "SD used for methods that produce none")
	f.StringVar(&htmlOut, "html", "", "Write an HTML report to this file")
	f.StringVar(&exportDir, "export", "", "Write the run as JSON into this directory (see cmd/migrate)")
	f.BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func openWith(cmd *cobra.Command, cfg *config.Config) (*container.Container, error) {
	setLogLevel(cfg)
	return container.Open(cmd.Context(), cfg)
}

func exportRun(dir string, r *run.Run) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}
	f, err := os.Create(filepath.Join(dir, r.ID.String()+".json"))
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer f.Close()
	return writeJSON(f, r)
}
