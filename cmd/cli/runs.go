package main

import (
	"fmt"

	"goposterior/domain/core"
	"goposterior/internal/container"
	"goposterior/internal/report"

	"github.com/spf13/cobra"
)

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect recorded runs (requires DATABASE_URL)",
	}
	cmd.AddCommand(newRunsListCmd(), newRunsShowCmd(), newRunsReplayCmd())
	return cmd
}

func newRunsListCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the most recent runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openLedger(cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			runs, err := c.Analysis.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), report.RunsTerminal(runs))
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs")
	return cmd
}

func newRunsShowCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := core.ParseRunID(args[0])
			if err != nil {
				return err
			}
			c, err := openLedger(cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			r, err := c.Analysis.GetRun(cmd.Context(), id)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), r)
			}
			fmt.Fprintln(cmd.OutOrStdout(), report.RunTerminal(r))
			printSkipped(cmd.OutOrStdout(), r.Skipped)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func newRunsReplayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "replay <run-id>",
		Short: "Recompute a run's posteriors and check they still match",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := core.ParseRunID(args[0])
			if err != nil {
				return err
			}
			c, err := openLedger(cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			ok, err := c.Analysis.Replay(cmd.Context(), id)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("run %s no longer reproduces", id)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "run %s reproduces\n", id)
			return nil
		},
	}
}

// openLedger opens a container backed by PostgreSQL. The in-memory ledger
// does not outlive the process, so there is nothing to inspect without it.
func openLedger(cmd *cobra.Command) (*container.Container, error) {
	c, err := openContainer(cmd.Context())
	if err != nil {
		return nil, err
	}
	if c.DB == nil {
		c.Close()
		return nil, fmt.Errorf("DATABASE_URL is not set; runs are not kept between invocations")
	}
	return c, nil
}
