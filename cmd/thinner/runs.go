package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"thinner/internal/storage"
)

var (
	runsLimit     int
	runsPruneDays int
)

var runsCmd = &cobra.Command{
	Use:   "runs [id]",
	Short: "Show the closure run history",
	Long: `List recorded closure runs, most recent first, or show one run by id.

Examples:
  thinner runs
  thinner runs --limit 5 --format json
  thinner runs 0b5c8e9e-6f1d-4c6e-8d43-2f5d8e1c9a10
  thinner runs --prune-days 30`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRuns,
}

func init() {
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "Maximum runs to list (0 = all)")
	runsCmd.Flags().IntVar(&runsPruneDays, "prune-days", 0, "Delete runs older than this many days")
	rootCmd.AddCommand(runsCmd)
}

// RunsResponse lists recorded runs.
type RunsResponse struct {
	Runs   []*storage.Run `json:"runs"`
	Pruned int64          `json:"pruned,omitempty"`
}

func runRuns(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	repo, done, err := s.openRuns()
	if err != nil {
		return err
	}
	defer done()

	ctx, cancel := newContext()
	defer cancel()

	resp := &RunsResponse{}
	if runsPruneDays > 0 {
		cutoff := time.Now().AddDate(0, 0, -runsPruneDays)
		if resp.Pruned, err = repo.Prune(ctx, cutoff); err != nil {
			return err
		}
	}

	if len(args) == 1 {
		run, err := repo.Get(ctx, args[0])
		if err != nil {
			return err
		}
		if run == nil {
			return fmt.Errorf("no run %s", args[0])
		}
		resp.Runs = []*storage.Run{run}
	} else if resp.Runs, err = repo.List(ctx, runsLimit); err != nil {
		return err
	}

	text, err := FormatResponse(resp, OutputFormat(formatFlag))
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), text)
	return nil
}
