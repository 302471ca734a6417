package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	mergeOutput    string
	mergeOverwrite bool
)

var mergeCmd = &cobra.Command{
	Use:   "merge <model> <model>...",
	Short: "Merge several models into one",
	Long: `Merge models left to right. An element present in several inputs keeps the
annotations of the first one; differing statuses are an error unless
--overwrite lets later inputs win.

Examples:
  thinner merge roots.toml extra.toml -o merged.toml
  thinner merge base.toml override.toml --overwrite -o merged.toml`,
	Args: cobra.MinimumNArgs(2),
	RunE: runMerge,
}

func init() {
	mergeCmd.Flags().StringVarP(&mergeOutput, "output", "o", "", "Output model file")
	mergeCmd.Flags().BoolVar(&mergeOverwrite, "overwrite", false, "Later inputs overwrite earlier annotations")
	_ = mergeCmd.MarkFlagRequired("output")
	rootCmd.AddCommand(mergeCmd)
}

// MergeResponse summarizes a merge.
type MergeResponse struct {
	Inputs   []string       `json:"inputs"`
	Output   string         `json:"output"`
	Elements int            `json:"elements"`
	ByStatus map[string]int `json:"byStatus"`
}

func runMerge(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	merged, err := s.readModel(args[0])
	if err != nil {
		return err
	}
	for _, path := range args[1:] {
		next, err := s.readModel(path)
		if err != nil {
			return err
		}
		if err := merged.Merge(next, mergeOverwrite); err != nil {
			return err
		}
	}
	if err := merged.Write(mergeOutput); err != nil {
		return err
	}

	stats := merged.Stats()
	resp := &MergeResponse{Inputs: args, Output: mergeOutput, Elements: stats.Total(), ByStatus: statusCounts(stats)}
	text, err := FormatResponse(resp, OutputFormat(formatFlag))
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), text)
	return nil
}
