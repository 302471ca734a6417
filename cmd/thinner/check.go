package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"thinner/internal/errors"
)

var (
	checkModel   string
	checkExclude string
	checkRemove  bool
	checkOutput  string
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check a model against an exclusion list",
	Long: `Report the elements of a model that an exclusion model marks Exclude.
With --remove, write the model without them instead of failing.

Examples:
  thinner check --model thinned.toml --exclude excluded.toml
  thinner check --model thinned.toml --exclude excluded.toml --remove -o clean.toml`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringVarP(&checkModel, "model", "m", "", "Model file to check")
	checkCmd.Flags().StringVar(&checkExclude, "exclude", "", "Model file listing excluded elements")
	checkCmd.Flags().BoolVar(&checkRemove, "remove", false, "Remove the excluded elements")
	checkCmd.Flags().StringVarP(&checkOutput, "output", "o", "", "Output file for --remove (default: overwrite --model)")
	_ = checkCmd.MarkFlagRequired("model")
	_ = checkCmd.MarkFlagRequired("exclude")
	rootCmd.AddCommand(checkCmd)
}

// CheckResponse lists exclusion violations.
type CheckResponse struct {
	Model      string   `json:"model"`
	Violations []string `json:"violations"`
	Removed    bool     `json:"removed"`
}

func runCheck(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	m, err := s.readModel(checkModel)
	if err != nil {
		return err
	}
	exclude, err := s.readModel(checkExclude)
	if err != nil {
		return err
	}

	resp := &CheckResponse{Model: checkModel, Violations: m.ExclusionViolations(exclude)}
	if resp.Violations == nil {
		resp.Violations = []string{}
	}

	if checkRemove && len(resp.Violations) > 0 {
		if err := m.RemovePresentIn(exclude); err != nil {
			return err
		}
		out := checkOutput
		if out == "" {
			out = checkModel
		}
		if err := m.Write(out); err != nil {
			return err
		}
		resp.Removed = true
	}

	text, err := FormatResponse(resp, OutputFormat(formatFlag))
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), text)

	if len(resp.Violations) > 0 && !resp.Removed {
		return errors.Newf(errors.ModelInvalid, "%d excluded element(s) present in %s", len(resp.Violations), checkModel).
			WithDetails(resp.Violations)
	}
	return nil
}
