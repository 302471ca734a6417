package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"thinner/internal/errors"
	"thinner/internal/metadata"
)

var catalogCheck bool

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Load metadata catalogs and report their contents",
	Long: `Load the configured catalogs, print entity counts and the input digest.
With --check, resolve every type and member reference and fail on the ones
that name nothing.

Examples:
  thinner catalog --catalog corlib.yaml --catalog app.yaml.zst
  thinner catalog --check`,
	RunE: runCatalog,
}

func init() {
	catalogCmd.Flags().BoolVar(&catalogCheck, "check", false, "Verify every reference resolves")
	rootCmd.AddCommand(catalogCmd)
}

// CatalogResponse describes loaded catalogs.
type CatalogResponse struct {
	Paths    []string       `json:"paths"`
	Digest   string         `json:"digest"`
	Stats    metadata.Stats `json:"stats"`
	Problems []string       `json:"problems,omitempty"`
}

func runCatalog(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	program, digest, err := s.loadProgram()
	if err != nil {
		return err
	}

	resp := &CatalogResponse{Paths: s.cfg.Catalog.Paths, Digest: digest, Stats: program.Stats()}
	if catalogCheck {
		for _, p := range program.Verify() {
			resp.Problems = append(resp.Problems, p.String())
		}
	}

	text, err := FormatResponse(resp, OutputFormat(formatFlag))
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), text)

	if len(resp.Problems) > 0 {
		return errors.Newf(errors.UnresolvedReference, "%d unresolved reference(s); first: %s", len(resp.Problems), resp.Problems[0]).
			WithDetails(resp.Problems)
	}
	return nil
}
