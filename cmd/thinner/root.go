package main

import (
	"github.com/spf13/cobra"

	"thinner/internal/version"
)

var (
	verbosity    int
	quietFlag    bool
	formatFlag   string
	rootDirFlag  string
	profileFlag  string
	platformFlag string
	archFlag     string
	flavorFlag   string
	defineFlags  []string
	catalogFlags []string
)

var rootCmd = &cobra.Command{
	Use:   "thinner",
	Short: "thinner - metadata closure engine",
	Long: `thinner computes which types and members of a set of compiled assemblies must
be kept so that a root model still works, and writes an annotated model with an
inclusion status and visibility override for every retained element.

The API closure follows the public surface of the ApiRoot elements. The
implementation closure follows everything that code reachable from the roots
needs: bodies, attributes, overrides and constructor chains.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate("thinner version {{.Version}}\n")

	flags := rootCmd.PersistentFlags()
	flags.CountVarP(&verbosity, "verbose", "v", "Increase log verbosity (-v info, -vv debug)")
	flags.BoolVar(&quietFlag, "quiet", false, "Suppress all log output")
	flags.StringVar(&formatFlag, "format", "human", "Output format (json, human)")
	flags.StringVar(&rootDirFlag, "root", "", "Project directory holding .thinner/ (default: current directory)")
	flags.StringVar(&profileFlag, "profile", "", "Build profile from .thinner/profiles.toml")
	flags.StringVar(&platformFlag, "platform", "", "Keep only model elements for this platform")
	flags.StringVar(&archFlag, "arch", "", "Keep only model elements for this architecture")
	flags.StringVar(&flavorFlag, "flavor", "", "Keep only model elements for this flavor")
	flags.StringSliceVar(&defineFlags, "define", nil, "Symbols defined for model conditions (can be repeated)")
	flags.StringSliceVar(&catalogFlags, "catalog", nil, "Metadata catalog files (default: catalog.paths from config)")
}
