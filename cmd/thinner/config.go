package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"thinner/internal/config"
)

var (
	configShowDiff bool
	configForce    bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage thinner configuration",
	Long:  "View and manage the configuration stored in .thinner/config.json",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Display the configuration after build profile, environment and flag overlays.

Examples:
  thinner config show
  thinner config show --format json
  thinner config show --profile linux --diff`,
	RunE: runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration",
	Long: `Write .thinner/config.json with default values and an example
.thinner/profiles.toml. Existing files are kept unless --force is given.`,
	RunE: runConfigInit,
}

func init() {
	configShowCmd.Flags().BoolVar(&configShowDiff, "diff", false, "Only show non-default values")
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite existing files")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

// ConfigShowResponse is the response format for config show
type ConfigShowResponse struct {
	Root     string         `json:"root"`
	Profiles []string       `json:"profiles,omitempty"`
	Config   map[string]any `json:"config"`
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	current, err := flatten(s.cfg)
	if err != nil {
		return err
	}
	if configShowDiff {
		defaults, err := flatten(config.DefaultConfig())
		if err != nil {
			return err
		}
		current = computeDiff(current, defaults)
	}

	profiles, err := config.LoadProfiles(s.root)
	if err != nil {
		return err
	}

	resp := &ConfigShowResponse{Root: s.root, Profiles: profiles.Names(), Config: current}
	text, err := FormatResponse(resp, OutputFormat(formatFlag))
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), text)
	return nil
}

const exampleProfiles = `# Build profiles overlay model reader options.
# Select one with --profile or "default" below.
default = ""

[profile.windows]
platform = "windows"
defines = ["WINDOWS"]

[profile.linux]
platform = "linux"
defines = ["UNIX"]
field_options = "keepAllValueTypeFields"
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	root := rootDirFlag
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return err
		}
		root = wd
	}

	dir := filepath.Join(root, config.DirName)
	cfgPath := filepath.Join(dir, "config.json")
	if configForce || !exists(cfgPath) {
		if err := config.DefaultConfig().Save(root); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", cfgPath)
	}

	profPath := filepath.Join(dir, config.ProfilesFileName)
	if configForce || !exists(profPath) {
		if err := os.WriteFile(profPath, []byte(exampleProfiles), 0644); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", profPath)
	}
	return nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// flatten renders v as a map from dotted JSON paths to leaf values.
func flatten(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var tree map[string]any
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, err
	}
	out := make(map[string]any)
	var walk func(prefix string, node map[string]any)
	walk = func(prefix string, node map[string]any) {
		for k, val := range node {
			key := k
			if prefix != "" {
				key = prefix + "." + k
			}
			if sub, ok := val.(map[string]any); ok {
				walk(key, sub)
				continue
			}
			out[key] = val
		}
	}
	walk("", tree)
	return out, nil
}

// computeDiff returns the entries of current that differ from defaults.
func computeDiff(current, defaults map[string]any) map[string]any {
	diff := make(map[string]any)
	for k, v := range current {
		if !isEqual(v, defaults[k]) {
			diff[k] = v
		}
	}
	return diff
}

func isEqual(a, b any) bool {
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func formatConfigHuman(resp *ConfigShowResponse) string {
	var b strings.Builder
	b.WriteString("thinner configuration\n")
	b.WriteString(strings.Repeat("─", 50) + "\n")
	fmt.Fprintf(&b, "Root: %s\n", resp.Root)
	if len(resp.Profiles) > 0 {
		fmt.Fprintf(&b, "Profiles: %s\n", strings.Join(resp.Profiles, ", "))
	}
	b.WriteString("\n")
	if len(resp.Config) == 0 {
		b.WriteString("  (no modifications - using all defaults)\n")
	}
	for _, k := range sortedKeys(resp.Config) {
		fmt.Fprintf(&b, "%s: %v\n", k, resp.Config[k])
	}
	return b.String()
}
