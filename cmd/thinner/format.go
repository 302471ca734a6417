package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"thinner/internal/model"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatJSON  OutputFormat = "json"
	FormatHuman OutputFormat = "human"
)

// FormatResponse formats a response according to the specified format
func FormatResponse(resp any, format OutputFormat) (string, error) {
	switch format {
	case FormatJSON:
		return formatJSON(resp)
	case FormatHuman:
		return formatHuman(resp)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

func formatJSON(resp any) (string, error) {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data), nil
}

func formatHuman(resp any) (string, error) {
	switch v := resp.(type) {
	case []*ClosureResponse:
		return formatClosureHuman(v), nil
	case *CheckResponse:
		return formatCheckHuman(v), nil
	case *MergeResponse:
		return formatMergeHuman(v), nil
	case *RunsResponse:
		return formatRunsHuman(v), nil
	case *CatalogResponse:
		return formatCatalogHuman(v), nil
	case *ConfigShowResponse:
		return formatConfigHuman(v), nil
	default:
		return formatJSON(resp)
	}
}

func formatClosureHuman(responses []*ClosureResponse) string {
	var b strings.Builder
	for i, r := range responses {
		if i > 0 {
			b.WriteString("\n")
		}
		st := r.Stats
		fmt.Fprintf(&b, "%s closure -> %s\n", st.Pass, r.Output)
		b.WriteString(strings.Repeat("─", 50) + "\n")
		fmt.Fprintf(&b, "  Retained:    %s\n", st.Retained)
		fmt.Fprintf(&b, "  Iterations:  %d (virtual +%d, ctor +%d)\n", st.Iterations, st.VirtualAdded, st.CtorAdded)
		fmt.Fprintf(&b, "  Hidden:      %d\n", st.Hidden)
		fmt.Fprintf(&b, "  Duration:    %s\n", st.Duration)
		if r.RunID != "" {
			fmt.Fprintf(&b, "  Run:         %s\n", r.RunID)
		}
		if len(r.Unconstructible) > 0 {
			fmt.Fprintf(&b, "\n  Unconstructible (%d):\n", len(r.Unconstructible))
			for _, u := range r.Unconstructible {
				fmt.Fprintf(&b, "    ⚠ %s\n", u)
			}
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatCheckHuman(resp *CheckResponse) string {
	var b strings.Builder
	if len(resp.Violations) == 0 {
		fmt.Fprintf(&b, "✓ %s keeps nothing the exclusion list removes", resp.Model)
		if resp.Removed {
			b.WriteString(" (after removal)")
		}
		return b.String()
	}
	fmt.Fprintf(&b, "✗ %s keeps %d excluded element(s):\n", resp.Model, len(resp.Violations))
	for _, v := range resp.Violations {
		fmt.Fprintf(&b, "  - %s\n", v)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatMergeHuman(resp *MergeResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Merged %d models into %s\n", len(resp.Inputs), resp.Output)
	fmt.Fprintf(&b, "  Elements: %d\n", resp.Elements)
	for _, s := range model.AllStatuses() {
		if n := resp.ByStatus[s.String()]; n > 0 {
			fmt.Fprintf(&b, "  %-14s %d\n", s.String()+":", n)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatRunsHuman(resp *RunsResponse) string {
	var b strings.Builder
	if resp.Pruned > 0 {
		fmt.Fprintf(&b, "Pruned %d run(s)\n", resp.Pruned)
	}
	if len(resp.Runs) == 0 {
		b.WriteString("No recorded runs")
		return b.String()
	}
	for _, r := range resp.Runs {
		fmt.Fprintf(&b, "%s  %-4s  %s  types=%d members=%d hidden=%d  %s\n",
			r.CreatedAt.Local().Format("2006-01-02 15:04:05"), r.Pass, shortID(r.ID),
			r.Types, r.Members, r.Hidden, r.OutputPath)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatCatalogHuman(resp *CatalogResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Catalogs: %s\n", strings.Join(resp.Paths, ", "))
	fmt.Fprintf(&b, "Digest:   %s\n", resp.Digest)
	fmt.Fprintf(&b, "Contents: %s\n", resp.Stats)
	if len(resp.Problems) > 0 {
		fmt.Fprintf(&b, "\nUnresolved references (%d):\n", len(resp.Problems))
		for _, p := range resp.Problems {
			fmt.Fprintf(&b, "  ✗ %s\n", p)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// statusCounts folds model stats into one count per status name.
func statusCounts(s model.Stats) map[string]int {
	out := make(map[string]int)
	for _, bucket := range []map[model.Status]int{s.Assemblies, s.Types, s.Members, s.Forwarders} {
		for st, n := range bucket {
			out[st.String()] += n
		}
	}
	return out
}
