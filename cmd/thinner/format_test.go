package main

import (
	"strings"
	"testing"
	"time"

	"thinner/internal/closure"
	"thinner/internal/metadata"
	"thinner/internal/model"
	"thinner/internal/storage"
)

func TestFormatResponse_JSON(t *testing.T) {
	resp := &MergeResponse{Inputs: []string{"a.toml", "b.toml"}, Output: "out.toml", Elements: 3}

	result, err := FormatResponse(resp, FormatJSON)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(result, `"output": "out.toml"`) {
		t.Errorf("JSON output missing output: %s", result)
	}
	if !strings.Contains(result, `"elements": 3`) {
		t.Errorf("JSON output missing element count: %s", result)
	}
}

func TestFormatResponse_UnsupportedFormat(t *testing.T) {
	_, err := FormatResponse(map[string]string{"key": "value"}, "xml")
	if err == nil || !strings.Contains(err.Error(), "unsupported format") {
		t.Errorf("FormatResponse(xml) = %v", err)
	}
}

func TestFormatHuman(t *testing.T) {
	tests := []struct {
		name string
		resp any
		want []string
	}{
		{
			name: "closure",
			resp: []*ClosureResponse{{
				RunID:  "0123456789",
				Output: "impl.toml",
				Stats: closure.Stats{
					Pass:       "impl",
					Retained:   metadata.Stats{Assemblies: 1, Types: 2, Members: 5},
					Iterations: 2,
					Hidden:     1,
					Duration:   time.Millisecond,
				},
				Unconstructible: []string{"Lib Lib.Orphan"},
			}},
			want: []string{"impl closure -> impl.toml", "1 assemblies, 2 types, 5 members", "Hidden:      1", "⚠ Lib Lib.Orphan"},
		},
		{
			name: "check clean",
			resp: &CheckResponse{Model: "m.toml", Removed: true},
			want: []string{"✓ m.toml", "(after removal)"},
		},
		{
			name: "check violations",
			resp: &CheckResponse{Model: "m.toml", Violations: []string{"Lib.Secret"}},
			want: []string{"✗ m.toml keeps 1 excluded", "- Lib.Secret"},
		},
		{
			name: "merge",
			resp: &MergeResponse{Inputs: []string{"a", "b"}, Output: "o", Elements: 4, ByStatus: map[string]int{"ApiRoot": 3, "ImplRoot": 1}},
			want: []string{"Merged 2 models into o", "ApiRoot:", "ImplRoot:"},
		},
		{
			name: "runs",
			resp: &RunsResponse{Pruned: 2, Runs: []*storage.Run{{ID: "abcdefghijkl", Pass: "api", Types: 7, OutputPath: "api.toml", CreatedAt: time.Now()}}},
			want: []string{"Pruned 2 run(s)", "abcdefgh ", "types=7", "api.toml"},
		},
		{
			name: "no runs",
			resp: &RunsResponse{},
			want: []string{"No recorded runs"},
		},
		{
			name: "catalog",
			resp: &CatalogResponse{Paths: []string{"a.yaml"}, Digest: "ff", Problems: []string{"Lib.T: unresolved"}},
			want: []string{"Catalogs: a.yaml", "Digest:   ff", "✗ Lib.T: unresolved"},
		},
		{
			name: "config without changes",
			resp: &ConfigShowResponse{Root: "/r", Config: map[string]any{}},
			want: []string{"Root: /r", "no modifications"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FormatResponse(tt.resp, FormatHuman)
			if err != nil {
				t.Fatalf("FormatResponse: %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("output missing %q:\n%s", w, got)
				}
			}
		})
	}
}

func TestStatusCounts(t *testing.T) {
	m := model.New()
	a := m.AddAssembly("Lib", model.StatusApiRoot)
	typ := a.AddType("Lib.T", model.StatusApiRoot)
	typ.AddMember("Method : Run", model.StatusImplRoot)
	a.AddType("Lib.U", model.StatusImplClosure)

	got := statusCounts(m.Stats())
	want := map[string]int{"ApiRoot": 2, "ImplRoot": 1, "ImplClosure": 1}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("statusCounts[%s] = %d, want %d", k, got[k], v)
		}
	}
}

func TestComputeDiff(t *testing.T) {
	current := map[string]any{"a": 1, "b": "x", "c": []any{"p"}}
	defaults := map[string]any{"a": 1, "b": "y", "c": []any{}}

	diff := computeDiff(current, defaults)
	if len(diff) != 2 || diff["b"] != "x" {
		t.Errorf("computeDiff = %v", diff)
	}
	if _, ok := diff["a"]; ok {
		t.Error("unchanged key reported")
	}
}
