package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"thinner/internal/errors"
	"thinner/internal/model"
)

const cliCatalog = `
assemblies:
  - name: mscorlib
    types:
      - name: System.Object
        members:
          - name: .ctor
  - name: Lib
    types:
      - name: Lib.Api
        base: System.Object
        members:
          - name: .ctor
            body:
              calls: ["System.Object::.ctor"]
          - name: Run
            body:
              calls: ["Lib.Impl::Go"]
      - name: Lib.Impl
        visibility: assembly
        base: System.Object
        members:
          - name: Go
            static: true
          - name: Unused
`

const cliRoots = `
[[assembly]]
name = "Lib"
status = "ApiRoot"

  [[assembly.type]]
  name = "Lib.Api"

    [[assembly.type.member]]
    name = "Run"
`

func resetFlags() {
	verbosity, quietFlag, formatFlag = 0, false, "human"
	rootDirFlag, profileFlag, platformFlag, archFlag, flavorFlag = "", "", "", "", ""
	defineFlags, catalogFlags = nil, nil
	closureModel, closureOutput, closureApiOutput, closureFields, closureInclude = "", "", "", "", nil
	catalogCheck, configShowDiff, configForce = false, false, false
}

// execute runs the CLI in dir and returns stdout.
func execute(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	resetFlags()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(append([]string{"--root", dir, "--quiet"}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestClosureCommand(t *testing.T) {
	dir := t.TempDir()
	cat := writeFile(t, filepath.Join(dir, "lib.yaml"), cliCatalog)
	roots := writeFile(t, filepath.Join(dir, "roots.toml"), cliRoots)
	apiOut := filepath.Join(dir, "api.toml")
	implOut := filepath.Join(dir, "impl.toml")

	out, err := execute(t, dir, "closure", "--catalog", cat, "--include", "Lib",
		"-m", roots, "--api-output", apiOut, "-o", implOut, "--format", "json")
	if err != nil {
		t.Fatalf("closure: %v", err)
	}

	var responses []ClosureResponse
	if err := json.Unmarshal([]byte(out), &responses); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if len(responses) != 2 || responses[0].Stats.Pass != "api" || responses[1].Stats.Pass != "impl" {
		t.Fatalf("responses = %+v", responses)
	}
	if responses[0].RunID == "" {
		t.Error("run not recorded")
	}

	impl, err := model.Read(implOut, model.ReadOptions{})
	if err != nil {
		t.Fatalf("read impl output: %v", err)
	}
	typ := impl.Assembly("Lib").Type("Lib.Impl")
	if typ == nil || typ.Member("Method : Go") == nil {
		t.Fatal("impl closure lost Lib.Impl::Go")
	}
	if typ.Member("Method : Unused") != nil {
		t.Error("impl closure kept an unreachable member")
	}
	if _, err := os.Stat(apiOut); err != nil {
		t.Errorf("api output: %v", err)
	}

	out, err = execute(t, dir, "runs")
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if strings.Count(strings.TrimSpace(out), "\n")+1 != 2 || !strings.Contains(out, "impl.toml") {
		t.Errorf("runs output:\n%s", out)
	}
}

func TestClosureRecordsInMemoryModel(t *testing.T) {
	dir := t.TempDir()
	cat := writeFile(t, filepath.Join(dir, "lib.yaml"), cliCatalog)
	roots := writeFile(t, filepath.Join(dir, "roots.toml"), cliRoots)
	implOut := filepath.Join(dir, "impl.toml")

	out, err := execute(t, dir, "closure", "--catalog", cat, "--include", "Lib",
		"-m", roots, "-o", implOut, "--format", "json")
	if err != nil {
		t.Fatalf("closure: %v", err)
	}
	var responses []ClosureResponse
	if err := json.Unmarshal([]byte(out), &responses); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if len(responses) != 2 || responses[0].Output != inMemoryOutput {
		t.Fatalf("responses = %+v", responses)
	}

	out, err = execute(t, dir, "runs", "--format", "json")
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	var runs RunsResponse
	if err := json.Unmarshal([]byte(out), &runs); err != nil {
		t.Fatalf("decode runs: %v\n%s", err, out)
	}

	tests := []struct {
		pass       string
		modelPath  string
		outputPath string
	}{
		{"api", roots, inMemoryOutput},
		{"impl", inMemoryOutput, implOut},
	}
	for _, tt := range tests {
		found := false
		for _, r := range runs.Runs {
			if r.Pass != tt.pass {
				continue
			}
			found = true
			if r.ModelPath != tt.modelPath || r.OutputPath != tt.outputPath {
				t.Errorf("%s run paths = %q -> %q, want %q -> %q",
					tt.pass, r.ModelPath, r.OutputPath, tt.modelPath, tt.outputPath)
			}
		}
		if !found {
			t.Errorf("no %s run recorded", tt.pass)
		}
	}
}

func TestClosureRequiresModel(t *testing.T) {
	if _, err := execute(t, t.TempDir(), "api-closure", "-o", "x.toml"); err == nil {
		t.Fatal("expected an error without --model")
	}
}

func TestCatalogCheck(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, filepath.Join(dir, "lib.yaml"), cliCatalog)

	out, err := execute(t, dir, "catalog", "--check", "--catalog", good)
	if err != nil {
		t.Fatalf("catalog --check: %v", err)
	}
	if !strings.Contains(out, "2 assemblies, 3 types") {
		t.Errorf("catalog output:\n%s", out)
	}

	bad := writeFile(t, filepath.Join(dir, "bad.yaml"), strings.Replace(cliCatalog, "Lib.Impl::Go", "Lib.Impl::Gone", 1))
	_, err = execute(t, dir, "catalog", "--check", "--catalog", bad)
	if !errors.HasCode(err, errors.UnresolvedReference) {
		t.Errorf("catalog --check on broken catalog = %v", err)
	}
}

func TestConfigInitAndShow(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, dir, "config", "init")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, "config.json") || !strings.Contains(out, "profiles.toml") {
		t.Errorf("config init output:\n%s", out)
	}

	out, err = execute(t, dir, "config", "show", "--diff", "--profile", "linux", "--format", "json")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	var resp ConfigShowResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if resp.Config["model.platform"] != "linux" {
		t.Errorf("profile not applied: %v", resp.Config)
	}
	if len(resp.Profiles) != 2 {
		t.Errorf("profiles = %v", resp.Profiles)
	}
}

func TestPrintError(t *testing.T) {
	var buf bytes.Buffer
	printError(&buf, errors.New(errors.UnresolvedReference, "broken", nil))
	if !strings.Contains(buf.String(), "Error:") || !strings.Contains(buf.String(), "Suggested fixes:") {
		t.Errorf("printError output:\n%s", buf.String())
	}
}
