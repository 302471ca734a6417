package version

import (
	"strings"
	"testing"
)

func restore(t *testing.T) {
	t.Helper()
	v, c, b := Version, Commit, BuildDate
	t.Cleanup(func() { Version, Commit, BuildDate = v, c, b })
}

func TestInfo(t *testing.T) {
	restore(t)

	tests := []struct {
		commit string
		want   string
	}{
		{"unknown", "1.0.0"},
		{"abc", "1.0.0"},
		{"1234567", "1.0.0"},
		{"12345678", "1.0.0 (1234567)"},
		{"abc1234567890", "1.0.0 (abc1234)"},
	}
	for _, tt := range tests {
		t.Run(tt.commit, func(t *testing.T) {
			Version, Commit = "1.0.0", tt.commit
			if got := Info(); got != tt.want {
				t.Errorf("Info() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFull(t *testing.T) {
	restore(t)
	Version, Commit, BuildDate = "1.2.3", "abcdef123456", "2026-01-15"

	got := Full()
	for _, part := range []string{"thinner version 1.2.3", "Commit: abcdef123456", "Built: 2026-01-15"} {
		if !strings.Contains(got, part) {
			t.Errorf("Full() = %q, want to contain %q", got, part)
		}
	}
}

func TestDefaultIsSemver(t *testing.T) {
	if parts := strings.Split(Version, "."); len(parts) != 3 {
		t.Errorf("Version %q doesn't appear to be semver", Version)
	}
}
