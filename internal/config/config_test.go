package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Version != CurrentVersion {
		t.Errorf("Version = %d, want %d", cfg.Version, CurrentVersion)
	}
	if cfg.Closure.FieldOptions != "normal" {
		t.Errorf("FieldOptions = %q, want %q", cfg.Closure.FieldOptions, "normal")
	}
	if !cfg.Storage.Enabled {
		t.Error("run history should be enabled by default")
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "warn")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadConfig_Missing(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Catalog.Format != "auto" {
		t.Errorf("Catalog.Format = %q, want %q", cfg.Catalog.Format, "auto")
	}
}

func TestSaveAndLoadConfig(t *testing.T) {
	root := t.TempDir()

	cfg := DefaultConfig()
	cfg.Closure.IncludedAssemblies = []string{"System.Runtime", "System.Core"}
	cfg.Closure.FieldOptions = "keepAllValueTypeFields"
	cfg.Model.Platform = "x86"
	cfg.Model.Defines = "FEATURE_A;FEATURE_B"

	if err := cfg.Save(root); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, DirName, "config.json")); err != nil {
		t.Fatalf("config.json not written: %v", err)
	}

	loaded, err := LoadConfig(root)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if len(loaded.Closure.IncludedAssemblies) != 2 {
		t.Errorf("IncludedAssemblies = %v, want 2 entries", loaded.Closure.IncludedAssemblies)
	}
	if loaded.Closure.FieldOptions != "keepAllValueTypeFields" {
		t.Errorf("FieldOptions = %q", loaded.Closure.FieldOptions)
	}
	if loaded.Model.Platform != "x86" {
		t.Errorf("Platform = %q, want x86", loaded.Model.Platform)
	}
	if loaded.Model.Defines != "FEATURE_A;FEATURE_B" {
		t.Errorf("Defines = %q", loaded.Model.Defines)
	}
}

func TestLoadConfig_Env(t *testing.T) {
	t.Setenv("THINNER_MODEL_FLAVOR", "chk")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Model.Flavor != "chk" {
		t.Errorf("Flavor = %q, want chk", cfg.Model.Flavor)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"bad version", func(c *Config) { c.Version = 9 }, "version"},
		{"bad field options", func(c *Config) { c.Closure.FieldOptions = "some" }, "closure.fieldOptions"},
		{"bad catalog format", func(c *Config) { c.Catalog.Format = "xml" }, "catalog.format"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"empty assembly", func(c *Config) { c.Closure.IncludedAssemblies = []string{" "} }, "closure.includedAssemblies"},
		{"negative backups", func(c *Config) { c.Logging.MaxBackups = -1 }, "logging.maxBackups"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			cerr, ok := err.(*ConfigError)
			if !ok {
				t.Fatalf("error type = %T, want *ConfigError", err)
			}
			if cerr.Field != tt.wantErr {
				t.Errorf("Field = %q, want %q", cerr.Field, tt.wantErr)
			}
		})
	}
}

const profilesTOML = `
default = "desktop"

[profile.desktop]
platform = "x86,amd64"
flavor = "ret"
defines = ["FEATURE_COM", "FEATURE_REMOTING"]
field_options = "keepAll"

[profile.phone]
platform = "arm"
treat_fx_internal_as_public = true
included_assemblies = ["mscorlib"]
`

func TestParseProfiles(t *testing.T) {
	profiles, err := ParseProfiles(profilesTOML)
	if err != nil {
		t.Fatalf("ParseProfiles() error = %v", err)
	}

	names := profiles.Names()
	if len(names) != 2 || names[0] != "desktop" || names[1] != "phone" {
		t.Errorf("Names() = %v, want [desktop phone]", names)
	}

	cfg := DefaultConfig()
	if err := profiles.Apply("", cfg); err != nil {
		t.Fatalf("Apply(default) error = %v", err)
	}
	if cfg.Model.Platform != "x86,amd64" || cfg.Model.Flavor != "ret" {
		t.Errorf("model = %+v", cfg.Model)
	}
	if cfg.Model.Defines != "FEATURE_COM;FEATURE_REMOTING" {
		t.Errorf("Defines = %q", cfg.Model.Defines)
	}
	if cfg.Closure.FieldOptions != "keepAll" {
		t.Errorf("FieldOptions = %q, want keepAll", cfg.Closure.FieldOptions)
	}

	cfg = DefaultConfig()
	if err := profiles.Apply("phone", cfg); err != nil {
		t.Fatalf("Apply(phone) error = %v", err)
	}
	if !cfg.Model.TreatFxInternalAsPublic {
		t.Error("TreatFxInternalAsPublic should be set by phone profile")
	}
	if len(cfg.Closure.IncludedAssemblies) != 1 || cfg.Closure.IncludedAssemblies[0] != "mscorlib" {
		t.Errorf("IncludedAssemblies = %v", cfg.Closure.IncludedAssemblies)
	}
	if cfg.Model.Profile != "phone" {
		t.Errorf("Profile = %q, want phone", cfg.Model.Profile)
	}

	if err := profiles.Apply("tablet", DefaultConfig()); err == nil {
		t.Error("Apply(unknown) = nil, want error")
	}
}

func TestParseProfiles_UnknownDefault(t *testing.T) {
	if _, err := ParseProfiles(`default = "nope"`); err == nil {
		t.Error("expected error for unknown default profile")
	}
}

func TestLoadProfiles_Missing(t *testing.T) {
	profiles, err := LoadProfiles(t.TempDir())
	if err != nil {
		t.Fatalf("LoadProfiles() error = %v", err)
	}
	if len(profiles.Profiles) != 0 {
		t.Errorf("expected no profiles, got %v", profiles.Names())
	}
}
