package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// DirName is the per-project state directory holding config, logs and run history.
const DirName = ".thinner"

// CurrentVersion is the config schema version written by this build.
const CurrentVersion = 1

// Config represents the complete thinner configuration
type Config struct {
	Version int `json:"version" mapstructure:"version"`

	Closure ClosureConfig `json:"closure" mapstructure:"closure"`
	Model   ModelConfig   `json:"model" mapstructure:"model"`
	Catalog CatalogConfig `json:"catalog" mapstructure:"catalog"`
	Storage StorageConfig `json:"storage" mapstructure:"storage"`
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`
}

// ClosureConfig controls the closure engine
type ClosureConfig struct {
	// IncludedAssemblies limits which assemblies may contribute entities.
	// Empty means every assembly in the catalog.
	IncludedAssemblies []string `json:"includedAssemblies" mapstructure:"includedAssemblies"`
	// FieldOptions is one of normal, keepAll, keepAllValueTypeFields
	FieldOptions string `json:"fieldOptions" mapstructure:"fieldOptions"`
}

// ModelConfig contains root model reader options
type ModelConfig struct {
	Platform                string `json:"platform" mapstructure:"platform"`
	Architecture            string `json:"architecture" mapstructure:"architecture"`
	Flavor                  string `json:"flavor" mapstructure:"flavor"`
	Defines                 string `json:"defines" mapstructure:"defines"`
	TreatFxInternalAsPublic bool   `json:"treatFxInternalAsPublic" mapstructure:"treatFxInternalAsPublic"`
	Profile                 string `json:"profile,omitempty" mapstructure:"profile"`
}

// CatalogConfig lists metadata catalogs loaded when no --catalog flag is given
type CatalogConfig struct {
	Paths  []string `json:"paths" mapstructure:"paths"`
	Format string   `json:"format" mapstructure:"format"` // auto, yaml, json, scip
}

// StorageConfig controls the run history database
type StorageConfig struct {
	Enabled bool `json:"enabled" mapstructure:"enabled"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level   string `json:"level" mapstructure:"level"`   // debug, info, warn, error
	Format  string `json:"format" mapstructure:"format"` // text, json
	ToFile  bool   `json:"toFile" mapstructure:"toFile"`
	Closure string `json:"closure,omitempty" mapstructure:"closure"`
	Model   string `json:"model,omitempty" mapstructure:"model"`
	Catalog string `json:"catalog,omitempty" mapstructure:"catalog"`

	// MaxSize rotates log files past this size, e.g. "10MB". Empty disables rotation.
	MaxSize    string `json:"maxSize" mapstructure:"maxSize"`
	MaxBackups int    `json:"maxBackups" mapstructure:"maxBackups"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: CurrentVersion,
		Closure: ClosureConfig{
			IncludedAssemblies: []string{},
			FieldOptions:       "normal",
		},
		Catalog: CatalogConfig{
			Paths:  []string{},
			Format: "auto",
		},
		Storage: StorageConfig{
			Enabled: true,
		},
		Logging: LoggingConfig{
			Level:      "warn",
			Format:     "text",
			MaxSize:    "10MB",
			MaxBackups: 3,
		},
	}
}

// LoadConfig loads configuration from .thinner/config.json, with
// THINNER_* environment variables taking precedence over the file.
func LoadConfig(repoRoot string) (*Config, error) {
	v := viper.New()

	def := DefaultConfig()
	v.SetDefault("version", def.Version)
	v.SetDefault("closure.includedAssemblies", def.Closure.IncludedAssemblies)
	v.SetDefault("closure.fieldOptions", def.Closure.FieldOptions)
	v.SetDefault("model.platform", "")
	v.SetDefault("model.architecture", "")
	v.SetDefault("model.flavor", "")
	v.SetDefault("model.defines", "")
	v.SetDefault("model.treatFxInternalAsPublic", false)
	v.SetDefault("model.profile", "")
	v.SetDefault("catalog.paths", def.Catalog.Paths)
	v.SetDefault("catalog.format", def.Catalog.Format)
	v.SetDefault("storage.enabled", def.Storage.Enabled)
	v.SetDefault("logging.level", def.Logging.Level)
	v.SetDefault("logging.format", def.Logging.Format)
	v.SetDefault("logging.toFile", false)
	v.SetDefault("logging.maxSize", def.Logging.MaxSize)
	v.SetDefault("logging.maxBackups", def.Logging.MaxBackups)

	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(filepath.Join(repoRoot, DirName))

	v.SetEnvPrefix("THINNER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the configuration to .thinner/config.json
func (c *Config) Save(repoRoot string) error {
	dir := filepath.Join(repoRoot, DirName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(dir, "config.json"), data, 0644)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Version != CurrentVersion {
		return &ConfigError{Field: "version", Message: fmt.Sprintf("unsupported config version %d", c.Version)}
	}

	switch c.Closure.FieldOptions {
	case "", "normal", "keepAll", "keepAllValueTypeFields":
	default:
		return &ConfigError{Field: "closure.fieldOptions", Message: "must be normal, keepAll or keepAllValueTypeFields"}
	}

	switch strings.ToLower(c.Catalog.Format) {
	case "", "auto", "yaml", "json", "scip":
	default:
		return &ConfigError{Field: "catalog.format", Message: "must be auto, yaml, json or scip"}
	}

	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		return &ConfigError{Field: "logging.format", Message: "must be text or json"}
	}

	if c.Logging.MaxBackups < 0 {
		return &ConfigError{Field: "logging.maxBackups", Message: "must not be negative"}
	}

	for _, name := range c.Closure.IncludedAssemblies {
		if strings.TrimSpace(name) == "" {
			return &ConfigError{Field: "closure.includedAssemblies", Message: "assembly names must not be empty"}
		}
	}

	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
