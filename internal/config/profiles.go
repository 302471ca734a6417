package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// ProfilesFileName is the build profile file inside DirName.
const ProfilesFileName = "profiles.toml"

// Profile is a named set of model reader options, e.g. one per target
// platform, so the same root model can be thinned for several builds.
type Profile struct {
	Platform                string   `toml:"platform"`
	Architecture            string   `toml:"architecture"`
	Flavor                  string   `toml:"flavor"`
	Defines                 []string `toml:"defines"`
	TreatFxInternalAsPublic *bool    `toml:"treat_fx_internal_as_public"`
	IncludedAssemblies      []string `toml:"included_assemblies"`
	FieldOptions            string   `toml:"field_options"`
}

// Profiles is the decoded profiles.toml.
type Profiles struct {
	Default  string             `toml:"default"`
	Profiles map[string]Profile `toml:"profile"`
}

// LoadProfiles reads <repoRoot>/.thinner/profiles.toml. A missing file
// yields an empty set.
func LoadProfiles(repoRoot string) (*Profiles, error) {
	path := filepath.Join(repoRoot, DirName, ProfilesFileName)
	profiles := &Profiles{Profiles: map[string]Profile{}}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return profiles, nil
	}

	if _, err := toml.DecodeFile(path, profiles); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if err := profiles.Validate(); err != nil {
		return nil, err
	}

	return profiles, nil
}

// ParseProfiles decodes profiles from TOML text.
func ParseProfiles(data string) (*Profiles, error) {
	profiles := &Profiles{Profiles: map[string]Profile{}}
	if _, err := toml.Decode(data, profiles); err != nil {
		return nil, err
	}
	if err := profiles.Validate(); err != nil {
		return nil, err
	}
	return profiles, nil
}

// Validate checks that the default profile exists and field options are known.
func (p *Profiles) Validate() error {
	if p.Default != "" {
		if _, ok := p.Profiles[p.Default]; !ok {
			return &ConfigError{Field: "default", Message: fmt.Sprintf("unknown profile %q", p.Default)}
		}
	}
	for name, prof := range p.Profiles {
		switch prof.FieldOptions {
		case "", "normal", "keepAll", "keepAllValueTypeFields":
		default:
			return &ConfigError{Field: "profile." + name + ".field_options", Message: "must be normal, keepAll or keepAllValueTypeFields"}
		}
	}
	return nil
}

// Names returns the profile names in sorted order.
func (p *Profiles) Names() []string {
	names := make([]string, 0, len(p.Profiles))
	for name := range p.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Apply overlays the named profile (or the default one when name is empty)
// on cfg. Empty profile fields leave cfg untouched.
func (p *Profiles) Apply(name string, cfg *Config) error {
	if name == "" {
		name = p.Default
	}
	if name == "" {
		return nil
	}

	prof, ok := p.Profiles[name]
	if !ok {
		return &ConfigError{Field: "profile", Message: fmt.Sprintf("unknown profile %q", name)}
	}

	if prof.Platform != "" {
		cfg.Model.Platform = prof.Platform
	}
	if prof.Architecture != "" {
		cfg.Model.Architecture = prof.Architecture
	}
	if prof.Flavor != "" {
		cfg.Model.Flavor = prof.Flavor
	}
	if len(prof.Defines) > 0 {
		cfg.Model.Defines = strings.Join(prof.Defines, ";")
	}
	if prof.TreatFxInternalAsPublic != nil {
		cfg.Model.TreatFxInternalAsPublic = *prof.TreatFxInternalAsPublic
	}
	if len(prof.IncludedAssemblies) > 0 {
		cfg.Closure.IncludedAssemblies = append([]string(nil), prof.IncludedAssemblies...)
	}
	if prof.FieldOptions != "" {
		cfg.Closure.FieldOptions = prof.FieldOptions
	}
	cfg.Model.Profile = name
	return nil
}
