package model

import (
	"strings"
)

// ReadOptions select which elements of a model file apply to a build.
// Empty platform, architecture and flavor filters match every element.
type ReadOptions struct {
	Platform     string
	Architecture string
	Flavor       string
	// Defines is a semicolon-separated symbol list for condition attributes.
	Defines                 string
	TreatFxInternalAsPublic bool
}

type filter struct {
	opts    ReadOptions
	defines map[string]bool
}

func newFilter(opts ReadOptions) *filter {
	return &filter{opts: opts, defines: ParseDefines(opts.Defines)}
}

// include reports whether an element with these attributes survives the
// filter. The condition has already been validated by the decoder.
func (f *filter) include(a *Attributes, cond Condition) bool {
	return listMatches(a.Platform, f.opts.Platform) &&
		listMatches(a.Architecture, f.opts.Architecture) &&
		listMatches(a.Flavor, f.opts.Flavor) &&
		cond.Eval(f.defines)
}

// listMatches checks a comma-separated attribute list against the selected
// value, case-insensitively.
func listMatches(list, selected string) bool {
	if list == "" || selected == "" {
		return true
	}
	for _, item := range strings.Split(list, ",") {
		if strings.EqualFold(strings.TrimSpace(item), selected) {
			return true
		}
	}
	return false
}
