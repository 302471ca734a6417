package model

import (
	"fmt"
	"strings"

	"thinner/internal/errors"
	"thinner/internal/metadata"
)

// Unresolved describes a model element with no metadata counterpart.
type Unresolved struct {
	Element     string   `json:"element"`
	Reason      string   `json:"reason"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// Bind resolves every element against the program. All failures are
// collected; the returned error lists them in its details.
func (m *Model) Bind(p *metadata.Program) error {
	var failures []Unresolved

	for _, a := range m.Assemblies() {
		a.def = p.Assembly(a.Name)
		if a.def == nil {
			failures = append(failures, Unresolved{Element: a.Name, Reason: "assembly not loaded"})
			continue
		}

		for _, t := range a.Types() {
			t.def = a.def.Type(t.Name)
			if t.def == nil {
				failures = append(failures, Unresolved{
					Element: a.Name + " " + t.Name,
					Reason:  "type not defined",
				})
				continue
			}
			for _, mem := range t.Members() {
				mem.def = t.def.Member(mem.Key)
				if mem.def == nil {
					failures = append(failures, Unresolved{
						Element:     t.Name + "::" + mem.Key,
						Reason:      "member not defined",
						Suggestions: metadata.MemberSuggestions(t.def, mem.Key),
					})
				}
			}
		}

		for _, f := range a.Forwarders() {
			f.def = p.LookupForwarder(a.Name, f.TargetAssembly, f.TypeName)
			if f.def == nil {
				failures = append(failures, Unresolved{
					Element: a.Name + " forwarder " + f.TypeName,
					Reason:  "forwarder not declared",
				})
			}
		}
	}

	if len(failures) == 0 {
		return nil
	}
	first := failures[0]
	msg := fmt.Sprintf("%d model element(s) do not resolve; first: %s (%s)", len(failures), first.Element, first.Reason)
	if len(first.Suggestions) > 0 {
		msg += "; did you mean " + strings.Join(first.Suggestions, " or ") + "?"
	}
	return errors.New(errors.UnresolvedReference, msg, nil).WithDetails(failures)
}
