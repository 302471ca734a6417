package closure

import (
	"thinner/internal/metadata"
)

// closeConstructors makes sure retained derived types can still chain to a
// retained base constructor. A type needs help when it has a base class,
// keeps none of its own constructors, and its base keeps no parameterless
// one. Bases outside the thinned assemblies count too. Only direct calls
// from a derived constructor body are detected. Failing that, the base
// constructor called by the first declared constructor is kept along with
// it. Types with no usable pair are recorded as unconstructible; that is
// not an error.
func (r *run) closeConstructors() (int, error) {
	before := r.depot.Len()
	r.unconstructible = r.unconstructible[:0]

	// Snapshot: types added here are handled by the next iteration.
	types := append([]*metadata.Type(nil), r.depot.Types()...)
	for _, t := range types {
		if !r.canInclude(t) || !t.HasBase() || t.IsInterface() || t.IsValueType() || t.IsDelegate() {
			continue
		}
		if r.anyKept(t.Constructors()) {
			continue
		}

		base, err := r.program.ResolveType(t.Base)
		if err != nil {
			return 0, err
		}
		if len(base.Constructors()) == 0 {
			continue
		}

		kept := r.keptConstructors(base)
		if hasParameterless(kept) {
			continue
		}

		derived, baseCtor, err := r.findDirectCall(t, kept)
		if err != nil {
			return 0, err
		}
		if derived == nil {
			if derived, baseCtor, err = r.firstCtorCall(t, base); err != nil {
				return 0, err
			}
		}
		if derived == nil {
			r.unconstructible = append(r.unconstructible, t.Assembly.Name+" "+t.FullName)
			r.logger.Warn("No constructor chain to base type",
				"type", t.FullName, "base", base.FullName)
			continue
		}

		if err := r.depot.AddMember(derived); err != nil {
			return 0, err
		}
		if err := r.depot.AddMember(baseCtor); err != nil {
			return 0, err
		}
		r.logger.Debug("Constructor pair kept", "derived", derived.String(), "base", baseCtor.String())
	}

	return r.depot.Len() - before, nil
}

// keptConstructors returns the constructors of base that survive thinning.
// A base outside the thinned assemblies is written untouched, so all of its
// constructors do.
func (r *run) keptConstructors(base *metadata.Type) []*metadata.Member {
	if !r.canInclude(base) {
		return base.Constructors()
	}
	var kept []*metadata.Member
	for _, c := range base.Constructors() {
		if r.depot.ContainsMember(c) {
			kept = append(kept, c)
		}
	}
	return kept
}

func hasParameterless(ctors []*metadata.Member) bool {
	for _, c := range ctors {
		if c.ParameterCount() == 0 {
			return true
		}
	}
	return false
}

// findDirectCall looks for a constructor of t whose body calls one of
// targets.
func (r *run) findDirectCall(t *metadata.Type, targets []*metadata.Member) (*metadata.Member, *metadata.Member, error) {
	if len(targets) == 0 {
		return nil, nil, nil
	}
	for _, c := range t.Constructors() {
		callees, err := r.calledMembers(c)
		if err != nil {
			return nil, nil, err
		}
		for _, callee := range callees {
			for _, target := range targets {
				if callee == target {
					return c, target, nil
				}
			}
		}
	}
	return nil, nil, nil
}

// firstCtorCall returns the first declared constructor of t and the first
// constructor of base it calls.
func (r *run) firstCtorCall(t, base *metadata.Type) (*metadata.Member, *metadata.Member, error) {
	ctors := t.Constructors()
	if len(ctors) == 0 {
		return nil, nil, nil
	}
	callees, err := r.calledMembers(ctors[0])
	if err != nil {
		return nil, nil, err
	}
	for _, callee := range callees {
		if callee.DeclaringType == base && callee.IsConstructor() {
			return ctors[0], callee, nil
		}
	}
	return nil, nil, nil
}

// calledMembers resolves the member operands of m's body.
func (r *run) calledMembers(m *metadata.Member) ([]*metadata.Member, error) {
	if m.Body == nil {
		return nil, nil
	}
	var out []*metadata.Member
	for _, op := range m.Body.Operands {
		if op.Member == nil {
			continue
		}
		callee, err := r.program.ResolveMember(op.Member)
		if err != nil {
			return nil, err
		}
		out = append(out, callee)
	}
	return out, nil
}
