package metadata

import (
	"strings"

	"thinner/internal/errors"
)

// TypeFilter selects types taking part in a related-member search.
type TypeFilter func(*Type) bool

// ancestor is one type in a hierarchy walk, with the instantiation through
// which the starting type sees it.
type ancestor struct {
	def         *Type
	ref         *TypeRef
	isInterface bool
}

type hierarchyEntry struct {
	chain []ancestor
	err   error
}

// hierarchy returns t, each of its base classes, and the interfaces each of
// them declares, in walk order. Interfaces are deduplicated by instantiation.
func (p *Program) hierarchy(t *Type) ([]ancestor, error) {
	if e, ok := p.hierarchies.Load(t); ok {
		entry := e.(*hierarchyEntry)
		return entry.chain, entry.err
	}

	chain, err := p.walkHierarchy(t)
	p.hierarchies.Store(t, &hierarchyEntry{chain: chain, err: err})
	return chain, err
}

func (p *Program) walkHierarchy(t *Type) ([]ancestor, error) {
	var chain []ancestor
	seenIface := make(map[string]bool)
	seenClass := make(map[*Type]bool)

	cur, curRef := t, t.SelfRef()
	for {
		if seenClass[cur] {
			return nil, errors.Newf(errors.CatalogInvalid, "type %s has a cyclic base chain", t.FullName)
		}
		seenClass[cur] = true
		chain = append(chain, ancestor{def: cur, ref: curRef})

		for _, iface := range cur.Interfaces {
			inst := iface.Substitute(curRef.Args)
			shape := inst.shape()
			if seenIface[shape] {
				continue
			}
			seenIface[shape] = true
			def, err := p.ResolveType(inst)
			if err != nil {
				return nil, err
			}
			chain = append(chain, ancestor{def: def, ref: inst, isInterface: true})
		}

		if !cur.HasBase() {
			return chain, nil
		}
		baseRef := cur.Base.Substitute(curRef.Args)
		base, err := p.ResolveType(baseRef)
		if err != nil {
			return nil, err
		}
		cur, curRef = base, baseRef
	}
}

// RelatedMemberIn finds the member of def (seen through instantiation ref)
// that m overrides, implements or hides by signature, or nil.
func RelatedMemberIn(def *Type, ref *TypeRef, m *Member) *Member {
	var args []*TypeRef
	if ref != nil {
		args = ref.Args
	}
	want := paramShape(m, nil)

	for _, cur := range def.Members {
		if cur.Kind != m.Kind {
			continue
		}
		if cur.Name != m.Name && !(def.IsInterface() && explicitImplementationOf(m.Name, def, cur.Name)) {
			continue
		}
		if m.Kind == MemberMethod || m.Kind == MemberProperty {
			if len(cur.GenericParams) != len(m.GenericParams) {
				continue
			}
			if paramShape(cur, args) != want {
				continue
			}
		}
		return cur
	}
	return nil
}

// explicitImplementationOf matches "Ns.IFoo.Bar" or "Ns.IFoo<T>.Bar"
// against member Bar of interface Ns.IFoo`1.
func explicitImplementationOf(name string, iface *Type, memberName string) bool {
	if !strings.HasSuffix(name, "."+memberName) {
		return false
	}
	qualifier := name[:len(name)-len(memberName)-1]
	if i := strings.IndexByte(qualifier, '<'); i >= 0 {
		qualifier = qualifier[:i]
	}
	ifaceName := iface.FullName
	if i := strings.IndexByte(ifaceName, '`'); i >= 0 {
		ifaceName = ifaceName[:i]
	}
	return qualifier == ifaceName
}

// RelatedMembers returns the members across m's base-class chain and the
// interfaces accepted by include that m is signature-related to, including
// m itself, plus explicit override pairs involving m.
func (p *Program) RelatedMembers(m *Member, include TypeFilter) ([]*Member, error) {
	chain, err := p.hierarchy(m.DeclaringType)
	if err != nil {
		return nil, err
	}

	var out []*Member
	seen := make(map[*Member]bool)
	add := func(r *Member) {
		if r != nil && !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}

	for _, a := range chain {
		if a.isInterface && !include(a.def) {
			continue
		}
		add(RelatedMemberIn(a.def, a.ref, m))

		for _, impl := range a.def.Members {
			for _, ov := range impl.Overrides {
				implemented, err := p.ResolveMember(ov)
				if err != nil {
					return nil, err
				}
				if implemented == m || (impl == m && include(implemented.DeclaringType)) {
					add(impl)
					add(implemented)
				}
			}
		}
	}
	return out, nil
}

// RelatedExternalMembers returns the members related to m that are declared
// on types rejected by canInclude, i.e. outside the set of assemblies being
// thinned. Such members constrain m without being retainable themselves.
func (p *Program) RelatedExternalMembers(m *Member, canInclude TypeFilter) ([]*Member, error) {
	chain, err := p.hierarchy(m.DeclaringType)
	if err != nil {
		return nil, err
	}

	var out []*Member
	for _, a := range chain {
		if canInclude(a.def) {
			continue
		}
		if r := RelatedMemberIn(a.def, a.ref, m); r != nil {
			out = append(out, r)
		}
	}
	return out, nil
}

// BaseChain returns the base classes of t, nearest first, each with the
// instantiation through which t sees it.
func (p *Program) BaseChain(t *Type) ([]*Type, []*TypeRef, error) {
	chain, err := p.hierarchy(t)
	if err != nil {
		return nil, nil, err
	}
	var defs []*Type
	var refs []*TypeRef
	for _, a := range chain[1:] {
		if a.isInterface {
			continue
		}
		defs = append(defs, a.def)
		refs = append(refs, a.ref)
	}
	return defs, refs, nil
}
