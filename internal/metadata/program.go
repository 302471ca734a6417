package metadata

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"thinner/internal/errors"
)

// DummyType and DummyMember are returned alongside resolution errors. They
// must never be retained.
var (
	DummyType   = &Type{FullName: "<dummy type>", dummy: true}
	DummyMember = &Member{Name: "<dummy member>", dummy: true, DeclaringType: DummyType}
)

// Program is the set of loaded assemblies and the canonicalizer over them.
// It is read-only after NewProgram returns and may be shared between runs.
type Program struct {
	assemblies  []*Assembly
	asmByName   map[string]*Assembly
	types       []*Type
	members     []*Member
	forwarders  []*TypeForwarder
	typesByName map[string][]*Type

	hierarchies sync.Map // *Type -> *hierarchyEntry
}

// NewProgram indexes the given assemblies, assigns arena ids, links nested
// types, accessors and nested forwarders, and computes member keys.
func NewProgram(assemblies []*Assembly) (*Program, error) {
	p := &Program{
		asmByName:   make(map[string]*Assembly, len(assemblies)),
		typesByName: make(map[string][]*Type),
	}

	for _, a := range assemblies {
		if a.Name == "" {
			return nil, errors.Newf(errors.CatalogInvalid, "assembly without a name")
		}
		if _, dup := p.asmByName[a.Name]; dup {
			return nil, errors.Newf(errors.CatalogInvalid, "assembly %s defined twice", a.Name)
		}
		a.id = AssemblyID(len(p.assemblies))
		p.assemblies = append(p.assemblies, a)
		p.asmByName[a.Name] = a

		a.typesByName = make(map[string]*Type, len(a.Types))
		for _, t := range a.Types {
			if _, dup := a.typesByName[t.FullName]; dup {
				return nil, errors.Newf(errors.CatalogInvalid, "type %s defined twice in %s", t.FullName, a.Name)
			}
			t.Assembly = a
			t.id = TypeID(len(p.types))
			p.types = append(p.types, t)
			a.typesByName[t.FullName] = t
			p.typesByName[t.FullName] = append(p.typesByName[t.FullName], t)
		}
	}

	for _, t := range p.types {
		if err := p.linkType(t); err != nil {
			return nil, err
		}
	}

	for _, a := range p.assemblies {
		if err := p.linkForwarders(a); err != nil {
			return nil, err
		}
	}

	return p, nil
}

func (p *Program) linkType(t *Type) error {
	if t.DeclaringType == nil {
		if i := strings.LastIndexByte(t.FullName, '+'); i > 0 {
			outer := t.Assembly.typesByName[t.FullName[:i]]
			if outer == nil {
				return errors.Newf(errors.CatalogInvalid, "nested type %s has no containing type in %s", t.FullName, t.Assembly.Name)
			}
			t.DeclaringType = outer
		}
	}

	t.membersByKey = make(map[string]*Member, len(t.Members))
	for _, m := range t.Members {
		m.DeclaringType = t
		m.key, m.sig = "", ""
		key := m.Key()
		if _, dup := t.membersByKey[key]; dup {
			return errors.Newf(errors.DuplicateSignature, "type %s declares %s twice", t.FullName, key)
		}
		m.id = MemberID(len(p.members))
		p.members = append(p.members, m)
		t.membersByKey[key] = m
	}

	for _, m := range t.Members {
		switch m.Kind {
		case MemberProperty:
			if m.Getter == nil {
				m.Getter = t.accessorByName("get_" + m.Name)
			}
			if m.Setter == nil {
				m.Setter = t.accessorByName("set_" + m.Name)
			}
		case MemberEvent:
			if m.Adder == nil {
				m.Adder = t.accessorByName("add_" + m.Name)
			}
			if m.Remover == nil {
				m.Remover = t.accessorByName("remove_" + m.Name)
			}
		default:
			continue
		}
		for _, acc := range m.Accessors() {
			if acc.DeclaringType != t {
				return errors.Newf(errors.CatalogInvalid, "accessor %s of %s is declared on another type", acc.Name, m)
			}
			acc.Owner = m
		}
	}
	return nil
}

func (t *Type) accessorByName(name string) *Member {
	for _, m := range t.Members {
		if m.Kind == MemberMethod && m.Name == name {
			return m
		}
	}
	return nil
}

func (p *Program) linkForwarders(a *Assembly) error {
	byKey := make(map[string]*TypeForwarder, len(a.Forwarders))
	for _, f := range a.Forwarders {
		if f.Target == nil || f.Target.Kind != RefNamed || f.Target.Assembly == "" {
			return errors.Newf(errors.CatalogInvalid, "forwarder in %s needs an assembly-qualified target", a.Name)
		}
		if f.Target.Assembly == a.Name {
			return errors.Newf(errors.CatalogInvalid, "forwarder %s in %s points at its own assembly", f.Target.Name, a.Name)
		}
		if _, dup := byKey[f.Key()]; dup {
			return errors.Newf(errors.CatalogInvalid, "forwarder %s declared twice in %s", f.Key(), a.Name)
		}
		f.Assembly = a
		f.id = ForwarderID(len(p.forwarders))
		p.forwarders = append(p.forwarders, f)
		byKey[f.Key()] = f
	}
	for _, f := range a.Forwarders {
		if f.Containing != nil {
			continue
		}
		if i := strings.LastIndexByte(f.Target.Name, '+'); i > 0 {
			f.Containing = byKey[ForwarderKey(f.Target.Assembly, f.Target.Name[:i])]
		}
	}
	return nil
}

// Assemblies returns the assemblies in load order.
func (p *Program) Assemblies() []*Assembly { return p.assemblies }

// Assembly returns the named assembly or nil.
func (p *Program) Assembly(name string) *Assembly { return p.asmByName[name] }

// Types returns every type in arena order.
func (p *Program) Types() []*Type { return p.types }

// Members returns every member in arena order.
func (p *Program) Members() []*Member { return p.members }

// Forwarders returns every type forwarder in arena order.
func (p *Program) Forwarders() []*TypeForwarder { return p.forwarders }

// Type returns the type with the given arena id.
func (p *Program) Type(id TypeID) *Type { return p.types[id] }

// Member returns the member with the given arena id.
func (p *Program) Member(id MemberID) *Member { return p.members[id] }

// LookupType finds a type by assembly and full name.
func (p *Program) LookupType(assembly, fullName string) *Type {
	a := p.asmByName[assembly]
	if a == nil {
		return nil
	}
	return a.typesByName[fullName]
}

// LookupForwarder finds a forwarder declared in assembly by target assembly and type name.
func (p *Program) LookupForwarder(assembly, targetAssembly, typeName string) *TypeForwarder {
	a := p.asmByName[assembly]
	if a == nil {
		return nil
	}
	key := ForwarderKey(targetAssembly, typeName)
	for _, f := range a.Forwarders {
		if f.Key() == key {
			return f
		}
	}
	return nil
}

// ResolveType canonicalizes a reference to its one definition, peeling
// array, pointer and by-ref wrappers and dropping generic arguments.
func (p *Program) ResolveType(ref *TypeRef) (*Type, error) {
	core := ref.Core()
	if core == nil || core == NoExceptionType {
		return DummyType, errors.Newf(errors.UnresolvedReference, "reference %s names no type definition", ref)
	}

	if core.Assembly != "" {
		a := p.asmByName[core.Assembly]
		if a == nil {
			return DummyType, errors.Newf(errors.UnresolvedReference, "assembly %s of %s is not loaded", core.Assembly, core.Name)
		}
		if t := a.typesByName[core.Name]; t != nil {
			return t, nil
		}
		// The type may have been forwarded elsewhere.
		for _, f := range a.Forwarders {
			if f.Target.Name == core.Name {
				return p.ResolveType(f.Target)
			}
		}
		return DummyType, errors.Newf(errors.UnresolvedReference, "type %s not found in %s", core.Name, core.Assembly)
	}

	candidates := p.typesByName[core.Name]
	switch len(candidates) {
	case 0:
		return DummyType, errors.Newf(errors.UnresolvedReference, "type %s not found", core.Name)
	case 1:
		return candidates[0], nil
	default:
		names := make([]string, len(candidates))
		for i, c := range candidates {
			names[i] = c.Assembly.Name
		}
		sort.Strings(names)
		return DummyType, errors.Newf(errors.UnresolvedReference, "type %s is ambiguous between %s", core.Name, strings.Join(names, ", "))
	}
}

// ResolveMember canonicalizes a member reference: the declaring type is
// resolved to its definition and any generic method instantiation dropped.
func (p *Program) ResolveMember(ref *MemberRef) (*Member, error) {
	if ref == nil {
		return DummyMember, errors.Newf(errors.UnresolvedReference, "nil member reference")
	}
	t, err := p.ResolveType(ref.Type)
	if err != nil {
		return DummyMember, err
	}

	kinds := []MemberKind{ref.Kind}
	if ref.Kind == MemberUnknown {
		kinds = []MemberKind{MemberMethod, MemberField}
	}
	for _, kind := range kinds {
		if m := t.membersByKey[kind.String()+" : "+ref.Signature]; m != nil {
			return m, nil
		}
	}
	return DummyMember, errors.Newf(errors.UnresolvedReference, "member %s not found on %s", ref.Signature, t.FullName)
}

// MemberSuggestions lists keys on t sharing the name part of key, for error
// messages about misspelt signatures.
func MemberSuggestions(t *Type, key string) []string {
	prefix := key
	if i := strings.IndexByte(prefix, '('); i > 0 {
		prefix = prefix[:i]
	}
	var out []string
	for _, m := range t.Members {
		if strings.HasPrefix(strings.ToLower(m.Key()), strings.ToLower(prefix)) {
			out = append(out, m.Key())
		}
	}
	sort.Strings(out)
	return out
}

// Stats summarizes the program.
type Stats struct {
	Assemblies int `json:"assemblies"`
	Types      int `json:"types"`
	Members    int `json:"members"`
	Forwarders int `json:"forwarders"`
}

// Stats returns entity counts.
func (p *Program) Stats() Stats {
	return Stats{
		Assemblies: len(p.assemblies),
		Types:      len(p.types),
		Members:    len(p.members),
		Forwarders: len(p.forwarders),
	}
}

func (s Stats) String() string {
	return fmt.Sprintf("%d assemblies, %d types, %d members, %d forwarders", s.Assemblies, s.Types, s.Members, s.Forwarders)
}
