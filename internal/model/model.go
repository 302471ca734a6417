// Package model is the root model: a tree of assemblies, types, members and
// type forwarders annotated with inclusion statuses. It is both the input
// naming the roots of a closure and the annotated output of one.
package model

import (
	"sort"

	"thinner/internal/metadata"
)

// Attributes are the annotations every model element carries. Status is
// the effective status; inheritance from the parent is resolved on read.
type Attributes struct {
	Status       Status
	Visibility   VisibilityOverride
	Security     SecurityTransparency
	Platform     string
	Architecture string
	Flavor       string
	Condition    string
}

// Model is the root of the element tree.
type Model struct {
	assemblies map[string]*Assembly
}

// New returns an empty model.
func New() *Model {
	return &Model{assemblies: make(map[string]*Assembly)}
}

// Assembly is a model assembly.
type Assembly struct {
	Attributes
	Name string

	types      map[string]*Type
	forwarders map[string]*Forwarder
	def        *metadata.Assembly
}

// Type is a model type, named by its full name.
type Type struct {
	Attributes
	Name string

	assembly *Assembly
	members  map[string]*Member
	def      *metadata.Type
}

// Member is a model member, named by its signature key.
type Member struct {
	Attributes
	Key string

	typ *Type
	def *metadata.Member
}

// Forwarder is a model type forwarder.
type Forwarder struct {
	Attributes
	TargetAssembly string
	TypeName       string

	assembly *Assembly
	def      *metadata.TypeForwarder
}

// Assembly returns the named assembly or nil.
func (m *Model) Assembly(name string) *Assembly { return m.assemblies[name] }

// AddAssembly returns the named assembly, creating it with status when new.
func (m *Model) AddAssembly(name string, status Status) *Assembly {
	if a := m.assemblies[name]; a != nil {
		return a
	}
	a := &Assembly{
		Attributes: Attributes{Status: status},
		Name:       name,
		types:      make(map[string]*Type),
		forwarders: make(map[string]*Forwarder),
	}
	m.assemblies[name] = a
	return a
}

// RemoveAssembly drops an assembly and everything under it.
func (m *Model) RemoveAssembly(name string) { delete(m.assemblies, name) }

// Assemblies returns the assemblies sorted by name.
func (m *Model) Assemblies() []*Assembly {
	out := make([]*Assembly, 0, len(m.assemblies))
	for _, a := range m.assemblies {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Type returns the named type or nil.
func (a *Assembly) Type(name string) *Type { return a.types[name] }

// AddType returns the named type, creating it with status when new.
func (a *Assembly) AddType(name string, status Status) *Type {
	if t := a.types[name]; t != nil {
		return t
	}
	t := &Type{
		Attributes: Attributes{Status: status},
		Name:       name,
		assembly:   a,
		members:    make(map[string]*Member),
	}
	a.types[name] = t
	return t
}

// RemoveType drops a type and its members.
func (a *Assembly) RemoveType(name string) { delete(a.types, name) }

// Types returns the types sorted by name.
func (a *Assembly) Types() []*Type {
	out := make([]*Type, 0, len(a.types))
	for _, t := range a.types {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Forwarder returns the forwarder with the given metadata.ForwarderKey.
func (a *Assembly) Forwarder(key string) *Forwarder { return a.forwarders[key] }

// AddForwarder returns the forwarder of typeName to targetAssembly,
// creating it with status when new.
func (a *Assembly) AddForwarder(targetAssembly, typeName string, status Status) *Forwarder {
	key := metadata.ForwarderKey(targetAssembly, typeName)
	if f := a.forwarders[key]; f != nil {
		return f
	}
	f := &Forwarder{
		Attributes:     Attributes{Status: status},
		TargetAssembly: targetAssembly,
		TypeName:       typeName,
		assembly:       a,
	}
	a.forwarders[key] = f
	return f
}

// RemoveForwarder drops a forwarder by key.
func (a *Assembly) RemoveForwarder(key string) { delete(a.forwarders, key) }

// Forwarders returns the forwarders sorted by key.
func (a *Assembly) Forwarders() []*Forwarder {
	out := make([]*Forwarder, 0, len(a.forwarders))
	for _, f := range a.forwarders {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}

// Metadata returns the bound metadata assembly, nil before Bind.
func (a *Assembly) Metadata() *metadata.Assembly { return a.def }

// Assembly returns the owning assembly.
func (t *Type) Assembly() *Assembly { return t.assembly }

// Member returns the member with the given signature key or nil.
func (t *Type) Member(key string) *Member { return t.members[key] }

// AddMember returns the member with key, creating it with status when new.
func (t *Type) AddMember(key string, status Status) *Member {
	if mem := t.members[key]; mem != nil {
		return mem
	}
	mem := &Member{Attributes: Attributes{Status: status}, Key: key, typ: t}
	t.members[key] = mem
	return mem
}

// RemoveMember drops a member by key.
func (t *Type) RemoveMember(key string) { delete(t.members, key) }

// Members returns the members sorted by key.
func (t *Type) Members() []*Member {
	out := make([]*Member, 0, len(t.members))
	for _, mem := range t.members {
		out = append(out, mem)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Metadata returns the bound metadata type, nil before Bind.
func (t *Type) Metadata() *metadata.Type { return t.def }

// Type returns the declaring type.
func (mem *Member) Type() *Type { return mem.typ }

// Metadata returns the bound metadata member, nil before Bind.
func (mem *Member) Metadata() *metadata.Member { return mem.def }

// Key returns the forwarder identity within its assembly.
func (f *Forwarder) Key() string { return metadata.ForwarderKey(f.TargetAssembly, f.TypeName) }

// Assembly returns the declaring assembly.
func (f *Forwarder) Assembly() *Assembly { return f.assembly }

// Metadata returns the bound metadata forwarder, nil before Bind.
func (f *Forwarder) Metadata() *metadata.TypeForwarder { return f.def }

// Walk visits every element, parents before children, in sorted order.
// Any callback may be nil.
func (m *Model) Walk(
	onAssembly func(*Assembly),
	onType func(*Type),
	onMember func(*Member),
	onForwarder func(*Forwarder),
) {
	for _, a := range m.Assemblies() {
		if onAssembly != nil {
			onAssembly(a)
		}
		for _, t := range a.Types() {
			if onType != nil {
				onType(t)
			}
			if onMember != nil {
				for _, mem := range t.Members() {
					onMember(mem)
				}
			}
		}
		if onForwarder != nil {
			for _, f := range a.Forwarders() {
				onForwarder(f)
			}
		}
	}
}
