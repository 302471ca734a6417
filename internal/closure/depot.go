package closure

import (
	"thinner/internal/errors"
	"thinner/internal/metadata"
)

// Depot is the mutable state of one closure run: a FIFO work queue and one
// identity set per entity kind. Sets are indexed by arena id, so a Depot is
// sized for exactly one Program. Entries are never removed.
type Depot struct {
	program *metadata.Program

	queue []Node
	head  int

	asmSeen []bool
	typSeen []bool
	memSeen []bool
	fwdSeen []bool

	assemblies []*metadata.Assembly
	types      []*metadata.Type
	members    []*metadata.Member
	forwarders []*metadata.TypeForwarder
}

// NewDepot returns an empty depot for p.
func NewDepot(p *metadata.Program) *Depot {
	return &Depot{
		program: p,
		asmSeen: make([]bool, len(p.Assemblies())),
		typSeen: make([]bool, len(p.Types())),
		memSeen: make([]bool, len(p.Members())),
		fwdSeen: make([]bool, len(p.Forwarders())),
	}
}

func (d *Depot) push(n Node) { d.queue = append(d.queue, n) }

// next pops the oldest queued node.
func (d *Depot) next() (Node, bool) {
	if d.head == len(d.queue) {
		d.queue, d.head = d.queue[:0], 0
		return nil, false
	}
	n := d.queue[d.head]
	d.queue[d.head] = nil
	d.head++
	return n, true
}

// Pending returns the number of queued nodes not yet visited.
func (d *Depot) Pending() int { return len(d.queue) - d.head }

// AddAssembly records a.
func (d *Depot) AddAssembly(a *metadata.Assembly) error {
	if a == nil {
		return errors.Newf(errors.DummyEntity, "attempt to retain a nil assembly")
	}
	if d.asmSeen[a.ID()] {
		return nil
	}
	d.asmSeen[a.ID()] = true
	d.assemblies = append(d.assemblies, a)
	d.push(AssemblyNode{a})
	return nil
}

// AddType records t and its assembly. All members of a delegate type are
// added with it.
func (d *Depot) AddType(t *metadata.Type) error {
	if t == nil || t.IsDummy() {
		return errors.Newf(errors.DummyEntity, "attempt to retain a placeholder type")
	}
	if d.typSeen[t.ID()] {
		return nil
	}
	if err := d.AddAssembly(t.Assembly); err != nil {
		return err
	}
	d.typSeen[t.ID()] = true
	d.types = append(d.types, t)
	d.push(TypeNode{t})

	if t.IsDelegate() {
		for _, m := range t.Members {
			if err := d.AddMember(m); err != nil {
				return err
			}
		}
	}
	return nil
}

// AddMember records m after its declaring type. Properties and events bring
// their accessors.
func (d *Depot) AddMember(m *metadata.Member) error {
	if m == nil || m.IsDummy() {
		return errors.Newf(errors.DummyEntity, "attempt to retain a placeholder member")
	}
	if err := d.AddType(m.DeclaringType); err != nil {
		return err
	}
	if d.memSeen[m.ID()] {
		return nil
	}
	d.memSeen[m.ID()] = true
	d.members = append(d.members, m)
	d.push(MemberNode{m})

	for _, acc := range m.Accessors() {
		if err := d.AddMember(acc); err != nil {
			return err
		}
	}
	return nil
}

// AddForwarder records f and its declaring assembly.
func (d *Depot) AddForwarder(f *metadata.TypeForwarder) error {
	if f == nil {
		return errors.Newf(errors.DummyEntity, "attempt to retain a nil forwarder")
	}
	if d.fwdSeen[f.ID()] {
		return nil
	}
	if err := d.AddAssembly(f.Assembly); err != nil {
		return err
	}
	d.fwdSeen[f.ID()] = true
	d.forwarders = append(d.forwarders, f)
	d.push(ForwarderNode{f})
	return nil
}

// AddTypeRef canonicalizes ref and adds every type it names, generic
// arguments and element types included. Generic parameters name nothing.
func (d *Depot) AddTypeRef(ref *metadata.TypeRef) error {
	var err error
	ref.NamedRefs(func(r *metadata.TypeRef) {
		if err != nil {
			return
		}
		var t *metadata.Type
		if t, err = d.program.ResolveType(r); err == nil {
			err = d.AddType(t)
		}
	})
	return err
}

// AddMemberRef canonicalizes ref and adds the member it names together with
// the instantiation arguments of its declaring type and method.
func (d *Depot) AddMemberRef(ref *metadata.MemberRef) error {
	m, err := d.program.ResolveMember(ref)
	if err != nil {
		return err
	}
	if err := d.AddMember(m); err != nil {
		return err
	}
	if err := d.AddTypeRef(ref.Type); err != nil {
		return err
	}
	for _, arg := range ref.MethodArgs {
		if err := d.AddTypeRef(arg); err != nil {
			return err
		}
	}
	return nil
}

func (d *Depot) ContainsAssembly(a *metadata.Assembly) bool { return a != nil && d.asmSeen[a.ID()] }

func (d *Depot) ContainsType(t *metadata.Type) bool {
	return t != nil && !t.IsDummy() && d.typSeen[t.ID()]
}

func (d *Depot) ContainsMember(m *metadata.Member) bool {
	return m != nil && !m.IsDummy() && d.memSeen[m.ID()]
}

func (d *Depot) ContainsForwarder(f *metadata.TypeForwarder) bool { return f != nil && d.fwdSeen[f.ID()] }

// Assemblies, Types, Members and Forwarders return the retained entities
// in the order they were added. The slices must not be modified.
func (d *Depot) Assemblies() []*metadata.Assembly      { return d.assemblies }
func (d *Depot) Types() []*metadata.Type               { return d.types }
func (d *Depot) Members() []*metadata.Member           { return d.members }
func (d *Depot) Forwarders() []*metadata.TypeForwarder { return d.forwarders }

// Len returns the total number of retained entities.
func (d *Depot) Len() int {
	return len(d.assemblies) + len(d.types) + len(d.members) + len(d.forwarders)
}

// Stats returns retained entity counts.
func (d *Depot) Stats() metadata.Stats {
	return metadata.Stats{
		Assemblies: len(d.assemblies),
		Types:      len(d.types),
		Members:    len(d.members),
		Forwarders: len(d.forwarders),
	}
}
