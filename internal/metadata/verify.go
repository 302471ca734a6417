package metadata

import (
	"fmt"
	"sort"
)

// Problem is a reference inside the program that does not resolve.
type Problem struct {
	Where string
	Err   error
}

func (p Problem) String() string { return fmt.Sprintf("%s: %v", p.Where, p.Err) }

// Verify resolves every type and member reference held by the program and
// reports the ones that fail. A closure run over a program with problems
// fails as soon as it reaches one of them.
func (p *Program) Verify() []Problem {
	var problems []Problem
	checkType := func(where string, ref *TypeRef) {
		ref.NamedRefs(func(r *TypeRef) {
			if _, err := p.ResolveType(r); err != nil {
				problems = append(problems, Problem{Where: where, Err: err})
			}
		})
	}
	checkMember := func(where string, ref *MemberRef) {
		if ref == nil {
			return
		}
		if _, err := p.ResolveMember(ref); err != nil {
			problems = append(problems, Problem{Where: where, Err: err})
		}
	}
	checkAttrs := func(where string, attrs []Attribute) {
		for _, a := range attrs {
			checkMember(where, a.Ctor)
			for _, ta := range a.TypeArgs {
				checkType(where, ta)
			}
		}
	}

	for _, a := range p.assemblies {
		checkAttrs(a.Name, a.Attributes)
		checkAttrs(a.Name, a.ModuleAttributes)
	}
	for _, f := range p.forwarders {
		if _, err := p.ResolveType(f.Target); err != nil {
			problems = append(problems, Problem{Where: f.String(), Err: err})
		}
	}
	for _, t := range p.types {
		where := t.FullName
		checkType(where, t.Base)
		for _, i := range t.Interfaces {
			checkType(where, i)
		}
		for _, gp := range t.GenericParams {
			for _, c := range gp.Constraints {
				checkType(where, c)
			}
		}
		checkAttrs(where, t.Attributes)
		checkAttrs(where, t.SecurityAttributes)
	}
	for _, m := range p.members {
		where := m.String()
		checkType(where, m.Type)
		for _, prm := range m.Params {
			checkType(where, prm)
		}
		for _, ov := range m.Overrides {
			checkMember(where, ov)
		}
		checkAttrs(where, m.Attributes)
		if m.Body == nil {
			continue
		}
		for _, op := range m.Body.Operands {
			checkType(where, op.Type)
			checkMember(where, op.Member)
		}
		for _, h := range m.Body.Handlers {
			checkType(where, h.CatchType)
		}
	}

	sort.SliceStable(problems, func(i, j int) bool { return problems[i].Where < problems[j].Where })
	return problems
}
