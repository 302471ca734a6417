package model

import (
	"fmt"

	"thinner/internal/errors"
)

// CombineStatus copies into dst every element of m whose status is status,
// creating missing parents with their status from m. Elements already in
// dst keep their annotations.
func (m *Model) CombineStatus(status Status, dst *Model) {
	for _, a := range m.Assemblies() {
		ensureAsm := func() *Assembly {
			da := dst.Assembly(a.Name)
			if da == nil {
				da = dst.AddAssembly(a.Name, a.Status)
				da.Attributes = a.Attributes
			}
			return da
		}
		if a.Status == status {
			ensureAsm()
		}

		for _, t := range a.Types() {
			ensureType := func() *Type {
				da := ensureAsm()
				dt := da.Type(t.Name)
				if dt == nil {
					dt = da.AddType(t.Name, t.Status)
					dt.Attributes = t.Attributes
				}
				return dt
			}
			if t.Status == status {
				ensureType()
			}
			for _, mem := range t.Members() {
				if mem.Status != status {
					continue
				}
				dt := ensureType()
				if dt.Member(mem.Key) == nil {
					dm := dt.AddMember(mem.Key, mem.Status)
					dm.Attributes = mem.Attributes
				}
			}
		}

		for _, f := range a.Forwarders() {
			if f.Status != status {
				continue
			}
			da := ensureAsm()
			if da.Forwarder(f.Key()) == nil {
				df := da.AddForwarder(f.TargetAssembly, f.TypeName, f.Status)
				df.Attributes = f.Attributes
			}
		}
	}
}

// Merge adds every element of other to m. An element present in both keeps
// m's annotations unless overwrite is set; without overwrite, differing
// statuses are an INCONSISTENT_STATUS error.
func (m *Model) Merge(other *Model, overwrite bool) error {
	var conflicts []string
	merge := func(dst *Attributes, src Attributes, created bool, name string) {
		switch {
		case created || overwrite:
			*dst = src
		case dst.Status != src.Status:
			conflicts = append(conflicts, fmt.Sprintf("%s: %s vs %s", name, dst.Status, src.Status))
		}
	}

	for _, oa := range other.Assemblies() {
		a, created := m.Assembly(oa.Name), false
		if a == nil {
			a, created = m.AddAssembly(oa.Name, oa.Status), true
		}
		merge(&a.Attributes, oa.Attributes, created, oa.Name)

		for _, ot := range oa.Types() {
			t, created := a.Type(ot.Name), false
			if t == nil {
				t, created = a.AddType(ot.Name, ot.Status), true
			}
			merge(&t.Attributes, ot.Attributes, created, ot.Name)

			for _, om := range ot.Members() {
				mem, created := t.Member(om.Key), false
				if mem == nil {
					mem, created = t.AddMember(om.Key, om.Status), true
				}
				merge(&mem.Attributes, om.Attributes, created, ot.Name+"::"+om.Key)
			}
		}

		for _, of := range oa.Forwarders() {
			f, created := a.Forwarder(of.Key()), false
			if f == nil {
				f, created = a.AddForwarder(of.TargetAssembly, of.TypeName, of.Status), true
			}
			merge(&f.Attributes, of.Attributes, created, oa.Name+" forwarder "+of.TypeName)
		}
	}

	if len(conflicts) > 0 {
		return errors.Newf(errors.InconsistentStatus, "%d element(s) have conflicting statuses; first: %s", len(conflicts), conflicts[0]).
			WithDetails(conflicts)
	}
	return nil
}

// ExclusionViolations lists the elements marked Exclude in exclude that are
// nevertheless present in m.
func (m *Model) ExclusionViolations(exclude *Model) []string {
	var out []string
	for _, xa := range exclude.Assemblies() {
		a := m.Assembly(xa.Name)
		if a == nil {
			continue
		}
		if xa.Status == StatusExclude {
			out = append(out, xa.Name)
		}
		for _, xt := range xa.Types() {
			t := a.Type(xt.Name)
			if t == nil {
				continue
			}
			if xt.Status == StatusExclude {
				out = append(out, xa.Name+" "+xt.Name)
			}
			for _, xm := range xt.Members() {
				if xm.Status == StatusExclude && t.Member(xm.Key) != nil {
					out = append(out, xa.Name+" "+xt.Name+"::"+xm.Key)
				}
			}
		}
		for _, xf := range xa.Forwarders() {
			if xf.Status == StatusExclude && a.Forwarder(xf.Key()) != nil {
				out = append(out, xa.Name+" forwarder "+xf.TypeName)
			}
		}
	}
	return out
}

// RemovePresentIn removes from m every element that other marks Exclude.
// Every element of other must exist in m.
func (m *Model) RemovePresentIn(other *Model) error {
	missing := func(what string) error {
		return errors.Newf(errors.ModelInvalid, "%s is not in the model", what)
	}

	for _, oa := range other.Assemblies() {
		a := m.Assembly(oa.Name)
		if a == nil {
			return missing("assembly " + oa.Name)
		}
		if oa.Status == StatusExclude {
			m.RemoveAssembly(oa.Name)
			continue
		}
		for _, ot := range oa.Types() {
			t := a.Type(ot.Name)
			if t == nil {
				return missing("type " + ot.Name)
			}
			if ot.Status == StatusExclude {
				a.RemoveType(ot.Name)
				continue
			}
			for _, om := range ot.Members() {
				if t.Member(om.Key) == nil {
					return missing("member " + ot.Name + "::" + om.Key)
				}
				if om.Status == StatusExclude {
					t.RemoveMember(om.Key)
				}
			}
		}
		for _, of := range oa.Forwarders() {
			if a.Forwarder(of.Key()) == nil {
				return missing("forwarder " + of.TypeName)
			}
			if of.Status == StatusExclude {
				a.RemoveForwarder(of.Key())
			}
		}
	}
	return nil
}

// Stats counts elements per status.
type Stats struct {
	Assemblies map[Status]int `json:"assemblies"`
	Types      map[Status]int `json:"types"`
	Members    map[Status]int `json:"members"`
	Forwarders map[Status]int `json:"forwarders"`
}

// Total returns the element count across all statuses.
func (s Stats) Total() int {
	n := 0
	for _, bucket := range []map[Status]int{s.Assemblies, s.Types, s.Members, s.Forwarders} {
		for _, c := range bucket {
			n += c
		}
	}
	return n
}

// Stats counts m's elements.
func (m *Model) Stats() Stats {
	s := Stats{
		Assemblies: make(map[Status]int),
		Types:      make(map[Status]int),
		Members:    make(map[Status]int),
		Forwarders: make(map[Status]int),
	}
	m.Walk(
		func(a *Assembly) { s.Assemblies[a.Status]++ },
		func(t *Type) { s.Types[t.Status]++ },
		func(mem *Member) { s.Members[mem.Status]++ },
		func(f *Forwarder) { s.Forwarders[f.Status]++ },
	)
	return s
}
