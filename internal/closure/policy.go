package closure

import (
	"fmt"

	"thinner/internal/metadata"
	"thinner/internal/model"
)

// Policy decides what retaining an entity requires. Visit is called once
// per queued node whose assembly may be included, and records requirements
// through the run's Depot.
type Policy interface {
	Visit(n Node) error
}

// FieldOptions widens the fields kept by the Full policy.
type FieldOptions uint8

const (
	FieldsNormal FieldOptions = iota
	// FieldsKeepAll keeps every instance or constant field of visited types.
	FieldsKeepAll
	// FieldsKeepAllValueTypeFields does the same for value types only, so
	// that their layout is preserved.
	FieldsKeepAllValueTypeFields
)

func (f FieldOptions) String() string {
	switch f {
	case FieldsKeepAll:
		return "keepAll"
	case FieldsKeepAllValueTypeFields:
		return "keepAllValueTypeFields"
	}
	return "normal"
}

// ParseFieldOptions accepts the configuration spellings.
func ParseFieldOptions(s string) (FieldOptions, error) {
	switch s {
	case "", "normal":
		return FieldsNormal, nil
	case "keepAll":
		return FieldsKeepAll, nil
	case "keepAllValueTypeFields":
		return FieldsKeepAllValueTypeFields, nil
	}
	return FieldsNormal, fmt.Errorf("unknown field option %q", s)
}

// traversal holds what both policies share.
type traversal struct {
	depot      *Depot
	program    *metadata.Program
	canInclude metadata.TypeFilter
	roots      *rootIndex
	visited    []bool // by TypeID
}

func newTraversal(r *run) traversal {
	return traversal{
		depot:      r.depot,
		program:    r.program,
		canInclude: r.canInclude,
		roots:      r.roots,
		visited:    make([]bool, len(r.program.Types())),
	}
}

// firstVisit marks t visited and reports whether it was not before.
func (tr *traversal) firstVisit(t *metadata.Type) bool {
	if tr.visited[t.ID()] {
		return false
	}
	tr.visited[t.ID()] = true
	return true
}

// addRelatedExternal adds the members of t that override or implement a
// member of a type outside the thinned assemblies. Those slots are part of
// a contract t cannot change.
func (tr *traversal) addRelatedExternal(t *metadata.Type) error {
	for _, m := range t.Members {
		related, err := tr.program.RelatedExternalMembers(m, tr.canInclude)
		if err != nil {
			return err
		}
		if len(related) > 0 {
			if err := tr.depot.AddMember(m); err != nil {
				return err
			}
		}
	}
	return nil
}

func (tr *traversal) addTypeRefs(refs ...*metadata.TypeRef) error {
	for _, ref := range refs {
		if err := tr.depot.AddTypeRef(ref); err != nil {
			return err
		}
	}
	return nil
}

func (tr *traversal) addAttributes(attrs []metadata.Attribute) error {
	for _, a := range attrs {
		if err := tr.depot.AddMemberRef(a.Ctor); err != nil {
			return err
		}
		if err := tr.addTypeRefs(a.TypeArgs...); err != nil {
			return err
		}
	}
	return nil
}

func (tr *traversal) addConstraints(params []metadata.GenericParam) error {
	for _, gp := range params {
		if err := tr.addTypeRefs(gp.Constraints...); err != nil {
			return err
		}
	}
	return nil
}

// visitForwarder keeps the forwarded type and, for a nested type, the
// forwarder of its containing type.
func (tr *traversal) visitForwarder(f *metadata.TypeForwarder) error {
	if f.Containing != nil {
		if err := tr.depot.AddForwarder(f.Containing); err != nil {
			return err
		}
	}
	return tr.depot.AddTypeRef(f.Target)
}

// surfaceVisible reports whether a declared accessibility is part of the
// surface: public, protected, or framework-internal by root status.
func surfaceVisible(v metadata.Visibility, status model.Status) bool {
	switch v {
	case metadata.VisPublic, metadata.VisFamily, metadata.VisFamilyOrAssembly:
		return true
	}
	return status == model.StatusApiFxInternal
}
