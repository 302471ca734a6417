package closure

import (
	"thinner/internal/errors"
	"thinner/internal/metadata"
	"thinner/internal/model"
)

// exporter turns the depot into an annotated model. An entity is a hidden
// candidate when its status is not an Api status although it is visible
// outside its assembly; hidden entities get the Internal visibility
// override.
type exporter struct {
	r       *run
	status  *statusResolver
	types   map[*metadata.Type]bool
	members map[*metadata.Member]bool
}

func (r *run) export(roots *model.Model) (*model.Model, int, error) {
	x := &exporter{
		r:       r,
		status:  &statusResolver{pass: r.pass, roots: r.roots, depot: r.depot},
		types:   make(map[*metadata.Type]bool),
		members: make(map[*metadata.Member]bool),
	}

	if err := x.checkTypes(); err != nil {
		return nil, 0, err
	}
	if err := x.checkInterfaces(); err != nil {
		return nil, 0, err
	}
	out, err := x.build()
	if err != nil {
		return nil, 0, err
	}

	hidden := 0
	for _, h := range x.types {
		if h {
			hidden++
		}
	}
	for _, h := range x.members {
		if h {
			hidden++
		}
	}
	return out, hidden, nil
}

// typeHidden reports whether t gets hidden. Types outside the thinned
// assemblies never are.
func (x *exporter) typeHidden(t *metadata.Type) bool {
	if h, ok := x.types[t]; ok {
		return h
	}
	h := x.r.canInclude(t) && !x.status.typ(t).IsApi() && metadata.IsTypeExternallyVisible(t)
	x.types[t] = h
	return h
}

// checkTypes decides every retained type. Outside the Api pass, a type
// that stays visible may not derive from a hidden one.
func (x *exporter) checkTypes() error {
	for _, t := range x.r.depot.Types() {
		if !x.r.canInclude(t) || x.typeHidden(t) {
			continue
		}
		if x.r.pass.surface || !metadata.IsTypeExternallyVisible(t) {
			continue
		}
		bases, _, err := x.r.program.BaseChain(t)
		if err != nil {
			return err
		}
		for _, b := range bases {
			if x.typeHidden(b) {
				return errors.Newf(errors.BaseTypeHidden,
					"%s stays visible but its base class %s is hidden (%s)", t.FullName, b.FullName, x.status.typ(b))
			}
		}
	}
	return nil
}

// memberHidden decides m. A candidate on a visible type is hidden outright.
// On a hidden type, it follows the member it overrides on the nearest
// visible ancestor, step by step up the base chain. With no such member it
// stays visible.
func (x *exporter) memberHidden(m *metadata.Member) (bool, error) {
	var path []*metadata.Member
	hidden := false

	for cur := m; ; {
		if h, ok := x.members[cur]; ok {
			hidden = h
			break
		}
		path = append(path, cur)

		s, err := x.status.member(cur)
		if err != nil {
			return false, err
		}
		if s.IsApi() || !metadata.IsMemberExternallyVisible(cur) {
			break
		}
		if !x.typeHidden(cur.DeclaringType) {
			hidden = true
			break
		}
		next, external, err := x.visibleAncestorMatch(cur)
		if err != nil {
			return false, err
		}
		if external || next == nil {
			break
		}
		cur = next
	}

	for _, p := range path {
		x.members[p] = hidden
	}
	return hidden, nil
}

// visibleAncestorMatch finds the retained member m overrides on the nearest
// visible ancestor. external is set when that member belongs to a type
// outside the thinned assemblies, which always stays visible.
func (x *exporter) visibleAncestorMatch(m *metadata.Member) (match *metadata.Member, external bool, err error) {
	defs, refs, err := x.r.program.BaseChain(m.DeclaringType)
	if err != nil {
		return nil, false, err
	}
	for i, b := range defs {
		if !metadata.IsTypeExternallyVisible(b) || x.typeHidden(b) {
			continue
		}
		rm := metadata.RelatedMemberIn(b, refs[i], m)
		if rm == nil || !metadata.IsMemberExternallyVisible(rm) {
			continue
		}
		if !x.r.canInclude(b) {
			return nil, true, nil
		}
		if x.r.depot.ContainsMember(rm) {
			return rm, false, nil
		}
	}
	return nil, false, nil
}

// checkInterfaces rejects a visible interface with a hidden member.
func (x *exporter) checkInterfaces() error {
	for _, m := range x.r.depot.Members() {
		if !x.r.canInclude(m.DeclaringType) {
			continue
		}
		hidden, err := x.memberHidden(m)
		if err != nil {
			return err
		}
		t := m.DeclaringType
		if hidden && t.IsInterface() && metadata.IsTypeExternallyVisible(t) && !x.typeHidden(t) {
			return errors.Newf(errors.HiddenInterfaceMember,
				"interface %s stays visible but its member %s would be hidden", t.FullName, m.Key())
		}
	}
	return nil
}

func (x *exporter) build() (*model.Model, error) {
	r := x.r
	out := model.New()

	for _, a := range r.depot.Assemblies() {
		if !r.includesAssembly(a) {
			continue
		}
		s, err := x.status.assembly(a)
		if err != nil {
			return nil, err
		}
		var attrs *model.Attributes
		if root := r.roots.assemblies[a]; root != nil {
			attrs = &root.Attributes
		}
		oa := out.AddAssembly(a.Name, s)
		oa.Attributes = annotate(attrs, s, false)
	}

	for _, t := range r.depot.Types() {
		if !r.canInclude(t) {
			continue
		}
		oa := out.Assembly(t.Assembly.Name)
		if oa == nil {
			r.logger.Warn("Retained type has no assembly in the output", "type", t.FullName, "assembly", t.Assembly.Name)
			continue
		}
		if oa.Type(t.FullName) != nil {
			return nil, errors.Newf(errors.DuplicateSignature, "type %s exported twice from %s", t.FullName, t.Assembly.Name)
		}
		s := x.status.typ(t)
		var attrs *model.Attributes
		if root := r.roots.types[t]; root != nil {
			attrs = &root.Attributes
		}
		ot := oa.AddType(t.FullName, s)
		ot.Attributes = annotate(attrs, s, x.typeHidden(t))
	}

	for _, m := range r.depot.Members() {
		t := m.DeclaringType
		if !r.canInclude(t) {
			continue
		}
		var ot *model.Type
		if oa := out.Assembly(t.Assembly.Name); oa != nil {
			ot = oa.Type(t.FullName)
		}
		if ot == nil {
			r.logger.Warn("Retained member has no type in the output", "member", m.String())
			continue
		}
		key := m.Key()
		if ot.Member(key) != nil {
			return nil, errors.Newf(errors.DuplicateSignature, "%s is exported twice from %s", key, t.FullName)
		}
		s, err := x.status.member(m)
		if err != nil {
			return nil, err
		}
		var attrs *model.Attributes
		if root := r.roots.members[m]; root != nil {
			attrs = &root.Attributes
		}
		mem := ot.AddMember(key, s)
		mem.Attributes = annotate(attrs, s, x.members[m])
	}

	for _, f := range r.depot.Forwarders() {
		if !r.includesAssembly(f.Assembly) {
			continue
		}
		oa := out.Assembly(f.Assembly.Name)
		if oa == nil {
			r.logger.Warn("Retained forwarder has no assembly in the output", "forwarder", f.String())
			continue
		}
		s := x.status.forwarder(f)
		of := oa.AddForwarder(f.Target.Assembly, f.Target.Name, s)
		var attrs *model.Attributes
		if root := r.roots.forwarders[f]; root != nil {
			attrs = &root.Attributes
		}
		of.Attributes = annotate(attrs, s, false)
	}
	return out, nil
}

// annotate carries a root's attributes into the output with the final
// status.
func annotate(root *model.Attributes, status model.Status, hidden bool) model.Attributes {
	var a model.Attributes
	if root != nil {
		a = *root
	}
	a.Status = status
	if hidden {
		a.Visibility = model.VisibilityInternal
	}
	return a
}
