package closure

import (
	"thinner/internal/errors"
	"thinner/internal/metadata"
	"thinner/internal/model"
)

// pass describes one kind of closure run.
type pass struct {
	name    string
	imports []model.Status
	// closure tags entities discovered by the run rather than named as roots.
	closure model.Status
	surface bool
}

var (
	apiPass = pass{
		name:    "api",
		imports: []model.Status{model.StatusApiRoot, model.StatusApiFxInternal},
		closure: model.StatusApiClosure,
		surface: true,
	}
	implPass = pass{
		name:    "impl",
		imports: []model.Status{model.StatusImplRoot, model.StatusApiRoot, model.StatusApiClosure, model.StatusApiFxInternal},
		closure: model.StatusImplClosure,
	}
)

func (p pass) imported(s model.Status) bool {
	for _, want := range p.imports {
		if s == want {
			return true
		}
	}
	return false
}

// rootIndex maps bound metadata entities back to the model elements that
// name them.
type rootIndex struct {
	assemblies map[*metadata.Assembly]*model.Assembly
	types      map[*metadata.Type]*model.Type
	members    map[*metadata.Member]*model.Member
	forwarders map[*metadata.TypeForwarder]*model.Forwarder
}

func indexRoots(m *model.Model) *rootIndex {
	ri := &rootIndex{
		assemblies: make(map[*metadata.Assembly]*model.Assembly),
		types:      make(map[*metadata.Type]*model.Type),
		members:    make(map[*metadata.Member]*model.Member),
		forwarders: make(map[*metadata.TypeForwarder]*model.Forwarder),
	}
	m.Walk(
		func(a *model.Assembly) { ri.assemblies[a.Metadata()] = a },
		func(t *model.Type) { ri.types[t.Metadata()] = t },
		func(mem *model.Member) { ri.members[mem.Metadata()] = mem },
		func(f *model.Forwarder) { ri.forwarders[f.Metadata()] = f },
	)
	return ri
}

func (ri *rootIndex) typeStatus(t *metadata.Type) model.Status {
	if e := ri.types[t]; e != nil {
		return e.Status
	}
	return model.StatusInherit
}

func (ri *rootIndex) memberStatus(m *metadata.Member) model.Status {
	if e := ri.members[m]; e != nil {
		return e.Status
	}
	return model.StatusInherit
}

// statusResolver assigns each retained entity its final status: the model
// status for roots of the pass, otherwise the pass's closure status. In
// the Api pass, discovered entities that are not externally visible become
// ImplRoot.
type statusResolver struct {
	pass  pass
	roots *rootIndex
	depot *Depot
}

func (sr *statusResolver) resolve(inModel *model.Attributes, inDepot, visible bool) (model.Status, bool) {
	if inModel != nil && sr.pass.imported(inModel.Status) {
		return inModel.Status, true
	}
	if !inDepot {
		return model.StatusInherit, false
	}
	if sr.pass.closure == model.StatusApiClosure && !visible {
		return model.StatusImplRoot, true
	}
	return sr.pass.closure, true
}

func (sr *statusResolver) assembly(a *metadata.Assembly) (model.Status, error) {
	var attrs *model.Attributes
	if e := sr.roots.assemblies[a]; e != nil {
		attrs = &e.Attributes
	}
	if s, ok := sr.resolve(attrs, sr.depot.ContainsAssembly(a), true); ok {
		return s, nil
	}
	return 0, errors.Newf(errors.StatusMissing, "assembly %s has no inclusion status", a.Name)
}

// typ returns Exclude for a type that is neither a root nor retained.
func (sr *statusResolver) typ(t *metadata.Type) model.Status {
	var attrs *model.Attributes
	if e := sr.roots.types[t]; e != nil {
		attrs = &e.Attributes
	}
	if s, ok := sr.resolve(attrs, sr.depot.ContainsType(t), metadata.IsTypeExternallyVisible(t)); ok {
		return s
	}
	return model.StatusExclude
}

func (sr *statusResolver) member(m *metadata.Member) (model.Status, error) {
	var attrs *model.Attributes
	if e := sr.roots.members[m]; e != nil {
		attrs = &e.Attributes
	}
	if s, ok := sr.resolve(attrs, sr.depot.ContainsMember(m), metadata.IsMemberExternallyVisible(m)); ok {
		return s, nil
	}
	return 0, errors.Newf(errors.StatusMissing, "member %s has no inclusion status", m)
}

func (sr *statusResolver) forwarder(f *metadata.TypeForwarder) model.Status {
	var attrs *model.Attributes
	if e := sr.roots.forwarders[f]; e != nil {
		attrs = &e.Attributes
	}
	if s, ok := sr.resolve(attrs, sr.depot.ContainsForwarder(f), true); ok {
		return s
	}
	return model.StatusExclude
}
