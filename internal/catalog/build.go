package catalog

import (
	"fmt"
	"strings"

	"thinner/internal/errors"
	"thinner/internal/metadata"
)

// builder converts catalog descriptions into metadata entities. Errors carry
// the source and the element being built.
type builder struct {
	source string
}

func (b *builder) fail(where string, err error) error {
	return errors.New(errors.CatalogInvalid, b.source+": "+where, err)
}

func (b *builder) assemblies(f *File) ([]*metadata.Assembly, error) {
	out := make([]*metadata.Assembly, 0, len(f.Assemblies))
	for i := range f.Assemblies {
		a, err := b.assembly(&f.Assemblies[i])
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func (b *builder) assembly(d *AssemblyDesc) (*metadata.Assembly, error) {
	if d.Name == "" {
		return nil, b.fail("assembly", fmt.Errorf("missing name"))
	}
	a := &metadata.Assembly{Name: d.Name, Version: d.Version}

	var err error
	if a.Attributes, err = b.attributes(d.Attributes, nil); err != nil {
		return nil, b.fail(d.Name, err)
	}
	if a.ModuleAttributes, err = b.attributes(d.ModuleAttributes, nil); err != nil {
		return nil, b.fail(d.Name, err)
	}

	for _, fw := range d.Forwarders {
		target, err := ParseTypeRef(fw)
		if err != nil {
			return nil, b.fail(d.Name+" forwarder", err)
		}
		a.Forwarders = append(a.Forwarders, &metadata.TypeForwarder{Target: target})
	}

	// Generic parameter names come first so that nested types and
	// constraints can refer to any of them.
	descs := make(map[string]*TypeDesc, len(d.Types))
	types := make(map[string]*metadata.Type, len(d.Types))
	for i := range d.Types {
		td := &d.Types[i]
		t, err := b.typeHeader(td)
		if err != nil {
			return nil, b.fail(d.Name+" "+td.Name, err)
		}
		descs[td.Name] = td
		types[td.Name] = t
		a.Types = append(a.Types, t)
	}
	for _, t := range a.Types {
		sc := &scope{}
		for name := t.FullName; ; {
			if outer, ok := types[name]; ok {
				sc.types = append(sc.types, outer.GenericParams)
			}
			i := strings.LastIndexByte(name, '+')
			if i < 0 {
				break
			}
			name = name[:i]
		}
		if err := b.typeBody(t, descs[t.FullName], sc); err != nil {
			return nil, b.fail(d.Name+" "+t.FullName, err)
		}
	}
	return a, nil
}

func (b *builder) typeHeader(d *TypeDesc) (*metadata.Type, error) {
	if d.Name == "" {
		return nil, fmt.Errorf("type without a name")
	}
	kind, ok := metadata.ParseTypeKind(d.Kind)
	if !ok {
		return nil, fmt.Errorf("unknown type kind %q", d.Kind)
	}
	vis, err := visibility(d.Visibility)
	if err != nil {
		return nil, err
	}
	return &metadata.Type{
		FullName:      d.Name,
		Kind:          kind,
		Visibility:    vis,
		Sealed:        d.Sealed,
		Abstract:      d.Abstract,
		GenericParams: genericNames(d.Generic),
	}, nil
}

func (b *builder) typeBody(t *metadata.Type, d *TypeDesc, sc *scope) error {
	var err error
	if err = constraints(t.GenericParams, d.Generic, sc); err != nil {
		return err
	}
	if d.Base != "" {
		if t.Base, err = parseTypeRef(d.Base, sc); err != nil {
			return err
		}
	}
	for _, s := range d.Interfaces {
		ref, err := parseTypeRef(s, sc)
		if err != nil {
			return err
		}
		t.Interfaces = append(t.Interfaces, ref)
	}
	if t.Attributes, err = b.attributes(d.Attributes, sc); err != nil {
		return err
	}
	if t.SecurityAttributes, err = b.attributes(d.Security, sc); err != nil {
		return err
	}

	byName := make(map[string]*metadata.Member)
	for i := range d.Members {
		m, err := b.member(&d.Members[i], sc)
		if err != nil {
			return fmt.Errorf("member %s: %w", d.Members[i].Name, err)
		}
		t.Members = append(t.Members, m)
		if m.Kind == metadata.MemberMethod {
			byName[m.Name] = m
		}
	}

	for i, m := range t.Members {
		md := &d.Members[i]
		for _, acc := range []struct {
			name string
			slot **metadata.Member
		}{
			{md.Getter, &m.Getter},
			{md.Setter, &m.Setter},
			{md.Adder, &m.Adder},
			{md.Remover, &m.Remover},
		} {
			if acc.name == "" {
				continue
			}
			target := byName[acc.name]
			if target == nil {
				return fmt.Errorf("member %s: accessor %s not declared", m.Name, acc.name)
			}
			*acc.slot = target
		}
	}
	return nil
}

func (b *builder) member(d *MemberDesc, typeScope *scope) (*metadata.Member, error) {
	if d.Name == "" {
		return nil, fmt.Errorf("member without a name")
	}
	kind, ok := metadata.ParseMemberKind(d.Kind)
	if !ok {
		return nil, fmt.Errorf("unknown member kind %q", d.Kind)
	}
	vis, err := visibility(d.Visibility)
	if err != nil {
		return nil, err
	}

	m := &metadata.Member{
		Kind:          kind,
		Name:          d.Name,
		Visibility:    vis,
		Static:        d.Static,
		Virtual:       d.Virtual,
		Abstract:      d.Abstract,
		Final:         d.Final,
		SpecialName:   d.SpecialName,
		Literal:       d.Literal,
		GenericParams: genericNames(d.Generic),
	}
	sc := typeScope.withMethod(m.GenericParams)
	if err := constraints(m.GenericParams, d.Generic, sc); err != nil {
		return nil, err
	}

	for _, s := range d.Params {
		ref, err := parseTypeRef(s, sc)
		if err != nil {
			return nil, err
		}
		m.Params = append(m.Params, ref)
	}
	if d.Type != "" {
		if m.Type, err = parseTypeRef(d.Type, sc); err != nil {
			return nil, err
		}
	}
	for _, s := range d.Overrides {
		ref, err := parseMemberRef(s, sc)
		if err != nil {
			return nil, err
		}
		m.Overrides = append(m.Overrides, ref)
	}
	if m.Attributes, err = b.attributes(d.Attributes, sc); err != nil {
		return nil, err
	}
	if d.Body != nil {
		if m.Body, err = body(d.Body, sc); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func body(d *BodyDesc, sc *scope) (*metadata.Body, error) {
	out := &metadata.Body{}
	for _, s := range d.Calls {
		ref, err := parseMemberRef(s, sc)
		if err != nil {
			return nil, err
		}
		out.Operands = append(out.Operands, metadata.Operand{Op: "call", Member: ref})
	}
	for _, od := range d.Operands {
		op := metadata.Operand{Op: od.Op}
		var err error
		switch {
		case od.Member != "" && od.Type != "":
			return nil, fmt.Errorf("operand %s names both a type and a member", od.Op)
		case od.Member != "":
			op.Member, err = parseMemberRef(od.Member, sc)
		case od.Type != "":
			op.Type, err = parseTypeRef(od.Type, sc)
		default:
			return nil, fmt.Errorf("operand %s names neither a type nor a member", od.Op)
		}
		if err != nil {
			return nil, err
		}
		out.Operands = append(out.Operands, op)
	}
	for _, hd := range d.Handlers {
		h := metadata.Handler{Kind: hd.Kind, CatchType: metadata.NoExceptionType}
		if hd.Type != "" {
			ref, err := parseTypeRef(hd.Type, sc)
			if err != nil {
				return nil, err
			}
			h.CatchType = ref
		}
		out.Handlers = append(out.Handlers, h)
	}
	return out, nil
}

func (b *builder) attributes(descs []AttributeDesc, sc *scope) ([]metadata.Attribute, error) {
	var out []metadata.Attribute
	for _, d := range descs {
		ctor, err := parseMemberRef(d.Ctor, sc)
		if err != nil {
			return nil, err
		}
		attr := metadata.Attribute{Ctor: ctor}
		for _, s := range d.Types {
			ref, err := parseTypeRef(s, sc)
			if err != nil {
				return nil, err
			}
			attr.TypeArgs = append(attr.TypeArgs, ref)
		}
		out = append(out, attr)
	}
	return out, nil
}

func genericNames(descs []GenericDesc) []metadata.GenericParam {
	if len(descs) == 0 {
		return nil
	}
	out := make([]metadata.GenericParam, len(descs))
	for i, d := range descs {
		out[i].Name = d.Name
	}
	return out
}

func constraints(params []metadata.GenericParam, descs []GenericDesc, sc *scope) error {
	for i, d := range descs {
		for _, s := range d.Constraints {
			ref, err := parseTypeRef(s, sc)
			if err != nil {
				return err
			}
			params[i].Constraints = append(params[i].Constraints, ref)
		}
	}
	return nil
}

// visibility defaults to public; catalogs describe surfaces first.
func visibility(s string) (metadata.Visibility, error) {
	if s == "" {
		return metadata.VisPublic, nil
	}
	v, ok := metadata.ParseVisibility(s)
	if !ok {
		return 0, fmt.Errorf("unknown visibility %q", s)
	}
	return v, nil
}
