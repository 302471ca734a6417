package closure

import (
	"thinner/internal/metadata"
)

// Full keeps everything a retained entity needs to run: attributes,
// accessors, static constructors, method bodies and exception handlers.
// Declared interfaces are not followed; they come in through the members
// that implement them.
type Full struct {
	traversal
	fields FieldOptions
}

func newFull(r *run, fields FieldOptions) *Full {
	return &Full{traversal: newTraversal(r), fields: fields}
}

func (f *Full) Visit(n Node) error {
	switch n := n.(type) {
	case AssemblyNode:
		return f.visitAssembly(n.Assembly)
	case TypeNode:
		return f.visitType(n.Type)
	case MemberNode:
		return f.visitMember(n.Member)
	case ForwarderNode:
		return f.visitForwarder(n.Forwarder)
	}
	return errUnknownNode(n)
}

func (f *Full) visitAssembly(a *metadata.Assembly) error {
	if err := f.addAttributes(a.Attributes); err != nil {
		return err
	}
	return f.addAttributes(a.ModuleAttributes)
}

func (f *Full) visitType(t *metadata.Type) error {
	if !f.firstVisit(t) {
		return nil
	}
	if t.IsNested() {
		if err := f.depot.AddType(t.DeclaringType); err != nil {
			return err
		}
	}
	if err := f.addAttributes(t.Attributes); err != nil {
		return err
	}
	if err := f.addAttributes(t.SecurityAttributes); err != nil {
		return err
	}
	if err := f.addTypeRefs(t.Base); err != nil {
		return err
	}
	if err := f.addConstraints(t.GenericParams); err != nil {
		return err
	}
	if err := f.addRelatedExternal(t); err != nil {
		return err
	}

	keepFields := f.fields == FieldsKeepAll || (f.fields == FieldsKeepAllValueTypeFields && t.IsValueType())
	for _, m := range t.Members {
		keep := m.IsStaticConstructor() ||
			(m.IsConstructor() && m.ParameterCount() == 0 && t.HasBase()) ||
			(keepFields && m.Kind == metadata.MemberField && (!m.Static || m.Literal))
		if keep {
			if err := f.depot.AddMember(m); err != nil {
				return err
			}
		}
	}
	return nil
}

func (f *Full) visitMember(m *metadata.Member) error {
	if err := f.depot.AddType(m.DeclaringType); err != nil {
		return err
	}
	if err := f.addAttributes(m.Attributes); err != nil {
		return err
	}
	if err := f.addTypeRefs(m.Params...); err != nil {
		return err
	}
	if err := f.addTypeRefs(m.Type); err != nil {
		return err
	}
	if err := f.addConstraints(m.GenericParams); err != nil {
		return err
	}

	switch m.Kind {
	case metadata.MemberProperty, metadata.MemberEvent:
		for _, acc := range m.Accessors() {
			if err := f.depot.AddMember(acc); err != nil {
				return err
			}
		}
		return nil
	case metadata.MemberMethod:
	default:
		return nil
	}

	if owner := metadata.OwnerPropertyOrEvent(m); owner != nil {
		if err := f.depot.AddMember(owner); err != nil {
			return err
		}
	}
	if err := f.addCompanions(m); err != nil {
		return err
	}
	return f.visitBody(m.Body)
}

func (f *Full) visitBody(b *metadata.Body) error {
	if b == nil {
		return nil
	}
	for _, op := range b.Operands {
		if op.Member != nil {
			if err := f.depot.AddMemberRef(op.Member); err != nil {
				return err
			}
		}
		if err := f.addTypeRefs(op.Type); err != nil {
			return err
		}
	}
	for _, h := range b.Handlers {
		if h.CatchType == metadata.NoExceptionType {
			continue
		}
		if err := f.addTypeRefs(h.CatchType); err != nil {
			return err
		}
	}
	return nil
}

// addCompanions keeps equality operators together with their opposite and
// with Equals(object) and GetHashCode().
func (f *Full) addCompanions(m *metadata.Member) error {
	if !m.SpecialName {
		return nil
	}
	var pair string
	switch m.Name {
	case "op_Equality":
		pair = "op_Inequality"
	case "op_Inequality":
		pair = "op_Equality"
	default:
		return nil
	}

	t := m.DeclaringType
	var companions []*metadata.Member
	for _, other := range t.Methods() {
		if other.SpecialName && other.Name == pair && metadata.SignaturesEqual(m, other) {
			companions = append(companions, other)
		}
	}
	for _, key := range []string{"Method : Equals(System.Object)", "Method : GetHashCode"} {
		if other := t.Member(key); other != nil && !other.Static {
			companions = append(companions, other)
		}
	}
	for _, c := range companions {
		if err := f.depot.AddMember(c); err != nil {
			return err
		}
	}
	return nil
}
