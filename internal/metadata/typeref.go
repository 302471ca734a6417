package metadata

import (
	"strconv"
	"strings"
)

// RefKind discriminates TypeRef shapes.
type RefKind uint8

const (
	RefNamed RefKind = iota
	RefArray
	RefPointer
	RefByRef
	RefGenericParam
	RefMethodGenericParam
)

// TypeRef is a reference to a type as it appears in a signature, base list,
// attribute or operand. Named references may be generic instantiations.
type TypeRef struct {
	Kind RefKind
	// Assembly optionally qualifies a named reference.
	Assembly string
	// Name is the full type name for named references, or the parameter
	// name for generic parameters.
	Name  string
	Args  []*TypeRef
	Elem  *TypeRef
	Index int
}

// NoExceptionType is the catch type recorded for handlers that do not
// filter on an exception type.
var NoExceptionType = &TypeRef{Kind: RefNamed, Name: "<no exception type>"}

// Named returns an unqualified named reference.
func Named(name string, args ...*TypeRef) *TypeRef {
	return &TypeRef{Kind: RefNamed, Name: name, Args: args}
}

// ArrayOf, PointerTo and ByRef wrap an element reference.
func ArrayOf(elem *TypeRef) *TypeRef   { return &TypeRef{Kind: RefArray, Elem: elem} }
func PointerTo(elem *TypeRef) *TypeRef { return &TypeRef{Kind: RefPointer, Elem: elem} }
func ByRef(elem *TypeRef) *TypeRef     { return &TypeRef{Kind: RefByRef, Elem: elem} }

// String renders the reference the way member signature keys spell it.
func (r *TypeRef) String() string {
	var sb strings.Builder
	r.write(&sb, false)
	return sb.String()
}

// shape renders the reference with generic parameters by position, so that
// signatures from different declarations can be compared.
func (r *TypeRef) shape() string {
	var sb strings.Builder
	r.write(&sb, true)
	return sb.String()
}

func (r *TypeRef) write(sb *strings.Builder, positional bool) {
	if r == nil {
		sb.WriteString("?")
		return
	}
	switch r.Kind {
	case RefNamed:
		sb.WriteString(r.Name)
		if len(r.Args) > 0 {
			sb.WriteByte('<')
			for i, a := range r.Args {
				if i > 0 {
					sb.WriteByte(',')
				}
				a.write(sb, positional)
			}
			sb.WriteByte('>')
		}
	case RefArray:
		r.Elem.write(sb, positional)
		sb.WriteString("[]")
	case RefPointer:
		r.Elem.write(sb, positional)
		sb.WriteByte('*')
	case RefByRef:
		r.Elem.write(sb, positional)
		sb.WriteByte('@')
	case RefGenericParam:
		if positional || r.Name == "" {
			sb.WriteString("!" + strconv.Itoa(r.Index))
		} else {
			sb.WriteString(r.Name)
		}
	case RefMethodGenericParam:
		if positional || r.Name == "" {
			sb.WriteString("!!" + strconv.Itoa(r.Index))
		} else {
			sb.WriteString(r.Name)
		}
	}
}

// Substitute replaces type generic parameters with typeArgs. Parameters
// without a corresponding argument are left in place.
func (r *TypeRef) Substitute(typeArgs []*TypeRef) *TypeRef {
	if r == nil || len(typeArgs) == 0 {
		return r
	}
	switch r.Kind {
	case RefGenericParam:
		if r.Index < len(typeArgs) && typeArgs[r.Index] != nil {
			return typeArgs[r.Index]
		}
		return r
	case RefArray, RefPointer, RefByRef:
		elem := r.Elem.Substitute(typeArgs)
		if elem == r.Elem {
			return r
		}
		return &TypeRef{Kind: r.Kind, Elem: elem}
	case RefNamed:
		if len(r.Args) == 0 {
			return r
		}
		out := &TypeRef{Kind: RefNamed, Assembly: r.Assembly, Name: r.Name, Args: make([]*TypeRef, len(r.Args))}
		for i, a := range r.Args {
			out.Args[i] = a.Substitute(typeArgs)
		}
		return out
	}
	return r
}

// Core peels array, pointer and by-ref wrappers. It returns nil for
// generic parameters, which name no definition.
func (r *TypeRef) Core() *TypeRef {
	for r != nil {
		switch r.Kind {
		case RefArray, RefPointer, RefByRef:
			r = r.Elem
		case RefNamed:
			return r
		default:
			return nil
		}
	}
	return nil
}

// NamedRefs calls fn for every named reference inside r, including the
// element type and generic arguments, outermost first.
func (r *TypeRef) NamedRefs(fn func(*TypeRef)) {
	if r == nil || r == NoExceptionType {
		return
	}
	switch r.Kind {
	case RefNamed:
		fn(r)
		for _, a := range r.Args {
			a.NamedRefs(fn)
		}
	case RefArray, RefPointer, RefByRef:
		r.Elem.NamedRefs(fn)
	}
}

// IsObject reports a reference to System.Object.
func (r *TypeRef) IsObject() bool {
	return r != nil && r.Kind == RefNamed && r.Name == "System.Object" && len(r.Args) == 0
}

// MemberRef references a member through its declaring type, which may be a
// generic instantiation. Signature is expressed in terms of the definition's
// own generic parameters, as in a metadata memberref.
type MemberRef struct {
	Type      *TypeRef
	Kind      MemberKind
	Signature string
	// MethodArgs instantiates a generic method.
	MethodArgs []*TypeRef
}

func (r *MemberRef) String() string {
	s := r.Type.String() + "::" + r.Signature
	if len(r.MethodArgs) > 0 {
		parts := make([]string, len(r.MethodArgs))
		for i, a := range r.MethodArgs {
			parts[i] = a.String()
		}
		s += "<" + strings.Join(parts, ",") + ">"
	}
	return s
}

// RefTo returns a member reference to a definition.
func RefTo(m *Member) *MemberRef {
	return &MemberRef{Type: m.DeclaringType.SelfRef(), Kind: m.Kind, Signature: m.Signature() + conversionSuffix(m)}
}

func conversionSuffix(m *Member) string {
	if ret := m.ConversionReturnType(); ret != "" {
		return " : " + ret
	}
	return ""
}
