// Package metadata models compiled-program metadata: assemblies, the types
// they define, the members of those types, and type forwarders. Entities are
// immutable once a Program has been built; identity is the pointer to the
// canonical definition, and every entity also carries a dense arena id.
package metadata

import "strings"

// Visibility is the declared accessibility of a type or member.
type Visibility uint8

const (
	VisPrivate Visibility = iota
	VisFamilyAndAssembly
	VisAssembly
	VisFamily
	VisFamilyOrAssembly
	VisPublic
)

var visibilityNames = [...]string{"private", "famandassem", "assembly", "family", "famorassem", "public"}

func (v Visibility) String() string {
	if int(v) < len(visibilityNames) {
		return visibilityNames[v]
	}
	return "unknown"
}

// ParseVisibility accepts both metadata and C#-style spellings.
func ParseVisibility(s string) (Visibility, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "private":
		return VisPrivate, true
	case "famandassem", "private protected", "familyandassembly":
		return VisFamilyAndAssembly, true
	case "assembly", "internal":
		return VisAssembly, true
	case "family", "protected":
		return VisFamily, true
	case "famorassem", "protected internal", "familyorassembly":
		return VisFamilyOrAssembly, true
	case "public":
		return VisPublic, true
	}
	return VisPrivate, false
}

// TypeKind classifies a type definition.
type TypeKind uint8

const (
	KindClass TypeKind = iota
	KindStruct
	KindInterface
	KindEnum
	KindDelegate
)

var typeKindNames = [...]string{"class", "struct", "interface", "enum", "delegate"}

func (k TypeKind) String() string {
	if int(k) < len(typeKindNames) {
		return typeKindNames[k]
	}
	return "unknown"
}

// ParseTypeKind parses a lowercase kind name.
func ParseTypeKind(s string) (TypeKind, bool) {
	for i, name := range typeKindNames {
		if strings.EqualFold(s, name) {
			return TypeKind(i), true
		}
	}
	if s == "" {
		return KindClass, true
	}
	return KindClass, false
}

// MemberKind classifies a type member. The zero value is used by member
// references whose kind is not known up front.
type MemberKind uint8

const (
	MemberUnknown MemberKind = iota
	MemberMethod
	MemberField
	MemberProperty
	MemberEvent
)

var memberKindNames = [...]string{"Unknown", "Method", "Field", "Property", "Event"}

func (k MemberKind) String() string {
	if int(k) < len(memberKindNames) {
		return memberKindNames[k]
	}
	return "Unknown"
}

// ParseMemberKind parses a member kind name case-insensitively.
func ParseMemberKind(s string) (MemberKind, bool) {
	if s == "" {
		return MemberMethod, true
	}
	for i, name := range memberKindNames[1:] {
		if strings.EqualFold(s, name) {
			return MemberKind(i + 1), true
		}
	}
	return MemberUnknown, false
}

type (
	AssemblyID  uint32
	TypeID      uint32
	MemberID    uint32
	ForwarderID uint32
)

// Assembly is a unit of deployment owning types and forwarders.
type Assembly struct {
	id AssemblyID

	Name             string
	Version          string
	Types            []*Type
	Forwarders       []*TypeForwarder
	Attributes       []Attribute
	ModuleAttributes []Attribute

	typesByName map[string]*Type
}

// ID returns the arena id assigned when the program was built.
func (a *Assembly) ID() AssemblyID { return a.id }

// Type returns the type defined in this assembly with the given full name.
func (a *Assembly) Type(fullName string) *Type { return a.typesByName[fullName] }

func (a *Assembly) String() string { return a.Name }

// Type is a type definition.
type Type struct {
	id TypeID

	Assembly *Assembly
	// FullName is Namespace.Outer+Inner, with a trailing `N for generic arity.
	FullName      string
	Kind          TypeKind
	Visibility    Visibility
	Sealed        bool
	Abstract      bool
	GenericParams []GenericParam
	Base          *TypeRef
	Interfaces    []*TypeRef
	// DeclaringType is the containing type of a nested type.
	DeclaringType      *Type
	Members            []*Member
	Attributes         []Attribute
	SecurityAttributes []Attribute

	dummy        bool
	membersByKey map[string]*Member
}

// GenericParam is a generic parameter of a type or method.
type GenericParam struct {
	Name        string
	Constraints []*TypeRef
}

// ID returns the arena id assigned when the program was built.
func (t *Type) ID() TypeID { return t.id }

func (t *Type) String() string { return t.FullName }

// IsDummy reports whether t is the unresolved-type placeholder.
func (t *Type) IsDummy() bool { return t.dummy }

func (t *Type) IsInterface() bool { return t.Kind == KindInterface }
func (t *Type) IsEnum() bool      { return t.Kind == KindEnum }
func (t *Type) IsValueType() bool { return t.Kind == KindStruct || t.Kind == KindEnum }
func (t *Type) IsNested() bool    { return t.DeclaringType != nil }
func (t *Type) IsGeneric() bool   { return len(t.GenericParams) > 0 }

// IsDelegate reports a delegate type, either declared as such or deriving
// from System.MulticastDelegate.
func (t *Type) IsDelegate() bool {
	return t.Kind == KindDelegate || (t.Base != nil && t.Base.Kind == RefNamed && t.Base.Name == "System.MulticastDelegate")
}

// HasBase reports whether the type has a base class. Interfaces and
// System.Object do not.
func (t *Type) HasBase() bool { return t.Base != nil }

// Member looks a member up by its signature key.
func (t *Type) Member(key string) *Member { return t.membersByKey[key] }

// Methods returns the method members in declaration order.
func (t *Type) Methods() []*Member {
	return t.membersOf(MemberMethod)
}

// Fields returns the field members in declaration order.
func (t *Type) Fields() []*Member {
	return t.membersOf(MemberField)
}

func (t *Type) membersOf(kind MemberKind) []*Member {
	var out []*Member
	for _, m := range t.Members {
		if m.Kind == kind {
			out = append(out, m)
		}
	}
	return out
}

// Constructors returns the instance constructors in declaration order.
func (t *Type) Constructors() []*Member {
	var out []*Member
	for _, m := range t.Members {
		if m.IsConstructor() {
			out = append(out, m)
		}
	}
	return out
}

// SelfRef returns a reference to t instantiated over its own generic
// parameters, so that substitution through base types starts from identity.
func (t *Type) SelfRef() *TypeRef {
	ref := &TypeRef{Kind: RefNamed, Assembly: t.Assembly.Name, Name: t.FullName}
	for i, gp := range t.GenericParams {
		ref.Args = append(ref.Args, &TypeRef{Kind: RefGenericParam, Index: i, Name: gp.Name})
	}
	return ref
}

// Member is a method, field, property or event.
type Member struct {
	id MemberID

	DeclaringType *Type
	Kind          MemberKind
	// Name is the metadata name; constructors are ".ctor" and ".cctor".
	Name          string
	Visibility    Visibility
	Static        bool
	Virtual       bool
	Abstract      bool
	Final         bool
	SpecialName   bool
	Literal       bool
	GenericParams []GenericParam
	Params        []*TypeRef
	// Type is the return type of a method, or the type of a field,
	// property or event.
	Type *TypeRef

	Getter  *Member
	Setter  *Member
	Adder   *Member
	Remover *Member
	// Owner is the property or event an accessor method belongs to.
	Owner *Member

	// Overrides lists the interface or base members a method explicitly implements.
	Overrides  []*MemberRef
	Body       *Body
	Attributes []Attribute

	dummy bool
	key   string
	sig   string
}

// ID returns the arena id assigned when the program was built.
func (m *Member) ID() MemberID { return m.id }

// IsDummy reports whether m is the unresolved-member placeholder.
func (m *Member) IsDummy() bool { return m.dummy }

// Key returns the signature key, e.g. "Method : Foo(System.Int32)".
func (m *Member) Key() string {
	if m.key == "" {
		m.key = MemberKey(m.Kind, m.Signature(), m.ConversionReturnType())
	}
	return m.key
}

// Signature returns the key without the kind prefix and conversion suffix.
func (m *Member) Signature() string {
	if m.sig == "" {
		m.sig = formatSignature(m)
	}
	return m.sig
}

func (m *Member) String() string {
	if m.DeclaringType == nil {
		return m.Key()
	}
	return m.DeclaringType.FullName + "::" + m.Key()
}

func (m *Member) IsMethod() bool { return m.Kind == MemberMethod }

// IsConstructor reports an instance constructor.
func (m *Member) IsConstructor() bool { return m.Kind == MemberMethod && m.Name == ".ctor" }

// IsStaticConstructor reports a type initializer.
func (m *Member) IsStaticConstructor() bool { return m.Kind == MemberMethod && m.Name == ".cctor" }

// ParameterCount returns the number of declared parameters.
func (m *Member) ParameterCount() int { return len(m.Params) }

// Accessors returns the non-nil accessor methods of a property or event.
func (m *Member) Accessors() []*Member {
	var out []*Member
	for _, acc := range []*Member{m.Getter, m.Setter, m.Adder, m.Remover} {
		if acc != nil {
			out = append(out, acc)
		}
	}
	return out
}

// ConversionReturnType returns the rendered return type for op_Explicit and
// op_Implicit, which can only be told apart by it, and "" otherwise.
func (m *Member) ConversionReturnType() string {
	if m.Kind != MemberMethod || m.Type == nil {
		return ""
	}
	if m.Name != "op_Explicit" && m.Name != "op_Implicit" {
		return ""
	}
	return m.Type.String()
}

// TypeForwarder redirects a type name to another assembly.
type TypeForwarder struct {
	id ForwarderID

	Assembly *Assembly
	// Target names the forwarded type and the assembly that now defines it.
	Target *TypeRef
	// Containing is set for forwarders of nested types.
	Containing *TypeForwarder
}

// ID returns the arena id assigned when the program was built.
func (f *TypeForwarder) ID() ForwarderID { return f.id }

// Key returns "targetAssembly typeName", unique within the declaring assembly.
func (f *TypeForwarder) Key() string {
	return ForwarderKey(f.Target.Assembly, f.Target.Name)
}

func (f *TypeForwarder) String() string {
	return f.Assembly.Name + ":" + f.Key()
}

// ForwarderKey builds the identity key of a type forwarder.
func ForwarderKey(assemblyName, typeName string) string {
	return assemblyName + " " + typeName
}

// Attribute is a custom attribute application.
type Attribute struct {
	Ctor *MemberRef
	// TypeArgs holds typeof(...) arguments, which are references too.
	TypeArgs []*TypeRef
}

// Body is the part of a method body the engine cares about: every operand
// that references a type or member, and the exception handlers.
type Body struct {
	Operands []Operand
	Handlers []Handler
}

// Operand is one instruction operand referencing metadata.
type Operand struct {
	Op     string
	Type   *TypeRef
	Member *MemberRef
}

// Handler is an exception handler clause.
type Handler struct {
	Kind string
	// CatchType is NoExceptionType for finally and fault clauses.
	CatchType *TypeRef
}
