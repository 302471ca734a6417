package metadata

import "strings"

// MemberKey builds a member identity key:
//
//	Kind : Name[<G,..>][(P1,P2)][ : ReturnType]
//
// The return type is only present for conversion operators.
func MemberKey(kind MemberKind, signature, returnType string) string {
	key := kind.String() + " : " + signature
	if returnType != "" {
		key += " : " + returnType
	}
	return key
}

// SplitMemberKey is the inverse of MemberKey. ok is false when key has no
// kind prefix.
func SplitMemberKey(key string) (kind MemberKind, signature, returnType string, ok bool) {
	head, rest, found := strings.Cut(key, " : ")
	if !found {
		return MemberUnknown, "", "", false
	}
	kind, ok = ParseMemberKind(head)
	if !ok {
		return MemberUnknown, "", "", false
	}
	if i := strings.LastIndex(rest, " : "); i >= 0 && strings.LastIndexByte(rest, ')') < i {
		return kind, rest[:i], rest[i+3:], true
	}
	return kind, rest, "", true
}

func displayName(m *Member) string {
	if m.Name == ".ctor" {
		return "#ctor"
	}
	return m.Name
}

func formatSignature(m *Member) string {
	var sb strings.Builder
	sb.WriteString(displayName(m))

	if m.Kind == MemberMethod && len(m.GenericParams) > 0 {
		sb.WriteByte('<')
		for i, gp := range m.GenericParams {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(gp.Name)
		}
		sb.WriteByte('>')
	}

	if (m.Kind == MemberMethod || m.Kind == MemberProperty) && len(m.Params) > 0 {
		sb.WriteByte('(')
		for i, p := range m.Params {
			if i > 0 {
				sb.WriteByte(',')
			}
			p.write(&sb, false)
		}
		sb.WriteByte(')')
	}

	return sb.String()
}

// paramShape renders m's parameter list positionally after substituting the
// declaring type's generic parameters with typeArgs.
func paramShape(m *Member, typeArgs []*TypeRef) string {
	var sb strings.Builder
	for i, p := range m.Params {
		if i > 0 {
			sb.WriteByte(',')
		}
		p.Substitute(typeArgs).write(&sb, true)
	}
	return sb.String()
}

// SignaturesEqual reports whether two members of the same type have the same
// parameter list and return type.
func SignaturesEqual(a, b *Member) bool {
	if len(a.Params) != len(b.Params) || len(a.GenericParams) != len(b.GenericParams) {
		return false
	}
	if paramShape(a, nil) != paramShape(b, nil) {
		return false
	}
	return a.Type.shape() == b.Type.shape()
}
