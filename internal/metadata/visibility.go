package metadata

// IsTypeExternallyVisible reports whether code outside the defining assembly
// can name t.
func IsTypeExternallyVisible(t *Type) bool {
	if t.DeclaringType == nil {
		return t.Visibility == VisPublic
	}
	return visibleThrough(t.Visibility, t.DeclaringType)
}

// IsMemberExternallyVisible reports whether code outside the defining
// assembly can reach m, taking the visibility of enclosing types into
// account. Protected members of sealed types are not reachable.
func IsMemberExternallyVisible(m *Member) bool {
	return visibleThrough(m.Visibility, m.DeclaringType)
}

func visibleThrough(v Visibility, container *Type) bool {
	switch v {
	case VisPublic:
		return IsTypeExternallyVisible(container)
	case VisFamily, VisFamilyOrAssembly:
		return IsTypeExternallyVisible(container) && !container.Sealed
	default:
		return false
	}
}

// IsVirtual reports whether m takes part in virtual dispatch. Properties and
// events do through their accessors, or by being declared on an interface.
func IsVirtual(m *Member) bool {
	switch m.Kind {
	case MemberMethod:
		return m.Virtual
	case MemberProperty, MemberEvent:
		if m.DeclaringType.IsInterface() {
			return true
		}
		if acc := m.Accessors(); len(acc) > 0 {
			return acc[0].Virtual
		}
	}
	return false
}

// OwnerPropertyOrEvent returns the property or event that a special-name
// accessor method belongs to, or nil.
func OwnerPropertyOrEvent(m *Member) *Member {
	if m.Kind != MemberMethod || !m.SpecialName {
		return nil
	}
	return m.Owner
}
