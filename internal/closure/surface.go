package closure

import (
	"thinner/internal/metadata"
)

// Surface walks the signature surface only: base classes, enclosing types,
// and the parameter and return types of members that are visible from
// outside. Bodies, attributes and marshalling information are skipped.
type Surface struct {
	traversal
}

// newSurface returns the surface policy for r.
func newSurface(r *run) *Surface {
	return &Surface{traversal: newTraversal(r)}
}

func (s *Surface) Visit(n Node) error {
	switch n := n.(type) {
	case AssemblyNode:
		return nil
	case TypeNode:
		return s.visitType(n.Type)
	case MemberNode:
		return s.visitMember(n.Member)
	case ForwarderNode:
		return s.visitForwarder(n.Forwarder)
	}
	return errUnknownNode(n)
}

func (s *Surface) visitType(t *metadata.Type) error {
	if !s.firstVisit(t) {
		return nil
	}
	if err := s.addRelatedExternal(t); err != nil {
		return err
	}
	if t.IsNested() {
		if err := s.depot.AddType(t.DeclaringType); err != nil {
			return err
		}
	}
	if err := s.addTypeRefs(t.Base); err != nil {
		return err
	}
	if t.IsEnum() {
		for _, m := range t.Members {
			if err := s.depot.AddMember(m); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Surface) visitMember(m *metadata.Member) error {
	if err := s.depot.AddType(m.DeclaringType); err != nil {
		return err
	}
	if !s.memberOnSurface(m) {
		return nil
	}
	if err := s.addTypeRefs(m.Params...); err != nil {
		return err
	}
	return s.addTypeRefs(m.Type)
}

// memberOnSurface reports whether m and every type enclosing it are
// reachable from outside the assembly.
func (s *Surface) memberOnSurface(m *metadata.Member) bool {
	if !surfaceVisible(m.Visibility, s.roots.memberStatus(m)) {
		return false
	}
	for t := m.DeclaringType; t != nil; t = t.DeclaringType {
		if !surfaceVisible(t.Visibility, s.roots.typeStatus(t)) {
			return false
		}
	}
	return true
}
