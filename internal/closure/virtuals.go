package closure

import (
	"thinner/internal/metadata"
)

// closeVirtuals keeps override chains and interface implementations
// all-or-nothing. For every virtual member of every retained type, if any
// member it is related to is retained or lives outside the thinned
// assemblies, every related member that can be retained is. Types added
// while the pass runs are covered too. It returns the number of entities
// added.
func (r *run) closeVirtuals() (int, error) {
	before := r.depot.Len()
	participates := func(t *metadata.Type) bool {
		return r.depot.ContainsType(t) || !r.canInclude(t)
	}

	types := r.depot.Types()
	for i := 0; i < len(types); i++ {
		t := types[i]
		if !r.canInclude(t) {
			continue
		}
		for _, m := range t.Members {
			if !metadata.IsVirtual(m) {
				continue
			}
			related, err := r.program.RelatedMembers(m, participates)
			if err != nil {
				return 0, err
			}
			if !r.anyKept(related) {
				continue
			}
			for _, rm := range related {
				if !r.canInclude(rm.DeclaringType) {
					continue
				}
				if err := r.depot.AddMember(rm); err != nil {
					return 0, err
				}
			}
		}
		types = r.depot.Types()
	}

	added := r.depot.Len() - before
	if added > 0 {
		r.logger.Debug("Virtual slots completed", "added", added)
	}
	return added, nil
}

func (r *run) anyKept(members []*metadata.Member) bool {
	for _, m := range members {
		if r.depot.ContainsMember(m) || !r.canInclude(m.DeclaringType) {
			return true
		}
	}
	return false
}
