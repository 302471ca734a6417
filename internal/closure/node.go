// Package closure computes the set of metadata entities that must be kept
// when a program is thinned down to a root model, and annotates the result
// with inclusion statuses and visibility overrides.
//
// A run seeds a Depot with the roots of its pass, drains the Depot's queue
// through a traversal Policy, and repeats the virtual-consistency and
// constructor-backfill passes until nothing more is added. Runs share no
// state; one Engine may serve several runs over the same Program.
package closure

import (
	"fmt"

	"thinner/internal/metadata"
)

// Node is one queued entity. The concrete types are AssemblyNode, TypeNode,
// MemberNode and ForwarderNode; no other type implements Node.
type Node interface {
	fmt.Stringer
	isNode()
}

type (
	AssemblyNode  struct{ Assembly *metadata.Assembly }
	TypeNode      struct{ Type *metadata.Type }
	MemberNode    struct{ Member *metadata.Member }
	ForwarderNode struct{ Forwarder *metadata.TypeForwarder }
)

func (AssemblyNode) isNode()  {}
func (TypeNode) isNode()      {}
func (MemberNode) isNode()    {}
func (ForwarderNode) isNode() {}

func (n AssemblyNode) String() string  { return "assembly " + n.Assembly.Name }
func (n TypeNode) String() string      { return "type " + n.Type.FullName }
func (n MemberNode) String() string    { return "member " + n.Member.String() }
func (n ForwarderNode) String() string { return "forwarder " + n.Forwarder.String() }

// assemblyOf returns the assembly an entity belongs to.
func assemblyOf(n Node) *metadata.Assembly {
	switch n := n.(type) {
	case AssemblyNode:
		return n.Assembly
	case TypeNode:
		return n.Type.Assembly
	case MemberNode:
		return n.Member.DeclaringType.Assembly
	case ForwarderNode:
		return n.Forwarder.Assembly
	}
	panic(fmt.Sprintf("closure: unknown node %T", n))
}
