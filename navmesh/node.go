package navmesh

import "github.com/arl/gogeo/f32/d3"

// NodeFlags are bit flags on a SearchNode's position in the open/closed
// sets (spec §4.5).
type NodeFlags uint8

const (
	NodeOpen NodeFlags = 1 << iota
	NodeClosed
)

// nodeKey partitions the pool by (NodeRef, crossSide): crossSide lets
// the same polygon be entered from different portals without the
// search conflating them (spec §4.5, §4.6.6).
type nodeKey struct {
	Ref       NodeRef
	CrossSide uint8
}

// SearchNode is one entry of a NodePool: reached position, accumulated
// cost, total f-value, parent key, and open/closed flags.
type SearchNode struct {
	Ref       NodeRef
	CrossSide uint8

	Pos    d3.Vec3
	Cost   float32
	Total  float32
	Flags  NodeFlags

	parent    nodeKey
	hasParent bool
}

// NodePool maps (NodeRef, crossSide) to a SearchNode. It is allocated
// fresh for every query call (spec §4.6: "all scratch state ... is
// allocated per call, so concurrent read-only queries are permitted"),
// replacing the teacher's array-plus-hash-chain NodePool that is reused
// (and must be Clear()ed) across calls.
type NodePool struct {
	nodes map[nodeKey]*SearchNode
}

// NewNodePool creates an empty node pool.
func NewNodePool() *NodePool {
	return &NodePool{nodes: map[nodeKey]*SearchNode{}}
}

// Node returns the node for (ref, crossSide), allocating a zero-valued
// one on first access.
func (p *NodePool) Node(ref NodeRef, crossSide uint8) *SearchNode {
	k := nodeKey{ref, crossSide}
	n, ok := p.nodes[k]
	if !ok {
		n = &SearchNode{Ref: ref, CrossSide: crossSide}
		p.nodes[k] = n
	}
	return n
}

// Find returns the node for (ref, crossSide) without allocating.
func (p *NodePool) Find(ref NodeRef, crossSide uint8) (*SearchNode, bool) {
	n, ok := p.nodes[nodeKey{ref, crossSide}]
	return n, ok
}

func setParent(n, parent *SearchNode) {
	n.parent = nodeKey{parent.Ref, parent.CrossSide}
	n.hasParent = true
}

func (p *NodePool) parentOf(n *SearchNode) (*SearchNode, bool) {
	if !n.hasParent {
		return nil, false
	}
	parent, ok := p.nodes[n.parent]
	return parent, ok
}
