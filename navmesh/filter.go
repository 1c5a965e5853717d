package navmesh

import "github.com/arl/gogeo/f32/d3"

const maxAreas = 64

// QueryFilter decides which nodes a search may enter and what an edge
// into a node costs. Per spec Design Notes §9, the per-query user
// callbacks of the reference implementation are represented as an
// interface rather than closures, so they stay monomorphisable on hot
// paths.
type QueryFilter interface {
	// PassFilter reports whether ref may be entered.
	PassFilter(ref NodeRef, nav *NavMesh) bool
	// Cost returns the edge cost of moving from pa to pb while
	// transitioning prevRef -> curRef -> nextRef.
	Cost(pa, pb d3.Vec3, prevRef, curRef, nextRef NodeRef, nav *NavMesh) float32
}

// DefaultQueryFilter is the default QueryFilter (spec §4.6.1): it
// accepts a node iff (flags&IncludeFlags)!=0 && (flags&ExcludeFlags)==0,
// and costs edges by Euclidean distance scaled by a per-area multiplier
// (an enrichment grounded in the teacher's StandardQueryFilter), except
// that stepping onto an off-mesh connection with a configured Cost uses
// that fixed cost instead (spec §4.4.4).
type DefaultQueryFilter struct {
	IncludeFlags uint16
	ExcludeFlags uint16
	AreaCost     [maxAreas]float32
}

// NewDefaultQueryFilter returns a filter that accepts every flag
// combination and weighs every area equally.
func NewDefaultQueryFilter() *DefaultQueryFilter {
	f := &DefaultQueryFilter{IncludeFlags: 0xffff, ExcludeFlags: 0}
	for i := range f.AreaCost {
		f.AreaCost[i] = 1.0
	}
	return f
}

func (f *DefaultQueryFilter) PassFilter(ref NodeRef, nav *NavMesh) bool {
	_, flags, ok := nav.NodeAreaAndFlags(ref)
	if !ok {
		return false
	}
	return flags&f.IncludeFlags != 0 && flags&f.ExcludeFlags == 0
}

func (f *DefaultQueryFilter) Cost(pa, pb d3.Vec3, prevRef, curRef, nextRef NodeRef, nav *NavMesh) float32 {
	if nextRef.Tag == OffMeshNode {
		if conn, ok := nav.OffMeshConnectionSpec(nextRef.OffMeshID()); ok && conn.Cost != nil {
			return *conn.Cost
		}
	}
	area, _, _ := nav.NodeAreaAndFlags(curRef)
	areaCost := float32(1.0)
	if int(area) < len(f.AreaCost) {
		areaCost = f.AreaCost[area]
	}
	return pa.Dist(pb) * areaCost
}
