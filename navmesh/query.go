package navmesh

import (
	"sort"

	"github.com/arl/gogeo/f32/d3"
	"github.com/arl/math32"
)

// Query is a stateless read-only view over a NavMesh. Every method
// allocates its own node pool and open list, so concurrent queries
// against the same NavMesh are safe as long as no mutator is in flight
// (spec §4.6, §5) — unlike the teacher's NavMeshQuery, which reuses a
// single NodePool/openList across calls.
type Query struct {
	nav *NavMesh
}

// NewQuery wraps nav in a stateless query view.
func NewQuery(nav *NavMesh) *Query { return &Query{nav: nav} }

// PathStatus distinguishes "invalid input" from "reached the goal" from
// "did as well as possible" at the type level (spec §7.3, Design Notes
// §9), replacing the teacher's bitmask Status for path results.
type PathStatus uint8

const (
	PathInvalid PathStatus = iota
	PathPartial
	PathComplete
)

func boxFromCenter(center, halfExtents d3.Vec3) (bmin, bmax d3.Vec3) {
	bmin = d3.Vec3{center[0] - halfExtents[0], center[1] - halfExtents[1], center[2] - halfExtents[2]}
	bmax = d3.Vec3{center[0] + halfExtents[0], center[1] + halfExtents[1], center[2] + halfExtents[2]}
	return
}

func (m *NavMesh) worldToTileRange(bmin, bmax d3.Vec3) (x0, x1, y0, y1 int32) {
	x0 = int32(math32.Floor((bmin[0] - m.Origin[0]) / m.TileWidth))
	x1 = int32(math32.Floor((bmax[0] - m.Origin[0]) / m.TileWidth))
	y0 = int32(math32.Floor((bmin[2] - m.Origin[2]) / m.TileHeight))
	y1 = int32(math32.Floor((bmax[2] - m.Origin[2]) / m.TileHeight))
	return
}

// forEachTileOverlapping enumerates every tile (across all layers)
// whose XZ footprint overlaps [bmin,bmax] (spec §4.6.3).
func (m *NavMesh) forEachTileOverlapping(bmin, bmax d3.Vec3, fn func(*Tile)) {
	x0, x1, y0, y1 := m.worldToTileRange(bmin, bmax)
	for x := x0; x <= x1; x++ {
		for y := y0; y <= y1; y++ {
			for _, id := range m.tileXY[xyCell{x, y}] {
				tile := m.tiles[id]
				if overlapBounds(bmin, bmax, tile.BoundsMin, tile.BoundsMax) {
					fn(tile)
				}
			}
		}
	}
}

// detailTriVerts returns the world-space vertices of detail triangle
// triIdx of polygon pi, per spec §3's index convention (< poly vertex
// count names a polygon vertex, >= names a detailVertices entry).
func (t *Tile) detailTriVerts(pi uint32, poly *Poly, triIdx int) (a, b, c d3.Vec3, ok bool) {
	if int(pi) >= len(t.DetailMeshes) {
		return d3.Vec3{}, d3.Vec3{}, d3.Vec3{}, false
	}
	dm := t.DetailMeshes[pi]
	if triIdx >= int(dm.TriCount) {
		return d3.Vec3{}, d3.Vec3{}, d3.Vec3{}, false
	}
	base := int(dm.TriBase)*4 + triIdx*4
	nv := poly.VertCount()
	get := func(idx uint8) d3.Vec3 {
		if int(idx) < nv {
			return t.Vertex(poly.Verts[idx])
		}
		vi := int(dm.VertBase) + int(idx) - nv
		o := vi * 3
		return d3.Vec3{t.DetailVertices[o], t.DetailVertices[o+1], t.DetailVertices[o+2]}
	}
	idxs := t.DetailTriangles[base : base+3]
	return get(idxs[0]), get(idxs[1]), get(idxs[2]), true
}

// getPolyHeight returns the surface height of poly at (p.x,p.z): detail
// triangles when present, else barycentric height over the polygon's
// first three vertices, else the average vertex Y (spec §4.6.4).
func getPolyHeight(t *Tile, pi uint32, poly *Poly, p d3.Vec3) float32 {
	if int(pi) < len(t.DetailMeshes) {
		dm := t.DetailMeshes[pi]
		for i := 0; i < int(dm.TriCount); i++ {
			a, b, c, ok := t.detailTriVerts(pi, poly, i)
			if !ok {
				continue
			}
			if h, ok := getHeightAtPoint(p, a, b, c); ok {
				return h
			}
		}
	}

	verts := t.PolyVerts(poly)
	if len(verts) >= 3 {
		if h, ok := getHeightAtPoint(p, verts[0], verts[1], verts[2]); ok {
			return h
		}
	}

	var sum float32
	for _, v := range verts {
		sum += v[1]
	}
	if len(verts) == 0 {
		return 0
	}
	return sum / float32(len(verts))
}

// closestPointOnPolyBoundary returns p unchanged when it projects inside
// poly's XZ footprint, else the clamped 2D-closest point on poly's
// boundary, refined against detail-mesh edges when they are strictly
// closer in 3D (spec §4.6.4). Despite the name, a point already inside
// the polygon is not pushed to its edge — only a genuinely outside point
// is clamped.
func closestPointOnPolyBoundary(t *Tile, pi uint32, poly *Poly, p d3.Vec3) d3.Vec3 {
	verts := t.PolyVerts(poly)
	if pointInPoly(verts, p) {
		return p
	}
	n := len(verts)
	best := verts[0]
	bestDistSqr := float32(math32.MaxFloat32)

	for i := 0; i < n; i++ {
		j := (i + 1) % n
		va, vb := verts[i], verts[j]
		tt := closestPtSeg2DParam(p, va, vb)
		cand := va.Lerp(vb, tt)
		dx := p[0] - cand[0]
		dz := p[2] - cand[2]
		d := dx*dx + dz*dz
		if d < bestDistSqr {
			bestDistSqr = d
			best = cand
		}
	}

	if int(pi) < len(t.DetailMeshes) {
		bestDistSqr = p.DistSqr(best)
		dm := t.DetailMeshes[pi]
		for i := 0; i < int(dm.TriCount); i++ {
			a, b, c, ok := t.detailTriVerts(pi, poly, i)
			if !ok {
				continue
			}
			tri := [3]d3.Vec3{a, b, c}
			for e := 0; e < 3; e++ {
				va, vb := tri[e], tri[(e+1)%3]
				cand := closestPtSeg2D(p, va, vb)
				d := p.DistSqr(cand)
				if d < bestDistSqr {
					bestDistSqr = d
					best = cand
				}
			}
		}
	}
	return best
}

// closestPointOnPoly returns a point on poly closest to p: when p
// projects inside the polygon's XZ footprint, the point directly above/
// below p with Y from getPolyHeight; otherwise the closest boundary
// point (spec §4.6.4).
func closestPointOnPoly(t *Tile, pi uint32, poly *Poly, p d3.Vec3) (d3.Vec3, bool) {
	verts := t.PolyVerts(poly)
	if pointInPoly(verts, p) {
		h := getPolyHeight(t, pi, poly, p)
		return d3.Vec3{p[0], h, p[2]}, true
	}
	return closestPointOnPolyBoundary(t, pi, poly, p), false
}

// findNearestPoly is shared between the public Query.FindNearestPoly and
// off-mesh connection endpoint snapping (spec §4.4.4, §4.6.2).
func (m *NavMesh) findNearestPoly(center, halfExtents d3.Vec3, filter QueryFilter) (NodeRef, d3.Vec3, bool) {
	bmin, bmax := boxFromCenter(center, halfExtents)

	var nearestRef NodeRef
	var nearestPt d3.Vec3
	nearestDistSqr := float32(math32.MaxFloat32)

	m.forEachTileOverlapping(bmin, bmax, func(tile *Tile) {
		for _, pi := range tile.queryPolygonsInTile(bmin, bmax) {
			poly := &tile.Polys[pi]
			ref := GroundPolyRef(tile.ID, pi)
			if filter != nil && !filter.PassFilter(ref, m) {
				continue
			}
			closest, posOverPoly := closestPointOnPoly(tile, pi, poly, center)

			var d float32
			dx := center[0] - closest[0]
			dy := center[1] - closest[1]
			dz := center[2] - closest[2]
			if posOverPoly {
				ady := math32.Abs(dy) - tile.WalkableClimb
				if ady > 0 {
					d = ady * ady
				} else {
					d = 0
				}
			} else {
				d = dx*dx + dy*dy + dz*dz
			}

			if d < nearestDistSqr {
				nearestDistSqr = d
				nearestRef = ref
				nearestPt = closest
			}
		}
	})

	if nearestRef.IsZero() {
		return NodeRef{}, d3.Vec3{}, false
	}
	return nearestRef, nearestPt, true
}

// FindNearestPoly implements spec §4.6.2.
func (q *Query) FindNearestPoly(center, halfExtents d3.Vec3, filter QueryFilter) (NodeRef, d3.Vec3, bool) {
	return q.nav.findNearestPoly(center, halfExtents, filter)
}

// QueryPolygonsInTile implements spec §4.6.3 for a single tile.
func (q *Query) QueryPolygonsInTile(tile *Tile, bmin, bmax d3.Vec3, filter QueryFilter) []NodeRef {
	idxs := tile.queryPolygonsInTile(bmin, bmax)
	out := make([]NodeRef, 0, len(idxs))
	for _, pi := range idxs {
		ref := GroundPolyRef(tile.ID, pi)
		if filter == nil || filter.PassFilter(ref, q.nav) {
			out = append(out, ref)
		}
	}
	return out
}

// QueryPolygons implements spec §4.6.3 across every overlapping tile.
func (q *Query) QueryPolygons(center, halfExtents d3.Vec3, filter QueryFilter) []NodeRef {
	bmin, bmax := boxFromCenter(center, halfExtents)
	var out []NodeRef
	q.nav.forEachTileOverlapping(bmin, bmax, func(t *Tile) {
		out = append(out, q.QueryPolygonsInTile(t, bmin, bmax, filter)...)
	})
	return out
}

// GetClosestPointOnPoly implements spec §4.6.4.
func (q *Query) GetClosestPointOnPoly(ref NodeRef, p d3.Vec3) (d3.Vec3, bool, bool) {
	tile, poly, ok := q.nav.Poly(ref)
	if !ok {
		return d3.Vec3{}, false, false
	}
	pt, posOverPoly := closestPointOnPoly(tile, ref.PolyIndex(), poly, p)
	return pt, posOverPoly, true
}

// GetClosestPointOnPolyBoundary implements spec §4.6.4's boundary-only
// variant, used to clamp FindStraightPath's endpoints.
func (q *Query) GetClosestPointOnPolyBoundary(ref NodeRef, p d3.Vec3) (d3.Vec3, bool) {
	if ref.Tag == OffMeshNode {
		conn, ok := q.nav.OffMeshConnectionSpec(ref.OffMeshID())
		if !ok {
			return d3.Vec3{}, false
		}
		if ref.ConnSide() == ConnEnd {
			return conn.End, true
		}
		return conn.Start, true
	}
	tile, poly, ok := q.nav.Poly(ref)
	if !ok {
		return d3.Vec3{}, false
	}
	return closestPointOnPolyBoundary(tile, ref.PolyIndex(), poly, p), true
}

// GetPolyHeight implements spec §4.6.4.
func (q *Query) GetPolyHeight(ref NodeRef, p d3.Vec3) (float32, bool) {
	tile, poly, ok := q.nav.Poly(ref)
	if !ok {
		return 0, false
	}
	return getPolyHeight(tile, ref.PolyIndex(), poly, p), true
}

// GetPortalPoints implements spec §4.6.5: the two shared-edge endpoints
// (left, right) of link, clipped to its bmin/bmax sub-interval when
// partial.
func (q *Query) GetPortalPoints(link Link) (left, right d3.Vec3, ok bool) {
	if link.Ref.Tag == OffMeshNode {
		conn, found := q.nav.OffMeshConnectionSpec(link.Ref.OffMeshID())
		if !found {
			return d3.Vec3{}, d3.Vec3{}, false
		}
		pt := conn.Start
		if link.Ref.ConnSide() == ConnEnd {
			pt = conn.End
		}
		return pt, pt, true
	}
	if link.NeighbourRef.Tag == OffMeshNode {
		conn, found := q.nav.OffMeshConnectionSpec(link.NeighbourRef.OffMeshID())
		if !found {
			return d3.Vec3{}, d3.Vec3{}, false
		}
		pt := conn.Start
		if link.NeighbourRef.ConnSide() == ConnEnd {
			pt = conn.End
		}
		return pt, pt, true
	}

	tile, poly, found := q.nav.Poly(link.Ref)
	if !found {
		return d3.Vec3{}, d3.Vec3{}, false
	}
	nv := poly.VertCount()
	va := tile.Vertex(poly.Verts[link.Edge])
	vb := tile.Vertex(poly.Verts[(int(link.Edge)+1)%nv])

	if link.Side != SideNone && !(link.BMin == 0 && link.BMax == 255) {
		tmin := float32(link.BMin) / 255
		tmax := float32(link.BMax) / 255
		return va.Lerp(vb, tmin), va.Lerp(vb, tmax), true
	}
	return va, vb, true
}

// GetEdgeMidPoint implements spec §4.6.5.
func (q *Query) GetEdgeMidPoint(link Link) (d3.Vec3, bool) {
	l, r, ok := q.GetPortalPoints(link)
	if !ok {
		return d3.Vec3{}, false
	}
	return d3.Vec3{(l[0] + r[0]) / 2, (l[1] + r[1]) / 2, (l[2] + r[2]) / 2}, true
}

func (q *Query) linkBetween(from, to NodeRef) (Link, bool) {
	for _, l := range q.nav.Links(from) {
		if l.NeighbourRef == to {
			return l, true
		}
	}
	return Link{}, false
}

func pathToNode(n *SearchNode, pool *NodePool) []NodeRef {
	var rev []NodeRef
	cur := n
	for cur != nil {
		rev = append(rev, cur.Ref)
		parent, ok := pool.parentOf(cur)
		if !ok {
			break
		}
		cur = parent
	}
	out := make([]NodeRef, len(rev))
	for i, r := range rev {
		out[len(rev)-1-i] = r
	}
	return out
}

// crossSideOf returns the node-pool partitioning key for entering a node
// across link (spec §4.6.6): link.Side>>1 for cross-tile links, 0
// otherwise.
func crossSideOf(l Link) uint8 {
	if l.Side == SideNone {
		return 0
	}
	return uint8(l.Side) >> 1
}

// FindNodePath is the A* search of spec §4.6.6.
func (q *Query) FindNodePath(startRef, endRef NodeRef, startPos, endPos d3.Vec3, filter QueryFilter) ([]NodeRef, PathStatus) {
	if !q.nav.IsValidNodeRef(startRef) || !q.nav.IsValidNodeRef(endRef) {
		return nil, PathInvalid
	}
	if startRef == endRef {
		return []NodeRef{startRef}, PathComplete
	}

	const heuristicScale = 0.999

	pool := NewNodePool()
	heap := newNodeHeap()

	start := pool.Node(startRef, 0)
	start.Pos = startPos
	start.Cost = 0
	start.Total = startPos.Dist(endPos) * heuristicScale
	start.Flags = NodeOpen
	heap.push(start)

	lastBest := start
	lastBestCost := start.Total

	for !heap.empty() {
		best := heap.pop()
		best.Flags &^= NodeOpen
		best.Flags |= NodeClosed

		if best.Ref == endRef {
			lastBest = best
			break
		}

		parent, hasParent := pool.parentOf(best)
		parentRef := NodeRef{}
		if hasParent {
			parentRef = parent.Ref
		}

		for _, link := range q.nav.Links(best.Ref) {
			neighbourRef := link.NeighbourRef
			if neighbourRef.IsZero() {
				continue
			}
			if neighbourRef == parentRef {
				continue
			}
			if filter != nil && !filter.PassFilter(neighbourRef, q.nav) {
				continue
			}

			crossSide := crossSideOf(link)
			neighbour := pool.Node(neighbourRef, crossSide)
			firstVisit := neighbour.Flags == 0

			if firstVisit {
				if mid, ok := q.GetEdgeMidPoint(link); ok {
					neighbour.Pos = mid
				} else {
					neighbour.Pos = best.Pos
				}
			}

			var cost, heuristic float32
			if neighbourRef == endRef {
				stepCost := filter.Cost(best.Pos, neighbour.Pos, parentRef, best.Ref, neighbourRef, q.nav)
				endCost := filter.Cost(neighbour.Pos, endPos, best.Ref, neighbourRef, NodeRef{}, q.nav)
				cost = best.Cost + stepCost + endCost
				heuristic = 0
			} else {
				stepCost := filter.Cost(best.Pos, neighbour.Pos, parentRef, best.Ref, neighbourRef, q.nav)
				cost = best.Cost + stepCost
				heuristic = neighbour.Pos.Dist(endPos) * heuristicScale
			}
			total := cost + heuristic

			visited := neighbour.Flags&(NodeOpen|NodeClosed) != 0
			if visited && cost >= neighbour.Cost {
				continue
			}

			neighbour.Cost = cost
			neighbour.Total = total
			setParent(neighbour, best)
			neighbour.Flags &^= NodeClosed

			if total < lastBestCost {
				lastBestCost = total
				lastBest = neighbour
			}

			if neighbour.Flags&NodeOpen != 0 {
				heap.modify(neighbour)
			} else {
				neighbour.Flags |= NodeOpen
				heap.push(neighbour)
			}
		}
	}

	path := pathToNode(lastBest, pool)
	if lastBest.Ref == endRef {
		return path, PathComplete
	}
	return path, PathPartial
}

// --- straight path / funnel (spec §4.6.7) ---

type StraightPathFlag uint8

const (
	StraightPathStart StraightPathFlag = 1 << iota
	StraightPathEnd
	StraightPathOffMeshConnection
)

type StraightPathOptions uint8

const (
	StraightPathAreaCrossings StraightPathOptions = 1 << iota
	StraightPathAllCrossings
)

// StraightPathPoint is one vertex of a straight path.
type StraightPathPoint struct {
	Pos   d3.Vec3
	Flags StraightPathFlag
	Ref   NodeRef
}

func straightPathFlagsFor(ref NodeRef) StraightPathFlag {
	if ref.Tag == OffMeshNode {
		return StraightPathOffMeshConnection
	}
	return 0
}

// FindStraightPath implements the Simple Stupid Funnel Algorithm of
// spec §4.6.7.
func (q *Query) FindStraightPath(startPos, endPos d3.Vec3, path []NodeRef, options StraightPathOptions) ([]StraightPathPoint, PathStatus) {
	if len(path) == 0 {
		return nil, PathInvalid
	}

	startClamped, ok := q.GetClosestPointOnPolyBoundary(path[0], startPos)
	if !ok {
		return nil, PathInvalid
	}
	endClamped, ok := q.GetClosestPointOnPolyBoundary(path[len(path)-1], endPos)
	if !ok {
		return nil, PathInvalid
	}

	var out []StraightPathPoint
	appendVertex := func(pos d3.Vec3, flags StraightPathFlag, ref NodeRef) {
		if len(out) > 0 && out[len(out)-1].Pos.Approx(pos) {
			out[len(out)-1].Flags |= flags
			return
		}
		out = append(out, StraightPathPoint{Pos: pos, Flags: flags | straightPathFlagsFor(ref), Ref: ref})
	}

	appendVertex(startClamped, StraightPathStart, path[0])

	if len(path) == 1 {
		appendVertex(endClamped, StraightPathEnd, path[0])
		return out, PathComplete
	}

	// Portal i (1..len(path)-1) joins path[i-1] and path[i]; index
	// len(path) is the end point, which lies in the last polygon.
	pathRef := func(i int) NodeRef {
		if i >= len(path) {
			return path[len(path)-1]
		}
		return path[i]
	}
	portal := func(i int) (d3.Vec3, d3.Vec3, bool) {
		if i == len(path) {
			return endClamped, endClamped, true
		}
		l, ok := q.linkBetween(path[i-1], path[i])
		if !ok {
			return d3.Vec3{}, d3.Vec3{}, false
		}
		return q.GetPortalPoints(l)
	}

	apex := startClamped
	left, right := apex, apex
	leftIdx, rightIdx := 0, 0
	leftRef, rightRef := path[0], path[0]
	apexIdx := 0

	emitCrossings := func(fromIdx, toIdx int, a, b d3.Vec3) {
		if options == 0 {
			return
		}
		for k := fromIdx + 1; k < toIdx; k++ {
			pl, pr, ok := portal(k)
			if !ok {
				continue
			}
			if options&StraightPathAreaCrossings != 0 {
				_, prevPoly, ok1 := q.nav.Poly(path[k-1])
				_, curPoly, ok2 := q.nav.Poly(path[k])
				if ok1 && ok2 && prevPoly.Area == curPoly.Area {
					continue
				}
			}
			if s, _, hit := intersectSegSeg2D(a, b, pl, pr); hit {
				appendVertex(a.Lerp(b, s), 0, path[k])
			}
		}
	}

	i := 1
	for i <= len(path) {
		lft, rgt, ok := portal(i)
		if !ok {
			i++
			continue
		}

		if triArea2D(apex, right, rgt) <= 0 {
			if apex.Approx(right) || triArea2D(apex, left, rgt) > 0 {
				right = rgt
				rightIdx = i
				rightRef = pathRef(i)
			} else {
				emitCrossings(apexIdx, leftIdx, apex, left)
				appendVertex(left, 0, leftRef)
				apex, apexIdx = left, leftIdx
				left, right = apex, apex
				leftIdx, rightIdx = apexIdx, apexIdx
				leftRef, rightRef = pathRef(apexIdx), pathRef(apexIdx)
				i = apexIdx + 1
				continue
			}
		}

		if triArea2D(apex, left, lft) >= 0 {
			if apex.Approx(left) || triArea2D(apex, right, lft) < 0 {
				left = lft
				leftIdx = i
				leftRef = pathRef(i)
			} else {
				emitCrossings(apexIdx, rightIdx, apex, right)
				appendVertex(right, 0, rightRef)
				apex, apexIdx = right, rightIdx
				left, right = apex, apex
				leftIdx, rightIdx = apexIdx, apexIdx
				leftRef, rightRef = pathRef(apexIdx), pathRef(apexIdx)
				i = apexIdx + 1
				continue
			}
		}
		i++
	}

	emitCrossings(apexIdx, len(path), apex, endClamped)
	appendVertex(endClamped, StraightPathEnd, path[len(path)-1])
	return out, PathComplete
}

// --- moveAlongSurface (spec §4.6.8) ---

// MoveAlongSurface implements the BFS-constrained local motion of
// spec §4.6.8.
func (q *Query) MoveAlongSurface(startRef NodeRef, startPos, endPos d3.Vec3, filter QueryFilter) (d3.Vec3, []NodeRef, bool) {
	if !q.nav.IsValidNodeRef(startRef) {
		return d3.Vec3{}, nil, false
	}

	mid := d3.Vec3{
		(startPos[0] + endPos[0]) / 2,
		(startPos[1] + endPos[1]) / 2,
		(startPos[2] + endPos[2]) / 2,
	}
	radius := startPos.Dist2D(endPos)/2 + 0.001
	radiusSqr := radius * radius

	pool := NewNodePool()
	fifo := &nodeFIFO{}

	start := pool.Node(startRef, 0)
	start.Pos = startPos
	start.Flags = NodeClosed
	fifo.pushBack(start)

	bestNode := start
	bestPos := startPos
	bestDist := float32(math32.MaxFloat32)

	for !fifo.empty() {
		cur := fifo.popFront()
		tile, poly, ok := q.nav.Poly(cur.Ref)
		if !ok {
			continue
		}
		verts := tile.PolyVerts(poly)

		if pointInPoly(verts, endPos) {
			bestNode = cur
			bestPos = endPos
			break
		}

		nv := len(verts)
		links := q.nav.Links(cur.Ref)
		for j := 0; j < nv; j++ {
			va, vb := verts[j], verts[(j+1)%nv]

			var neighbourLink (*Link)
			for k := range links {
				if int(links[k].Edge) == j && links[k].NeighbourRef.Tag == GroundPoly {
					if filter == nil || filter.PassFilter(links[k].NeighbourRef, q.nav) {
						l := links[k]
						neighbourLink = &l
						break
					}
				}
			}

			if neighbourLink == nil {
				d := distancePtSeg2DSqr(endPos, va, vb)
				if d < bestDist {
					bestDist = d
					bestPos = closestPtSeg2D(endPos, va, vb)
					bestNode = cur
				}
				continue
			}

			if distancePtSeg2DSqr(mid, va, vb) > radiusSqr {
				continue
			}

			nref := neighbourLink.NeighbourRef
			if existing, seen := pool.Find(nref, 0); seen && existing.Flags&NodeClosed != 0 {
				continue
			}
			nnode := pool.Node(nref, 0)
			if nnode.Flags&NodeClosed != 0 {
				continue
			}
			nnode.Flags = NodeClosed
			nnode.Pos = va.Lerp(vb, 0.5)
			setParent(nnode, cur)
			fifo.pushBack(nnode)
		}
	}

	return bestPos, pathToNode(bestNode, pool), true
}

// --- raycast (spec §4.6.9) ---

// RaycastHit is the result of Query.Raycast.
type RaycastHit struct {
	// T is the hit parameter along start->end, or math32.MaxFloat32 if
	// the segment never exits the visited polygon corridor.
	T            float32
	HitNormal    d3.Vec3
	HitEdgeIndex int
	Path         []NodeRef
}

// edgeWorldURange returns the u coordinate (z for the N/S axis-plane, x
// for the E/W axis-plane) of link's owner edge endpoints va and vb, in
// the edge's own winding order: the parametrization edgeParamRange
// encodes BMin/BMax against.
func edgeWorldURange(tile *Tile, poly *Poly, link Link) (ua, ub float32) {
	nv := poly.VertCount()
	va := tile.Vertex(poly.Verts[link.Edge])
	vb := tile.Vertex(poly.Verts[(int(link.Edge)+1)%nv])
	if link.Side == SideN || link.Side == SideS {
		return va[2], vb[2]
	}
	return va[0], vb[0]
}

// Raycast implements the polygon-walk segment raycast of spec §4.6.9.
// Off-mesh connections are skipped as neighbours.
func (q *Query) Raycast(startRef NodeRef, startPos, endPos d3.Vec3, filter QueryFilter) (RaycastHit, bool) {
	cur := startRef
	var visited []NodeRef

	for {
		tile, poly, ok := q.nav.Poly(cur)
		if !ok {
			return RaycastHit{T: math32.MaxFloat32, Path: visited}, len(visited) > 0
		}
		visited = append(visited, cur)
		verts := tile.PolyVerts(poly)

		tmin, tmax, _, segMax, hit := intersectSegmentPoly2D(startPos, endPos, verts)
		_ = tmin
		if !hit {
			return RaycastHit{T: math32.MaxFloat32, Path: visited}, true
		}
		if segMax == -1 {
			return RaycastHit{T: math32.MaxFloat32, Path: visited}, true
		}

		var next Link
		found := false
		exitPos := startPos.Lerp(endPos, tmax)
		for _, link := range q.nav.Links(cur) {
			if int(link.Edge) != segMax {
				continue
			}
			if link.NeighbourRef.Tag == OffMeshNode {
				continue
			}
			if filter != nil && !filter.PassFilter(link.NeighbourRef, q.nav) {
				continue
			}
			if link.Side != SideNone && !(link.BMin == 0 && link.BMax == 255) {
				ua, ub := edgeWorldURange(tile, poly, link)
				var exitCoord float32
				if link.Side == SideN || link.Side == SideS {
					exitCoord = exitPos[2]
				} else {
					exitCoord = exitPos[0]
				}
				span := ub - ua
				if math32.Abs(span) > 1e-9 {
					t := (exitCoord - ua) / span
					if t < float32(link.BMin)/255 || t > float32(link.BMax)/255 {
						continue
					}
				}
			}
			next = link
			found = true
			break
		}

		if !found {
			va := verts[segMax]
			vb := verts[(segMax+1)%len(verts)]
			dx := vb[0] - va[0]
			dz := vb[2] - va[2]
			normal := d3.Vec3{dz, 0, -dx}
			normal.Normalize()
			return RaycastHit{T: tmax, HitNormal: normal, HitEdgeIndex: segMax, Path: visited}, true
		}
		cur = next.NeighbourRef
	}
}

// --- random point sampling (spec §4.6.10) ---

func polyArea(verts []d3.Vec3) float32 {
	var sum float32
	for i := 2; i < len(verts); i++ {
		a := triArea2D(verts[0], verts[i-1], verts[i])
		if a < 0 {
			a = -a
		}
		sum += a
	}
	return sum
}

func sortedTileIDs(m *NavMesh) []TileID {
	ids := make([]TileID, 0, len(m.tiles))
	for id := range m.tiles {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// FindRandomPoint implements spec §4.6.10: reservoir-sample a tile by
// uniform weight, a polygon in it by triangulated area, then a point in
// that polygon, projected onto the mesh surface. rnd must return
// uniform values in [0,1).
func (q *Query) FindRandomPoint(filter QueryFilter, rnd func() float32) (NodeRef, d3.Vec3, bool) {
	ids := sortedTileIDs(q.nav)
	if len(ids) == 0 {
		return NodeRef{}, d3.Vec3{}, false
	}

	var tile *Tile
	n := 0
	for _, id := range ids {
		t := q.nav.tiles[id]
		if len(t.Polys) == 0 {
			continue
		}
		n++
		if rnd() < 1.0/float32(n) {
			tile = t
		}
	}
	if tile == nil {
		return NodeRef{}, d3.Vec3{}, false
	}

	var areasum float32
	var chosenIdx uint32
	chosen := false
	for i := range tile.Polys {
		p := &tile.Polys[i]
		ref := GroundPolyRef(tile.ID, uint32(i))
		if filter != nil && !filter.PassFilter(ref, q.nav) {
			continue
		}
		area := polyArea(tile.PolyVerts(p))
		areasum += area
		if areasum <= 0 {
			continue
		}
		if rnd() < area/areasum {
			chosenIdx = uint32(i)
			chosen = true
		}
	}
	if !chosen {
		return NodeRef{}, d3.Vec3{}, false
	}

	poly := &tile.Polys[chosenIdx]
	verts := tile.PolyVerts(poly)
	pt := randomPointInConvexPoly(verts, rnd(), rnd())
	ref := GroundPolyRef(tile.ID, chosenIdx)
	closest, _ := closestPointOnPoly(tile, chosenIdx, poly, pt)
	return ref, closest, true
}

// FindRandomPointAroundCircle implements spec §4.6.10: a uniform-cost
// Dijkstra flood from startRef through polygons whose portal is within
// maxRadius of centerPos, reservoir-sampling by area across every
// reached ground polygon.
func (q *Query) FindRandomPointAroundCircle(startRef NodeRef, centerPos d3.Vec3, maxRadius float32, filter QueryFilter, rnd func() float32) (NodeRef, d3.Vec3, bool) {
	if !q.nav.IsValidNodeRef(startRef) {
		return NodeRef{}, d3.Vec3{}, false
	}
	radiusSqr := maxRadius * maxRadius

	pool := NewNodePool()
	heap := newNodeHeap()

	start := pool.Node(startRef, 0)
	start.Pos = centerPos
	start.Flags = NodeOpen
	heap.push(start)

	var areasum float32
	var chosenRef NodeRef
	var chosenTile *Tile
	var chosenPoly *Poly

	for !heap.empty() {
		best := heap.pop()
		best.Flags &^= NodeOpen
		best.Flags |= NodeClosed

		if best.Ref.Tag == GroundPoly {
			tile, poly, ok := q.nav.Poly(best.Ref)
			if ok {
				area := polyArea(tile.PolyVerts(poly))
				areasum += area
				if areasum > 0 && rnd() < area/areasum {
					chosenRef = best.Ref
					chosenTile = tile
					chosenPoly = poly
				}
			}
		}

		for _, link := range q.nav.Links(best.Ref) {
			nref := link.NeighbourRef
			if nref.IsZero() || nref.Tag != GroundPoly {
				continue
			}
			if filter != nil && !filter.PassFilter(nref, q.nav) {
				continue
			}

			left, right, ok := q.GetPortalPoints(link)
			if !ok {
				continue
			}
			closest := closestPtSeg2D(centerPos, left, right)
			if centerPos.Dist2DSqr(closest) > radiusSqr {
				continue
			}

			cost := best.Cost + best.Pos.Dist(closest)
			nnode := pool.Node(nref, 0)
			visited := nnode.Flags&(NodeOpen|NodeClosed) != 0
			if visited && cost >= nnode.Cost {
				continue
			}

			nnode.Cost = cost
			nnode.Total = cost
			nnode.Pos = closest
			setParent(nnode, best)
			nnode.Flags &^= NodeClosed

			if nnode.Flags&NodeOpen != 0 {
				heap.modify(nnode)
			} else {
				nnode.Flags |= NodeOpen
				heap.push(nnode)
			}
		}
	}

	if chosenPoly == nil {
		return NodeRef{}, d3.Vec3{}, false
	}
	verts := chosenTile.PolyVerts(chosenPoly)
	pt := randomPointInConvexPoly(verts, rnd(), rnd())
	idx := chosenRef.PolyIndex()
	closest, _ := closestPointOnPoly(chosenTile, idx, chosenPoly, pt)
	return chosenRef, closest, true
}
