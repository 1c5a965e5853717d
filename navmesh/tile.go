package navmesh

import (
	"github.com/arl/gogeo/f32/d3"
)

// VertsPerPolygon bounds the number of vertices a single polygon may
// have; it matches the teacher's fixed-size Poly.Verts convention.
const VertsPerPolygon = 6

// extLink is the high bit of a Poly.Neis entry marking a cross-tile
// portal edge; the low 4 bits then hold the portal direction 0..7.
const extLink uint16 = 0x8000

// Poly is one convex walkable polygon inside a Tile.
type Poly struct {
	// Verts holds indices into the owning Tile's Vertices array, in
	// winding order.
	Verts []uint16
	// Neis holds, per edge j: 0 (border), 1..N (internal neighbour
	// polygon index + 1), or extLink|dir for a cross-tile portal edge.
	Neis []uint16
	// Flags is a bitmask consumed by QueryFilter.
	Flags uint16
	// Area is a user-defined polygon classification consumed by
	// QueryFilter cost functions (e.g. area-cost weighting).
	Area uint8
}

// VertCount returns the number of vertices (and edges) of p.
func (p *Poly) VertCount() int { return len(p.Verts) }

// PolyDetail describes a polygon's sub-triangulation used solely for
// accurate height sampling; it does not affect graph connectivity.
type PolyDetail struct {
	VertBase uint32
	TriBase  uint32
	VertCount uint8
	TriCount  uint8
}

// BVNode is one entry of a Tile's flat, depth-first BV-tree. A leaf
// (I >= 0) names a polygon index; an internal node (I < 0) holds the
// negative number of array entries to skip to bypass its subtree.
type BVNode struct {
	BMin, BMax [3]uint16
	I          int32
}

// Tile is a rectangular XZ cell holding a local convex-polygon mesh. It
// is immutable between NavMesh.AddTile and NavMesh.RemoveTile (spec
// §4.3).
type Tile struct {
	// ID is assigned by NavMesh.AddTile; zero until inserted.
	ID TileID

	TileX, TileY, TileLayer int32

	BoundsMin, BoundsMax d3.Vec3

	// Vertices holds packed XYZ coordinates in world space, 3 float32
	// per vertex.
	Vertices []float32

	Polys []Poly

	// DetailMeshes, DetailVertices and DetailTriangles are optional; len
	// zero means "no detail mesh".
	DetailMeshes   []PolyDetail
	DetailVertices []float32
	DetailTriangles []uint8

	// BVTree is optional; len zero means "no BV-tree", and broadphase
	// queries fall back to a linear scan (spec §4.3).
	BVTree        []BVNode
	BVQuantFactor float32

	CellSize, CellHeight float32

	WalkableHeight, WalkableRadius, WalkableClimb float32
}

// Vertex returns vertex i of the tile as a Vec3.
func (t *Tile) Vertex(i uint16) d3.Vec3 {
	o := int(i) * 3
	return d3.Vec3{t.Vertices[o], t.Vertices[o+1], t.Vertices[o+2]}
}

// PolyVerts returns the world-space vertices of polygon p, in winding
// order.
func (t *Tile) PolyVerts(p *Poly) []d3.Vec3 {
	out := make([]d3.Vec3, len(p.Verts))
	for i, vi := range p.Verts {
		out[i] = t.Vertex(vi)
	}
	return out
}

// PolyBounds returns the on-the-fly AABB of polygon p, used by the
// linear-scan broadphase fallback when the tile has no BV-tree.
func (t *Tile) PolyBounds(p *Poly) (bmin, bmax d3.Vec3) {
	bmin = t.Vertex(p.Verts[0])
	bmax = d3.NewVec3From(bmin)
	for _, vi := range p.Verts[1:] {
		v := t.Vertex(vi)
		d3.Vec3Min(bmin, v)
		d3.Vec3Max(bmax, v)
	}
	return bmin, bmax
}

// quantizeBounds converts a world-space query box into the tile's local
// quantised integer coordinates, snapping min down to even and max up to
// odd, matching the generator convention that guarantees unit-extent
// leaves are included (spec §4.3 step 1).
func (t *Tile) quantizeBounds(bmin, bmax d3.Vec3) (qmin, qmax [3]uint16) {
	qf := t.BVQuantFactor
	for i := 0; i < 3; i++ {
		lo := int32((bmin[i] - t.BoundsMin[i]) * qf)
		hi := int32((bmax[i] - t.BoundsMin[i]) * qf)
		if lo < 0 {
			lo = 0
		}
		if hi < 0 {
			hi = 0
		}
		qmin[i] = uint16(lo) &^ 1
		qmax[i] = uint16(hi) | 1
	}
	return qmin, qmax
}

func overlapQuantBounds(amin, amax, bmin, bmax [3]uint16) bool {
	for i := 0; i < 3; i++ {
		if amin[i] > bmax[i] || amax[i] < bmin[i] {
			return false
		}
	}
	return true
}

func overlapBounds(amin, amax, bmin, bmax d3.Vec3) bool {
	for i := 0; i < 3; i++ {
		if amin[i] > bmax[i] || amax[i] < bmin[i] {
			return false
		}
	}
	return true
}

// queryPolygonsInTile returns the indices of every polygon in t whose
// bounds overlap the world-space box [bmin,bmax] (spec §4.3/§4.6.3).
func (t *Tile) queryPolygonsInTile(bmin, bmax d3.Vec3) []uint32 {
	if len(t.BVTree) == 0 {
		var out []uint32
		for i := range t.Polys {
			pbmin, pbmax := t.PolyBounds(&t.Polys[i])
			if overlapBounds(bmin, bmax, pbmin, pbmax) {
				out = append(out, uint32(i))
			}
		}
		return out
	}

	qmin, qmax := t.quantizeBounds(bmin, bmax)

	var out []uint32
	i := 0
	for i < len(t.BVTree) {
		node := &t.BVTree[i]
		overlap := overlapQuantBounds(qmin, qmax, node.BMin, node.BMax)
		isLeaf := node.I >= 0
		if isLeaf && overlap {
			out = append(out, uint32(node.I))
		}
		if overlap || isLeaf {
			i++
		} else {
			escape := int(-node.I)
			i += escape
		}
	}
	return out
}
