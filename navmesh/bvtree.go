package navmesh

import (
	"sort"

	"github.com/arl/gogeo/f32/d3"
)

// bvItem is a scratch entry used while building a Tile's BV-tree:
// polygon index i plus its quantized AABB.
type bvItem struct {
	bmin, bmax [3]uint16
	i          int32
}

type bvItemsByAxis struct {
	items []bvItem
	axis  int
}

func (s bvItemsByAxis) Len() int      { return len(s.items) }
func (s bvItemsByAxis) Swap(i, j int) { s.items[i], s.items[j] = s.items[j], s.items[i] }
func (s bvItemsByAxis) Less(i, j int) bool {
	return s.items[i].bmin[s.axis] < s.items[j].bmin[s.axis]
}

func bvCalcExtends(items []bvItem, imin, imax int) (bmin, bmax [3]uint16) {
	bmin = items[imin].bmin
	bmax = items[imin].bmax
	for i := imin + 1; i < imax; i++ {
		it := &items[i]
		for a := 0; a < 3; a++ {
			if it.bmin[a] < bmin[a] {
				bmin[a] = it.bmin[a]
			}
			if it.bmax[a] > bmax[a] {
				bmax[a] = it.bmax[a]
			}
		}
	}
	return
}

func bvLongestAxis(x, y, z uint16) int {
	axis := 0
	maxVal := x
	if y > maxVal {
		axis = 1
		maxVal = y
	}
	if z > maxVal {
		axis = 2
	}
	return axis
}

// bvSubdivide recursively splits items[imin:imax] at the median of its
// longest axis, appending one BVNode per call to nodes: the tree is built
// top-down, each node written before its children (depth-first layout),
// and an internal node stores the negative size of its subtree as its
// escape index, matching the teacher's createBVTree/subdivide in
// navmeshcreate.go.
func bvSubdivide(items []bvItem, imin, imax int, nodes *[]BVNode) {
	icur := len(*nodes)
	*nodes = append(*nodes, BVNode{})

	inum := imax - imin
	if inum == 1 {
		(*nodes)[icur] = BVNode{BMin: items[imin].bmin, BMax: items[imin].bmax, I: items[imin].i}
		return
	}

	bmin, bmax := bvCalcExtends(items, imin, imax)
	axis := bvLongestAxis(bmax[0]-bmin[0], bmax[1]-bmin[1], bmax[2]-bmin[2])
	sort.Sort(bvItemsByAxis{items[imin:imax], axis})

	isplit := imin + inum/2
	bvSubdivide(items, imin, isplit, nodes)
	bvSubdivide(items, isplit, imax, nodes)

	(*nodes)[icur] = BVNode{BMin: bmin, BMax: bmax, I: -int32(len(*nodes) - icur)}
}

// BuildBVTree constructs t.BVTree and t.BVQuantFactor from t.Polys (and
// t.DetailMeshes, when present, for tighter bounds) using t.CellSize as
// the quantization unit, exactly as the teacher's CreateNavMeshData does
// before handing a tile to NavMesh.AddTile (spec §4.3; supplemented
// feature, SPEC_FULL.md C.2 — the spec's distillation dropped mesh
// generation, but tile construction still needs a BV-tree builder to
// produce tiles worth querying).
func BuildBVTree(t *Tile) {
	if len(t.Polys) == 0 {
		t.BVTree = nil
		return
	}

	quantFactor := float32(1.0)
	if t.CellSize > 0 {
		quantFactor = 1.0 / t.CellSize
	}
	t.BVQuantFactor = quantFactor

	items := make([]bvItem, len(t.Polys))
	for i := range t.Polys {
		it := &items[i]
		it.i = int32(i)

		if int(i) < len(t.DetailMeshes) {
			dm := t.DetailMeshes[i]
			var bmin, bmax d3.Vec3
			base := int(dm.VertBase) * 3
			bmin = d3.Vec3{t.DetailVertices[base], t.DetailVertices[base+1], t.DetailVertices[base+2]}
			bmax = d3.NewVec3From(bmin)
			for j := 1; j < int(dm.VertCount); j++ {
				o := (int(dm.VertBase) + j) * 3
				v := d3.Vec3{t.DetailVertices[o], t.DetailVertices[o+1], t.DetailVertices[o+2]}
				d3.Vec3Min(bmin, v)
				d3.Vec3Max(bmax, v)
			}
			for a := 0; a < 3; a++ {
				lo := int32((bmin[a] - t.BoundsMin[a]) * quantFactor)
				hi := int32((bmax[a] - t.BoundsMin[a]) * quantFactor)
				if lo < 0 {
					lo = 0
				}
				if hi < 0 {
					hi = 0
				}
				it.bmin[a] = uint16(lo)
				it.bmax[a] = uint16(hi)
			}
			continue
		}

		bmin, bmax := t.PolyBounds(&t.Polys[i])
		for a := 0; a < 3; a++ {
			lo := int32((bmin[a] - t.BoundsMin[a]) * quantFactor)
			hi := int32((bmax[a] - t.BoundsMin[a]) * quantFactor)
			if lo < 0 {
				lo = 0
			}
			if hi < 0 {
				hi = 0
			}
			it.bmin[a] = uint16(lo)
			it.bmax[a] = uint16(hi)
		}
	}

	var nodes []BVNode
	bvSubdivide(items, 0, len(items), &nodes)
	t.BVTree = nodes
}
