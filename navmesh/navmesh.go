package navmesh

import (
	assert "github.com/arl/assertgo"
	"github.com/arl/gogeo/f32/d3"
	"github.com/arl/math32"
)

// Link is a directed edge of the navigation graph. Link records are
// pooled and never moved; NodeRef -> []linkIndex adjacency sequences
// hold indices, never pointers into the slice (spec Design Notes §9).
type Link struct {
	Ref          NodeRef
	NeighbourRef NodeRef
	Edge         uint8
	Side         Side
	BMin, BMax   uint8
}

type tileCell struct{ X, Y, Layer int32 }
type xyCell struct{ X, Y int32 }

// NavMesh is the tile registry, link graph and off-mesh connection
// registry described by spec §3. It carries no internal synchronisation:
// per spec §5, the caller serialises mutators against queries and
// against each other (a RW-lock is the natural fit).
type NavMesh struct {
	// Origin, TileWidth and TileHeight must be set once before the
	// first AddTile; all tile-coordinate arithmetic uses them only.
	Origin               d3.Vec3
	TileWidth, TileHeight float32

	tiles   map[TileID]*Tile
	tilePos map[tileCell]TileID
	tileXY  map[xyCell][]TileID

	nodes    map[NodeRef][]uint32
	links    []Link
	linkFree []uint32

	offMesh      map[OffMeshID]*OffMeshConnection
	offMeshState map[OffMeshID]offMeshState

	nextTileID    TileID
	nextOffMeshID OffMeshID
}

// New creates an empty NavMesh (spec §6 "create").
func New() *NavMesh {
	return &NavMesh{
		tiles:        map[TileID]*Tile{},
		tilePos:      map[tileCell]TileID{},
		tileXY:       map[xyCell][]TileID{},
		nodes:        map[NodeRef][]uint32{},
		offMesh:      map[OffMeshID]*OffMeshConnection{},
		offMeshState: map[OffMeshID]offMeshState{},
	}
}

// TileAt returns the tile registered at (x,y,layer), if any.
func (m *NavMesh) TileAt(x, y, layer int32) (*Tile, bool) {
	id, ok := m.tilePos[tileCell{x, y, layer}]
	if !ok {
		return nil, false
	}
	return m.tiles[id], true
}

// TileByID returns the tile with the given id, if it still exists.
func (m *NavMesh) TileByID(id TileID) (*Tile, bool) {
	t, ok := m.tiles[id]
	return t, ok
}

// Poly resolves a GroundPoly NodeRef to its Tile and Poly, if both still
// exist.
func (m *NavMesh) Poly(ref NodeRef) (*Tile, *Poly, bool) {
	if ref.Tag != GroundPoly {
		return nil, nil, false
	}
	t, ok := m.tiles[ref.TileID()]
	if !ok {
		return nil, nil, false
	}
	idx := ref.PolyIndex()
	if idx >= uint32(len(t.Polys)) {
		return nil, nil, false
	}
	return t, &t.Polys[idx], true
}

// OffMeshConnectionSpec returns the connection spec for id, if it exists.
func (m *NavMesh) OffMeshConnectionSpec(id OffMeshID) (*OffMeshConnection, bool) {
	c, ok := m.offMesh[id]
	return c, ok
}

// IsValidNodeRef reports whether ref names a node that currently exists
// (spec §4.6.11): a ground poly whose tile exists and whose index is in
// range, or an off-mesh connection whose spec exists.
func (m *NavMesh) IsValidNodeRef(ref NodeRef) bool {
	if ref.IsZero() {
		return false
	}
	if ref.Tag == GroundPoly {
		_, _, ok := m.Poly(ref)
		return ok
	}
	_, ok := m.offMesh[ref.OffMeshID()]
	return ok
}

// NodeAreaAndFlags returns the area and flags of the polygon or off-mesh
// connection ref names (spec §4.6.11).
func (m *NavMesh) NodeAreaAndFlags(ref NodeRef) (area uint8, flags uint16, ok bool) {
	if ref.Tag == GroundPoly {
		_, p, found := m.Poly(ref)
		if !found {
			return 0, 0, false
		}
		return p.Area, p.Flags, true
	}
	c, found := m.offMesh[ref.OffMeshID()]
	if !found {
		return 0, 0, false
	}
	return c.Area, c.Flags, true
}

// --- link pool (spec §4.4.1) ---

func (m *NavMesh) allocLink(l Link) uint32 {
	if n := len(m.linkFree); n > 0 {
		idx := m.linkFree[n-1]
		m.linkFree = m.linkFree[:n-1]
		m.links[idx] = l
		return idx
	}
	m.links = append(m.links, l)
	return uint32(len(m.links) - 1)
}

func (m *NavMesh) freeLink(idx uint32) {
	m.linkFree = append(m.linkFree, idx)
}

func (m *NavMesh) addLink(owner NodeRef, l Link) uint32 {
	idx := m.allocLink(l)
	m.nodes[owner] = append(m.nodes[owner], idx)
	return idx
}

func (m *NavMesh) removeAllLinksFrom(owner NodeRef) {
	for _, li := range m.nodes[owner] {
		m.freeLink(li)
	}
	delete(m.nodes, owner)
}

func (m *NavMesh) removeLinksTo(owner, target NodeRef) {
	idxs := m.nodes[owner]
	kept := idxs[:0]
	for _, li := range idxs {
		if m.links[li].NeighbourRef == target {
			m.freeLink(li)
		} else {
			kept = append(kept, li)
		}
	}
	if len(kept) == 0 {
		delete(m.nodes, owner)
	} else {
		m.nodes[owner] = kept
	}
}

// Links returns the live links of ref in the order they were created. A
// polygon's internal links come first, in edge order; external and
// off-mesh links follow in the order the stitching and off-mesh linking
// that made them ran, so they are neither grouped by kind nor sorted by
// edge or portal direction.
func (m *NavMesh) Links(ref NodeRef) []Link {
	idxs := m.nodes[ref]
	out := make([]Link, len(idxs))
	for i, li := range idxs {
		out[i] = m.links[li]
	}
	return out
}

// LinkCount reports how many live links ref currently owns; used by
// tests asserting link-pool reuse invariants.
func (m *NavMesh) LinkCount(ref NodeRef) int { return len(m.nodes[ref]) }

// LinkPoolLen is the current backing-array length of the link pool
// (spec §8 "link pool reuse": bounded by the historical peak).
func (m *NavMesh) LinkPoolLen() int { return len(m.links) }

// --- tile lifecycle (spec §4.4.5) ---

func sideOffset(s Side) (dx, dy int32) {
	switch s {
	case SideN:
		return 1, 0
	case SideNE:
		return 1, 1
	case SideE:
		return 0, 1
	case SideSE:
		return -1, 1
	case SideS:
		return -1, 0
	case SideSW:
		return -1, -1
	case SideW:
		return 0, -1
	case SideNW:
		return 1, -1
	}
	return 0, 0
}

// AddTile inserts tile, assigns its id, builds internal links, stitches
// it against same-cell layers and the 8 neighbour cells, and revalidates
// off-mesh connections (spec §4.4.5).
func (m *NavMesh) AddTile(tile *Tile) TileID {
	m.nextTileID++
	id := m.nextTileID
	tile.ID = id

	cell := tileCell{tile.TileX, tile.TileY, tile.TileLayer}
	_, occupied := m.tilePos[cell]
	assert.True(!occupied, "AddTile: cell %+v already occupied", cell)

	m.tiles[id] = tile
	m.tilePos[cell] = id
	xy := xyCell{tile.TileX, tile.TileY}
	m.tileXY[xy] = append(m.tileXY[xy], id)

	m.connectIntLinks(tile)

	for _, otherID := range m.tileXY[xy] {
		if otherID == id {
			continue
		}
		other := m.tiles[otherID]
		m.connectExtLinks(tile, other, SideNone)
		m.connectExtLinks(other, tile, SideNone)
	}

	for s := Side(0); s < 8; s++ {
		dx, dy := sideOffset(s)
		nxy := xyCell{tile.TileX + dx, tile.TileY + dy}
		for _, otherID := range m.tileXY[nxy] {
			other := m.tiles[otherID]
			m.connectExtLinks(tile, other, s)
			m.connectExtLinks(other, tile, s.Opposite())
		}
	}

	m.revalidateOffMeshConnections()
	return id
}

func (m *NavMesh) unconnectExtLinks(owner, other *Tile) {
	for pi := range owner.Polys {
		ref := GroundPolyRef(owner.ID, uint32(pi))
		m.removeLinksToTile(ref, other.ID)
	}
}

func (m *NavMesh) removeLinksToTile(owner NodeRef, otherTile TileID) {
	idxs := m.nodes[owner]
	kept := idxs[:0]
	for _, li := range idxs {
		l := m.links[li]
		if l.NeighbourRef.Tag == GroundPoly && l.NeighbourRef.TileID() == otherTile {
			m.freeLink(li)
		} else {
			kept = append(kept, li)
		}
	}
	if len(kept) == 0 {
		delete(m.nodes, owner)
	} else {
		m.nodes[owner] = kept
	}
}

// RemoveTile reverses AddTile's stitching, releases every link owned by
// tile's polygons, unregisters the tile, and revalidates off-mesh
// connections (spec §4.4.5).
func (m *NavMesh) RemoveTile(x, y, layer int32) bool {
	cell := tileCell{x, y, layer}
	id, ok := m.tilePos[cell]
	if !ok {
		return false
	}
	tile := m.tiles[id]
	xy := xyCell{x, y}

	for s := Side(0); s < 8; s++ {
		dx, dy := sideOffset(s)
		nxy := xyCell{x + dx, y + dy}
		for _, otherID := range m.tileXY[nxy] {
			other := m.tiles[otherID]
			m.unconnectExtLinks(tile, other)
			m.unconnectExtLinks(other, tile)
		}
	}
	for _, otherID := range m.tileXY[xy] {
		if otherID == id {
			continue
		}
		other := m.tiles[otherID]
		m.unconnectExtLinks(tile, other)
		m.unconnectExtLinks(other, tile)
	}

	for pi := range tile.Polys {
		m.removeAllLinksFrom(GroundPolyRef(id, uint32(pi)))
	}

	delete(m.tiles, id)
	delete(m.tilePos, cell)
	m.tileXY[xy] = removeTileID(m.tileXY[xy], id)

	m.revalidateOffMeshConnections()
	return true
}

func removeTileID(s []TileID, id TileID) []TileID {
	for i, v := range s {
		if v == id {
			return append(s[:i], s[i+1:]...)
		}
	}
	return s
}

// connectIntLinks creates, for every polygon p and every edge j whose
// Neis[j] names a non-zero, non-external neighbour, exactly one link
// from p to that neighbour (spec §4.4.2). The reciprocal direction is
// created when the neighbour's own edge is processed, since a
// well-formed tile encodes the adjacency symmetrically.
func (m *NavMesh) connectIntLinks(tile *Tile) {
	for pi := range tile.Polys {
		poly := &tile.Polys[pi]
		ref := GroundPolyRef(tile.ID, uint32(pi))
		for j, nei := range poly.Neis {
			if nei == 0 || nei&extLink != 0 {
				continue
			}
			nref := GroundPolyRef(tile.ID, uint32(nei-1))
			m.addLink(ref, Link{Ref: ref, NeighbourRef: nref, Edge: uint8(j), Side: SideNone, BMin: 0, BMax: 255})
		}
	}
}

// calcSlabEndPoints returns the (u,y) endpoints of edge va->vb, ordered
// by increasing u, where u is z for the N/S axis-plane and x for the
// E/W axis-plane (spec §4.4.3).
func calcSlabEndPoints(va, vb d3.Vec3, side Side) (lo, hi [2]float32) {
	if side == SideN || side == SideS {
		if va[2] < vb[2] {
			return [2]float32{va[2], va[1]}, [2]float32{vb[2], vb[1]}
		}
		return [2]float32{vb[2], vb[1]}, [2]float32{va[2], va[1]}
	}
	if va[0] < vb[0] {
		return [2]float32{va[0], va[1]}, [2]float32{vb[0], vb[1]}
	}
	return [2]float32{vb[0], vb[1]}, [2]float32{va[0], va[1]}
}

// slabCoord returns the portal axis-plane coordinate of va for side:
// x for the N/S axis-plane, z for the E/W axis-plane.
func slabCoord(va d3.Vec3, side Side) float32 {
	if side == SideN || side == SideS {
		return va[0]
	}
	return va[2]
}

// overlapSlabs implements the (u,y) slab overlap test of spec §4.4.3:
// the u-interval must overlap with padding px, and the linear y(u)
// interpolants must either cross within the overlap or come within
// 2*climb at one of its endpoints. The padding only applies to the test:
// the returned [lo,hi] is the unpadded u-overlap of the two edges.
func overlapSlabs(amin, amax, bmin, bmax [2]float32, px, climb float32) (lo, hi float32, ok bool) {
	minx := math32.Max(amin[0]+px, bmin[0]+px)
	maxx := math32.Min(amax[0]-px, bmax[0]-px)
	if minx > maxx {
		return 0, 0, false
	}
	lo = math32.Max(amin[0], bmin[0])
	hi = math32.Min(amax[0], bmax[0])

	ad := (amax[1] - amin[1]) / (amax[0] - amin[0])
	ay := amin[1] + ad*(minx-amin[0])
	bd := (bmax[1] - bmin[1]) / (bmax[0] - bmin[0])
	by := bmin[1] + bd*(minx-bmin[0])

	dx := maxx - minx
	ay2 := ay + ad*dx
	by2 := by + bd*dx

	dy1 := by - ay
	dy2 := by2 - ay2

	// The two edges' y-profiles cross somewhere inside the overlap: they
	// connect regardless of how far apart their endpoints are.
	if dy1*dy2 < 0 {
		return lo, hi, true
	}

	dmin := math32.Sqr(dy1)
	dmax := math32.Sqr(dy2)
	thr := math32.Sqr(climb * 2)

	if dmin > thr && dmax > thr {
		return 0, 0, false
	}
	return lo, hi, true
}

// edgeParamRange maps the world-space overlap [lo,hi] back to a [0,1]
// fraction along the owner edge va->vb itself (in its own winding
// direction, not the ascending order calcSlabEndPoints sorts to), then
// to the 0..255 sub-interval byte encoding, matching the teacher's
// direct va/vb parametrization in connectExtLinks. Whole-edge overlaps
// take the documented (0,255) fast path.
func edgeParamRange(va, vb d3.Vec3, lo, hi float32, side Side) (bmin, bmax uint8) {
	axis := 0
	if side == SideN || side == SideS {
		axis = 2
	}
	span := vb[axis] - va[axis]
	if math32.Abs(span) <= 1e-9 {
		return 0, 255
	}
	tlo := (lo - va[axis]) / span
	thi := (hi - va[axis]) / span
	if tlo > thi {
		tlo, thi = thi, tlo
	}
	if tlo <= 0.001 && thi >= 0.999 {
		return 0, 255
	}
	if tlo < 0 {
		tlo = 0
	}
	if thi > 1 {
		thi = 1
	}
	return uint8(tlo * 255), uint8(thi * 255)
}

// connectExtLinks stitches owner's cross-tile portal edges against
// target's opposing portal edges. side selects a single portal
// direction, or SideNone to try every cardinal direction (used when
// owner and target share the same (x,y) cell on different layers, spec
// §4.4.5 step 4).
func (m *NavMesh) connectExtLinks(owner, target *Tile, side Side) {
	for pi := range owner.Polys {
		poly := &owner.Polys[pi]
		nv := poly.VertCount()
		for j := 0; j < nv; j++ {
			nei := poly.Neis[j]
			if nei&extLink == 0 {
				continue
			}
			dir := Side(nei &^ extLink)
			if !dir.IsCardinal() {
				continue
			}
			if side != SideNone && dir != side {
				continue
			}

			va := owner.Vertex(poly.Verts[j])
			vb := owner.Vertex(poly.Verts[(j+1)%nv])
			amin, amax := calcSlabEndPoints(va, vb, dir)
			apos := slabCoord(va, dir)
			oppDir := dir.Opposite()

			for qi := range target.Polys {
				q := &target.Polys[qi]
				nv2 := q.VertCount()
				for k := 0; k < nv2; k++ {
					qnei := q.Neis[k]
					if qnei&extLink == 0 {
						continue
					}
					qdir := Side(qnei &^ extLink)
					if qdir != oppDir {
						continue
					}

					vc := target.Vertex(q.Verts[k])
					vd := target.Vertex(q.Verts[(k+1)%nv2])
					bpos := slabCoord(vc, qdir)
					if math32.Abs(apos-bpos) > 0.01 {
						continue
					}

					bmin, bmax := calcSlabEndPoints(vc, vd, qdir)
					climb := math32.Min(owner.WalkableClimb, target.WalkableClimb)
					lo, hi, ok := overlapSlabs(amin, amax, bmin, bmax, 0.01, climb)
					if !ok {
						continue
					}

					bMinByte, bMaxByte := edgeParamRange(va, vb, lo, hi, dir)

					ref := GroundPolyRef(owner.ID, uint32(pi))
					nref := GroundPolyRef(target.ID, uint32(qi))
					m.addLink(ref, Link{Ref: ref, NeighbourRef: nref, Edge: uint8(j), Side: dir, BMin: bMinByte, BMax: bMaxByte})
				}
			}
		}
	}
}
