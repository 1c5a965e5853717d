package navmesh

// NodeTag discriminates the two kinds of graph node a NodeRef can name.
type NodeTag uint8

const (
	// GroundPoly names a polygon inside a Tile.
	GroundPoly NodeTag = iota
	// OffMeshNode names one side (start or end) of an OffMeshConnection.
	OffMeshNode
)

func (t NodeTag) String() string {
	if t == OffMeshNode {
		return "offmesh"
	}
	return "ground"
}

// ConnSide identifies which end of an off-mesh connection a NodeRef names.
type ConnSide uint8

const (
	ConnStart ConnSide = iota
	ConnEnd
)

// TileID is a stable, never-reused identifier for an inserted Tile.
type TileID uint32

// OffMeshID is a stable, never-reused identifier for an OffMeshConnection.
type OffMeshID uint32

// NodeRef is a typed, comparable reference naming either a ground polygon
// or one side of an off-mesh connection. It replaces the bit-packed
// 32-bit PolyRef of the C++ original with a proper Go sum-type-ish struct
// that is directly usable as a map key and needs no encode/decode step.
type NodeRef struct {
	Tag NodeTag
	A   uint32 // TileID for GroundPoly, OffMeshID for OffMeshNode
	B   uint32 // polygon index for GroundPoly, ConnSide for OffMeshNode
}

// GroundPolyRef builds a NodeRef naming polygon index idx within tile id.
func GroundPolyRef(id TileID, idx uint32) NodeRef {
	return NodeRef{Tag: GroundPoly, A: uint32(id), B: idx}
}

// OffMeshRef builds a NodeRef naming one side of an off-mesh connection.
func OffMeshRef(id OffMeshID, side ConnSide) NodeRef {
	return NodeRef{Tag: OffMeshNode, A: uint32(id), B: uint32(side)}
}

// IsZero reports whether r is the zero NodeRef, used as the "no reference"
// sentinel: tile ids and off-mesh ids are both allocated starting at 1, so
// the zero value never names a real node.
func (r NodeRef) IsZero() bool { return r == NodeRef{} }

// TileID returns the tile id encoded in a GroundPoly ref.
func (r NodeRef) TileID() TileID { return TileID(r.A) }

// PolyIndex returns the polygon index encoded in a GroundPoly ref.
func (r NodeRef) PolyIndex() uint32 { return r.B }

// OffMeshID returns the off-mesh id encoded in an OffMeshNode ref.
func (r NodeRef) OffMeshID() OffMeshID { return OffMeshID(r.A) }

// ConnSide returns the connection side encoded in an OffMeshNode ref.
func (r NodeRef) ConnSide() ConnSide { return ConnSide(r.B) }

func (r NodeRef) String() string {
	if r.IsZero() {
		return "<nil-ref>"
	}
	if r.Tag == GroundPoly {
		return "ground(" + itoa(uint32(r.TileID())) + "," + itoa(r.PolyIndex()) + ")"
	}
	side := "start"
	if r.ConnSide() == ConnEnd {
		side = "end"
	}
	return "offmesh(" + itoa(uint32(r.OffMeshID())) + "," + side + ")"
}

func itoa(v uint32) string {
	if v == 0 {
		return "0"
	}
	var buf [10]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}

// Side identifies one of the 8 compass directions a tile-boundary portal
// edge faces, or SideNone for an edge that is not on a tile boundary.
//
// The compass names below are documentation labels only. The axis-test
// rule that actually drives portal matching (spec: "for sides 0 or 4 the
// portal plane is x = const") follows the teacher implementation's
// geometric convention, where side 0 corresponds to the +X neighbour
// cell rather than literal north; see SPEC_FULL.md section D.4.
type Side uint8

const (
	SideN Side = iota
	SideNE
	SideE
	SideSE
	SideS
	SideSW
	SideW
	SideNW
	// SideNone marks an internal link or an off-mesh link: not a
	// tile-boundary portal.
	SideNone Side = 0xFF
)

// Opposite returns the reciprocal side used when matching portals across
// a tile boundary: (s+4) mod 8.
func (s Side) Opposite() Side {
	if s == SideNone {
		return SideNone
	}
	return Side((uint8(s) + 4) & 0x7)
}

// IsCardinal reports whether s is one of the 4 axis-aligned directions
// (N, E, S, W) that the portal slab test operates on. Diagonal sides are
// enumerated for neighbour-cell iteration but never stitched (spec §9
// Open Question, resolved in SPEC_FULL.md section D.1).
func (s Side) IsCardinal() bool {
	return s == SideN || s == SideE || s == SideS || s == SideW
}
