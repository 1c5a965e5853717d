package navmesh

import "github.com/arl/gogeo/f32/d3"

// quadTile builds a single-polygon, axis-aligned square tile at tile
// coordinates (tx,ty), covering [originX,originX+size] x [originZ,originZ+size]
// at y=0. portals[i] marks polygon edge i as a cross-tile portal, using
// the edge/side mapping: edge0 (z=originZ) -> SideW, edge1 (x=originX+size)
// -> SideN, edge2 (z=originZ+size) -> SideE, edge3 (x=originX) -> SideS —
// matching sideOffset's (dx,dy) table in navmesh.go.
func quadTile(tx, ty int32, originX, originZ, size float32, portals [4]bool, climb float32) *Tile {
	verts := []float32{
		originX, 0, originZ,
		originX + size, 0, originZ,
		originX + size, 0, originZ + size,
		originX, 0, originZ + size,
	}
	dirs := [4]Side{SideW, SideN, SideE, SideS}
	neis := make([]uint16, 4)
	for i, has := range portals {
		if has {
			neis[i] = extLink | uint16(dirs[i])
		}
	}
	return &Tile{
		TileX: tx, TileY: ty,
		BoundsMin: d3.Vec3{originX, 0, originZ},
		BoundsMax: d3.Vec3{originX + size, 0, originZ + size},
		Vertices:  verts,
		Polys: []Poly{{
			Verts: []uint16{0, 1, 2, 3},
			Neis:  neis,
			Flags: 1,
			Area:  0,
		}},
		WalkableHeight: 2,
		WalkableRadius: 0.5,
		WalkableClimb:  climb,
		CellSize:       0.5,
		CellHeight:     0.2,
	}
}

// corridorTile is quadTile with both its west (SideS) and east (SideN)
// edges marked as portals, for building straight multi-tile corridors.
func corridorTile(tx int32, originX, size float32, climb float32) *Tile {
	return quadTile(tx, 0, originX, 0, size, [4]bool{false, true, false, true}, climb)
}
