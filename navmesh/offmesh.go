package navmesh

import "github.com/arl/gogeo/f32/d3"

// OffMeshConnection is a logical teleport/jump link between two ground
// polygons, represented in the graph by one or two virtual nodes
// (spec §3, §4.4.4).
type OffMeshConnection struct {
	Start, End    d3.Vec3
	Radius        float32
	Bidirectional bool
	Flags         uint16
	Area          uint8
	// Cost, when non-nil, overrides the default filter's Euclidean cost
	// for the step onto this connection.
	Cost *float32
}

// offMeshState records which ground polygons an off-mesh connection's
// endpoints currently snap to. Its absence from NavMesh.offMeshState
// means "not connected" (spec §3).
type offMeshState struct {
	StartRef, EndRef NodeRef
}

// AddOffMeshConnection registers spec and attempts to link it against
// the current tile set (spec §6).
func (m *NavMesh) AddOffMeshConnection(spec OffMeshConnection) OffMeshID {
	m.nextOffMeshID++
	id := m.nextOffMeshID
	c := spec
	m.offMesh[id] = &c
	m.linkOffMeshConnection(id)
	return id
}

// RemoveOffMeshConnection unlinks and forgets connection id.
func (m *NavMesh) RemoveOffMeshConnection(id OffMeshID) {
	m.unlinkOffMeshConnection(id)
	delete(m.offMesh, id)
}

// ReconnectOffMeshConnection re-links connection id against its current
// spec and the current tile set — for when a caller has mutated the
// spec's endpoints in place. Reports whether the connection ends up
// connected (spec §6).
func (m *NavMesh) ReconnectOffMeshConnection(id OffMeshID) bool {
	if _, ok := m.offMesh[id]; !ok {
		return false
	}
	m.unlinkOffMeshConnection(id)
	m.linkOffMeshConnection(id)
	_, connected := m.offMeshState[id]
	return connected
}

// IsOffMeshConnectionConnected reports whether id's endpoints currently
// snap to existing ground polygons.
func (m *NavMesh) IsOffMeshConnectionConnected(id OffMeshID) bool {
	_, ok := m.offMeshState[id]
	return ok
}

// linkOffMeshConnection snaps id's endpoints via findNearestPoly with
// half-extents (radius,radius,radius) and the default filter; if either
// endpoint fails to snap, the connection remains unconnected and no
// links are created (spec §4.4.4).
func (m *NavMesh) linkOffMeshConnection(id OffMeshID) {
	conn := m.offMesh[id]
	extents := d3.Vec3{conn.Radius, conn.Radius, conn.Radius}
	filter := NewDefaultQueryFilter()

	startRef, _, ok1 := m.findNearestPoly(conn.Start, extents, filter)
	if !ok1 {
		return
	}
	endRef, _, ok2 := m.findNearestPoly(conn.End, extents, filter)
	if !ok2 {
		return
	}

	startNode := OffMeshRef(id, ConnStart)
	m.addLink(startRef, Link{Ref: startRef, NeighbourRef: startNode, Side: SideNone, BMin: 0, BMax: 255})
	m.addLink(startNode, Link{Ref: startNode, NeighbourRef: endRef, Side: SideNone, BMin: 0, BMax: 255})

	if conn.Bidirectional {
		endNode := OffMeshRef(id, ConnEnd)
		m.addLink(endRef, Link{Ref: endRef, NeighbourRef: endNode, Side: SideNone, BMin: 0, BMax: 255})
		m.addLink(endNode, Link{Ref: endNode, NeighbourRef: startRef, Side: SideNone, BMin: 0, BMax: 255})
	}

	m.offMeshState[id] = offMeshState{StartRef: startRef, EndRef: endRef}
}

func (m *NavMesh) unlinkOffMeshConnection(id OffMeshID) {
	conn, hasSpec := m.offMesh[id]
	st, ok := m.offMeshState[id]
	if !ok {
		return
	}

	startNode := OffMeshRef(id, ConnStart)
	m.removeAllLinksFrom(startNode)
	m.removeLinksTo(st.StartRef, startNode)

	if hasSpec && conn.Bidirectional {
		endNode := OffMeshRef(id, ConnEnd)
		m.removeAllLinksFrom(endNode)
		m.removeLinksTo(st.EndRef, endNode)
	}

	delete(m.offMeshState, id)
}

// revalidateOffMeshConnections runs after every AddTile/RemoveTile: any
// connection whose recorded endpoint tiles no longer exist is
// disconnected and reconnected; connections whose endpoints still exist
// are left untouched (spec §4.4.4).
func (m *NavMesh) revalidateOffMeshConnections() {
	for id := range m.offMesh {
		st, connected := m.offMeshState[id]
		if connected {
			_, startTileOK := m.tiles[st.StartRef.TileID()]
			_, endTileOK := m.tiles[st.EndRef.TileID()]
			if startTileOK && endTileOK {
				continue
			}
			m.unlinkOffMeshConnection(id)
		}
		m.linkOffMeshConnection(id)
	}
}
