package navmesh

import (
	"testing"

	"github.com/arl/gogeo/f32/d3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Scenario 5: tiles A (z=0) and B (z=100) with no shared edge; an OMC
// between their centers should make findNodePath return
// [A_poly, OMC(start), B_poly].
func TestOffMeshConnectionBridgesDisjointTiles(t *testing.T) {
	m := newTestMesh()
	a := quadTile(0, 0, 0, 0, 1, [4]bool{}, 0.3)
	aID := m.AddTile(a)
	b := quadTile(0, 100, 0, 100, 1, [4]bool{}, 0.3)
	bID := m.AddTile(b)

	aPoly := GroundPolyRef(aID, 0)
	bPoly := GroundPolyRef(bID, 0)

	zero := float32(0)
	connID := m.AddOffMeshConnection(OffMeshConnection{
		Start:         d3.Vec3{0.5, 0, 0.5},
		End:           d3.Vec3{0.5, 0, 100.5},
		Radius:        1,
		Bidirectional: true,
		Flags:         1,
		Cost:          &zero,
	})
	require.True(t, m.IsOffMeshConnectionConnected(connID))

	q := NewQuery(m)
	filter := NewDefaultQueryFilter()
	path, status := q.FindNodePath(aPoly, bPoly, d3.Vec3{0.5, 0, 0.5}, d3.Vec3{0.5, 0, 100.5}, filter)
	require.Equal(t, PathComplete, status)
	require.Len(t, path, 3)
	assert.Equal(t, aPoly, path[0])
	assert.Equal(t, OffMeshNode, path[1].Tag)
	assert.Equal(t, ConnStart, path[1].ConnSide())
	assert.Equal(t, bPoly, path[2])
}

// OMC revalidation: remove tile A, the connection must disconnect; add A
// back, it must reconnect.
func TestOffMeshConnectionRevalidation(t *testing.T) {
	m := newTestMesh()
	a := quadTile(0, 0, 0, 0, 1, [4]bool{}, 0.3)
	m.AddTile(a)
	b := quadTile(0, 100, 0, 100, 1, [4]bool{}, 0.3)
	m.AddTile(b)

	connID := m.AddOffMeshConnection(OffMeshConnection{
		Start:  d3.Vec3{0.5, 0, 0.5},
		End:    d3.Vec3{0.5, 0, 100.5},
		Radius: 1,
	})
	require.True(t, m.IsOffMeshConnectionConnected(connID))

	m.RemoveTile(0, 0, 0)
	assert.False(t, m.IsOffMeshConnectionConnected(connID))

	a2 := quadTile(0, 0, 0, 0, 1, [4]bool{}, 0.3)
	m.AddTile(a2)
	assert.True(t, m.IsOffMeshConnectionConnected(connID))
}

func TestRemoveOffMeshConnection(t *testing.T) {
	m := newTestMesh()
	a := quadTile(0, 0, 0, 0, 1, [4]bool{}, 0.3)
	aID := m.AddTile(a)

	connID := m.AddOffMeshConnection(OffMeshConnection{
		Start:  d3.Vec3{0.5, 0, 0.5},
		End:    d3.Vec3{0.5, 0, 0.5},
		Radius: 1,
	})
	require.True(t, m.IsOffMeshConnectionConnected(connID))

	m.RemoveOffMeshConnection(connID)
	assert.False(t, m.IsOffMeshConnectionConnected(connID))
	assert.Equal(t, 0, m.LinkCount(GroundPolyRef(aID, 0)), "the link onto the OMC start node must be freed")
}
