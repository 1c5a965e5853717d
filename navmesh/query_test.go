package navmesh

import (
	"testing"

	"github.com/arl/gogeo/f32/d3"
	"github.com/arl/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Scenario 1: flat 10x10 square tile, one polygon.
func TestFindNearestPolyFlatTile(t *testing.T) {
	m := newTestMesh()
	m.TileWidth = 10
	m.TileHeight = 10
	tile := quadTile(0, 0, 0, 0, 10, [4]bool{}, 0)
	m.AddTile(tile)

	q := NewQuery(m)
	filter := NewDefaultQueryFilter()
	ref, pos, ok := q.FindNearestPoly(d3.Vec3{5, 10, 5}, d3.Vec3{1, 20, 1}, filter)
	require.True(t, ok)
	assert.False(t, ref.IsZero())
	assert.InDelta(t, 5, pos[0], 1e-4)
	assert.InDelta(t, 0, pos[1], 1e-4)
	assert.InDelta(t, 5, pos[2], 1e-4)

	distSqr := d3.Vec3{5, 10, 5}.DistSqr(pos)
	assert.InDelta(t, 100, distSqr, 1e-2)
}

// Scenario 3: raycast hitting a wall.
func TestRaycastHitsWall(t *testing.T) {
	m := newTestMesh()
	tile := quadTile(0, 0, 0, 0, 10, [4]bool{}, 0.3)
	tileID := m.AddTile(tile)

	q := NewQuery(m)
	filter := NewDefaultQueryFilter()
	ref := GroundPolyRef(tileID, 0)

	hit, ok := q.Raycast(ref, d3.Vec3{5, 0, 5}, d3.Vec3{20, 0, 5}, filter)
	require.True(t, ok)
	assert.Less(t, hit.T, float32(1))
	assert.Equal(t, 1, hit.HitEdgeIndex, "crosses the x=10 edge (edge1)")
	assert.InDelta(t, 1, hit.HitNormal[0], 1e-3)
	assert.InDelta(t, 0, hit.HitNormal[2], 1e-3)
}

func TestRaycastFullyInside(t *testing.T) {
	m := newTestMesh()
	tile := quadTile(0, 0, 0, 0, 10, [4]bool{}, 0.3)
	tileID := m.AddTile(tile)

	q := NewQuery(m)
	filter := NewDefaultQueryFilter()
	ref := GroundPolyRef(tileID, 0)

	hit, ok := q.Raycast(ref, d3.Vec3{2, 0, 2}, d3.Vec3{8, 0, 8}, filter)
	require.True(t, ok)
	assert.Equal(t, math32.MaxFloat32, hit.T, "no exit: t is +inf-ish (math32.MaxFloat32)")
}

// Scenario 4: three collinear 1x1 tiles forming a straight corridor.
func TestFindStraightPathCorridor(t *testing.T) {
	m := newTestMesh()
	t0 := corridorTile(0, 0, 1, 0.3)
	t1 := corridorTile(1, 1, 1, 0.3)
	t2 := corridorTile(2, 2, 1, 0.3)
	id0 := m.AddTile(t0)
	id1 := m.AddTile(t1)
	id2 := m.AddTile(t2)

	q := NewQuery(m)
	filter := NewDefaultQueryFilter()

	start := d3.Vec3{0.5, 0, 0.5}
	end := d3.Vec3{2.5, 0, 0.5}

	startRef := GroundPolyRef(id0, 0)
	endRef := GroundPolyRef(id2, 0)
	path, status := q.FindNodePath(startRef, endRef, start, end, filter)
	require.Equal(t, PathComplete, status)
	require.Equal(t, []NodeRef{startRef, GroundPolyRef(id1, 0), endRef}, path)

	straight, status := q.FindStraightPath(start, end, path, 0)
	require.Equal(t, PathComplete, status)
	require.Len(t, straight, 2)
	assert.InDelta(t, start[0], straight[0].Pos[0], 1e-4)
	assert.InDelta(t, start[2], straight[0].Pos[2], 1e-4)
	assert.InDelta(t, end[0], straight[1].Pos[0], 1e-4)
	assert.InDelta(t, end[2], straight[1].Pos[2], 1e-4)
	assert.Equal(t, StraightPathStart, straight[0].Flags)
	assert.Equal(t, StraightPathEnd, straight[1].Flags)
}

// findNodePath(start, start, ...) = {COMPLETE, [start]}.
func TestFindNodePathTrivial(t *testing.T) {
	m := newTestMesh()
	tile := quadTile(0, 0, 0, 0, 10, [4]bool{}, 0.3)
	tileID := m.AddTile(tile)
	ref := GroundPolyRef(tileID, 0)

	q := NewQuery(m)
	filter := NewDefaultQueryFilter()
	path, status := q.FindNodePath(ref, ref, d3.Vec3{1, 0, 1}, d3.Vec3{1, 0, 1}, filter)
	assert.Equal(t, PathComplete, status)
	assert.Equal(t, []NodeRef{ref}, path)
}

func TestFindNodePathInvalidRef(t *testing.T) {
	m := newTestMesh()
	tile := quadTile(0, 0, 0, 0, 10, [4]bool{}, 0.3)
	m.AddTile(tile)
	q := NewQuery(m)
	filter := NewDefaultQueryFilter()

	_, status := q.FindNodePath(NodeRef{}, NodeRef{}, d3.Vec3{}, d3.Vec3{}, filter)
	assert.Equal(t, PathInvalid, status)
}

// findStraightPath on a single-polygon path returns exactly the two
// clamped endpoints.
func TestFindStraightPathSinglePolygon(t *testing.T) {
	m := newTestMesh()
	tile := quadTile(0, 0, 0, 0, 10, [4]bool{}, 0.3)
	tileID := m.AddTile(tile)
	ref := GroundPolyRef(tileID, 0)

	q := NewQuery(m)
	straight, status := q.FindStraightPath(d3.Vec3{1, 0, 1}, d3.Vec3{8, 0, 8}, []NodeRef{ref}, 0)
	require.Equal(t, PathComplete, status)
	require.Len(t, straight, 2)
}

// Admissibility: on a straight two-tile corridor, the path findNodePath
// returns, walked through its portal midpoints to the end point, is no
// longer than the straight-line distance from start to end.
func TestFindNodePathAdmissibility(t *testing.T) {
	m := newTestMesh()
	t0 := corridorTile(0, 0, 1, 0.3)
	t1 := corridorTile(1, 1, 1, 0.3)
	id0 := m.AddTile(t0)
	id1 := m.AddTile(t1)

	start := d3.Vec3{0.1, 0, 0.5}
	end := d3.Vec3{1.9, 0, 0.5}
	startRef := GroundPolyRef(id0, 0)
	endRef := GroundPolyRef(id1, 0)

	q := NewQuery(m)
	filter := NewDefaultQueryFilter()
	path, status := q.FindNodePath(startRef, endRef, start, end, filter)
	require.Equal(t, PathComplete, status)

	var astarCost float32
	pos := start
	for i := 1; i < len(path); i++ {
		l, ok := q.linkBetween(path[i-1], path[i])
		require.True(t, ok)
		mid, ok := q.GetEdgeMidPoint(l)
		if !ok || path[i] == endRef {
			mid = end
		}
		astarCost += pos.Dist(mid)
		pos = mid
	}

	straightCost := start.Dist(end)
	assert.LessOrEqual(t, astarCost, straightCost+1e-3)
}

func TestMoveAlongSurfaceStaysInMesh(t *testing.T) {
	m := newTestMesh()
	tile := quadTile(0, 0, 0, 0, 10, [4]bool{}, 0.3)
	tileID := m.AddTile(tile)
	ref := GroundPolyRef(tileID, 0)

	q := NewQuery(m)
	filter := NewDefaultQueryFilter()
	pos, visited, ok := q.MoveAlongSurface(ref, d3.Vec3{5, 0, 5}, d3.Vec3{8, 0, 8}, filter)
	require.True(t, ok)
	require.NotEmpty(t, visited)
	assert.InDelta(t, 8, pos[0], 1e-3)
	assert.InDelta(t, 8, pos[2], 1e-3)
}

func TestMoveAlongSurfaceClampsAtWall(t *testing.T) {
	m := newTestMesh()
	tile := quadTile(0, 0, 0, 0, 10, [4]bool{}, 0.3)
	tileID := m.AddTile(tile)
	ref := GroundPolyRef(tileID, 0)

	q := NewQuery(m)
	filter := NewDefaultQueryFilter()
	pos, _, ok := q.MoveAlongSurface(ref, d3.Vec3{5, 0, 5}, d3.Vec3{20, 0, 5}, filter)
	require.True(t, ok)
	assert.LessOrEqual(t, pos[0], float32(10.001))
}

// Scenario 6: findRandomPoint determinism under a fixed rand() source.
func TestFindRandomPointDeterminism(t *testing.T) {
	m := newTestMesh()
	tile := quadTile(0, 0, 0, 0, 10, [4]bool{}, 0.3)
	m.AddTile(tile)

	q := NewQuery(m)
	filter := NewDefaultQueryFilter()

	constRand := func(v float32) func() float32 { return func() float32 { return v } }

	ref1, pos1, ok1 := q.FindRandomPoint(filter, constRand(0.5))
	ref2, pos2, ok2 := q.FindRandomPoint(filter, constRand(0.5))
	require.True(t, ok1)
	require.True(t, ok2)
	assert.Equal(t, ref1, ref2)
	assert.Equal(t, pos1, pos2)

	_, posLo, okLo := q.FindRandomPoint(filter, constRand(0))
	_, posHi, okHi := q.FindRandomPoint(filter, constRand(0.999999))
	require.True(t, okLo)
	require.True(t, okHi)
	assert.NotEqual(t, posLo, posHi)
}

func TestFindRandomPointAroundCircle(t *testing.T) {
	m := newTestMesh()
	t0 := corridorTile(0, 0, 1, 0.3)
	t1 := corridorTile(1, 1, 1, 0.3)
	id0 := m.AddTile(t0)
	m.AddTile(t1)

	q := NewQuery(m)
	filter := NewDefaultQueryFilter()
	startRef := GroundPolyRef(id0, 0)

	constRand := func(v float32) func() float32 { return func() float32 { return v } }
	ref, _, ok := q.FindRandomPointAroundCircle(startRef, d3.Vec3{0.5, 0, 0.5}, 0.6, filter, constRand(0.3))
	require.True(t, ok)
	assert.False(t, ref.IsZero())
}
