package navmesh

import (
	"io/ioutil"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const twoTileFixtureYAML = `
origin: [0, 0, 0]
tileWidth: 1
tileHeight: 1
tiles:
  - x: 0
    y: 0
    layer: 0
    boundsMin: [0, 0, 0]
    boundsMax: [1, 0, 1]
    vertices: [0,0,0, 1,0,0, 1,0,1, 0,0,1]
    walkableHeight: 2
    walkableRadius: 0.5
    walkableClimb: 0.3
    cellSize: 0.5
    cellHeight: 0.2
    buildBVTree: true
    polys:
      - verts: [0, 1, 2, 3]
        neis: [0, 32768, 0, 0]
        flags: 1
        area: 0
  - x: 1
    y: 0
    layer: 0
    boundsMin: [1, 0, 0]
    boundsMax: [2, 0, 1]
    vertices: [1,0,0, 2,0,0, 2,0,1, 1,0,1]
    walkableHeight: 2
    walkableRadius: 0.5
    walkableClimb: 0.3
    cellSize: 0.5
    cellHeight: 0.2
    polys:
      - verts: [0, 1, 2, 3]
        neis: [0, 0, 0, 32772]
        flags: 1
        area: 0
offMeshConnections: []
`

func writeTempFixture(t *testing.T, contents string) string {
	t.Helper()
	f, err := ioutil.TempFile("", "fixture-*.yaml")
	require.NoError(t, err)
	_, err = f.WriteString(contents)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	t.Cleanup(func() { os.Remove(f.Name()) })
	return f.Name()
}

func TestLoadFixtureBuildsStitchedTiles(t *testing.T) {
	path := writeTempFixture(t, twoTileFixtureYAML)

	nav, fixture, err := LoadFixture(path)
	require.NoError(t, err)
	require.Len(t, fixture.Tiles, 2)

	aID := TileID(1)
	bID := TileID(2)
	aRef := GroundPolyRef(aID, 0)
	bRef := GroundPolyRef(bID, 0)

	links := nav.Links(aRef)
	require.Len(t, links, 1)
	assert.Equal(t, bRef, links[0].NeighbourRef)

	tile, ok := nav.TileByID(aID)
	require.True(t, ok)
	assert.NotEmpty(t, tile.BVTree, "buildBVTree: true must populate the BV-tree")

	other, ok := nav.TileByID(bID)
	require.True(t, ok)
	assert.Empty(t, other.BVTree, "buildBVTree defaults to false")
}

func TestLoadFixtureMissingFile(t *testing.T) {
	_, _, err := LoadFixture("/nonexistent/path/fixture.yaml")
	assert.Error(t, err)
}

func TestLoadFixtureWithOffMeshConnection(t *testing.T) {
	const yamlDoc = `
origin: [0, 0, 0]
tileWidth: 1
tileHeight: 1
tiles:
  - x: 0
    y: 0
    layer: 0
    boundsMin: [0, 0, 0]
    boundsMax: [1, 0, 1]
    vertices: [0,0,0, 1,0,0, 1,0,1, 0,0,1]
    walkableHeight: 2
    walkableRadius: 0.5
    walkableClimb: 0.3
    cellSize: 0.5
    cellHeight: 0.2
    polys:
      - verts: [0, 1, 2, 3]
        neis: [0, 0, 0, 0]
        flags: 1
        area: 0
  - x: 0
    y: 5
    layer: 0
    boundsMin: [0, 0, 5]
    boundsMax: [1, 0, 6]
    vertices: [0,0,5, 1,0,5, 1,0,6, 0,0,6]
    walkableHeight: 2
    walkableRadius: 0.5
    walkableClimb: 0.3
    cellSize: 0.5
    cellHeight: 0.2
    polys:
      - verts: [0, 1, 2, 3]
        neis: [0, 0, 0, 0]
        flags: 1
        area: 0
offMeshConnections:
  - start: [0.5, 0, 0.5]
    end: [0.5, 0, 5.5]
    radius: 1
    bidirectional: true
    flags: 1
`
	path := writeTempFixture(t, yamlDoc)
	nav, _, err := LoadFixture(path)
	require.NoError(t, err)
	assert.True(t, nav.IsOffMeshConnectionConnected(OffMeshID(1)))
}
