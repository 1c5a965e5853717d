package navmesh

import (
	"io/ioutil"

	"github.com/arl/gogeo/f32/d3"
	yaml "gopkg.in/yaml.v2"
)

// Fixture is the YAML-serializable description of a NavMesh, used by
// tests and by cmd/navinspect to load hand-written scenarios without a
// mesh generator (SPEC_FULL.md A.3, C.4).
type Fixture struct {
	Origin             [3]float32                `yaml:"origin"`
	TileWidth          float32                    `yaml:"tileWidth"`
	TileHeight         float32                    `yaml:"tileHeight"`
	Tiles              []FixtureTile              `yaml:"tiles"`
	OffMeshConnections []FixtureOffMeshConnection `yaml:"offMeshConnections"`
}

// FixtureTile is one Tile in a Fixture.
type FixtureTile struct {
	X              int32         `yaml:"x"`
	Y              int32         `yaml:"y"`
	Layer          int32         `yaml:"layer"`
	BoundsMin      [3]float32    `yaml:"boundsMin"`
	BoundsMax      [3]float32    `yaml:"boundsMax"`
	Vertices       []float32     `yaml:"vertices"`
	Polys          []FixturePoly `yaml:"polys"`
	WalkableHeight float32       `yaml:"walkableHeight"`
	WalkableRadius float32       `yaml:"walkableRadius"`
	WalkableClimb  float32       `yaml:"walkableClimb"`
	CellSize       float32       `yaml:"cellSize"`
	CellHeight     float32       `yaml:"cellHeight"`
	BuildBVTree    bool          `yaml:"buildBVTree"`
}

// FixturePoly is one Poly in a FixtureTile.
type FixturePoly struct {
	Verts []uint16 `yaml:"verts"`
	Neis  []uint16 `yaml:"neis"`
	Flags uint16   `yaml:"flags"`
	Area  uint8    `yaml:"area"`
}

// FixtureOffMeshConnection is one OffMeshConnection in a Fixture.
type FixtureOffMeshConnection struct {
	Start         [3]float32 `yaml:"start"`
	End           [3]float32 `yaml:"end"`
	Radius        float32    `yaml:"radius"`
	Bidirectional bool       `yaml:"bidirectional"`
	Flags         uint16     `yaml:"flags"`
	Area          uint8      `yaml:"area"`
	Cost          *float32   `yaml:"cost,omitempty"`
}

func vec3(a [3]float32) d3.Vec3 { return d3.Vec3{a[0], a[1], a[2]} }

// Build materializes a Fixture into a fresh NavMesh, inserting tiles in
// file order and off-mesh connections afterward.
func (f *Fixture) Build() *NavMesh {
	m := New()
	m.Origin = vec3(f.Origin)
	m.TileWidth = f.TileWidth
	m.TileHeight = f.TileHeight

	for _, ft := range f.Tiles {
		tile := &Tile{
			TileX:          ft.X,
			TileY:          ft.Y,
			TileLayer:      ft.Layer,
			BoundsMin:      vec3(ft.BoundsMin),
			BoundsMax:      vec3(ft.BoundsMax),
			Vertices:       ft.Vertices,
			WalkableHeight: ft.WalkableHeight,
			WalkableRadius: ft.WalkableRadius,
			WalkableClimb:  ft.WalkableClimb,
			CellSize:       ft.CellSize,
			CellHeight:     ft.CellHeight,
		}
		for _, fp := range ft.Polys {
			tile.Polys = append(tile.Polys, Poly{Verts: fp.Verts, Neis: fp.Neis, Flags: fp.Flags, Area: fp.Area})
		}
		if ft.BuildBVTree {
			BuildBVTree(tile)
		}
		m.AddTile(tile)
	}

	for _, fc := range f.OffMeshConnections {
		m.AddOffMeshConnection(OffMeshConnection{
			Start:         vec3(fc.Start),
			End:           vec3(fc.End),
			Radius:        fc.Radius,
			Bidirectional: fc.Bidirectional,
			Flags:         fc.Flags,
			Area:          fc.Area,
			Cost:          fc.Cost,
		})
	}
	return m
}

// LoadFixture reads and builds the fixture at path.
func LoadFixture(path string) (*NavMesh, *Fixture, error) {
	buf, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	var f Fixture
	if err := yaml.Unmarshal(buf, &f); err != nil {
		return nil, nil, err
	}
	return f.Build(), &f, nil
}
