package cmd

import (
	"fmt"
	"os"

	"github.com/arl/navmesh/navmesh"
	"github.com/spf13/cobra"
)

// loadCmd represents the load command.
var loadCmd = &cobra.Command{
	Use:   "load FIXTURE",
	Short: "load a navmesh fixture and report its tile/poly/off-mesh counts",
	Long: `Read a YAML fixture, build it into a NavMesh and print a summary:
	- tile count and total polygon count,
	- off-mesh connection count and how many are currently connected.`,
	Args: cobra.ExactArgs(1),
	Run:  doLoad,
}

func init() {
	RootCmd.AddCommand(loadCmd)
}

func doLoad(cmd *cobra.Command, args []string) {
	path := args[0]
	if _, err := os.Stat(path); err != nil {
		check(fmt.Errorf("no such file '%v'", path))
	}

	nav, fixture, err := navmesh.LoadFixture(path)
	check(err)

	polyCount := 0
	linkCount := 0
	for i, t := range fixture.Tiles {
		polyCount += len(t.Polys)
		// tile ids are assigned sequentially from 1 as the fixture's
		// tiles are added in file order.
		tileID := navmesh.TileID(i + 1)
		for pi := range t.Polys {
			linkCount += nav.LinkCount(navmesh.GroundPolyRef(tileID, uint32(pi)))
		}
	}

	connected := 0
	for id := range fixture.OffMeshConnections {
		// off-mesh ids are assigned sequentially from 1 as the fixture's
		// connections are added in file order.
		if nav.IsOffMeshConnectionConnected(navmesh.OffMeshID(id + 1)) {
			connected++
		}
	}

	fmt.Printf("tiles: %d\n", len(fixture.Tiles))
	fmt.Printf("polys: %d\n", polyCount)
	fmt.Printf("links: %d\n", linkCount)
	fmt.Printf("off-mesh connections: %d (%d connected)\n", len(fixture.OffMeshConnections), connected)
}
