package cmd

import (
	"fmt"

	"github.com/arl/gogeo/f32/d3"
	"github.com/arl/navmesh/navmesh"
	"github.com/spf13/cobra"
)

var fromFlag, toFlag, extentsFlag string

// queryCmd loads a fixture and runs FindNearestPoly on both endpoints,
// FindNodePath, and FindStraightPath between them.
var queryCmd = &cobra.Command{
	Use:   "query FIXTURE --from=x,y,z --to=x,y,z",
	Short: "find a path between two points in a navmesh fixture",
	Args:  cobra.ExactArgs(1),
	Run:   doQuery,
}

func init() {
	RootCmd.AddCommand(queryCmd)

	queryCmd.Flags().StringVar(&fromFlag, "from", "0,0,0", "start point, x,y,z")
	queryCmd.Flags().StringVar(&toFlag, "to", "0,0,0", "end point, x,y,z")
	queryCmd.Flags().StringVar(&extentsFlag, "extents", "1,1,1", "nearest-poly search half-extents, x,y,z")
}

func mustVec3(s string) d3.Vec3 {
	x, y, z, err := parseVec3(s)
	check(err)
	return d3.Vec3{x, y, z}
}

func doQuery(cmd *cobra.Command, args []string) {
	nav, _, err := navmesh.LoadFixture(args[0])
	check(err)

	from := mustVec3(fromFlag)
	to := mustVec3(toFlag)
	extents := mustVec3(extentsFlag)

	q := navmesh.NewQuery(nav)
	filter := navmesh.NewDefaultQueryFilter()

	startRef, startPos, ok := q.FindNearestPoly(from, extents, filter)
	if !ok {
		fmt.Println("no start polygon found within extents")
		return
	}
	fmt.Printf("start: %s at (%.3f, %.3f, %.3f)\n", startRef, startPos[0], startPos[1], startPos[2])

	endRef, endPos, ok := q.FindNearestPoly(to, extents, filter)
	if !ok {
		fmt.Println("no end polygon found within extents")
		return
	}
	fmt.Printf("end: %s at (%.3f, %.3f, %.3f)\n", endRef, endPos[0], endPos[1], endPos[2])

	path, status := q.FindNodePath(startRef, endRef, startPos, endPos, filter)
	fmt.Printf("path status: %v, nodes: %d\n", status, len(path))
	for _, ref := range path {
		fmt.Printf("  %s\n", ref)
	}
	if status == navmesh.PathInvalid {
		return
	}

	straight, _ := q.FindStraightPath(startPos, endPos, path, 0)
	fmt.Printf("straight path: %d points\n", len(straight))
	for _, p := range straight {
		fmt.Printf("  (%.3f, %.3f, %.3f) flags=%v\n", p.Pos[0], p.Pos[1], p.Pos[2], p.Flags)
	}
}
