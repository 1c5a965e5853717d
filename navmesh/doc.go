// Package navmesh implements a tiled navigation-mesh runtime: a spatial
// graph of convex walkable polygons partitioned into rectangular tiles,
// plus the query algorithms that operate on it (nearest-polygon lookup,
// A* pathfinding, straight-path string pulling, surface-constrained
// motion, raycasting, and random-point sampling).
//
// Tile generation (voxelization, region partitioning, contour extraction)
// lives outside this package; navmesh consumes fully-formed Tile values.
package navmesh
