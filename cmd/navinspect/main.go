// Command navinspect loads a navigation mesh fixture and runs queries
// against it from the command line.
package main

import "github.com/arl/navmesh/cmd/navinspect/cmd"

func main() {
	cmd.Execute()
}
