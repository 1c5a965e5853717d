package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// RootCmd represents the base command when called without any subcommands.
var RootCmd = &cobra.Command{
	Use:   "navinspect",
	Short: "load and query navigation mesh fixtures",
	Long: `navinspect is a small command-line companion to the navmesh package:
	- load a tile/off-mesh-connection fixture from a YAML file,
	- report its tile, polygon and link counts and how many off-mesh connections snap,
	- run nearest-poly and path queries against it from the shell.`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. It is called once by main.main().
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(-1)
	}
}
