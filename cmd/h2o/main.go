// Command h2o simulates the formation of water molecules from concurrent
// oxygen and hydrogen atoms.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/h2o/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "h2o:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
