// Command chansync stores payment channel snapshots in SQLite.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/chansync/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
