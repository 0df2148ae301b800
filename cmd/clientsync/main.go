// Command clientsync syncs the clients collection for one device.
package main

import (
	"os"

	"github.com/roach88/clientsync/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(cli.GetExitCode(err))
	}
}
