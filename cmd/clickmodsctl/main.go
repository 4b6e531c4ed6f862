// Command clickmodsctl controls a running clickmods agent.
package main

import (
	"os"

	"clickmods/internal/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:], os.Stdout, os.Stderr))
}
