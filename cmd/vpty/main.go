// Command vpty is the CLI entry point: an embeddable PTY host with a
// modal command/insert UI over a relayed ANSI escape stream.
package main

import (
	"fmt"
	"os"

	"vpty/internal/cmd"
)

func main() {
	if err := cmd.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
