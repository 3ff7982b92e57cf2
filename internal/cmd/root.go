// Package cmd wires the cobra command tree for the vpty CLI entry point.
package cmd

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root cobra command with all subcommands.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "vpty",
		Short: "Embeddable PTY host with ANSI escape relay",
		Long:  "vpty spawns a shell under a PTY and relays its input and output to the controlling terminal, with a modal command/insert UI and in-place respawn.",
	}

	rootCmd.AddCommand(newRunCmd())

	return rootCmd
}
