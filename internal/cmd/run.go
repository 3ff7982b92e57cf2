package cmd

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"vpty/internal/config"
	"vpty/internal/ptyhost"
	"vpty/internal/tracelog"
)

func newRunCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Open a PTY host session with the configured shell",
		Long: `Spawns the configured shell under a PTY and relays its input and output
to the controlling terminal. Press 'q' in command mode to quit, 'i' to enter
insert mode, Ctrl-] to leave insert mode, and 'r' to respawn the shell in its
current working directory.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var cfg *config.Config
			var err error
			if configPath != "" {
				cfg, err = config.LoadFrom(configPath)
			} else {
				cfg, err = config.Load()
			}
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			sessionID := uuid.NewString()
			log, err := tracelog.New(cfg.LogPath, sessionID)
			if err != nil {
				return fmt.Errorf("open trace log: %w", err)
			}
			defer log.Close()

			sess, err := ptyhost.Open(cfg, os.Stdout, log, sessionID)
			if err != nil {
				return fmt.Errorf("open session: %w", err)
			}

			go sess.RunOutputPump()
			go sess.RunInputPump(os.Stdin)

			sess.Wait()
			return sess.Close()
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to config.yaml (defaults to ~/.config/vpty/config.yaml)")

	return cmd
}
