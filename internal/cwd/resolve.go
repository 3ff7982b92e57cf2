// Package cwd resolves the PTY's foreground shell's current working
// directory via OS process introspection, so the host can respawn a new
// shell in-place. The strategy (tcgetpgrp-equivalent on the PTY master,
// then /proc/<pid>/cwd, falling back to the controlling session's leader
// via TIOCGSID) is Linux-procfs specific; see resolve_linux.go. Other
// platforms get foregroundPID, sessionID and cwdFromPID stubbed out in
// resolve_other.go.
package cwd

import (
	"os"

	"vpty/internal/hosterr"
)

// Resolve returns the current working directory of the foreground process
// attached to master, the PTY master file descriptor. It tries the
// foreground process-group leader's pid first; on failure it retries with
// the controlling session's leader pid; if both fail it returns a
// NotFound error.
func Resolve(master *os.File) (string, error) {
	if pid, err := foregroundPID(master); err == nil {
		if dir, err := cwdFromPID(pid); err == nil {
			return dir, nil
		}
	}
	if sid, err := sessionID(master); err == nil {
		if dir, err := cwdFromPID(sid); err == nil {
			return dir, nil
		}
	}
	return "", hosterr.NotFound("could not resolve foreground process cwd")
}
