//go:build !linux

package cwd

import (
	"os"

	"vpty/internal/hosterr"
)

// foregroundPID and sessionID are Linux procfs/ioctl specific; other
// platforms need the analogous mechanism substituted here.
func foregroundPID(master *os.File) (int, error) {
	return 0, hosterr.NotFound("cwd resolution is only implemented for linux")
}

func sessionID(master *os.File) (int, error) {
	return 0, hosterr.NotFound("cwd resolution is only implemented for linux")
}

func cwdFromPID(pid int) (string, error) {
	return "", hosterr.NotFound("cwd resolution is only implemented for linux")
}
