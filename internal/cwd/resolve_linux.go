//go:build linux

package cwd

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// foregroundPID reads the foreground process group leader's pid off the
// PTY master, the tcgetpgrp-equivalent ioctl.
func foregroundPID(master *os.File) (int, error) {
	return unix.IoctlGetInt(int(master.Fd()), unix.TIOCGPGRP)
}

// sessionID reads the session id (the session leader's pid) controlling
// master, via TIOCGSID.
func sessionID(master *os.File) (int, error) {
	return unix.IoctlGetInt(int(master.Fd()), unix.TIOCGSID)
}

// cwdFromPID reads the symbolic link at /proc/<pid>/cwd.
func cwdFromPID(pid int) (string, error) {
	link := fmt.Sprintf("/proc/%d/cwd", pid)
	dir, err := os.Readlink(link)
	if err != nil {
		return "", err
	}
	return dir, nil
}
