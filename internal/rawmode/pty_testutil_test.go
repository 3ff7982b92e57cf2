package rawmode

import (
	"testing"

	"github.com/creack/pty"
)

// openTestPTY opens a PTY pair and returns the slave's file descriptor, a
// real tty-backed fd term.MakeRaw can operate on without touching the
// test process's actual stdin.
func openTestPTY(t *testing.T) (fd int, cleanup func()) {
	t.Helper()
	ptmx, tty, err := pty.Open()
	if err != nil {
		t.Skipf("pty unavailable in this environment: %v", err)
	}
	return int(tty.Fd()), func() {
		tty.Close()
		ptmx.Close()
	}
}
