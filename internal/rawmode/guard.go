// Package rawmode provides a scoped acquisition of the controlling
// terminal's raw mode. Engage is idempotent: calling it twice in a row
// must not re-snapshot and lose the true prior termios state.
package rawmode

import (
	"os"
	"sync"

	"github.com/mattn/go-isatty"
	"golang.org/x/term"

	"vpty/internal/hosterr"
)

// Guard holds the prior termios state for the controlling TTY, present
// iff raw mode is currently engaged. The zero value is a disengaged
// guard.
type Guard struct {
	mu      sync.Mutex
	fd      int
	state   *term.State
	ttyFile *os.File // non-nil when we opened /dev/tty ourselves
}

// Engage puts the controlling TTY into raw mode, recording the prior
// termios snapshot on g. The controlling TTY is /dev/tty if standard
// input is not a TTY, otherwise standard input itself. Calling Engage
// again without an intervening Restore is a no-op — it must never
// re-snapshot, since that would discard the true prior state.
func (g *Guard) Engage() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != nil {
		return nil
	}

	fd, ttyFile, err := controllingTTY()
	if err != nil {
		return hosterr.IoFailure("open controlling tty", err)
	}

	state, err := term.MakeRaw(fd)
	if err != nil {
		if ttyFile != nil {
			ttyFile.Close()
		}
		return hosterr.IoFailure("set raw mode", err)
	}

	g.fd = fd
	g.state = state
	g.ttyFile = ttyFile
	return nil
}

// Restore undoes Engage, restoring the prior termios state, and closes any
// descriptor this guard opened for /dev/tty. Restoring a disengaged Guard
// is a no-op.
func (g *Guard) Restore() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state == nil {
		return nil
	}
	err := term.Restore(g.fd, g.state)
	g.state = nil
	if g.ttyFile != nil {
		closeErr := g.ttyFile.Close()
		g.ttyFile = nil
		if err == nil {
			err = closeErr
		}
	}
	if err != nil {
		return hosterr.IoFailure("restore terminal state", err)
	}
	return nil
}

// Engaged reports whether this guard currently holds a termios snapshot.
func (g *Guard) Engaged() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state != nil
}

func controllingTTY() (fd int, opened *os.File, err error) {
	if isatty.IsTerminal(os.Stdin.Fd()) {
		return int(os.Stdin.Fd()), nil, nil
	}
	f, err := os.OpenFile("/dev/tty", os.O_RDWR, 0)
	if err != nil {
		return 0, nil, err
	}
	return int(f.Fd()), f, nil
}
