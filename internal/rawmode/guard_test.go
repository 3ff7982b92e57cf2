package rawmode

import (
	"testing"

	"golang.org/x/term"
)

func TestEngageIdempotentNoReSnapshot(t *testing.T) {
	fd, cleanup := openTestPTY(t)
	defer cleanup()

	g := &Guard{fd: fd}
	if err := engageFD(g, fd); err != nil {
		t.Fatalf("first engage: %v", err)
	}
	first := g.state

	if err := engageFD(g, fd); err != nil {
		t.Fatalf("second engage: %v", err)
	}
	if g.state != first {
		t.Fatal("second Engage re-snapshotted the termios state")
	}

	if err := g.Restore(); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if g.Engaged() {
		t.Fatal("guard still reports engaged after Restore")
	}
}

func TestRestoreOnDisengagedGuardIsNoop(t *testing.T) {
	g := &Guard{}
	if err := g.Restore(); err != nil {
		t.Fatalf("restore on disengaged guard: %v", err)
	}
}

// engageFD bypasses controllingTTY() so the test can drive a PTY slave fd
// directly instead of the process's real stdin.
func engageFD(g *Guard, fd int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != nil {
		return nil
	}
	state, err := term.MakeRaw(fd)
	if err != nil {
		return err
	}
	g.fd = fd
	g.state = state
	return nil
}
