//go:build linux

package cwd

import (
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/creack/pty"
)

func TestResolveReturnsShellCwd(t *testing.T) {
	wantDir, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}

	cmd := exec.Command("sleep", "5")
	cmd.Dir = wantDir
	ptmx, err := pty.Start(cmd)
	if err != nil {
		t.Skipf("pty unavailable in this environment: %v", err)
	}
	defer func() {
		cmd.Process.Kill()
		ptmx.Close()
	}()

	// Give the child a moment to actually chdir and become the
	// foreground process group before we probe it.
	time.Sleep(50 * time.Millisecond)

	got, err := Resolve(ptmx)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != wantDir {
		t.Fatalf("Resolve = %q, want %q", got, wantDir)
	}
}

func TestResolveNotFoundWhenChildGone(t *testing.T) {
	cmd := exec.Command("true")
	ptmx, err := pty.Start(cmd)
	if err != nil {
		t.Skipf("pty unavailable in this environment: %v", err)
	}
	defer ptmx.Close()
	cmd.Wait()

	if _, err := Resolve(ptmx); err == nil {
		t.Fatal("expected an error once the child and its session are gone")
	}
}
