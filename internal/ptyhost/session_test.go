package ptyhost

import (
	"bufio"
	"bytes"
	"strings"
	"testing"
	"time"

	"vpty/internal/outqueue"
)

// TestOutputPumpReserializesMockPTYStream is the end-to-end scenario from
// the escape parser's testable properties: the output pump, fed a chunk
// containing private-mode toggles, an erase, and text, reproduces the
// exact same bytes on stdout once drained.
func TestOutputPumpReserializesMockPTYStream(t *testing.T) {
	input := "\x1b[?25l\x1b[2JHello\x1b[?25h"
	var stdout bytes.Buffer

	s := &Session{
		reader: bufio.NewReader(strings.NewReader(input)),
		out:    outqueue.New(&stdout),
	}

	done := make(chan struct{})
	go func() {
		s.RunOutputPump()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("output pump did not exit after EOF")
	}

	if stdout.String() != input {
		t.Fatalf("stdout = %q, want %q", stdout.String(), input)
	}
	if !s.isShutdown() {
		t.Error("expected shutdown flag set after EOF")
	}
}

// TestOutputPumpSkipsUnsupportedAndContinues verifies a truecolor
// SGR is logged and skipped rather than terminating the pump, since
// Unsupported is the sole case where parsing "fails" without meaning
// end-of-stream.
func TestOutputPumpSkipsUnsupportedAndContinues(t *testing.T) {
	input := "\x1b[38;2;10;20;30mA"
	var stdout bytes.Buffer

	s := &Session{
		reader: bufio.NewReader(strings.NewReader(input)),
		out:    outqueue.New(&stdout),
	}

	done := make(chan struct{})
	go func() {
		s.RunOutputPump()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("output pump did not exit after EOF")
	}

	if !strings.Contains(stdout.String(), "A") {
		t.Errorf("expected the trailing text byte to still pass through, got %q", stdout.String())
	}
}
