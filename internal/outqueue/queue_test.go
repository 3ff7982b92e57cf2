package outqueue

import (
	"bytes"
	"testing"

	"vpty/internal/ansi"
)

func TestEnqueueDrainPreservesOrder(t *testing.T) {
	var sink bytes.Buffer
	q := New(&sink)

	q.Enqueue(ansi.TextSeq('H'))
	q.Enqueue(ansi.EscapeSeq([]ansi.Escape{ansi.SetBold, ansi.SetForegroundRed}))
	q.Enqueue(ansi.TextSeq('i'))

	if sink.Len() != 0 {
		t.Fatal("Enqueue must not write to the sink before Drain")
	}

	if err := q.Drain(); err != nil {
		t.Fatalf("Drain: %v", err)
	}

	want := "H\x1b[1m\x1b[31mi"
	if sink.String() != want {
		t.Fatalf("sink = %q, want %q", sink.String(), want)
	}
}

func TestDrainClearsBuffer(t *testing.T) {
	var sink bytes.Buffer
	q := New(&sink)
	q.Enqueue(ansi.TextSeq('x'))
	if err := q.Drain(); err != nil {
		t.Fatalf("first drain: %v", err)
	}
	if err := q.Drain(); err != nil {
		t.Fatalf("second drain: %v", err)
	}
	if sink.String() != "x" {
		t.Fatalf("sink = %q, want %q (second drain should be a no-op)", sink.String(), "x")
	}
}

type flushRecorder struct {
	bytes.Buffer
	flushed bool
}

func (f *flushRecorder) Flush() error {
	f.flushed = true
	return nil
}

func TestDrainAndFlushCallsFlush(t *testing.T) {
	sink := &flushRecorder{}
	q := New(sink)
	q.Enqueue(ansi.TextSeq('z'))
	if err := q.DrainAndFlush(); err != nil {
		t.Fatalf("DrainAndFlush: %v", err)
	}
	if !sink.flushed {
		t.Fatal("expected sink.Flush to be called")
	}
}
