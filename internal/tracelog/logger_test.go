package tracelog

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestEventAppendsOneJSONLinePerCall(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.txt")
	l, err := New(path, "sess-123")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer l.Close()
	l.now = func() time.Time { return time.Unix(0, 0) }

	if err := l.Event("open", map[string]any{"cols": 80, "rows": 24}); err != nil {
		t.Fatalf("Event: %v", err)
	}
	if err := l.Event("close", nil); err != nil {
		t.Fatalf("Event: %v", err)
	}

	lines := readLines(t, path)
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2: %v", len(lines), lines)
	}

	var first map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if first["session_id"] != "sess-123" {
		t.Errorf("session_id = %v, want sess-123", first["session_id"])
	}
	if first["event"] != "open" {
		t.Errorf("event = %v, want open", first["event"])
	}
	if first["cols"] != float64(80) {
		t.Errorf("cols = %v, want 80", first["cols"])
	}
}

func TestNewFailsWhenAlreadyLocked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.txt")
	l1, err := New(path, "a")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer l1.Close()

	if _, err := New(path, "b"); err == nil {
		t.Fatal("expected an error opening a second Logger on an already-locked path")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.txt")
	l, err := New(path, "a")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("first close: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	return lines
}
