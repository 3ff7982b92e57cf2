// Package tracelog implements an append-only trace sink: a JSON-line
// file, one record per line, used purely for tracing and never read back
// by the host. Each Session owns its own *Logger instance rather than
// sharing a process-global one.
package tracelog

import (
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"vpty/internal/hosterr"
)

// Logger appends one JSON object per line to a file, guarded by an
// exclusive flock so two host processes never interleave partial lines
// into the same trace file.
type Logger struct {
	mu        sync.Mutex
	file      *os.File
	lock      *flock.Flock
	sessionID string
	now       func() time.Time
}

// New opens path (created if absent) for append-only writes after taking an
// exclusive lock on the sibling file path+".lock". It does not wait for the
// lock: if another Logger holds it, New fails with an IoFailure.
// sessionID correlates every line this Logger
// writes to one PTY session, including across respawns.
func New(path string, sessionID string) (*Logger, error) {
	lock := flock.New(path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, hosterr.IoFailure("lock trace log", err)
	}
	if !locked {
		return nil, hosterr.IoFailure("lock trace log", os.ErrExist)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		lock.Unlock()
		return nil, hosterr.IoFailure("open trace log", err)
	}

	return &Logger{file: f, lock: lock, sessionID: sessionID, now: time.Now}, nil
}

// Event appends one JSON line: {"ts":..,"session_id":..,"event":kind,
// ...fields}.
func (l *Logger) Event(kind string, fields map[string]any) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	record := map[string]any{
		"ts":         l.now().UTC().Format(time.RFC3339Nano),
		"session_id": l.sessionID,
		"event":      kind,
	}
	for k, v := range fields {
		record[k] = v
	}

	line, err := json.Marshal(record)
	if err != nil {
		return hosterr.IoFailure("marshal trace event", err)
	}
	line = append(line, '\n')
	if _, err := l.file.Write(line); err != nil {
		return hosterr.IoFailure("write trace event", err)
	}
	return nil
}

// Close releases the lock and closes the file. Idempotent.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	closeErr := l.file.Close()
	unlockErr := l.lock.Unlock()
	os.Remove(l.lock.Path())
	l.file = nil
	if closeErr != nil {
		return hosterr.IoFailure("close trace log", closeErr)
	}
	if unlockErr != nil {
		return hosterr.IoFailure("unlock trace log", unlockErr)
	}
	return nil
}
