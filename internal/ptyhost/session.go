// Package ptyhost opens a PTY pair, spawns a login shell on it, and drives
// the two concurrent I/O pumps that relay bytes between the controlling
// terminal and the child: an output pump (PTY -> stdout, through the ANSI
// parser and output queue) and an input pump (stdin -> PTY, modal command/
// insert dispatch).
package ptyhost

import (
	"bufio"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"

	"github.com/creack/pty"

	"vpty/internal/ansi"
	"vpty/internal/config"
	"vpty/internal/cwd"
	"vpty/internal/hosterr"
	"vpty/internal/outqueue"
	"vpty/internal/rawmode"
	"vpty/internal/tracelog"
)

// Session is a single PTY-hosted shell and the state its two I/O pumps
// share. The zero-value mu/shutdown fields start out disengaged; a
// Session is only usable after Open.
type Session struct {
	mu sync.Mutex

	cols, rows int
	// offsetX, offsetY are reserved for future sub-region placement; the
	// host always writes as if offset is (0,0).
	offsetX, offsetY int

	ptmx *os.File
	tty  *os.File // the slave end; kept open across respawns so Respawn attaches a fresh child to the same slave rather than opening a new PTY pair
	cmd  *exec.Cmd

	out    *outqueue.Queue
	reader *bufio.Reader

	guard *rawmode.Guard
	log   *tracelog.Logger

	cfg *config.Config

	traceID string

	oscForeground string
	oscBackground string

	shutdown bool

	// history is reserved for a future replay-on-respawn feature;
	// retained here but never read back.
	history []ansi.Sequence
}

// Open engages raw mode, opens a PTY pair of cfg's size, spawns cfg.Shell
// on the slave, and emits EnterAltScreen+ClearAll to stdout. It does not
// start the pumps: the caller runs RunOutputPump and RunInputPump on their
// own goroutines and then joins the session with Wait. sessionID
// correlates this session's trace log lines across respawns (the caller also passes it to tracelog.New for log).
func Open(cfg *config.Config, stdout io.Writer, log *tracelog.Logger, sessionID string) (*Session, error) {
	guard := &rawmode.Guard{}
	if err := guard.Engage(); err != nil {
		return nil, err
	}

	cols, rows := cfg.Cols, cfg.Rows
	if cols <= 0 {
		cols = 80
	}
	if rows <= 0 {
		rows = 24
	}

	ptmx, tty, err := pty.Open()
	if err != nil {
		guard.Restore()
		return nil, hosterr.SpawnFailure("open pty", err)
	}
	if err := pty.Setsize(ptmx, &pty.Winsize{Rows: uint16(rows), Cols: uint16(cols)}); err != nil {
		ptmx.Close()
		tty.Close()
		guard.Restore()
		return nil, hosterr.SpawnFailure("set pty size", err)
	}

	cmd, err := spawnOnSlave(cfg.Shell, cfg.ShellArgs, tty)
	if err != nil {
		ptmx.Close()
		tty.Close()
		guard.Restore()
		return nil, hosterr.SpawnFailure("start shell", err)
	}

	s := &Session{
		cols: cols, rows: rows,
		ptmx:    ptmx,
		tty:     tty,
		cmd:     cmd,
		out:     outqueue.New(stdout),
		reader:  bufio.NewReader(ptmx),
		guard:   guard,
		log:     log,
		cfg:     cfg,
		traceID: sessionID,
	}

	s.detectOSCColors()

	s.out.Enqueue(ansi.EscapeSeq([]ansi.Escape{ansi.EnterAltScreen, ansi.ClearAll}))
	if err := s.out.DrainAndFlush(); err != nil {
		s.guard.Restore()
		return nil, hosterr.IoFailure("write initial screen setup", err)
	}

	if s.log != nil {
		s.log.Event("open", map[string]any{"cols": cols, "rows": rows, "shell": cfg.Shell})
	}

	return s, nil
}

// Wait blocks until the shell child exits. When Respawn replaces the child,
// Wait goes on waiting for the new one. It does not join the output pump,
// which keeps reading until Close closes the PTY master.
func (s *Session) Wait() {
	for {
		s.mu.Lock()
		cmd := s.cmd
		s.mu.Unlock()
		cmd.Wait()

		s.mu.Lock()
		respawned := s.cmd != cmd && !s.shutdown
		s.mu.Unlock()
		if !respawned {
			return
		}
	}
}

// RunOutputPump repeatedly parses one logical unit off the PTY master
// reader and re-serializes it into the output queue. It never holds the
// session lock while blocked on the PTY read: the read and parse happen
// lock-free, and the lock is only acquired to append to the queue and
// flush.
func (s *Session) RunOutputPump() {
	for {
		if s.isShutdown() {
			return
		}

		// Force at least one byte to be buffered, then peek whatever
		// chunk arrived alongside it, so the OSC color responder sees
		// the same bytes before ParseOne consumes them.
		if _, err := s.reader.Peek(1); err != nil {
			s.mu.Lock()
			s.shutdown = true
			s.mu.Unlock()
			return
		}
		if chunk, err := s.reader.Peek(s.reader.Buffered()); err == nil && len(chunk) > 0 {
			s.RespondOSCColors(chunk)
		}

		seqs, err := ansi.ParseOne(s.reader)
		if err != nil {
			if hosterr.Is(err, hosterr.KindUnsupported) {
				if s.log != nil {
					s.log.Event("unsupported", map[string]any{"reason": err.Error()})
				}
				continue
			}
			// Any other error (including EOF on child exit) is
			// end-of-stream: trigger orderly shutdown.
			s.mu.Lock()
			s.shutdown = true
			s.mu.Unlock()
			return
		}

		s.mu.Lock()
		for _, seq := range seqs {
			s.out.Enqueue(seq)
			s.history = append(s.history, seq)
		}
		s.out.DrainAndFlush()
		s.mu.Unlock()
	}
}

// RunInputPump reads stdin one byte at a time and dispatches it per the
// modal command/insert state machine. The insert flag is local to this
// goroutine, never shared, since only the input pump ever reads or writes
// it.
func (s *Session) RunInputPump(stdin io.Reader) {
	insert := false
	br := bufio.NewReader(stdin)

	for {
		if s.isShutdown() {
			return
		}

		b, err := br.ReadByte()
		if err != nil {
			return
		}

		if insert {
			if b == s.cfg.Keys.EscapeInsert {
				insert = false
				continue
			}
			s.mu.Lock()
			_, werr := s.ptmx.Write([]byte{b})
			s.mu.Unlock()
			if werr != nil && s.log != nil {
				s.log.Event("write_error", map[string]any{"error": werr.Error()})
			}
			continue
		}

		switch b {
		case s.cfg.Keys.Quit:
			s.Close()
			return
		case s.cfg.Keys.Insert:
			insert = true
		case s.cfg.Keys.Respawn:
			if dir, err := s.GetProcessCwd(); err == nil {
				s.Respawn(dir)
			}
		case '\n':
		default:
		}
	}
}

// GetProcessCwd resolves the foreground shell's current working directory.
func (s *Session) GetProcessCwd() (string, error) {
	return cwd.Resolve(s.ptmx)
}

// Respawn kills the current child and spawns a fresh shell on the same
// slave, rooted at dir. The argv is built from cfg's respawn shell
// template. The PTY pair itself (and so the output pump's reader) is
// untouched — only the child attached to the slave changes.
func (s *Session) Respawn(dir string) error {
	argv, err := s.cfg.RespawnArgv(dir)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cmd != nil && s.cmd.Process != nil {
		s.cmd.Process.Kill()
		s.cmd.Wait()
	}

	cmd, err := spawnOnSlave(argv[0], argv[1:], s.tty)
	if err != nil {
		return hosterr.SpawnFailure("respawn shell", err)
	}
	s.cmd = cmd

	if s.log != nil {
		s.log.Event("respawn", map[string]any{"dir": dir, "argv": argv})
	}
	return nil
}

// spawnOnSlave starts argv with tty as its controlling terminal (stdin,
// stdout, and stderr all the slave end of an already-open PTY pair),
// matching what github.com/creack/pty's Start/StartWithSize do internally
// — reimplemented directly here because those helpers open a brand new
// PTY pair each call, and respawn must reuse the existing slave.
func spawnOnSlave(name string, args []string, tty *os.File) (*exec.Cmd, error) {
	cmd := exec.Command(name, args...)
	cmd.Stdin = tty
	cmd.Stdout = tty
	cmd.Stderr = tty
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid:  true,
		Setctty: true,
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return cmd, nil
}

// Close sets the shutdown flag, kills the child, restores termios,
// enqueues ExitAltScreen, and flushes. Best-effort and idempotent: every
// step runs even if an earlier one errors, and the first error is
// returned.
func (s *Session) Close() error {
	s.mu.Lock()
	alreadyDown := s.shutdown
	s.shutdown = true
	cmd := s.cmd
	s.mu.Unlock()

	if alreadyDown {
		return nil
	}

	var firstErr error
	record := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if cmd != nil && cmd.Process != nil {
		record(cmd.Process.Kill())
	}
	record(s.guard.Restore())
	if s.tty != nil {
		record(s.tty.Close())
	}
	if s.ptmx != nil {
		record(s.ptmx.Close())
	}

	s.mu.Lock()
	s.out.Enqueue(ansi.EscapeSeq([]ansi.Escape{ansi.ExitAltScreen}))
	record(s.out.DrainAndFlush())
	s.mu.Unlock()

	if s.log != nil {
		s.log.Event("close", nil)
	}

	return firstErr
}

func (s *Session) isShutdown() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shutdown
}
