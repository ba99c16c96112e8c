// Package spool runs the capture pipeline: a relay (or anything else)
// drops finished capture files into a spool directory, the daemon
// decodes them and files them under processed/ or failed/.
package spool

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/jdwptap/jdwptap/internal/dispatch"
	"github.com/jdwptap/jdwptap/internal/journal"
	"github.com/jdwptap/jdwptap/internal/store"
)

// Config holds full daemon configuration.
type Config struct {
	Dirs         DirConfig
	JournalPath  string
	StorePath    string // empty disables the SQLite store
	Sinks        []dispatch.SinkConfig
	PollMode     bool
	PollInterval time.Duration
}

// Daemon watches the spool directory and processes capture files.
type Daemon struct {
	cfg Config
}

// New creates a daemon with validated configuration.
func New(cfg Config) (*Daemon, error) {
	if cfg.Dirs.Spool == "" || cfg.Dirs.Processed == "" || cfg.Dirs.Failed == "" || cfg.Dirs.State == "" {
		return nil, fmt.Errorf("spool, processed, failed, and state directories are required")
	}
	if cfg.JournalPath == "" {
		return nil, fmt.Errorf("journal path is required")
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = pollDefault
	}
	return &Daemon{cfg: cfg}, nil
}

// Run starts the daemon. Blocks until ctx is cancelled.
// On startup, processes any capture files already waiting in the spool.
func (d *Daemon) Run(ctx context.Context) error {
	if err := EnsureDirs(d.cfg.Dirs); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	// Cross-device moves fall back to copy+remove; warn so the operator
	// knows spool-to-processed filing is not atomic on this layout.
	if err := ValidateSameFilesystem(d.cfg.Dirs); err != nil {
		fmt.Fprintf(os.Stderr, "spool: %v\n", err)
	}

	// Acquire PID file lock to prevent duplicate instances.
	pidPath := filepath.Join(d.cfg.Dirs.State, "jdwptap.pid")
	if err := acquirePIDLock(pidPath); err != nil {
		return fmt.Errorf("acquire PID lock: %w", err)
	}
	defer func() { _ = os.Remove(pidPath) }()

	jnl, err := journal.Open(d.cfg.JournalPath)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer func() { _ = jnl.Close() }()

	var st *store.Store
	if d.cfg.StorePath != "" {
		st, err = store.Open(d.cfg.StorePath)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer func() { _ = st.Close() }()
	}

	processor := NewProcessor(ProcessorConfig{
		Dirs:       d.cfg.Dirs,
		Journal:    jnl,
		Store:      st,
		Dispatcher: dispatch.NewDispatcher(d.cfg.Sinks),
	})

	handler := func(path string) {
		if err := processor.Process(path); err != nil {
			fmt.Fprintf(os.Stderr, "spool: process %s: %v\n", filepath.Base(path), err)
		}
	}

	// Process captures that arrived while the daemon was down. A crash
	// mid-file leaves the capture in the spool, so this doubles as
	// restart recovery.
	if err := ScanExisting(d.cfg.Dirs.Spool, handler); err != nil {
		return fmt.Errorf("scan existing: %w", err)
	}

	if d.cfg.PollMode {
		pw := NewPollWatcher(d.cfg.Dirs.Spool, handler, d.cfg.PollInterval)
		return pw.Run(ctx)
	}

	w := NewWatcher(d.cfg.Dirs.Spool, handler)
	return w.Run(ctx)
}

// acquirePIDLock writes the current PID to the file and checks for stale locks.
func acquirePIDLock(path string) error {
	// Check for existing PID file.
	if data, err := os.ReadFile(path); err == nil {
		pid, err := strconv.Atoi(string(data))
		if err == nil {
			// Check if the process is still running.
			if process, err := os.FindProcess(pid); err == nil {
				if err := process.Signal(syscall.Signal(0)); err == nil {
					return fmt.Errorf("another daemon is running (PID %d)", pid)
				}
			}
		}
		// Stale PID file — remove it.
		_ = os.Remove(path)
	}

	// Write our PID.
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0600)
}
