package relay

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/jdwptap/jdwptap/internal/capture"
	"github.com/jdwptap/jdwptap/jdwp"
)

// maxBuffered caps how many composite payloads wait in memory for the
// IDSizes reply before the tee gives up and stamps the fallback widths.
const maxBuffered = 256

// tee accumulates one session's capture. Composite payloads seen before
// the VM's IDSizes reply are buffered; the reply fixes the header widths
// and flushes them. Safe for use from both pump directions.
type tee struct {
	dir      string
	session  string
	vm       string
	fallback jdwp.IDSizes

	mu       sync.Mutex
	pending  map[uint32]bool // outstanding IDSizes request ids
	writer   *capture.Writer
	buffered [][]byte
	tmpPath  string
}

func newTee(dir, vm string, fallback jdwp.IDSizes) *tee {
	return &tee{
		dir:      dir,
		session:  capture.NewSessionID(),
		vm:       vm,
		fallback: fallback,
		pending:  make(map[uint32]bool),
	}
}

// noteCommand watches the debugger side for IDSizes requests.
func (t *tee) noteCommand(hdr packetHeader, _ []byte) {
	if hdr.IsReply() || hdr.Set != cmdSetVirtualMachine || hdr.Command != cmdIDSizes {
		return
	}
	t.mu.Lock()
	if t.writer == nil {
		t.pending[hdr.ID] = true
	}
	t.mu.Unlock()
}

// noteReply watches the VM side for the IDSizes answer and for Composite
// event packets.
func (t *tee) noteReply(hdr packetHeader, payload []byte) {
	if hdr.IsReply() {
		t.mu.Lock()
		matched := t.pending[hdr.ID]
		delete(t.pending, hdr.ID)
		resolved := t.writer != nil
		t.mu.Unlock()

		if matched && !resolved && hdr.ErrorCode() == 0 {
			sizes, err := parseIDSizesReply(payload)
			if err != nil {
				fmt.Fprintf(os.Stderr, "relay: %s: %v\n", t.session, err)
				return
			}
			if err := t.resolve(sizes); err != nil {
				fmt.Fprintf(os.Stderr, "relay: %s: %v\n", t.session, err)
			}
		}
		return
	}

	if hdr.Set == cmdSetEvent && hdr.Command == cmdComposite {
		if err := t.record(payload); err != nil {
			fmt.Fprintf(os.Stderr, "relay: %s: %v\n", t.session, err)
		}
	}
}

// record appends one composite payload, buffering until widths are known.
func (t *tee) record(payload []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.writer != nil {
		return t.writer.Append(payload)
	}
	if len(t.buffered) >= maxBuffered {
		if err := t.resolveLocked(t.fallback); err != nil {
			return err
		}
		return t.writer.Append(payload)
	}
	t.buffered = append(t.buffered, payload)
	return nil
}

// resolve creates the capture file with the given widths and flushes
// everything buffered so far.
func (t *tee) resolve(sizes jdwp.IDSizes) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.resolveLocked(sizes)
}

func (t *tee) resolveLocked(sizes jdwp.IDSizes) error {
	if t.writer != nil {
		return nil
	}
	t.tmpPath = filepath.Join(t.dir, t.session+".capture.tmp")
	w, err := capture.Create(t.tmpPath, capture.Header{
		Session: t.session,
		VM:      t.vm,
		Sizes:   sizes,
	})
	if err != nil {
		return err
	}
	t.writer = w
	for _, p := range t.buffered {
		if err := w.Append(p); err != nil {
			return err
		}
	}
	t.buffered = nil
	return nil
}

// close finishes the capture. Sessions that produced no events leave no
// file; sessions that never saw an IDSizes reply get the fallback widths.
func (t *tee) close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.writer == nil {
		if len(t.buffered) == 0 {
			return nil
		}
		if err := t.resolveLocked(t.fallback); err != nil {
			return err
		}
	}

	if err := t.writer.Close(); err != nil {
		return fmt.Errorf("close capture: %w", err)
	}

	// The .tmp suffix keeps the spool watcher away until the file is
	// complete.
	final := filepath.Join(t.dir, t.session+".capture")
	if err := os.Rename(t.tmpPath, final); err != nil {
		return fmt.Errorf("finish capture: %w", err)
	}
	return nil
}
