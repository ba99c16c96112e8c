package spool

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jdwptap/jdwptap/internal/capture"
	"github.com/jdwptap/jdwptap/internal/dispatch"
	"github.com/jdwptap/jdwptap/internal/journal"
	"github.com/jdwptap/jdwptap/internal/store"
	"github.com/jdwptap/jdwptap/jdwp"
)

// ProcessorConfig holds the sinks a processed capture feeds. Journal is
// required; Store and Dispatcher are optional.
type ProcessorConfig struct {
	Dirs       DirConfig
	Journal    *journal.Journal
	Store      *store.Store
	Dispatcher *dispatch.Dispatcher
}

// Processor decodes capture files and files them away.
type Processor struct {
	cfg ProcessorConfig
}

// NewProcessor creates a processor with the given configuration.
func NewProcessor(cfg ProcessorConfig) *Processor {
	return &Processor{cfg: cfg}
}

// decodedPacket pairs a capture packet with its decoded form.
type decodedPacket struct {
	pkt  capture.Packet
	comp *jdwp.Composite
}

// Process handles a single capture file: decode every packet with the
// header's ID sizes, then journal, store, and dispatch the events and
// move the file to processed/. Any decode error aborts the whole file
// to failed/ with a .reason note, recording nothing.
func (p *Processor) Process(path string) error {
	// Structural symlink defense: reject symlinks before reading so a
	// link dropped into the spool cannot pull in arbitrary files. The
	// link is left in place rather than filed away, since the EXDEV
	// copy fallback would follow it.
	fi, err := os.Lstat(path)
	if err != nil {
		return fmt.Errorf("stat capture: %w", err)
	}
	if fi.Mode()&os.ModeSymlink != 0 {
		return fmt.Errorf("rejected symlink: %s", filepath.Base(path))
	}

	r, err := capture.Open(path)
	if err != nil {
		return p.fail(path, fmt.Sprintf("unreadable capture: %v", err))
	}
	hdr := r.Header()

	var batch []decodedPacket
	for {
		pkt, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			r.Close()
			return p.fail(path, fmt.Sprintf("corrupt capture: %v", err))
		}
		comp, err := jdwp.DecodeComposite(pkt.Data, hdr.Sizes)
		if err != nil {
			r.Close()
			return p.fail(path, fmt.Sprintf("packet %d: %v", pkt.Seq, err))
		}
		batch = append(batch, decodedPacket{pkt: pkt, comp: comp})
	}
	r.Close()

	if err := p.record(hdr, batch); err != nil {
		return fmt.Errorf("record capture %s: %w", filepath.Base(path), err)
	}

	dst := filepath.Join(p.cfg.Dirs.Processed, filepath.Base(path))
	if err := moveFile(path, dst); err != nil {
		return fmt.Errorf("move to processed: %w", err)
	}
	return nil
}

// record feeds every decoded packet to the journal, store, and sinks.
func (p *Processor) record(hdr capture.Header, batch []decodedPacket) error {
	if p.cfg.Store != nil {
		sess := store.Session{
			ID:        hdr.Session,
			CreatedAt: hdr.Time,
			VM:        hdr.VM,
			Sizes:     hdr.Sizes,
		}
		if err := p.cfg.Store.RecordSession(sess); err != nil {
			return err
		}
	}

	for _, d := range batch {
		if err := p.cfg.Journal.Record(hdr.Session, d.pkt.Seq, d.comp.SuspendPolicy, d.comp.Events); err != nil {
			return err
		}

		if p.cfg.Store != nil {
			records := make([]store.Record, 0, len(d.comp.Events))
			for i, ev := range d.comp.Events {
				payload, err := json.Marshal(ev)
				if err != nil {
					return fmt.Errorf("marshal event: %w", err)
				}
				rec := store.Record{
					Session:   hdr.Session,
					Packet:    d.pkt.Seq,
					Index:     i,
					Timestamp: d.pkt.Time,
					Suspend:   d.comp.SuspendPolicy.String(),
					Kind:      ev.Kind().String(),
					RequestID: jdwp.RequestIDOf(ev),
					Payload:   payload,
				}
				if thread, ok := jdwp.ThreadOf(ev); ok {
					rec.Thread = uint64(thread)
				}
				records = append(records, rec)
			}
			if err := p.cfg.Store.RecordEvents(records); err != nil {
				return err
			}
		}

		if p.cfg.Dispatcher != nil {
			for _, ev := range d.comp.Events {
				n, err := dispatch.NewNotification(d.pkt.Time, hdr.Session, d.comp.SuspendPolicy, ev)
				if err != nil {
					return err
				}
				p.cfg.Dispatcher.Dispatch(n)
			}
		}
	}
	return nil
}

// fail moves the capture to failed/ and writes a sibling .reason note.
func (p *Processor) fail(path, reason string) error {
	name := filepath.Base(path)
	dst := filepath.Join(p.cfg.Dirs.Failed, name)
	if err := moveFile(path, dst); err != nil {
		return fmt.Errorf("move to failed: %w", err)
	}
	note := filepath.Join(p.cfg.Dirs.Failed, name+".reason")
	if err := os.WriteFile(note, []byte(reason+"\n"), 0600); err != nil {
		return fmt.Errorf("write failure note: %w", err)
	}
	fmt.Fprintf(os.Stderr, "spool: failed %s: %s\n", name, reason)
	return nil
}
