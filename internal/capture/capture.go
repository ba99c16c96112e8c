// Package capture reads and writes capture files: JSONL containers that
// carry raw Composite event payloads from a live debug session to offline
// decoding. The first line is a Header recording the session, the VM and the
// identifier widths negotiated at handshake; every further line is one
// Packet holding the undecoded payload bytes.
package capture

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jdwptap/jdwptap/jdwp"
)

// FormatVersion is the capture file format written by this package.
const FormatVersion = 1

// maxLine caps a single capture line. Composite packets are small in
// practice; the cap only guards the scanner against corrupt files.
const maxLine = 16 << 20

// Header is the first line of a capture file.
type Header struct {
	Format  int          `json:"format"`
	Session string       `json:"session"`
	VM      string       `json:"vm,omitempty"`
	Time    string       `json:"ts"`
	Sizes   jdwp.IDSizes `json:"sizes"`
}

// Packet is one captured Composite payload. Data holds the packet body with
// the envelope already stripped, starting at the suspend policy byte.
type Packet struct {
	Seq  uint64 `json:"seq"`
	Time string `json:"ts"`
	Data []byte `json:"data"`
}

// Writer appends packets to a capture file. Safe for concurrent use.
type Writer struct {
	path string
	file *os.File
	mu   sync.Mutex
	seq  uint64
}

// Create starts a new capture file at path and writes the header line. It
// refuses to overwrite an existing file.
func Create(path string, hdr Header) (*Writer, error) {
	if err := hdr.Sizes.Validate(); err != nil {
		return nil, fmt.Errorf("capture: create %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("capture: create directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("capture: create file: %w", err)
	}

	hdr.Format = FormatVersion
	if hdr.Time == "" {
		hdr.Time = utcNowISO()
	}
	line, err := json.Marshal(hdr)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("capture: marshal header: %w", err)
	}
	if _, err := file.Write(append(line, '\n')); err != nil {
		file.Close()
		return nil, fmt.Errorf("capture: write header: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		return nil, fmt.Errorf("capture: sync header: %w", err)
	}
	return &Writer{path: path, file: file}, nil
}

// Append writes one packet line holding data and syncs it to disk.
func (w *Writer) Append(data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.seq++
	pkt := Packet{Seq: w.seq, Time: utcNowISO(), Data: data}
	line, err := json.Marshal(pkt)
	if err != nil {
		return fmt.Errorf("capture: marshal packet: %w", err)
	}
	if _, err := w.file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("capture: write packet: %w", err)
	}
	if err := w.file.Sync(); err != nil {
		return fmt.Errorf("capture: sync: %w", err)
	}
	return nil
}

// Path returns the file the writer appends to.
func (w *Writer) Path() string { return w.path }

// Close closes the underlying file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}

// Reader iterates the packets of a capture file.
type Reader struct {
	file *os.File
	sc   *bufio.Scanner
	hdr  Header
	line int
}

// Open reads and validates the header of the capture file at path and
// positions the reader at its first packet.
func Open(path string) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("capture: open: %w", err)
	}
	sc := bufio.NewScanner(file)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)

	if !sc.Scan() {
		file.Close()
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("capture: read header: %w", err)
		}
		return nil, errors.New("capture: empty file")
	}
	var hdr Header
	if err := json.Unmarshal(sc.Bytes(), &hdr); err != nil {
		file.Close()
		return nil, fmt.Errorf("capture: parse header: %w", err)
	}
	if hdr.Format != FormatVersion {
		file.Close()
		return nil, fmt.Errorf("capture: unsupported format %d (want %d)", hdr.Format, FormatVersion)
	}
	if err := hdr.Sizes.Validate(); err != nil {
		file.Close()
		return nil, fmt.Errorf("capture: header: %w", err)
	}
	return &Reader{file: file, sc: sc, hdr: hdr, line: 1}, nil
}

// Header returns the capture header read at Open.
func (r *Reader) Header() Header { return r.hdr }

// Next returns the next packet, or io.EOF after the last one.
func (r *Reader) Next() (Packet, error) {
	if !r.sc.Scan() {
		if err := r.sc.Err(); err != nil {
			return Packet{}, fmt.Errorf("capture: read line %d: %w", r.line+1, err)
		}
		return Packet{}, io.EOF
	}
	r.line++
	var pkt Packet
	if err := json.Unmarshal(r.sc.Bytes(), &pkt); err != nil {
		return Packet{}, fmt.Errorf("capture: parse line %d: %w", r.line, err)
	}
	return pkt, nil
}

// Close closes the underlying file.
func (r *Reader) Close() error { return r.file.Close() }

func utcNowISO() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
}
