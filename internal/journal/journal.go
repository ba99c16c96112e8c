// Package journal persists decoded events as an append-only JSONL file, one
// event per line with a monotonic sequence number. The sequence makes
// deletions and insertions detectable by Verify and gives Replay a stable
// order even across interleaved sessions.
package journal

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jdwptap/jdwptap/jdwp"
)

// TimestampFormat is the layout used in journal entry timestamps.
const TimestampFormat = "2006-01-02T15:04:05.000Z"

// Journal is an append-only JSONL event journal. Safe for concurrent use.
type Journal struct {
	path string
	file *os.File
	mu   sync.Mutex
	seq  uint64
}

// Open opens (or creates) a journal file for appending. If the file already
// exists, it reads the last line to recover the sequence tail.
func Open(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("journal: create directory: %w", err)
	}

	var seq uint64

	// Read existing file to find the sequence tail
	if info, err := os.Stat(path); err == nil && info.Size() > 0 {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("journal: read existing journal: %w", err)
		}
		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 0, 64*1024), 16<<20)
		var lastLine []byte
		for scanner.Scan() {
			lastLine = make([]byte, len(scanner.Bytes()))
			copy(lastLine, scanner.Bytes())
		}
		f.Close()
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("journal: scan existing journal: %w", err)
		}
		if len(lastLine) > 0 {
			var last Entry
			if err := json.Unmarshal(lastLine, &last); err != nil {
				return nil, fmt.Errorf("journal: parse journal tail: %w", err)
			}
			seq = last.Seq
		}
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("journal: open file: %w", err)
	}

	return &Journal{path: path, file: file, seq: seq}, nil
}

// Record appends every event of one decoded packet, in wire order, and syncs
// once at the end of the batch.
func (j *Journal) Record(session string, packetSeq uint64, policy jdwp.SuspendPolicy, events []jdwp.Event) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	now := time.Now().UTC().Format(TimestampFormat)
	for i, ev := range events {
		payload, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("journal: marshal event: %w", err)
		}
		j.seq++
		entry := Entry{
			Seq:       j.seq,
			Timestamp: now,
			Session:   session,
			Packet:    packetSeq,
			Index:     i,
			Suspend:   policy.String(),
			Kind:      ev.Kind().String(),
			RequestID: jdwp.RequestIDOf(ev),
			Event:     payload,
		}
		if thread, ok := jdwp.ThreadOf(ev); ok {
			entry.Thread = uint64(thread)
		}
		line, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("journal: marshal entry: %w", err)
		}
		if _, err := j.file.Write(append(line, '\n')); err != nil {
			return fmt.Errorf("journal: write entry: %w", err)
		}
	}
	if err := j.file.Sync(); err != nil {
		return fmt.Errorf("journal: sync: %w", err)
	}
	return nil
}

// Close closes the underlying file.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.file.Close()
}
