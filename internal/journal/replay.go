package journal

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/jdwptap/jdwptap/jdwp"
)

// Filter holds selection criteria for a journal replay. Zero values mean "no
// constraint".
type Filter struct {
	Session string
	Kind    jdwp.EventKind // 0 matches every kind; 0 is not a wire kind
	Thread  uint64
	From    time.Time
	To      time.Time
}

// Summary aggregates the entries a replay selected.
type Summary struct {
	Total          int            `json:"total"`
	ByKind         map[string]int `json:"by_kind,omitempty"`
	Threads        int            `json:"threads"`
	Suspended      int            `json:"suspended"`
	FirstTimestamp string         `json:"first_timestamp,omitempty"`
	LastTimestamp  string         `json:"last_timestamp,omitempty"`
}

// ReplayResult holds filtered entries and their summary.
type ReplayResult struct {
	Session string  `json:"session,omitempty"`
	Entries []Entry `json:"entries"`
	Summary Summary `json:"summary"`
}

// Replay reads the journal and returns entries matching the filter, in
// journal order. Malformed lines are skipped: replay is a reading aid, not
// an integrity check (Verify is).
func Replay(path string, filter Filter) (*ReplayResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("journal: open: %w", err)
	}
	defer f.Close()

	result := &ReplayResult{Session: filter.Session}
	threads := make(map[uint64]bool)

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16<<20)
	for scanner.Scan() {
		var entry Entry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			continue // skip malformed lines
		}

		if filter.Session != "" && entry.Session != filter.Session {
			continue
		}
		if filter.Kind != 0 && entry.Kind != filter.Kind.String() {
			continue
		}
		if filter.Thread != 0 && entry.Thread != filter.Thread {
			continue
		}
		if !filter.From.IsZero() || !filter.To.IsZero() {
			ts, err := time.Parse(TimestampFormat, entry.Timestamp)
			if err != nil {
				continue // skip unparseable timestamps
			}
			if !filter.From.IsZero() && ts.Before(filter.From) {
				continue
			}
			if !filter.To.IsZero() && ts.After(filter.To) {
				continue
			}
		}

		result.Entries = append(result.Entries, entry)
		updateSummary(&result.Summary, entry)
		if entry.Thread != 0 {
			threads[entry.Thread] = true
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("journal: read: %w", err)
	}

	result.Summary.Threads = len(threads)
	return result, nil
}

func updateSummary(s *Summary, entry Entry) {
	s.Total++

	if s.ByKind == nil {
		s.ByKind = make(map[string]int)
	}
	s.ByKind[entry.Kind]++

	if entry.Suspend != jdwp.SuspendNone.String() {
		s.Suspended++
	}

	if s.FirstTimestamp == "" {
		s.FirstTimestamp = entry.Timestamp
	}
	s.LastTimestamp = entry.Timestamp
}
