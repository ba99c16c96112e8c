package journal

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jdwptap/jdwptap/jdwp"
)

const separator = "──────────────────────────────────────────────────────────────────"

// FormatTimeline renders a ReplayResult as a human-readable text timeline.
func FormatTimeline(result *ReplayResult) string {
	label := result.Session
	if label == "" {
		label = "all"
	}
	if len(result.Entries) == 0 {
		return fmt.Sprintf("Session: %s | No entries found.\n", label)
	}

	var b strings.Builder

	// Header
	first := formatDateTime(result.Summary.FirstTimestamp)
	last := formatTimeOnly(result.Summary.LastTimestamp)
	b.WriteString(fmt.Sprintf("Session: %s | %s-%s UTC\n", label, first, last))
	b.WriteString(separator + "\n")

	// Entries
	for _, e := range result.Entries {
		ts := formatTimeOnly(e.Timestamp)
		pkt := fmt.Sprintf("#%d.%d", e.Packet, e.Index)

		tag := ""
		if e.Suspend == jdwp.SuspendAll.String() {
			tag = "  [suspend-all]"
		}

		b.WriteString(fmt.Sprintf("%-10s %-9s %s%s\n", ts, pkt, describeEntry(e), tag))
	}

	// Footer
	b.WriteString(separator + "\n")
	b.WriteString(formatSummary(result.Summary))

	return b.String()
}

// FormatJSON renders a ReplayResult as indented JSON.
func FormatJSON(result *ReplayResult) (string, error) {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("journal: marshal replay result: %w", err)
	}
	return string(data), nil
}

// describeEntry rehydrates the typed event for its one-line rendering,
// falling back to the stored kind when the payload does not parse.
func describeEntry(e Entry) string {
	kind, ok := jdwp.EventKindFromName(e.Kind)
	if !ok {
		return e.Kind
	}
	ev, err := jdwp.UnmarshalEvent(kind, e.Event)
	if err != nil {
		return e.Kind
	}
	return jdwp.Describe(ev)
}

func formatDateTime(ts string) string {
	t, err := time.Parse(TimestampFormat, ts)
	if err != nil {
		return ts
	}
	return t.Format("2006-01-02 15:04:05")
}

func formatTimeOnly(ts string) string {
	t, err := time.Parse(TimestampFormat, ts)
	if err != nil {
		return ts
	}
	return t.Format("15:04:05")
}

func formatSummary(s Summary) string {
	kinds := make([]string, 0, len(s.ByKind))
	for k := range s.ByKind {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)

	parts := make([]string, 0, len(kinds))
	for _, k := range kinds {
		parts = append(parts, fmt.Sprintf("%d %s", s.ByKind[k], k))
	}

	return fmt.Sprintf("Summary: %d events, %d threads, %d suspended | %s\n",
		s.Total, s.Threads, s.Suspended, strings.Join(parts, ", "))
}
