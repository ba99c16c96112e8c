// Package dispatch fans decoded events out to configured webhook sinks.
package dispatch

import (
	"encoding/json"
	"fmt"

	"github.com/jdwptap/jdwptap/jdwp"
)

// SinkConfig defines a webhook destination for decoded events.
type SinkConfig struct {
	URL     string            `yaml:"url"     json:"url"`
	Format  string            `yaml:"format"  json:"format"` // "generic", "slack"
	Kinds   []string          `yaml:"kinds"   json:"kinds"`  // ["BREAKPOINT", ...]; empty matches every kind
	Headers map[string]string `yaml:"headers" json:"headers"`
}

// Notification is the payload sent to sink endpoints: one decoded event with
// enough context to act on it without opening the journal.
type Notification struct {
	Timestamp string          `json:"timestamp"`
	Session   string          `json:"session"`
	Suspend   string          `json:"suspend"`
	Kind      string          `json:"kind"`
	RequestID int32           `json:"request_id"`
	Thread    uint64          `json:"thread,omitempty"`
	Summary   string          `json:"summary"`
	Event     json.RawMessage `json:"event"`
}

// NewNotification builds the sink payload for one decoded event.
func NewNotification(timestamp, session string, policy jdwp.SuspendPolicy, ev jdwp.Event) (Notification, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return Notification{}, fmt.Errorf("dispatch: marshal event: %w", err)
	}
	n := Notification{
		Timestamp: timestamp,
		Session:   session,
		Suspend:   policy.String(),
		Kind:      ev.Kind().String(),
		RequestID: jdwp.RequestIDOf(ev),
		Summary:   jdwp.Describe(ev),
		Event:     payload,
	}
	if thread, ok := jdwp.ThreadOf(ev); ok {
		n.Thread = uint64(thread)
	}
	return n, nil
}
