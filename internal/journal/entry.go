package journal

import "encoding/json"

// Entry is one line in the append-only JSONL event journal: one decoded
// event together with where it came from. All fields are typed (no
// map[string]any) to keep json.Marshal field order deterministic.
type Entry struct {
	Seq       uint64          `json:"seq"`
	Timestamp string          `json:"ts"`
	Session   string          `json:"session"`
	Packet    uint64          `json:"packet"`
	Index     int             `json:"index"`
	Suspend   string          `json:"suspend"`
	Kind      string          `json:"kind"`
	RequestID int32           `json:"request_id"`
	Thread    uint64          `json:"thread,omitempty"`
	Event     json.RawMessage `json:"event"`
}
