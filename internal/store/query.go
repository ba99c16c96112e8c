package store

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Filter narrows a query. Zero fields match everything.
type Filter struct {
	Session   string
	Kind      string
	Thread    uint64
	RequestID int32
	Limit     int
}

func (f Filter) where() (string, []any) {
	var conds []string
	var args []any

	if f.Session != "" {
		conds = append(conds, "session = ?")
		args = append(args, f.Session)
	}
	if f.Kind != "" {
		conds = append(conds, "kind = ?")
		args = append(args, f.Kind)
	}
	if f.Thread != 0 {
		conds = append(conds, "thread = ?")
		args = append(args, int64(f.Thread))
	}
	if f.RequestID != 0 {
		conds = append(conds, "request_id = ?")
		args = append(args, f.RequestID)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// Query returns records matching the filter in insertion order.
func (s *Store) Query(f Filter) ([]Record, error) {
	q := `SELECT id, session, packet, idx, ts, suspend, kind, request_id, thread, payload FROM events`
	where, args := f.where()
	q += where + " ORDER BY id"
	if f.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("store: query events: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		var packet, thread int64
		var payload string
		err := rows.Scan(
			&rec.ID, &rec.Session, &packet, &rec.Index, &rec.Timestamp,
			&rec.Suspend, &rec.Kind, &rec.RequestID, &thread, &payload,
		)
		if err != nil {
			return nil, fmt.Errorf("store: scan event: %w", err)
		}
		rec.Packet = uint64(packet)
		rec.Thread = uint64(thread)
		rec.Payload = json.RawMessage(payload)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate events: %w", err)
	}
	return out, nil
}

// Count tallies stored events by kind name. Empty session counts every
// session.
func (s *Store) Count(session string) (map[string]int, error) {
	q := `SELECT kind, COUNT(*) FROM events`
	var args []any
	if session != "" {
		q += " WHERE session = ?"
		args = append(args, session)
	}
	q += " GROUP BY kind"

	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("store: count events: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, fmt.Errorf("store: scan count: %w", err)
		}
		counts[kind] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate counts: %w", err)
	}
	return counts, nil
}
