// Package events defines the raw analytics event model and the session
// aggregator that groups a flat event batch into ordered per-session
// sequences.
//
// Events arrive pre-fetched from an analytics store (see pkg/source) and are
// never mutated here. Aggregation is a pure transform: the same batch always
// produces the same session map, and malformed records are dropped silently
// because partial analytics data is expected in production.
package events

// RawEvent is one dimensioned record from the analytics store.
// Count carries the store-side aggregate for the (session, path, type,
// timestamp) dimension tuple.
type RawEvent struct {
	SessionID string `json:"session_id"`
	Path      string `json:"path"`
	EventType string `json:"event_type"`
	Timestamp int64  `json:"timestamp"` // Unix milliseconds
	Count     int    `json:"count"`
}

// PageView is a single step within a session: one visit to a path.
type PageView struct {
	Path      string
	EventType string
	Timestamp int64
	Count     int
}

// SessionSequence is the chronologically ordered list of page views for one
// session. Sequences are built per aggregation pass and discarded afterwards.
type SessionSequence []PageView
