// Package source provides event acquisition backends for the pipeline.
//
// A Source hands the engine its raw page-view events. The engine itself is
// transport-agnostic: it consumes whatever batch a Source produces. Backends:
//   - file: JSON event exports for CLI usage
//   - clickhouse: analytics warehouse queries for server deployments
package source

import (
	"context"
	"time"

	"github.com/pageflowhq/pageflow/pkg/events"
)

// Window bounds a fetch to a time range. Zero bounds are open-ended.
type Window struct {
	From time.Time
	To   time.Time
}

// Contains reports whether a Unix-millisecond timestamp falls in the window.
func (w Window) Contains(tsMillis int64) bool {
	ts := time.UnixMilli(tsMillis)
	if !w.From.IsZero() && ts.Before(w.From) {
		return false
	}
	if !w.To.IsZero() && ts.After(w.To) {
		return false
	}
	return true
}

// Source fetches raw page-view events for a time window.
type Source interface {
	// Fetch returns every event in the window. Order is not guaranteed;
	// the aggregator sorts per session.
	Fetch(ctx context.Context, w Window) ([]events.RawEvent, error)

	// Close releases backend resources.
	Close() error
}
