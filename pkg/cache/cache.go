// Package cache provides the caching layer for computed journey graphs and
// layouts. Backends share one byte-oriented interface: a file cache for CLI
// usage, Redis for the server, and a null cache for tests and opt-outs.
// Keys are derived from the full set of inputs that shape a result, so any
// change to events, threshold, or layout options produces a distinct key.
package cache

import (
	"context"
	"time"
)

// Default TTLs per artifact class. Graphs are cheap to rebuild from events,
// layouts less so.
const (
	DefaultGraphTTL  = 1 * time.Hour
	DefaultLayoutTTL = 6 * time.Hour
)

// Cache is the backend-agnostic storage interface.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get retrieves a value. The second return is false on a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with a TTL. A non-positive TTL means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// GraphKeyOpts captures every input that shapes a built graph.
type GraphKeyOpts struct {
	Threshold     int
	EntryPath     string
	TerminalPaths []string
}

// LayoutKeyOpts captures every input that shapes a computed layout.
type LayoutKeyOpts struct {
	Mode   string
	Width  float64
	Height float64
}

// PathsKeyOpts captures every input that shapes a path search.
type PathsKeyOpts struct {
	Root     string
	MaxDepth int
	MaxPaths int
}

// Keyer derives cache keys from pipeline inputs.
// Implementations must be deterministic: same inputs, same key.
type Keyer interface {
	// GraphKey keys a built graph by the hash of its event batch plus the
	// build options.
	GraphKey(eventsHash string, opts GraphKeyOpts) string

	// LayoutKey keys a computed layout by the hash of its graph plus the
	// layout options.
	LayoutKey(graphHash string, opts LayoutKeyOpts) string

	// PathsKey keys a path search result by the hash of its graph plus the
	// search options.
	PathsKey(graphHash string, opts PathsKeyOpts) string
}

// DefaultKeyer hashes inputs into namespaced keys of the form
// "prefix:sha256hex".
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// GraphKey implements Keyer.
func (k *DefaultKeyer) GraphKey(eventsHash string, opts GraphKeyOpts) string {
	return hashKey("graph", eventsHash, opts.Threshold, opts.EntryPath, opts.TerminalPaths)
}

// LayoutKey implements Keyer.
func (k *DefaultKeyer) LayoutKey(graphHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", graphHash, opts.Mode, opts.Width, opts.Height)
}

// PathsKey implements Keyer.
func (k *DefaultKeyer) PathsKey(graphHash string, opts PathsKeyOpts) string {
	return hashKey("paths", graphHash, opts.Root, opts.MaxDepth, opts.MaxPaths)
}

// Ensure DefaultKeyer implements Keyer.
var _ Keyer = (*DefaultKeyer)(nil)
