// Package store provides snapshot persistence for computed journey graphs.
//
// A snapshot freezes one pipeline result (graph, layout, and the options
// that produced them) under a stable ID, so a visualization can be shared
// or revisited after the underlying events have rolled out of retention.
// Backends:
//   - memory: In-memory storage for development/testing
//   - file: File-based storage for CLI applications
//   - mongo: MongoDB-backed storage for server deployments
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/pageflowhq/pageflow/pkg/graph"
)

// Sentinel errors for snapshot operations.
var (
	// ErrNotFound is returned when a snapshot does not exist.
	ErrNotFound = errors.New("snapshot not found")

	// ErrEmptyID is returned when an operation is given a blank snapshot ID.
	ErrEmptyID = errors.New("empty snapshot id")
)

// Snapshot is one persisted pipeline result.
type Snapshot struct {
	ID        string       `json:"id" bson:"id"`
	Name      string       `json:"name,omitempty" bson:"name,omitempty"`
	CreatedAt time.Time    `json:"created_at" bson:"created_at"`
	Graph     graph.Graph  `json:"graph" bson:"graph"`
	Layout    graph.Layout `json:"layout" bson:"layout"`

	// Build inputs, kept for provenance.
	Threshold int    `json:"threshold" bson:"threshold"`
	EntryPath string `json:"entry_path,omitempty" bson:"entry_path,omitempty"`
}

// New creates a snapshot with a fresh UUID and the current time.
func New(name string, g graph.Graph, l graph.Layout) *Snapshot {
	return &Snapshot{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
		Graph:     g,
		Layout:    l,
	}
}

// Store is the interface for snapshot storage backends.
type Store interface {
	// Save persists a snapshot, replacing any existing one with the same ID.
	Save(ctx context.Context, s *Snapshot) error

	// Get retrieves a snapshot by ID.
	// Returns ErrNotFound if it does not exist.
	Get(ctx context.Context, id string) (*Snapshot, error)

	// List returns all snapshots, newest first.
	List(ctx context.Context) ([]*Snapshot, error)

	// Delete removes a snapshot. Deleting a missing ID returns ErrNotFound.
	Delete(ctx context.Context, id string) error

	// Close releases backend resources.
	Close(ctx context.Context) error
}
