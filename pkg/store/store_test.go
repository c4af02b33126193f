package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pageflowhq/pageflow/pkg/graph"
)

func sampleSnapshot(name string) *Snapshot {
	g := graph.Graph{
		Nodes: []graph.Node{{ID: "/", Type: graph.TypeStart, Visits: 2, UniqueSessions: 2}},
	}
	l := graph.Layout{Mode: "layered", Width: 800, Height: 600, Nodes: g.Nodes}
	return New(name, g, l)
}

// stores under test share one contract; mongo needs a live server and is
// covered by the same suite in integration environments.
func testStores(t *testing.T) map[string]Store {
	t.Helper()
	fs, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	return map[string]Store{
		"memory": NewMemoryStore(),
		"file":   fs,
	}
}

func TestNewSnapshot(t *testing.T) {
	a := sampleSnapshot("week 34")
	b := sampleSnapshot("week 34")
	if a.ID == "" || a.ID == b.ID {
		t.Errorf("snapshot IDs not unique: %q vs %q", a.ID, b.ID)
	}
	if a.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}
}

func TestStoreCRUD(t *testing.T) {
	ctx := context.Background()
	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			snap := sampleSnapshot("checkout funnel")

			if err := s.Save(ctx, snap); err != nil {
				t.Fatalf("Save: %v", err)
			}
			got, err := s.Get(ctx, snap.ID)
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if got.Name != "checkout funnel" || len(got.Graph.Nodes) != 1 {
				t.Errorf("Get = %+v", got)
			}

			if err := s.Delete(ctx, snap.ID); err != nil {
				t.Fatalf("Delete: %v", err)
			}
			if _, err := s.Get(ctx, snap.ID); !errors.Is(err, ErrNotFound) {
				t.Errorf("Get after Delete: err = %v, want ErrNotFound", err)
			}
			if err := s.Delete(ctx, snap.ID); !errors.Is(err, ErrNotFound) {
				t.Errorf("Delete of missing: err = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestStoreListNewestFirst(t *testing.T) {
	ctx := context.Background()
	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			old := sampleSnapshot("old")
			old.CreatedAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
			recent := sampleSnapshot("recent")
			recent.CreatedAt = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

			for _, snap := range []*Snapshot{old, recent} {
				if err := s.Save(ctx, snap); err != nil {
					t.Fatalf("Save: %v", err)
				}
			}

			list, err := s.List(ctx)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(list) != 2 || list[0].Name != "recent" || list[1].Name != "old" {
				names := make([]string, len(list))
				for i, snap := range list {
					names[i] = snap.Name
				}
				t.Errorf("List order = %v, want [recent old]", names)
			}
		})
	}
}

func TestStoreEmptyID(t *testing.T) {
	ctx := context.Background()
	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			if err := s.Save(ctx, &Snapshot{}); !errors.Is(err, ErrEmptyID) {
				t.Errorf("Save empty ID: err = %v", err)
			}
			if _, err := s.Get(ctx, ""); !errors.Is(err, ErrEmptyID) {
				t.Errorf("Get empty ID: err = %v", err)
			}
		})
	}
}

func TestMemoryStoreCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	snap := sampleSnapshot("mutable")
	if err := s.Save(ctx, snap); err != nil {
		t.Fatalf("Save: %v", err)
	}

	snap.Name = "changed after save"
	got, err := s.Get(ctx, snap.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "mutable" {
		t.Errorf("stored snapshot aliased caller memory: name = %q", got.Name)
	}
}
