package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/pageflowhq/pageflow/pkg/events"
	"github.com/pageflowhq/pageflow/pkg/graph"
	"github.com/pageflowhq/pageflow/pkg/pipeline"
	"github.com/pageflowhq/pageflow/pkg/source"
	"github.com/pageflowhq/pageflow/pkg/store"
)

func testServer(t *testing.T) (*Server, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore()
	logger := log.NewWithOptions(io.Discard, log.Options{})
	runner := pipeline.NewRunner(nil, nil, logger)
	return NewServer(runner, nil, st, logger), st
}

func testBatch() []events.RawEvent {
	return []events.RawEvent{
		{SessionID: "s1", Path: "/", EventType: "page_view", Timestamp: 1000, Count: 1},
		{SessionID: "s1", Path: "/pricing", EventType: "page_view", Timestamp: 2000, Count: 1},
		{SessionID: "s2", Path: "/", EventType: "page_view", Timestamp: 1500, Count: 1},
		{SessionID: "s2", Path: "/pricing", EventType: "page_view", Timestamp: 2500, Count: 1},
	}
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	srv, _ := testServer(t)
	rec := doJSON(t, srv.Router(), http.MethodGet, "/healthz", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestGraphEndpoint(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.Router()

	req := graphRequest{
		Events:  testBatch(),
		Options: pipeline.Options{Threshold: 1},
	}
	rec := doJSON(t, router, http.MethodPost, "/api/graph", req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp graphResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Graph.Nodes) != 2 {
		t.Errorf("nodes = %d, want 2", len(resp.Graph.Nodes))
	}
	if len(resp.Graph.Edges) != 1 {
		t.Errorf("edges = %d, want 1", len(resp.Graph.Edges))
	}
	if resp.Hash == "" {
		t.Error("response should carry the graph hash")
	}
	if resp.Stats.Events != 4 || resp.Stats.Sessions != 2 {
		t.Errorf("stats = %+v, want 4 events / 2 sessions", resp.Stats)
	}
	if len(resp.Layout.Nodes) != 2 {
		t.Errorf("layout nodes = %d, want 2", len(resp.Layout.Nodes))
	}
}

func TestGraphEndpointWithPaths(t *testing.T) {
	srv, _ := testServer(t)

	req := graphRequest{
		Events:  testBatch(),
		Options: pipeline.Options{Threshold: 1, PathsRoot: "/"},
	}
	rec := doJSON(t, srv.Router(), http.MethodPost, "/api/graph", req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var resp graphResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Paths) == 0 {
		t.Fatal("expected at least one journey")
	}
	if resp.Paths[0][0] != "/" {
		t.Errorf("journey root = %q, want /", resp.Paths[0][0])
	}
}

func TestGraphEndpointBadRequests(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.Router()

	tests := []struct {
		name string
		body any
		want int
	}{
		{
			name: "invalid threshold",
			body: graphRequest{Events: testBatch(), Options: pipeline.Options{Threshold: -1}},
			want: http.StatusBadRequest,
		},
		{
			name: "invalid mode",
			body: graphRequest{Events: testBatch(), Options: pipeline.Options{Mode: "circular"}},
			want: http.StatusBadRequest,
		},
		{
			name: "blank session id",
			body: graphRequest{
				Events:  []events.RawEvent{{SessionID: "", Path: "/", EventType: "page_view", Timestamp: 1000, Count: 1}},
				Options: pipeline.Options{Threshold: 1},
			},
			want: http.StatusBadRequest,
		},
		{
			name: "control characters in session id",
			body: graphRequest{
				Events:  []events.RawEvent{{SessionID: "s\x001", Path: "/", EventType: "page_view", Timestamp: 1000, Count: 1}},
				Options: pipeline.Options{Threshold: 1},
			},
			want: http.StatusBadRequest,
		},
		{
			name: "no source, no events",
			body: graphRequest{},
			want: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, router, http.MethodPost, "/api/graph", tt.body)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestGraphEndpointMalformedBody(t *testing.T) {
	srv, _ := testServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/graph", bytes.NewBufferString("{nope"))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestPathsEndpoint(t *testing.T) {
	srv, _ := testServer(t)

	g := graph.Graph{
		Nodes: []graph.Node{
			{ID: "/", Type: graph.TypeStart, Visits: 2, UniqueSessions: 2},
			{ID: "/pricing", Type: graph.TypeIntermediate, Visits: 2, UniqueSessions: 2},
		},
		Edges: []graph.Edge{
			{From: "/", To: "/pricing", Count: 2, Sessions: 2},
		},
	}

	rec := doJSON(t, srv.Router(), http.MethodPost, "/api/paths", pathsRequest{Graph: g, Root: "/"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var resp pathsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Paths) != 1 {
		t.Fatalf("paths = %d, want 1", len(resp.Paths))
	}
	want := []string{"/", "/pricing"}
	for i, id := range want {
		if resp.Paths[0][i] != id {
			t.Errorf("paths[0][%d] = %q, want %q", i, resp.Paths[0][i], id)
		}
	}
}

func TestPathsEndpointUnknownRoot(t *testing.T) {
	srv, _ := testServer(t)

	g := graph.Graph{Nodes: []graph.Node{{ID: "/", Type: graph.TypeStart}}}
	rec := doJSON(t, srv.Router(), http.MethodPost, "/api/paths", pathsRequest{Graph: g, Root: "/ghost"})

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404: %s", rec.Code, rec.Body.String())
	}
}

func TestSnapshotLifecycle(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.Router()

	save := saveSnapshotRequest{
		Name: "launch week",
		Graph: graph.Graph{
			Nodes: []graph.Node{{ID: "/", Type: graph.TypeStart, Visits: 10}},
		},
		Layout:    graph.Layout{Mode: "layered", Width: 800, Height: 600, Nodes: []graph.Node{{ID: "/"}}},
		Threshold: 5,
	}
	rec := doJSON(t, router, http.MethodPost, "/api/snapshots/", save)
	if rec.Code != http.StatusCreated {
		t.Fatalf("save status = %d: %s", rec.Code, rec.Body.String())
	}

	var snap store.Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatal(err)
	}
	if snap.ID == "" {
		t.Fatal("saved snapshot should have an ID")
	}

	rec = doJSON(t, router, http.MethodGet, "/api/snapshots/", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var listed []store.Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &listed); err != nil {
		t.Fatal(err)
	}
	if len(listed) != 1 || listed[0].Name != "launch week" {
		t.Errorf("list = %+v, want one snapshot named 'launch week'", listed)
	}

	rec = doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/snapshots/%s", snap.ID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodDelete, fmt.Sprintf("/api/snapshots/%s", snap.ID), nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/snapshots/%s", snap.ID), nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", rec.Code)
	}
}

func TestSnapshotSaveRejectsEmptyGraph(t *testing.T) {
	srv, _ := testServer(t)
	rec := doJSON(t, srv.Router(), http.MethodPost, "/api/snapshots/", saveSnapshotRequest{Name: "empty"})

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestSnapshotEndpointsWithoutStore(t *testing.T) {
	logger := log.NewWithOptions(io.Discard, log.Options{})
	srv := NewServer(pipeline.NewRunner(nil, nil, logger), nil, nil, logger)

	rec := doJSON(t, srv.Router(), http.MethodGet, "/api/snapshots/", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

type windowRecorder struct {
	window source.Window
	batch  []events.RawEvent
}

func (f *windowRecorder) Fetch(_ context.Context, w source.Window) ([]events.RawEvent, error) {
	f.window = w
	return f.batch, nil
}

func (f *windowRecorder) Close() error { return nil }

func TestGraphEndpointFetchWindow(t *testing.T) {
	src := &windowRecorder{batch: testBatch()}
	logger := log.NewWithOptions(io.Discard, log.Options{})
	srv := NewServer(pipeline.NewRunner(nil, nil, logger), src, nil, logger)

	from := int64(1767225600000)
	to := int64(1767312000000)
	rec := doJSON(t, srv.Router(), http.MethodPost, "/api/graph", graphRequest{
		From:    from,
		To:      to,
		Options: pipeline.Options{Threshold: 1},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	if want := time.UnixMilli(from); !src.window.From.Equal(want) {
		t.Errorf("window.From = %v, want %v", src.window.From, want)
	}
	if want := time.UnixMilli(to); !src.window.To.Equal(want) {
		t.Errorf("window.To = %v, want %v", src.window.To, want)
	}
}

func TestGraphEndpointOpenWindow(t *testing.T) {
	src := &windowRecorder{batch: testBatch()}
	logger := log.NewWithOptions(io.Discard, log.Options{})
	srv := NewServer(pipeline.NewRunner(nil, nil, logger), src, nil, logger)

	rec := doJSON(t, srv.Router(), http.MethodPost, "/api/graph", graphRequest{
		Options: pipeline.Options{Threshold: 1},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	// Omitted bounds stay open so the source sees an unbounded fetch.
	if !src.window.From.IsZero() || !src.window.To.IsZero() {
		t.Errorf("window = %+v, want zero bounds", src.window)
	}
}
