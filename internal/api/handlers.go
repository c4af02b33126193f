package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pageflowhq/pageflow/pkg/events"
	perrors "github.com/pageflowhq/pageflow/pkg/errors"
	"github.com/pageflowhq/pageflow/pkg/flow/paths"
	"github.com/pageflowhq/pageflow/pkg/graph"
	"github.com/pageflowhq/pageflow/pkg/pipeline"
	"github.com/pageflowhq/pageflow/pkg/render"
	"github.com/pageflowhq/pageflow/pkg/source"
	"github.com/pageflowhq/pageflow/pkg/store"
)

// =============================================================================
// Graph Endpoint
// =============================================================================

// graphRequest asks for a pipeline run. When Events is empty the configured
// event source is queried over [From, To].
type graphRequest struct {
	Events  []events.RawEvent `json:"events,omitempty"`
	From    int64             `json:"from,omitempty"`
	To      int64             `json:"to,omitempty"`
	Options pipeline.Options  `json:"options"`
}

// window converts the request's Unix-millisecond bounds into a fetch window.
// A zero bound stays open-ended.
func (r graphRequest) window() source.Window {
	var w source.Window
	if r.From != 0 {
		w.From = time.UnixMilli(r.From)
	}
	if r.To != 0 {
		w.To = time.UnixMilli(r.To)
	}
	return w
}

// graphResponse carries a complete pipeline result.
type graphResponse struct {
	Graph  graph.Graph  `json:"graph"`
	Hash   string       `json:"hash"`
	Layout graph.Layout `json:"layout"`
	Paths  [][]string   `json:"paths,omitempty"`
	Stats  statsJSON    `json:"stats"`
	Cached cacheJSON    `json:"cached"`
}

type statsJSON struct {
	Events      int     `json:"events"`
	Sessions    int     `json:"sessions"`
	Nodes       int     `json:"nodes"`
	Edges       int     `json:"edges"`
	AggregateMS float64 `json:"aggregate_ms"`
	BuildMS     float64 `json:"build_ms"`
	LayoutMS    float64 `json:"layout_ms"`
}

type cacheJSON struct {
	Graph  bool `json:"graph"`
	Layout bool `json:"layout"`
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	var req graphRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, perrors.Wrap(perrors.ErrCodeInvalidInput, err, "malformed request body"))
		return
	}

	// Inline events come straight from the client, so the identifiers that
	// end up in cache keys and logs are checked before the pipeline runs.
	for _, ev := range req.Events {
		if err := perrors.ValidateSessionID(ev.SessionID); err != nil {
			s.writeError(w, err)
			return
		}
	}

	batch := req.Events
	if len(batch) == 0 {
		if s.source == nil {
			writeJSON(w, http.StatusServiceUnavailable,
				errorResponse{Error: "no event source configured; send events inline"})
			return
		}
		var err error
		batch, err = s.source.Fetch(r.Context(), req.window())
		if err != nil {
			s.writeError(w, perrors.Wrap(perrors.ErrCodeSource, err, "fetch events"))
			return
		}
	}

	result, err := s.runner.Execute(r.Context(), batch, req.Options)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toGraphResponse(result))
}

func toGraphResponse(result *pipeline.Result) graphResponse {
	resp := graphResponse{
		Graph:  graph.FromFlow(result.Graph),
		Hash:   result.GraphHash,
		Layout: result.Layout,
		Stats: statsJSON{
			Events:      result.Stats.EventCount,
			Sessions:    result.Stats.SessionCount,
			Nodes:       result.Stats.NodeCount,
			Edges:       result.Stats.EdgeCount,
			AggregateMS: float64(result.Stats.AggregateTime.Microseconds()) / 1000,
			BuildMS:     float64(result.Stats.BuildTime.Microseconds()) / 1000,
			LayoutMS:    float64(result.Stats.LayoutTime.Microseconds()) / 1000,
		},
		Cached: cacheJSON{
			Graph:  result.CacheInfo.BuildHit,
			Layout: result.CacheInfo.LayoutHit,
		},
	}
	for _, p := range result.Paths {
		ids := make([]string, len(p))
		for i, n := range p {
			ids[i] = n.ID
		}
		resp.Paths = append(resp.Paths, ids)
	}
	return resp
}

// =============================================================================
// Paths Endpoint
// =============================================================================

// pathsRequest asks for a journey search over a previously built graph.
type pathsRequest struct {
	Graph    graph.Graph `json:"graph"`
	Root     string      `json:"root"`
	MaxDepth int         `json:"max_depth,omitempty"`
	MaxPaths int         `json:"max_paths,omitempty"`
}

type pathsResponse struct {
	Root  string     `json:"root"`
	Paths [][]string `json:"paths"`
}

func (s *Server) handlePaths(w http.ResponseWriter, r *http.Request) {
	var req pathsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, perrors.Wrap(perrors.ErrCodeInvalidInput, err, "malformed request body"))
		return
	}
	if err := perrors.ValidatePagePath(req.Root); err != nil {
		s.writeError(w, err)
		return
	}

	g, err := graph.ToFlow(req.Graph)
	if err != nil {
		s.writeError(w, perrors.Wrap(perrors.ErrCodeInvalidInput, err, "rebuild graph"))
		return
	}
	if _, ok := g.Node(req.Root); !ok {
		s.writeError(w, perrors.New(perrors.ErrCodeNodeNotFound, "page %q is not in the graph", req.Root))
		return
	}

	found := paths.Find(g, req.Root, paths.Options{MaxDepth: req.MaxDepth, MaxPaths: req.MaxPaths})
	resp := pathsResponse{Root: req.Root, Paths: [][]string{}}
	for _, p := range found {
		ids := make([]string, len(p))
		for i, n := range p {
			ids[i] = n.ID
		}
		resp.Paths = append(resp.Paths, ids)
	}
	writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// Snapshot Endpoints
// =============================================================================

// saveSnapshotRequest persists a computed result under a name.
type saveSnapshotRequest struct {
	Name      string       `json:"name"`
	Graph     graph.Graph  `json:"graph"`
	Layout    graph.Layout `json:"layout"`
	Threshold int          `json:"threshold,omitempty"`
	EntryPath string       `json:"entry_path,omitempty"`
}

func (s *Server) requireStore(w http.ResponseWriter) bool {
	if s.store == nil {
		writeJSON(w, http.StatusServiceUnavailable,
			errorResponse{Error: "no snapshot store configured"})
		return false
	}
	return true
}

func (s *Server) handleSaveSnapshot(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	var req saveSnapshotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, perrors.Wrap(perrors.ErrCodeInvalidInput, err, "malformed request body"))
		return
	}
	if len(req.Graph.Nodes) == 0 {
		s.writeError(w, perrors.New(perrors.ErrCodeInvalidInput, "snapshot graph has no nodes"))
		return
	}

	snap := store.New(req.Name, req.Graph, req.Layout)
	snap.Threshold = req.Threshold
	snap.EntryPath = req.EntryPath
	if err := s.store.Save(r.Context(), snap); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

func (s *Server) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	snaps, err := s.store.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if snaps == nil {
		snaps = []*store.Snapshot{}
	}
	writeJSON(w, http.StatusOK, snaps)
}

func (s *Server) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	snap, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleDeleteSnapshot(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	if err := s.store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSnapshotSVG(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	snap, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	g, err := graph.ToFlow(snap.Graph)
	if err != nil {
		s.writeError(w, perrors.Wrap(perrors.ErrCodeInternal, err, "rebuild graph"))
		return
	}

	detailed := r.URL.Query().Get("detailed") == "true"
	svg, err := render.RenderSVG(render.ToDOT(g, render.Options{Detailed: detailed}))
	if err != nil {
		s.writeError(w, perrors.Wrap(perrors.ErrCodeInternal, err, "render svg"))
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = w.Write(svg)
}
