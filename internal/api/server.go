// Package api exposes the journey pipeline over HTTP.
//
// The server wraps a pipeline.Runner and optional event source and snapshot
// store. Requests either carry their own event batch or lean on the
// configured source; results come back as JSON with the same graph and
// layout documents the CLI writes to disk.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	perrors "github.com/pageflowhq/pageflow/pkg/errors"
	"github.com/pageflowhq/pageflow/pkg/pipeline"
	"github.com/pageflowhq/pageflow/pkg/source"
	"github.com/pageflowhq/pageflow/pkg/store"
)

// Server handles HTTP requests for the journey pipeline.
// Source and Store are optional; endpoints that need a missing dependency
// respond with 503.
type Server struct {
	runner *pipeline.Runner
	source source.Source
	store  store.Store
	logger *log.Logger
}

// NewServer creates a server. Runner must be non-nil; src and st may be nil.
func NewServer(runner *pipeline.Runner, src source.Source, st store.Store, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		runner: runner,
		source: src,
		store:  st,
		logger: logger,
	}
}

// Router builds the HTTP route tree.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/graph", s.handleGraph)
		r.Post("/paths", s.handlePaths)

		r.Route("/snapshots", func(r chi.Router) {
			r.Get("/", s.handleListSnapshots)
			r.Post("/", s.handleSaveSnapshot)
			r.Get("/{id}", s.handleGetSnapshot)
			r.Delete("/{id}", s.handleDeleteSnapshot)
			r.Get("/{id}/svg", s.handleSnapshotSVG)
		})
	})

	return r
}

// logRequests emits one structured log line per request.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).Round(time.Millisecond),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeJSON serializes v with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorResponse is the JSON body for failed requests.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// writeError maps domain errors to HTTP status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	code := perrors.GetCode(err)

	switch {
	case errors.Is(err, store.ErrNotFound), code == perrors.ErrCodeNotFound,
		code == perrors.ErrCodeNodeNotFound, code == perrors.ErrCodeSnapshotNotFound:
		status = http.StatusNotFound
	case errors.Is(err, store.ErrEmptyID):
		status = http.StatusBadRequest
	case code == perrors.ErrCodeInvalidInput, code == perrors.ErrCodeInvalidThreshold,
		code == perrors.ErrCodeInvalidLayoutMode, code == perrors.ErrCodeInvalidCanvas,
		code == perrors.ErrCodeInvalidPath, code == perrors.ErrCodeInvalidWindow:
		status = http.StatusBadRequest
	case code == perrors.ErrCodeSource:
		status = http.StatusBadGateway
	case code == perrors.ErrCodeTimeout:
		status = http.StatusGatewayTimeout
	}

	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	writeJSON(w, status, errorResponse{Error: perrors.UserMessage(err), Code: string(code)})
}
