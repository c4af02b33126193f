package source

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	perrors "github.com/pageflowhq/pageflow/pkg/errors"
	"github.com/pageflowhq/pageflow/pkg/events"
	"github.com/pageflowhq/pageflow/pkg/observability"
)

// FileSource reads events from a JSON export, either a top-level array or
// an object with an "events" field. Intended for CLI usage against dumps
// from an analytics backend.
type FileSource struct {
	path string
}

// NewFileSource creates a source backed by a JSON file.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// fileEnvelope accepts the object form of an export.
type fileEnvelope struct {
	Events []events.RawEvent `json:"events"`
}

// Fetch reads the file and returns the events inside the window.
func (s *FileSource) Fetch(ctx context.Context, w Window) ([]events.RawEvent, error) {
	observability.Source().OnFetchStart(ctx, "file")
	start := time.Now()

	out, err := s.fetch(w)
	if err != nil {
		observability.Source().OnFetchError(ctx, "file", err)
		return nil, err
	}
	observability.Source().OnFetchComplete(ctx, "file", len(out), time.Since(start))
	return out, nil
}

func (s *FileSource) fetch(w Window) ([]events.RawEvent, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, perrors.Wrap(perrors.ErrCodeFileNotFound, err, "events file %s", s.path)
	}
	if err != nil {
		return nil, fmt.Errorf("read events file %s: %w", s.path, err)
	}

	var batch []events.RawEvent
	if err := json.Unmarshal(data, &batch); err != nil {
		var env fileEnvelope
		if err2 := json.Unmarshal(data, &env); err2 != nil {
			return nil, fmt.Errorf("parse events file %s: %w", s.path, err)
		}
		batch = env.Events
	}

	out := batch[:0:0]
	for _, ev := range batch {
		if w.Contains(ev.Timestamp) {
			out = append(out, ev)
		}
	}
	return out, nil
}

// Close does nothing for file sources.
func (s *FileSource) Close() error { return nil }

var _ Source = (*FileSource)(nil)
