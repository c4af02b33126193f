package pipeline

import (
	"context"
	"io"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/pageflowhq/pageflow/pkg/cache"
	perrors "github.com/pageflowhq/pageflow/pkg/errors"
	"github.com/pageflowhq/pageflow/pkg/events"
)

func quietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

// testBatch produces two sessions covering / -> /a, with /a -> /b in one.
func testBatch() []events.RawEvent {
	return []events.RawEvent{
		{SessionID: "s1", Path: "/", EventType: "page_view", Timestamp: 1000, Count: 1},
		{SessionID: "s1", Path: "/a", EventType: "page_view", Timestamp: 2000, Count: 1},
		{SessionID: "s1", Path: "/b", EventType: "page_view", Timestamp: 3000, Count: 1},
		{SessionID: "s2", Path: "/", EventType: "page_view", Timestamp: 1500, Count: 1},
		{SessionID: "s2", Path: "/a", EventType: "page_view", Timestamp: 2500, Count: 1},
	}
}

func TestValidateAndSetDefaults(t *testing.T) {
	var opts Options
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults: %v", err)
	}
	if opts.Threshold != DefaultThreshold {
		t.Errorf("Threshold = %d, want %d", opts.Threshold, DefaultThreshold)
	}
	if opts.Mode != DefaultMode {
		t.Errorf("Mode = %q, want %q", opts.Mode, DefaultMode)
	}
	if opts.Width != DefaultWidth || opts.Height != DefaultHeight {
		t.Errorf("canvas = %gx%g, want %gx%g", opts.Width, opts.Height, DefaultWidth, DefaultHeight)
	}
	if opts.EntryPath != DefaultEntryPath {
		t.Errorf("EntryPath = %q, want %q", opts.EntryPath, DefaultEntryPath)
	}
	if opts.MaxDepth != DefaultMaxDepth || opts.MaxPaths != DefaultMaxPaths {
		t.Errorf("path bounds = %d/%d", opts.MaxDepth, opts.MaxPaths)
	}
}

func TestValidateRejectsBadOptions(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		code perrors.Code
	}{
		{name: "negative threshold", opts: Options{Threshold: -1}, code: perrors.ErrCodeInvalidThreshold},
		{name: "bad mode", opts: Options{Mode: "spiral"}, code: perrors.ErrCodeInvalidLayoutMode},
		{name: "negative canvas", opts: Options{Width: -10}, code: perrors.ErrCodeInvalidCanvas},
		{name: "relative entry", opts: Options{EntryPath: "home"}, code: perrors.ErrCodeInvalidPath},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if !perrors.Is(err, tt.code) {
				t.Errorf("err = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestExecuteFullPipeline(t *testing.T) {
	runner := NewRunner(nil, nil, quietLogger())
	defer runner.Close()

	result, err := runner.Execute(context.Background(), testBatch(), Options{Threshold: 1})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if result.Stats.EventCount != 5 || result.Stats.SessionCount != 2 {
		t.Errorf("stats = %+v", result.Stats)
	}
	if result.Stats.NodeCount != 3 || result.Stats.EdgeCount != 2 {
		t.Errorf("graph shape: %d nodes, %d edges", result.Stats.NodeCount, result.Stats.EdgeCount)
	}
	if result.GraphHash == "" {
		t.Error("GraphHash not set")
	}
	if result.Layout.Mode != DefaultMode || len(result.Layout.Nodes) != 3 {
		t.Errorf("layout = %+v", result.Layout)
	}

	// Every node must be positioned.
	for _, n := range result.Graph.Nodes() {
		if n.Width == 0 || n.Height == 0 {
			t.Errorf("node %q not positioned", n.ID)
		}
	}

	// Metrics must be annotated.
	root, _ := result.Graph.Node("/")
	if root.UniqueSessions != 2 {
		t.Errorf("root unique sessions = %d, want 2", root.UniqueSessions)
	}
}

func TestExecuteThresholdPrunes(t *testing.T) {
	runner := NewRunner(nil, nil, quietLogger())
	defer runner.Close()

	result, err := runner.Execute(context.Background(), testBatch(), Options{Threshold: 3})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.Stats.NodeCount != 0 {
		t.Errorf("threshold 3 left %d nodes", result.Stats.NodeCount)
	}
}

func TestExecutePathsStage(t *testing.T) {
	runner := NewRunner(nil, nil, quietLogger())
	defer runner.Close()

	result, err := runner.Execute(context.Background(), testBatch(), Options{
		Threshold: 1,
		PathsRoot: "/",
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(result.Paths) != 1 {
		t.Fatalf("got %d paths, want 1", len(result.Paths))
	}
	p := result.Paths[0]
	if len(p) != 3 || p[0].ID != "/" || p[2].ID != "/b" {
		ids := make([]string, len(p))
		for i, n := range p {
			ids[i] = n.ID
		}
		t.Errorf("path = %v, want [/ /a /b]", ids)
	}
}

func TestExecuteUsesCache(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	runner := NewRunner(c, nil, quietLogger())
	defer runner.Close()

	ctx := context.Background()
	opts := Options{Threshold: 1}

	first, err := runner.Execute(ctx, testBatch(), opts)
	if err != nil {
		t.Fatalf("first Execute: %v", err)
	}
	if first.CacheInfo.BuildHit || first.CacheInfo.LayoutHit {
		t.Errorf("first run hit cache: %+v", first.CacheInfo)
	}

	second, err := runner.Execute(ctx, testBatch(), opts)
	if err != nil {
		t.Fatalf("second Execute: %v", err)
	}
	if !second.CacheInfo.BuildHit || !second.CacheInfo.LayoutHit {
		t.Errorf("second run missed cache: %+v", second.CacheInfo)
	}
	if second.GraphHash != first.GraphHash {
		t.Errorf("graph hash changed across cached runs")
	}

	// Refresh bypasses reads on both stages but still writes.
	refreshOpts := Options{Threshold: 1, Refresh: true}
	third, err := runner.Execute(ctx, testBatch(), refreshOpts)
	if err != nil {
		t.Fatalf("third Execute: %v", err)
	}
	if third.CacheInfo.BuildHit {
		t.Error("refresh run still hit graph cache")
	}
	if third.CacheInfo.LayoutHit {
		t.Error("refresh run still hit layout cache")
	}

	fourth, err := runner.Execute(ctx, testBatch(), opts)
	if err != nil {
		t.Fatalf("fourth Execute: %v", err)
	}
	if !fourth.CacheInfo.BuildHit || !fourth.CacheInfo.LayoutHit {
		t.Errorf("run after refresh missed cache: %+v", fourth.CacheInfo)
	}
}

func TestExecuteCacheKeySensitivity(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	runner := NewRunner(c, nil, quietLogger())
	defer runner.Close()

	ctx := context.Background()
	if _, err := runner.Execute(ctx, testBatch(), Options{Threshold: 1}); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	// Different threshold must not reuse the cached graph.
	result, err := runner.Execute(ctx, testBatch(), Options{Threshold: 2})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.CacheInfo.BuildHit {
		t.Error("different threshold reused cached graph")
	}
}

func TestExecuteEmptyBatch(t *testing.T) {
	runner := NewRunner(nil, nil, quietLogger())
	defer runner.Close()

	result, err := runner.Execute(context.Background(), nil, Options{})
	if err != nil {
		t.Fatalf("Execute on empty batch: %v", err)
	}
	if result.Stats.NodeCount != 0 || result.Stats.SessionCount != 0 {
		t.Errorf("stats = %+v", result.Stats)
	}
}
