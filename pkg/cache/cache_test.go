package cache

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFileCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	defer c.Close()

	if _, ok, err := c.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("Get on empty cache: ok=%v err=%v", ok, err)
	}

	want := []byte(`{"nodes":[]}`)
	if err := c.Set(ctx, "graph:abc", want, time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok, err := c.Get(ctx, "graph:abc")
	if err != nil || !ok {
		t.Fatalf("Get after Set: ok=%v err=%v", ok, err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("Get = %q, want %q", got, want)
	}

	if err := c.Delete(ctx, "graph:abc"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := c.Get(ctx, "graph:abc"); ok {
		t.Error("Get after Delete: still present")
	}
	if err := c.Delete(ctx, "graph:abc"); err != nil {
		t.Errorf("Delete of missing key: %v", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	defer c.Close()

	if err := c.Set(ctx, "short", []byte("x"), time.Nanosecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(10 * time.Millisecond)
	if _, ok, _ := c.Get(ctx, "short"); ok {
		t.Error("expired entry still served")
	}
}

func TestFileCacheClassDirectories(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	c, err := NewFileCache(dir)
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	defer c.Close()

	keys := map[string]string{
		"graph:aaa":                "graph",
		"layout:bbb":               "layout",
		"paths:ccc":                "paths",
		"site:shop-eu:layout:ddd":  "layout",
		"unrelated":                "misc",
		"other:namespace:entirely": "misc",
	}
	for key, class := range keys {
		if err := c.Set(ctx, key, []byte("x"), 0); err != nil {
			t.Fatalf("Set(%q): %v", key, err)
		}
		want := filepath.Join(dir, class, Hash([]byte(key))+".json")
		if _, err := os.Stat(want); err != nil {
			t.Errorf("key %q: expected entry at %s: %v", key, want, err)
		}
	}
}

func TestNullCacheAlwaysMisses(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	if err := c.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, ok, err := c.Get(ctx, "k"); ok || err != nil {
		t.Errorf("NullCache.Get: ok=%v err=%v", ok, err)
	}
}

func TestKeyerDeterministicAndSensitive(t *testing.T) {
	k := NewDefaultKeyer()
	opts := GraphKeyOpts{Threshold: 5, EntryPath: "/"}

	a := k.GraphKey("hash1", opts)
	b := k.GraphKey("hash1", opts)
	if a != b {
		t.Errorf("same inputs gave different keys: %q vs %q", a, b)
	}

	variants := []string{
		k.GraphKey("hash2", opts),
		k.GraphKey("hash1", GraphKeyOpts{Threshold: 6, EntryPath: "/"}),
		k.GraphKey("hash1", GraphKeyOpts{Threshold: 5, EntryPath: "/home"}),
		k.GraphKey("hash1", GraphKeyOpts{Threshold: 5, EntryPath: "/", TerminalPaths: []string{"/bye"}}),
	}
	for i, v := range variants {
		if v == a {
			t.Errorf("variant %d collided with base key", i)
		}
	}
}

func TestKeyerNamespaces(t *testing.T) {
	k := NewDefaultKeyer()
	g := k.GraphKey("h", GraphKeyOpts{})
	l := k.LayoutKey("h", LayoutKeyOpts{Mode: "layered", Width: 800, Height: 600})
	p := k.PathsKey("h", PathsKeyOpts{Root: "/", MaxDepth: 5, MaxPaths: 5})

	for key, prefix := range map[string]string{g: "graph:", l: "layout:", p: "paths:"} {
		if len(key) <= len(prefix) || key[:len(prefix)] != prefix {
			t.Errorf("key %q lacks prefix %q", key, prefix)
		}
	}
}

func TestScopedKeyer(t *testing.T) {
	base := NewDefaultKeyer()
	scoped := NewScopedKeyer(base, "site:shop-eu:")

	opts := GraphKeyOpts{Threshold: 5}
	want := "site:shop-eu:" + base.GraphKey("h", opts)
	if got := scoped.GraphKey("h", opts); got != want {
		t.Errorf("scoped key = %q, want %q", got, want)
	}
}

func TestTransientClassification(t *testing.T) {
	if transient(nil) != nil {
		t.Error("transient(nil) should stay nil")
	}
	if err := transient(context.Canceled); IsRetryable(err) {
		t.Error("cancellation must not be retried")
	}
	if err := transient(errors.New("connection reset")); !IsRetryable(err) {
		t.Error("backend fault should be retryable")
	}
}

func TestRetryWithBackoff(t *testing.T) {
	ctx := context.Background()

	permanent := errors.New("bad input")
	calls := 0
	err := RetryWithBackoff(ctx, func() error {
		calls++
		return permanent
	})
	if !errors.Is(err, permanent) || calls != 1 {
		t.Errorf("permanent error: calls=%d err=%v", calls, err)
	}

	calls = 0
	err = RetryWithBackoff(ctx, func() error {
		calls++
		if calls < 2 {
			return Retryable(errors.New("flaky"))
		}
		return nil
	})
	if err != nil || calls != 2 {
		t.Errorf("retryable error: calls=%d err=%v", calls, err)
	}
}
