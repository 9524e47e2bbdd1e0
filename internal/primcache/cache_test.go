package primcache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/yungbote/kydy-backend/internal/logger"
	"github.com/yungbote/kydy-backend/internal/types"
)

func testLogger() *logger.Logger {
	return &logger.Logger{SugaredLogger: zap.NewNop().Sugar()}
}

func testEntry(body string) Entry {
	return Entry{SVG: body, Provenance: types.ProvenanceFallback, CreatedAt: time.Now().UTC()}
}

func TestCachePutGet(t *testing.T) {
	cache, err := New(NewMemStore(), testLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	key := Key("resistor", map[string]any{"value": "10kΩ"}, "v1")
	if _, ok := cache.Get(key); ok {
		t.Fatalf("unexpected hit on empty cache")
	}
	if err := cache.Put(context.Background(), key, testEntry("<svg></svg>")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	entry, ok := cache.Get(key)
	if !ok || entry.SVG != "<svg></svg>" {
		t.Fatalf("Get after Put: ok=%v entry=%+v", ok, entry)
	}
	if cache.Len() != 1 {
		t.Fatalf("Len = %d, want 1", cache.Len())
	}
}

func TestCachePutIdempotent(t *testing.T) {
	cache, err := New(NewMemStore(), testLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	key := Key("graph", nil, "v1")
	if err := cache.Put(context.Background(), key, testEntry("first")); err != nil {
		t.Fatalf("first Put: %v", err)
	}
	if err := cache.Put(context.Background(), key, testEntry("second")); err != nil {
		t.Fatalf("second Put should be a no-op success, got %v", err)
	}
	entry, _ := cache.Get(key)
	if entry.SVG != "first" {
		t.Fatalf("existing entry overwritten: %q", entry.SVG)
	}
}

func TestCachePutStoreFailureKeepsEntry(t *testing.T) {
	store := NewMemStore()
	cache, err := New(store, testLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	store.FailPuts(errors.New("disk full"))
	key := Key("battery", nil, "v1")
	if err := cache.Put(context.Background(), key, testEntry("<svg></svg>")); err == nil {
		t.Fatalf("expected error from failing store")
	}
	if _, ok := cache.Get(key); !ok {
		t.Fatalf("in-memory entry lost on store failure")
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	store := NewFileStore(path, testLogger())

	cache, err := New(store, testLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	key := Key("resistor", map[string]any{"value": "220Ω"}, "v1")
	if err := cache.Put(context.Background(), key, testEntry("<svg>r</svg>")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	// Fresh store and cache over the same file.
	reloaded, err := New(NewFileStore(path, testLogger()), testLogger())
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	entry, ok := reloaded.Get(key)
	if !ok || entry.SVG != "<svg>r</svg>" {
		t.Fatalf("entry lost across restart: ok=%v entry=%+v", ok, entry)
	}
}

func TestFileStoreSkipsCorruptEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	doc := `{
  "goodkey": {"svg": "<svg></svg>", "provenance": "fallback", "created_at": "2026-01-02T03:04:05Z"},
  "badkey": 42,
  "emptykey": {"svg": "", "provenance": "fallback"}
}`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	entries, err := NewFileStore(path, testLogger()).Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1 (corrupt ones skipped)", len(entries))
	}
	if _, ok := entries["goodkey"]; !ok {
		t.Fatalf("good entry missing")
	}
}

func TestFileStoreUnreadableDocumentStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	if err := os.WriteFile(path, []byte("{{{not json"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}
	entries, err := NewFileStore(path, testLogger()).Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("got %d entries, want 0", len(entries))
	}
}

func TestFileStoreMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.json")
	entries, err := NewFileStore(path, testLogger()).Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("got %d entries, want 0", len(entries))
	}
}
