package services

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestRenderedStore(t *testing.T) RenderedStore {
	t.Helper()
	t.Setenv("RENDERED_DIR", t.TempDir())
	return NewFileRenderedStore(testLogger())
}

func TestRenderedStoreRoundTrip(t *testing.T) {
	store := newTestRenderedStore(t)

	if err := store.WriteLesson("abc", "<html>lesson</html>"); err != nil {
		t.Fatalf("WriteLesson: %v", err)
	}
	if err := store.WriteSession("xyz", "<html>session</html>"); err != nil {
		t.Fatalf("WriteSession: %v", err)
	}

	html, err := store.Read("lesson_abc.html")
	if err != nil || html != "<html>lesson</html>" {
		t.Fatalf("Read lesson: %v %q", err, html)
	}
	html, ok := store.ReadSession("xyz")
	if !ok || html != "<html>session</html>" {
		t.Fatalf("ReadSession: ok=%v %q", ok, html)
	}

	files, err := store.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("got %d files, want 2", len(files))
	}
	for _, f := range files {
		switch f.Type {
		case "lesson":
			if f.ID != "abc" || f.RenderURL != "/render/abc" {
				t.Fatalf("lesson entry wrong: %+v", f)
			}
		case "session":
			if f.ID != "xyz" || f.RenderURL != "/sessions/xyz/render" {
				t.Fatalf("session entry wrong: %+v", f)
			}
		default:
			t.Fatalf("unexpected type %q", f.Type)
		}
	}
}

func TestRenderedStoreRejectsTraversal(t *testing.T) {
	store := newTestRenderedStore(t)

	for _, name := range []string{"../secrets.html", "/etc/passwd", "notes.txt", "sub/dir.html"} {
		if _, err := store.Read(name); err == nil {
			t.Fatalf("Read(%q) should be rejected", name)
		}
	}
}

func TestRenderedStoreListEmpty(t *testing.T) {
	store := newTestRenderedStore(t)
	files, err := store.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(files) != 0 {
		t.Fatalf("expected empty list, got %d", len(files))
	}
}

func TestAssetStoreEnsure(t *testing.T) {
	t.Setenv("ASSETS_DIR", t.TempDir())
	store := NewFileAssetStore(testLogger())

	url, err := store.Ensure("resistor", "abcd1234", "<svg></svg>")
	if err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if url != "/assets/resistor_abcd1234.svg" {
		t.Fatalf("url = %q", url)
	}

	// Second call is a no-op on the same file.
	again, err := store.Ensure("resistor", "abcd1234", "<svg>different</svg>")
	if err != nil || again != url {
		t.Fatalf("repeat Ensure: %v %q", err, again)
	}
	if !strings.HasPrefix(again, "/assets/") {
		t.Fatalf("unexpected url %q", again)
	}
}

func TestAssetStoreRejectsUnsafeNames(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ASSETS_DIR", dir)
	store := NewFileAssetStore(testLogger())

	cases := []struct{ kind, assetID string }{
		{"../../escape", "deadbeef"},
		{"resistor", "../deadbeef"},
		{"resistor/..", "deadbeef"},
		{"", "deadbeef"},
		{"resistor", ""},
		{"Resistor", "deadbeef"},
	}
	for _, tc := range cases {
		if _, err := store.Ensure(tc.kind, tc.assetID, "<svg></svg>"); err == nil {
			t.Fatalf("Ensure(%q, %q) should be rejected", tc.kind, tc.assetID)
		}
	}

	// Nothing may have landed outside (or inside) the assets dir.
	if entries, err := os.ReadDir(dir); err == nil && len(entries) != 0 {
		t.Fatalf("unsafe Ensure wrote into assets dir: %v", entries)
	}
	parent, err := os.ReadDir(filepath.Dir(dir))
	if err != nil {
		t.Fatalf("ReadDir parent: %v", err)
	}
	for _, entry := range parent {
		if strings.HasSuffix(entry.Name(), ".svg") {
			t.Fatalf("unsafe Ensure escaped assets dir: %s", entry.Name())
		}
	}
}
