package files

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSafePath_NoChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.hi.html")
	got, changed, err := SafePath(path)
	if err != nil {
		t.Fatalf("SafePath failed: %v", err)
	}
	if changed || got != path {
		t.Fatalf("expected %q unchanged, got %q (changed=%v)", path, got, changed)
	}
}

func TestSafePath_WithCollision(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.hi.html")
	for _, name := range []string{"index.hi.html", "index.hi_1.html"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0600); err != nil {
			t.Fatalf("failed to create file: %v", err)
		}
	}

	got, changed, err := SafePath(path)
	if err != nil {
		t.Fatalf("SafePath failed: %v", err)
	}
	if !changed || filepath.Base(got) != "index.hi_2.html" {
		t.Fatalf("expected index.hi_2.html, got %q (changed=%v)", got, changed)
	}
}

func TestSafePath_Empty(t *testing.T) {
	if _, _, err := SafePath(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}
