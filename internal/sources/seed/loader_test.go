package seed

import (
	"os"
	"path/filepath"
	"testing"
)

func writeSeed(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write seed file: %v", err)
	}
	return path
}

func TestLoaderLoad(t *testing.T) {
	path := writeSeed(t, `---
videos:
  - title: Intro to Rust
    description: ownership and borrowing
    url: http://x/1
  - title: Go concurrency
    url: http://x/2
`)

	file, err := NewLoader(path).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(file.Videos) != 2 {
		t.Fatalf("Load() returned %d videos, want 2", len(file.Videos))
	}

	first := file.Videos[0]
	if first.Title != "Intro to Rust" || first.Description != "ownership and borrowing" || first.URL != "http://x/1" {
		t.Errorf("first entry = %+v", first)
	}
	if file.Videos[1].Description != "" {
		t.Errorf("missing description should stay empty, got %q", file.Videos[1].Description)
	}
}

func TestLoaderEmptyFile(t *testing.T) {
	file, err := NewLoader(writeSeed(t, "")).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(file.Videos) != 0 {
		t.Errorf("Load() on empty file returned %d videos", len(file.Videos))
	}
}

func TestLoaderRejectsUnknownFields(t *testing.T) {
	path := writeSeed(t, `videos:
  - title: x
    id: 12
`)

	if _, err := NewLoader(path).Load(); err == nil {
		t.Error("Load() should reject an unknown field")
	}
}

func TestLoaderMissingFile(t *testing.T) {
	if _, err := NewLoader(filepath.Join(t.TempDir(), "nope.yaml")).Load(); err == nil {
		t.Error("Load() should fail for a missing file")
	}
}

func TestLoaderInvalidYAML(t *testing.T) {
	if _, err := NewLoader(writeSeed(t, "videos: [unterminated")).Load(); err == nil {
		t.Error("Load() should fail on invalid yaml")
	}
}
