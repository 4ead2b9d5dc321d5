package fingerprint

import (
	"os"
	"path/filepath"
	"testing"
)

func TestIsSupportedFrame(t *testing.T) {
	tests := []struct {
		path     string
		expected bool
	}{
		{"frame.jpg", true},
		{"frame.jpeg", true},
		{"frame.PNG", true},
		{"frame.gif", true},
		{"frame.webp", true},
		{"frame.bmp", true},
		{"notes.txt", false},
		{"clip.mp4", false},
		{"noextension", false},
		{"/path/to/frame.jpg", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := IsSupportedFrame(tt.path); got != tt.expected {
				t.Errorf("IsSupportedFrame(%q) = %v, want %v", tt.path, got, tt.expected)
			}
		})
	}
}

// minimalPNG is a 1x1 white pixel PNG, used to exercise the real decode +
// hash path without bundling test fixtures.
var minimalPNG = []byte{
	0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A,
	0x00, 0x00, 0x00, 0x0D, 0x49, 0x48, 0x44, 0x52,
	0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x02, 0x00, 0x00, 0x00, 0x90, 0x77, 0x53, 0xDE,
	0x00, 0x00, 0x00, 0x0C, 0x49, 0x44, 0x41, 0x54,
	0x08, 0xD7, 0x63, 0xF8, 0xFF, 0xFF, 0x3F, 0x00,
	0x05, 0xFE, 0x02, 0xFE, 0xDC, 0xCC, 0x59, 0xE7,
	0x00, 0x00, 0x00, 0x00, 0x49, 0x45, 0x4E, 0x44,
	0xAE, 0x42, 0x60, 0x82,
}

func writeTestFrame(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "frame.png")
	if err := os.WriteFile(path, minimalPNG, 0644); err != nil {
		t.Fatalf("failed to write test frame: %v", err)
	}
	return path
}

func TestHasher_SameFrame_IdenticalHash(t *testing.T) {
	path := writeTestFrame(t)
	h := NewHasher()

	h1, err := h.HashFrame(path)
	if err != nil {
		t.Fatalf("first HashFrame failed: %v", err)
	}
	h2, err := h.HashFrame(path)
	if err != nil {
		t.Fatalf("second HashFrame failed: %v", err)
	}

	if h1 != h2 {
		t.Errorf("hashing the same frame twice should be deterministic: %d != %d", h1, h2)
	}
}

func TestHashSession(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.png"), minimalPNG, 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "b.png"), minimalPNG, 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "ignore.txt"), []byte("not a frame"), 0644); err != nil {
		t.Fatal(err)
	}

	results, err := HashSession(dir, 2)
	if err != nil {
		t.Fatalf("HashSession failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 hashed frames, got %d", len(results))
	}
	if results[0].Hash != results[1].Hash {
		t.Error("identical frame images should hash identically")
	}
}

func TestHashSession_EmptyDir(t *testing.T) {
	dir := t.TempDir()
	results, err := HashSession(dir, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results != nil {
		t.Errorf("expected nil results for empty directory, got %v", results)
	}
}
