// Package fingerprint turns extracted video frames into the 64-bit
// perceptual fingerprints the coverage core operates on. Video demuxing
// itself is out of scope: callers are expected to have already split a
// session's recording into frame image files, e.g. with ffmpeg, and
// point HashSession at that already-populated folder.
package fingerprint

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/corona10/goimagehash"
	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// Hasher computes perceptual fingerprints for frame images.
type Hasher struct{}

// NewHasher returns a Hasher.
func NewHasher() *Hasher {
	return &Hasher{}
}

// HashFrame opens path, decodes it as an image, and returns its
// perceptual hash packed MSB-first into a uint64. goimagehash already
// returns its 64-bit pHash in that packed form via GetHash, so this is
// a direct pass-through; the packing convention is noted here because
// it is the external contract any other frame-pipeline implementation
// must match to produce comparable fingerprints.
func (h *Hasher) HashFrame(path string) (uint64, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open frame: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return 0, fmt.Errorf("failed to decode frame: %w", err)
	}

	hash, err := goimagehash.PerceptionHash(img)
	if err != nil {
		return 0, fmt.Errorf("failed to compute perceptual hash: %w", err)
	}

	return hash.GetHash(), nil
}

// HashFrameWithTimeout hashes a frame with a timeout: a single slow or
// corrupt frame should not stall an entire session's ingestion.
func (h *Hasher) HashFrameWithTimeout(path string, timeout time.Duration) (uint64, error) {
	type result struct {
		hash uint64
		err  error
	}
	done := make(chan result, 1)

	go func() {
		hash, err := h.HashFrame(path)
		done <- result{hash, err}
	}()

	select {
	case r := <-done:
		return r.hash, r.err
	case <-time.After(timeout):
		return 0, fmt.Errorf("timeout hashing frame: %s", path)
	}
}

// frameProvenance reports whether a frame image carries EXIF metadata.
// This is purely informational: a session manifest log line notes
// whether EXIF metadata was present, but it never
// influences the fingerprint or feeds the clustering core.
func frameProvenance(path string) bool {
	file, err := os.Open(path)
	if err != nil {
		return false
	}
	defer file.Close()

	_, err = exif.Decode(file)
	return err == nil
}

// IsSupportedFrame reports whether path has a frame-image extension the
// decoder pipeline understands.
func IsSupportedFrame(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp":
		return true
	default:
		return false
	}
}

// FrameResult is one hashed frame, including whether it carried
// provenance metadata.
type FrameResult struct {
	Path    string
	Hash    uint64
	HasExif bool
}

// sessionConfig holds HashSession's tunables, set via SessionOption.
type sessionConfig struct {
	frameTimeout time.Duration
	progressFn   func(hashed, total int, current string)
}

// SessionOption configures HashSession.
type SessionOption func(*sessionConfig)

// WithFrameTimeout overrides the per-frame hashing timeout (default 30s).
func WithFrameTimeout(d time.Duration) SessionOption {
	return func(c *sessionConfig) {
		c.frameTimeout = d
	}
}

// WithProgress sets a callback invoked after each frame is hashed (or
// skipped on error), reporting how many of the total have completed so
// far. The callback may be invoked concurrently from multiple workers.
func WithProgress(fn func(hashed, total int, current string)) SessionOption {
	return func(c *sessionConfig) {
		c.progressFn = fn
	}
}

// HashSession hashes every frame file directly inside dir (a single
// recorded session's extracted frames) across a worker pool. It does
// not recurse into subdirectories — a session is a flat sequence of
// frames, not a directory tree.
func HashSession(dir string, workers int, opts ...SessionOption) ([]FrameResult, error) {
	if workers <= 0 {
		workers = 8
	}

	cfg := sessionConfig{frameTimeout: 30 * time.Second}
	for _, opt := range opts {
		opt(&cfg)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read session directory: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		p := filepath.Join(dir, e.Name())
		if IsSupportedFrame(p) {
			paths = append(paths, p)
		}
	}
	if len(paths) == 0 {
		return nil, nil
	}

	work := make(chan string, len(paths))
	for _, p := range paths {
		work <- p
	}
	close(work)

	var (
		results   []FrameResult
		resultsMu sync.Mutex
		wg        sync.WaitGroup
		failed    int64
		hashed    int64
		total     = len(paths)
	)

	h := NewHasher()
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range work {
				hash, err := h.HashFrameWithTimeout(path, cfg.frameTimeout)
				if err != nil {
					atomic.AddInt64(&failed, 1)
					n := atomic.AddInt64(&hashed, 1)
					if cfg.progressFn != nil {
						cfg.progressFn(int(n), total, path)
					}
					continue
				}
				fr := FrameResult{
					Path:    path,
					Hash:    hash,
					HasExif: frameProvenance(path),
				}
				resultsMu.Lock()
				results = append(results, fr)
				resultsMu.Unlock()

				n := atomic.AddInt64(&hashed, 1)
				if cfg.progressFn != nil {
					cfg.progressFn(int(n), total, path)
				}
			}
		}()
	}
	wg.Wait()

	return results, nil
}
