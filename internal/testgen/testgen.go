// Package testgen provides utilities for generating small video fixture
// files with configurable metadata for testing the upload pipeline.
package testgen

import (
	"os"
	"path/filepath"
	"testing"
)

// MP4Options configures the generated MP4 file.
type MP4Options struct {
	DurationMS int64  // movie duration; 0 omits the moov box entirely
	Timescale  uint32 // defaults to 1000 units per second
}

// GenerateMP4 writes a minimal MP4 file at dir/filename and returns its path.
func GenerateMP4(t *testing.T, dir, filename string, opts MP4Options) string {
	t.Helper()

	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, MP4Bytes(opts), 0600); err != nil {
		t.Fatalf("failed to write mp4 fixture: %v", err)
	}
	return path
}
