package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

const (
	// StubScript is an executable that succeeds without doing anything.
	StubScript = "#!/bin/sh\nexit 0\n"
	// FFmpegStubScript writes a WAV-looking header to its final argument.
	FFmpegStubScript = "#!/bin/sh\nfor last; do :; done\nprintf 'RIFF0000WAVEfmt ' > \"$last\"\n"
)

// WriteVideo creates a placeholder input video and returns its path.
func WriteVideo(t testing.TB, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte("placeholder video"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// ListDir returns the entry names of dir, failing the test on read errors.
func ListDir(t testing.TB, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir %s: %v", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}
