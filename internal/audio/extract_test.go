package audio

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"vidsub/internal/services"
)

const stubFFmpeg = `#!/bin/sh
for last; do :; done
printf 'RIFF0000WAVE' > "$last"
`

const failingFFmpeg = `#!/bin/sh
echo "sample.mp4: Invalid data found when processing input" >&2
exit 1
`

func writeStub(t *testing.T, dir, name, script string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return path
}

func assertEmptyDir(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected %s to be empty, found %d entries (first %s)", dir, len(entries), entries[0].Name())
	}
}

func TestExtractWithStubFFmpeg(t *testing.T) {
	binDir := t.TempDir()
	writeStub(t, binDir, "ffmpeg", stubFFmpeg)
	t.Setenv("PATH", binDir)

	tempDir := t.TempDir()
	ex := &Extractor{TempDir: tempDir}
	ctx := services.WithRunID(context.Background(), "run123")

	audio, err := ex.Extract(ctx, "sample.mp4")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if filepath.Dir(audio.Path) != tempDir {
		t.Fatalf("temp audio %q not under %q", audio.Path, tempDir)
	}
	base := filepath.Base(audio.Path)
	if !strings.HasPrefix(base, "vidsub-run123-") || !strings.HasSuffix(base, ".wav") {
		t.Fatalf("unexpected temp name %q", base)
	}
	if _, err := os.Stat(audio.Path); err != nil {
		t.Fatalf("expected extracted audio: %v", err)
	}

	if err := audio.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := audio.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	assertEmptyDir(t, tempDir)
}

func TestExtractArgs(t *testing.T) {
	var gotName string
	var gotArgs []string
	ex := &Extractor{
		FFmpeg:  "/opt/ffmpeg/bin/ffmpeg",
		TempDir: t.TempDir(),
		Runner: func(_ context.Context, name string, args ...string) error {
			gotName = name
			gotArgs = args
			return os.WriteFile(args[len(args)-1], []byte("RIFF"), 0o644)
		},
	}
	audio, err := ex.Extract(context.Background(), "/videos/in.mkv")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	defer audio.Close()

	if gotName != "/opt/ffmpeg/bin/ffmpeg" {
		t.Fatalf("binary = %q", gotName)
	}
	want := "-y -hide_banner -loglevel error -i /videos/in.mkv -vn -sn -dn -ac 1 -ar 16000 -c:a pcm_s16le " + audio.Path
	if got := strings.Join(gotArgs, " "); got != want {
		t.Fatalf("args = %q\nwant %q", got, want)
	}
}

func TestExtractMissingFFmpeg(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	tempDir := t.TempDir()
	ex := &Extractor{TempDir: tempDir}

	audio, err := ex.Extract(context.Background(), "sample.mp4")
	if err == nil {
		audio.Close()
		t.Fatal("expected error for missing ffmpeg")
	}
	if !errors.Is(err, services.ErrExtraction) {
		t.Fatalf("expected ErrExtraction, got %v", err)
	}
	if !strings.Contains(err.Error(), "ffmpeg not found") {
		t.Fatalf("expected not-found message, got %v", err)
	}
	assertEmptyDir(t, tempDir)
}

func TestExtractFFmpegFailure(t *testing.T) {
	binDir := t.TempDir()
	writeStub(t, binDir, "ffmpeg", failingFFmpeg)
	t.Setenv("PATH", binDir)
	tempDir := t.TempDir()
	ex := &Extractor{TempDir: tempDir}

	_, err := ex.Extract(context.Background(), "sample.mp4")
	if !errors.Is(err, services.ErrExtraction) {
		t.Fatalf("expected ErrExtraction, got %v", err)
	}
	if !strings.Contains(err.Error(), "Invalid data found") {
		t.Fatalf("expected ffmpeg diagnostics in error, got %v", err)
	}
	assertEmptyDir(t, tempDir)
}

func TestExtractEmptyOutput(t *testing.T) {
	tempDir := t.TempDir()
	ex := &Extractor{
		TempDir: tempDir,
		Runner:  func(context.Context, string, ...string) error { return nil },
	}
	_, err := ex.Extract(context.Background(), "silent.mp4")
	if !errors.Is(err, services.ErrExtraction) {
		t.Fatalf("expected ErrExtraction, got %v", err)
	}
	assertEmptyDir(t, tempDir)
}

func TestExtractCancelled(t *testing.T) {
	tempDir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	ex := &Extractor{
		TempDir: tempDir,
		Runner: func(ctx context.Context, _ string, _ ...string) error {
			cancel()
			return ctx.Err()
		},
	}
	_, err := ex.Extract(ctx, "sample.mp4")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	assertEmptyDir(t, tempDir)
}

func TestExtractEmptyPath(t *testing.T) {
	ex := &Extractor{TempDir: t.TempDir()}
	if _, err := ex.Extract(context.Background(), "  "); !errors.Is(err, services.ErrExtraction) {
		t.Fatalf("expected ErrExtraction, got %v", err)
	}
}
