package audio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"

	"vidsub/internal/services"
)

// FFmpegCommand is the default extractor binary.
const FFmpegCommand = "ffmpeg"

const (
	sampleRate = "16000"
	channels   = "1"
	codec      = "pcm_s16le"
)

// Runner executes an external command. Implementations must honour ctx
// cancellation and include the command's diagnostic output in the error.
type Runner func(ctx context.Context, name string, args ...string) error

// Extractor converts a video into a temporary WAV file.
type Extractor struct {
	// FFmpeg is the binary name or path. Empty means "ffmpeg".
	FFmpeg string
	// TempDir holds the extracted audio. Empty means os.TempDir().
	TempDir string
	// Runner overrides command execution (for tests).
	Runner Runner
}

// TempAudio is an extracted audio file that is removed on Close.
type TempAudio struct {
	Path string

	once sync.Once
	err  error
}

// Close removes the temporary file. It is safe to call more than once.
func (a *TempAudio) Close() error {
	if a == nil {
		return nil
	}
	a.once.Do(func() {
		if err := os.Remove(a.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			a.err = fmt.Errorf("remove temp audio: %w", err)
		}
	})
	return a.err
}

// Extract runs ffmpeg against videoPath and returns the extracted audio.
func (e *Extractor) Extract(ctx context.Context, videoPath string) (*TempAudio, error) {
	if strings.TrimSpace(videoPath) == "" {
		return nil, services.Wrap(services.ErrExtraction, "extract", "validate input", "video path is empty", nil)
	}

	pattern := "vidsub-*.wav"
	if id, ok := services.RunIDFromContext(ctx); ok {
		pattern = "vidsub-" + id + "-*.wav"
	}
	file, err := os.CreateTemp(e.TempDir, pattern)
	if err != nil {
		return nil, services.Wrap(services.ErrIO, "extract", "create temp audio", "", err)
	}
	dest := file.Name()
	_ = file.Close()
	audio := &TempAudio{Path: dest}

	binary := e.binary()
	if err := e.run(ctx, binary, BuildArgs(videoPath, dest)...); err != nil {
		_ = audio.Close()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("extract audio: %w", ctxErr)
		}
		if errors.Is(err, exec.ErrNotFound) {
			return nil, services.Wrap(services.ErrExtraction, "extract", "run ffmpeg",
				fmt.Sprintf("%s not found; install ffmpeg or set tools.ffmpeg", binary), err)
		}
		return nil, services.Wrap(services.ErrExtraction, "extract", "run ffmpeg", "", err)
	}

	info, err := os.Stat(dest)
	if err != nil || info.Size() == 0 {
		_ = audio.Close()
		return nil, services.Wrap(services.ErrExtraction, "extract", "verify output", "ffmpeg produced no audio", err)
	}
	return audio, nil
}

// BuildArgs returns the ffmpeg arguments that extract mono 16 kHz PCM from source.
func BuildArgs(source, dest string) []string {
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", source,
		"-vn",
		"-sn",
		"-dn",
		"-ac", channels,
		"-ar", sampleRate,
		"-c:a", codec,
		dest,
	}
}

func (e *Extractor) binary() string {
	if b := strings.TrimSpace(e.FFmpeg); b != "" {
		return b
	}
	return FFmpegCommand
}

func (e *Extractor) run(ctx context.Context, name string, args ...string) error {
	if e.Runner != nil {
		return e.Runner(ctx, name, args...)
	}
	return RunCommand(ctx, name, args...)
}

// RunCommand executes name with args and folds the combined output into the
// returned error.
func RunCommand(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	output, err := cmd.CombinedOutput()
	if err != nil {
		detail := strings.TrimSpace(string(output))
		if detail == "" {
			return fmt.Errorf("%s: %w", name, err)
		}
		return fmt.Errorf("%s: %w: %s", name, err, detail)
	}
	return nil
}
