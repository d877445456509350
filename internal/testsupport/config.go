package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"vidsub/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.OutputDir = filepath.Join(base, "out")
	cfgVal.Paths.TempDir = filepath.Join(base, "tmp")
	cfgVal.Paths.CacheDir = filepath.Join(base, "cache")
	if err := os.MkdirAll(cfgVal.Paths.TempDir, 0o755); err != nil {
		t.Fatalf("mkdir temp dir: %v", err)
	}

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithCache enables the transcript cache under the test's cache directory.
func WithCache() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Cache.Enabled = true
		if err := b.cfg.EnsureCacheDir(); err != nil {
			b.t.Fatalf("ensure cache dir: %v", err)
		}
	}
}

// WithDevice sets the transcription device and compute type.
func WithDevice(device, computeType string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Transcription.Device = device
		b.cfg.Transcription.ComputeType = computeType
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// makes their directory the whole PATH, so anything not stubbed is missing.
// If names is empty, ffmpeg and uvx are stubbed. The ffmpeg stub writes a
// few bytes to its last argument, the way a real extraction would.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffmpeg", "uvx"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		for _, name := range names {
			script := StubScript
			if name == "ffmpeg" {
				script = FFmpegStubScript
			}
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, []byte(script), 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}
		b.t.Setenv("PATH", binDir)
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.OutputDir)
}
