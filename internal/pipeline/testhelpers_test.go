package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"vidsub/internal/config"
	"vidsub/internal/runconfig"
	"vidsub/internal/testsupport"
	"vidsub/internal/transcribe"
)

const helloJSON = testsupport.HelloTranscript

type testEnv struct {
	cfg       *config.Config
	outputDir string
	tempDir   string
	video     string
}

// newTestEnv prepares an isolated config with stubbed binaries on PATH and a
// placeholder input video.
func newTestEnv(t *testing.T, withFFmpeg bool) testEnv {
	t.Helper()
	stubs := []string{"ffmpeg", "uvx"}
	if !withFFmpeg {
		stubs = []string{"uvx"}
	}
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries(stubs...))
	return testEnv{
		cfg:       cfg,
		outputDir: cfg.Paths.OutputDir,
		tempDir:   cfg.Paths.TempDir,
		video:     testsupport.WriteVideo(t, filepath.Join(testsupport.BaseDir(cfg), "videos"), "sample.mp4"),
	}
}

func (e testEnv) resolve(t *testing.T) runconfig.Run {
	t.Helper()
	run, err := runconfig.Resolve(e.cfg, runconfig.Flags{VideoPath: e.video})
	if err != nil {
		t.Fatalf("resolve run: %v", err)
	}
	return run
}

// fakeEngine returns a deterministic engine and its launch counter.
func fakeEngine(payload string) (WhisperX, *testsupport.FakeEngine) {
	fe := &testsupport.FakeEngine{Payload: payload}
	return WhisperX{Runner: fe.Runner(), Probe: testsupport.NoGPU}, fe
}

var _ Transcriber = (*transcribe.Model)(nil)

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func assertNoEntries(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return
		}
		t.Fatalf("read dir: %v", err)
	}
	for _, e := range entries {
		t.Errorf("unexpected leftover %s", filepath.Join(dir, e.Name()))
	}
}
