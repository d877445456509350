package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"vidsub/internal/pipeline"
	"vidsub/internal/services"
	"vidsub/internal/testsupport"
)

type cliTestEnv struct {
	baseDir   string
	outputDir string
	video     string
}

// setupCLITestEnv isolates HOME and the working directory so no real config
// file is picked up, and puts stub ffmpeg/uvx binaries on PATH.
func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	base := testsupport.BaseDir(cfg)
	home := filepath.Join(base, "home")
	work := filepath.Join(base, "work")
	for _, dir := range []string{home, work} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}
	t.Setenv("HOME", home)
	t.Setenv("HF_TOKEN", "")
	t.Setenv("HUGGING_FACE_HUB_TOKEN", "")
	t.Chdir(work)

	return &cliTestEnv{
		baseDir:   base,
		outputDir: cfg.Paths.OutputDir,
		video:     testsupport.WriteVideo(t, base, "sample.mp4"),
	}
}

func helloEngine() pipeline.WhisperX {
	fe := &testsupport.FakeEngine{Payload: testsupport.HelloTranscript}
	return pipeline.WhisperX{Runner: fe.Runner(), Probe: testsupport.NoGPU}
}

func runCLI(t *testing.T, args []string) (string, string, error) {
	t.Helper()
	cmd := newRootCommandWithEngine(helloEngine())
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func TestCLIGeneratesSubtitles(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{env.video, "--output-dir", env.outputDir, "--log-level", "error"})
	if err != nil {
		t.Fatalf("vidsub: %v", err)
	}
	requireContains(t, out, filepath.Join(env.outputDir, "sample.srt"))
	requireContains(t, out, "Segments: 1")
	requireContains(t, out, "Language: English (en)")

	srt, err := os.ReadFile(filepath.Join(env.outputDir, "sample.srt"))
	if err != nil {
		t.Fatalf("read srt: %v", err)
	}
	if string(srt) != "1\n00:00:00,000 --> 00:00:01,500\nHello world.\n\n" {
		t.Fatalf("unexpected srt %q", srt)
	}
	vtt, err := os.ReadFile(filepath.Join(env.outputDir, "sample.vtt"))
	if err != nil {
		t.Fatalf("read vtt: %v", err)
	}
	if string(vtt) != "WEBVTT\n\n00:00:00.000 --> 00:00:01.500\nHello world.\n\n" {
		t.Fatalf("unexpected vtt %q", vtt)
	}
}

func TestCLIOutputFlagWithDirectory(t *testing.T) {
	env := setupCLITestEnv(t)
	target := filepath.Join(env.baseDir, "subs", "movie.srt")

	if _, _, err := runCLI(t, []string{env.video, "-o", target, "--log-level", "error"}); err != nil {
		t.Fatalf("vidsub: %v", err)
	}
	for _, name := range []string{"movie.srt", "movie.vtt"} {
		if _, err := os.Stat(filepath.Join(env.baseDir, "subs", name)); err != nil {
			t.Fatalf("expected %s: %v", name, err)
		}
	}
}

func TestCLIRejectsInvalidArguments(t *testing.T) {
	env := setupCLITestEnv(t)
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"model", []string{env.video, "--model", "huge"}, "validate: invalid --model"},
		{"device", []string{env.video, "--device", "tpu"}, "validate: invalid --device"},
		{"compute type", []string{env.video, "--compute-type", "int4"}, "validate: invalid --compute-type"},
		{"missing video", []string{}, "a video path is required"},
		{"log level", []string{env.video, "--log-level", "loud"}, "invalid --log-level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := runCLI(t, tt.args)
			if !errors.Is(err, services.ErrInvalidArgument) {
				t.Fatalf("expected ErrInvalidArgument, got %v", err)
			}
			requireContains(t, err.Error(), tt.want)
		})
	}
	if _, err := os.Stat(env.outputDir); !os.IsNotExist(err) {
		t.Fatalf("invalid arguments must not create outputs (stat err %v)", err)
	}
}

func TestCLIModelLoadErrorNamesStage(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, []string{env.video, "--device", "cuda", "--output-dir", env.outputDir, "--log-level", "error"})
	if !errors.Is(err, services.ErrModelLoad) {
		t.Fatalf("expected ErrModelLoad, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "transcribe: model load error") {
		t.Fatalf("unexpected message %q", err.Error())
	}
	entries, _ := os.ReadDir(env.outputDir)
	if len(entries) != 0 {
		t.Fatalf("expected no outputs, found %d entries", len(entries))
	}
}

func TestCLIUnknownConfigFile(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, []string{"--config", filepath.Join(env.baseDir, "missing.toml"), env.video})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestConfigInitAndShow(t *testing.T) {
	env := setupCLITestEnv(t)
	target := filepath.Join(env.baseDir, "config.toml")

	out, _, err := runCLI(t, []string{"config", "init", "--path", target})
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")

	_, _, err = runCLI(t, []string{"config", "init", "--path", target})
	if err == nil {
		t.Fatal("expected refusal to overwrite existing config")
	}
	requireContains(t, err.Error(), "--overwrite")

	content, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	edited := strings.Replace(string(content), `model = "medium"`, `model = "small"`, 1)
	if err := os.WriteFile(target, []byte(edited), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	out, _, err = runCLI(t, []string{"--config", target, "config", "show"})
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "# Config path: "+target)
	requireContains(t, out, "[transcription]")
	requireContains(t, out, "small")
}

func TestCheckCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	configPath := filepath.Join(env.baseDir, "check.toml")
	body := fmt.Sprintf("[paths]\noutput_dir = %q\ntemp_dir = %q\n[tools]\nnvidia_smi = \"nvidia-smi-absent\"\n", env.baseDir, env.baseDir)
	if err := os.WriteFile(configPath, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	out, _, err := runCLI(t, []string{"--config", configPath, "check"})
	if err != nil {
		t.Fatalf("check: %v\n%s", err, out)
	}
	requireContains(t, out, "FFmpeg")
	requireContains(t, out, "unavailable (optional)")
	requireContains(t, out, "Device: cpu")

	cudaConfig := filepath.Join(env.baseDir, "cuda.toml")
	if err := os.WriteFile(cudaConfig, []byte(body+"[transcription]\ndevice = \"cuda\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, err := runCLI(t, []string{"--config", cudaConfig, "check"}); err == nil {
		t.Fatal("expected check to fail when cuda is configured without a GPU")
	}
}

func TestCacheCommands(t *testing.T) {
	env := setupCLITestEnv(t)
	configPath := filepath.Join(env.baseDir, "cache.toml")
	cacheDir := filepath.Join(env.baseDir, "cache")
	body := fmt.Sprintf("[paths]\ncache_dir = %q\n[cache]\nenabled = true\n", cacheDir)
	if err := os.WriteFile(configPath, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	args := []string{"--config", configPath, "--log-level", "error", env.video, "--output-dir", env.outputDir}
	if _, _, err := runCLI(t, args); err != nil {
		t.Fatalf("first run: %v", err)
	}
	out, _, err := runCLI(t, args)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	requireContains(t, out, "reused from cache")

	out, _, err = runCLI(t, []string{"--config", configPath, "cache", "stats"})
	if err != nil {
		t.Fatalf("cache stats: %v", err)
	}
	requireContains(t, out, "Entries: 1")

	out, _, err = runCLI(t, []string{"--config", configPath, "cache", "clear"})
	if err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	requireContains(t, out, "Removed 1 cached transcripts")
}
