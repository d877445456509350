package runconfig

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"vidsub/internal/config"
	"vidsub/internal/services"
)

func writeVideo(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample.mp4")
	if err := os.WriteFile(path, []byte("not really a video"), 0o644); err != nil {
		t.Fatalf("write video: %v", err)
	}
	return path
}

func set(names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

func TestResolveDefaults(t *testing.T) {
	video := writeVideo(t)
	cfg := config.Default()
	run, err := Resolve(&cfg, Flags{VideoPath: video})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if run.Model != "medium" || run.Device != "cpu" || run.ComputeType != "int8" || run.Language != "auto" {
		t.Fatalf("unexpected defaults %+v", run)
	}
	if run.OutputBase != "sample" {
		t.Fatalf("OutputBase = %q, want sample", run.OutputBase)
	}
	if run.OutputDir != "." {
		t.Fatalf("OutputDir = %q, want .", run.OutputDir)
	}
	if run.SRTPath() != "sample.srt" || run.VTTPath() != "sample.vtt" {
		t.Fatalf("unexpected paths %s %s", run.SRTPath(), run.VTTPath())
	}
	if run.CacheEnabled || run.CachePath != "" {
		t.Fatalf("cache should be disabled by default")
	}
}

func TestResolveFlagsOverrideConfig(t *testing.T) {
	video := writeVideo(t)
	cfg := config.Default()
	cfg.Transcription.Model = "small"
	cfg.Transcription.Language = "de"
	cfg.Paths.OutputDir = "/srv/subs"

	run, err := Resolve(&cfg, Flags{
		VideoPath:   video,
		Model:       " Large-V3 ",
		Device:      "CUDA",
		ComputeType: "float16",
		Set:         set("model", "device", "compute-type"),
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if run.Model != "large-v3" || run.Device != "cuda" || run.ComputeType != "float16" {
		t.Fatalf("flags not applied: %+v", run)
	}
	if run.Language != "de" {
		t.Fatalf("config language not applied: %q", run.Language)
	}
	if run.OutputDir != "/srv/subs" {
		t.Fatalf("config output dir not applied: %q", run.OutputDir)
	}
}

func TestResolveInvalidEnumerations(t *testing.T) {
	video := writeVideo(t)
	tests := []struct {
		name  string
		flags Flags
		flag  string
	}{
		{"model", Flags{Model: "huge", Set: set("model")}, "model"},
		{"device", Flags{Device: "tpu", Set: set("device")}, "device"},
		{"compute", Flags{ComputeType: "int4", Set: set("compute-type")}, "compute-type"},
		{"language", Flags{Language: "klingonese", Set: set("language")}, "language"},
		{"empty output", Flags{Output: "  ", Set: set("output")}, "output"},
		{"directory output", Flags{Output: "subs/", Set: set("output")}, "output"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.flags.VideoPath = video
			_, err := Resolve(nil, tt.flags)
			if !errors.Is(err, services.ErrInvalidArgument) {
				t.Fatalf("expected ErrInvalidArgument, got %v", err)
			}
			var argErr *InvalidArgumentError
			if !errors.As(err, &argErr) || argErr.Flag != tt.flag {
				t.Fatalf("expected InvalidArgumentError for %s, got %#v", tt.flag, err)
			}
		})
	}
}

func TestResolveInvalidModelListsAllowed(t *testing.T) {
	_, err := Resolve(nil, Flags{VideoPath: writeVideo(t), Model: "huge", Set: set("model")})
	want := `invalid --model "huge" (allowed: tiny, small, medium, large-v2, large-v3)`
	if err == nil || err.Error() != want {
		t.Fatalf("error = %v, want %s", err, want)
	}
	if services.Kind(err) != "InvalidArgument" {
		t.Fatalf("Kind = %s", services.Kind(err))
	}
}

func TestResolveVideoValidation(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name  string
		video string
	}{
		{"missing path", ""},
		{"nonexistent", filepath.Join(dir, "nope.mp4")},
		{"directory", dir},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Resolve(nil, Flags{VideoPath: tt.video}); !errors.Is(err, services.ErrInvalidArgument) {
				t.Fatalf("expected ErrInvalidArgument, got %v", err)
			}
		})
	}
}

func TestResolveLanguage(t *testing.T) {
	video := writeVideo(t)
	tests := []struct {
		in   string
		want string
	}{
		{"auto", "auto"},
		{"", "auto"},
		{"EN", "en"},
		{"english", "en"},
		{"fra", "fr"},
		{"jw", "jw"},
		{"haw", "haw"},
		{"yue", "yue"},
	}
	for _, tt := range tests {
		run, err := Resolve(nil, Flags{VideoPath: video, Language: tt.in, Set: set("language")})
		if err != nil {
			t.Fatalf("Resolve(%q): %v", tt.in, err)
		}
		if run.Language != tt.want {
			t.Fatalf("Language(%q) = %q, want %q", tt.in, run.Language, tt.want)
		}
	}
}

func TestResolveOutput(t *testing.T) {
	video := writeVideo(t)
	tests := []struct {
		name      string
		output    string
		outputDir string
		wantBase  string
		wantDir   string
	}{
		{"plain base", "movie", "", "movie", "."},
		{"strips srt", "movie.srt", "", "movie", "."},
		{"strips vtt uppercase", "movie.VTT", "", "movie", "."},
		{"keeps other ext", "movie.en", "", "movie.en", "."},
		{"dir component wins", "subs/movie", "/elsewhere", "movie", "subs"},
		{"output dir used", "movie", "/elsewhere", "movie", "/elsewhere"},
		{"absolute", "/tmp/out/movie.srt", "", "movie", "/tmp/out"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flags := Flags{VideoPath: video, Output: tt.output, Set: set("output")}
			if tt.outputDir != "" {
				flags.OutputDir = tt.outputDir
				flags.Set["output-dir"] = true
			}
			run, err := Resolve(nil, flags)
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if run.OutputBase != tt.wantBase || run.OutputDir != tt.wantDir {
				t.Fatalf("got base=%q dir=%q, want base=%q dir=%q", run.OutputBase, run.OutputDir, tt.wantBase, tt.wantDir)
			}
		})
	}
}

func TestResolveCache(t *testing.T) {
	video := writeVideo(t)
	cfg := config.Default()
	cfg.Cache.Enabled = true
	cfg.Paths.CacheDir = "/var/cache/vidsub"

	run, err := Resolve(&cfg, Flags{VideoPath: video})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !run.CacheEnabled || run.CachePath != "/var/cache/vidsub/transcripts.db" {
		t.Fatalf("unexpected cache settings: %v %q", run.CacheEnabled, run.CachePath)
	}

	run, err = Resolve(&cfg, Flags{VideoPath: video, NoCache: true})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if run.CacheEnabled {
		t.Fatal("--no-cache must disable the cache")
	}
}
