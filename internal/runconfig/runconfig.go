package runconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"vidsub/internal/config"
	"vidsub/internal/language"
	"vidsub/internal/services"
)

// Flags carries raw CLI values. Set records which flags the user passed
// explicitly, keyed by long flag name.
type Flags struct {
	VideoPath   string
	Model       string
	Device      string
	ComputeType string
	Language    string
	Output      string
	OutputDir   string
	NoCache     bool
	Set         map[string]bool
}

func (f Flags) isSet(name string) bool {
	return f.Set[name]
}

// Run is the resolved configuration for one invocation.
type Run struct {
	VideoPath   string
	Model       string
	Device      string
	ComputeType string
	// Language is an engine language code or language.Auto.
	Language   string
	OutputBase string
	OutputDir  string

	BatchSize    int
	HFToken      string
	FFmpeg       string
	UVX          string
	NvidiaSMI    string
	TempDir      string
	CacheEnabled bool
	CachePath    string
}

// SRTPath returns the destination of the SubRip file.
func (r Run) SRTPath() string {
	return filepath.Join(r.OutputDir, r.OutputBase+".srt")
}

// VTTPath returns the destination of the WebVTT file.
func (r Run) VTTPath() string {
	return filepath.Join(r.OutputDir, r.OutputBase+".vtt")
}

// InvalidArgumentError describes a rejected flag value.
type InvalidArgumentError struct {
	Flag    string
	Value   string
	Allowed []string
	Reason  string
}

func (e *InvalidArgumentError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "invalid --%s %q", e.Flag, e.Value)
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	if len(e.Allowed) > 0 {
		fmt.Fprintf(&b, " (allowed: %s)", strings.Join(e.Allowed, ", "))
	}
	return b.String()
}

// Is reports services.ErrInvalidArgument so callers can classify without a type assertion.
func (e *InvalidArgumentError) Is(target error) bool {
	return target == services.ErrInvalidArgument
}

// Resolve validates flags against defaults and returns the run configuration.
func Resolve(defaults *config.Config, flags Flags) (Run, error) {
	if defaults == nil {
		cfg := config.Default()
		defaults = &cfg
	}

	video := strings.TrimSpace(flags.VideoPath)
	if video == "" {
		return Run{}, &InvalidArgumentError{Flag: "video", Reason: "a video path is required"}
	}
	info, err := os.Stat(video)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Run{}, &InvalidArgumentError{Flag: "video", Value: video, Reason: "file does not exist"}
		}
		return Run{}, &InvalidArgumentError{Flag: "video", Value: video, Reason: err.Error()}
	}
	if info.IsDir() {
		return Run{}, &InvalidArgumentError{Flag: "video", Value: video, Reason: "is a directory"}
	}

	run := Run{
		VideoPath:    video,
		BatchSize:    defaults.Transcription.BatchSize,
		HFToken:      defaults.Transcription.HFToken,
		FFmpeg:       defaults.Tools.FFmpeg,
		UVX:          defaults.Tools.UVX,
		NvidiaSMI:    defaults.Tools.NvidiaSMI,
		TempDir:      defaults.Paths.TempDir,
		CacheEnabled: defaults.Cache.Enabled && !flags.NoCache,
	}
	if run.CacheEnabled {
		run.CachePath = defaults.CacheDBPath()
	}

	if run.Model, err = choose("model", pick(flags, "model", flags.Model, defaults.Transcription.Model), config.Models); err != nil {
		return Run{}, err
	}
	if run.Device, err = choose("device", pick(flags, "device", flags.Device, defaults.Transcription.Device), config.Devices); err != nil {
		return Run{}, err
	}
	if run.ComputeType, err = choose("compute-type", pick(flags, "compute-type", flags.ComputeType, defaults.Transcription.ComputeType), config.ComputeTypes); err != nil {
		return Run{}, err
	}

	rawLanguage := pick(flags, "language", flags.Language, defaults.Transcription.Language)
	run.Language, err = language.Normalize(rawLanguage)
	if err != nil {
		return Run{}, &InvalidArgumentError{Flag: "language", Value: rawLanguage, Reason: "expected a language code, a language name or \"auto\""}
	}

	outputDir := pick(flags, "output-dir", flags.OutputDir, defaults.Paths.OutputDir)
	base, dir, err := resolveOutput(flags, video)
	if err != nil {
		return Run{}, err
	}
	if dir != "" {
		outputDir = dir
	}
	if outputDir == "" {
		outputDir = "."
	}
	run.OutputBase = base
	run.OutputDir = filepath.Clean(outputDir)
	return run, nil
}

func pick(flags Flags, name, flagValue, fallback string) string {
	if flags.isSet(name) {
		return flagValue
	}
	return fallback
}

func choose(flag, value string, allowed []string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if !slices.Contains(allowed, normalized) {
		return "", &InvalidArgumentError{Flag: flag, Value: value, Allowed: allowed}
	}
	return normalized, nil
}

// resolveOutput returns the output base name and, when the --output value
// carries a directory component, the directory that overrides --output-dir.
func resolveOutput(flags Flags, video string) (string, string, error) {
	if !flags.isSet("output") {
		base := filepath.Base(video)
		base = strings.TrimSuffix(base, filepath.Ext(base))
		if base == "" || base == "." {
			base = "output"
		}
		return base, "", nil
	}

	raw := flags.Output
	value := strings.TrimSpace(raw)
	if value == "" {
		return "", "", &InvalidArgumentError{Flag: "output", Value: raw, Reason: "must not be empty"}
	}
	if strings.HasSuffix(value, string(filepath.Separator)) || strings.HasSuffix(value, "/") {
		return "", "", &InvalidArgumentError{Flag: "output", Value: raw, Reason: "must name a file, not a directory"}
	}
	switch ext := strings.ToLower(filepath.Ext(value)); ext {
	case ".srt", ".vtt":
		value = value[:len(value)-len(ext)]
	}
	dir, base := filepath.Split(value)
	if base == "" || base == "." || base == ".." {
		return "", "", &InvalidArgumentError{Flag: "output", Value: raw, Reason: "must name a file"}
	}
	if dir == "" {
		return base, "", nil
	}
	return base, filepath.Clean(dir), nil
}
