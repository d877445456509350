package transcribe

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"vidsub/internal/config"
	"vidsub/internal/deps"
	"vidsub/internal/language"
	"vidsub/internal/logging"
	"vidsub/internal/preflight"
	"vidsub/internal/services"
)

// Runner executes an external command and folds its output into the error.
type Runner func(ctx context.Context, name string, args ...string) error

// CUDAProbe reports whether a CUDA device is usable.
type CUDAProbe func(ctx context.Context, nvidiaSMI string) preflight.Result

// LoadOptions selects the engine model and where it runs.
type LoadOptions struct {
	Model       string
	Device      string
	ComputeType string
	BatchSize   int
	HFToken     string

	// UVX and NvidiaSMI name the launcher and the CUDA probe binaries.
	UVX       string
	NvidiaSMI string
	// TempDir holds the engine's private output directories.
	TempDir string

	Logger *slog.Logger
	Runner Runner
	Probe  CUDAProbe
}

// Model is a validated engine configuration ready to transcribe audio.
type Model struct {
	opts   LoadOptions
	uvx    string
	logger *slog.Logger
}

// Load validates opts and resolves the engine launcher.
func Load(ctx context.Context, opts LoadOptions) (*Model, error) {
	opts.Model = strings.ToLower(strings.TrimSpace(opts.Model))
	opts.Device = strings.ToLower(strings.TrimSpace(opts.Device))
	opts.ComputeType = strings.ToLower(strings.TrimSpace(opts.ComputeType))
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}

	if !slices.Contains(config.Models, opts.Model) {
		return nil, services.Wrap(services.ErrModelLoad, "transcribe", "load model",
			fmt.Sprintf("unknown model %q", opts.Model), nil)
	}
	if !slices.Contains(config.Devices, opts.Device) {
		return nil, services.Wrap(services.ErrModelLoad, "transcribe", "load model",
			fmt.Sprintf("unknown device %q", opts.Device), nil)
	}
	if !slices.Contains(config.ComputeTypes, opts.ComputeType) {
		return nil, services.Wrap(services.ErrModelLoad, "transcribe", "load model",
			fmt.Sprintf("unknown compute type %q", opts.ComputeType), nil)
	}
	if opts.Device == DeviceCPU && opts.ComputeType == ComputeFloat16 {
		return nil, services.Wrap(services.ErrModelLoad, "transcribe", "load model",
			"compute type float16 is not supported on cpu; use int8 or float32", nil)
	}

	if opts.Device == DeviceCUDA {
		probe := opts.Probe
		if probe == nil {
			probe = preflight.CheckCUDA
		}
		if result := probe(ctx, opts.NvidiaSMI); !result.Passed {
			return nil, services.Wrap(services.ErrModelLoad, "transcribe", "load model",
				"device cuda requested but no CUDA device is available: "+result.Detail, nil)
		}
	}

	launcher := strings.TrimSpace(opts.UVX)
	if launcher == "" {
		launcher = UVXCommand
	}
	uvx, err := deps.Resolve(launcher)
	if err != nil {
		return nil, services.Wrap(services.ErrModelLoad, "transcribe", "load model",
			"engine launcher unavailable; install uv or set tools.uvx", err)
	}

	logger := logging.NewComponentLogger(opts.Logger, "transcribe")
	logger.Debug("transcription model ready",
		logging.String("model", opts.Model),
		logging.String("device", opts.Device),
		logging.String("compute_type", opts.ComputeType),
		logging.String("launcher", uvx),
	)
	return &Model{opts: opts, uvx: uvx, logger: logger}, nil
}

// Transcribe runs the engine against audioPath and returns a lazy segment stream.
// lang is an engine language code or "auto".
func (m *Model) Transcribe(ctx context.Context, audioPath, lang string) (*Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	outputDir, err := os.MkdirTemp(m.opts.TempDir, "vidsub-whisperx-*")
	if err != nil {
		return nil, services.Wrap(services.ErrIO, "transcribe", "create output dir", "", err)
	}

	args := m.buildArgs(audioPath, outputDir, lang)
	logging.WithContext(ctx, m.logger).Debug("launching whisperx", logging.String("args", strings.Join(args, " ")))
	if err := m.run(ctx, m.uvx, args...); err != nil {
		_ = os.RemoveAll(outputDir)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("transcribe: %w", ctxErr)
		}
		return nil, classify(err)
	}

	jsonPath, err := findTranscript(outputDir, audioPath)
	if err != nil {
		_ = os.RemoveAll(outputDir)
		return nil, err
	}
	file, err := os.Open(jsonPath)
	if err != nil {
		_ = os.RemoveAll(outputDir)
		return nil, services.Wrap(services.ErrTranscription, "transcribe", "open transcript", "", err)
	}
	stream := NewStream(file, func() error {
		closeErr := file.Close()
		if err := os.RemoveAll(outputDir); err != nil {
			return err
		}
		return closeErr
	})
	if !language.IsAuto(lang) {
		stream.language = lang
	}
	return stream, nil
}

func (m *Model) buildArgs(source, outputDir, lang string) []string {
	args := make([]string, 0, 24)
	if m.opts.Device == DeviceCUDA {
		args = append(args, "--index-url", CUDAIndexURL, "--extra-index-url", PypiIndexURL)
	}
	args = append(args,
		EngineCommand,
		source,
		"--model", m.opts.Model,
		"--device", m.opts.Device,
		"--compute_type", m.opts.ComputeType,
		"--output_dir", outputDir,
		"--output_format", OutputFormat,
		"--vad_method", VADMethodSilero,
	)
	if !language.IsAuto(lang) {
		args = append(args, "--language", strings.ToLower(strings.TrimSpace(lang)))
	}
	args = append(args, "--batch_size", strconv.Itoa(m.opts.BatchSize))
	return args
}

func (m *Model) run(ctx context.Context, name string, args ...string) error {
	if m.opts.Runner != nil {
		return m.opts.Runner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	env := os.Environ()
	// Torch 2.6 switched torch.load to weights_only=true, which breaks the
	// engine's checkpoint loading.
	if os.Getenv("TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD") == "" {
		env = append(env, "TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD=1")
	}
	if token := strings.TrimSpace(m.opts.HFToken); token != "" {
		env = append(env, "HF_TOKEN="+token)
	}
	cmd.Env = env
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

var modelLoadMarkers = []string{
	"cuda",
	"cudnn",
	"cublas",
	"compute type",
	"compute_type",
	"no such device",
	"requested device",
}

// classify maps an engine failure onto the error taxonomy.
func classify(err error) error {
	text := strings.ToLower(err.Error())
	for _, marker := range modelLoadMarkers {
		if strings.Contains(text, marker) {
			return services.Wrap(services.ErrModelLoad, "transcribe", "run whisperx", "engine could not load the model", err)
		}
	}
	return services.Wrap(services.ErrTranscription, "transcribe", "run whisperx", "", err)
}

func findTranscript(outputDir, audioPath string) (string, error) {
	base := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	expected := filepath.Join(outputDir, base+".json")
	if _, err := os.Stat(expected); err == nil {
		return expected, nil
	}
	matches, err := filepath.Glob(filepath.Join(outputDir, "*.json"))
	if err != nil || len(matches) == 0 {
		return "", services.Wrap(services.ErrTranscription, "transcribe", "locate transcript",
			"engine produced no JSON transcript", err)
	}
	return matches[0], nil
}
