package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"vidsub/internal/audio"
	"vidsub/internal/fileutil"
	"vidsub/internal/language"
	"vidsub/internal/logging"
	"vidsub/internal/preflight"
	"vidsub/internal/runconfig"
	"vidsub/internal/services"
	"vidsub/internal/subtitles"
	"vidsub/internal/transcribe"
	"vidsub/internal/transcriptcache"
)

// Driver runs the subtitle pipeline. Zero-valued collaborators fall back to
// the production implementations derived from the Run.
type Driver struct {
	Logger    *slog.Logger
	Extractor Extractor
	Engine    Engine
	// Cache overrides the SQLite cache opened from Run.CachePath. It is only
	// consulted when Run.CacheEnabled is set.
	Cache Cache
	Now   func() time.Time
}

type runState struct {
	run     runconfig.Run
	logger  *slog.Logger
	audio   *audio.TempAudio
	stream  *transcribe.Stream
	cache   Cache
	key     transcriptcache.Key
	hit     bool
	doc     subtitles.Document
	srt     []byte
	vtt     []byte
	skipped int
	lang    string

	// record is set when a cache miss should be stored after a successful write.
	record    bool
	collected []transcribe.Segment
	cleanup   []func()
}

func (s *runState) onRelease(fn func()) {
	s.cleanup = append(s.cleanup, fn)
}

// release runs cleanups in reverse registration order.
func (s *runState) release() {
	for i := len(s.cleanup) - 1; i >= 0; i-- {
		s.cleanup[i]()
	}
	s.cleanup = nil
}

// Run executes every stage for run and returns the written file paths.
func (d *Driver) Run(ctx context.Context, run runconfig.Run) (Result, error) {
	started := d.now()
	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	logger := logging.WithContext(ctx, logging.NewComponentLogger(d.Logger, "pipeline"))

	state := &runState{run: run, logger: logger}
	defer state.release()

	logger.Info("subtitle run started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.String("video", run.VideoPath),
		logging.String("model", run.Model),
		logging.String("device", run.Device),
		logging.String("compute_type", run.ComputeType),
		logging.String("language", run.Language),
	)

	steps := []struct {
		stage Stage
		fn    func(context.Context, *runState) error
	}{
		{StageValidate, d.validate},
		{StageExtract, d.extract},
		{StageTranscribe, d.transcribe},
		{StageFormat, d.format},
		{StageWrite, d.write},
	}
	for _, step := range steps {
		if err := d.runStage(ctx, step.stage, state, step.fn); err != nil {
			return Result{RunID: runID}, err
		}
	}
	if state.record {
		d.storeCache(ctx, state)
	}

	result := Result{
		RunID:        runID,
		SRTPath:      run.SRTPath(),
		VTTPath:      run.VTTPath(),
		SegmentCount: len(state.doc),
		Language:     state.lang,
		CacheHit:     state.hit,
		Duration:     d.now().Sub(started),
	}
	logger.Info("subtitle run completed",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.String("srt", result.SRTPath),
		logging.String("vtt", result.VTTPath),
		logging.Int("segments", result.SegmentCount),
		logging.String("language", result.Language),
		logging.Bool("cache_hit", result.CacheHit),
		logging.Duration("duration", result.Duration),
	)
	return result, nil
}

func (d *Driver) runStage(ctx context.Context, stage Stage, state *runState, fn func(context.Context, *runState) error) error {
	stageCtx := logging.WithStage(ctx, string(stage))
	stageLogger := logging.WithContext(stageCtx, logging.NewComponentLogger(d.Logger, "pipeline"))

	if err := ctx.Err(); err != nil {
		return &StageError{Stage: stage, Err: err}
	}
	stageLogger.Debug("stage started", logging.String(logging.FieldEventType, "stage_start"))
	stageStarted := d.now()
	if err := fn(stageCtx, state); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
			err = fmt.Errorf("%w: %w", ctxErr, err)
		}
		if errors.Is(err, context.Canceled) {
			stageLogger.Info("stage interrupted", logging.String(logging.FieldEventType, "stage_cancelled"))
		} else {
			logging.ErrorWithContext(stageLogger, "stage failed", "stage_failure",
				logging.String("error_kind", services.Kind(err)),
				logging.Error(err),
			)
		}
		return &StageError{Stage: stage, Err: err}
	}
	stageLogger.Debug("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("elapsed", d.now().Sub(stageStarted)),
	)
	return nil
}

func (d *Driver) validate(_ context.Context, state *runState) error {
	run := state.run
	if run.OutputBase == "" || run.VideoPath == "" {
		return services.Wrap(services.ErrInvalidArgument, string(StageValidate), "check run", "video path and output base are required", nil)
	}
	if err := os.MkdirAll(run.OutputDir, 0o755); err != nil {
		return services.Wrap(services.ErrIO, string(StageValidate), "create output dir", run.OutputDir, err)
	}
	if check := preflight.CheckDirectoryAccess("output directory", run.OutputDir); !check.Passed {
		return services.Wrap(services.ErrIO, string(StageValidate), "check output dir", check.Detail, nil)
	}

	lockPath := filepath.Join(run.OutputDir, "."+run.OutputBase+".lock")
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return services.Wrap(services.ErrIO, string(StageValidate), "acquire output lock", lockPath, err)
	}
	if !ok {
		return services.Wrap(services.ErrIO, string(StageValidate), "acquire output lock",
			fmt.Sprintf("another vidsub run is writing %s", filepath.Join(run.OutputDir, run.OutputBase)), nil)
	}
	// Unlink while still holding the lock; a run that opened the old inode
	// fails TryLock instead of locking a file nobody else can see.
	state.onRelease(func() {
		_ = os.Remove(lockPath)
		if err := lock.Unlock(); err != nil {
			state.logger.Warn("failed to release output lock", logging.String("lock", lockPath), logging.Error(err))
		}
	})
	return nil
}

func (d *Driver) extract(ctx context.Context, state *runState) error {
	extractor := d.Extractor
	if extractor == nil {
		extractor = &audio.Extractor{FFmpeg: state.run.FFmpeg, TempDir: state.run.TempDir}
	}
	tmp, err := extractor.Extract(ctx, state.run.VideoPath)
	if err != nil {
		return err
	}
	state.audio = tmp
	state.onRelease(func() {
		if err := tmp.Close(); err != nil {
			state.logger.Warn("failed to remove temp audio", logging.String("path", tmp.Path), logging.Error(err))
		}
	})
	logging.WithContext(ctx, state.logger).Debug("audio extracted", logging.String("path", tmp.Path))
	return nil
}

func (d *Driver) transcribe(ctx context.Context, state *runState) error {
	run := state.run
	logger := logging.WithContext(ctx, state.logger)

	// Load runs the device checks, so a cached transcript never stands in for
	// a configuration that cannot run.
	engine := d.Engine
	if engine == nil {
		engine = WhisperX{}
	}
	model, err := engine.Load(ctx, transcribe.LoadOptions{
		Model:       run.Model,
		Device:      run.Device,
		ComputeType: run.ComputeType,
		BatchSize:   run.BatchSize,
		HFToken:     run.HFToken,
		UVX:         run.UVX,
		NvidiaSMI:   run.NvidiaSMI,
		TempDir:     run.TempDir,
		Logger:      d.Logger,
	})
	if err != nil {
		return err
	}

	if run.CacheEnabled {
		state.cache = d.openCache(ctx, state)
	}
	if state.cache != nil {
		if stream, ok := d.lookupCache(ctx, state); ok {
			state.stream = stream
			state.hit = true
			state.onRelease(func() { _ = stream.Close() })
			logger.Info("using cached transcript", logging.String(logging.FieldEventType, "cache_hit"))
			return nil
		}
	}

	logger.Info("transcribing audio",
		logging.String(logging.FieldEventType, "transcribe_start"),
		logging.String("model", run.Model),
		logging.String("language", language.DisplayName(run.Language)),
	)
	stream, err := model.Transcribe(ctx, state.audio.Path, run.Language)
	if err != nil {
		return err
	}
	state.stream = stream
	state.onRelease(func() {
		if err := stream.Close(); err != nil {
			state.logger.Warn("failed to remove engine output", logging.Error(err))
		}
	})
	return nil
}

func (d *Driver) openCache(ctx context.Context, state *runState) Cache {
	if d.Cache != nil {
		return d.Cache
	}
	path := state.run.CachePath
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		d.warnCache(ctx, state, "create directory", err)
		return nil
	}
	store, err := transcriptcache.Open(ctx, path, d.Logger)
	if err != nil {
		d.warnCache(ctx, state, "open", err)
		return nil
	}
	state.onRelease(func() { _ = store.Close() })
	return store
}

func (d *Driver) lookupCache(ctx context.Context, state *runState) (*transcribe.Stream, bool) {
	hash, err := fileutil.HashFile(state.audio.Path)
	if err != nil {
		d.warnCache(ctx, state, "hash audio", err)
		return nil, false
	}
	state.key = transcriptcache.Key{
		AudioSHA256: hash,
		Model:       state.run.Model,
		Device:      state.run.Device,
		ComputeType: state.run.ComputeType,
		Language:    state.run.Language,
	}
	stream, ok, err := state.cache.Lookup(ctx, state.key)
	if err != nil {
		d.warnCache(ctx, state, "lookup", err)
		return nil, false
	}
	return stream, ok
}

func (d *Driver) warnCache(ctx context.Context, state *runState, op string, err error) {
	logging.WarnWithContext(logging.WithContext(ctx, state.logger), "transcript cache unavailable", "cache_error",
		logging.String("operation", op),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check paths.cache_dir or run with --no-cache"),
		logging.String(logging.FieldImpact, "transcript will not be reused"),
	)
	state.key = transcriptcache.Key{}
}

func (d *Driver) format(ctx context.Context, state *runState) error {
	var builder subtitles.Builder
	state.record = state.cache != nil && !state.hit && state.key.AudioSHA256 != ""

	for state.stream.Next() {
		seg := state.stream.Segment()
		builder.Add(seg.Start, seg.End, seg.Text)
		if state.record {
			state.collected = append(state.collected, seg)
		}
	}
	if err := state.stream.Err(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	state.doc = builder.Build()
	state.skipped = builder.Skipped()
	state.srt = subtitles.RenderSRT(state.doc)
	state.vtt = subtitles.RenderVTT(state.doc)
	if err := subtitles.VerifyRendered(state.doc, state.srt, state.vtt); err != nil {
		return services.Wrap(services.ErrTranscription, string(StageFormat), "verify subtitles", "", err)
	}

	state.lang = state.stream.Language()
	if state.lang == "" && !language.IsAuto(state.run.Language) {
		state.lang = state.run.Language
	}

	logger := logging.WithContext(ctx, state.logger)
	if state.skipped > 0 {
		logger.Debug("skipped empty segments", logging.Int("count", state.skipped))
	}
	if len(state.doc) == 0 {
		logging.WarnWithContext(logger, "no speech recognized", "empty_transcript",
			logging.String(logging.FieldErrorHint, "check the audio track or pass --language"),
			logging.String(logging.FieldImpact, "subtitle files will contain no cues"),
		)
	}
	return nil
}

func (d *Driver) storeCache(ctx context.Context, state *runState) {
	transcript := transcribe.Transcript{Language: state.stream.Language(), Segments: state.collected}
	if err := state.cache.Put(ctx, state.key, transcript); err != nil {
		d.warnCache(ctx, state, "store", err)
	}
}

func (d *Driver) write(_ context.Context, state *runState) error {
	files := []fileutil.File{
		{Path: state.run.SRTPath(), Data: state.srt, Mode: 0o644},
		{Path: state.run.VTTPath(), Data: state.vtt, Mode: 0o644},
	}
	if err := fileutil.WriteFilesAtomic(files); err != nil {
		return services.Wrap(services.ErrIO, string(StageWrite), "write subtitles", "", err)
	}
	state.srt, state.vtt = nil, nil
	return nil
}

func (d *Driver) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}
