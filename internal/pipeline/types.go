package pipeline

import (
	"context"
	"fmt"
	"time"

	"vidsub/internal/audio"
	"vidsub/internal/transcribe"
	"vidsub/internal/transcriptcache"
)

// Stage names a pipeline step.
type Stage string

const (
	StageValidate   Stage = "validate"
	StageExtract    Stage = "extract"
	StageTranscribe Stage = "transcribe"
	StageFormat     Stage = "format"
	StageWrite      Stage = "write"
)

// StageError records the stage a run failed in.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	if e.Err == nil {
		return string(e.Stage) + ": failed"
	}
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Result summarizes a successful run.
type Result struct {
	RunID        string
	SRTPath      string
	VTTPath      string
	SegmentCount int
	Language     string
	CacheHit     bool
	Duration     time.Duration
}

// Extractor produces the temporary audio file for a video.
type Extractor interface {
	Extract(ctx context.Context, videoPath string) (*audio.TempAudio, error)
}

// Transcriber turns audio into a segment stream.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath, language string) (*transcribe.Stream, error)
}

// Engine loads a Transcriber for the run's model settings.
type Engine interface {
	Load(ctx context.Context, opts transcribe.LoadOptions) (Transcriber, error)
}

// Cache stores transcripts between runs.
type Cache interface {
	Lookup(ctx context.Context, key transcriptcache.Key) (*transcribe.Stream, bool, error)
	Put(ctx context.Context, key transcriptcache.Key, transcript transcribe.Transcript) error
}

// WhisperX is the Engine backed by transcribe.Load. Runner and Probe are
// optional overrides passed through to LoadOptions.
type WhisperX struct {
	Runner transcribe.Runner
	Probe  transcribe.CUDAProbe
}

// Load implements Engine.
func (w WhisperX) Load(ctx context.Context, opts transcribe.LoadOptions) (Transcriber, error) {
	if w.Runner != nil {
		opts.Runner = w.Runner
	}
	if w.Probe != nil {
		opts.Probe = w.Probe
	}
	model, err := transcribe.Load(ctx, opts)
	if err != nil {
		return nil, err
	}
	return model, nil
}
