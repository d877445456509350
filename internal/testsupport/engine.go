package testsupport

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"vidsub/internal/preflight"
	"vidsub/internal/transcribe"
)

// HelloTranscript is an engine document with a single "Hello world." segment.
const HelloTranscript = `{"segments":[{"start":0.0,"end":1.5,"text":" Hello world."}],"language":"en"}`

// FakeEngine mimics whisperx: each launch writes Payload as
// <audio base>.json into the --output_dir argument.
type FakeEngine struct {
	Payload string
	calls   atomic.Int32
}

// Calls reports how many times the engine was launched.
func (f *FakeEngine) Calls() int {
	return int(f.calls.Load())
}

// Runner returns the command runner to hand to transcribe.LoadOptions.
func (f *FakeEngine) Runner() transcribe.Runner {
	return func(_ context.Context, _ string, args ...string) error {
		f.calls.Add(1)
		var audioPath, outputDir string
		for i := 0; i < len(args)-1; i++ {
			switch args[i] {
			case transcribe.EngineCommand:
				audioPath = args[i+1]
			case "--output_dir":
				outputDir = args[i+1]
			}
		}
		base := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
		return os.WriteFile(filepath.Join(outputDir, base+".json"), []byte(f.Payload), 0o644)
	}
}

// NoGPU is a CUDA probe that never finds a device.
func NoGPU(context.Context, string) preflight.Result {
	return preflight.Result{Name: "CUDA device", Detail: "no GPU listed by nvidia-smi"}
}
