// Package transcribe adapts the WhisperX speech-to-text engine.
//
// Load validates the device and compute-type combination once per run and
// returns a Model. Model.Transcribe launches the engine through uvx in a
// private output directory and returns a Stream that decodes the engine's
// JSON transcript one segment at a time. The same Stream type reads cached
// transcripts, so callers drain every source the same way.
//
// Failures are tagged with services.ErrModelLoad when the engine could not
// start on the requested hardware and services.ErrTranscription otherwise.
package transcribe
