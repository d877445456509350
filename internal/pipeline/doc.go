// Package pipeline drives one subtitle run from a resolved configuration to
// the SRT and WebVTT files on disk.
//
// A run moves through validate, extract, transcribe, format and write in
// order. The first failure stops the run and is returned as a *StageError
// naming the stage; the error still matches the services sentinels with
// errors.Is. Temporary audio, engine output, temp subtitle files and the
// per-output lock are released on every path, including cancellation.
package pipeline
