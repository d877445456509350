// Package preflight provides readiness checks for the filesystem paths and
// hardware vidsub depends on.
//
// These checks run in two contexts:
//   - The pipeline driver checks the output directory before extraction and
//     the transcription adapter probes for a CUDA device before launching
//     the engine, so a doomed run fails before any heavy work starts.
//   - The CLI "vidsub check" command calls RunAll to display a readiness table.
package preflight
