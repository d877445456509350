// Package subtitles turns timed transcription segments into SRT and WebVTT
// documents.
//
// A Builder consumes segments exactly once and produces a Document: ordered,
// indexed cues whose times are already floored to millisecond precision. Both
// renderers read the same Document, so the two files always agree on every
// timestamp. ParseSRT is the inverse of RenderSRT and backs the round-trip
// and validation checks.
package subtitles
