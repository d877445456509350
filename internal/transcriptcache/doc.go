// Package transcriptcache persists engine transcripts in SQLite so a repeat
// run over the same audio with the same model settings skips the engine.
//
// Entries are keyed by the SHA-256 of the extracted audio plus the model,
// compute type and requested language. Payloads are stored in the engine's
// JSON document shape and replayed through transcribe.Stream, so cached and
// live transcripts are consumed identically.
package transcriptcache
