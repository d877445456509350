// Package logging builds the slog loggers vidsub writes to stderr.
//
// The console format prints one short line per record, prefixed with the
// component and pipeline stage; the JSON format keeps every field, including
// the run ID. WithContext copies the run ID and stage from a context onto a
// logger, and WarnWithContext / ErrorWithContext make sure warnings and
// failures always carry an event type and an operator hint.
package logging
