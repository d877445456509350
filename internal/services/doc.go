// Package services defines shared utilities consumed by the pipeline stages
// and the external tool adapters.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs and stage names for logging.
//   - Structured error markers plus the Wrap helper so every failure carries
//     its kind (invalid argument, extraction, model load, transcription, IO)
//     together with the stage and operation that produced it.
//
// Use these helpers when wiring new stage logic so error reporting stays
// uniform across the pipeline.
package services
