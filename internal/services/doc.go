// Package services defines shared utilities consumed by the pipeline stages
// and their external collaborators.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, raw episode IDs, canonical episode
//     IDs, and stage names for logging.
//   - Structured error markers plus the Wrap helper so per-episode failures
//     can be classified (validation vs storage vs transient) without string
//     matching.
//
// Use these helpers when wiring new stage logic so operational behaviour
// (error handling, observability) stays uniform across the pipeline.
package services
