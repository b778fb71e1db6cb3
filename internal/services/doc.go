// Package services defines shared utilities consumed by the pipeline
// workflows and the remote API clients.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, record IDs, workflow and resolver
//     stage names for logging.
//   - Structured error markers plus the Wrap helper that classify failures
//     into fatal configuration errors and per-record errors.
//
// Use these helpers when wiring new workflow logic so operational behaviour
// (error classification, observability) stays uniform across the pipeline.
package services
