// Package logging assembles structured slog loggers and formatting helpers used
// across gdcmeta.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing (including rotating log files), and exposes context-aware helpers so
// workflow code can tag log lines with run IDs, record IDs and resolver stages.
// The package also provides a no-op logger for tests and wiring code that
// cannot fail.
package logging
