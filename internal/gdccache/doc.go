// Package gdccache stores the bulk GDC index in a local SQLite snapshot so
// record generation can skip per-object API calls.
//
// The snapshot is replaced wholesale on refresh and loaded once per run into
// an immutable Snapshot that the resolver reads concurrently.
package gdccache
