// Package output writes the per-record JSON tree produced by a run and reads
// it back for later stages.
package output
