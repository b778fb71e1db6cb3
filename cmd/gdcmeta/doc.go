// Package main hosts the gdcmeta CLI entrypoint and command graph.
//
// The Cobra command tree maps terminal invocations onto the pipeline
// workflows (gen-recs, post-recs, merge-manifest), index snapshot maintenance,
// preflight checks, bucket listing and configuration scaffolding. It
// centralizes configuration resolution and logging setup so subcommands only
// parse flags and render results.
package main
