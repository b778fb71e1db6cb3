// Package pipeline runs the gdcmeta workflows over an output tree.
//
// A Driver is opened per invocation. It takes an exclusive lock on the output
// directory, stamps every log line with a run id and shares one directory
// cache between its writers. The workflows are:
//
//   - LoadCache: read or refresh the local GDC index snapshot
//   - GenRecords / GenFromManifest: resolve ids into {out}/{id}.json
//   - PostRecords: upsert generated records into indexd
//   - MergeManifest: reconcile a bucket listing against GDC manifests
//
// Per-record failures are persisted under an errors/ directory next to the
// successful output and never stop a run. Only configuration errors and
// cancellation end a workflow early.
package pipeline
