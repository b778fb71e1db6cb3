// Package preflight provides readiness checks for the remote services and
// filesystem paths that gdcmeta depends on.
//
// The CLI "gdcmeta test" command runs RunAll and renders the results as a
// table. Checks make a single attempt with a short timeout; they never go
// through the retrying fetch client.
package preflight
