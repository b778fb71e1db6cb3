// Package indexd upserts records into an indexd service.
//
// Existing records only ever gain URLs; their revision token guards each
// update and a stale revision fails rather than overwriting. Every call goes
// through the shared retrying fetch client.
package indexd
