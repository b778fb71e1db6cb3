// Package gdc talks to the GDC metadata API.
//
// Resolver turns one object id into a validated record, trying a cache
// snapshot, the current and legacy file endpoints, and finally the index-file
// queries that locate BAM indexes. Paginator downloads the full index used to
// build that snapshot.
package gdc
