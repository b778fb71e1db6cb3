// Package manifest parses flat-file object manifests into record stubs.
//
// Three formats are understood: recursive bucket listings, GDC manifest
// dumps, and multi-bucket CSV manifests. Each parser classifies every line as
// Valid, Skipped (headers, comments, folder markers) or Malformed; parsing
// never fails on content. Bucket ACL mappings come from config and an
// optional YAML file.
package manifest
