// Package reconcile merges a bucket manifest against a reference GDC
// manifest and reports untracked keys, filename mismatches, duplicates and
// reference entries missing from the bucket.
package reconcile
