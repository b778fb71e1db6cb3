// Package bucketlist lists a Cloud Storage bucket into the CSV manifest
// format read by manifest.CSVManifest.
package bucketlist
