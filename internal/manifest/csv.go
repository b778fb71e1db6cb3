package manifest

import (
	"encoding/csv"
	"path"
	"strconv"
	"strings"
)

// CSVManifest parses multi-bucket CSV manifests with columns
// `url,id,size,timestamp,filename`. The bucket of each URL must be present in
// ACLs; its ACL is attached to the stub.
type CSVManifest struct {
	ACLs BucketACLs
}

func (CSVManifest) Name() string { return "csv-manifest" }

func (p CSVManifest) ParseLine(raw string) Line {
	if strings.TrimSpace(raw) == "" || isComment(raw) {
		return Skipped{Raw: raw}
	}
	reader := csv.NewReader(strings.NewReader(raw))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	fields, err := reader.Read()
	if err != nil || len(fields) < 5 {
		return Skipped{Raw: raw}
	}
	for i := range fields {
		fields[i] = strings.Trim(fields[i], " \t\"")
	}
	size, err := strconv.ParseInt(fields[2], 10, 64)
	if err != nil || size <= 0 {
		return Skipped{Raw: raw}
	}

	objectURL, id := fields[0], fields[1]
	bucket, ok := BucketOf(objectURL)
	if !ok {
		return Malformed{Raw: raw, Reason: "url has no bucket prefix"}
	}
	acl, ok := p.ACLs[bucket]
	if !ok {
		return Malformed{Raw: raw, Reason: "bucket " + bucket + " has no acl mapping"}
	}
	if !IsID(id) {
		return Malformed{Raw: raw, Reason: "id column is not an object id"}
	}
	return Valid{Stub: Stub{
		ID:       id,
		FileName: path.Base(objectURL),
		URLs:     []string{objectURL},
		Size:     size,
		ACL:      append([]string(nil), acl...),
	}}
}
