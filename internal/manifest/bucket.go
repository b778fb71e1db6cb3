package manifest

import (
	"regexp"
	"strconv"
	"strings"
)

var bucketKeyPattern = regexp.MustCompile(`^(` + idExpr + `)/+([^/]+)$`)

// BucketListing parses `date time size key` lines as produced by
// `aws s3 ls --recursive`. Keys must have the form <id>/<filename>.
type BucketListing struct {
	// BucketURL is the scheme and bucket prefix, e.g. s3://my-bucket.
	BucketURL string
	ACL       []string
}

func (BucketListing) Name() string { return "bucket-listing" }

func (p BucketListing) ParseLine(raw string) Line {
	tokens := strings.Fields(raw)
	if len(tokens) != 4 || isComment(raw) {
		return Skipped{Raw: raw}
	}
	size, err := strconv.ParseInt(tokens[2], 10, 64)
	if err != nil || size <= 0 {
		return Skipped{Raw: raw}
	}
	key := tokens[3]
	match := bucketKeyPattern.FindStringSubmatch(key)
	if match == nil {
		return Malformed{Raw: raw, Reason: "object key does not match <id>/<filename>"}
	}
	return Valid{Stub: Stub{
		ID:       match[1],
		FileName: match[2],
		URLs:     []string{strings.TrimRight(p.BucketURL, "/") + "/" + key},
		Size:     size,
		ACL:      append([]string(nil), p.ACL...),
	}}
}
