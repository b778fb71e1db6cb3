package manifest

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var bucketPattern = regexp.MustCompile(`^((?:gs|s3)://[^/\s]+)/`)

// BucketACLs maps a bucket URL (gs://name or s3://name) to the ACL applied to
// its objects.
type BucketACLs map[string][]string

// BucketOf extracts the scheme://bucket prefix of an object URL.
func BucketOf(objectURL string) (string, bool) {
	match := bucketPattern.FindStringSubmatch(objectURL)
	if match == nil {
		return "", false
	}
	return match[1], true
}

// Merge returns a new mapping with other's entries applied over m.
func (m BucketACLs) Merge(other BucketACLs) BucketACLs {
	out := make(BucketACLs, len(m)+len(other))
	for k, v := range m {
		out[k] = append([]string(nil), v...)
	}
	for k, v := range other {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// LoadACLFile reads a YAML document of the form
//
//	gs://bucket-a: [phs000178]
//	gs://bucket-b: ["*"]
func LoadACLFile(path string) (BucketACLs, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read bucket acl file: %w", err)
	}
	var raw map[string][]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse bucket acl file %s: %w", path, err)
	}
	out := make(BucketACLs, len(raw))
	for bucket, acl := range raw {
		key := strings.TrimRight(strings.TrimSpace(bucket), "/")
		if !strings.HasPrefix(key, "gs://") && !strings.HasPrefix(key, "s3://") {
			return nil, fmt.Errorf("bucket acl file %s: %q must start with gs:// or s3://", path, bucket)
		}
		if len(acl) == 0 {
			return nil, fmt.Errorf("bucket acl file %s: %q has an empty acl list", path, bucket)
		}
		out[key] = acl
	}
	return out, nil
}

// LoadACLs combines the inline mapping with the optional YAML file. File
// entries take precedence.
func LoadACLs(inline map[string][]string, file string) (BucketACLs, error) {
	acls := BucketACLs(inline).Merge(nil)
	if strings.TrimSpace(file) == "" {
		return acls, nil
	}
	fromFile, err := LoadACLFile(file)
	if err != nil {
		return nil, err
	}
	return acls.Merge(fromFile), nil
}
