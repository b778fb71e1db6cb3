package record

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
)

// FormObject is the only indexd form gdcmeta produces.
const FormObject = "object"

// Hashes carries the checksums of an object.
type Hashes struct {
	MD5 string `json:"md5"`
}

// IndexRecord is the indexd wire representation of one file object.
type IndexRecord struct {
	DID          string            `json:"did"`
	ACL          []string          `json:"acl"`
	FileName     string            `json:"file_name,omitempty"`
	Form         string            `json:"form"`
	Hashes       Hashes            `json:"hashes"`
	Size         int64             `json:"size"`
	URLs         []string          `json:"urls"`
	URLsMetadata map[string]any    `json:"urls_metadata"`
	Metadata     map[string]string `json:"metadata"`
	Rev          string            `json:"rev,omitempty"`
}

// Clone returns a deep copy of r.
func (r IndexRecord) Clone() IndexRecord {
	out := r
	out.ACL = append([]string(nil), r.ACL...)
	out.URLs = append([]string(nil), r.URLs...)
	if r.URLsMetadata != nil {
		out.URLsMetadata = make(map[string]any, len(r.URLsMetadata))
		for k, v := range r.URLsMetadata {
			out.URLsMetadata[k] = v
		}
	}
	if r.Metadata != nil {
		out.Metadata = make(map[string]string, len(r.Metadata))
		for k, v := range r.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}

var (
	aclPattern = regexp.MustCompile(`^phs\d+$`)
	md5Pattern = regexp.MustCompile(`^[0-9a-f]{32}$`)
)

// NormalizeACL case-folds every tag, maps "public" to "*", and removes
// duplicates keeping the first occurrence. Blank tags are dropped.
func NormalizeACL(acl []string) []string {
	if acl == nil {
		return nil
	}
	// A Caser may hold state, so each call gets its own.
	folder := cases.Fold()
	out := make([]string, 0, len(acl))
	seen := make(map[string]struct{}, len(acl))
	for _, tag := range acl {
		norm := folder.String(strings.TrimSpace(tag))
		if norm == "" {
			continue
		}
		if norm == "public" {
			norm = "*"
		}
		if _, ok := seen[norm]; ok {
			continue
		}
		seen[norm] = struct{}{}
		out = append(out, norm)
	}
	return out
}

// ValidationError lists every reason a record was rejected.
type ValidationError struct {
	ID       string
	Problems []string
}

func (e *ValidationError) Error() string {
	id := e.ID
	if id == "" {
		id = "<no id>"
	}
	return fmt.Sprintf("invalid record %s: %s", id, strings.Join(e.Problems, "; "))
}

// Validate checks that r can be posted to indexd. The returned error, when
// non-nil, is a *ValidationError.
func Validate(r IndexRecord) error {
	var problems []string
	if strings.TrimSpace(r.DID) == "" {
		problems = append(problems, "missing did")
	}
	if len(r.ACL) == 0 {
		problems = append(problems, "empty acl")
	}
	for _, tag := range r.ACL {
		if tag != "*" && !aclPattern.MatchString(tag) {
			problems = append(problems, fmt.Sprintf("invalid acl entry %q", tag))
		}
	}
	switch md5 := strings.TrimSpace(r.Hashes.MD5); {
	case md5 == "":
		problems = append(problems, "missing md5")
	case !md5Pattern.MatchString(md5):
		problems = append(problems, fmt.Sprintf("invalid md5 %q", md5))
	}
	if r.Size <= 0 {
		problems = append(problems, fmt.Sprintf("invalid size %d", r.Size))
	}
	if len(r.URLs) == 0 {
		problems = append(problems, "no urls")
	}
	if len(problems) > 0 {
		return &ValidationError{ID: r.DID, Problems: problems}
	}
	return nil
}
