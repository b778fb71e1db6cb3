package manifest

import (
	"strconv"
	"strings"
)

// GDCManifest parses GDC flat-file manifests: `id filename md5 size state`.
// Index-file dumps carry 7 columns (`id md5 size ... filename`) or an extra
// leading column (8 tokens) which is dropped.
type GDCManifest struct{}

func (GDCManifest) Name() string { return "gdc-manifest" }

func (GDCManifest) ParseLine(raw string) Line {
	tokens := strings.Fields(raw)
	if len(tokens) == 0 || isComment(raw) {
		return Skipped{Raw: raw}
	}
	if len(tokens) == 8 {
		tokens = tokens[1:]
	}
	if !IsID(tokens[0]) {
		if strings.EqualFold(tokens[0], "id") {
			return Skipped{Raw: raw}
		}
		return Malformed{Raw: raw, Reason: "first column is not an object id"}
	}

	var stub Stub
	var sizeToken string
	switch len(tokens) {
	case 5:
		stub = Stub{ID: tokens[0], FileName: tokens[1], MD5: tokens[2]}
		sizeToken = tokens[3]
	case 7:
		stub = Stub{ID: tokens[0], MD5: tokens[1], FileName: tokens[6]}
		sizeToken = tokens[2]
	default:
		return Malformed{Raw: raw, Reason: "unexpected column count " + strconv.Itoa(len(tokens))}
	}
	size, err := strconv.ParseInt(sizeToken, 10, 64)
	if err != nil {
		return Malformed{Raw: raw, Reason: "size is not an integer"}
	}
	stub.Size = size
	return Valid{Stub: stub}
}
