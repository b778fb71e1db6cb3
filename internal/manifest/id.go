package manifest

import (
	"path"
	"regexp"
	"strings"
)

// idExpr matches the 8-4-4-4-12 grouped hex identifier.
const idExpr = `[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`

var idPattern = regexp.MustCompile(`^` + idExpr + `$`)

// IsID reports whether s is an 8-4-4-4-12 hex object identifier.
func IsID(s string) bool {
	return idPattern.MatchString(s)
}

// ExtractID finds the identifier component of an object path. The final
// component has its extension stripped before matching, so both
// "<id>/file.bam" and "prefix/<id>.bam" resolve.
func ExtractID(objectPath string) (string, bool) {
	parts := strings.Split(strings.Trim(objectPath, "/"), "/")
	for i := len(parts) - 1; i >= 0; i-- {
		part := parts[i]
		if i == len(parts)-1 {
			part = strings.TrimSuffix(part, path.Ext(part))
		}
		if IsID(part) {
			return part, true
		}
	}
	return "", false
}
