package obs

import "strings"

// CanonicalPath collapses record identifiers in request paths down to ":id"
// so the metrics labels stay low-cardinality. Identifiers are ULIDs (26
// Crockford base32 characters) everywhere in the API.
func CanonicalPath(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" {
		return "/"
	}
	segments := strings.Split(path, "/")
	changed := false
	for i, seg := range segments {
		if looksLikeID(seg) {
			segments[i] = ":id"
			changed = true
		}
	}
	if !changed {
		return path
	}
	return strings.Join(segments, "/")
}

func looksLikeID(seg string) bool {
	if len(seg) != 26 {
		return false
	}
	for i := 0; i < len(seg); i++ {
		c := seg[i]
		switch {
		case c >= '0' && c <= '9':
		case c >= 'A' && c <= 'Z':
		case c >= 'a' && c <= 'z':
		default:
			return false
		}
	}
	return true
}
