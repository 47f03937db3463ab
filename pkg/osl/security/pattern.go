package security

import "strings"

// MatchGlob reports whether resource matches pattern using the glob
// rules shared by ACL, RBAC and the WASM capability checker: `*` matches
// a single path segment, `**` matches zero or more segments
// recursively, and `?` matches a single character within a segment.
//
// Segments are delimited by `/`.
func MatchGlob(pattern, resource string) bool {
	if pattern == "**" {
		return true
	}
	return matchSegments(strings.Split(pattern, "/"), strings.Split(resource, "/"))
}

func matchSegments(pat, res []string) bool {
	if len(pat) == 0 {
		return len(res) == 0
	}
	if pat[0] == "**" {
		if len(pat) == 1 {
			return true
		}
		for i := 0; i <= len(res); i++ {
			if matchSegments(pat[1:], res[i:]) {
				return true
			}
		}
		return false
	}
	if len(res) == 0 {
		return false
	}
	if !matchSegment(pat[0], res[0]) {
		return false
	}
	return matchSegments(pat[1:], res[1:])
}

// matchSegment matches a single path segment against a pattern segment
// containing `*` (any run of characters) and `?` (any single character).
func matchSegment(pat, seg string) bool {
	return matchRunes([]rune(pat), []rune(seg))
}

func matchRunes(pat, seg []rune) bool {
	if len(pat) == 0 {
		return len(seg) == 0
	}
	switch pat[0] {
	case '*':
		for i := 0; i <= len(seg); i++ {
			if matchRunes(pat[1:], seg[i:]) {
				return true
			}
		}
		return false
	case '?':
		if len(seg) == 0 {
			return false
		}
		return matchRunes(pat[1:], seg[1:])
	default:
		if len(seg) == 0 || seg[0] != pat[0] {
			return false
		}
		return matchRunes(pat[1:], seg[1:])
	}
}

// MatchPermission reports whether requested matches one of granted,
// honoring a literal "*" grant as wildcard-allow-all.
func MatchPermission(granted []string, requested string) bool {
	for _, g := range granted {
		if g == "*" || g == requested {
			return true
		}
	}
	return false
}
