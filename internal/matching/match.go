// Package matching implements the path pattern grammar shared by the
// proxy engine and the passthrough registry.
package matching

import "strings"

// Glob is the pattern segment that, in trailing position, matches any
// non-empty remainder of a path.
const Glob = "**"

// Match reports whether path matches pattern.
//
// Patterns are compared segment by segment. A ":name" segment matches
// exactly one path segment of any value. A trailing "/**" matches one
// or more remaining segments; it never matches an empty remainder, so
// the pattern "/**" does not match "/". All other segments are
// literals. Leading and trailing slashes are ignored on both sides,
// which makes "/users" and "/users/" equivalent.
func Match(pattern, path string) bool {
	return match(segments(pattern), segments(path), nil)
}

// Params matches path against pattern and returns the values captured
// by ":name" segments. The boolean reports whether the path matched;
// on a miss the map is nil. The remainder consumed by a trailing
// "/**" is not captured.
func Params(pattern, path string) (map[string]string, bool) {
	params := make(map[string]string)
	if !match(segments(pattern), segments(path), params) {
		return nil, false
	}
	return params, true
}

// segments splits a path into its slash-separated segments. "/" and
// "" both yield no segments.
func segments(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

// match walks the pattern segments against the path segments,
// recording ":name" captures into params when it is non-nil.
func match(pattern, path []string, params map[string]string) bool {
	for i, seg := range pattern {
		if seg == Glob && i == len(pattern)-1 {
			// The glob consumes everything left, but there must be
			// something left to consume.
			return len(path) > i
		}
		if i >= len(path) {
			return false
		}
		if name, ok := strings.CutPrefix(seg, ":"); ok && name != "" {
			if params != nil {
				params[name] = path[i]
			}
			continue
		}
		if seg != path[i] {
			return false
		}
	}
	return len(pattern) == len(path)
}
