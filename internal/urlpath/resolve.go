// Package urlpath resolves route paths against a URL prefix and
// namespace.
package urlpath

import "strings"

// Context carries the URL prefix and namespace that scope resolved
// route paths. The zero value resolves paths against the origin root.
type Context struct {
	// URLPrefix is prepended to every resolved path. It may be a full
	// origin such as "http://localhost:4000" or a plain path segment.
	URLPrefix string

	// Namespace is joined between the prefix and the route path,
	// e.g. "api" or "/api/v2".
	Namespace string
}

// Resolve expands path using the context's prefix and namespace.
func (c Context) Resolve(path string) string {
	return Resolve(path, c.URLPrefix, c.Namespace)
}

// Resolve expands a route path into the full path it is served under.
//
// A path that is already an absolute http(s) URL is returned as is,
// ignoring the prefix and namespace. Otherwise the result is the
// prefix, the namespace and the path joined with single slashes. When
// the joined result is not an absolute URL it is forced to start with
// "/" and runs of consecutive slashes are collapsed, so callers may
// be sloppy about slashes on any of the three inputs.
func Resolve(path, urlPrefix, namespace string) string {
	path = strings.TrimPrefix(path, "/")
	if IsAbsolute(path) {
		return path
	}

	prefix := strings.TrimSpace(urlPrefix)
	fragment := namespaceFragment(namespace, urlPrefix != "")

	var full string
	if prefix != "" {
		full = prefix
		if !strings.HasSuffix(prefix, "/") {
			full += "/"
		}
	}
	full += fragment
	if !strings.HasSuffix(full, "/") {
		full += "/"
	}
	full += path

	if !IsAbsolute(full) {
		full = collapseSlashes("/" + full)
	}
	return full
}

// namespaceFragment normalizes the namespace for joining. With a
// prefix present the fragment carries neither a leading nor a
// trailing slash. Without a prefix it keeps exactly one leading slash
// and loses any trailing one.
func namespaceFragment(namespace string, withPrefix bool) string {
	if namespace == "" {
		return ""
	}
	lead := strings.HasPrefix(namespace, "/")
	trail := strings.HasSuffix(namespace, "/")

	if withPrefix {
		switch {
		case lead && trail:
			return strings.TrimPrefix(strings.TrimSuffix(namespace, "/"), "/")
		case lead:
			return strings.TrimPrefix(namespace, "/")
		case trail:
			return strings.TrimSuffix(namespace, "/")
		default:
			return namespace
		}
	}

	switch {
	case lead && trail:
		return strings.TrimSuffix(namespace, "/")
	case lead:
		return namespace
	case trail:
		return "/" + strings.TrimSuffix(namespace, "/")
	default:
		return "/" + namespace
	}
}

// IsAbsolute reports whether s starts with an http or https scheme.
func IsAbsolute(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// collapseSlashes rewrites every run of consecutive slashes to a
// single slash.
func collapseSlashes(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	var prev byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '/' && prev == '/' {
			continue
		}
		b.WriteByte(c)
		prev = c
	}
	return b.String()
}
