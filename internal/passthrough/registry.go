// Package passthrough records which outgoing requests bypass
// interception, keyed by host and verb.
package passthrough

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"sort"
	"strings"

	"github.com/getmockd/intercept/internal/matching"
)

// ErrMalformedURL is returned by Add when the given URL cannot be
// parsed into a host and path.
var ErrMalformedURL = errors.New("passthrough: malformed url")

// AllVerbs is the verb set a first insert for a host defaults to when
// no verbs are named.
var AllVerbs = []string{
	http.MethodGet,
	http.MethodPut,
	http.MethodPost,
	http.MethodDelete,
	http.MethodPatch,
	http.MethodHead,
	http.MethodOptions,
}

// Registry holds the passthrough rules for outgoing requests. Rules
// are grouped by host, then by verb, each verb carrying its path
// patterns in insertion order.
//
// A Registry is not safe for concurrent mutation. Register every rule
// during setup, then share it read-only between requests.
type Registry struct {
	hosts map[string]map[string][]string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{hosts: make(map[string]map[string][]string)}
}

// Add registers the path of rawURL for passthrough on its host.
//
// rawURL must be an absolute http(s) URL; anything else fails with
// ErrMalformedURL. A URL without a path registers "/".
//
// The verb handling differs between the first insert for a host and
// later ones. The first insert with no verbs registers the path under
// every verb in AllVerbs. A later insert with no verbs extends only
// the verbs the host already carries. Explicit verbs always register
// exactly those verbs.
func (r *Registry) Add(rawURL string, verbs ...string) error {
	u, err := url.ParseRequestURI(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrMalformedURL, rawURL)
	}
	if u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%w: %q", ErrMalformedURL, rawURL)
	}

	path := u.Path
	if path == "" {
		path = "/"
	}

	normalized := make([]string, 0, len(verbs))
	for _, v := range verbs {
		normalized = append(normalized, strings.ToUpper(v))
	}

	entry, ok := r.hosts[u.Host]
	if !ok {
		entry = make(map[string][]string)
		r.hosts[u.Host] = entry
		if len(normalized) == 0 {
			normalized = AllVerbs
		}
		for _, v := range normalized {
			entry[v] = append(entry[v], path)
		}
		return nil
	}

	if len(normalized) == 0 {
		for v := range entry {
			entry[v] = append(entry[v], path)
		}
		return nil
	}
	for _, v := range normalized {
		entry[v] = append(entry[v], path)
	}
	return nil
}

// Allows reports whether a request for verb and path on host is
// registered for passthrough. Patterns are tried in insertion order
// and the first match wins.
func (r *Registry) Allows(host, verb, path string) bool {
	entry, ok := r.hosts[host]
	if !ok {
		return false
	}
	for _, pattern := range entry[strings.ToUpper(verb)] {
		if matching.Match(pattern, path) {
			return true
		}
	}
	return false
}

// Lookup returns the patterns registered for host keyed by verb, each
// list in insertion order. The result is a copy; mutating it does not
// affect the registry. Unknown hosts return nil.
func (r *Registry) Lookup(host string) map[string][]string {
	entry, ok := r.hosts[host]
	if !ok {
		return nil
	}
	out := make(map[string][]string, len(entry))
	for verb, patterns := range entry {
		out[verb] = slices.Clone(patterns)
	}
	return out
}

// Hosts returns every host with at least one rule, sorted.
func (r *Registry) Hosts() []string {
	hosts := make([]string, 0, len(r.hosts))
	for h := range r.hosts {
		hosts = append(hosts, h)
	}
	sort.Strings(hosts)
	return hosts
}
