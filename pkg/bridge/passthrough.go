package bridge

import (
	"context"
	"fmt"
	"strings"

	"github.com/getmockd/intercept/internal/urlpath"
	"github.com/getmockd/intercept/pkg/engine"
)

// DefaultPassthroughPaths are the paths registered when Passthrough
// is called with no arguments. The glob requires a non-empty
// remainder, so the root path is listed separately.
var DefaultPassthroughPaths = []string{"/**", "/"}

// Passthrough lets requests matching the given paths through to the
// real network, for every verb. With no paths it opens up the whole
// origin.
//
// Paths are resolved against the configured prefix and namespace; a
// resolved path that is not an absolute URL is pinned to the bridge's
// origin. Patterns may use ":name" segments and a trailing "/**".
func (b *Bridge) Passthrough(paths ...string) error {
	return b.PassthroughVerbs(nil, paths...)
}

// PassthroughVerbs is Passthrough limited to the given verbs. An
// empty verb list behaves exactly like Passthrough.
func (b *Bridge) PassthroughVerbs(verbs []string, paths ...string) error {
	if len(paths) == 0 {
		paths = DefaultPassthroughPaths
	}

	canonical := make([]string, 0, len(verbs))
	for _, v := range verbs {
		cv, ok := verbTable[strings.ToLower(v)]
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownVerb, v)
		}
		canonical = append(canonical, cv)
	}

	for _, path := range paths {
		target := b.path.Resolve(path)
		if !urlpath.IsAbsolute(target) {
			target = b.origin + target
		}
		if err := b.registry.Add(target, canonical...); err != nil {
			return err
		}
	}
	return nil
}

// PassthroughFunc registers a predicate consulted before the
// registry on every unmatched request. The predicate receives the
// raw engine request, not the normalized one.
func (b *Bridge) PassthroughFunc(fn func(req *engine.Request) bool) {
	if fn != nil {
		b.checks = append(b.checks, fn)
	}
}

// PassthroughHosts returns the hosts with passthrough rules, sorted.
func (b *Bridge) PassthroughHosts() []string {
	return b.registry.Hosts()
}

// PassthroughRules returns the passthrough patterns registered for
// host, keyed by verb.
func (b *Bridge) PassthroughRules(host string) map[string][]string {
	return b.registry.Lookup(host)
}

// decideUnmatched is the engine's unmatched hook. Predicates are
// consulted first, then the registry. Unmatched requests to another
// host are warned about, gated by the server's logging switch;
// same-host misses stay silent.
func (b *Bridge) decideUnmatched(ctx context.Context, req *engine.Request) engine.Verdict {
	for _, check := range b.checks {
		if check(req) {
			return engine.VerdictPassthrough
		}
	}

	verb := strings.ToUpper(req.Method)
	host := req.Host()
	var pathname string
	if req.URL != nil {
		pathname = req.URL.Path
	}
	if b.registry.Allows(host, verb, pathname) {
		return engine.VerdictPassthrough
	}

	if host != b.originHost && b.server.ShouldLog() {
		var rawURL string
		if req.URL != nil {
			rawURL = req.URL.String()
		}
		attrs := []any{"verb", verb, "url", rawURL}
		if b.path.Namespace == "" {
			attrs = append(attrs, "hint", "no namespace is configured, so routes resolve against the bare origin")
		}
		b.log.Warn("no route matched an outgoing request", attrs...)
	}
	return engine.VerdictUnhandled
}
