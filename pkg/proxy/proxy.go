// Package proxy implements the interception boundary as a forward HTTP
// proxy. It answers requests from registered mock handlers, passes
// allowed traffic through to the real network, and treats the rest
// according to a configurable policy.
//
// Point an HTTP client's proxy setting at the listener and registered
// routes respond in place of their upstreams. Requests work in both
// proxy form (absolute URL) and origin form (path only); origin-form
// requests are attributed to the Host header.
package proxy

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/getmockd/intercept/internal/urlpath"
	"github.com/getmockd/intercept/pkg/bridge"
	"github.com/getmockd/intercept/pkg/engine"
	"github.com/getmockd/intercept/pkg/logging"
	"github.com/getmockd/intercept/pkg/metrics"
)

// Policy is the treatment of requests no handler matched and no
// unmatched hook claimed.
type Policy string

const (
	// PolicyBypass forwards unhandled requests to their real
	// destination. This is the default.
	PolicyBypass Policy = "bypass"

	// PolicyBlock answers unhandled requests with a 404 instead of
	// letting them reach the network.
	PolicyBlock Policy = "block"
)

// DefaultMaxBodySize caps buffered request and response bodies (10MB).
const DefaultMaxBodySize = 10 * 1024 * 1024

// defaultClientTimeout bounds upstream requests made while forwarding.
const defaultClientTimeout = 30 * time.Second

// Options configures proxy behavior.
type Options struct {
	// Origin is the origin that relative handler paths are served
	// under. Origin-form requests whose Host matches it hit those
	// handlers. Defaults to bridge.DefaultOrigin.
	Origin string

	// Policy is applied to requests nothing claimed. Empty means
	// PolicyBypass.
	Policy Policy

	// Logger receives request logs. Nil disables logging.
	Logger *slog.Logger

	// Client performs upstream requests when forwarding. Nil uses a
	// client that relays redirects instead of following them.
	Client *http.Client

	// MaxBodySize caps buffered bodies in bytes. Zero or negative
	// means DefaultMaxBodySize.
	MaxBodySize int64
}

// Proxy is a forward proxy that dispatches requests to registered
// handlers before letting them reach the network.
//
// Registration order is significant: the first handler whose verb and
// pattern match a request answers it. Register all handlers before
// serving; Handle is safe to call concurrently but routes added while
// requests are in flight may miss them.
type Proxy struct {
	origin     string
	originHost string
	policy     Policy
	log        *slog.Logger
	client     *http.Client
	maxBody    int64

	mu        sync.RWMutex
	routes    []route
	unmatched engine.UnmatchedFunc
}

// route is one registered handler.
type route struct {
	verb    string
	pattern string
	host    string // non-empty when pattern carried its own host
	path    string
	fn      engine.HandlerFunc
}

var _ engine.Engine = (*Proxy)(nil)
var _ http.Handler = (*Proxy)(nil)

// New creates a Proxy with the given options.
func New(opts Options) (*Proxy, error) {
	origin := opts.Origin
	if origin == "" {
		origin = bridge.DefaultOrigin
	}
	origin = strings.TrimSuffix(origin, "/")
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("proxy: invalid origin %q", origin)
	}

	policy := opts.Policy
	if policy == "" {
		policy = PolicyBypass
	}
	if policy != PolicyBypass && policy != PolicyBlock {
		return nil, fmt.Errorf("proxy: unknown policy %q", policy)
	}

	log := opts.Logger
	if log == nil {
		log = logging.Nop()
	}

	client := opts.Client
	if client == nil {
		client = &http.Client{
			Timeout: defaultClientTimeout,
			// Relay redirects to the client rather than following
			// them; a proxy that chases 3xx responses rewrites the
			// conversation.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		}
	}

	maxBody := opts.MaxBodySize
	if maxBody <= 0 {
		maxBody = DefaultMaxBodySize
	}

	return &Proxy{
		origin:     origin,
		originHost: u.Host,
		policy:     policy,
		log:        log,
		client:     client,
		maxBody:    maxBody,
	}, nil
}

// Handle implements engine.Engine. Absolute patterns match requests to
// their own host; relative patterns match requests to the configured
// origin.
func (p *Proxy) Handle(verb, path string, fn engine.HandlerFunc) error {
	if fn == nil {
		return fmt.Errorf("proxy: nil handler for %s %s", verb, path)
	}
	verb = strings.ToUpper(strings.TrimSpace(verb))
	if verb == "" {
		return fmt.Errorf("proxy: empty verb for %q", path)
	}

	rt := route{verb: verb, pattern: path, fn: fn}
	if urlpath.IsAbsolute(path) {
		u, err := url.Parse(path)
		if err != nil || u.Host == "" {
			return fmt.Errorf("proxy: unparseable handler path %q", path)
		}
		rt.host = u.Host
		rt.path = u.Path
		if rt.path == "" {
			rt.path = "/"
		}
	} else {
		rt.path = path
	}

	p.mu.Lock()
	p.routes = append(p.routes, rt)
	p.mu.Unlock()
	metrics.RoutesRegistered.Inc()
	return nil
}

// OnUnmatched implements engine.Engine.
func (p *Proxy) OnUnmatched(fn engine.UnmatchedFunc) {
	p.mu.Lock()
	p.unmatched = fn
	p.mu.Unlock()
}

// Routes reports how many handlers are registered.
func (p *Proxy) Routes() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.routes)
}
