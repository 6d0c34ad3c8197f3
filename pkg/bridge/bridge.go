// Package bridge connects a route-mocking server to a request
// interception engine.
//
// The bridge translates the server's route definitions into handler
// registrations on the engine, normalizes intercepted requests into
// the shape the server's handlers expect, converts their replies back
// into engine responses, and decides for unmatched requests whether
// they pass through to the real network.
package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/getmockd/intercept/internal/passthrough"
	"github.com/getmockd/intercept/internal/urlpath"
	"github.com/getmockd/intercept/pkg/engine"
	"github.com/getmockd/intercept/pkg/logging"
	"github.com/getmockd/intercept/pkg/mock"
)

// DefaultOrigin is the origin assumed for relative passthrough rules
// and same-host checks when WithOrigin is not used.
const DefaultOrigin = "http://localhost"

// verbTable maps every accepted verb spelling to its canonical HTTP
// method. "del" and "delete" share an entry.
var verbTable = map[string]string{
	"get":     http.MethodGet,
	"put":     http.MethodPut,
	"post":    http.MethodPost,
	"patch":   http.MethodPatch,
	"head":    http.MethodHead,
	"options": http.MethodOptions,
	"delete":  http.MethodDelete,
	"del":     http.MethodDelete,
}

// Bridge wires a mocking server to an interception engine.
//
// Configure it fully, including routes and passthrough rules, before
// the engine starts serving. Nothing on the bridge is safe for
// concurrent mutation; once serving starts it is read-only.
type Bridge struct {
	server mock.Server
	engine engine.Engine

	path       urlpath.Context
	origin     string
	originHost string
	timing     time.Duration
	log        *slog.Logger

	registry *passthrough.Registry
	checks   []func(*engine.Request) bool
}

// Option is a functional option for configuring a Bridge.
type Option func(*Bridge)

// WithURLPrefix sets the prefix every route path is resolved under.
// It may be a full origin such as "http://api.example.com".
func WithURLPrefix(prefix string) Option {
	return func(b *Bridge) {
		b.path.URLPrefix = prefix
	}
}

// WithNamespace sets the namespace joined between the prefix and
// every route path, e.g. "api".
func WithNamespace(namespace string) Option {
	return func(b *Bridge) {
		b.path.Namespace = namespace
	}
}

// WithOrigin sets the origin relative passthrough rules resolve
// against and that the unmatched-request warning treats as "own
// host". An empty origin keeps the default.
func WithOrigin(origin string) Option {
	return func(b *Bridge) {
		if origin != "" {
			b.origin = origin
		}
	}
}

// WithTiming delays every mocked response by d. Individual routes can
// override it with WithRouteTiming.
func WithTiming(d time.Duration) Option {
	return func(b *Bridge) {
		b.timing = d
	}
}

// WithLogger sets the logger for diagnostic output.
func WithLogger(log *slog.Logger) Option {
	return func(b *Bridge) {
		if log != nil {
			b.log = log
		}
	}
}

// routeSettings carries the per-route registration settings.
type routeSettings struct {
	code    int
	timing  time.Duration
	headers map[string]string
}

// RouteOption customizes one route registration.
type RouteOption func(*routeSettings)

// WithCode sets the route's response status code instead of the
// server's default for the verb.
func WithCode(code int) RouteOption {
	return func(rs *routeSettings) {
		rs.code = code
	}
}

// WithRouteTiming overrides the bridge-wide response delay for one
// route.
func WithRouteTiming(d time.Duration) RouteOption {
	return func(rs *routeSettings) {
		rs.timing = d
	}
}

// WithRouteHeaders stamps static headers onto every reply from the
// route.
func WithRouteHeaders(headers map[string]string) RouteOption {
	return func(rs *routeSettings) {
		rs.headers = headers
	}
}

// New wires server to eng.
//
// Both collaborators are required; a nil server or engine is a setup
// programming error reported as ErrNoServer or ErrNoEngine. New
// claims the engine's unmatched hook for the passthrough decision.
func New(server mock.Server, eng engine.Engine, opts ...Option) (*Bridge, error) {
	if server == nil {
		return nil, ErrNoServer
	}
	if eng == nil {
		return nil, ErrNoEngine
	}

	b := &Bridge{
		server:   server,
		engine:   eng,
		origin:   DefaultOrigin,
		log:      logging.Nop(),
		registry: passthrough.NewRegistry(),
	}
	for _, opt := range opts {
		opt(b)
	}

	b.origin = strings.TrimSuffix(b.origin, "/")
	u, err := url.Parse(b.origin)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("%w: %q", ErrBadOrigin, b.origin)
	}
	b.originHost = u.Host

	eng.OnUnmatched(b.decideUnmatched)
	return b, nil
}

// Handle registers a route for verb at path.
//
// The verb may be any spelling in the verb table, case insensitive.
// The path is resolved against the configured prefix and namespace
// before registration, so the server and the engine both see the
// canonical full path.
func (b *Bridge) Handle(verb, path string, h mock.Handler, opts ...RouteOption) error {
	canonical, ok := verbTable[strings.ToLower(verb)]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownVerb, verb)
	}

	rs := routeSettings{timing: b.timing}
	for _, opt := range opts {
		opt(&rs)
	}

	fullPath := b.path.Resolve(path)
	responder, err := b.server.RegisterRouteHandler(canonical, fullPath, h, rs.code, mock.RouteOptions{
		Timing:  rs.timing,
		Headers: rs.headers,
	})
	if err != nil {
		return fmt.Errorf("register %s %s: %w", canonical, fullPath, err)
	}
	if err := b.engine.Handle(canonical, fullPath, b.adapt(responder, rs.timing)); err != nil {
		return fmt.Errorf("register %s %s with engine: %w", canonical, fullPath, err)
	}
	return nil
}

// Get registers a route for GET requests.
func (b *Bridge) Get(path string, h mock.Handler, opts ...RouteOption) error {
	return b.Handle(http.MethodGet, path, h, opts...)
}

// Put registers a route for PUT requests.
func (b *Bridge) Put(path string, h mock.Handler, opts ...RouteOption) error {
	return b.Handle(http.MethodPut, path, h, opts...)
}

// Post registers a route for POST requests.
func (b *Bridge) Post(path string, h mock.Handler, opts ...RouteOption) error {
	return b.Handle(http.MethodPost, path, h, opts...)
}

// Patch registers a route for PATCH requests.
func (b *Bridge) Patch(path string, h mock.Handler, opts ...RouteOption) error {
	return b.Handle(http.MethodPatch, path, h, opts...)
}

// Head registers a route for HEAD requests.
func (b *Bridge) Head(path string, h mock.Handler, opts ...RouteOption) error {
	return b.Handle(http.MethodHead, path, h, opts...)
}

// Options registers a route for OPTIONS requests.
func (b *Bridge) Options(path string, h mock.Handler, opts ...RouteOption) error {
	return b.Handle(http.MethodOptions, path, h, opts...)
}

// Delete registers a route for DELETE requests.
func (b *Bridge) Delete(path string, h mock.Handler, opts ...RouteOption) error {
	return b.Handle(http.MethodDelete, path, h, opts...)
}

// Del registers a route for DELETE requests. It is an alias for
// Delete kept for route definitions written with the short verb.
func (b *Bridge) Del(path string, h mock.Handler, opts ...RouteOption) error {
	return b.Delete(path, h, opts...)
}

// adapt wraps a responder into the engine-facing handler performing
// request and response normalization.
func (b *Bridge) adapt(responder mock.ResponderFunc, timing time.Duration) engine.HandlerFunc {
	return func(ctx context.Context, req *engine.Request) (*engine.Response, error) {
		reply, err := responder(ctx, normalizeRequest(req))
		if err != nil {
			return nil, err
		}
		// Some engines mishandle 204 responses that carry a body.
		if reply.Code == http.StatusNoContent {
			reply.Body = ""
		}
		if err := sleep(ctx, timing); err != nil {
			return nil, err
		}
		return buildResponse(req, reply)
	}
}

// sleep blocks for d or until the context is canceled.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
