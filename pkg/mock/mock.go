// Package mock defines the contract between a route-mocking server
// and the interception bridge.
//
// The bridge translates intercepted requests into the normalized
// Request shape, hands them to a Server's registered handlers, and
// turns the resulting Reply back into an engine response. Any server
// implementing the Server interface can sit behind the bridge; the
// InMemoryServer in this package is the reference implementation.
package mock

import (
	"context"
	"net/url"
	"time"
)

// Request is the normalized form of an intercepted request as route
// handlers see it.
type Request struct {
	// Body is the decoded request body: the unmarshaled value when
	// the request content type includes "json", the raw text
	// otherwise, nil when the body is empty.
	Body any

	// Query holds the query parameters. Keys written in the
	// "key[]" repeated-parameter syntax are collapsed to their bare
	// name.
	Query url.Values

	// Headers holds the request headers with lower-cased names.
	// Repeated headers are joined with ", ".
	Headers map[string]string

	// Params holds the values captured by ":name" path segments.
	Params map[string]string
}

// Reply is a route handler's answer in wire-ready form: status code,
// headers and the serialized body.
type Reply struct {
	Code    int
	Headers map[string]string
	Body    string
}

// Handler is a user-facing route handler. The returned value is
// serialized by the server: strings pass through untouched, anything
// else is marshaled to JSON.
type Handler func(ctx context.Context, req *Request) (any, error)

// ResponderFunc is a registered route handler wrapped with the
// server's serialization and status rules.
type ResponderFunc func(ctx context.Context, req *Request) (*Reply, error)

// RouteOptions carries per-route registration options.
type RouteOptions struct {
	// Timing delays the response by the given duration. Zero uses
	// the bridge-wide default.
	Timing time.Duration

	// Headers are static headers stamped onto every reply from the
	// route. A handler cannot override them.
	Headers map[string]string
}

// Server is the route-mocking server the bridge adapts.
type Server interface {
	// RegisterRouteHandler records a route and returns the responder
	// the bridge invokes for matching requests. The path is the
	// canonical full path the route is served under. A zero code
	// picks the server's default for the verb.
	RegisterRouteHandler(verb, path string, h Handler, code int, opts RouteOptions) (ResponderFunc, error)

	// ShouldLog reports whether diagnostic warnings about unhandled
	// requests should be emitted.
	ShouldLog() bool
}
