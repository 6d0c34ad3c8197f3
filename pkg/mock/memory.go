package mock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"slices"
	"sync"
)

// ErrNilHandler is returned when a route is registered without a
// handler.
var ErrNilHandler = errors.New("mock: nil handler")

// Route describes a route registered with the in-memory server.
type Route struct {
	Verb    string
	Path    string
	Code    int
	Options RouteOptions
}

// InMemoryServer is the reference Server implementation. It keeps a
// table of registered routes and wraps handlers with the default
// serialization and status rules.
type InMemoryServer struct {
	// Logging overrides the ShouldLog answer when set. Left nil,
	// warnings are on.
	Logging *bool

	mu     sync.RWMutex
	routes []Route
}

// NewInMemoryServer returns a server with no routes.
func NewInMemoryServer() *InMemoryServer {
	return &InMemoryServer{}
}

var _ Server = (*InMemoryServer)(nil)

// RegisterRouteHandler implements Server. A zero code defaults to 200,
// or 201 for POST routes.
func (s *InMemoryServer) RegisterRouteHandler(verb, path string, h Handler, code int, opts RouteOptions) (ResponderFunc, error) {
	if h == nil {
		return nil, fmt.Errorf("%w: %s %s", ErrNilHandler, verb, path)
	}
	if code == 0 {
		code = defaultCode(verb)
	}

	s.mu.Lock()
	s.routes = append(s.routes, Route{Verb: verb, Path: path, Code: code, Options: opts})
	s.mu.Unlock()

	return func(ctx context.Context, req *Request) (*Reply, error) {
		result, err := h(ctx, req)
		if err != nil {
			return nil, err
		}
		body, err := serializeBody(result)
		if err != nil {
			return nil, err
		}
		headers := make(map[string]string, len(opts.Headers))
		maps.Copy(headers, opts.Headers)
		return &Reply{Code: code, Headers: headers, Body: body}, nil
	}, nil
}

// ShouldLog implements Server. The Logging field wins when set.
func (s *InMemoryServer) ShouldLog() bool {
	if s.Logging != nil {
		return *s.Logging
	}
	return true
}

// Routes returns the registered routes in registration order.
func (s *InMemoryServer) Routes() []Route {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.routes)
}

// defaultCode picks the status for a route registered without an
// explicit one.
func defaultCode(verb string) int {
	if verb == http.MethodPost {
		return http.StatusCreated
	}
	return http.StatusOK
}

// serializeBody turns a handler result into the reply body. Strings
// and byte slices pass through untouched, nil becomes empty,
// everything else is marshaled to JSON.
func serializeBody(v any) (string, error) {
	switch body := v.(type) {
	case nil:
		return "", nil
	case string:
		return body, nil
	case []byte:
		return string(body), nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("serialize response body: %w", err)
		}
		return string(b), nil
	}
}
