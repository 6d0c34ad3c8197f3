// Package engine defines the boundary to a request interception
// engine.
//
// An interception engine sits between an application and the network,
// answering requests from registered handlers instead of letting them
// reach their real destination. The bridge package drives any
// implementation of the Engine interface; the proxy package provides
// one that intercepts at the HTTP proxy level.
package engine

import "context"

// HandlerFunc answers an intercepted request. Returning an error
// makes the engine answer the request with an error response instead.
type HandlerFunc func(ctx context.Context, req *Request) (*Response, error)

// UnmatchedFunc decides what happens to a request no handler claimed.
type UnmatchedFunc func(ctx context.Context, req *Request) Verdict

// Verdict is the decision an UnmatchedFunc returns for an unclaimed
// request.
type Verdict int

const (
	// VerdictUnhandled leaves the request unanswered by any handler.
	// What that means is up to the engine; the proxy engine forwards
	// or blocks depending on its policy.
	VerdictUnhandled Verdict = iota

	// VerdictPassthrough sends the request on to its real
	// destination untouched.
	VerdictPassthrough
)

// String returns the verdict name as used in logs.
func (v Verdict) String() string {
	switch v {
	case VerdictPassthrough:
		return "passthrough"
	case VerdictUnhandled:
		return "unhandled"
	default:
		return "unknown"
	}
}

// Engine is a request interception engine.
//
// Handlers are registered up front and consulted for every request
// the engine sees. Registration is not expected to be safe against
// concurrent interception; configure the engine fully before serving.
type Engine interface {
	// Handle registers fn for requests matching verb and path. The
	// path may contain ":name" segments and a trailing "/**" glob.
	// Earlier registrations win when several paths match.
	Handle(verb, path string, fn HandlerFunc) error

	// OnUnmatched installs the callback consulted when no handler
	// matches a request. Without one every unclaimed request is
	// VerdictUnhandled.
	OnUnmatched(fn UnmatchedFunc)
}
