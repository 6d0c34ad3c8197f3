package bridge

import "errors"

// Errors reported by the bridge.
//
// ErrNoServer and ErrNoEngine indicate a setup-order programming
// error; New returns them before any route can be registered.
// ErrUnsupportedAccept is a per-request error: the bridge refuses to
// guess a response representation it cannot produce.
var (
	ErrNoServer          = errors.New("bridge: no mocking server")
	ErrNoEngine          = errors.New("bridge: no interception engine")
	ErrBadOrigin         = errors.New("bridge: invalid origin")
	ErrUnknownVerb       = errors.New("bridge: unknown verb")
	ErrUnsupportedAccept = errors.New("bridge: unsupported accept type")
)
