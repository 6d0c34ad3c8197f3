package engine

import (
	"net/http"
	"net/url"
)

// Request is an intercepted outgoing request as the engine saw it.
type Request struct {
	// Method is the HTTP verb, upper case.
	Method string

	// URL is the absolute request URL. Engines fill in the scheme
	// and host even for requests that arrived in origin form.
	URL *url.URL

	// Header holds the request headers with their original casing.
	Header http.Header

	// Body is the raw request body. Empty bodies are a nil or empty
	// slice, never unread.
	Body []byte

	// Params holds the values captured by ":name" segments of the
	// matched handler path. It is nil for requests no handler
	// matched.
	Params map[string]string
}

// Host returns the host the request was addressed to, including any
// port.
func (r *Request) Host() string {
	if r.URL == nil {
		return ""
	}
	return r.URL.Host
}

// Response is the answer a handler produced for an intercepted
// request.
type Response struct {
	// StatusCode is the HTTP status to answer with.
	StatusCode int

	// Header holds the response headers.
	Header http.Header

	// Body is the serialized response body.
	Body []byte
}
