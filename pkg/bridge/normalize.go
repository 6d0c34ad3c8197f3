package bridge

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/getmockd/intercept/pkg/engine"
	"github.com/getmockd/intercept/pkg/mock"
)

// normalizeRequest converts an engine request into the shape route
// handlers consume.
func normalizeRequest(req *engine.Request) *mock.Request {
	query := url.Values{}
	if req.URL != nil {
		query = normalizeQuery(req.URL.Query())
	}
	return &mock.Request{
		Body:    normalizeBody(req.Header, req.Body),
		Query:   query,
		Headers: normalizeHeaders(req.Header),
		Params:  req.Params,
	}
}

// normalizeQuery collapses keys written in the "key[]" repeated
// parameter syntax onto their bare name.
func normalizeQuery(values url.Values) url.Values {
	out := make(url.Values, len(values))
	for key, vals := range values {
		name := strings.TrimSuffix(key, "[]")
		out[name] = append(out[name], vals...)
	}
	return out
}

// normalizeHeaders lower-cases header names and joins repeated
// headers with ", ".
func normalizeHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for name, vals := range h {
		out[strings.ToLower(name)] = strings.Join(vals, ", ")
	}
	return out
}

// normalizeBody decodes the body as JSON when the content type says
// so, as plain text otherwise. A JSON body that fails to parse is
// kept as text rather than failing the request. Empty bodies are nil.
func normalizeBody(h http.Header, body []byte) any {
	if len(body) == 0 {
		return nil
	}
	if strings.Contains(strings.ToLower(h.Get("Content-Type")), "json") {
		var v any
		if err := json.Unmarshal(body, &v); err == nil {
			return v
		}
	}
	return string(body)
}

// buildResponse turns a reply into the engine's response format,
// negotiating the content type from the request's Accept header. A
// content type set by the reply itself wins over negotiation.
func buildResponse(req *engine.Request, reply *mock.Reply) (*engine.Response, error) {
	contentType, err := negotiate(req.Header.Get("Accept"))
	if err != nil {
		return nil, err
	}

	header := make(http.Header, len(reply.Headers)+1)
	for name, value := range reply.Headers {
		header.Set(name, value)
	}
	if header.Get("Content-Type") == "" {
		header.Set("Content-Type", contentType)
	}

	var body []byte
	if reply.Body != "" {
		body = []byte(reply.Body)
	}
	return &engine.Response{
		StatusCode: reply.Code,
		Header:     header,
		Body:       body,
	}, nil
}

// negotiate picks the response content type for an Accept header
// value. Missing and wildcard accepts are served as JSON; anything
// that names neither json nor text is refused.
func negotiate(accept string) (string, error) {
	a := strings.ToLower(accept)
	switch {
	case a == "" || strings.Contains(a, "*/*") || strings.Contains(a, "json"):
		return "application/json", nil
	case strings.Contains(a, "text"):
		return "text/plain", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedAccept, accept)
	}
}
