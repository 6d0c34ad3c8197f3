package proxy

import (
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/getmockd/intercept/internal/matching"
	"github.com/getmockd/intercept/pkg/bridge"
	"github.com/getmockd/intercept/pkg/engine"
	"github.com/getmockd/intercept/pkg/httputil"
	"github.com/getmockd/intercept/pkg/metrics"
)

// ServeHTTP dispatches a request: registered handlers first, then the
// unmatched hook, then the policy.
func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	verb := strings.ToUpper(r.Method)

	if r.Method == http.MethodConnect {
		// CONNECT asks for an opaque TLS tunnel, which would hide the
		// requests inside it from interception.
		p.log.Warn("refusing CONNECT tunnel", "host", r.Host)
		httputil.WriteError(w, http.StatusNotImplemented, "connect_unsupported",
			"TLS tunneling is not supported; send plain HTTP requests through the proxy")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, p.maxBody))
	if err != nil {
		p.observe(verb, metrics.OutcomeError, start)
		httputil.WriteError(w, http.StatusBadRequest, "bad_request", "failed to read request body")
		return
	}
	_ = r.Body.Close()

	req := p.engineRequest(r, body)
	log := p.log.With(
		"request_id", uuid.NewString(),
		"verb", verb,
		"url", req.URL.String(),
	)

	if fn, params := p.match(verb, req.URL); fn != nil {
		req.Params = params
		resp, err := fn(r.Context(), req)
		if err != nil {
			p.observe(verb, metrics.OutcomeError, start)
			if errors.Is(err, bridge.ErrUnsupportedAccept) {
				log.Error("handler refused request", "error", err)
				httputil.WriteError(w, http.StatusInternalServerError, "unsupported_accept", err.Error())
				return
			}
			log.Error("handler failed", "error", err)
			httputil.WriteBadGateway(w, err.Error())
			return
		}
		p.observe(verb, metrics.OutcomeMocked, start)
		log.Debug("answered from mock", "status", resp.StatusCode)
		writeResponse(w, resp)
		return
	}

	verdict := engine.VerdictUnhandled
	p.mu.RLock()
	unmatched := p.unmatched
	p.mu.RUnlock()
	if unmatched != nil {
		verdict = unmatched(r.Context(), req)
	}

	if verdict == engine.VerdictPassthrough || p.policy == PolicyBypass {
		p.forward(w, r, req, body, log, start)
		return
	}

	p.observe(verb, metrics.OutcomeBlocked, start)
	log.Info("blocked unhandled request")
	httputil.WriteBlocked(w, verb+" "+req.URL.String()+" is not mocked")
}

// engineRequest converts an incoming request into the boundary shape,
// absolutizing origin-form URLs against the Host header.
func (p *Proxy) engineRequest(r *http.Request, body []byte) *engine.Request {
	u := *r.URL
	if u.Host == "" {
		u.Host = r.Host
	}
	if u.Host == "" {
		u.Host = p.originHost
	}
	if u.Scheme == "" {
		u.Scheme = "http"
	}
	return &engine.Request{
		Method: strings.ToUpper(r.Method),
		URL:    &u,
		Header: r.Header.Clone(),
		Body:   body,
	}
}

// match finds the first handler claiming the request, in registration
// order.
func (p *Proxy) match(verb string, u *url.URL) (engine.HandlerFunc, map[string]string) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for i := range p.routes {
		rt := &p.routes[i]
		if rt.verb != verb {
			continue
		}
		host := rt.host
		if host == "" {
			host = p.originHost
		}
		if u.Host != host {
			continue
		}
		if params, ok := matching.Params(rt.path, u.Path); ok {
			return rt.fn, params
		}
	}
	return nil, nil
}

// writeResponse relays a handler response to the client.
func writeResponse(w http.ResponseWriter, resp *engine.Response) {
	copyHeaders(w.Header(), resp.Header)
	w.WriteHeader(resp.StatusCode)
	if len(resp.Body) > 0 {
		_, _ = w.Write(resp.Body)
	}
}

func (p *Proxy) observe(verb, outcome string, start time.Time) {
	metrics.RequestsTotal.WithLabelValues(verb, outcome).Inc()
	metrics.RequestDuration.WithLabelValues(verb).Observe(time.Since(start).Seconds())
}
