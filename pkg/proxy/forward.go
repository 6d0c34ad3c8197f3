package proxy

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/getmockd/intercept/pkg/engine"
	"github.com/getmockd/intercept/pkg/httputil"
	"github.com/getmockd/intercept/pkg/metrics"
)

// forward sends the request to its real destination and relays the
// answer back to the client.
func (p *Proxy) forward(w http.ResponseWriter, r *http.Request, req *engine.Request, body []byte, log *slog.Logger, start time.Time) {
	outReq, err := http.NewRequestWithContext(r.Context(), req.Method, req.URL.String(), bytes.NewReader(body))
	if err != nil {
		p.observe(req.Method, metrics.OutcomeError, start)
		log.Error("failed to build upstream request", "error", err)
		httputil.WriteBadGateway(w, err.Error())
		return
	}

	copyHeaders(outReq.Header, r.Header)
	removeHopByHopHeaders(outReq.Header)
	outReq.Header.Set("X-Forwarded-For", r.RemoteAddr)
	outReq.Header.Set("X-Forwarded-Host", r.Host)

	resp, err := p.client.Do(outReq)
	if err != nil {
		p.observe(req.Method, metrics.OutcomeError, start)
		log.Error("upstream request failed", "error", err)
		httputil.WriteBadGateway(w, err.Error())
		return
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, p.maxBody))
	if err != nil {
		p.observe(req.Method, metrics.OutcomeError, start)
		log.Error("failed to read upstream response", "error", err)
		httputil.WriteBadGateway(w, err.Error())
		return
	}

	copyHeaders(w.Header(), resp.Header)
	removeHopByHopHeaders(w.Header())
	w.WriteHeader(resp.StatusCode)
	_, _ = w.Write(respBody)

	p.observe(req.Method, metrics.OutcomePassthrough, start)
	log.Debug("passed through", "status", resp.StatusCode)
}

// copyHeaders copies all values from src to dst.
func copyHeaders(dst, src http.Header) {
	for key, values := range src {
		for _, value := range values {
			dst.Add(key, value)
		}
	}
}

// removeHopByHopHeaders strips headers that must not survive a proxy
// hop (RFC 7230, section 6.1).
func removeHopByHopHeaders(h http.Header) {
	hopByHop := []string{
		"Connection",
		"Keep-Alive",
		"Proxy-Authenticate",
		"Proxy-Authorization",
		"Proxy-Connection",
		"TE",
		"Trailers",
		"Transfer-Encoding",
		"Upgrade",
	}
	for _, header := range hopByHop {
		h.Del(header)
	}
}
