// Package gateway forwards caller requests to the OCR backend. It is
// stateless: the one piece of intelligence it carries is recognizing
// event-stream responses and relaying them unbuffered with headers that
// keep intermediaries from buffering either.
package gateway

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// forwardedRequestHeaders are copied from the inbound request; every other
// inbound header is dropped.
var forwardedRequestHeaders = []string{"Content-Type", "Authorization"}

// strippedResponseHeaders are removed from backend responses. Hop-by-hop
// framing belongs to the gateway's own transport, and CORS is re-applied
// by the gateway's CORS layer (the backend's answers would conflict).
var strippedResponseHeaders = []string{
	"Transfer-Encoding",
	"Content-Length",
	"Content-Encoding",
	"Access-Control-Allow-Origin",
	"Access-Control-Allow-Methods",
	"Access-Control-Allow-Headers",
	"Access-Control-Allow-Credentials",
}

// sseResponseHeaders are forced onto event-stream responses so proxies and
// the Go server itself never buffer or transform the stream.
var sseResponseHeaders = map[string]string{
	"Content-Type":      "text/event-stream; charset=utf-8",
	"Cache-Control":     "no-cache, no-transform",
	"Connection":        "keep-alive",
	"X-Accel-Buffering": "no",
}

// Proxy forwards allow-listed requests to one backend. It keeps no
// per-request state and never retries.
type Proxy struct {
	backend  *url.URL
	prefixes []string
	client   *http.Client
}

// NewProxy targets the backend at backendURL. Requests whose path matches
// none of allowedPrefixes are rejected with 404 before any backend contact.
func NewProxy(backendURL string, allowedPrefixes []string) (*Proxy, error) {
	u, err := url.Parse(backendURL)
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("backend url %q must be absolute", backendURL)
	}

	return &Proxy{
		backend:  u,
		prefixes: allowedPrefixes,
		// No overall timeout: battle event streams stay open for minutes.
		client: &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				// Redirects pass through untouched.
				return http.ErrUseLastResponse
			},
		},
	}, nil
}

func (p *Proxy) allowed(path string) bool {
	for _, prefix := range p.prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !p.allowed(r.URL.Path) {
		rejectedPaths.Inc()
		writeJSONError(w, http.StatusNotFound, "Not found")
		return
	}

	target := *p.backend
	target.Path = r.URL.Path
	target.RawQuery = r.URL.RawQuery

	// Non-idempotent methods stream the original body through; nothing is
	// buffered into memory.
	var body io.Reader
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		body = r.Body
	}

	req, err := http.NewRequestWithContext(r.Context(), r.Method, target.String(), body)
	if err != nil {
		backendErrors.Inc()
		writeJSONError(w, http.StatusBadGateway, "Backend connection failed")
		return
	}
	for _, h := range forwardedRequestHeaders {
		if v := r.Header.Get(h); v != "" {
			req.Header.Set(h, v)
		}
	}

	resp, err := p.client.Do(req)
	if err != nil {
		backendErrors.Inc()
		log.Printf("gateway: backend request failed: %v", err)
		writeJSONError(w, http.StatusBadGateway, "Backend connection failed")
		return
	}
	defer resp.Body.Close()

	headers := w.Header()
	for k, vv := range resp.Header {
		if isStripped(k) {
			continue
		}
		for _, v := range vv {
			headers.Add(k, v)
		}
	}

	proxiedRequests.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()

	if isEventStream(resp) {
		for k, v := range sseResponseHeaders {
			headers.Set(k, v)
		}
		w.WriteHeader(resp.StatusCode)
		activeStreams.Inc()
		defer activeStreams.Dec()
		copyStream(w, resp.Body)
		return
	}

	w.WriteHeader(resp.StatusCode)
	io.Copy(w, resp.Body)
}

// copyStream relays an event stream, flushing after every chunk so tokens
// reach the caller as soon as the backend emits them.
func copyStream(w http.ResponseWriter, body io.Reader) {
	rc := http.NewResponseController(w)
	buf := make([]byte, 4096)
	for {
		n, err := body.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return
			}
			if ferr := rc.Flush(); ferr != nil {
				return
			}
		}
		if err != nil {
			return
		}
	}
}

func isEventStream(resp *http.Response) bool {
	return strings.Contains(resp.Header.Get("Content-Type"), "text/event-stream")
}

func isStripped(key string) bool {
	canonical := http.CanonicalHeaderKey(key)
	if strings.HasPrefix(canonical, "Access-Control-Allow-") {
		return true
	}
	for _, h := range strippedResponseHeaders {
		if canonical == h {
			return true
		}
	}
	return false
}

func writeJSONError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
