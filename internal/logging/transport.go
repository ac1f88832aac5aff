package logging

import (
	"log/slog"
	"net/http"
	"time"
)

// RequestIDHeader carries the per-request correlation ID.
const RequestIDHeader = "X-Request-ID"

// Transport is an http.RoundTripper that logs every outgoing API request.
type Transport struct {
	Next http.RoundTripper
}

// NewTransport wraps next, or http.DefaultTransport when next is nil.
func NewTransport(next http.RoundTripper) *Transport {
	if next == nil {
		next = http.DefaultTransport
	}
	return &Transport{Next: next}
}

// RoundTrip performs the request and logs method, path, status and duration.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.Next.RoundTrip(req)
	duration := time.Since(start)

	attrs := []any{
		"method", req.Method,
		"path", req.URL.Path,
		"duration", duration.String(),
		"request_id", req.Header.Get(RequestIDHeader),
	}

	if err != nil {
		slog.Log(req.Context(), slog.LevelError, "api request failed", append(attrs, "error", err)...)
		return nil, err
	}

	level := slog.LevelDebug
	if resp.StatusCode >= 500 {
		level = slog.LevelError
	} else if resp.StatusCode >= 400 {
		level = slog.LevelWarn
	}

	slog.Log(req.Context(), level, "api request", append(attrs, "status", resp.StatusCode)...)
	return resp, nil
}
