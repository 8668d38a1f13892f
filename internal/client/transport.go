package client

import (
	"log/slog"
	"net/http"
	"time"
)

// slowRequestThreshold is the duration above which requests are logged at WARN level.
const slowRequestThreshold = 2 * time.Second

// maxURLLogLen is the maximum length for logged URLs before truncation.
const maxURLLogLen = 200

// loggingTransport logs every round trip with its timing.
type loggingTransport struct {
	next   http.RoundTripper
	logger *slog.Logger
}

// RoundTrip implements http.RoundTripper.
func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.next.RoundTrip(req)
	duration := time.Since(start)

	attrs := []any{
		"method", req.Method,
		"url", truncate(req.URL.String(), maxURLLogLen),
		"request_id", req.Header.Get("X-Request-ID"),
		"duration_ms", duration.Milliseconds(),
	}

	switch {
	case err != nil:
		attrs = append(attrs, "error", err.Error())
		t.logger.Debug("request failed", attrs...)
	case duration > slowRequestThreshold:
		t.logger.Warn("slow request", append(attrs, "status", resp.StatusCode)...)
	default:
		t.logger.Debug("request completed", append(attrs, "status", resp.StatusCode)...)
	}
	return resp, err
}

// SetLogger logs every request through logger at debug level, and slow
// ones at warn level.
func (c *Client) SetLogger(logger *slog.Logger) {
	next := c.httpClient.Transport
	if lt, ok := next.(*loggingTransport); ok {
		next = lt.next
	}
	if next == nil {
		next = http.DefaultTransport
	}
	if logger == nil {
		c.httpClient.Transport = next
		return
	}
	c.httpClient.Transport = &loggingTransport{next: next, logger: logger}
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen < 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
