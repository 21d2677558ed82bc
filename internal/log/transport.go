package log

import (
	"log/slog"
	"net/http"
	"time"
)

// Transport is an http.RoundTripper that logs every outbound request.
// 4xx responses log at warn, 5xx and transport failures at error.
type Transport struct {
	Base   http.RoundTripper
	Logger *Logger
}

// NewTransport wraps base (http.DefaultTransport when nil).
func NewTransport(base http.RoundTripper, logger *Logger) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	if logger == nil {
		logger = New(DefaultConfig()).WithComponent(ComponentGateway)
	}
	return &Transport{Base: base, Logger: logger}
}

func (t *Transport) RoundTrip(r *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.Base.RoundTrip(r)
	durationMs := time.Since(start).Milliseconds()

	fields := NewFields().WithHTTPRequest(r.Method, r.URL.Path)
	if err != nil {
		fields.WithError(err).WithErrorType(ErrorTypeNetwork)
		t.Logger.Log(r.Context(), slog.LevelError, "Outbound request failed", fields.ToSlice()...)
		return nil, err
	}

	level := slog.LevelDebug
	switch {
	case resp.StatusCode >= 500:
		level = slog.LevelError
	case resp.StatusCode >= 400:
		level = slog.LevelWarn
	}
	fields.WithHTTPResponse(resp.StatusCode, durationMs, resp.StatusCode < 400)
	t.Logger.Log(r.Context(), level, "Outbound request completed", fields.ToSlice()...)
	return resp, nil
}
