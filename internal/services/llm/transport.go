package llm

import (
	"context"
	"net/http"
	"time"
)

type retryAfterKey struct{}

// withRetryAfterSink asks the transport to record a Retry-After header from
// the response into sink. The SDK error types do not carry response headers.
func withRetryAfterSink(ctx context.Context, sink *time.Duration) context.Context {
	return context.WithValue(ctx, retryAfterKey{}, sink)
}

// headerTransport adds OpenRouter attribution headers to every request.
type headerTransport struct {
	base    http.RoundTripper
	referer string
	title   string
}

func newHeaderTransport(base http.RoundTripper, referer, title string) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &headerTransport{base: base, referer: referer, title: title}
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.referer != "" || t.title != "" {
		req = req.Clone(req.Context())
		if t.referer != "" {
			req.Header.Set("HTTP-Referer", t.referer)
			req.Header.Set("Referer", t.referer)
		}
		if t.title != "" {
			req.Header.Set("X-Title", t.title)
		}
	}
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return resp, err
	}
	if sink, ok := req.Context().Value(retryAfterKey{}).(*time.Duration); ok && sink != nil {
		if delay, ok := parseRetryAfter(resp.Header.Get("Retry-After")); ok {
			*sink = delay
		}
	}
	return resp, nil
}
