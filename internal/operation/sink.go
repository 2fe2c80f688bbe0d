package operation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/roach88/ledgerd/internal/model"
)

// CallbackSink receives the terminal result of an operation that was
// answered with a pending callback response.
type CallbackSink interface {
	Deliver(ctx context.Context, res model.Result) error
}

// HTTPSink POSTs results as JSON to a fixed URL, rate limited.
type HTTPSink struct {
	url     string
	client  *http.Client
	limiter *rate.Limiter
}

// SinkOption configures an HTTPSink.
type SinkOption func(*HTTPSink)

// WithHTTPClient replaces the default client (10s timeout).
func WithHTTPClient(c *http.Client) SinkOption {
	return func(s *HTTPSink) {
		s.client = c
	}
}

// WithRateLimit caps deliveries at r per second with the given burst.
// Default: unlimited.
func WithRateLimit(r float64, burst int) SinkOption {
	return func(s *HTTPSink) {
		s.limiter = rate.NewLimiter(rate.Limit(r), burst)
	}
}

// NewHTTPSink creates a sink posting to url.
func NewHTTPSink(url string, opts ...SinkOption) *HTTPSink {
	s := &HTTPSink{
		url:     url,
		client:  &http.Client{Timeout: 10 * time.Second},
		limiter: rate.NewLimiter(rate.Inf, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Deliver posts res. Any non-2xx status is an error.
func (s *HTTPSink) Deliver(ctx context.Context, res model.Result) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("callback %s: %w", res.CorrelationID, err)
	}

	body, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("callback %s: encode: %w", res.CorrelationID, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("callback %s: %w", res.CorrelationID, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("callback %s: %w", res.CorrelationID, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("callback %s: unexpected status %s", res.CorrelationID, resp.Status)
	}
	return nil
}
