// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/NikkiXIV/sci-paper-finder/pkg/types"
)

// maxBodyBytes bounds how much of a response body is read.
const maxBodyBytes = 10 << 20

// HTTPClient issues rate-limited GET requests on behalf of one adapter and
// classifies every failure into the source error taxonomy. It is safe for
// concurrent use.
type HTTPClient struct {
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string
}

// NewHTTPClient returns an HTTPClient allowing ratePerSecond sustained
// requests with a burst of one. A non-positive rate disables limiting.
func NewHTTPClient(client *http.Client, userAgent string, ratePerSecond float64) *HTTPClient {
	return newHTTPClient(client, userAgent, ratePerSecond)
}

func newHTTPClient(client *http.Client, userAgent string, ratePerSecond float64) *HTTPClient {
	if client == nil {
		client = http.DefaultClient
	}
	limit := rate.Limit(ratePerSecond)
	if ratePerSecond <= 0 {
		limit = rate.Inf
	}
	burst := int(ratePerSecond)
	if burst < 1 {
		burst = 1
	}
	return &HTTPClient{
		client:    client,
		limiter:   rate.NewLimiter(limit, burst),
		userAgent: userAgent,
	}
}

// Get fetches rawURL and returns the response body. Transport failures and
// non-200 statuses are unavailable errors; an expired context is a timeout.
func (c *HTTPClient) Get(ctx context.Context, src types.Source, rawURL string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, contextFailure(ctx, src, fmt.Errorf("rate limiter wait: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, Unavailable(src, fmt.Errorf("creating request: %w", err))
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, transportFailure(ctx, src, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, Unavailable(src, fmt.Errorf("HTTP %d from %s", resp.StatusCode, req.URL.Host))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, transportFailure(ctx, src, fmt.Errorf("reading response: %w", err))
	}
	return body, nil
}

// contextFailure classifies an error that happened because ctx ended or
// would end before the operation could complete.
func contextFailure(ctx context.Context, src types.Source, err error) *Error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return &Error{Source: src, Kind: types.KindCancelled, Err: err}
	}
	return Timeout(src, err)
}

func transportFailure(ctx context.Context, src types.Source, err error) *Error {
	if ctx.Err() != nil {
		return contextFailure(ctx, src, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return Timeout(src, err)
	}
	return Unavailable(src, err)
}
