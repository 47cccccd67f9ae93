// Package httpx holds the request plumbing shared by the provider clients:
// rate limiting, body reading and status classification.
package httpx

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/KevinSGarrett/DebtCollect/internal/resilience"
)

// maxBody caps how much of a response is read into memory.
const maxBody = 10 << 20

// NewHTTPClient returns an http.Client with the given timeout.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConnsPerHost: 4,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// NewLimiter returns a limiter allowing perSec requests per second, or nil
// (unlimited) when perSec <= 0.
func NewLimiter(perSec float64) *rate.Limiter {
	if perSec <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(perSec), 1)
}

// Do waits on limiter, sends req and returns the body of a 2xx response.
// Transport failures are returned as transient errors; non-2xx statuses are
// classified by resilience.HTTPError.
func Do(ctx context.Context, hc *http.Client, limiter *rate.Limiter, provider string, req *http.Request) ([]byte, error) {
	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return nil, eris.Wrapf(err, "%s: rate limit wait", provider)
		}
	}

	resp, err := hc.Do(req.WithContext(ctx))
	if err != nil {
		if ctx.Err() != nil {
			return nil, eris.Wrapf(err, "%s: send request", provider)
		}
		return nil, resilience.NewTransientError(eris.Wrapf(err, "%s: send request", provider), 0)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, resilience.NewTransientError(eris.Wrapf(err, "%s: read response", provider), resp.StatusCode)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return body, resilience.HTTPError(provider, resp.StatusCode, string(body))
	}
	return body, nil
}
