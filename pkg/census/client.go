// Package census reads ACS 5-year estimates from the Census Data API.
package census

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/KevinSGarrett/DebtCollect/internal/httpx"
	"github.com/KevinSGarrett/DebtCollect/internal/resilience"
)

const (
	defaultBaseURL = "https://api.census.gov/data/2022/acs/acs5"

	// MedianHomeValue is the ACS variable for median owner-occupied value.
	MedianHomeValue = "B25077_001E"
)

// ErrNoEstimate is returned when the ZCTA has no published estimate.
var ErrNoEstimate = eris.New("census: no estimate")

// Client reads ZCTA-level estimates.
type Client interface {
	ZCTAMedianValue(ctx context.Context, zip5 string) (float64, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default dataset URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		if u != "" {
			c.baseURL = u
		}
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithLimiter throttles outgoing requests.
func WithLimiter(l *rate.Limiter) Option {
	return func(c *httpClient) {
		c.limiter = l
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a Census Data API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http:    httpx.NewHTTPClient(30 * time.Second),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// ZCTAMedianValue returns the median home value for a 5-digit ZCTA.
func (c *httpClient) ZCTAMedianValue(ctx context.Context, zip5 string) (float64, error) {
	if c.apiKey == "" {
		return 0, resilience.NewConfigurationError("census", "census.key")
	}
	if len(zip5) != 5 {
		return 0, ErrNoEstimate
	}

	q := url.Values{}
	q.Set("get", MedianHomeValue)
	q.Set("for", "zip code tabulation area:"+zip5)
	q.Set("key", c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return 0, eris.Wrap(err, "census: create request")
	}

	body, err := httpx.Do(ctx, c.http, c.limiter, "census", req)
	if err != nil {
		return 0, err
	}
	// An unknown ZCTA yields 204 with an empty body.
	if len(body) == 0 {
		return 0, ErrNoEstimate
	}

	// [["B25077_001E","zip code tabulation area"],["250000","77301"]]
	var rows [][]string
	if err := json.Unmarshal(body, &rows); err != nil {
		return 0, resilience.NewShapeError("census", err.Error())
	}
	if len(rows) < 2 || len(rows[1]) == 0 {
		return 0, ErrNoEstimate
	}
	v, err := strconv.ParseFloat(rows[1][0], 64)
	if err != nil {
		return 0, resilience.NewShapeError("census", "non-numeric estimate "+rows[1][0])
	}
	// Negative sentinels such as -666666666 mark suppressed estimates.
	if v <= 0 {
		return 0, ErrNoEstimate
	}
	return v, nil
}
