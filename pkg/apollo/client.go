// Package apollo is a client for the Apollo people match API.
package apollo

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/KevinSGarrett/DebtCollect/internal/httpx"
	"github.com/KevinSGarrett/DebtCollect/internal/resilience"
)

const defaultBaseURL = "https://api.apollo.io/api/v1"

// Client matches people to professional profiles.
type Client interface {
	PeopleMatch(ctx context.Context, name string) (*MatchResponse, error)
}

// MatchResponse is the people/match payload. Older responses carry a
// people list instead of a single person.
type MatchResponse struct {
	Person *Person  `json:"person"`
	People []Person `json:"people"`
}

// Found reports whether any person matched.
func (r *MatchResponse) Found() bool {
	return r != nil && (r.Person != nil || len(r.People) > 0)
}

// Person is a matched profile.
type Person struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Title        string        `json:"title"`
	Organization *Organization `json:"organization"`
}

// Organization is the person's employer.
type Organization struct {
	Name       string `json:"name"`
	WebsiteURL string `json:"website_url"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
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

// NewClient creates an Apollo client.
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

type matchRequest struct {
	Name string `json:"name"`
}

func (c *httpClient) PeopleMatch(ctx context.Context, name string) (*MatchResponse, error) {
	if c.apiKey == "" {
		return nil, resilience.NewConfigurationError("apollo", "apollo.key")
	}

	payload, err := json.Marshal(matchRequest{Name: name})
	if err != nil {
		return nil, eris.Wrap(err, "apollo: marshal request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/people/match", bytes.NewReader(payload))
	if err != nil {
		return nil, eris.Wrap(err, "apollo: create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", c.apiKey)

	body, err := httpx.Do(ctx, c.http, c.limiter, "apollo", req)
	if err != nil {
		return nil, err
	}

	var resp MatchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, resilience.NewShapeError("apollo", err.Error())
	}
	return &resp, nil
}
