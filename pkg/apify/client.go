// Package apify runs the one-api skip-trace actor synchronously and returns
// its raw candidate records.
package apify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/KevinSGarrett/DebtCollect/internal/httpx"
	"github.com/KevinSGarrett/DebtCollect/internal/resilience"
)

const (
	defaultBaseURL = "https://api.apify.com/v2"
	defaultActor   = "one-api~skip-trace"
)

// Result source tags.
const (
	SourceList         = "run-sync:list"
	SourceResults      = "run-sync:results"
	SourceDatasetItems = "run-sync-get-dataset-items"
	SourceUnknown      = "unknown"
)

// Client runs skip-trace lookups.
type Client interface {
	SkipTrace(ctx context.Context, q Query) (*Result, error)
}

// Query identifies the person to trace.
type Query struct {
	FirstName string
	LastName  string
	City      string
	State     string
	Zip       string
}

// Name renders the actor's "First Last; City, ST ZIP" search string.
func (q Query) Name() string {
	return strings.TrimSpace(fmt.Sprintf("%s %s; %s, %s %s", q.FirstName, q.LastName, q.City, q.State, q.Zip))
}

// Result holds the candidates returned by the actor and which endpoint
// produced them.
type Result struct {
	Items  []map[string]any
	Source string
}

// Exchange is one request/response pair, reported to the raw sink.
type Exchange struct {
	Timestamp time.Time       `json:"ts"`
	Source    string          `json:"source"`
	Status    int             `json:"status"`
	Payload   any             `json:"payload"`
	Body      json.RawMessage `json:"body"`
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

// WithActor overrides the actor id.
func WithActor(actor string) Option {
	return func(c *httpClient) {
		if actor != "" {
			c.actor = actor
		}
	}
}

// WithMaxResults sets the per-query result cap sent to the actor.
func WithMaxResults(n int) Option {
	return func(c *httpClient) {
		if n > 0 {
			c.maxResults = n
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

// WithRawSink registers fn to receive every raw exchange.
func WithRawSink(fn func(Exchange)) Option {
	return func(c *httpClient) {
		c.sink = fn
	}
}

type httpClient struct {
	token      string
	baseURL    string
	actor      string
	maxResults int
	http       *http.Client
	limiter    *rate.Limiter
	sink       func(Exchange)
}

// NewClient creates an Apify client.
func NewClient(token string, opts ...Option) Client {
	c := &httpClient{
		token:      token,
		baseURL:    defaultBaseURL,
		actor:      defaultActor,
		maxResults: 3,
		http:       httpx.NewHTTPClient(120 * time.Second),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type runInput struct {
	MaxResults int      `json:"max_results"`
	Name       []string `json:"name"`
}

// SkipTrace calls run-sync and, when its output is neither a list nor a
// results object, retries against run-sync-get-dataset-items.
func (c *httpClient) SkipTrace(ctx context.Context, q Query) (*Result, error) {
	if c.token == "" {
		return nil, resilience.NewConfigurationError("apify", "apify.token")
	}
	input := runInput{MaxResults: c.maxResults, Name: []string{q.Name()}}

	body, err := c.run(ctx, "run-sync", input)
	if err != nil {
		return nil, err
	}
	var data any
	if json.Unmarshal(body, &data) == nil {
		switch v := data.(type) {
		case []any:
			return &Result{Items: objects(v), Source: SourceList}, nil
		case map[string]any:
			if list, ok := v["results"].([]any); ok {
				return &Result{Items: objects(list), Source: SourceResults}, nil
			}
		}
	}

	body, err = c.run(ctx, "run-sync-get-dataset-items", input)
	if err != nil {
		return nil, err
	}
	var items []any
	if err := json.Unmarshal(body, &items); err != nil {
		return &Result{Source: SourceUnknown}, nil
	}
	return &Result{Items: objects(items), Source: SourceDatasetItems}, nil
}

func (c *httpClient) run(ctx context.Context, endpoint string, input runInput) ([]byte, error) {
	payload, err := json.Marshal(input)
	if err != nil {
		return nil, eris.Wrap(err, "apify: marshal input")
	}
	u := fmt.Sprintf("%s/acts/%s/%s?token=%s", c.baseURL, url.PathEscape(c.actor), endpoint, url.QueryEscape(c.token))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return nil, eris.Wrap(err, "apify: create request")
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := httpx.Do(ctx, c.http, c.limiter, "apify", req)
	if c.sink != nil {
		status := http.StatusOK
		if err != nil {
			status = resilience.StatusCode(err)
		}
		raw := json.RawMessage(body)
		if !json.Valid(body) {
			raw, _ = json.Marshal(string(body))
		}
		c.sink(Exchange{Timestamp: time.Now().UTC(), Source: endpoint, Status: status, Payload: input, Body: raw})
	}
	return body, err
}

func objects(items []any) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for _, it := range items {
		if m, ok := it.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}
