// Package directus is a client for the Directus REST items API used as the
// remote record store.
package directus

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/KevinSGarrett/DebtCollect/internal/httpx"
	"github.com/KevinSGarrett/DebtCollect/internal/resilience"
)

// Client performs item operations against one Directus instance.
type Client interface {
	CreateItem(ctx context.Context, collection string, item any) (json.RawMessage, error)
	UpdateItem(ctx context.Context, collection, id string, patch any) (json.RawMessage, error)
	ListItems(ctx context.Context, collection string, filter map[string]any, limit int) ([]json.RawMessage, error)
	DeleteItem(ctx context.Context, collection, id string) error
}

// Option configures the client.
type Option func(*httpClient)

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRetry overrides the transport retry policy.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *httpClient) {
		c.retry = cfg
	}
}

// WithLogger sets the logger used for retry warnings.
func WithLogger(log *zap.Logger) Option {
	return func(c *httpClient) {
		c.log = log
	}
}

type httpClient struct {
	baseURL string
	token   string
	http    *http.Client
	retry   resilience.RetryConfig
	log     *zap.Logger
}

// NewClient creates a Directus client for baseURL authenticated with a
// static bearer token. Transient failures are retried up to 5 times with
// exponential backoff and jitter.
func NewClient(baseURL, token string, opts ...Option) Client {
	c := &httpClient{
		baseURL: baseURL,
		token:   token,
		http:    httpx.NewHTTPClient(30 * time.Second),
		retry:   resilience.StoreRetryConfig(),
		log:     zap.L(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type envelope struct {
	Data json.RawMessage `json:"data"`
}

func (c *httpClient) CreateItem(ctx context.Context, collection string, item any) (json.RawMessage, error) {
	body, err := c.do(ctx, http.MethodPost, c.itemsURL(collection, ""), nil, item)
	if err != nil {
		return nil, eris.Wrapf(err, "directus: create %s", collection)
	}
	return unwrap(body)
}

func (c *httpClient) UpdateItem(ctx context.Context, collection, id string, patch any) (json.RawMessage, error) {
	body, err := c.do(ctx, http.MethodPatch, c.itemsURL(collection, id), nil, patch)
	if err != nil {
		return nil, eris.Wrapf(err, "directus: update %s/%s", collection, id)
	}
	return unwrap(body)
}

func (c *httpClient) ListItems(ctx context.Context, collection string, filter map[string]any, limit int) ([]json.RawMessage, error) {
	q := url.Values{}
	if len(filter) > 0 {
		f := make(map[string]any, len(filter))
		for field, v := range filter {
			f[field] = map[string]any{"_eq": v}
		}
		raw, err := json.Marshal(f)
		if err != nil {
			return nil, eris.Wrap(err, "directus: marshal filter")
		}
		q.Set("filter", string(raw))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	} else {
		q.Set("limit", "-1")
	}

	body, err := c.do(ctx, http.MethodGet, c.itemsURL(collection, ""), q, nil)
	if err != nil {
		return nil, eris.Wrapf(err, "directus: list %s", collection)
	}

	data, err := unwrap(body)
	if err != nil {
		return nil, err
	}
	var items []json.RawMessage
	if len(data) > 0 && string(data) != "null" {
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, resilience.NewShapeError("directus", "list data is not an array")
		}
	}
	return items, nil
}

func (c *httpClient) DeleteItem(ctx context.Context, collection, id string) error {
	if _, err := c.do(ctx, http.MethodDelete, c.itemsURL(collection, id), nil, nil); err != nil {
		return eris.Wrapf(err, "directus: delete %s/%s", collection, id)
	}
	return nil
}

func (c *httpClient) itemsURL(collection, id string) string {
	u := c.baseURL + "/items/" + url.PathEscape(collection)
	if id != "" {
		u += "/" + url.PathEscape(id)
	}
	return u
}

func (c *httpClient) do(ctx context.Context, method, u string, q url.Values, payload any) ([]byte, error) {
	var raw []byte
	if payload != nil {
		var err error
		raw, err = json.Marshal(payload)
		if err != nil {
			return nil, eris.Wrap(err, "directus: marshal payload")
		}
	}
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	cfg := c.retry
	cfg.OnRetry = resilience.RetryLogger(c.log, "directus", method)

	return resilience.DoVal(ctx, cfg, func(ctx context.Context) ([]byte, error) {
		var body io.Reader
		if raw != nil {
			body = bytes.NewReader(raw)
		}
		req, err := http.NewRequestWithContext(ctx, method, u, body)
		if err != nil {
			return nil, eris.Wrap(err, "directus: create request")
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		if raw != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		return httpx.Do(ctx, c.http, nil, "directus", req)
	})
}

func unwrap(body []byte) (json.RawMessage, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, eris.Wrap(err, "directus: unmarshal response")
	}
	return env.Data, nil
}
