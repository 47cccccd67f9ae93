// Package twilio is a client for the Twilio Lookup v1 phone number API.
package twilio

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/KevinSGarrett/DebtCollect/internal/httpx"
	"github.com/KevinSGarrett/DebtCollect/internal/resilience"
)

const defaultBaseURL = "https://lookups.twilio.com/v1"

// Client looks up carrier information for a phone number.
type Client interface {
	Lookup(ctx context.Context, phoneE164 string) (*LookupResponse, error)
}

// LookupResponse is the Lookup v1 payload.
type LookupResponse struct {
	PhoneNumber string          `json:"phone_number"`
	Carrier     Carrier         `json:"carrier"`
	CallerName  *CallerName     `json:"caller_name,omitempty"`
	Raw         json.RawMessage `json:"-"`
}

// Carrier describes the serving carrier and line type.
type Carrier struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

// CallerName is returned when the caller-name add-on is requested.
type CallerName struct {
	CallerName string `json:"caller_name"`
	CallerType string `json:"caller_type"`
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

// WithCallerName also requests CNAM data.
func WithCallerName(enabled bool) Option {
	return func(c *httpClient) {
		c.callerName = enabled
	}
}

// WithLimiter throttles outgoing requests.
func WithLimiter(l *rate.Limiter) Option {
	return func(c *httpClient) {
		c.limiter = l
	}
}

type httpClient struct {
	sid        string
	token      string
	baseURL    string
	callerName bool
	http       *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a Twilio Lookup client using basic auth.
func NewClient(accountSID, authToken string, opts ...Option) Client {
	c := &httpClient{
		sid:     accountSID,
		token:   authToken,
		baseURL: defaultBaseURL,
		http:    httpx.NewHTTPClient(30 * time.Second),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Lookup(ctx context.Context, phoneE164 string) (*LookupResponse, error) {
	if c.sid == "" || c.token == "" {
		return nil, resilience.NewConfigurationError("twilio", "twilio.account_sid/auth_token")
	}

	q := url.Values{}
	q.Add("Type", "carrier")
	if c.callerName {
		q.Add("Type", "caller-name")
	}
	u := c.baseURL + "/PhoneNumbers/" + url.PathEscape(phoneE164) + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, eris.Wrap(err, "twilio: create request")
	}
	req.SetBasicAuth(c.sid, c.token)

	body, err := httpx.Do(ctx, c.http, c.limiter, "twilio", req)
	if err != nil {
		return nil, err
	}

	var resp LookupResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, resilience.NewShapeError("twilio", err.Error())
	}
	resp.Raw = body
	return &resp, nil
}
