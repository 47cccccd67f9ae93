// Package rpv is a client for the RealPhoneValidation Turbo v3 API.
package rpv

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/KevinSGarrett/DebtCollect/internal/httpx"
	"github.com/KevinSGarrett/DebtCollect/internal/resilience"
)

const defaultURL = "https://api.realvalidation.com/rpvWebService/TurboV3.php"

// Client validates phone numbers.
type Client interface {
	Lookup(ctx context.Context, phoneE164 string) (*Response, error)
}

// Response is the subset of the Turbo v3 payload used for scoring.
type Response struct {
	Status    string          `json:"status"`
	PhoneType string          `json:"phone_type"`
	Carrier   string          `json:"carrier"`
	Raw       json.RawMessage `json:"-"`
}

// Connected reports whether the status is in the "connected" family.
func (r *Response) Connected() bool {
	return strings.HasPrefix(strings.ToLower(r.Status), "connected")
}

// Option configures the client.
type Option func(*httpClient)

// WithURL overrides the endpoint URL.
func WithURL(u string) Option {
	return func(c *httpClient) {
		if u != "" {
			c.url = u
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

// Disabled turns every lookup into a configuration error so callers fall
// through to their secondary provider.
func Disabled() Option {
	return func(c *httpClient) {
		c.disabled = true
	}
}

type httpClient struct {
	token    string
	url      string
	disabled bool
	http     *http.Client
	limiter  *rate.Limiter
}

// NewClient creates an RPV client.
func NewClient(token string, opts ...Option) Client {
	c := &httpClient{
		token: token,
		url:   defaultURL,
		http:  httpx.NewHTTPClient(30 * time.Second),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Lookup(ctx context.Context, phoneE164 string) (*Response, error) {
	if c.disabled {
		return nil, resilience.NewConfigurationError("rpv", "rpv.enabled")
	}
	if c.token == "" {
		return nil, resilience.NewConfigurationError("rpv", "rpv.token")
	}
	digits, ok := TenDigits(phoneE164)
	if !ok {
		return nil, resilience.NewPermanentError(eris.Errorf("rpv: requires 10-digit US number, got %q", phoneE164), 0)
	}

	q := url.Values{}
	q.Set("output", "json")
	q.Set("phone", digits)
	q.Set("token", c.token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url+"?"+q.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "rpv: create request")
	}

	body, err := httpx.Do(ctx, c.http, c.limiter, "rpv", req)
	if err != nil {
		return nil, err
	}

	var resp Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, resilience.NewShapeError("rpv", err.Error())
	}
	resp.Raw = body
	return &resp, nil
}

// TenDigits reduces a phone number to the 10 national digits RPV expects.
func TenDigits(phone string) (string, bool) {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	d := b.String()
	if len(d) == 11 && d[0] == '1' {
		d = d[1:]
	}
	if len(d) > 10 {
		d = d[len(d)-10:]
	}
	return d, len(d) == 10
}
