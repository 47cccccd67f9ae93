// Package attom is a client for the ATTOM property detail API.
package attom

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

const defaultBaseURL = "https://api.attomdata.com/propertyapi/v1.0.0"

// Client looks up property records.
type Client interface {
	PropertyDetail(ctx context.Context, address string) (*DetailResponse, error)
}

// DetailResponse is the property/detail payload.
type DetailResponse struct {
	Property []Property     `json:"property"`
	Raw      json.RawMessage `json:"-"`
}

// Property is one parcel.
type Property struct {
	Summary    Summary    `json:"summary"`
	Assessment Assessment `json:"assessment"`
}

// Summary carries occupancy.
type Summary struct {
	OwnOcc      string `json:"ownocc"`
	AbsenteeInd string `json:"absenteeInd"`
}

// OwnerOccupied reports whether the owner lives at the property.
func (s Summary) OwnerOccupied() bool {
	return s.OwnOcc == "Y" || s.AbsenteeInd == "OWNER OCCUPIED"
}

// Assessment holds valuation and tax figures.
type Assessment struct {
	Market   Market   `json:"market"`
	Assessed Assessed `json:"assessed"`
	Tax      Tax      `json:"tax"`
}

type Market struct {
	MktTtlValue float64 `json:"mktttlvalue"`
}

type Assessed struct {
	AssdTtlValue float64 `json:"assdttlvalue"`
}

type Tax struct {
	TaxAmt float64 `json:"taxamt"`
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

// NewClient creates an ATTOM client.
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

// PropertyDetail looks up a one-line address ("street, city, ST zip").
func (c *httpClient) PropertyDetail(ctx context.Context, address string) (*DetailResponse, error) {
	if c.apiKey == "" {
		return nil, resilience.NewConfigurationError("attom", "attom.key")
	}

	q := url.Values{}
	q.Set("address", address)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/property/detail?"+q.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "attom: create request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("apikey", c.apiKey)

	body, err := httpx.Do(ctx, c.http, c.limiter, "attom", req)
	if err != nil {
		return nil, err
	}

	var resp DetailResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, resilience.NewShapeError("attom", err.Error())
	}
	resp.Raw = body
	return &resp, nil
}
