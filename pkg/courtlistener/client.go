// Package courtlistener searches CourtListener dockets.
package courtlistener

import (
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
	defaultBaseURL = "https://www.courtlistener.com/api/rest/v4"
	pageSize       = 20
)

var docketFields = []string{
	"id", "court_id", "absolute_url", "date_filed", "date_terminated",
	"docket_number", "case_name", "case_name_full", "case_name_short",
}

// Client searches dockets by party.
type Client interface {
	// SearchByParty matches the party_name index.
	SearchByParty(ctx context.Context, name string) ([]Docket, error)
	// SearchByCaseName matches case names containing name.
	SearchByCaseName(ctx context.Context, name string) ([]Docket, error)
}

// Docket is one docket entry.
type Docket struct {
	ID             json.Number `json:"id"`
	CourtID        string      `json:"court_id"`
	AbsoluteURL    string      `json:"absolute_url"`
	DateFiled      string      `json:"date_filed"`
	DateTerminated string      `json:"date_terminated"`
	DocketNumber   string      `json:"docket_number"`
	CaseName       string      `json:"case_name"`
	CaseNameFull   string      `json:"case_name_full"`
	CaseNameShort  string      `json:"case_name_short"`
	Chapter        string      `json:"chapter"`
}

// Status is "terminated" once the docket has a termination date.
func (d Docket) Status() string {
	if d.DateTerminated != "" {
		return "terminated"
	}
	return "open"
}

// CaseNumber prefers the docket number over the internal id.
func (d Docket) CaseNumber() string {
	if d.DocketNumber != "" {
		return d.DocketNumber
	}
	return d.ID.String()
}

type searchResponse struct {
	Count   int      `json:"count"`
	Results []Docket `json:"results"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
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
	token   string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a CourtListener client. The token is optional;
// anonymous requests are subject to lower rate limits.
func NewClient(token string, opts ...Option) Client {
	c := &httpClient{
		token:   token,
		baseURL: defaultBaseURL,
		http:    httpx.NewHTTPClient(30 * time.Second),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) SearchByParty(ctx context.Context, name string) ([]Docket, error) {
	return c.search(ctx, "party_name", name)
}

func (c *httpClient) SearchByCaseName(ctx context.Context, name string) ([]Docket, error) {
	return c.search(ctx, "case_name__icontains", name)
}

func (c *httpClient) search(ctx context.Context, field, value string) ([]Docket, error) {
	q := url.Values{}
	q.Set(field, value)
	q.Set("page_size", fmt.Sprint(pageSize))
	q.Set("order_by", "-date_filed")
	q.Set("fields", strings.Join(docketFields, ","))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/dockets/?"+q.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "courtlistener: create request")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Token "+c.token)
	}

	body, err := httpx.Do(ctx, c.http, c.limiter, "courtlistener", req)
	if err != nil {
		return nil, err
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, resilience.NewShapeError("courtlistener", err.Error())
	}
	return resp.Results, nil
}
