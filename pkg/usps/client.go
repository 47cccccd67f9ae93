// Package usps is a client for the USPS Web Tools address Verify API.
package usps

import (
	"context"
	"encoding/xml"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/KevinSGarrett/DebtCollect/internal/httpx"
	"github.com/KevinSGarrett/DebtCollect/internal/resilience"
)

const defaultBaseURL = "https://secure.shippingapis.com/ShippingAPI.dll"

// Client standardizes mailing addresses.
type Client interface {
	Verify(ctx context.Context, addr Address) (*Result, error)
}

// Address is the input address. Line1 is the primary street line.
type Address struct {
	Line1 string
	Line2 string
	City  string
	State string
	Zip5  string
}

// Result is the standardized address returned by USPS.
type Result struct {
	Line1           string
	Line2           string
	City            string
	State           string
	Zip5            string
	Zip4            string
	DPVConfirmation string
	Raw             string
}

// Deliverable reports a confirmed delivery point.
func (r *Result) Deliverable() bool {
	return r.DPVConfirmation == "Y"
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API URL.
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
	userID  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a USPS Web Tools client.
func NewClient(userID string, opts ...Option) Client {
	c := &httpClient{
		userID:  userID,
		baseURL: defaultBaseURL,
		http:    httpx.NewHTTPClient(30 * time.Second),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// USPS swaps the usual meaning: Address1 is the secondary unit line and
// Address2 the street line.
type validateRequest struct {
	XMLName  xml.Name       `xml:"AddressValidateRequest"`
	UserID   string         `xml:"USERID,attr"`
	Revision int            `xml:"Revision"`
	Address  requestAddress `xml:"Address"`
}

type requestAddress struct {
	ID       string `xml:"ID,attr"`
	Address1 string `xml:"Address1"`
	Address2 string `xml:"Address2"`
	City     string `xml:"City"`
	State    string `xml:"State"`
	Zip5     string `xml:"Zip5"`
	Zip4     string `xml:"Zip4"`
}

type validateResponse struct {
	XMLName xml.Name          `xml:"AddressValidateResponse"`
	Address []responseAddress `xml:"Address"`
}

type responseAddress struct {
	Address1        string     `xml:"Address1"`
	Address2        string     `xml:"Address2"`
	City            string     `xml:"City"`
	State           string     `xml:"State"`
	Zip5            string     `xml:"Zip5"`
	Zip4            string     `xml:"Zip4"`
	DPVConfirmation string     `xml:"DPVConfirmation"`
	Error           *uspsError `xml:"Error"`
}

type uspsError struct {
	Number      string `xml:"Number"`
	Description string `xml:"Description"`
}

func (c *httpClient) Verify(ctx context.Context, addr Address) (*Result, error) {
	if c.userID == "" {
		return nil, resilience.NewConfigurationError("usps", "usps.user_id")
	}

	payload, err := xml.Marshal(validateRequest{
		UserID:   c.userID,
		Revision: 1,
		Address: requestAddress{
			ID:       "0",
			Address1: addr.Line2,
			Address2: addr.Line1,
			City:     addr.City,
			State:    addr.State,
			Zip5:     addr.Zip5,
		},
	})
	if err != nil {
		return nil, eris.Wrap(err, "usps: marshal request")
	}

	q := url.Values{}
	q.Set("API", "Verify")
	q.Set("XML", string(payload))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "usps: create request")
	}

	body, err := httpx.Do(ctx, c.http, c.limiter, "usps", req)
	if err != nil {
		return nil, err
	}

	if strings.Contains(string(body), "<Error>") && !strings.Contains(string(body), "<AddressValidateResponse") {
		return nil, resilience.NewPermanentError(eris.Errorf("usps: request rejected: %s", string(body)), 0)
	}

	var resp validateResponse
	if err := xml.Unmarshal(body, &resp); err != nil {
		return nil, resilience.NewShapeError("usps", err.Error())
	}
	if len(resp.Address) == 0 {
		return nil, resilience.NewShapeError("usps", "no address in response")
	}
	a := resp.Address[0]
	if a.Error != nil {
		return nil, resilience.NewPermanentError(eris.Errorf("usps: %s", strings.TrimSpace(a.Error.Description)), 0)
	}

	return &Result{
		Line1:           a.Address2,
		Line2:           a.Address1,
		City:            a.City,
		State:           a.State,
		Zip5:            a.Zip5,
		Zip4:            a.Zip4,
		DPVConfirmation: a.DPVConfirmation,
		Raw:             string(body),
	}, nil
}
