// Package peoplesearch is a client for the RapidAPI USA people search
// endpoint. Results are converted to the tabular Phone-N/Email-N candidate
// layout used by the skip-trace actor.
package peoplesearch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/KevinSGarrett/DebtCollect/internal/httpx"
	"github.com/KevinSGarrett/DebtCollect/internal/resilience"
)

const (
	defaultHost    = "usa-people-search-public-records.p.rapidapi.com"
	defaultBaseURL = "https://" + defaultHost

	// SourceTag marks candidates produced by this client.
	SourceTag = "rapidapi:fallback"

	maxContacts = 5
)

// Client searches people records.
type Client interface {
	SearchPeople(ctx context.Context, first, last, state string) ([]map[string]any, error)
}

// Person is one record from the SearchPeople response.
type Person struct {
	FullName    string        `json:"FullName"`
	Address     string        `json:"Address"`
	City        string        `json:"City"`
	State       string        `json:"State"`
	Zip         string        `json:"Zip"`
	PeoplePhone []PeoplePhone `json:"PeoplePhone"`
	Email       []any         `json:"Email"`

	extra map[string]any
}

// PeoplePhone is one phone entry on a Person.
type PeoplePhone struct {
	Phone     string `json:"Phone"`
	Type      string `json:"Type"`
	LastSeen  string `json:"LastSeen"`
	FirstSeen string `json:"FirstSeen"`
	Provider  string `json:"Provider"`
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

// WithHost overrides the x-rapidapi-host header.
func WithHost(h string) Option {
	return func(c *httpClient) {
		if h != "" {
			c.host = h
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
	key     string
	host    string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a people search client.
func NewClient(key string, opts ...Option) Client {
	c := &httpClient{
		key:     key,
		host:    defaultHost,
		baseURL: defaultBaseURL,
		http:    httpx.NewHTTPClient(30 * time.Second),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) SearchPeople(ctx context.Context, first, last, state string) ([]map[string]any, error) {
	if c.key == "" {
		return nil, resilience.NewConfigurationError("rapidapi", "rapidapi.key")
	}

	q := url.Values{}
	q.Set("FirstName", first)
	q.Set("LastName", last)
	q.Set("State", state)
	q.Set("Page", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/SearchPeople?"+q.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "rapidapi: create request")
	}
	req.Header.Set("x-rapidapi-key", c.key)
	req.Header.Set("x-rapidapi-host", c.host)

	body, err := httpx.Do(ctx, c.http, c.limiter, "rapidapi", req)
	if err != nil {
		return nil, err
	}

	people, err := decodePeople(body)
	if err != nil {
		return nil, err
	}

	var out []map[string]any
	for _, p := range people {
		if !nameMatches(p.FullName, first, last) {
			continue
		}
		out = append(out, p.tabular(first, last))
	}
	return out, nil
}

// decodePeople accepts a bare list or an object holding the list under
// Source1, results or data.
func decodePeople(body []byte) ([]Person, error) {
	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, eris.Wrap(err, "rapidapi: unmarshal response")
	}

	var list []any
	switch v := raw.(type) {
	case []any:
		list = v
	case map[string]any:
		for _, k := range []string{"Source1", "results", "data"} {
			if l, ok := v[k].([]any); ok {
				list = l
				break
			}
		}
	}

	people := make([]Person, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		b, err := json.Marshal(m)
		if err != nil {
			continue
		}
		var p Person
		if err := json.Unmarshal(b, &p); err != nil {
			continue
		}
		p.extra = m
		people = append(people, p)
	}
	return people, nil
}

// nameMatches keeps a person whose first two FullName tokens equal the
// searched first and last name. Records without a usable FullName pass.
func nameMatches(fullName, first, last string) bool {
	parts := strings.Fields(fullName)
	if len(parts) < 2 {
		return true
	}
	return strings.EqualFold(parts[0], first) && strings.EqualFold(parts[1], last)
}

type phone struct {
	number, typ, lastSeen, firstSeen, provider string
}

func (p Person) tabular(first, last string) map[string]any {
	var phones []phone
	for _, ph := range p.PeoplePhone {
		if ph.Phone == "" {
			continue
		}
		typ := ph.Type
		if typ == "" {
			typ = "Unknown"
		}
		phones = append(phones, phone{ph.Phone, typ, ph.LastSeen, ph.FirstSeen, ph.Provider})
	}

	var emails []string
	for _, e := range p.Email {
		switch v := e.(type) {
		case string:
			if v != "" {
				emails = append(emails, v)
			}
		case map[string]any:
			if s, ok := v["Email"].(string); ok && s != "" {
				emails = append(emails, s)
			}
		}
	}

	// Loose string fields such as "HomePhone" or "WorkEmail".
	keys := make([]string, 0, len(p.extra))
	for k := range p.extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		s, ok := p.extra[k].(string)
		if !ok || s == "" {
			continue
		}
		lk := strings.ToLower(k)
		switch {
		case strings.Contains(lk, "phone"):
			phones = append(phones, phone{number: s, typ: "Unknown"})
		case strings.Contains(lk, "email"):
			emails = append(emails, s)
		}
	}

	if fields := strings.Fields(p.FullName); len(fields) >= 2 {
		first, last = fields[0], fields[1]
	}
	c := map[string]any{
		"First Name":       first,
		"Last Name":        last,
		"Street Address":   p.Address,
		"Address Locality": p.City,
		"Address Region":   p.State,
		"Postal Code":      p.Zip,
	}
	for i, ph := range phones {
		if i == maxContacts {
			break
		}
		n := i + 1
		c[fmt.Sprintf("Phone-%d", n)] = ph.number
		c[fmt.Sprintf("Phone-%d Type", n)] = ph.typ
		c[fmt.Sprintf("Phone-%d Last Reported", n)] = ph.lastSeen
		c[fmt.Sprintf("Phone-%d First Reported", n)] = ph.firstSeen
		c[fmt.Sprintf("Phone-%d Provider", n)] = ph.provider
	}
	for i, e := range emails {
		if i == maxContacts {
			break
		}
		c[fmt.Sprintf("Email-%d", i+1)] = e
	}
	return c
}
