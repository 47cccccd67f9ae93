package skiptrace

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/KevinSGarrett/DebtCollect/internal/resilience"
	"github.com/KevinSGarrett/DebtCollect/pkg/apify"
	"github.com/KevinSGarrett/DebtCollect/pkg/peoplesearch"
)

// ErrExhausted is returned when every strategy failed or found nothing.
var ErrExhausted = eris.New("skiptrace: all search strategies exhausted")

// SourceManual tags candidates read from a manual override file.
const SourceManual = "manual"

// Target is the identity being searched for.
type Target struct {
	FirstName string
	LastName  string
	City      string
	State     string
	Zip       string
}

// Outcome is the raw result of one strategy.
type Outcome struct {
	Records []map[string]any
	Source  string
}

// Strategy is one identity-search source. Strategies are tried in order
// until one yields records.
type Strategy interface {
	Name() string
	Search(ctx context.Context, t Target) (*Outcome, error)
}

// ManualFile reads pre-fetched results from <dir>/<First>_<Last>.json, or
// "<First> <Last>.json" when the underscore form is absent.
type ManualFile struct {
	Dir string
}

// Name implements Strategy.
func (m ManualFile) Name() string { return SourceManual }

// Search implements Strategy. A missing file yields no records and no error.
func (m ManualFile) Search(_ context.Context, t Target) (*Outcome, error) {
	if m.Dir == "" {
		return &Outcome{Source: SourceManual}, nil
	}
	candidates := []string{
		filepath.Join(m.Dir, t.FirstName+"_"+t.LastName+".json"),
		filepath.Join(m.Dir, t.FirstName+" "+t.LastName+".json"),
	}
	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, eris.Wrapf(err, "skiptrace: read manual file %s", path)
		}
		records, err := decodeManual(data)
		if err != nil {
			return nil, eris.Wrapf(err, "skiptrace: parse manual file %s", path)
		}
		return &Outcome{Records: records, Source: SourceManual}, nil
	}
	return &Outcome{Source: SourceManual}, nil
}

// decodeManual accepts a bare list, {"value": [...]}, or a single object.
func decodeManual(data []byte) ([]map[string]any, error) {
	var list []map[string]any
	if err := json.Unmarshal(data, &list); err == nil {
		return list, nil
	}
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, err
	}
	if v, ok := obj["value"].([]any); ok {
		out := make([]map[string]any, 0, len(v))
		for _, item := range v {
			if m, ok := item.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out, nil
	}
	return []map[string]any{obj}, nil
}

// ApifyStrategy queries the skip-trace actor through the provider retry
// policy and the "apify" circuit breaker.
type ApifyStrategy struct {
	Client   apify.Client
	Retry    resilience.RetryConfig
	Breakers *resilience.Breakers
}

// Name implements Strategy.
func (a ApifyStrategy) Name() string { return "apify" }

// Search implements Strategy.
func (a ApifyStrategy) Search(ctx context.Context, t Target) (*Outcome, error) {
	q := apify.Query{FirstName: t.FirstName, LastName: t.LastName, City: t.City, State: t.State, Zip: t.Zip}
	res, err := resilience.DoVal(ctx, a.Retry, func(ctx context.Context) (*apify.Result, error) {
		return resilience.Call(a.Breakers, "apify", func() (*apify.Result, error) {
			return a.Client.SkipTrace(ctx, q)
		})
	})
	if err != nil {
		return nil, eris.Wrap(err, "skiptrace: apify")
	}
	return &Outcome{Records: res.Items, Source: "apify:" + res.Source}, nil
}

// PeopleSearchStrategy queries the RapidAPI people search fallback.
type PeopleSearchStrategy struct {
	Client   peoplesearch.Client
	Retry    resilience.RetryConfig
	Breakers *resilience.Breakers
}

// Name implements Strategy.
func (p PeopleSearchStrategy) Name() string { return "rapidapi" }

// Search implements Strategy.
func (p PeopleSearchStrategy) Search(ctx context.Context, t Target) (*Outcome, error) {
	people, err := resilience.DoVal(ctx, p.Retry, func(ctx context.Context) ([]map[string]any, error) {
		return resilience.Call(p.Breakers, "rapidapi", func() ([]map[string]any, error) {
			return p.Client.SearchPeople(ctx, t.FirstName, t.LastName, t.State)
		})
	})
	if err != nil {
		return nil, eris.Wrap(err, "skiptrace: people search")
	}
	return &Outcome{Records: people, Source: peoplesearch.SourceTag}, nil
}
