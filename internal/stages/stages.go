// Package stages holds the enrichment steps run by the pipeline. Each stage
// takes the in-memory debtor and returns the partial update it produced.
package stages

import (
	"context"

	"go.uber.org/zap"

	"github.com/KevinSGarrett/DebtCollect/internal/model"
	"github.com/KevinSGarrett/DebtCollect/internal/resilience"
	"github.com/KevinSGarrett/DebtCollect/internal/store"
)

// Stage names, in pipeline order.
const (
	NameUSPS       = "usps"
	NameSkiptrace  = "skiptrace"
	NameVerify     = "verify_contacts"
	NameBankruptcy = "bankruptcy"
	NameProperty   = "property_value"
	NameBusiness   = "business_lookup"
	NameScoring    = "scoring"
)

// Deps are the collaborators shared by every stage.
type Deps struct {
	Repo     *store.Repo
	Log      *zap.Logger
	Retry    resilience.RetryConfig
	Breakers *resilience.Breakers
	Simulate bool
}

func (d Deps) logger(stage string) *zap.Logger {
	if d.Log == nil {
		return zap.NewNop()
	}
	return d.Log.With(zap.String("stage", stage))
}

// call runs fn under the provider retry policy and the named breaker.
func call[T any](ctx context.Context, d Deps, provider string, fn func(ctx context.Context) (T, error)) (T, error) {
	return resilience.DoVal(ctx, d.Retry, func(ctx context.Context) (T, error) {
		return resilience.Call(d.Breakers, provider, func() (T, error) { return fn(ctx) })
	})
}

// StageFunc adapts a function to the stage contract.
type StageFunc struct {
	StageName string
	Fn        func(ctx context.Context, d *model.Debtor) (*model.DebtorPatch, error)
}

// Name returns the stage name.
func (s StageFunc) Name() string { return s.StageName }

// Run calls Fn.
func (s StageFunc) Run(ctx context.Context, d *model.Debtor) (*model.DebtorPatch, error) {
	return s.Fn(ctx, d)
}
