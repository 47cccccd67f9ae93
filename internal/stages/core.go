package stages

import (
	"context"

	"github.com/KevinSGarrett/DebtCollect/internal/model"
	"github.com/KevinSGarrett/DebtCollect/internal/scoring"
	"github.com/KevinSGarrett/DebtCollect/internal/skiptrace"
	"github.com/KevinSGarrett/DebtCollect/internal/verify"
)

// The core components write their own debtor updates and apply them to d,
// so their adapters return no patch.

// Skiptrace adapts the reconciler. Reconciliation failures, including an
// exhausted strategy list, leave the debtor untouched and are not errors.
func Skiptrace(r *skiptrace.Reconciler) StageFunc {
	return StageFunc{StageName: NameSkiptrace, Fn: func(ctx context.Context, d *model.Debtor) (*model.DebtorPatch, error) {
		_, _ = r.Run(ctx, d)
		return nil, nil
	}}
}

// Verify adapts the contact verifier.
func Verify(v *verify.Verifier) StageFunc {
	return StageFunc{StageName: NameVerify, Fn: func(ctx context.Context, d *model.Debtor) (*model.DebtorPatch, error) {
		_, err := v.Run(ctx, d)
		return nil, err
	}}
}

// Scoring adapts the scorer.
func Scoring(s *scoring.Scorer) StageFunc {
	return StageFunc{StageName: NameScoring, Fn: func(ctx context.Context, d *model.Debtor) (*model.DebtorPatch, error) {
		_, _, err := s.Score(ctx, d)
		return nil, err
	}}
}
