package scoring

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/KevinSGarrett/DebtCollect/internal/model"
	"github.com/KevinSGarrett/DebtCollect/internal/store"
)

const signalLimit = 100

// Scorer loads a debtor's signals, computes the score, appends a snapshot,
// and writes the score back to the debtor.
type Scorer struct {
	repo          *store.Repo
	freshnessYear int
	now           func() time.Time
	log           *zap.Logger
}

// NewScorer creates a Scorer. A zero freshnessYear uses DefaultFreshnessYear.
func NewScorer(repo *store.Repo, freshnessYear int, log *zap.Logger) *Scorer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scorer{repo: repo, freshnessYear: freshnessYear, now: func() time.Time { return time.Now().UTC() }, log: log}
}

// Signals gathers the stored inputs for d. Unreadable collections count as
// empty.
func (s *Scorer) Signals(ctx context.Context, d *model.Debtor) Signals {
	log := s.log.With(zap.String("debtor_id", d.ID))
	sig := Signals{
		UspsStandardized:   d.UspsStandardized,
		DebtOwed:           d.DebtOwed,
		BusinessConfidence: d.BusinessConfidence,
		FreshnessYear:      s.freshnessYear,
		Now:                s.now(),
	}

	var err error
	if sig.Phones, err = s.repo.Phones(ctx, d.ID, signalLimit); err != nil {
		log.Warn("scoring: phones unavailable", zap.Error(err))
	}
	if sig.Emails, err = s.repo.Emails(ctx, d.ID, signalLimit); err != nil {
		log.Warn("scoring: emails unavailable", zap.Error(err))
	}
	if sig.Cases, err = s.repo.BankruptcyCases(ctx, d.ID); err != nil {
		log.Warn("scoring: bankruptcy cases unavailable", zap.Error(err))
	}
	if sig.Properties, err = s.repo.Properties(ctx, d.ID); err != nil {
		log.Warn("scoring: properties unavailable", zap.Error(err))
	}
	return sig
}

// Score computes and persists the score for d and returns the applied patch.
func (s *Scorer) Score(ctx context.Context, d *model.Debtor) (*Result, *model.DebtorPatch, error) {
	sig := s.Signals(ctx, d)
	res := Compute(sig)

	inputs, err := json.Marshal(res.Components)
	if err != nil {
		return nil, nil, eris.Wrap(err, "scoring: marshal inputs")
	}
	if _, err := s.repo.CreateSnapshot(ctx, &model.ScoringSnapshot{
		DebtorID:  d.ID,
		Score:     res.Score,
		Reason:    res.Reason,
		Inputs:    inputs,
		CreatedAt: sig.Now,
	}); err != nil {
		return nil, nil, eris.Wrap(err, "scoring: create snapshot")
	}

	patch := &model.DebtorPatch{
		CollectibilityScore:  model.Ptr(res.Score),
		CollectibilityReason: model.Ptr(res.Reason),
	}
	if err := s.repo.UpdateDebtor(ctx, d.ID, patch); err != nil {
		return nil, nil, eris.Wrap(err, "scoring: update debtor")
	}
	patch.Apply(d)

	s.log.Info("scoring: scored",
		zap.String("debtor_id", d.ID), zap.Int("score", res.Score), zap.String("reason", res.Reason))
	return &res, patch, nil
}
