// Package pipeline runs the enrichment stages over debtors and records an
// audit run for each pass.
package pipeline

import (
	"context"
	"math"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/KevinSGarrett/DebtCollect/internal/model"
	"github.com/KevinSGarrett/DebtCollect/internal/store"
)

// DefaultBatchLimit is the number of debtors a batch takes when no limit is
// given.
const DefaultBatchLimit = 25

// Stage is one enrichment step. A returned patch is persisted and applied to
// the debtor before the next stage runs.
type Stage interface {
	Name() string
	Run(ctx context.Context, d *model.Debtor) (*model.DebtorPatch, error)
}

// Result is the outcome of enriching one debtor.
type Result struct {
	DebtorID string
	RunID    string
	Status   model.EnrichmentStatus
	Stages   []model.StageResult
	Score    *int
}

// Failed returns the names of stages that did not succeed.
func (r *Result) Failed() []string {
	var out []string
	for _, s := range r.Stages {
		if !s.OK {
			out = append(out, s.Name)
		}
	}
	return out
}

// BatchSummary totals a batch.
type BatchSummary struct {
	Selected  int
	Completed int
	Errored   int
	Results   []*Result
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(p *Pipeline) {
		if log != nil {
			p.log = log
		}
	}
}

// Pipeline runs its stages in order over one debtor at a time.
type Pipeline struct {
	repo   *store.Repo
	stages []Stage
	log    *zap.Logger
	now    func() time.Time
}

// New creates a Pipeline.
func New(repo *store.Repo, stages []Stage, opts ...Option) *Pipeline {
	p := &Pipeline{
		repo:   repo,
		stages: stages,
		log:    zap.NewNop(),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Stages returns the stage names in run order.
func (p *Pipeline) Stages() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name()
	}
	return names
}

// Run loads the debtor and enriches it.
func (p *Pipeline) Run(ctx context.Context, debtorID string) (*Result, error) {
	d, err := p.repo.Debtor(ctx, debtorID)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: load debtor %s", debtorID)
	}
	return p.Enrich(ctx, d)
}

// Enrich runs every stage over d. Stage failures are recorded on the run
// and do not stop the pass. An error is returned only when the debtor's
// own status could not be maintained; the debtor and run are then marked
// as errored where the store allows it.
func (p *Pipeline) Enrich(ctx context.Context, d *model.Debtor) (*Result, error) {
	log := p.log.With(zap.String("debtor_id", d.ID))
	log.Info("pipeline: starting enrichment")

	result := &Result{DebtorID: d.ID}

	run := &model.EnrichmentRun{
		DebtorID:     d.ID,
		Status:       model.RunStatusRunning,
		StartedAt:    p.now(),
		StageResults: []model.StageResult{},
	}
	if _, err := p.repo.CreateRun(ctx, run); err != nil {
		log.Warn("pipeline: failed to create run", zap.Error(err))
	}
	result.RunID = run.ID

	fail := func(cause error) (*Result, error) {
		log.Error("pipeline: enrichment failed", zap.Error(cause))
		_ = p.setStatus(context.WithoutCancel(ctx), log, d, model.EnrichmentError, nil)
		result.Status = model.EnrichmentError
		p.finishRun(context.WithoutCancel(ctx), log, run.ID, model.RunStatusError, result.Stages,
			map[string]string{"message": cause.Error()})
		return result, cause
	}

	if err := p.setStatus(ctx, log, d, model.EnrichmentRunning, nil); err != nil {
		return fail(err)
	}

	trackStage := func(s Stage) {
		name := s.Name()
		start := time.Now()
		patch, err := p.runStage(ctx, s, d)
		if err == nil && patch != nil {
			if err = p.repo.UpdateDebtor(ctx, d.ID, patch); err != nil {
				err = eris.Wrapf(err, "pipeline: persist %s patch", name)
			} else {
				patch.Apply(d)
			}
		}
		sr := model.StageResult{Name: name, OK: err == nil, Seconds: seconds(time.Since(start))}

		if err != nil {
			sr.Error = err.Error()
			log.Error("pipeline: stage failed",
				zap.String("stage", name), zap.Float64("seconds", sr.Seconds), zap.Error(err))
		} else {
			log.Info("pipeline: stage complete",
				zap.String("stage", name), zap.Float64("seconds", sr.Seconds))
		}
		result.Stages = append(result.Stages, sr)
	}

	for _, s := range p.stages {
		if err := ctx.Err(); err != nil {
			return fail(eris.Wrap(err, "pipeline: cancelled"))
		}
		trackStage(s)
	}

	if err := p.setStatus(ctx, log, d, model.EnrichmentComplete, model.Ptr(p.now())); err != nil {
		return fail(err)
	}
	result.Status = model.EnrichmentComplete
	result.Score = d.CollectibilityScore
	p.finishRun(ctx, log, run.ID, model.RunStatusComplete, result.Stages, nil)

	log.Info("pipeline: enrichment complete",
		zap.String("run_id", run.ID),
		zap.Strings("failed_stages", result.Failed()),
	)
	return result, nil
}

// Batch enriches up to limit pending or partial debtors one after another.
// A debtor that fails is counted and the batch moves on.
func (p *Pipeline) Batch(ctx context.Context, limit int) (*BatchSummary, error) {
	if limit <= 0 {
		limit = DefaultBatchLimit
	}
	debtors, err := p.repo.PendingDebtors(ctx, limit)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: select debtors")
	}
	p.log.Info("pipeline: batch selected", zap.Int("debtors", len(debtors)), zap.Int("limit", limit))

	summary := &BatchSummary{Selected: len(debtors)}
	for i := range debtors {
		if err := ctx.Err(); err != nil {
			return summary, eris.Wrap(err, "pipeline: batch cancelled")
		}
		res, err := p.Enrich(ctx, &debtors[i])
		if res != nil {
			summary.Results = append(summary.Results, res)
		}
		if err != nil {
			summary.Errored++
			continue
		}
		summary.Completed++
	}

	p.log.Info("pipeline: batch complete",
		zap.Int("completed", summary.Completed), zap.Int("errored", summary.Errored))
	return summary, nil
}

// runStage calls the stage, converting a panic into an error.
func (p *Pipeline) runStage(ctx context.Context, s Stage, d *model.Debtor) (patch *model.DebtorPatch, err error) {
	defer func() {
		if r := recover(); r != nil {
			patch = nil
			err = eris.Errorf("pipeline: stage %s panicked: %v", s.Name(), r)
		}
	}()
	return s.Run(ctx, d)
}

func (p *Pipeline) setStatus(ctx context.Context, log *zap.Logger, d *model.Debtor, status model.EnrichmentStatus, at *time.Time) error {
	patch := &model.DebtorPatch{EnrichmentStatus: model.Ptr(status), LastEnrichedAt: at}
	if err := p.repo.UpdateDebtor(ctx, d.ID, patch); err != nil {
		log.Warn("pipeline: failed to update status", zap.String("status", string(status)), zap.Error(err))
		return eris.Wrapf(err, "pipeline: set debtor %s", status)
	}
	patch.Apply(d)
	return nil
}

func (p *Pipeline) finishRun(ctx context.Context, log *zap.Logger, runID string, status model.RunStatus, stages []model.StageResult, errs map[string]string) {
	if runID == "" {
		return
	}
	patch := &model.RunPatch{
		Status:       model.Ptr(status),
		FinishedAt:   model.Ptr(p.now()),
		StageResults: stages,
		Errors:       errs,
	}
	if err := p.repo.UpdateRun(ctx, runID, patch); err != nil {
		log.Warn("pipeline: failed to save run", zap.String("run_id", runID), zap.Error(err))
	}
}

func seconds(d time.Duration) float64 {
	return math.Round(d.Seconds()*1000) / 1000
}
