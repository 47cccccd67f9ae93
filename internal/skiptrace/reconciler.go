// Package skiptrace turns identity-search results into persisted phone and
// email facts. Candidates are gathered from an ordered list of strategies,
// accepted through three match tiers, and upserted by (debtor, value).
package skiptrace

import (
	"context"
	"encoding/json"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/KevinSGarrett/DebtCollect/internal/match"
	"github.com/KevinSGarrett/DebtCollect/internal/model"
	"github.com/KevinSGarrett/DebtCollect/internal/normalize"
	"github.com/KevinSGarrett/DebtCollect/internal/store"
)

// Acceptance thresholds.
const (
	Tier1MinScore    = 90
	Tier2MinScore    = 80
	Tier3MinName     = 85
	Tier3Score       = 75
	Tier3MaxAccepted = 2
)

// Simulated fact set.
const (
	SimulateSource   = "simulate:apify"
	SimulateStrength = 50
)

var (
	simulatePhones = []string{"(214) 609-3137", "+1 214-609-3136"}
	simulateEmails = []string{"jtpuente6972@outlook.com", "jrpuente69@yahoo.com"}
)

// Accepted is a candidate that passed one of the acceptance tiers.
type Accepted struct {
	Candidate
	Score int
	Tier  int
}

// Result summarizes one reconciliation pass.
type Result struct {
	Source        string
	Candidates    int
	Accepted      []Accepted
	PhonesCreated int
	EmailsCreated int
	Patch         *model.DebtorPatch
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(r *Reconciler) { r.log = log }
}

// WithSimulate bypasses every strategy and emits the fixed sample facts.
func WithSimulate(on bool) Option {
	return func(r *Reconciler) { r.simulate = on }
}

// Reconciler gathers candidates and persists accepted contact facts.
type Reconciler struct {
	repo       *store.Repo
	strategies []Strategy
	simulate   bool
	log        *zap.Logger
}

// New creates a Reconciler that tries strategies in order.
func New(repo *store.Repo, strategies []Strategy, opts ...Option) *Reconciler {
	r := &Reconciler{repo: repo, strategies: strategies, log: zap.NewNop()}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Strategies returns the strategy names in search order.
func (r *Reconciler) Strategies() []string {
	names := make([]string, len(r.strategies))
	for i, s := range r.strategies {
		names[i] = s.Name()
	}
	return names
}

// Plan searches and applies the acceptance tiers without writing anything.
func (r *Reconciler) Plan(ctx context.Context, d *model.Debtor) (*Result, error) {
	if r.simulate {
		return simulated(), nil
	}

	target := Target{FirstName: d.FirstName, LastName: d.LastName, City: d.City, State: d.State, Zip: d.Zip}
	for _, s := range r.strategies {
		out, err := s.Search(ctx, target)
		if err != nil {
			r.log.Warn("skiptrace: strategy failed",
				zap.String("debtor_id", d.ID), zap.String("strategy", s.Name()), zap.Error(err))
			continue
		}
		if out == nil || len(out.Records) == 0 {
			r.log.Debug("skiptrace: strategy returned no records",
				zap.String("debtor_id", d.ID), zap.String("strategy", s.Name()))
			continue
		}

		cands := make([]Candidate, 0, len(out.Records))
		for _, rec := range out.Records {
			cands = append(cands, Normalize(rec))
		}
		return &Result{
			Source:     out.Source,
			Candidates: len(cands),
			Accepted:   Accept(party(d), cands),
		}, nil
	}
	return nil, ErrExhausted
}

// Run plans, then upserts the accepted facts and records the top
// candidate's age and date of birth on d.
func (r *Reconciler) Run(ctx context.Context, d *model.Debtor) (*Result, error) {
	res, err := r.Plan(ctx, d)
	if err != nil {
		r.log.Warn("skiptrace: no candidates", zap.String("debtor_id", d.ID), zap.Error(err))
		return nil, err
	}

	for _, a := range res.Accepted {
		np, ne, err := r.persist(ctx, d.ID, a, res.Source)
		res.PhonesCreated += np
		res.EmailsCreated += ne
		if err != nil {
			r.log.Error("skiptrace: persist facts", zap.String("debtor_id", d.ID), zap.Error(err))
			return res, err
		}
	}

	if patch := demographics(res.Accepted); patch != nil {
		if err := r.repo.UpdateDebtor(ctx, d.ID, patch); err != nil {
			r.log.Warn("skiptrace: demographics update failed", zap.String("debtor_id", d.ID), zap.Error(err))
		} else {
			patch.Apply(d)
			res.Patch = patch
		}
	}

	r.log.Info("skiptrace: reconciled",
		zap.String("debtor_id", d.ID),
		zap.String("source", res.Source),
		zap.Int("candidates", res.Candidates),
		zap.Int("accepted", len(res.Accepted)),
		zap.Int("phones_created", res.PhonesCreated),
		zap.Int("emails_created", res.EmailsCreated),
	)
	return res, nil
}

// Accept applies the tiers. Tier 1 takes scores of at least 90; tier 2
// takes [80, 90) when the candidate shares the target's region. Tier 3 is
// consulted only when the first two accepted nothing: strong name
// similarity in the same region, at a fixed score, top two by name.
func Accept(target match.Party, cands []Candidate) []Accepted {
	var out []Accepted
	for _, c := range cands {
		cp := partyOf(c)
		res := match.NameAddress(target, cp)
		switch {
		case res.Score >= Tier1MinScore:
			out = append(out, Accepted{Candidate: c, Score: res.Score, Tier: 1})
		case res.Score >= Tier2MinScore && match.SameRegion(target, cp):
			out = append(out, Accepted{Candidate: c, Score: res.Score, Tier: 2})
		}
	}
	if len(out) > 0 || len(cands) == 0 {
		return out
	}

	type scored struct {
		c    Candidate
		name int
	}
	var loose []scored
	for _, c := range cands {
		cp := partyOf(c)
		name := match.NameSimilarity(target.Name, cp.Name)
		if name >= Tier3MinName && match.SameRegion(target, cp) {
			loose = append(loose, scored{c: c, name: name})
		}
	}
	sort.SliceStable(loose, func(i, j int) bool { return loose[i].name > loose[j].name })
	if len(loose) > Tier3MaxAccepted {
		loose = loose[:Tier3MaxAccepted]
	}
	for _, s := range loose {
		out = append(out, Accepted{Candidate: s.c, Score: Tier3Score, Tier: 3})
	}
	return out
}

func (r *Reconciler) persist(ctx context.Context, debtorID string, a Accepted, source string) (phones, emails int, err error) {
	for _, p := range a.Phones {
		e164, ok := normalize.ToE164(p.Value, normalize.DefaultRegion)
		if !ok {
			continue
		}
		existing, ferr := r.repo.FindPhone(ctx, debtorID, e164)
		if ferr != nil {
			return phones, emails, eris.Wrap(ferr, "skiptrace: find phone")
		}
		if existing != nil {
			continue
		}
		raw, _ := json.Marshal(p.Raw)
		if _, err := r.repo.CreatePhone(ctx, &model.PhoneFact{
			DebtorID:      debtorID,
			PhoneE164:     e164,
			MatchStrength: a.Score,
			Provenance:    source,
			FirstSeen:     ParseSeenDate(p.FirstSeen),
			LastSeen:      ParseSeenDate(p.LastSeen),
			RawPayload:    raw,
		}); err != nil {
			return phones, emails, eris.Wrap(err, "skiptrace: create phone")
		}
		phones++
	}

	for _, em := range a.Emails {
		em = strings.ToLower(strings.TrimSpace(em))
		if em == "" {
			continue
		}
		existing, ferr := r.repo.FindEmail(ctx, debtorID, em)
		if ferr != nil {
			return phones, emails, eris.Wrap(ferr, "skiptrace: find email")
		}
		if existing != nil {
			continue
		}
		if _, err := r.repo.CreateEmail(ctx, &model.EmailFact{
			DebtorID:      debtorID,
			Email:         em,
			MatchStrength: a.Score,
			Provenance:    source,
		}); err != nil {
			return phones, emails, eris.Wrap(err, "skiptrace: create email")
		}
		emails++
	}
	return phones, emails, nil
}

// demographics builds the age/DOB patch from the highest-scoring accepted
// candidate, or nil when it carries neither.
func demographics(accepted []Accepted) *model.DebtorPatch {
	if len(accepted) == 0 {
		return nil
	}
	top := accepted[0]
	for _, a := range accepted[1:] {
		if a.Score > top.Score {
			top = a
		}
	}
	p := &model.DebtorPatch{Age: top.Age}
	if top.DOB != "" {
		p.DOB = model.Ptr(top.DOB)
	}
	if p.IsEmpty() {
		return nil
	}
	return p
}

func simulated() *Result {
	c := Candidate{Emails: simulateEmails}
	for _, p := range simulatePhones {
		c.Phones = append(c.Phones, RawPhone{Value: p, Raw: map[string]any{"number": p}})
	}
	return &Result{
		Source:     SimulateSource,
		Candidates: 1,
		Accepted:   []Accepted{{Candidate: c, Score: SimulateStrength}},
	}
}

func party(d *model.Debtor) match.Party {
	return match.Party{Name: d.FullName(), Street: d.Address1, State: d.State, Zip: d.Zip}
}

func partyOf(c Candidate) match.Party {
	return match.Party{Name: c.Name, Street: c.Street, State: c.State, Zip: c.Zip}
}
