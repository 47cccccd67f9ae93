package stages

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/KevinSGarrett/DebtCollect/internal/model"
	"github.com/KevinSGarrett/DebtCollect/internal/resilience"
	"github.com/KevinSGarrett/DebtCollect/pkg/courtlistener"
)

const (
	SourceCourtListener = "courtlistener"

	courtListenerHost = "https://www.courtlistener.com"

	// partyConfidence is assigned to every docket returned by a party-name
	// query; the docket carries no address to gate on.
	partyConfidence = 100
)

// PACER is the legal-filing fallback. It is a stub: with credentials it
// returns no cases, without them it reports a ConfigurationError.
type PACER struct {
	Username string
	Password string
}

// Search implements the fallback lookup.
func (p PACER) Search(_ context.Context, _ string) ([]model.BankruptcyCase, error) {
	if p.Username == "" || p.Password == "" {
		return nil, resilience.NewConfigurationError("pacer", "pacer.username")
	}
	return nil, nil
}

// Bankruptcy searches court dockets for the debtor and stores new cases.
type Bankruptcy struct {
	deps       Deps
	client     courtlistener.Client
	pacer      PACER
	partyRetry resilience.RetryConfig
	caseRetry  resilience.RetryConfig
	log        *zap.Logger
}

// NewBankruptcy creates the bankruptcy stage. Party-name searches get three
// attempts with a linearly growing sleep; the case-name fallback gets two.
func NewBankruptcy(deps Deps, client courtlistener.Client, pacer PACER) *Bankruptcy {
	return &Bankruptcy{
		deps:       deps,
		client:     client,
		pacer:      pacer,
		partyRetry: resilience.LinearRetryConfig(3, 1500*time.Millisecond),
		caseRetry:  resilience.FixedRetryConfig(2, time.Second),
		log:        deps.logger(NameBankruptcy),
	}
}

// Name implements the stage contract.
func (s *Bankruptcy) Name() string { return NameBankruptcy }

// Run implements the stage contract. It never patches the debtor.
func (s *Bankruptcy) Run(ctx context.Context, d *model.Debtor) (*model.DebtorPatch, error) {
	name := strings.TrimSpace(d.FullName())
	if name == "" || s.deps.Simulate {
		return nil, nil
	}
	log := s.log.With(zap.String("debtor_id", d.ID))

	cases, err := s.search(ctx, name)
	if err != nil {
		log.Warn("bankruptcy: courtlistener failed, trying pacer", zap.Error(err))
		if cases, err = s.pacer.Search(ctx, name); err != nil {
			log.Info("bankruptcy: pacer unavailable", zap.Error(err))
			return nil, nil
		}
	}

	created := 0
	for i := range cases {
		c := &cases[i]
		if c.CaseNumber == "" {
			continue
		}
		existing, err := s.deps.Repo.FindBankruptcyCase(ctx, d.ID, c.CaseNumber)
		if err != nil {
			return nil, eris.Wrap(err, "bankruptcy: find case")
		}
		if existing != nil {
			continue
		}
		c.DebtorID = d.ID
		if _, err := s.deps.Repo.CreateBankruptcyCase(ctx, c); err != nil {
			return nil, eris.Wrap(err, "bankruptcy: create case")
		}
		created++
	}
	log.Info("bankruptcy: searched", zap.Int("found", len(cases)), zap.Int("created", created))
	return nil, nil
}

// search queries by party name, falling back to a case-name query when the
// first returns nothing. A failed fallback counts as no results.
func (s *Bankruptcy) search(ctx context.Context, name string) ([]model.BankruptcyCase, error) {
	if s.client == nil {
		return nil, resilience.NewConfigurationError("courtlistener", "courtlistener.base_url")
	}

	deps := s.deps
	deps.Retry = s.partyRetry
	dockets, err := call(ctx, deps, "courtlistener", func(ctx context.Context) ([]courtlistener.Docket, error) {
		return s.client.SearchByParty(ctx, name)
	})
	if err != nil {
		return nil, err
	}

	if len(dockets) == 0 {
		deps.Retry = s.caseRetry
		dockets, err = call(ctx, deps, "courtlistener", func(ctx context.Context) ([]courtlistener.Docket, error) {
			return s.client.SearchByCaseName(ctx, name)
		})
		if err != nil {
			s.log.Debug("bankruptcy: case-name fallback failed", zap.Error(err))
			dockets = nil
		}
	}

	out := make([]model.BankruptcyCase, 0, len(dockets))
	for _, dk := range dockets {
		out = append(out, model.BankruptcyCase{
			CaseNumber:     dk.CaseNumber(),
			Court:          dk.CourtID,
			Chapter:        dk.Chapter,
			FiledDate:      dk.DateFiled,
			DischargedDate: dk.DateTerminated,
			Status:         dk.Status(),
			DocketURL:      docketURL(dk.AbsoluteURL),
			Confidence:     partyConfidence,
			Source:         SourceCourtListener,
		})
	}
	return out, nil
}

func docketURL(path string) string {
	if path == "" || strings.HasPrefix(path, "http") {
		return path
	}
	return courtListenerHost + path
}
