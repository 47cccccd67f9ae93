package stages

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/KevinSGarrett/DebtCollect/internal/model"
	"github.com/KevinSGarrett/DebtCollect/internal/normalize"
	"github.com/KevinSGarrett/DebtCollect/internal/resilience"
	"github.com/KevinSGarrett/DebtCollect/pkg/usps"
)

// Address provenance tags and confidences.
const (
	ProvenanceUSPS         = "usps:webtools"
	ProvenanceSimulateUSPS = "simulate:usps"

	dpvConfidence   = 100
	noDPVConfidence = 70
)

// USPS standardizes the debtor's mailing address and records it as an
// Address row.
type USPS struct {
	deps   Deps
	client usps.Client
	log    *zap.Logger
}

// NewUSPS creates the usps stage. A nil client disables the lookup.
func NewUSPS(deps Deps, client usps.Client) *USPS {
	return &USPS{deps: deps, client: client, log: deps.logger(NameUSPS)}
}

// Name implements the stage contract.
func (s *USPS) Name() string { return NameUSPS }

// Run implements the stage contract.
func (s *USPS) Run(ctx context.Context, d *model.Debtor) (*model.DebtorPatch, error) {
	addr := normalize.NewAddress(d.Address1, d.Address2, d.City, d.State, d.Zip)

	if s.deps.Simulate {
		row := &model.Address{
			DebtorID: d.ID, Line1: addr.Line1, Line2: addr.Line2, City: addr.City, State: addr.State,
			Zip5: addr.Zip, Zip4: "1234", DPVConfirmation: "Y",
			Confidence: dpvConfidence, Provenance: ProvenanceSimulateUSPS,
		}
		id, err := s.upsert(ctx, row)
		if err != nil {
			return nil, err
		}
		return &model.DebtorPatch{UspsStandardized: model.Ptr(true), StandardizedAddressID: model.Ptr(id)}, nil
	}

	if s.client == nil {
		s.log.Debug("usps: no client configured, keeping local normalization", zap.String("debtor_id", d.ID))
		return nil, nil
	}

	res, err := call(ctx, s.deps, "usps", func(ctx context.Context) (*usps.Result, error) {
		return s.client.Verify(ctx, usps.Address{Line1: addr.Line1, Line2: addr.Line2, City: addr.City, State: addr.State, Zip5: addr.Zip})
	})
	if resilience.IsConfiguration(err) {
		s.log.Info("usps: skipped", zap.String("debtor_id", d.ID), zap.Error(err))
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "usps: verify")
	}

	row := &model.Address{
		DebtorID:        d.ID,
		Line1:           firstNonEmpty(res.Line1, addr.Line1),
		Line2:           firstNonEmpty(res.Line2, addr.Line2),
		City:            firstNonEmpty(res.City, addr.City),
		State:           firstNonEmpty(res.State, addr.State),
		Zip5:            firstNonEmpty(res.Zip5, addr.Zip),
		Zip4:            res.Zip4,
		DPVConfirmation: res.DPVConfirmation,
		Confidence:      noDPVConfidence,
		Provenance:      ProvenanceUSPS,
	}
	if res.Deliverable() {
		row.Confidence = dpvConfidence
	}
	id, err := s.upsert(ctx, row)
	if err != nil {
		return nil, err
	}
	s.log.Info("usps: standardized",
		zap.String("debtor_id", d.ID), zap.String("dpv", res.DPVConfirmation), zap.String("address_id", id))
	return &model.DebtorPatch{UspsStandardized: model.Ptr(res.Deliverable()), StandardizedAddressID: model.Ptr(id)}, nil
}

// upsert returns the id of the debtor's address with the same line1 and
// zip5, creating the row when none exists.
func (s *USPS) upsert(ctx context.Context, row *model.Address) (string, error) {
	existing, err := s.deps.Repo.FindAddress(ctx, row.DebtorID, row.Line1, row.Zip5)
	if err != nil {
		return "", eris.Wrap(err, "usps: find address")
	}
	if existing != nil {
		return existing.ID, nil
	}
	id, err := s.deps.Repo.CreateAddress(ctx, row)
	if err != nil {
		return "", eris.Wrap(err, "usps: create address")
	}
	return id, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
