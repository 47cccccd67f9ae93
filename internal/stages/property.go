package stages

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/KevinSGarrett/DebtCollect/internal/model"
	"github.com/KevinSGarrett/DebtCollect/internal/normalize"
	"github.com/KevinSGarrett/DebtCollect/internal/resilience"
	"github.com/KevinSGarrett/DebtCollect/pkg/attom"
	"github.com/KevinSGarrett/DebtCollect/pkg/census"
)

// Property value sources.
const (
	ValueSourceATTOM          = "attom"
	ValueSourceCensus         = "census_zip_median"
	ValueSourceSimulateCensus = "simulate:census_zip_median"

	// PlaceholderMedian is used when the census lookup yields no estimate.
	PlaceholderMedian = 250000.0
)

// Property records a valuation for the debtor's address: a parcel detail
// when available, else the zip's census median.
type Property struct {
	deps   Deps
	attom  attom.Client
	census census.Client
	log    *zap.Logger
}

// NewProperty creates the property_value stage. Nil clients are skipped.
func NewProperty(deps Deps, a attom.Client, c census.Client) *Property {
	return &Property{deps: deps, attom: a, census: c, log: deps.logger(NameProperty)}
}

// Name implements the stage contract.
func (s *Property) Name() string { return NameProperty }

// Run implements the stage contract. It never patches the debtor.
func (s *Property) Run(ctx context.Context, d *model.Debtor) (*model.DebtorPatch, error) {
	log := s.log.With(zap.String("debtor_id", d.ID))

	if s.deps.Simulate {
		addr := normalize.NewAddress(d.Address1, "", d.City, d.State, d.Zip)
		return nil, s.upsert(ctx, &model.Property{
			DebtorID: d.ID, AddressLine1: addr.Line1, City: addr.City, State: addr.State, Zip: addr.Zip,
			MarketValue: model.Ptr(PlaceholderMedian), OwnerOccupied: true, ValueSource: ValueSourceSimulateCensus,
		})
	}

	addr, err := s.address(ctx, d)
	if err != nil {
		return nil, err
	}

	if prop, err := s.fromATTOM(ctx, addr); err != nil {
		log.Warn("property: attom lookup failed", zap.Error(err))
	} else if prop != nil {
		prop.DebtorID = d.ID
		return nil, s.upsert(ctx, prop)
	}

	if s.census == nil {
		log.Debug("property: no valuation source configured")
		return nil, nil
	}
	value, err := call(ctx, s.deps, "census", func(ctx context.Context) (float64, error) {
		return s.census.ZCTAMedianValue(ctx, addr.Zip)
	})
	if err != nil {
		log.Info("property: census median unavailable, using placeholder", zap.String("zip", addr.Zip), zap.Error(err))
		value = PlaceholderMedian
	}
	return nil, s.upsert(ctx, &model.Property{
		DebtorID: d.ID, AddressLine1: addr.Line1, City: addr.City, State: addr.State, Zip: addr.Zip,
		MarketValue: model.Ptr(value), ValueSource: ValueSourceCensus,
	})
}

// address prefers the standardized address row over the raw debtor fields.
func (s *Property) address(ctx context.Context, d *model.Debtor) (normalize.Address, error) {
	if d.StandardizedAddressID != "" {
		row, err := s.deps.Repo.Address(ctx, d.StandardizedAddressID)
		if err != nil {
			return normalize.Address{}, eris.Wrap(err, "property: load standardized address")
		}
		if row != nil {
			return normalize.Address{Line1: row.Line1, Line2: row.Line2, City: row.City, State: row.State, Zip: row.Zip5}, nil
		}
	}
	return normalize.NewAddress(d.Address1, d.Address2, d.City, d.State, d.Zip), nil
}

// fromATTOM returns the first parcel for addr, or nil when ATTOM is not
// configured or has no record.
func (s *Property) fromATTOM(ctx context.Context, addr normalize.Address) (*model.Property, error) {
	if s.attom == nil {
		return nil, nil
	}
	oneLine := fmt.Sprintf("%s, %s, %s %s", addr.Line1, addr.City, addr.State, addr.Zip)
	resp, err := call(ctx, s.deps, "attom", func(ctx context.Context) (*attom.DetailResponse, error) {
		return s.attom.PropertyDetail(ctx, oneLine)
	})
	if resilience.IsConfiguration(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(resp.Property) == 0 {
		return nil, nil
	}
	p := resp.Property[0]
	return &model.Property{
		AddressLine1:  addr.Line1,
		City:          addr.City,
		State:         addr.State,
		Zip:           addr.Zip,
		MarketValue:   positive(p.Assessment.Market.MktTtlValue),
		AssessedValue: positive(p.Assessment.Assessed.AssdTtlValue),
		TaxAmount:     positive(p.Assessment.Tax.TaxAmt),
		OwnerOccupied: p.Summary.OwnerOccupied(),
		ValueSource:   ValueSourceATTOM,
	}, nil
}

// upsert creates p unless the debtor already has a property at the same
// line1 and zip.
func (s *Property) upsert(ctx context.Context, p *model.Property) error {
	existing, err := s.deps.Repo.FindProperty(ctx, p.DebtorID, p.AddressLine1, p.Zip)
	if err != nil {
		return eris.Wrap(err, "property: find")
	}
	if existing != nil {
		return nil
	}
	if _, err := s.deps.Repo.CreateProperty(ctx, p); err != nil {
		return eris.Wrap(err, "property: create")
	}
	s.log.Info("property: recorded",
		zap.String("debtor_id", p.DebtorID), zap.String("source", p.ValueSource), zap.Float64("value", p.KnownValue()))
	return nil
}

func positive(v float64) *float64 {
	if v <= 0 {
		return nil
	}
	return &v
}
