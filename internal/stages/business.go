package stages

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/KevinSGarrett/DebtCollect/internal/model"
	"github.com/KevinSGarrett/DebtCollect/pkg/apollo"
	"github.com/KevinSGarrett/DebtCollect/pkg/google"
)

// Business confidence levels.
const (
	SourceGooglePlaces = "google_places"
	RoleOwner          = "owner"

	maxPlaces          = 5
	fullListingConf    = 70
	partialListingConf = 50
	apolloMatchConf    = 40
)

// Business looks up businesses tied to the debtor's name and records a
// business-presence confidence.
type Business struct {
	deps   Deps
	places google.Client
	apollo apollo.Client
	log    *zap.Logger
}

// NewBusiness creates the business_lookup stage. Nil clients are skipped.
func NewBusiness(deps Deps, places google.Client, ap apollo.Client) *Business {
	return &Business{deps: deps, places: places, apollo: ap, log: deps.logger(NameBusiness)}
}

// Name implements the stage contract.
func (s *Business) Name() string { return NameBusiness }

// Run implements the stage contract. The patch always carries
// business_confidence, zero when nothing was found.
func (s *Business) Run(ctx context.Context, d *model.Debtor) (*model.DebtorPatch, error) {
	log := s.log.With(zap.String("debtor_id", d.ID))
	name := d.FullName()
	conf := 0
	if s.deps.Simulate {
		name = ""
	}

	if s.places != nil && name != "" {
		resp, err := call(ctx, s.deps, "google", func(ctx context.Context) (*google.TextSearchResponse, error) {
			return s.places.TextSearch(ctx, name)
		})
		if err != nil {
			log.Warn("business: places search failed", zap.Error(err))
		} else {
			places := resp.Places
			if len(places) > maxPlaces {
				places = places[:maxPlaces]
			}
			for _, p := range places {
				c, err := s.link(ctx, d.ID, p)
				if err != nil {
					return nil, err
				}
				conf = max(conf, c)
			}
		}
	}

	if conf == 0 && s.apollo != nil && name != "" {
		resp, err := call(ctx, s.deps, "apollo", func(ctx context.Context) (*apollo.MatchResponse, error) {
			return s.apollo.PeopleMatch(ctx, name)
		})
		switch {
		case err != nil:
			log.Warn("business: apollo match failed", zap.Error(err))
		case resp.Found():
			conf = apolloMatchConf
		}
	}

	log.Info("business: looked up", zap.Int("confidence", conf))
	return &model.DebtorPatch{BusinessConfidence: model.Ptr(conf)}, nil
}

// link upserts the place as a business, links it to the debtor as owner,
// and returns the confidence the listing supports.
func (s *Business) link(ctx context.Context, debtorID string, p google.Place) (int, error) {
	name := p.DisplayName.Text
	if name == "" {
		return 0, nil
	}
	conf := partialListingConf
	if p.WebsiteURI != "" && p.NationalPhoneNumber != "" {
		conf = fullListingConf
	}

	biz, err := s.deps.Repo.FindBusinessByName(ctx, name)
	if err != nil {
		return 0, eris.Wrap(err, "business: find")
	}
	if biz == nil {
		biz = &model.Business{Name: name, Website: p.WebsiteURI, Phone: p.NationalPhoneNumber, Source: SourceGooglePlaces}
		if _, err := s.deps.Repo.CreateBusiness(ctx, biz); err != nil {
			return 0, eris.Wrap(err, "business: create")
		}
	}

	existing, err := s.deps.Repo.FindDebtorBusiness(ctx, debtorID, biz.ID)
	if err != nil {
		return 0, eris.Wrap(err, "business: find link")
	}
	if existing == nil {
		if _, err := s.deps.Repo.LinkBusiness(ctx, &model.DebtorBusiness{
			DebtorID: debtorID, BusinessID: biz.ID, Role: RoleOwner, Confidence: conf,
		}); err != nil {
			return 0, eris.Wrap(err, "business: link")
		}
	}
	return conf, nil
}
