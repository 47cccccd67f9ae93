// Package verify re-validates a debtor's persisted phone and email facts,
// prunes the ones that fail the retention policy, and picks the best
// surviving contact per channel.
package verify

import (
	"context"
	"encoding/json"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/KevinSGarrett/DebtCollect/internal/model"
	"github.com/KevinSGarrett/DebtCollect/internal/resilience"
	"github.com/KevinSGarrett/DebtCollect/internal/store"
	"github.com/KevinSGarrett/DebtCollect/pkg/hunter"
	"github.com/KevinSGarrett/DebtCollect/pkg/rpv"
	"github.com/KevinSGarrett/DebtCollect/pkg/twilio"
)

// Retention and confidence constants.
const (
	MinMatchStrength = 80

	rpvExactConfidence   = 100
	rpvSubtypeConfidence = 75
	twilioMobileConf     = 70
	twilioLandlineConf   = 50

	// DefaultListLimit bounds how many facts of each kind one pass reads.
	DefaultListLimit = 200
)

// Providers holds the verification clients. A nil client behaves like an
// unconfigured provider.
type Providers struct {
	RPV    rpv.Client
	Twilio twilio.Client
	Hunter hunter.Client
}

// Summary reports what one verification pass did.
type Summary struct {
	PhonesVerified int
	EmailsVerified int
	PhonesDeleted  int
	EmailsDeleted  int
	BestPhoneID    string
	BestEmailID    string
	Patch          *model.DebtorPatch
}

// Option configures a Verifier.
type Option func(*Verifier)

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(v *Verifier) { v.log = log }
}

// WithRetry sets the per-provider retry policy.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(v *Verifier) { v.retry = cfg }
}

// WithBreakers routes provider calls through the named circuit breakers.
func WithBreakers(b *resilience.Breakers) Option {
	return func(v *Verifier) { v.breakers = b }
}

// WithListLimit overrides DefaultListLimit.
func WithListLimit(n int) Option {
	return func(v *Verifier) {
		if n > 0 {
			v.limit = n
		}
	}
}

// Verifier verifies and prunes contact facts.
type Verifier struct {
	repo     *store.Repo
	p        Providers
	retry    resilience.RetryConfig
	breakers *resilience.Breakers
	limit    int
	log      *zap.Logger
}

// New creates a Verifier.
func New(repo *store.Repo, p Providers, opts ...Option) *Verifier {
	v := &Verifier{repo: repo, p: p, retry: resilience.FixedRetryConfig(1, 0), limit: DefaultListLimit, log: zap.NewNop()}
	for _, o := range opts {
		o(v)
	}
	return v
}

// Run verifies every unverified fact, applies cleanup, and records the best
// surviving phone and email on the debtor.
func (v *Verifier) Run(ctx context.Context, d *model.Debtor) (*Summary, error) {
	log := v.log.With(zap.String("debtor_id", d.ID))
	sum := &Summary{}

	phones, err := v.repo.Phones(ctx, d.ID, v.limit)
	if err != nil {
		return nil, eris.Wrap(err, "verify: list phones")
	}
	emails, err := v.repo.Emails(ctx, d.ID, v.limit)
	if err != nil {
		return nil, eris.Wrap(err, "verify: list emails")
	}
	log.Info("verify: facts loaded", zap.Int("phones", len(phones)), zap.Int("emails", len(emails)))

	var orphanPhones, orphanEmails []string
	for _, ph := range phones {
		switch {
		case ph.PhoneE164 == "":
			orphanPhones = append(orphanPhones, ph.ID)
		case ph.IsVerified:
			continue
		default:
			if err := v.verifyPhone(ctx, log, ph); err != nil {
				return nil, err
			}
		}
	}
	for _, em := range emails {
		switch {
		case em.Email == "":
			orphanEmails = append(orphanEmails, em.ID)
		case em.IsVerified:
			continue
		default:
			if err := v.verifyEmail(ctx, log, em); err != nil {
				return nil, err
			}
		}
	}

	for _, id := range orphanPhones {
		if v.deletePhone(ctx, log, id) {
			sum.PhonesDeleted++
		}
	}
	for _, id := range orphanEmails {
		if v.deleteEmail(ctx, log, id) {
			sum.EmailsDeleted++
		}
	}

	keptPhones, keptEmails, err := v.cleanup(ctx, log, d.ID, sum)
	if err != nil {
		return nil, err
	}
	sum.PhonesVerified = len(keptPhones)
	sum.EmailsVerified = len(keptEmails)

	patch := &model.DebtorPatch{}
	if best := BestPhone(keptPhones); best != nil {
		sum.BestPhoneID = best.ID
		patch.BestPhoneID = model.Ptr(best.ID)
	}
	if best := BestEmail(keptEmails); best != nil {
		sum.BestEmailID = best.ID
		patch.BestEmailID = model.Ptr(best.ID)
	}
	if !patch.IsEmpty() {
		if err := v.repo.UpdateDebtor(ctx, d.ID, patch); err != nil {
			return nil, eris.Wrap(err, "verify: update best contacts")
		}
		patch.Apply(d)
		sum.Patch = patch
	}

	log.Info("verify: complete",
		zap.Int("phones_verified", sum.PhonesVerified),
		zap.Int("emails_verified", sum.EmailsVerified),
		zap.Int("phones_deleted", sum.PhonesDeleted),
		zap.Int("emails_deleted", sum.EmailsDeleted),
		zap.String("best_phone_id", sum.BestPhoneID),
		zap.String("best_email_id", sum.BestEmailID),
	)
	return sum, nil
}

// Retained reports whether a fact survives cleanup.
func Retained(verified bool, matchStrength int) bool {
	return verified && matchStrength >= MinMatchStrength
}

// cleanup re-lists every fact and deletes those that are not retained. The
// survivors are returned in listing order.
func (v *Verifier) cleanup(ctx context.Context, log *zap.Logger, debtorID string, sum *Summary) ([]model.PhoneFact, []model.EmailFact, error) {
	phones, err := v.repo.Phones(ctx, debtorID, v.limit)
	if err != nil {
		return nil, nil, eris.Wrap(err, "verify: relist phones")
	}
	var keptPhones []model.PhoneFact
	for _, ph := range phones {
		if Retained(ph.IsVerified, ph.MatchStrength) {
			keptPhones = append(keptPhones, ph)
			continue
		}
		if v.deletePhone(ctx, log, ph.ID) {
			sum.PhonesDeleted++
			log.Debug("verify: pruned phone", zap.String("phone", ph.PhoneE164),
				zap.Bool("verified", ph.IsVerified), zap.Int("match_strength", ph.MatchStrength))
		} else {
			keptPhones = append(keptPhones, ph)
		}
	}

	emails, err := v.repo.Emails(ctx, debtorID, v.limit)
	if err != nil {
		return nil, nil, eris.Wrap(err, "verify: relist emails")
	}
	var keptEmails []model.EmailFact
	for _, em := range emails {
		if Retained(em.IsVerified, em.MatchStrength) {
			keptEmails = append(keptEmails, em)
			continue
		}
		if v.deleteEmail(ctx, log, em.ID) {
			sum.EmailsDeleted++
			log.Debug("verify: pruned email", zap.String("email", em.Email),
				zap.Bool("verified", em.IsVerified), zap.Int("match_strength", em.MatchStrength))
		} else {
			keptEmails = append(keptEmails, em)
		}
	}
	return onlyVerifiedPhones(keptPhones), onlyVerifiedEmails(keptEmails), nil
}

func (v *Verifier) deletePhone(ctx context.Context, log *zap.Logger, id string) bool {
	if err := v.repo.DeletePhone(ctx, id); err != nil {
		log.Error("verify: delete phone", zap.String("phone_id", id), zap.Error(err))
		return false
	}
	return true
}

func (v *Verifier) deleteEmail(ctx context.Context, log *zap.Logger, id string) bool {
	if err := v.repo.DeleteEmail(ctx, id); err != nil {
		log.Error("verify: delete email", zap.String("email_id", id), zap.Error(err))
		return false
	}
	return true
}

// BestPhone returns the verified phone with the highest confidence, most
// recently seen first among ties, or nil.
func BestPhone(phones []model.PhoneFact) *model.PhoneFact {
	cands := onlyVerifiedPhones(phones)
	if len(cands) == 0 {
		return nil
	}
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].VerificationScore != cands[j].VerificationScore {
			return cands[i].VerificationScore > cands[j].VerificationScore
		}
		return seen(cands[i].LastSeen) > seen(cands[j].LastSeen)
	})
	return &cands[0]
}

// BestEmail returns the verified email with the highest confidence, or nil.
func BestEmail(emails []model.EmailFact) *model.EmailFact {
	cands := onlyVerifiedEmails(emails)
	if len(cands) == 0 {
		return nil
	}
	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].HunterScore > cands[j].HunterScore
	})
	return &cands[0]
}

func seen(s string) string {
	if s == "" {
		return "1900-01-01"
	}
	return s
}

func onlyVerifiedPhones(in []model.PhoneFact) []model.PhoneFact {
	out := make([]model.PhoneFact, 0, len(in))
	for _, p := range in {
		if p.IsVerified {
			out = append(out, p)
		}
	}
	return out
}

func onlyVerifiedEmails(in []model.EmailFact) []model.EmailFact {
	out := make([]model.EmailFact, 0, len(in))
	for _, e := range in {
		if e.IsVerified {
			out = append(out, e)
		}
	}
	return out
}

func errorPayload(err error) json.RawMessage {
	b, _ := json.Marshal(map[string]string{"error": err.Error()})
	return b
}

func lower(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
