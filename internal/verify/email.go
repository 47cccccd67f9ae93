package verify

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/KevinSGarrett/DebtCollect/internal/model"
	"github.com/KevinSGarrett/DebtCollect/internal/resilience"
	"github.com/KevinSGarrett/DebtCollect/pkg/hunter"
)

// HunterConfidence maps an email-verifier verdict to (verified, confidence).
func HunterConfidence(status string, score *int) (bool, int) {
	conf := 0
	if score != nil {
		conf = min(max(*score, 0), 100)
	}
	return status == "valid", conf
}

// verifyEmail runs the single email provider. There is no fallback: a
// failed lookup leaves the fact unverified with the error recorded.
func (v *Verifier) verifyEmail(ctx context.Context, log *zap.Logger, em model.EmailFact) error {
	log = log.With(zap.String("email", em.Email))

	var patch *model.EmailPatch
	resp, err := v.lookupHunter(ctx, em.Email)
	if err != nil {
		log.Warn("verify: hunter failed", zap.Error(err))
		patch = &model.EmailPatch{
			IsVerified:        model.Ptr(false),
			HunterScore:       model.Ptr(0),
			VerificationError: model.Ptr(err.Error()),
			RawPayload:        errorPayload(err),
		}
	} else {
		verified, conf := HunterConfidence(resp.Data.Status, resp.Data.Score)
		patch = &model.EmailPatch{
			IsVerified:   model.Ptr(verified),
			HunterStatus: model.Ptr(resp.Data.Status),
			HunterScore:  model.Ptr(conf),
			RawPayload:   resp.Raw,
		}
	}

	if err := v.repo.UpdateEmail(ctx, em.ID, patch); err != nil {
		return eris.Wrapf(err, "verify: update email %s", em.ID)
	}
	log.Info("verify: email checked", zap.Bool("verified", *patch.IsVerified), zap.Int("confidence", *patch.HunterScore))
	return nil
}

func (v *Verifier) lookupHunter(ctx context.Context, email string) (*hunter.VerifyResponse, error) {
	if v.p.Hunter == nil {
		return nil, resilience.NewConfigurationError("hunter", "hunter.key")
	}
	return resilience.DoVal(ctx, v.retry, func(ctx context.Context) (*hunter.VerifyResponse, error) {
		return resilience.Call(v.breakers, "hunter", func() (*hunter.VerifyResponse, error) {
			return v.p.Hunter.VerifyEmail(ctx, email)
		})
	})
}
