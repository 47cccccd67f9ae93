package verify

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/KevinSGarrett/DebtCollect/internal/model"
	"github.com/KevinSGarrett/DebtCollect/internal/resilience"
	"github.com/KevinSGarrett/DebtCollect/pkg/rpv"
	"github.com/KevinSGarrett/DebtCollect/pkg/twilio"
)

// RPVConfidence maps a RealPhoneValidation status to (verified, confidence).
func RPVConfidence(status string) (bool, int) {
	status = lower(status)
	switch {
	case status == "connected":
		return true, rpvExactConfidence
	case (&rpv.Response{Status: status}).Connected():
		return true, rpvSubtypeConfidence
	}
	return false, 0
}

// TwilioConfidence maps a Twilio carrier line type to (verified, confidence).
func TwilioConfidence(lineType string) (bool, int) {
	var conf int
	switch lower(lineType) {
	case "mobile", "voip":
		conf = twilioMobileConf
	case "landline":
		conf = twilioLandlineConf
	}
	return conf > 0, conf
}

// verifyPhone tries RPV, then Twilio, and writes whichever outcome it got.
// Only store failures are returned.
func (v *Verifier) verifyPhone(ctx context.Context, log *zap.Logger, ph model.PhoneFact) error {
	log = log.With(zap.String("phone", ph.PhoneE164))

	patch, rpvErr := v.lookupRPV(ctx, ph.PhoneE164)
	if rpvErr != nil {
		log.Warn("verify: rpv unavailable, trying twilio", zap.Error(rpvErr))
		var twErr error
		patch, twErr = v.lookupTwilio(ctx, ph.PhoneE164)
		if twErr != nil {
			log.Error("verify: rpv and twilio both failed", zap.Error(twErr))
			patch = &model.PhonePatch{
				IsVerified:        model.Ptr(false),
				VerificationScore: model.Ptr(0),
				VerificationError: model.Ptr(twErr.Error()),
				RawPayload:        errorPayload(twErr),
			}
		}
	}

	if err := v.repo.UpdatePhone(ctx, ph.ID, patch); err != nil {
		return eris.Wrapf(err, "verify: update phone %s", ph.ID)
	}
	log.Info("verify: phone checked",
		zap.Bool("verified", *patch.IsVerified), zap.Int("confidence", *patch.VerificationScore))
	return nil
}

func (v *Verifier) lookupRPV(ctx context.Context, e164 string) (*model.PhonePatch, error) {
	if v.p.RPV == nil {
		return nil, resilience.NewConfigurationError("rpv", "rpv.token")
	}
	resp, err := resilience.DoVal(ctx, v.retry, func(ctx context.Context) (*rpv.Response, error) {
		return resilience.Call(v.breakers, "rpv", func() (*rpv.Response, error) {
			return v.p.RPV.Lookup(ctx, e164)
		})
	})
	if err != nil {
		return nil, err
	}
	verified, conf := RPVConfidence(resp.Status)
	p := &model.PhonePatch{
		IsVerified:        model.Ptr(verified),
		VerificationScore: model.Ptr(conf),
		RPVStatus:         model.Ptr(lower(resp.Status)),
		RPVConfidence:     model.Ptr(conf),
		LineType:          model.Ptr(lower(resp.PhoneType)),
		RawPayload:        resp.Raw,
	}
	if resp.Carrier != "" {
		p.CarrierName = model.Ptr(resp.Carrier)
	}
	return p, nil
}

func (v *Verifier) lookupTwilio(ctx context.Context, e164 string) (*model.PhonePatch, error) {
	if v.p.Twilio == nil {
		return nil, resilience.NewConfigurationError("twilio", "twilio.account_sid")
	}
	resp, err := resilience.DoVal(ctx, v.retry, func(ctx context.Context) (*twilio.LookupResponse, error) {
		return resilience.Call(v.breakers, "twilio", func() (*twilio.LookupResponse, error) {
			return v.p.Twilio.Lookup(ctx, e164)
		})
	})
	if err != nil {
		return nil, err
	}
	lineType := lower(resp.Carrier.Type)
	verified, conf := TwilioConfidence(lineType)
	p := &model.PhonePatch{
		IsVerified:        model.Ptr(verified),
		VerificationScore: model.Ptr(conf),
		TwilioStatus:      model.Ptr(lineType),
		LineType:          model.Ptr(lineType),
		RawPayload:        resp.Raw,
	}
	if resp.Carrier.Name != "" {
		p.CarrierName = model.Ptr(resp.Carrier.Name)
	}
	return p, nil
}
