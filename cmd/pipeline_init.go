package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/KevinSGarrett/DebtCollect/internal/httpx"
	"github.com/KevinSGarrett/DebtCollect/internal/pipeline"
	"github.com/KevinSGarrett/DebtCollect/internal/resilience"
	"github.com/KevinSGarrett/DebtCollect/internal/scoring"
	"github.com/KevinSGarrett/DebtCollect/internal/skiptrace"
	"github.com/KevinSGarrett/DebtCollect/internal/stages"
	"github.com/KevinSGarrett/DebtCollect/internal/store"
	"github.com/KevinSGarrett/DebtCollect/internal/verify"
	"github.com/KevinSGarrett/DebtCollect/pkg/apify"
	"github.com/KevinSGarrett/DebtCollect/pkg/apollo"
	"github.com/KevinSGarrett/DebtCollect/pkg/attom"
	"github.com/KevinSGarrett/DebtCollect/pkg/census"
	"github.com/KevinSGarrett/DebtCollect/pkg/courtlistener"
	"github.com/KevinSGarrett/DebtCollect/pkg/google"
	"github.com/KevinSGarrett/DebtCollect/pkg/hunter"
	"github.com/KevinSGarrett/DebtCollect/pkg/peoplesearch"
	"github.com/KevinSGarrett/DebtCollect/pkg/rpv"
	"github.com/KevinSGarrett/DebtCollect/pkg/twilio"
	"github.com/KevinSGarrett/DebtCollect/pkg/usps"
)

// pipelineEnv holds the repository, reconciler and pipeline used by the
// run, batch and skiptrace commands.
type pipelineEnv struct {
	Repo       *store.Repo
	Reconciler *skiptrace.Reconciler
	Pipeline   *pipeline.Pipeline
	closeFn    func()
}

// Close releases the store.
func (pe *pipelineEnv) Close() {
	if pe.closeFn != nil {
		pe.closeFn()
	}
}

// initPipeline opens the store, builds every configured provider client and
// assembles the stages. Providers without credentials are left nil and their
// stages skip the lookup. Callers should defer env.Close().
func initPipeline(ctx context.Context) (*pipelineEnv, error) {
	repo, closeFn, err := openRepo(ctx, "enrich")
	if err != nil {
		return nil, err
	}

	log := zap.L()
	retry := resilience.FixedRetryConfig(cfg.Retry.ProviderAttempts, cfg.Retry.ProviderSleep())
	retry.OnRetry = func(attempt int, err error) {
		log.Debug("provider retry", zap.Int("attempt", attempt), zap.Error(err))
	}
	breakers := resilience.NewBreakers(cfg.Breaker.FailureThreshold,
		time.Duration(cfg.Breaker.CooldownSecs)*time.Second, log.Named("breaker"))

	rec := newReconciler(repo, retry, breakers)
	ver := verify.New(repo, verifyProviders(),
		verify.WithLogger(log.Named("verify")),
		verify.WithRetry(retry),
		verify.WithBreakers(breakers),
		verify.WithListLimit(cfg.Pipeline.CleanupLimit),
	)
	scorer := scoring.NewScorer(repo, cfg.Pipeline.FreshnessYear, log.Named("scoring"))

	deps := stages.Deps{
		Repo:     repo,
		Log:      log.Named("stages"),
		Retry:    retry,
		Breakers: breakers,
		Simulate: cfg.Pipeline.Simulate,
	}
	stageList := []pipeline.Stage{
		stages.NewUSPS(deps, newUSPSClient()),
		stages.Skiptrace(rec),
		stages.Verify(ver),
		stages.NewBankruptcy(deps, newCourtListenerClient(), stages.PACER{
			Username: cfg.PACER.Username,
			Password: cfg.PACER.Password,
		}),
		stages.NewProperty(deps, newATTOMClient(), newCensusClient()),
		stages.NewBusiness(deps, newGoogleClient(), newApolloClient()),
		stages.Scoring(scorer),
	}

	p := pipeline.New(repo, stageList, pipeline.WithLogger(log.Named("pipeline")))
	log.Info("pipeline initialized",
		zap.Strings("stages", p.Stages()),
		zap.String("store", cfg.Store.Driver),
		zap.Bool("simulate", cfg.Pipeline.Simulate),
	)

	return &pipelineEnv{Repo: repo, Reconciler: rec, Pipeline: p, closeFn: closeFn}, nil
}

// newReconciler builds the identity-search strategy list: manual files
// first, then Apify, then the RapidAPI people search.
func newReconciler(repo *store.Repo, retry resilience.RetryConfig, breakers *resilience.Breakers) *skiptrace.Reconciler {
	log := zap.L().Named("skiptrace")
	var strategies []skiptrace.Strategy

	if cfg.Pipeline.ManualDir != "" {
		strategies = append(strategies, skiptrace.ManualFile{Dir: cfg.Pipeline.ManualDir})
	}

	if cfg.Apify.Token != "" {
		opts := []apify.Option{
			apify.WithBaseURL(cfg.Apify.BaseURL),
			apify.WithActor(cfg.Apify.Actor),
			apify.WithMaxResults(cfg.Apify.MaxResults),
			apify.WithLimiter(httpx.NewLimiter(cfg.Apify.RateLimitPerSec)),
		}
		if cfg.Apify.TimeoutSecs > 0 {
			opts = append(opts, apify.WithHTTPClient(httpx.NewHTTPClient(time.Duration(cfg.Apify.TimeoutSecs)*time.Second)))
		}
		if cfg.Pipeline.RawLogPath != "" {
			opts = append(opts, apify.WithRawSink(skiptrace.FileSink(cfg.Pipeline.RawLogPath, log)))
		}
		strategies = append(strategies, skiptrace.ApifyStrategy{
			Client:   apify.NewClient(cfg.Apify.Token, opts...),
			Retry:    retry,
			Breakers: breakers,
		})
	} else {
		log.Debug("DEBTCOLLECT_APIFY_TOKEN not set, apify search disabled")
	}

	if cfg.RapidAPI.Key != "" {
		strategies = append(strategies, skiptrace.PeopleSearchStrategy{
			Client: peoplesearch.NewClient(cfg.RapidAPI.Key,
				peoplesearch.WithBaseURL(cfg.RapidAPI.BaseURL),
				peoplesearch.WithHost(cfg.RapidAPI.Host),
				peoplesearch.WithLimiter(httpx.NewLimiter(cfg.RapidAPI.RateLimitPerSec)),
			),
			Retry:    retry,
			Breakers: breakers,
		})
	} else {
		log.Debug("DEBTCOLLECT_RAPIDAPI_KEY not set, people search fallback disabled")
	}

	return skiptrace.New(repo, strategies,
		skiptrace.WithLogger(log),
		skiptrace.WithSimulate(cfg.Pipeline.Simulate),
	)
}

func verifyProviders() verify.Providers {
	var p verify.Providers
	if cfg.RPV.Enabled && cfg.RPV.Token != "" {
		p.RPV = rpv.NewClient(cfg.RPV.Token, rpv.WithURL(cfg.RPV.URL))
	}
	if cfg.Twilio.AccountSID != "" && cfg.Twilio.AuthToken != "" {
		p.Twilio = twilio.NewClient(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken,
			twilio.WithBaseURL(cfg.Twilio.BaseURL),
			twilio.WithCallerName(cfg.Twilio.CallerName),
		)
	}
	if cfg.Hunter.Key != "" {
		p.Hunter = hunter.NewClient(cfg.Hunter.Key,
			hunter.WithBaseURL(cfg.Hunter.BaseURL),
			hunter.WithLimiter(httpx.NewLimiter(cfg.Hunter.RateLimitPerSec)),
		)
	}
	return p
}

func newUSPSClient() usps.Client {
	if cfg.USPS.UserID == "" {
		zap.L().Debug("DEBTCOLLECT_USPS_USER_ID not set, address standardization disabled")
		return nil
	}
	return usps.NewClient(cfg.USPS.UserID, usps.WithBaseURL(cfg.USPS.BaseURL))
}

// newCourtListenerClient always returns a client; the token only raises
// the rate limit.
func newCourtListenerClient() courtlistener.Client {
	return courtlistener.NewClient(cfg.CourtListener.Token, courtlistener.WithBaseURL(cfg.CourtListener.BaseURL))
}

func newATTOMClient() attom.Client {
	if cfg.ATTOM.Key == "" {
		return nil
	}
	return attom.NewClient(cfg.ATTOM.Key,
		attom.WithBaseURL(cfg.ATTOM.BaseURL),
		attom.WithLimiter(httpx.NewLimiter(cfg.ATTOM.RateLimitPerSec)),
	)
}

func newCensusClient() census.Client {
	if cfg.Census.Key == "" {
		return nil
	}
	return census.NewClient(cfg.Census.Key,
		census.WithBaseURL(cfg.Census.BaseURL),
		census.WithLimiter(httpx.NewLimiter(cfg.Census.RateLimitPerSec)),
	)
}

func newGoogleClient() google.Client {
	if cfg.Google.Key == "" {
		return nil
	}
	return google.NewClient(cfg.Google.Key,
		google.WithBaseURL(cfg.Google.BaseURL),
		google.WithLimiter(httpx.NewLimiter(cfg.Google.RateLimitPerSec)),
	)
}

func newApolloClient() apollo.Client {
	if cfg.Apollo.Key == "" {
		return nil
	}
	return apollo.NewClient(cfg.Apollo.Key,
		apollo.WithBaseURL(cfg.Apollo.BaseURL),
		apollo.WithLimiter(httpx.NewLimiter(cfg.Apollo.RateLimitPerSec)),
	)
}
