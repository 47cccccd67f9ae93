package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/KevinSGarrett/DebtCollect/internal/httpx"
	"github.com/KevinSGarrett/DebtCollect/internal/resilience"
	"github.com/KevinSGarrett/DebtCollect/internal/store"
	"github.com/KevinSGarrett/DebtCollect/pkg/directus"
)

// initStore opens the configured record store.
func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		return store.NewSQLite(cfg.Store.DatabaseURL)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	case "directus":
		opts := []directus.Option{
			directus.WithRetry(resilience.StoreRetryConfig()),
			directus.WithLogger(zap.L().Named("directus")),
		}
		if cfg.Directus.TimeoutSecs > 0 {
			opts = append(opts, directus.WithHTTPClient(httpx.NewHTTPClient(time.Duration(cfg.Directus.TimeoutSecs)*time.Second)))
		}
		return store.NewDirectus(directus.NewClient(cfg.Directus.URL, cfg.Directus.Token, opts...)), nil
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// openRepo validates the config for mode, opens and migrates the store and
// returns a repository over it. Callers must call the returned closer.
func openRepo(ctx context.Context, mode string) (*store.Repo, func(), error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, nil, eris.Wrap(err, "migrate store")
	}
	return store.NewRepo(st), func() { _ = st.Close() }, nil
}
