package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// Validate checks the settings required by mode:
//
//	"store"  - a usable record store (seed, import, export, migrate)
//	"enrich" - a usable store plus sane pipeline and retry settings
//
// Missing provider credentials are not errors; each provider is disabled
// on its own when its credential is absent.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "store":
		errs = append(errs, c.validateStore()...)
	case "enrich":
		errs = append(errs, c.validateStore()...)
		if c.Pipeline.BatchLimit <= 0 {
			errs = append(errs, "pipeline.batch_limit must be > 0")
		}
		if c.Pipeline.FreshnessYear < 1900 {
			errs = append(errs, "pipeline.freshness_year must be >= 1900")
		}
		if c.Retry.ProviderAttempts <= 0 {
			errs = append(errs, "retry.provider_attempts must be > 0")
		}
		if c.Retry.ProviderSleepMs < 0 {
			errs = append(errs, "retry.provider_sleep_ms must be >= 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.New(fmt.Sprintf("config: %s", strings.Join(errs, "; ")))
	}
	return nil
}

func (c *Config) validateStore() []string {
	var errs []string
	switch c.Store.Driver {
	case "sqlite", "postgres":
		if c.Store.DatabaseURL == "" {
			errs = append(errs, "store.database_url is required")
		}
	case "directus":
		if c.Directus.URL == "" {
			errs = append(errs, "directus.url is required")
		}
		if c.Directus.Token == "" {
			errs = append(errs, "directus.token is required")
		}
	default:
		errs = append(errs, fmt.Sprintf("store.driver %q must be sqlite, postgres or directus", c.Store.Driver))
	}
	return errs
}
