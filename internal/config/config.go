// Package config loads application configuration from config.yaml and
// DEBTCOLLECT_* environment variables.
package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store         StoreConfig         `yaml:"store" mapstructure:"store"`
	Directus      DirectusConfig      `yaml:"directus" mapstructure:"directus"`
	Log           LogConfig           `yaml:"log" mapstructure:"log"`
	Pipeline      PipelineConfig      `yaml:"pipeline" mapstructure:"pipeline"`
	Retry         RetryConfig         `yaml:"retry" mapstructure:"retry"`
	Breaker       BreakerConfig       `yaml:"breaker" mapstructure:"breaker"`
	Apify         ApifyConfig         `yaml:"apify" mapstructure:"apify"`
	RapidAPI      RapidAPIConfig      `yaml:"rapidapi" mapstructure:"rapidapi"`
	RPV           RPVConfig           `yaml:"rpv" mapstructure:"rpv"`
	Twilio        TwilioConfig        `yaml:"twilio" mapstructure:"twilio"`
	Hunter        APIKeyConfig        `yaml:"hunter" mapstructure:"hunter"`
	USPS          USPSConfig          `yaml:"usps" mapstructure:"usps"`
	CourtListener CourtListenerConfig `yaml:"courtlistener" mapstructure:"courtlistener"`
	PACER         PACERConfig         `yaml:"pacer" mapstructure:"pacer"`
	ATTOM         APIKeyConfig        `yaml:"attom" mapstructure:"attom"`
	Census        APIKeyConfig        `yaml:"census" mapstructure:"census"`
	Google        APIKeyConfig        `yaml:"google" mapstructure:"google"`
	Apollo        APIKeyConfig        `yaml:"apollo" mapstructure:"apollo"`
}

// StoreConfig selects the record store backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // sqlite, postgres or directus
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// DirectusConfig holds Directus REST settings.
type DirectusConfig struct {
	URL         string `yaml:"url" mapstructure:"url"`
	Token       string `yaml:"token" mapstructure:"token"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// PipelineConfig configures enrichment behavior.
type PipelineConfig struct {
	BatchLimit    int    `yaml:"batch_limit" mapstructure:"batch_limit"`
	Simulate      bool   `yaml:"simulate" mapstructure:"simulate"`
	ManualDir     string `yaml:"manual_dir" mapstructure:"manual_dir"`
	RawLogPath    string `yaml:"raw_log_path" mapstructure:"raw_log_path"`
	FreshnessYear int    `yaml:"freshness_year" mapstructure:"freshness_year"`
	CleanupLimit  int    `yaml:"cleanup_limit" mapstructure:"cleanup_limit"`
}

// RetryConfig configures the fixed provider retry policy.
type RetryConfig struct {
	ProviderAttempts int `yaml:"provider_attempts" mapstructure:"provider_attempts"`
	ProviderSleepMs  int `yaml:"provider_sleep_ms" mapstructure:"provider_sleep_ms"`
}

// ProviderSleep returns the configured sleep between provider attempts.
func (r RetryConfig) ProviderSleep() time.Duration {
	return time.Duration(r.ProviderSleepMs) * time.Millisecond
}

// BreakerConfig configures per-provider circuit breaking across a batch.
type BreakerConfig struct {
	FailureThreshold int `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	CooldownSecs     int `yaml:"cooldown_secs" mapstructure:"cooldown_secs"`
}

// APIKeyConfig is a provider reached with a single key.
type APIKeyConfig struct {
	Key             string  `yaml:"key" mapstructure:"key"`
	BaseURL         string  `yaml:"base_url" mapstructure:"base_url"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec" mapstructure:"rate_limit_per_sec"`
}

// ApifyConfig holds Apify actor settings.
type ApifyConfig struct {
	Token           string  `yaml:"token" mapstructure:"token"`
	BaseURL         string  `yaml:"base_url" mapstructure:"base_url"`
	Actor           string  `yaml:"actor" mapstructure:"actor"`
	MaxResults      int     `yaml:"max_results" mapstructure:"max_results"`
	TimeoutSecs     int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec" mapstructure:"rate_limit_per_sec"`
}

// RapidAPIConfig holds RapidAPI people-search settings.
type RapidAPIConfig struct {
	Key             string  `yaml:"key" mapstructure:"key"`
	Host            string  `yaml:"host" mapstructure:"host"`
	BaseURL         string  `yaml:"base_url" mapstructure:"base_url"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec" mapstructure:"rate_limit_per_sec"`
}

// RPVConfig holds RealPhoneValidation settings.
type RPVConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Token   string `yaml:"token" mapstructure:"token"`
	URL     string `yaml:"url" mapstructure:"url"`
}

// TwilioConfig holds Twilio Lookup credentials.
type TwilioConfig struct {
	AccountSID string `yaml:"account_sid" mapstructure:"account_sid"`
	AuthToken  string `yaml:"auth_token" mapstructure:"auth_token"`
	BaseURL    string `yaml:"base_url" mapstructure:"base_url"`
	CallerName bool   `yaml:"caller_name" mapstructure:"caller_name"`
}

// USPSConfig holds USPS Web Tools credentials.
type USPSConfig struct {
	UserID  string `yaml:"user_id" mapstructure:"user_id"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// CourtListenerConfig holds CourtListener settings. The token is optional.
type CourtListenerConfig struct {
	Token   string `yaml:"token" mapstructure:"token"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// PACERConfig holds PACER credentials for the stub fallback.
type PACERConfig struct {
	Username string `yaml:"username" mapstructure:"username"`
	Password string `yaml:"password" mapstructure:"password"`
}

var credentialKeys = []string{
	"directus.url", "directus.token",
	"apify.token", "rapidapi.key", "rpv.token",
	"twilio.account_sid", "twilio.auth_token",
	"hunter.key", "usps.user_id", "courtlistener.token",
	"pacer.username", "pacer.password",
	"attom.key", "census.key", "google.key", "apollo.key",
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("DEBTCOLLECT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "debtcollect.db")
	v.SetDefault("directus.timeout_secs", 30)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("pipeline.batch_limit", 25)
	v.SetDefault("pipeline.simulate", false)
	v.SetDefault("pipeline.manual_dir", "")
	v.SetDefault("pipeline.raw_log_path", "logs/apify_raw.jsonl")
	v.SetDefault("pipeline.freshness_year", 2024)
	v.SetDefault("pipeline.cleanup_limit", 200)
	v.SetDefault("retry.provider_attempts", 3)
	v.SetDefault("retry.provider_sleep_ms", 1500)
	v.SetDefault("breaker.failure_threshold", 5)
	v.SetDefault("breaker.cooldown_secs", 300)
	v.SetDefault("apify.base_url", "https://api.apify.com/v2")
	v.SetDefault("apify.actor", "one-api~skip-trace")
	v.SetDefault("apify.max_results", 3)
	v.SetDefault("apify.timeout_secs", 120)
	v.SetDefault("apify.rate_limit_per_sec", 1.0)
	v.SetDefault("rapidapi.host", "usa-people-search-public-records.p.rapidapi.com")
	v.SetDefault("rapidapi.base_url", "https://usa-people-search-public-records.p.rapidapi.com")
	v.SetDefault("rapidapi.rate_limit_per_sec", 1.0)
	v.SetDefault("rpv.enabled", true)
	v.SetDefault("rpv.url", "https://api.realvalidation.com/rpvWebService/TurboV3.php")
	v.SetDefault("twilio.base_url", "https://lookups.twilio.com/v1")
	v.SetDefault("hunter.base_url", "https://api.hunter.io/v2")
	v.SetDefault("usps.base_url", "https://secure.shippingapis.com/ShippingAPI.dll")
	v.SetDefault("courtlistener.base_url", "https://www.courtlistener.com/api/rest/v4")
	v.SetDefault("attom.base_url", "https://api.attomdata.com/propertyapi/v1.0.0")
	v.SetDefault("census.base_url", "https://api.census.gov/data/2022/acs/acs5")
	v.SetDefault("google.base_url", "https://places.googleapis.com/v1")
	v.SetDefault("apollo.base_url", "https://api.apollo.io/api/v1")

	// Credentials have no default but must still bind from the environment.
	for _, key := range credentialKeys {
		v.SetDefault(key, "")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
