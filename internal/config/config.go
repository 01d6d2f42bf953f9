package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store       StoreConfig       `yaml:"store" mapstructure:"store"`
	Anthropic   AnthropicConfig   `yaml:"anthropic" mapstructure:"anthropic"`
	Perplexity  PerplexityConfig  `yaml:"perplexity" mapstructure:"perplexity"`
	Jina        JinaConfig        `yaml:"jina" mapstructure:"jina"`
	GoogleNews  GoogleNewsConfig  `yaml:"googlenews" mapstructure:"googlenews"`
	Credibility CredibilityConfig `yaml:"credibility" mapstructure:"credibility"`
	Query       QueryConfig       `yaml:"query" mapstructure:"query"`
	Search      SearchConfig      `yaml:"search" mapstructure:"search"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	Auth        AuthConfig        `yaml:"auth" mapstructure:"auth"`
	RateLimit   RateLimitConfig   `yaml:"ratelimit" mapstructure:"ratelimit"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the report cache backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// AnthropicConfig configures the report summarizer.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// PerplexityConfig configures the alternative summarizer.
type PerplexityConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// JinaConfig holds Jina Search and Reader settings.
type JinaConfig struct {
	Key           string `yaml:"key" mapstructure:"key"`
	BaseURL       string `yaml:"base_url" mapstructure:"base_url"`
	SearchBaseURL string `yaml:"search_base_url" mapstructure:"search_base_url"`
	ResultCount   int    `yaml:"result_count" mapstructure:"result_count"`
}

// GoogleNewsConfig configures the RSS news provider.
type GoogleNewsConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Locale  string `yaml:"locale" mapstructure:"locale"`
	Region  string `yaml:"region" mapstructure:"region"`
}

// CredibilityConfig tunes the result scorer.
type CredibilityConfig struct {
	MinConfidence int  `yaml:"min_confidence" mapstructure:"min_confidence"`
	MaxResults    int  `yaml:"max_results" mapstructure:"max_results"`
	Debug         bool `yaml:"debug" mapstructure:"debug"`
	// RulesFile optionally overlays the built-in lexicon.
	RulesFile string `yaml:"rules_file" mapstructure:"rules_file"`
}

// QueryConfig tunes query generation.
type QueryConfig struct {
	PressWires []string `yaml:"press_wires" mapstructure:"press_wires"`
	Verbs      []string `yaml:"verbs" mapstructure:"verbs"`
}

// SearchConfig controls provider fan-out and vendor resilience.
type SearchConfig struct {
	Concurrency      int `yaml:"concurrency" mapstructure:"concurrency"`
	MaxAttempts      int `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
	BreakerFailures  int `yaml:"breaker_failures" mapstructure:"breaker_failures"`
	BreakerResetSecs int `yaml:"breaker_reset_secs" mapstructure:"breaker_reset_secs"`
	// ReadShortArticles fetches full pages for thin leadership hits.
	ReadShortArticles bool `yaml:"read_short_articles" mapstructure:"read_short_articles"`
}

// CacheConfig controls report freshness.
type CacheConfig struct {
	TTLHours int `yaml:"ttl_hours" mapstructure:"ttl_hours"`
}

// TTL returns the report freshness window.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLHours) * time.Hour
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	Summarizer     string   `yaml:"summarizer" mapstructure:"summarizer"`
}

// AuthConfig holds the JWT verification secret.
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret" mapstructure:"jwt_secret"`
	Issuer    string `yaml:"issuer" mapstructure:"issuer"`
}

// RateLimitConfig bounds per-user API calls.
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" mapstructure:"requests_per_minute"`
	Burst             int `yaml:"burst" mapstructure:"burst"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Validate checks the settings required by a command mode: "analyze",
// "serve" or "migrate". All problems are reported together.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch c.Store.Driver {
	case "postgres":
		if c.Store.DatabaseURL == "" {
			errs = append(errs, "store.database_url is required for postgres")
		}
	case "sqlite":
	default:
		errs = append(errs, fmt.Sprintf("unknown store.driver %q", c.Store.Driver))
	}

	switch mode {
	case "migrate":
	case "analyze", "serve":
		if c.Jina.Key == "" && !c.GoogleNews.Enabled {
			errs = append(errs, "jina.key is required when googlenews is disabled")
		}
		switch c.Server.Summarizer {
		case "anthropic":
			if c.Anthropic.Key == "" {
				errs = append(errs, "anthropic.key is required")
			}
		case "perplexity":
			if c.Perplexity.Key == "" {
				errs = append(errs, "perplexity.key is required")
			}
		case "none":
		default:
			errs = append(errs, fmt.Sprintf("unknown server.summarizer %q", c.Server.Summarizer))
		}
		if c.Credibility.MinConfidence < 0 || c.Credibility.MinConfidence > 200 {
			errs = append(errs, "credibility.min_confidence must be between 0 and 200")
		}
		if mode == "serve" {
			if c.Server.Port <= 0 {
				errs = append(errs, "server.port must be > 0")
			}
			if c.Auth.JWTSecret == "" {
				errs = append(errs, "auth.jwt_secret is required")
			}
			if c.RateLimit.RequestsPerMinute <= 0 {
				errs = append(errs, "ratelimit.requests_per_minute must be > 0")
			}
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Load reads configuration from ./config.yaml, if present, and the
// environment.
func Load() (*Config, error) {
	return LoadFrom("")
}

// LoadFrom is Load with an explicit config file. A named file must exist;
// an empty path falls back to the optional ./config.yaml.
func LoadFrom(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	// INTEL_ANTHROPIC_KEY -> anthropic.key
	v.SetEnvPrefix("INTEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "intel.db")
	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 1024)
	v.SetDefault("perplexity.key", "")
	v.SetDefault("perplexity.base_url", "https://api.perplexity.ai")
	v.SetDefault("perplexity.model", "sonar-pro")
	v.SetDefault("jina.key", "")
	v.SetDefault("jina.base_url", "https://r.jina.ai")
	v.SetDefault("jina.search_base_url", "https://s.jina.ai")
	v.SetDefault("jina.result_count", 10)
	v.SetDefault("googlenews.enabled", true)
	v.SetDefault("googlenews.base_url", "https://news.google.com/rss/search")
	v.SetDefault("googlenews.locale", "en-US")
	v.SetDefault("googlenews.region", "US")
	v.SetDefault("credibility.min_confidence", 60)
	v.SetDefault("credibility.max_results", 10)
	v.SetDefault("credibility.debug", false)
	v.SetDefault("credibility.rules_file", "")
	v.SetDefault("query.press_wires", []string{"businesswire.com", "prnewswire.com", "globenewswire.com"})
	v.SetDefault("query.verbs", []string{"announces", "selects", "partners", "deploys", "implements"})
	v.SetDefault("search.concurrency", 6)
	v.SetDefault("search.max_attempts", 3)
	v.SetDefault("search.initial_backoff_ms", 500)
	v.SetDefault("search.max_backoff_ms", 10000)
	v.SetDefault("search.breaker_failures", 5)
	v.SetDefault("search.breaker_reset_secs", 30)
	v.SetDefault("search.read_short_articles", false)
	v.SetDefault("cache.ttl_hours", 24)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.summarizer", "anthropic")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.issuer", "")
	v.SetDefault("ratelimit.requests_per_minute", 10)
	v.SetDefault("ratelimit.burst", 3)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
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
