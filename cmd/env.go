package main

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/intel-cli/internal/config"
	"github.com/sells-group/intel-cli/internal/credibility"
	"github.com/sells-group/intel-cli/internal/extract"
	"github.com/sells-group/intel-cli/internal/query"
	"github.com/sells-group/intel-cli/internal/report"
	"github.com/sells-group/intel-cli/internal/resilience"
	"github.com/sells-group/intel-cli/internal/search"
	"github.com/sells-group/intel-cli/internal/store"
	anthropicpkg "github.com/sells-group/intel-cli/pkg/anthropic"
	"github.com/sells-group/intel-cli/pkg/googlenews"
	"github.com/sells-group/intel-cli/pkg/jina"
	"github.com/sells-group/intel-cli/pkg/perplexity"
)

// reportEnv holds the store and services needed by analyze and serve.
type reportEnv struct {
	Store   store.Store
	Scorer  *credibility.Scorer
	Reports *report.Service
}

// Close releases resources held by the environment.
func (e *reportEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

func initStore(ctx context.Context, c *config.Config) (store.Store, error) {
	switch c.Store.Driver {
	case "sqlite":
		dsn := c.Store.DatabaseURL
		if dsn == "" {
			dsn = "intel.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, c.Store.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", c.Store.Driver)
	}
}

// initScorer builds the credibility scorer, overlaying the rules file when
// one is configured.
func initScorer(c *config.Config) (*credibility.Scorer, error) {
	lex := credibility.DefaultLexicon()
	if c.Credibility.RulesFile != "" {
		var err error
		if lex, err = credibility.LoadLexicon(c.Credibility.RulesFile); err != nil {
			return nil, err
		}
	}
	return credibility.New(credibility.Options{
		MinConfidence: c.Credibility.MinConfidence,
		MaxResults:    c.Credibility.MaxResults,
		Debug:         c.Credibility.Debug,
	}, lex), nil
}

// initProviders returns the enabled search providers wrapped with retries
// and a circuit breaker each, plus the Jina client for article reads.
func initProviders(c *config.Config) ([]search.Provider, jina.Client) {
	retry := resilience.FromRetryConfig(c.Search.MaxAttempts, c.Search.InitialBackoffMs, c.Search.MaxBackoffMs)
	breaker := resilience.BreakerConfig{
		FailureThreshold: c.Search.BreakerFailures,
		ResetTimeout:     time.Duration(c.Search.BreakerResetSecs) * time.Second,
	}

	var providers []search.Provider
	var reader jina.Client
	if c.Jina.Key != "" {
		// Guard owns retries for search; reads keep the client's own.
		sc := jina.NewClient(c.Jina.Key,
			jina.WithSearchBaseURL(c.Jina.SearchBaseURL),
			jina.WithMaxAttempts(1),
		)
		providers = append(providers, search.Guard(search.NewJinaProvider(sc, c.Jina.ResultCount), retry, breaker))
		reader = jina.NewClient(c.Jina.Key, jina.WithReadBaseURL(c.Jina.BaseURL))
	} else {
		zap.L().Debug("INTEL_JINA_KEY not set, jina search disabled")
	}
	if c.GoogleNews.Enabled {
		gn := googlenews.NewClient(
			googlenews.WithBaseURL(c.GoogleNews.BaseURL),
			googlenews.WithLocale(c.GoogleNews.Locale, c.GoogleNews.Region, ceid(c.GoogleNews.Locale, c.GoogleNews.Region)),
		)
		providers = append(providers, search.Guard(search.NewGoogleNewsProvider(gn), retry, breaker))
	}
	return providers, reader
}

// ceid builds Google News' edition id, e.g. ("en-US", "US") -> "US:en".
func ceid(locale, region string) string {
	lang, _, _ := strings.Cut(locale, "-")
	return region + ":" + strings.ToLower(lang)
}

func initSummarizer(c *config.Config) report.Summarizer {
	switch c.Server.Summarizer {
	case "anthropic":
		return report.NewAnthropicSummarizer(anthropicpkg.NewClient(c.Anthropic.Key), c.Anthropic.Model, c.Anthropic.MaxTokens)
	case "perplexity":
		pc := perplexity.NewClient(c.Perplexity.Key,
			perplexity.WithBaseURL(c.Perplexity.BaseURL),
			perplexity.WithModel(c.Perplexity.Model),
		)
		return report.NewPerplexitySummarizer(pc, c.Perplexity.Model)
	default:
		return nil
	}
}

// initReports validates config for mode, opens and migrates the store and
// builds the report service. Callers should defer env.Close().
func initReports(ctx context.Context, mode string) (*reportEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	scorer, err := initScorer(cfg)
	if err != nil {
		return nil, err
	}

	st, err := initStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	providers, reader := initProviders(cfg)
	if !cfg.Search.ReadShortArticles {
		reader = nil
	}

	svc := report.NewService(report.Deps{
		Store:      st,
		Searcher:   search.NewSearcher(cfg.Search.Concurrency, providers...),
		Queries:    query.NewGenerator(query.Config{PressWires: cfg.Query.PressWires, Verbs: cfg.Query.Verbs}),
		Scorer:     scorer,
		Extractor:  extract.New(cfg.Credibility.Debug),
		Summarizer: initSummarizer(cfg),
		Reader:     reader,
		TTL:        cfg.Cache.TTL(),
	})

	return &reportEnv{Store: st, Scorer: scorer, Reports: svc}, nil
}
