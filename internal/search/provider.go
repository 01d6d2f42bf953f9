// Package search fans queries out to web and news search vendors and
// normalizes their hits into model.SearchResult.
package search

import (
	"context"
	"errors"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/intel-cli/internal/model"
	"github.com/sells-group/intel-cli/internal/resilience"
	"github.com/sells-group/intel-cli/pkg/googlenews"
	"github.com/sells-group/intel-cli/pkg/jina"
)

// Provider runs a single search query against one vendor.
type Provider interface {
	Name() string
	Search(ctx context.Context, query string) ([]model.SearchResult, error)
}

// rankScore maps a 0-based rank to a vendor score in (0, 1]. The first
// hit gets 1.0 and each following hit loses 0.1, floored at 0.1.
func rankScore(rank int) *float64 {
	s := 1.0 - 0.1*float64(rank)
	if s < 0.1 {
		s = 0.1
	}
	return &s
}

// JinaProvider adapts the Jina Search API. Retryable status codes come
// back as resilience.TransientError so Guard can retry them.
type JinaProvider struct {
	client jina.Client
	count  int
}

// NewJinaProvider wraps a Jina client; count caps hits per query (0 keeps
// the vendor default).
func NewJinaProvider(client jina.Client, count int) *JinaProvider {
	return &JinaProvider{client: client, count: count}
}

// Name implements Provider.
func (p *JinaProvider) Name() string { return "jina" }

// Search implements Provider.
func (p *JinaProvider) Search(ctx context.Context, query string) ([]model.SearchResult, error) {
	var opts []jina.SearchOption
	if p.count > 0 {
		opts = append(opts, jina.WithCount(p.count))
	}
	resp, err := p.client.Search(ctx, query, opts...)
	if err != nil {
		var se *jina.StatusError
		if errors.As(err, &se) && resilience.IsTransientHTTPStatus(se.StatusCode) {
			return nil, resilience.NewTransientError(eris.Wrap(err, "search: jina"), se.StatusCode)
		}
		return nil, eris.Wrap(err, "search: jina")
	}

	out := make([]model.SearchResult, 0, len(resp.Data))
	for i, d := range resp.Data {
		content := d.Content
		if strings.TrimSpace(content) == "" {
			content = d.Description
		}
		out = append(out, model.SearchResult{
			Title:       d.Title,
			URL:         d.URL,
			Content:     content,
			VendorScore: rankScore(i),
			Provider:    p.Name(),
		})
	}
	return out, nil
}

// GoogleNewsProvider adapts the Google News RSS search feed. The feed
// carries no relevance score, so results have no vendor score. Result URLs
// are Google redirects; the publisher's site goes in SourceURL and the
// feed date in Published, never in Content.
type GoogleNewsProvider struct {
	client googlenews.Client
}

// NewGoogleNewsProvider wraps a Google News client.
func NewGoogleNewsProvider(client googlenews.Client) *GoogleNewsProvider {
	return &GoogleNewsProvider{client: client}
}

// Name implements Provider.
func (p *GoogleNewsProvider) Name() string { return "googlenews" }

// Search implements Provider.
func (p *GoogleNewsProvider) Search(ctx context.Context, query string) ([]model.SearchResult, error) {
	items, err := p.client.Search(ctx, query)
	if err != nil {
		return nil, eris.Wrap(err, "search: googlenews")
	}

	out := make([]model.SearchResult, 0, len(items))
	for _, it := range items {
		title := it.Title
		if it.Source != "" {
			title = strings.TrimSpace(strings.TrimSuffix(title, " - "+it.Source))
		}
		out = append(out, model.SearchResult{
			Title:     title,
			URL:       it.URL,
			Content:   it.Description,
			Provider:  p.Name(),
			SourceURL: it.SourceURL,
			Published: it.Published,
		})
	}
	return out, nil
}

// guarded wraps a provider with retries and a circuit breaker.
type guarded struct {
	Provider
	retry   resilience.RetryConfig
	breaker *resilience.CircuitBreaker
}

// Guard returns a provider whose calls retry transient errors and stop
// hitting the vendor while its circuit is open.
func Guard(p Provider, retry resilience.RetryConfig, breaker resilience.BreakerConfig) Provider {
	if retry.OnRetry == nil {
		retry.OnRetry = resilience.RetryLogger(p.Name(), "search")
	}
	return &guarded{
		Provider: p,
		retry:    retry,
		breaker:  resilience.NewCircuitBreaker(p.Name(), breaker),
	}
}

func (g *guarded) Search(ctx context.Context, query string) ([]model.SearchResult, error) {
	return resilience.ExecuteVal(ctx, g.breaker, func(ctx context.Context) ([]model.SearchResult, error) {
		return resilience.DoVal(ctx, g.retry, func(ctx context.Context) ([]model.SearchResult, error) {
			return g.Provider.Search(ctx, query)
		})
	})
}
