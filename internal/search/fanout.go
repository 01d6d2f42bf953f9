package search

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/intel-cli/internal/model"
)

// DefaultConcurrency bounds in-flight vendor calls per fan-out.
const DefaultConcurrency = 6

// Searcher runs every query against every provider.
type Searcher struct {
	providers   []Provider
	concurrency int
}

// NewSearcher creates a Searcher. A non-positive concurrency uses
// DefaultConcurrency.
func NewSearcher(concurrency int, providers ...Provider) *Searcher {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Searcher{providers: providers, concurrency: concurrency}
}

// Providers returns the configured provider names.
func (s *Searcher) Providers() []string {
	out := make([]string, len(s.providers))
	for i, p := range s.providers {
		out[i] = p.Name()
	}
	return out
}

// FanOut issues every (provider, query) pair concurrently. A failing call
// is logged and contributes no results. Results keep provider-then-query
// order and are de-duplicated by URL, first occurrence wins.
func (s *Searcher) FanOut(ctx context.Context, queries []string) []model.SearchResult {
	type slot struct {
		provider, query int
	}
	var (
		mu      sync.Mutex
		buckets = make(map[slot][]model.SearchResult)
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for pi, p := range s.providers {
		for qi, q := range queries {
			g.Go(func() error {
				res, err := p.Search(gctx, q)
				if err != nil {
					zap.L().Warn("search: provider call failed",
						zap.String("provider", p.Name()),
						zap.String("query", q),
						zap.Error(err),
					)
					return nil
				}
				mu.Lock()
				buckets[slot{pi, qi}] = res
				mu.Unlock()
				return nil
			})
		}
	}
	_ = g.Wait() // goroutines never return errors

	var all []model.SearchResult
	for pi := range s.providers {
		for qi := range queries {
			all = append(all, buckets[slot{pi, qi}]...)
		}
	}
	return Dedupe(all)
}

// Dedupe drops results whose URL was already seen. URLs compare
// case-insensitively, ignoring any fragment and trailing slash. Results
// with no URL are kept so the scorer can reject them.
func Dedupe(results []model.SearchResult) []model.SearchResult {
	seen := make(map[string]bool, len(results))
	out := make([]model.SearchResult, 0, len(results))
	for _, r := range results {
		key := urlKey(r.URL)
		if key != "" {
			if seen[key] {
				continue
			}
			seen[key] = true
		}
		out = append(out, r)
	}
	return out
}

func urlKey(u string) string {
	u = strings.TrimSpace(u)
	if i := strings.IndexByte(u, '#'); i >= 0 {
		u = u[:i]
	}
	return strings.TrimSuffix(strings.ToLower(u), "/")
}
