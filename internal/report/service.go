// Package report assembles corporate-intelligence reports: it searches,
// filters evidence by credibility, extracts leadership changes and asks an
// LLM for a grounded summary.
package report

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/intel-cli/internal/credibility"
	"github.com/sells-group/intel-cli/internal/extract"
	"github.com/sells-group/intel-cli/internal/model"
	"github.com/sells-group/intel-cli/internal/query"
	"github.com/sells-group/intel-cli/internal/store"
	"github.com/sells-group/intel-cli/pkg/jina"
)

// DefaultTTL is how long a report is served from cache.
const DefaultTTL = 24 * time.Hour

// shortArticle is the body length below which a leadership hit is re-read
// in full when a reader is configured.
const shortArticle = 300

// ErrInvalidRequest is returned for requests without a company name.
var ErrInvalidRequest = eris.New("report: company is required")

// Searcher runs queries against the configured search vendors.
type Searcher interface {
	FanOut(ctx context.Context, queries []string) []model.SearchResult
}

// Deps bundles the collaborators of a Service. Summarizer and Reader are
// optional.
type Deps struct {
	Store      store.Store
	Searcher   Searcher
	Queries    *query.Generator
	Scorer     *credibility.Scorer
	Extractor  *extract.Extractor
	Summarizer Summarizer
	Reader     jina.Client
	TTL        time.Duration
}

// Service builds and caches reports.
type Service struct {
	deps  Deps
	now   func() time.Time
	newID func() string
}

// NewService creates a report Service.
func NewService(deps Deps) *Service {
	if deps.TTL <= 0 {
		deps.TTL = DefaultTTL
	}
	return &Service{
		deps:  deps,
		now:   func() time.Time { return time.Now().UTC() },
		newID: func() string { return uuid.New().String() },
	}
}

// Get returns the cached report for a company or store.ErrNotFound.
func (s *Service) Get(ctx context.Context, company string) (*model.Report, error) {
	key := model.ReportKey(company)
	if key == "" {
		return nil, ErrInvalidRequest
	}
	r, err := s.deps.Store.GetReport(ctx, key)
	if err != nil {
		return nil, err
	}
	r.FromCache = true
	return r, nil
}

// Analyze returns a fresh cached report when one exists for the same
// company and competitor, otherwise builds, stores and returns a new one.
func (s *Service) Analyze(ctx context.Context, req model.AnalyzeRequest) (*model.Report, error) {
	company := strings.TrimSpace(req.Company)
	competitor := strings.TrimSpace(req.Competitor)
	key := model.ReportKey(company)
	if key == "" {
		return nil, ErrInvalidRequest
	}
	log := zap.L().With(zap.String("company", company), zap.String("user", req.UserID))

	if !req.Refresh {
		cached, err := s.deps.Store.GetReport(ctx, key)
		switch {
		case err == nil && cached.Fresh(s.now()) && strings.EqualFold(cached.Competitor, competitor):
			log.Info("report: serving cached report", zap.String("report_id", cached.ID))
			cached.FromCache = true
			return cached, nil
		case err != nil && !errors.Is(err, store.ErrNotFound):
			log.Warn("report: cache lookup failed", zap.Error(err))
		}
	}

	evidenceQueries := s.deps.Queries.Generate(company, competitor)
	leadershipQueries := s.deps.Queries.Leadership(company)

	var evidenceHits, leadershipHits []model.SearchResult
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		evidenceHits = s.deps.Searcher.FanOut(gctx, evidenceQueries)
		return nil
	})
	g.Go(func() error {
		leadershipHits = s.deps.Searcher.FanOut(gctx, leadershipQueries)
		return nil
	})
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "report: search")
	}

	subj := credibility.Subject{Company: company, Competitor: competitor}
	evidence := s.deps.Scorer.Filter(evidenceHits, subj)

	// Leadership hits pass the same credibility bar as evidence; the
	// extractor only sees accepted articles.
	leads := s.deps.Scorer.Filter(leadershipHits, credibility.Subject{Company: company})
	articles := extract.PrefilterCandidates(extract.FromScored(leads))
	articles = s.fillShort(ctx, articles)
	events := s.deps.Extractor.Extract(articles, company)

	now := s.now()
	r := &model.Report{
		ID:                s.newID(),
		Key:               key,
		Company:           company,
		Competitor:        competitor,
		Sentiment:         model.SentimentNeutral,
		Evidence:          evidence,
		LeadershipChanges: events,
		Queries:           append(evidenceQueries, leadershipQueries...),
		RequestedBy:       req.UserID,
		GeneratedAt:       now,
		ExpiresAt:         now.Add(s.deps.TTL),
	}

	if s.deps.Summarizer != nil && len(evidence) > 0 {
		sum, err := s.deps.Summarizer.Summarize(ctx, company, competitor, evidence)
		if err != nil {
			log.Warn("report: summary failed, continuing without it", zap.Error(err))
		} else {
			r.Summary = sum.Text
			r.Sentiment = sum.Sentiment
			r.QuickFacts = sum.QuickFacts
			r.Model = sum.Model
		}
	}

	if err := s.deps.Store.SaveReport(ctx, r); err != nil {
		return nil, eris.Wrap(err, "report: save")
	}

	log.Info("report: generated",
		zap.String("report_id", r.ID),
		zap.Int("search_hits", len(evidenceHits)),
		zap.Int("evidence", len(evidence)),
		zap.Int("leadership_hits", len(leadershipHits)),
		zap.Int("leadership_accepted", len(leads)),
		zap.Int("leadership_changes", len(events)),
	)
	return r, nil
}

// fillShort re-reads thin article bodies through the reader. Failures keep
// the original snippet.
func (s *Service) fillShort(ctx context.Context, articles []model.Article) []model.Article {
	if s.deps.Reader == nil {
		return articles
	}
	for i, a := range articles {
		if utf8.RuneCountInString(a.Content) >= shortArticle || a.URL == "" {
			continue
		}
		resp, err := s.deps.Reader.Read(ctx, a.URL)
		if err != nil {
			zap.L().Debug("report: read article failed", zap.String("url", a.URL), zap.Error(err))
			continue
		}
		if c := strings.TrimSpace(resp.Data.Content); c != "" {
			articles[i].Content = c
		}
	}
	return articles
}
