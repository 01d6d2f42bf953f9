package credibility

import (
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/sells-group/intel-cli/internal/model"
)

const (
	baseScore        = 50.0
	vendorWeight     = 20.0
	unverifiedMargin = 15
)

// Options tunes the scorer.
type Options struct {
	MinConfidence int  `yaml:"min_confidence" mapstructure:"min_confidence"`
	MaxResults    int  `yaml:"max_results" mapstructure:"max_results"`
	Debug         bool `yaml:"debug" mapstructure:"debug"`
}

// DefaultOptions returns MinConfidence 60 and MaxResults 10.
func DefaultOptions() Options {
	return Options{MinConfidence: 60, MaxResults: 10}
}

// Subject names the company a batch of results is about, and optionally
// the entity it is being compared with.
type Subject struct {
	Company    string
	Competitor string
}

// Scorer assigns confidence scores to search results. It is stateless
// after construction and safe for concurrent use.
type Scorer struct {
	opts         Options
	lex          Lexicon
	urlRules     []Rule[urlSignals]
	contentRules []Rule[contentSignals]
}

// New creates a Scorer. A non-positive MaxResults falls back to the default.
func New(opts Options, lex Lexicon) *Scorer {
	if opts.MaxResults <= 0 {
		opts.MaxResults = DefaultOptions().MaxResults
	}
	return &Scorer{
		opts:         opts,
		lex:          lex.normalized(),
		urlRules:     urlRules(),
		contentRules: contentRules(),
	}
}

// Options returns the scorer's effective options.
func (s *Scorer) Options() Options {
	return s.opts
}

// ScoreAll scores every result and returns them in input order, rejected
// ones included. The input slice is not modified.
func (s *Scorer) ScoreAll(results []model.SearchResult, subj Subject) []model.ScoredResult {
	hosts := make([]string, len(results))
	for i, r := range results {
		hosts[i] = s.sourceHost(r)
	}

	out := make([]model.ScoredResult, len(results))
	for i, r := range results {
		out[i] = s.score(i, results, hosts, subj)
		if s.opts.Debug {
			zap.L().Debug("credibility: scored result",
				zap.String("url", r.URL),
				zap.Int("confidence", out[i].Confidence),
				zap.Bool("rejected", out[i].Rejected),
				zap.String("reason", out[i].RejectionReason),
				zap.Int("url_raw", out[i].Breakdown.URLRaw),
				zap.Int("content", out[i].Breakdown.Content),
				zap.Int("cross_ref", out[i].Breakdown.CrossRef),
				zap.Strings("rules", out[i].Breakdown.Rules),
			)
		}
	}
	return out
}

// Filter scores results and returns the accepted ones, highest confidence
// first, truncated to MaxResults.
func (s *Scorer) Filter(results []model.SearchResult, subj Subject) []model.ScoredResult {
	scored := s.ScoreAll(results, subj)

	accepted := make([]model.ScoredResult, 0, len(scored))
	for _, r := range scored {
		if !r.Rejected {
			accepted = append(accepted, r)
		}
	}
	sort.SliceStable(accepted, func(i, j int) bool {
		return accepted[i].Confidence > accepted[j].Confidence
	})
	if len(accepted) > s.opts.MaxResults {
		accepted = accepted[:s.opts.MaxResults]
	}

	if s.opts.Debug {
		zap.L().Debug("credibility: filtered batch",
			zap.String("company", subj.Company),
			zap.Int("input", len(results)),
			zap.Int("accepted", len(accepted)),
		)
	}
	return accepted
}

func (s *Scorer) score(i int, results []model.SearchResult, hosts []string, subj Subject) model.ScoredResult {
	r := results[i]

	vendor := 0.0
	if r.VendorScore != nil {
		vendor = math.Max(0, math.Min(1, *r.VendorScore)) * vendorWeight
	}

	urlRaw, urlFired, veto := s.urlScore(r, subj.Company)
	content, contentFired := s.contentScore(r.Content, subj)
	cross := crossRefScore(i, results, hosts)

	urlCapped := clamp(urlRaw, -urlCap, urlCap)
	contentCapped := clamp(content, -contentCap, contentCap)
	confidence := int(math.Round(baseScore + vendor + float64(urlCapped) + float64(contentCapped) + float64(cross)))

	out := model.ScoredResult{
		SearchResult: r,
		Confidence:   confidence,
		Breakdown: model.ScoreBreakdown{
			Base:     baseScore,
			Vendor:   vendor,
			URLRaw:   urlRaw,
			URL:      urlCapped,
			Content:  contentCapped,
			CrossRef: cross,
			Rules:    append(urlFired, contentFired...),
		},
	}

	switch {
	case urlRaw <= vetoCeiling:
		out.Rejected = true
		if veto == "" {
			veto = "url score below veto ceiling"
		}
		out.RejectionReason = veto
	case confidence < s.opts.MinConfidence:
		out.Rejected = true
		out.RejectionReason = "confidence below threshold"
	default:
		out.Unverified = confidence < s.opts.MinConfidence+unverifiedMargin
	}
	return out
}
