package model

import "time"

// SearchResult is a single web search hit returned by a search provider.
type SearchResult struct {
	Title       string   `json:"title"`
	URL         string   `json:"url"`
	Content     string   `json:"content"`
	VendorScore *float64 `json:"vendor_score,omitempty"` // 0..1, provider relevance
	Provider    string   `json:"provider,omitempty"`

	// SourceURL is the publisher's site when URL points at a news
	// aggregator rather than the article itself.
	SourceURL string     `json:"source_url,omitempty"`
	Published *time.Time `json:"published,omitempty"`
}

// ScoreBreakdown records the sub-scores that make up a confidence value.
type ScoreBreakdown struct {
	Base     float64  `json:"base"`
	Vendor   float64  `json:"vendor"`
	URLRaw   int      `json:"url_raw"`
	URL      int      `json:"url"`
	Content  int      `json:"content"`
	CrossRef int      `json:"cross_ref"`
	Rules    []string `json:"rules,omitempty"`
}

// ScoredResult is a SearchResult annotated with a credibility score.
type ScoredResult struct {
	SearchResult
	Confidence      int            `json:"confidence"`
	Rejected        bool           `json:"rejected"`
	RejectionReason string         `json:"rejection_reason,omitempty"`
	Unverified      bool           `json:"unverified,omitempty"`
	Breakdown       ScoreBreakdown `json:"breakdown"`
}
