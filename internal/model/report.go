package model

import (
	"strings"
	"time"
)

// Sentiment is the overall tone of coverage about a company.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
	SentimentMixed    Sentiment = "mixed"
)

// AnalyzeRequest asks for a report about a company.
type AnalyzeRequest struct {
	Company    string `json:"company"`
	Competitor string `json:"competitor,omitempty"`
	Refresh    bool   `json:"refresh,omitempty"`
	UserID     string `json:"-"`
}

// Report is the assembled corporate-intelligence document.
type Report struct {
	ID                string           `json:"id"`
	Key               string           `json:"key"`
	Company           string           `json:"company"`
	Competitor        string           `json:"competitor,omitempty"`
	Summary           string           `json:"summary"`
	Sentiment         Sentiment        `json:"sentiment"`
	QuickFacts        []string         `json:"quick_facts,omitempty"`
	Evidence          []ScoredResult   `json:"evidence"`
	LeadershipChanges []ExtractedEvent `json:"leadership_changes"`
	Queries           []string         `json:"queries"`
	Model             string           `json:"model,omitempty"`
	RequestedBy       string           `json:"requested_by,omitempty"`
	FromCache         bool             `json:"from_cache"`
	GeneratedAt       time.Time        `json:"generated_at"`
	ExpiresAt         time.Time        `json:"expires_at"`
}

// ReportKey returns the cache key for a company name.
func ReportKey(company string) string {
	return strings.ToLower(strings.TrimSpace(company))
}

// Fresh reports whether the report is still inside its freshness window.
func (r *Report) Fresh(now time.Time) bool {
	return r != nil && now.Before(r.ExpiresAt)
}
