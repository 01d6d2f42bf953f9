package model

import "time"

// ChangeType classifies a leadership change.
type ChangeType string

const (
	ChangeAppointed    ChangeType = "appointed"
	ChangePromoted     ChangeType = "promoted"
	ChangeDeparted     ChangeType = "departed"
	ChangeExpandedRole ChangeType = "expanded_role"
)

// ExtractedEvent is a leadership change pulled out of an article.
type ExtractedEvent struct {
	PersonName   string     `json:"person_name"`
	Role         string     `json:"role"`
	ChangeType   ChangeType `json:"change_type"`
	Date         string     `json:"date,omitempty"` // YYYY-MM-DD
	PreviousRole string     `json:"previous_role,omitempty"`
	SourceURL    string     `json:"source_url"`
}

// Article is a news candidate fed to the event extractor.
type Article struct {
	Title     string     `json:"title"`
	URL       string     `json:"url"`
	Content   string     `json:"content"`
	Published *time.Time `json:"published,omitempty"`
}
