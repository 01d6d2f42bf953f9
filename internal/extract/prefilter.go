package extract

import (
	"strings"

	"github.com/sells-group/intel-cli/internal/model"
)

// nonNewsMarkers flag URLs that are job listings rather than news.
var nonNewsMarkers = []string{"linkedin.com/jobs", "career", "job"}

// PrefilterCandidates drops job and career pages before extraction.
// Callers must apply it; Extract assumes its input is already filtered.
func PrefilterCandidates(articles []model.Article) []model.Article {
	out := make([]model.Article, 0, len(articles))
	for _, a := range articles {
		lower := strings.ToLower(a.URL)
		skip := false
		for _, m := range nonNewsMarkers {
			if strings.Contains(lower, m) {
				skip = true
				break
			}
		}
		if !skip {
			out = append(out, a)
		}
	}
	return out
}

// FromScored converts scored search results into extraction candidates.
func FromScored(results []model.ScoredResult) []model.Article {
	out := make([]model.Article, 0, len(results))
	for _, r := range results {
		out = append(out, model.Article{Title: r.Title, URL: r.URL, Content: r.Content, Published: r.Published})
	}
	return out
}
