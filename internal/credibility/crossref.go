package credibility

import (
	"strings"
	"unicode"

	"github.com/sells-group/intel-cli/internal/model"
)

const (
	sameHostBonus    = 5
	sharedTopicBonus = 5
	crossRefCap      = 30
	minKeywordLen    = 5
	minSharedWords   = 2
)

// titleKeywords returns the distinct lowercased words longer than four
// characters in a title.
func titleKeywords(title string) []string {
	words := strings.FieldsFunc(strings.ToLower(title), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	seen := make(map[string]bool, len(words))
	var out []string
	for _, w := range words {
		if len([]rune(w)) < minKeywordLen || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	return out
}

// crossRefScore rewards results corroborated by other results in the same
// batch: same host, or at least two shared title keywords.
func crossRefScore(idx int, results []model.SearchResult, hosts []string) int {
	keywords := titleKeywords(results[idx].Title)
	score := 0
	for j, other := range results {
		if j == idx {
			continue
		}
		if hosts[idx] != "" && hosts[idx] == hosts[j] {
			score += sameHostBonus
		}
		if len(keywords) >= minSharedWords {
			hay := strings.ToLower(other.Title + " " + other.Content)
			shared := 0
			for _, k := range keywords {
				if strings.Contains(hay, k) {
					shared++
				}
			}
			if shared >= minSharedWords {
				score += sharedTopicBonus
			}
		}
		if score >= crossRefCap {
			return crossRefCap
		}
	}
	return score
}
