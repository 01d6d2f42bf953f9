package credibility

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/sells-group/intel-cli/internal/names"
)

const (
	contentMin       = -50
	contentMax       = 50
	contentCap       = 30
	minContentLength = 50
	shortContent     = -30
	nearWindow       = 200
)

var (
	specificDateRe = regexp.MustCompile(`(?i)\b(?:` +
		`(?:jan|feb|mar|apr|may|jun|jul|aug|sep|sept|oct|nov|dec)[a-z]*\.?\s+\d{1,2}(?:st|nd|rd|th)?,?\s+(?:19|20)\d{2}` +
		`|\d{1,2}\s+(?:jan|feb|mar|apr|may|jun|jul|aug|sep|sept|oct|nov|dec)[a-z]*\.?,?\s+(?:19|20)\d{2}` +
		`|(?:19|20)\d{2}-\d{2}-\d{2}` +
		`|\d{1,2}/\d{1,2}/(?:19|20)\d{2}` +
		`)\b`)
	bareYearRe    = regexp.MustCompile(`\b(?:19|20)\d{2}\b`)
	dollarRe      = regexp.MustCompile(`(?i)(?:\$|usd\s?)\s?\d[\d,]*(?:\.\d+)?(?:\s?(?:million|billion|trillion|thousand|[mbk]n?)\b)?`)
	quoteRe       = regexp.MustCompile(`["“]([^"”]{15,})["”]`)
	attributionRe = regexp.MustCompile(`\b(?:CEO|CFO|CTO|COO|CMO|CIO|President|Chairman|Chairwoman|Founder|Co-Founder|Chief [A-Z][a-z]+ Officer|Vice President|VP|Director|Managing Director|General Manager|Head of [A-Z][a-z]+)\b[^.!?]{0,120}?\b(?:said|says|stated|noted|added|explained|commented|told|announced|remarked)\b`)
	percentRe     = regexp.MustCompile(`(?i)\b\d+(?:\.\d+)?\s?(?:%|percent\b)`)
	countRe       = regexp.MustCompile(`(?i)\b\d[\d,.]*\+?\s*(?:k|m|million|thousand)?\s+(?:customers|employees|users|clients|subscribers|members|staff)\b`)
)

// contentSignals is everything the content rules look at.
type contentSignals struct {
	fluffHits    int
	specificDate bool
	bareYear     bool
	dollar       bool
	quote        bool
	attribution  bool
	percent      bool
	count        bool
	nearCo       bool
	farCo        bool
}

func (c contentSignals) positives() int {
	n := 0
	for _, b := range []bool{c.specificDate, c.bareYear, c.dollar, c.quote, c.attribution, c.percent, c.count, c.nearCo, c.farCo} {
		if b {
			n++
		}
	}
	return n
}

// contentRules is the content-dimension rule table.
func contentRules() []Rule[contentSignals] {
	return []Rule[contentSignals]{
		{Name: "content.marketing_fluff", Points: -10, Hits: func(c contentSignals) int { return c.fluffHits }},
		{Name: "content.specific_date", Points: 20, Hits: func(c contentSignals) int { return once(c.specificDate) }},
		{Name: "content.bare_year", Points: 5, Hits: func(c contentSignals) int { return once(!c.specificDate && c.bareYear) }},
		{Name: "content.dollar_amount", Points: 15, Hits: func(c contentSignals) int { return once(c.dollar) }},
		{Name: "content.direct_quote", Points: 20, Hits: func(c contentSignals) int { return once(c.quote) }},
		{Name: "content.executive_attribution", Points: 15, Hits: func(c contentSignals) int { return once(c.attribution) }},
		{Name: "content.percentage", Points: 10, Hits: func(c contentSignals) int { return once(c.percent) }},
		{Name: "content.headcount", Points: 10, Hits: func(c contentSignals) int { return once(c.count) }},
		{Name: "content.co_occurrence_near", Points: 25, Hits: func(c contentSignals) int { return once(c.nearCo) }},
		{Name: "content.co_occurrence_far", Points: 10, Hits: func(c contentSignals) int { return once(!c.nearCo && c.farCo) }},
		{Name: "content.fluff_only", Points: -20, Hits: func(c contentSignals) int { return once(c.positives() == 0 && c.fluffHits >= 2) }},
	}
}

// contentScore returns the content score in [-50, 50] and the fired rules.
func (s *Scorer) contentScore(content string, subj Subject) (int, []string) {
	content = strings.TrimSpace(content)
	if utf8.RuneCountInString(content) < minContentLength {
		return shortContent, []string{"content.too_short"}
	}

	lower := strings.ToLower(content)
	sig := contentSignals{
		specificDate: specificDateRe.MatchString(content),
		bareYear:     bareYearRe.MatchString(content),
		dollar:       dollarRe.MatchString(content),
		quote:        quoteRe.MatchString(content),
		attribution:  attributionRe.MatchString(content),
		percent:      percentRe.MatchString(content),
		count:        countRe.MatchString(content),
	}
	for _, phrase := range s.lex.FluffPhrases {
		sig.fluffHits += strings.Count(lower, phrase)
	}
	if subj.Company != "" && subj.Competitor != "" {
		sig.nearCo, sig.farCo = coOccurrence(content, subj.Company, subj.Competitor)
	}

	score, fired := apply(s.contentRules, sig)
	return clamp(score, contentMin, contentMax), fired
}

// coOccurrence reports whether both names appear within nearWindow
// characters of each other (near) or anywhere in the text (far). The
// distance is the gap between the end of one mention and the start of
// the other.
func coOccurrence(text, a, b string) (near, far bool) {
	as := names.Mentions(text, a)
	bs := names.Mentions(text, b)
	if len(as) == 0 || len(bs) == 0 {
		return false, false
	}
	for _, x := range as {
		for _, y := range bs {
			gap := y.Start - x.End
			if x.Start > y.Start {
				gap = x.Start - y.End
			}
			if gap <= nearWindow {
				return true, true
			}
		}
	}
	return false, true
}
