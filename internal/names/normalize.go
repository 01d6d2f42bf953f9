// Package names normalizes company names for matching against URLs and
// article text.
package names

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// suffixPattern matches common business entity suffixes.
var suffixPattern = regexp.MustCompile(`(?i),?\s+(inc\.?|incorporated|llc\.?|l\.l\.c\.?|ltd\.?|limited|co\.?|corp\.?|corporation|company|llp|lp|plc|pllc|gmbh|ag|s\.a\.|n\.v\.)$`)

var (
	multiSpaceRe = regexp.MustCompile(`\s{2,}`)
	nonSlugRe    = regexp.MustCompile(`[^a-z0-9]+`)
)

// punctReplacer spells out ampersands and drops apostrophes so "AT&T" and
// "Macy's" compare equal in names and in running text.
var punctReplacer = strings.NewReplacer("&", " and ", "'", "", "’", "")

// foldAccents maps "Nestlé" to "Nestle".
func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Normalize lowercases a company name, folds accents and strips a
// trailing legal suffix ("Acme Corp." -> "acme").
func Normalize(name string) string {
	name = strings.TrimSpace(foldAccents(name))
	if name == "" {
		return ""
	}
	stripped := strings.TrimSpace(suffixPattern.ReplaceAllString(name, ""))
	if stripped == "" {
		stripped = name
	}
	return strings.TrimSpace(fold(stripped))
}

// fold puts text in the form Normalize produces: lowercased, accent-folded,
// "&" spelled out, apostrophes dropped and runs of whitespace collapsed.
func fold(s string) string {
	s = punctReplacer.Replace(strings.ToLower(foldAccents(s)))
	return multiSpaceRe.ReplaceAllString(s, " ")
}

// Slug returns the hyphenated URL form of a company name
// ("Acme Widgets, Inc." -> "acme-widgets").
func Slug(name string) string {
	return strings.Trim(nonSlugRe.ReplaceAllString(Normalize(name), "-"), "-")
}

// Contains reports whether text mentions the company, ignoring case,
// accents, legal suffixes, ampersand spelling and apostrophes.
func Contains(text, company string) bool {
	return len(Mentions(text, company)) > 0
}

// Mention is the byte range of a company mention in folded text.
type Mention struct {
	Start, End int
}

// Index returns the byte offset of the first mention of company in the
// folded text, or -1. Offsets from Index, IndexAll and Mentions all refer to
// the folded text.
func Index(text, company string) int {
	idx := IndexAll(text, company)
	if len(idx) == 0 {
		return -1
	}
	return idx[0]
}

// IndexAll returns the offsets of every mention of company in text.
func IndexAll(text, company string) []int {
	ms := Mentions(text, company)
	if len(ms) == 0 {
		return nil
	}
	out := make([]int, len(ms))
	for i, m := range ms {
		out[i] = m.Start
	}
	return out
}

// Mentions returns every non-overlapping mention of company in text.
func Mentions(text, company string) []Mention {
	needle := Normalize(company)
	if text == "" || needle == "" {
		return nil
	}
	hay := fold(text)
	var out []Mention
	for start := 0; start < len(hay); {
		i := strings.Index(hay[start:], needle)
		if i < 0 {
			break
		}
		m := Mention{Start: start + i, End: start + i + len(needle)}
		out = append(out, m)
		start = m.End
	}
	return out
}
