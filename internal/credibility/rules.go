// Package credibility scores raw web search results and filters out
// generic listing pages and fabricated-looking copy before they reach a
// report.
package credibility

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Rule is one row of a scoring table. Hits reports how many times the
// rule fired for the given signals; the rule contributes Points*Hits.
type Rule[S any] struct {
	Name   string
	Points int
	Hits   func(S) int
}

// apply sums every rule against s and returns the total and the names
// of the rules that fired.
func apply[S any](rules []Rule[S], s S) (int, []string) {
	total := 0
	var fired []string
	for _, r := range rules {
		n := r.Hits(s)
		if n <= 0 {
			continue
		}
		total += r.Points * n
		fired = append(fired, r.Name)
	}
	return total, fired
}

func once(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Lexicon holds the word lists the rule tables consult.
type Lexicon struct {
	TrustedDomains  []string `yaml:"trusted_domains" mapstructure:"trusted_domains"`
	FluffPhrases    []string `yaml:"fluff_phrases" mapstructure:"fluff_phrases"`
	GenericSuffixes []string `yaml:"generic_suffixes" mapstructure:"generic_suffixes"`
	DocumentMarkers []string `yaml:"document_markers" mapstructure:"document_markers"`
	// AggregatorHosts link to articles through opaque redirect paths. Their
	// results are judged by the publisher's site instead.
	AggregatorHosts []string `yaml:"aggregator_hosts" mapstructure:"aggregator_hosts"`
}

// DefaultLexicon returns the built-in word lists.
func DefaultLexicon() Lexicon {
	return Lexicon{
		TrustedDomains: []string{
			"reuters.com", "bloomberg.com", "wsj.com", "ft.com", "cnbc.com",
			"apnews.com", "nytimes.com", "marketwatch.com", "forbes.com",
			"techcrunch.com", "businesswire.com", "prnewswire.com",
			"globenewswire.com", "sec.gov", "fiercehealthcare.com",
			"axios.com", "theverge.com", "venturebeat.com",
		},
		FluffPhrases: []string{
			"industry-leading", "industry leading", "trusted by",
			"seamless integration", "world-class", "best-in-class",
			"cutting-edge", "leading provider", "innovative solutions",
			"next-generation", "game-changing", "revolutionize",
			"unparalleled", "state-of-the-art", "transform your business",
			"end-to-end solution",
		},
		GenericSuffixes: []string{
			"customers", "case-studies", "case-study", "partners", "news",
			"clients", "resources", "blog", "press", "newsroom",
			"success-stories", "testimonials", "solutions", "industries",
			"about", "about-us", "products", "press-releases", "events",
		},
		DocumentMarkers: []string{
			".pdf", "/press-release", "/news-release", "/filing",
			"/sec-filing", "/investor", "/10-k", "/8-k", "/annual-report",
			"/edgar/",
		},
		AggregatorHosts: []string{
			"news.google.com", "news.yahoo.com", "msn.com", "flipboard.com",
		},
	}
}

// LoadLexicon reads a YAML rules file and overlays it on the defaults.
// Lists present in the file replace the built-in list of the same name.
// An empty path returns the defaults.
func LoadLexicon(path string) (Lexicon, error) {
	lex := DefaultLexicon()
	if path == "" {
		return lex, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return lex, eris.Wrapf(err, "credibility: read rules file %s", path)
	}

	var file Lexicon
	if err := yaml.Unmarshal(data, &file); err != nil {
		return lex, eris.Wrapf(err, "credibility: parse rules file %s", path)
	}

	if len(file.TrustedDomains) > 0 {
		lex.TrustedDomains = file.TrustedDomains
	}
	if len(file.FluffPhrases) > 0 {
		lex.FluffPhrases = file.FluffPhrases
	}
	if len(file.GenericSuffixes) > 0 {
		lex.GenericSuffixes = file.GenericSuffixes
	}
	if len(file.DocumentMarkers) > 0 {
		lex.DocumentMarkers = file.DocumentMarkers
	}
	if len(file.AggregatorHosts) > 0 {
		lex.AggregatorHosts = file.AggregatorHosts
	}
	return lex.normalized(), nil
}

func (l Lexicon) normalized() Lexicon {
	lower := func(in []string) []string {
		out := make([]string, 0, len(in))
		for _, s := range in {
			s = strings.ToLower(strings.TrimSpace(s))
			if s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return Lexicon{
		TrustedDomains:  lower(l.TrustedDomains),
		FluffPhrases:    lower(l.FluffPhrases),
		GenericSuffixes: lower(l.GenericSuffixes),
		DocumentMarkers: lower(l.DocumentMarkers),
		AggregatorHosts: lower(l.AggregatorHosts),
	}
}
