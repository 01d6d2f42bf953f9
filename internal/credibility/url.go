package credibility

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/sells-group/intel-cli/internal/model"
	"github.com/sells-group/intel-cli/internal/names"
)

const (
	urlVeto     = -50
	urlMin      = -50
	urlMax      = 50
	urlCap      = 30
	vetoCeiling = -40

	trustedDomainPoints = 25
)

var yearInPathRe = regexp.MustCompile(`(^|[/\-_.])(19|20)\d{2}([/\-_.]|$)`)

// urlSignals is everything the URL rules look at.
type urlSignals struct {
	host        string
	path        string
	segments    []string
	trusted     bool
	document    bool
	companySlug string
}

// urlRules is the URL-dimension rule table. Generic listing pages never
// reach it; they are vetoed in parseURLSignals.
func urlRules() []Rule[urlSignals] {
	return []Rule[urlSignals]{
		{Name: "url.trusted_domain", Points: trustedDomainPoints, Hits: func(s urlSignals) int { return once(s.trusted) }},
		{Name: "url.document_path", Points: 15, Hits: func(s urlSignals) int { return once(s.document) }},
		{Name: "url.year_in_path", Points: 10, Hits: func(s urlSignals) int { return once(yearInPathRe.MatchString(s.path)) }},
		{Name: "url.deep_path", Points: 10, Hits: func(s urlSignals) int { return once(len(s.segments) >= 3) }},
		{Name: "url.specific_segment", Points: 10, Hits: func(s urlSignals) int {
			for _, seg := range s.segments {
				if len(seg) > 15 {
					return 1
				}
			}
			return 0
		}},
		{Name: "url.company_in_path", Points: 15, Hits: func(s urlSignals) int {
			if s.companySlug == "" {
				return 0
			}
			if strings.Contains(s.path, s.companySlug) {
				return 1
			}
			return once(strings.Contains(s.path, strings.ReplaceAll(s.companySlug, "-", "")))
		}},
		{Name: "url.listing_path", Points: -15, Hits: func(s urlSignals) int {
			return once(strings.Contains(s.path, "/category/") ||
				strings.Contains(s.path, "/tag/") ||
				strings.Contains(s.path, "/page/"))
		}},
	}
}

// hostname returns the lowercased host without a leading "www.", or ""
// when the URL cannot be parsed.
func hostname(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

// pathSegments splits a URL path into its non-empty segments.
func pathSegments(p string) []string {
	var out []string
	for _, seg := range strings.Split(p, "/") {
		if seg != "" {
			out = append(out, seg)
		}
	}
	return out
}

// matchesHost reports whether host is one of domains or a subdomain of one.
func matchesHost(host string, domains []string) bool {
	if host == "" {
		return false
	}
	for _, d := range domains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// sourceHost returns the host a result is attributed to: the publisher's
// for aggregator links, the URL's own otherwise. An aggregator link without
// a publisher has no host.
func (s *Scorer) sourceHost(r model.SearchResult) string {
	h := hostname(r.URL)
	if !matchesHost(h, s.lex.AggregatorHosts) {
		return h
	}
	src := hostname(r.SourceURL)
	if matchesHost(src, s.lex.AggregatorHosts) {
		return ""
	}
	return src
}

// urlScore returns the raw URL score in [-50, 50], the fired rules and
// a veto reason when the URL is a generic page.
func (s *Scorer) urlScore(r model.SearchResult, company string) (int, []string, string) {
	u, err := url.Parse(strings.TrimSpace(r.URL))
	if err != nil || u.Hostname() == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return urlVeto, []string{"url.malformed"}, "malformed url"
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	if matchesHost(host, s.lex.AggregatorHosts) {
		return s.aggregatorScore(r)
	}

	p := strings.ToLower(strings.TrimRight(u.EscapedPath(), "/"))
	segs := pathSegments(p)
	if len(segs) <= 1 {
		return urlVeto, []string{"url.index_page"}, "index page"
	}
	last := segs[len(segs)-1]
	for _, g := range s.lex.GenericSuffixes {
		if last == g {
			return urlVeto, []string{"url.generic_listing"}, "generic listing page: /" + g
		}
	}

	sig := urlSignals{
		host:        host,
		path:        p,
		segments:    segs,
		trusted:     matchesHost(host, s.lex.TrustedDomains),
		companySlug: names.Slug(company),
	}
	for _, m := range s.lex.DocumentMarkers {
		if strings.Contains(p, m) {
			sig.document = true
			break
		}
	}

	score, fired := apply(s.urlRules, sig)
	return clamp(score, urlMin, urlMax), fired, ""
}

// aggregatorScore judges an aggregator redirect link by its publisher. The
// redirect path says nothing about the article, so only the trusted-domain
// rule applies and the link is never vetoed.
func (s *Scorer) aggregatorScore(r model.SearchResult) (int, []string, string) {
	fired := []string{"url.aggregator_link"}
	if matchesHost(s.sourceHost(r), s.lex.TrustedDomains) {
		return trustedDomainPoints, append(fired, "url.trusted_domain"), ""
	}
	return 0, fired, ""
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
