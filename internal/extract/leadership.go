// Package extract pulls structured leadership-change events out of news
// article text.
package extract

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/araddon/dateparse"
	"go.uber.org/zap"

	"github.com/sells-group/intel-cli/internal/model"
	"github.com/sells-group/intel-cli/internal/names"
)

// leadChars is how much of an article body is scanned after the title.
const leadChars = 500

const titlePattern = `Chief [A-Z][a-z]+(?: [A-Z][a-z]+)? Officer` +
	`|(?:Senior |Executive )?Vice President(?: of [A-Z][a-z]+(?: [A-Z][a-z]+)?)?` +
	`|(?:Senior )?VP(?: of [A-Z][a-z]+)?` +
	`|CEO|CFO|CTO|COO|CMO|CIO|CISO|CPO|CRO|CHRO` +
	`|President|Chairman|Chairwoman|General Counsel|Treasurer` +
	`|(?:Managing |Executive )?Director(?: of [A-Z][a-z]+)?` +
	`|Head of [A-Z][a-z]+|General Manager`

var (
	roleRe     = regexp.MustCompile(`\b(?:` + titlePattern + `)\b`)
	previousRe = regexp.MustCompile(`\b(?i:formerly|previously|most recently|who served as|former)\s+(?:(?i:served as|the|its|as)\s+)*(` + titlePattern + `)\b`)
	tokenRe    = regexp.MustCompile(`[A-Za-z][A-Za-z'’\-]*`)
	sentenceRe = regexp.MustCompile(`[.!?]+\s+|\n+`)
	dateRe     = regexp.MustCompile(`(?i)\b(?:` +
		`(?:january|february|march|april|may|june|july|august|september|october|november|december|jan|feb|mar|apr|jun|jul|aug|sep|sept|oct|nov|dec)\.?\s+\d{1,2},?\s+(?:19|20)\d{2}` +
		`|(?:19|20)\d{2}-\d{2}-\d{2}` +
		`)\b`)
)

// verbFamily maps a change type to the verbs that signal it.
type verbFamily struct {
	change model.ChangeType
	re     *regexp.Regexp
}

var verbFamilies = []verbFamily{
	{model.ChangeExpandedRole, regexp.MustCompile(`(?i)\b(?:expands?|expanded|expanding) (?:(?:his|her|their|the) )?roles?\b|\badds? (?:the )?(?:role|title) of\b|\badditional roles?\b|\bexpanded roles?\b`)},
	{model.ChangeDeparted, regexp.MustCompile(`(?i)\b(?:depart(?:s|ed|ing|ure)?|resign(?:s|ed|ing|ation)?|steps? down|stepped down|stepping down|retire(?:s|d|ment)?|leaves|exits|exited)\b`)},
	{model.ChangePromoted, regexp.MustCompile(`(?i)\b(?:promot(?:es|ed|ion)|elevat(?:es|ed))\b`)},
	{model.ChangeAppointed, regexp.MustCompile(`(?i)\b(?:appoint(?:s|ed|ment)?|names|named|hires?|hired|joins|joined|welcomes?|taps|tapped)\b`)},
}

// stopwords are capitalised words that never start or continue a name.
var stopwords = map[string]bool{}

func init() {
	for _, w := range strings.Fields(`the a an as at to of and for its our their new former interim acting
		inc corp corporation company co llc ltd plc group holdings technologies
		announces announced appoints appointed names named promotes promoted hires hired joins joined
		welcomes welcome taps tapped elevates elevated departs departed resigns resigned retires retired
		leaves exits exited steps stepped expands expanded adds
		board directors officer chief senior executive vice president chairman chair head
		today yesterday press release news update effective immediately breaking exclusive report
		monday tuesday wednesday thursday friday saturday sunday
		january february march april may june july august september october november december
		mr ms mrs dr sir`) {
		stopwords[w] = true
	}
}

// Extractor turns article candidates into leadership-change events.
type Extractor struct {
	debug bool
}

// New creates an Extractor. With debug set, skipped articles are logged.
func New(debug bool) *Extractor {
	return &Extractor{debug: debug}
}

// Extract scans each article's title and lead paragraph for a person,
// an executive title and a change verb. Articles without a confident
// match are skipped; the result is empty, never nil-with-error.
func (e *Extractor) Extract(articles []model.Article, subject string) []model.ExtractedEvent {
	out := []model.ExtractedEvent{}
	seen := make(map[string]bool)

	for _, a := range articles {
		if strings.TrimSpace(a.URL) == "" {
			continue
		}
		text := leadText(a)
		date := findDate(text)
		if date == "" && a.Published != nil {
			date = a.Published.UTC().Format("2006-01-02")
		}

		found := 0
		for _, sentence := range splitSentences(text) {
			ev, ok := matchSentence(sentence, subject)
			if !ok {
				continue
			}
			key := strings.ToLower(ev.PersonName + "|" + ev.Role)
			if seen[key] {
				continue
			}
			seen[key] = true
			ev.Date = date
			ev.SourceURL = a.URL
			out = append(out, ev)
			found++
		}

		if found == 0 && e.debug {
			zap.L().Debug("extract: no leadership change found", zap.String("url", a.URL))
		}
	}
	return out
}

func leadText(a model.Article) string {
	body := strings.TrimSpace(a.Content)
	if utf8.RuneCountInString(body) > leadChars {
		body = string([]rune(body)[:leadChars])
	}
	title := strings.TrimSpace(a.Title)
	if body == "" {
		return title
	}
	return title + ".\n" + body
}

func splitSentences(text string) []string {
	var out []string
	for _, s := range sentenceRe.Split(text, -1) {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// findDate returns the first date phrase in text as YYYY-MM-DD, or "".
func findDate(text string) string {
	m := dateRe.FindString(text)
	if m == "" {
		return ""
	}
	t, err := dateparse.ParseAny(strings.ReplaceAll(m, ".", ""))
	if err != nil {
		return ""
	}
	return t.Format("2006-01-02")
}

type span struct{ start, end int }

func (s span) overlaps(o span) bool { return s.start < o.end && o.start < s.end }

func (s span) distance(o span) int {
	switch {
	case s.overlaps(o):
		return 0
	case s.end <= o.start:
		return o.start - s.end
	default:
		return s.start - o.end
	}
}

// matchSentence extracts at most one event from a sentence.
func matchSentence(sentence, subject string) (model.ExtractedEvent, bool) {
	change, verb, ok := classify(sentence)
	if !ok {
		return model.ExtractedEvent{}, false
	}

	roleIdx := roleRe.FindAllStringIndex(sentence, -1)
	if len(roleIdx) == 0 {
		return model.ExtractedEvent{}, false
	}
	roles := make([]span, len(roleIdx))
	for i, r := range roleIdx {
		roles[i] = span{r[0], r[1]}
	}

	people := personCandidates(sentence, subject, roles)
	if len(people) == 0 {
		return model.ExtractedEvent{}, false
	}

	// Prefer the person closest to the change verb, then the role closest
	// to that person.
	sort.SliceStable(people, func(i, j int) bool {
		return people[i].distance(verb) < people[j].distance(verb)
	})
	person := people[0]

	prev := span{-1, -1}
	if m := previousRe.FindStringSubmatchIndex(sentence); m != nil {
		prev = span{m[2], m[3]}
	}

	best := -1
	for i, r := range roles {
		if r == prev {
			continue
		}
		if best < 0 || r.distance(person) < roles[best].distance(person) {
			best = i
		}
	}
	if best < 0 {
		return model.ExtractedEvent{}, false
	}

	ev := model.ExtractedEvent{
		PersonName: sentence[person.start:person.end],
		Role:       sentence[roles[best].start:roles[best].end],
		ChangeType: change,
	}
	if prev.start >= 0 {
		if p := sentence[prev.start:prev.end]; p != ev.Role {
			ev.PreviousRole = p
		}
	}
	return ev, true
}

// classify returns the change type of the earliest change verb.
func classify(sentence string) (model.ChangeType, span, bool) {
	var (
		change model.ChangeType
		at     = span{-1, -1}
	)
	for _, f := range verbFamilies {
		loc := f.re.FindStringIndex(sentence)
		if loc == nil {
			continue
		}
		if at.start < 0 || loc[0] < at.start {
			change, at = f.change, span{loc[0], loc[1]}
		}
	}
	return change, at, at.start >= 0
}

type token struct {
	span
	text string
}

// personCandidates returns runs of two or three capitalised words that
// are not part of a title, the subject's name or the stopword list.
func personCandidates(sentence, subject string, roles []span) []span {
	companyWords := make(map[string]bool)
	for _, w := range strings.Fields(names.Normalize(subject)) {
		companyWords[w] = true
	}

	nameCapable := func(t token) bool {
		if stopwords[strings.ToLower(t.text)] || companyWords[strings.ToLower(t.text)] {
			return false
		}
		for _, r := range roles {
			if t.overlaps(r) {
				return false
			}
		}
		first, _ := utf8.DecodeRuneInString(t.text)
		if !unicode.IsUpper(first) {
			return false
		}
		if len(t.text) == 1 {
			return true // middle initial
		}
		return strings.IndexFunc(t.text, unicode.IsLower) >= 0
	}

	var toks []token
	for _, m := range tokenRe.FindAllStringIndex(sentence, -1) {
		toks = append(toks, token{span{m[0], m[1]}, sentence[m[0]:m[1]]})
	}

	var out []span
	var run []token
	flush := func() {
		if n := len(run); n >= 2 && n <= 3 && len(run[0].text) > 1 && len(run[n-1].text) > 1 {
			out = append(out, span{run[0].start, run[n-1].end})
		}
		run = run[:0]
	}
	for i, t := range toks {
		if !nameCapable(t) {
			flush()
			continue
		}
		if len(run) > 0 && !adjacent(sentence, toks[i-1], t) {
			flush()
		}
		run = append(run, t)
	}
	flush()
	return out
}

// adjacent reports whether only whitespace (or an initial's period)
// separates two tokens.
func adjacent(sentence string, a, b token) bool {
	gap := sentence[a.end:b.start]
	if len(a.text) == 1 {
		gap = strings.TrimPrefix(gap, ".")
	}
	return gap != "" && strings.TrimSpace(gap) == ""
}
