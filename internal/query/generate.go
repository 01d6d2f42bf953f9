// Package query builds high-precision web search queries for a company.
package query

import (
	"fmt"
	"strings"
)

// Config lists the press-release wires used for site: restriction and
// the verbs that anchor relationship queries.
type Config struct {
	PressWires []string `yaml:"press_wires" mapstructure:"press_wires"`
	Verbs      []string `yaml:"verbs" mapstructure:"verbs"`
}

// DefaultConfig returns the built-in wires and verbs.
func DefaultConfig() Config {
	return Config{
		PressWires: []string{"businesswire.com", "prnewswire.com", "globenewswire.com"},
		Verbs:      []string{"announces", "selects", "partners", "deploys", "implements"},
	}
}

// Generator produces ordered search queries. It holds no mutable state.
type Generator struct {
	cfg Config
}

// NewGenerator creates a Generator; empty lists fall back to the defaults.
func NewGenerator(cfg Config) *Generator {
	def := DefaultConfig()
	if len(cfg.PressWires) == 0 {
		cfg.PressWires = def.PressWires
	}
	if len(cfg.Verbs) == 0 {
		cfg.Verbs = def.Verbs
	}
	return &Generator{cfg: cfg}
}

func quote(s string) string {
	s = strings.TrimSpace(strings.ReplaceAll(s, `"`, ""))
	return `"` + s + `"`
}

// siteClause returns `site:a OR site:b ...` for the configured wires.
func (g *Generator) siteClause() string {
	parts := make([]string, len(g.cfg.PressWires))
	for i, w := range g.cfg.PressWires {
		parts[i] = "site:" + w
	}
	return strings.Join(parts, " OR ")
}

// Generate returns the queries for a subject and an optional comparison
// entity. With a competitor the queries look for the two named together
// in a verb-anchored statement; without one they look for the subject's
// own announcements.
func (g *Generator) Generate(subject, competitor string) []string {
	subject = strings.TrimSpace(subject)
	competitor = strings.TrimSpace(competitor)
	if subject == "" {
		return nil
	}

	var out []string
	s := quote(subject)
	if competitor != "" {
		c := quote(competitor)
		for _, v := range g.cfg.Verbs {
			out = append(out, fmt.Sprintf("%s %s %s", c, v, s))
		}
		out = append(out, fmt.Sprintf("%s %s %s", s, c, g.siteClause()))
		out = append(out, fmt.Sprintf("%s %s customer case study", s, c))
	} else {
		for _, v := range g.cfg.Verbs {
			out = append(out, fmt.Sprintf("%s %s", s, v))
		}
		out = append(out, fmt.Sprintf("%s %s", s, g.siteClause()))
	}
	return dedupe(out)
}

// Leadership returns the queries that surface executive appointments,
// promotions and departures for the subject.
func (g *Generator) Leadership(subject string) []string {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return nil
	}
	s := quote(subject)
	return dedupe([]string{
		fmt.Sprintf("%s appoints CEO OR CFO OR CTO OR COO", s),
		fmt.Sprintf("%s names president OR chief officer", s),
		fmt.Sprintf("%s promotes executive", s),
		fmt.Sprintf("%s executive resigns OR departs OR steps down", s),
		fmt.Sprintf("%s leadership appointment %s", s, g.siteClause()),
	})
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, q := range in {
		k := strings.ToLower(q)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, q)
	}
	return out
}
