package report

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/intel-cli/internal/model"
	"github.com/sells-group/intel-cli/pkg/anthropic"
	"github.com/sells-group/intel-cli/pkg/perplexity"
)

// maxEvidenceChars bounds how much of each result body goes into a prompt.
const maxEvidenceChars = 800

// Summary is the LLM's reading of the accepted evidence.
type Summary struct {
	Text       string          `json:"summary"`
	Sentiment  model.Sentiment `json:"sentiment"`
	QuickFacts []string        `json:"quick_facts"`
	Model      string          `json:"-"`
}

// Summarizer turns accepted evidence into a short grounded summary.
type Summarizer interface {
	Summarize(ctx context.Context, company, competitor string, evidence []model.ScoredResult) (*Summary, error)
}

const systemPrompt = `You are a corporate intelligence analyst. Use only the numbered evidence you are given. ` +
	`Do not invent facts, figures, names or dates. If the evidence is thin, say so. ` +
	`Reply with a single JSON object: {"summary": string, "sentiment": "positive"|"neutral"|"negative"|"mixed", "quick_facts": [string]}. ` +
	`Each quick fact must cite its evidence number like [2].`

func buildPrompt(company, competitor string, evidence []model.ScoredResult) string {
	var b strings.Builder
	if competitor != "" {
		fmt.Fprintf(&b, "Company: %s\nCompared with: %s\n\n", company, competitor)
	} else {
		fmt.Fprintf(&b, "Company: %s\n\n", company)
	}
	b.WriteString("Evidence:\n")
	for i, e := range evidence {
		body := e.Content
		if r := []rune(body); len(r) > maxEvidenceChars {
			body = string(r[:maxEvidenceChars]) + "..."
		}
		src := e.URL
		if e.Published != nil {
			src += ", published " + e.Published.UTC().Format("2006-01-02")
		}
		fmt.Fprintf(&b, "[%d] %s (%s, confidence %d)\n%s\n\n", i+1, e.Title, src, e.Confidence, body)
	}
	return b.String()
}

// parseSummary pulls the JSON object out of a model reply, tolerating
// code fences and surrounding prose.
func parseSummary(text string) (*Summary, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, eris.New("report: no JSON object in summary reply")
	}
	var s Summary
	if err := json.Unmarshal([]byte(text[start:end+1]), &s); err != nil {
		return nil, eris.Wrap(err, "report: parse summary")
	}
	switch s.Sentiment {
	case model.SentimentPositive, model.SentimentNeutral, model.SentimentNegative, model.SentimentMixed:
	default:
		s.Sentiment = model.SentimentNeutral
	}
	s.Text = strings.TrimSpace(s.Text)
	return &s, nil
}

// AnthropicSummarizer summarizes with the Anthropic Messages API.
type AnthropicSummarizer struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// NewAnthropicSummarizer creates a summarizer for the given model.
func NewAnthropicSummarizer(client anthropic.Client, model string, maxTokens int64) *AnthropicSummarizer {
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return &AnthropicSummarizer{client: client, model: model, maxTokens: maxTokens}
}

// Summarize implements Summarizer.
func (a *AnthropicSummarizer) Summarize(ctx context.Context, company, competitor string, evidence []model.ScoredResult) (*Summary, error) {
	temp := 0.0
	resp, err := a.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       a.model,
		MaxTokens:   a.maxTokens,
		System:      systemPrompt,
		Temperature: &temp,
		Messages: []anthropic.Message{
			{Role: "user", Content: buildPrompt(company, competitor, evidence)},
		},
	})
	if err != nil {
		return nil, eris.Wrap(err, "report: anthropic summary")
	}
	resp.Usage.LogCost(a.model, "summary")

	s, err := parseSummary(resp.Text())
	if err != nil {
		return nil, err
	}
	s.Model = a.model
	return s, nil
}

// PerplexitySummarizer summarizes with Perplexity chat completions.
type PerplexitySummarizer struct {
	client perplexity.Client
	model  string
}

// NewPerplexitySummarizer creates a summarizer; an empty model uses the
// client's default.
func NewPerplexitySummarizer(client perplexity.Client, model string) *PerplexitySummarizer {
	return &PerplexitySummarizer{client: client, model: model}
}

// Summarize implements Summarizer.
func (p *PerplexitySummarizer) Summarize(ctx context.Context, company, competitor string, evidence []model.ScoredResult) (*Summary, error) {
	temp := 0.0
	resp, err := p.client.ChatCompletion(ctx, perplexity.ChatCompletionRequest{
		Model:       p.model,
		Temperature: &temp,
		Messages: []perplexity.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildPrompt(company, competitor, evidence)},
		},
	})
	if err != nil {
		return nil, eris.Wrap(err, "report: perplexity summary")
	}

	s, err := parseSummary(resp.Text())
	if err != nil {
		return nil, err
	}
	s.Model = resp.Model
	return s, nil
}
