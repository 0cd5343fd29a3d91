package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const (
	defaultModel   = "gpt-4o-mini"
	defaultTimeout = 30 * time.Second
)

const systemPrompt = `You write concise executive summaries for a PR and marketing intelligence dashboard.
Respond with a headline on the first line, then a blank line, then one or two short paragraphs.
Stick to the signals provided; do not invent numbers.`

// OpenAI generates narratives through the OpenAI chat completion API.
type OpenAI struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

func NewOpenAI(cfg Config) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai provider requires an api key")
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &OpenAI{
		client:  openai.NewClient(cfg.APIKey),
		model:   model,
		timeout: timeout,
	}, nil
}

func (o *OpenAI) Generate(ctx context.Context, prompt Prompt) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: renderPrompt(prompt)},
		},
		Temperature: 0.4,
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("chat completion returned no choices")
	}

	headline, body := splitNarrative(resp.Choices[0].Message.Content)
	return &Result{
		Headline: headline,
		Body:     body,
		Model:    o.model,
	}, nil
}

func renderPrompt(p Prompt) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Dashboard: %s\nWindow: %s\nTone: %s\n", p.DashboardName, p.TimeRange, p.Tone)

	b.WriteString("\nOpen insights:\n")
	if len(p.Insights) == 0 {
		b.WriteString("- none\n")
	}
	for _, i := range p.Insights {
		fmt.Fprintf(&b, "- [%s] %s\n", i.Severity, i.Title)
	}

	b.WriteString("\nLatest KPIs:\n")
	if len(p.KPIs) == 0 {
		b.WriteString("- none\n")
	}
	for _, k := range p.KPIs {
		fmt.Fprintf(&b, "- %s: %.2f%s (change %+.2f)\n", k.Metric, k.Value, k.Unit, k.Delta)
	}
	return b.String()
}

// splitNarrative separates the first line as the headline. Models sometimes
// skip the blank line, so anything after the first newline is the body.
func splitNarrative(content string) (string, string) {
	content = strings.TrimSpace(content)
	headline, body, found := strings.Cut(content, "\n")
	if !found {
		return content, content
	}
	return strings.TrimSpace(headline), strings.TrimSpace(body)
}
