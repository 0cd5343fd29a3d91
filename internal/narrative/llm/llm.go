// Package llm generates executive narrative prose from dashboard signals.
package llm

import (
	"context"
	"fmt"
	"time"
)

// InsightSummary is the slice of an insight the prompt needs.
type InsightSummary struct {
	Title    string
	Severity string
}

// KPISummary is the slice of a KPI snapshot the prompt needs.
type KPISummary struct {
	Metric string
	Value  float64
	Unit   string
	Delta  float64
}

// Prompt carries everything a provider needs to write a narrative.
type Prompt struct {
	DashboardName string
	TimeRange     string
	Tone          string
	Insights      []InsightSummary
	KPIs          []KPISummary
}

// Result is the provider's generated narrative text.
type Result struct {
	Headline string
	Body     string
	Model    string
}

// Generator writes narrative prose for a dashboard. Upstream failures are
// returned as-is; the service maps them to domain errors.
type Generator interface {
	Generate(ctx context.Context, prompt Prompt) (*Result, error)
}

// Config selects and configures a provider.
type Config struct {
	Provider string
	APIKey   string
	Model    string
	Timeout  time.Duration
}

// New builds the generator named by cfg.Provider.
func New(cfg Config) (Generator, error) {
	switch cfg.Provider {
	case "", ProviderStub:
		return NewStub(), nil
	case ProviderOpenAI:
		return NewOpenAI(cfg)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

const (
	ProviderStub   = "stub"
	ProviderOpenAI = "openai"
)
