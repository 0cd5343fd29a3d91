package llm

import (
	"context"
	"fmt"
	"strings"
)

// Stub is a deterministic local generator for dev and tests. It writes a
// plain summary from the prompt signals without any network calls.
type Stub struct{}

func NewStub() *Stub {
	return &Stub{}
}

func (s *Stub) Generate(_ context.Context, prompt Prompt) (*Result, error) {
	var body strings.Builder

	critical := 0
	for _, i := range prompt.Insights {
		if i.Severity == "critical" {
			critical++
		}
	}

	fmt.Fprintf(&body, "Over the last %s, %s tracked %d KPIs and surfaced %d open insights.",
		prompt.TimeRange, prompt.DashboardName, len(prompt.KPIs), len(prompt.Insights))
	if critical > 0 {
		fmt.Fprintf(&body, " %d of them are critical and need attention.", critical)
	}
	for _, k := range prompt.KPIs {
		fmt.Fprintf(&body, " %s is at %.2f%s (%+.2f vs previous).", k.Metric, k.Value, k.Unit, k.Delta)
	}

	headline := fmt.Sprintf("%s: %s summary", prompt.DashboardName, prompt.TimeRange)
	if critical > 0 {
		headline = fmt.Sprintf("%s: %d critical insights open", prompt.DashboardName, critical)
	}

	return &Result{
		Headline: headline,
		Body:     body.String(),
		Model:    "stub",
	}, nil
}
