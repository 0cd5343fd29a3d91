package llm

import (
	"context"
	"strings"
	"testing"
)

func TestStubQuietDashboard(t *testing.T) {
	result, err := NewStub().Generate(context.Background(), Prompt{
		DashboardName: "Brand Coverage",
		TimeRange:     "30d",
		Tone:          "executive",
	})
	if err != nil {
		t.Fatalf("stub should never fail: %v", err)
	}

	if result.Model != "stub" {
		t.Errorf("unexpected model %q", result.Model)
	}
	if result.Headline != "Brand Coverage: 30d summary" {
		t.Errorf("unexpected headline %q", result.Headline)
	}
	if !strings.Contains(result.Body, "tracked 0 KPIs") {
		t.Errorf("unexpected body %q", result.Body)
	}
}

func TestStubCriticalInsightsDriveHeadline(t *testing.T) {
	result, err := NewStub().Generate(context.Background(), Prompt{
		DashboardName: "Crisis Watch",
		TimeRange:     "7d",
		Insights: []InsightSummary{
			{Title: "Negative coverage trending", Severity: "critical"},
			{Title: "Competitor launch", Severity: "info"},
			{Title: "Outage chatter", Severity: "critical"},
		},
	})
	if err != nil {
		t.Fatalf("stub should never fail: %v", err)
	}

	if result.Headline != "Crisis Watch: 2 critical insights open" {
		t.Errorf("unexpected headline %q", result.Headline)
	}
	if !strings.Contains(result.Body, "2 of them are critical") {
		t.Errorf("body should call out critical count: %q", result.Body)
	}
}

func TestStubIncludesKPIReadings(t *testing.T) {
	result, err := NewStub().Generate(context.Background(), Prompt{
		DashboardName: "Coverage",
		TimeRange:     "30d",
		KPIs: []KPISummary{
			{Metric: "share_of_voice", Value: 14.5, Unit: "%", Delta: 2.5},
		},
	})
	if err != nil {
		t.Fatalf("stub should never fail: %v", err)
	}

	if !strings.Contains(result.Body, "share_of_voice is at 14.50% (+2.50 vs previous)") {
		t.Errorf("body missing kpi reading: %q", result.Body)
	}
}

func TestNewSelectsProvider(t *testing.T) {
	if g, err := New(Config{}); err != nil {
		t.Fatalf("empty provider should default to stub: %v", err)
	} else if _, ok := g.(*Stub); !ok {
		t.Fatalf("expected stub generator, got %T", g)
	}

	if _, err := New(Config{Provider: "gemini"}); err == nil {
		t.Fatal("unknown provider must be rejected")
	}
}
