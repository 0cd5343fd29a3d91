// Package featureflag provides runtime feature toggles read from config.
package featureflag

import "sort"

// Known flags. Defaults reflect what ships enabled today.
const (
	ExecNarratives   = "exec_narratives"   // LLM narrative generation
	KPIDeltas        = "kpi_deltas"        // delta computation on KPI ingest
	AuditKafka       = "audit_kafka"       // mirror audit events to Kafka
	InsightDismissal = "insight_dismissal" // allow dismissing insights
)

var defaults = map[string]bool{
	ExecNarratives:   true,
	KPIDeltas:        true,
	AuditKafka:       false,
	InsightDismissal: true,
}

// Flags is an immutable flag set resolved at startup. Unknown flags are
// always disabled.
type Flags struct {
	values map[string]bool
}

// New resolves flags from defaults plus environment overrides.
func New(overrides map[string]bool) *Flags {
	values := make(map[string]bool, len(defaults))
	for name, enabled := range defaults {
		values[name] = enabled
	}
	for name, enabled := range overrides {
		if _, known := values[name]; known {
			values[name] = enabled
		}
	}
	return &Flags{values: values}
}

// Enabled reports whether the named flag is on.
func (f *Flags) Enabled(name string) bool {
	return f.values[name]
}

// Snapshot returns the resolved flag set for /health/info, keys sorted for
// stable output.
func (f *Flags) Snapshot() map[string]bool {
	out := make(map[string]bool, len(f.values))
	for name, enabled := range f.values {
		out[name] = enabled
	}
	return out
}

// Names lists known flag names in sorted order.
func (f *Flags) Names() []string {
	names := make([]string, 0, len(f.values))
	for name := range f.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
