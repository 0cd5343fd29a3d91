package config

import (
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg := FromEnv()

	if cfg.App != "pravado-api" {
		t.Errorf("unexpected app name %q", cfg.App)
	}
	if cfg.Environment != "development" {
		t.Errorf("unexpected environment %q", cfg.Environment)
	}
	if cfg.HTTP.Addr != ":8080" {
		t.Errorf("unexpected addr %q", cfg.HTTP.Addr)
	}
	if cfg.HTTP.RequestTimeout != 30*time.Second {
		t.Errorf("unexpected request timeout %v", cfg.HTTP.RequestTimeout)
	}
	if cfg.Auth.SessionCookie != "pravado_session" {
		t.Errorf("unexpected cookie name %q", cfg.Auth.SessionCookie)
	}
	if cfg.Auth.SessionTTL != 24*time.Hour {
		t.Errorf("unexpected session ttl %v", cfg.Auth.SessionTTL)
	}
	if cfg.LLM.Provider != "stub" {
		t.Errorf("unexpected llm provider %q", cfg.LLM.Provider)
	}
	if cfg.Kafka.AuditTopic != "pravado.audit" {
		t.Errorf("unexpected audit topic %q", cfg.Kafka.AuditTopic)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("PRAVADO_ADDR", ":9999")
	t.Setenv("HTTP_REQUEST_TIMEOUT", "5s")
	t.Setenv("DATABASE_MAX_OPEN_CONNS", "50")
	t.Setenv("KAFKA_BROKERS", "broker-1:9092, broker-2:9092,")
	t.Setenv("SESSION_TTL", "not-a-duration")

	cfg := FromEnv()

	if cfg.Environment != "production" {
		t.Errorf("unexpected environment %q", cfg.Environment)
	}
	if cfg.HTTP.Addr != ":9999" {
		t.Errorf("unexpected addr %q", cfg.HTTP.Addr)
	}
	if cfg.HTTP.RequestTimeout != 5*time.Second {
		t.Errorf("unexpected request timeout %v", cfg.HTTP.RequestTimeout)
	}
	if cfg.Database.MaxOpenConns != 50 {
		t.Errorf("unexpected max open conns %d", cfg.Database.MaxOpenConns)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[0] != "broker-1:9092" {
		t.Errorf("unexpected brokers %v", cfg.Kafka.Brokers)
	}
	// Unparseable durations fall back to the default.
	if cfg.Auth.SessionTTL != 24*time.Hour {
		t.Errorf("unexpected session ttl %v", cfg.Auth.SessionTTL)
	}
}

func TestFeatureOverrides(t *testing.T) {
	environ := []string{
		"FEATURE_EXEC_NARRATIVES=false",
		"FEATURE_AUDIT_KAFKA=true",
		"FEATURE_KPI_DELTAS=banana",
		"FEATURE_=true",
		"PATH=/usr/bin",
		"FEATUREX=true",
	}

	overrides := featureOverrides(environ)

	if v, ok := overrides["exec_narratives"]; !ok || v {
		t.Errorf("expected exec_narratives=false, got %v (present=%v)", v, ok)
	}
	if v := overrides["audit_kafka"]; !v {
		t.Error("expected audit_kafka=true")
	}
	// Anything but the literal "true" reads as false.
	if v, ok := overrides["kpi_deltas"]; !ok || v {
		t.Errorf("expected kpi_deltas=false, got %v (present=%v)", v, ok)
	}
	if len(overrides) != 3 {
		t.Errorf("unexpected override set: %v", overrides)
	}
}
