package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		t.Setenv(key, "")
	}
}

func TestLoadPipelineDefaults(t *testing.T) {
	clearEnv(t, "CONFIG_FILE", "EMBEDDING_TIMEOUT", "RETRIEVAL_TIMEOUT", "AGENT_TIMEOUT",
		"RETRIEVAL_ALLOW_PARTIAL", "AGENT_MISSING_VERDICT_IS_RELEVANT", "SNAPSHOT_BACKEND",
		"NATS_SUBJECT", "RESILIENCE_RETRY_MAX_ATTEMPTS")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.EmbeddingTimeout != 10*time.Second || cfg.RetrievalTimeout != 10*time.Second {
		t.Fatalf("unexpected call timeouts: %v %v", cfg.EmbeddingTimeout, cfg.RetrievalTimeout)
	}
	if cfg.AgentTimeout != 30*time.Second {
		t.Fatalf("expected agent timeout 30s, got %v", cfg.AgentTimeout)
	}
	if cfg.RetrievalAllowPartial {
		t.Fatalf("expected partial retrieval disabled by default")
	}
	if !cfg.AgentMissingVerdictIsRelevant {
		t.Fatalf("expected missing verdict to count as relevant by default")
	}
	if cfg.SnapshotBackend != SnapshotBackendNeo4j {
		t.Fatalf("expected neo4j snapshot backend, got %q", cfg.SnapshotBackend)
	}
	if cfg.NATSSubject != "notifications.events" {
		t.Fatalf("unexpected nats subject %q", cfg.NATSSubject)
	}
	if cfg.ResilienceRetryMaxAttempts != 1 {
		t.Fatalf("expected single attempt by default, got %d", cfg.ResilienceRetryMaxAttempts)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	clearEnv(t, "CONFIG_FILE")
	t.Setenv("AGENT_TIMEOUT", "45s")
	t.Setenv("RETRIEVAL_TIMEOUT", "5")
	t.Setenv("RETRIEVAL_ALLOW_PARTIAL", "true")
	t.Setenv("API_RATE_LIMIT_RPS", "2.5")
	t.Setenv("SNAPSHOT_BACKEND", "Postgres")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.AgentTimeout != 45*time.Second {
		t.Fatalf("expected agent timeout 45s, got %v", cfg.AgentTimeout)
	}
	if cfg.RetrievalTimeout != 5*time.Second {
		t.Fatalf("expected bare seconds to parse, got %v", cfg.RetrievalTimeout)
	}
	if !cfg.RetrievalAllowPartial {
		t.Fatalf("expected partial retrieval enabled")
	}
	if cfg.APIRateLimitRPS != 2.5 {
		t.Fatalf("expected rps 2.5, got %v", cfg.APIRateLimitRPS)
	}
	if cfg.SnapshotBackend != SnapshotBackendPostgres {
		t.Fatalf("expected postgres backend, got %q", cfg.SnapshotBackend)
	}
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	clearEnv(t, "CONFIG_FILE")
	t.Setenv("API_MAX_IN_FLIGHT", "many")
	t.Setenv("AGENT_TIMEOUT", "-3s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIMaxInFlight != 64 {
		t.Fatalf("expected fallback in-flight limit, got %d", cfg.APIMaxInFlight)
	}
	if cfg.AgentTimeout != 30*time.Second {
		t.Fatalf("expected fallback agent timeout, got %v", cfg.AgentTimeout)
	}
}

func TestLoadRejectsUnknownSnapshotBackend(t *testing.T) {
	clearEnv(t, "CONFIG_FILE")
	t.Setenv("SNAPSHOT_BACKEND", "redis")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}

func TestLoadFileOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "NEO4J_URI: bolt://graph:7687\n" +
		"NEO4J_PASSWORD: ${TEST_GRAPH_SECRET}\n" +
		"OPENAI_CHAT_MODEL: ${TEST_MISSING_MODEL:-gpt-4.1-mini}\n" +
		"API_MAX_IN_FLIGHT: 8\n" +
		"LOG_LEVEL: warn\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("TEST_GRAPH_SECRET", "s3cret")
	clearEnv(t, "NEO4J_URI", "NEO4J_PASSWORD", "OPENAI_CHAT_MODEL", "TEST_MISSING_MODEL", "API_MAX_IN_FLIGHT")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Neo4jURI != "bolt://graph:7687" {
		t.Fatalf("expected uri from file, got %q", cfg.Neo4jURI)
	}
	if cfg.Neo4jPassword != "s3cret" {
		t.Fatalf("expected expanded password, got %q", cfg.Neo4jPassword)
	}
	if cfg.OpenAIChatModel != "gpt-4.1-mini" {
		t.Fatalf("expected default from expansion, got %q", cfg.OpenAIChatModel)
	}
	if cfg.APIMaxInFlight != 8 {
		t.Fatalf("expected numeric file value, got %d", cfg.APIMaxInFlight)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("expected environment to win over file, got %q", cfg.LogLevel)
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}
