package config

import (
	"os"
	"path/filepath"
	"testing"
)

func validConfig() Config {
	cfg := Config{
		Database:  DatabaseConfig{Addrs: []string{"localhost:6379"}},
		Embedding: EmbeddingConfig{Model: "text-embedding-3-small", Dimensions: 1536},
		LLM:       LLMConfig{Model: "gpt-4o-mini"},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate_Valid(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_InvalidBudgetAction(t *testing.T) {
	cfg := validConfig()
	cfg.LLM.Budget = BudgetConfig{DailyTokenLimit: 1000000, Action: "invalid_action"}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for invalid budget action")
	}

	expected := `llm.budget.action must be "warn" or "reject", got "invalid_action"`
	if err.Error() != expected {
		t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), expected)
	}
}

func TestValidate_ValidBudgetActions(t *testing.T) {
	for _, action := range []string{"", "warn", "reject"} {
		t.Run("action="+action, func(t *testing.T) {
			cfg := validConfig()
			cfg.Embedding.Budget.Action = action
			cfg.LLM.Budget.Action = action

			if err := cfg.Validate(); err != nil {
				t.Fatalf("unexpected error for valid action %q: %v", action, err)
			}
		})
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port", func(c *Config) { c.HTTP.Port = 0 }},
		{"addrs", func(c *Config) { c.Database.Addrs = nil }},
		{"embedding model", func(c *Config) { c.Embedding.Model = "" }},
		{"dimensions", func(c *Config) { c.Embedding.Dimensions = 0 }},
		{"llm provider", func(c *Config) { c.LLM.Provider = "anthropic" }},
		{"llm model", func(c *Config) { c.LLM.Model = "" }},
		{"context policy", func(c *Config) { c.Retrieval.ContextPolicy = "merge" }},
		{"verdict", func(c *Config) { c.Generation.Verdict = "json" }},
		{"overlap", func(c *Config) { c.Ingest.ChunkOverlap = c.Ingest.ChunkSize }},
		{"exporter", func(c *Config) { c.Tracing.Exporter = "jaeger" }},
		{"otlp endpoint", func(c *Config) { c.Tracing.Exporter = "otlp" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.Port != 8080 {
		t.Errorf("expected Port=8080, got %d", cfg.HTTP.Port)
	}
	if cfg.HTTP.WriteTimeoutSec != 120 {
		t.Errorf("expected WriteTimeoutSec=120, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.Database.ReadinessTimeout != 10 {
		t.Errorf("expected ReadinessTimeout=10, got %d", cfg.Database.ReadinessTimeout)
	}
	if cfg.KnowledgeBases.Index.HNSWM != 16 {
		t.Errorf("expected HNSWM=16, got %d", cfg.KnowledgeBases.Index.HNSWM)
	}
	if cfg.LLM.Provider != "openai" {
		t.Errorf("expected llm provider openai, got %q", cfg.LLM.Provider)
	}
	if cfg.Retrieval.ContextPolicy != "reset" {
		t.Errorf("expected context policy reset, got %q", cfg.Retrieval.ContextPolicy)
	}
	if cfg.Generation.Verdict != "sentinel" {
		t.Errorf("expected verdict sentinel, got %q", cfg.Generation.Verdict)
	}
	if cfg.Ingest.ChunkSize != 1000 || cfg.Ingest.ChunkOverlap != 200 {
		t.Errorf("expected chunking 1000/200, got %d/%d", cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap)
	}
	if cfg.Tracing.Exporter != "none" {
		t.Errorf("expected exporter none, got %q", cfg.Tracing.Exporter)
	}
	if cfg.Analysis.PlanCacheTTLSec != 0 {
		t.Errorf("expected plan cache disabled by default, got %d", cfg.Analysis.PlanCacheTTLSec)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:       HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 60, ShutdownSec: 5},
		LLM:        LLMConfig{Provider: "gemini"},
		Retrieval:  RetrievalConfig{ContextPolicy: "accumulate"},
		Ingest:     IngestConfig{ChunkSize: 500, ChunkOverlap: 50},
		Generation: GenerationConfig{Verdict: "structured"},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 30 {
		t.Errorf("expected ReadTimeoutSec=30, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.LLM.Provider != "gemini" {
		t.Errorf("expected gemini, got %q", cfg.LLM.Provider)
	}
	if cfg.Retrieval.ContextPolicy != "accumulate" {
		t.Errorf("expected accumulate, got %q", cfg.Retrieval.ContextPolicy)
	}
	if cfg.Ingest.ChunkSize != 500 || cfg.Ingest.ChunkOverlap != 50 {
		t.Errorf("expected 500/50, got %d/%d", cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap)
	}
	if cfg.Generation.Verdict != "structured" {
		t.Errorf("expected structured, got %q", cfg.Generation.Verdict)
	}
}

func TestParse_ExpandsEnv(t *testing.T) {
	t.Setenv("SUPPORTRAG_TEST_LLM_KEY", "secret")

	cfg, err := Parse([]byte(`
database:
  addrs: ["${SUPPORTRAG_TEST_VALKEY:-localhost:6379}"]
embedding:
  model: text-embedding-3-small
  dimensions: 1536
llm:
  provider: gemini
  api_key: ${SUPPORTRAG_TEST_LLM_KEY}
  model: gemini-2.0-flash
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Database.Addrs[0] != "localhost:6379" {
		t.Errorf("expected default addr, got %q", cfg.Database.Addrs[0])
	}
	if cfg.LLM.APIKey != "secret" {
		t.Errorf("expected expanded key, got %q", cfg.LLM.APIKey)
	}
	if cfg.HTTP.Port != 8080 {
		t.Errorf("expected defaults applied, got port %d", cfg.HTTP.Port)
	}
}

func TestParse_Invalid(t *testing.T) {
	if _, err := Parse([]byte("http: [")); err == nil {
		t.Fatal("expected yaml error")
	}
	if _, err := Parse([]byte("http:\n  port: 8080\n")); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "config"), 0o755); err != nil {
		t.Fatal(err)
	}
	body := []byte(`
database:
  addrs: ["localhost:6379"]
embedding:
  model: m
  dimensions: 8
llm:
  model: c
`)
	if err := os.WriteFile(filepath.Join(dir, "config", "unit.yaml"), body, 0o600); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)

	cfg, err := Load("unit")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Embedding.Dimensions != 8 {
		t.Errorf("expected dimensions 8, got %d", cfg.Embedding.Dimensions)
	}
}
