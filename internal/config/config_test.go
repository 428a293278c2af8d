package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.json5"))
	if err != nil {
		t.Fatalf("missing file must not error: %v", err)
	}
	if cfg.Context.MaxExchanges != 5 || cfg.Context.MaxTokens != 10000 {
		t.Errorf("wrong context defaults: %+v", cfg.Context)
	}
	if cfg.Validator.ConfidenceThreshold != 70 {
		t.Errorf("wrong threshold default: %d", cfg.Validator.ConfidenceThreshold)
	}
}

func TestLoad_JSON5WithComments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.json5")
	doc := `{
	// compaction tuning
	context: {
		maxExchanges: 3,
		maxTokens: 4000,
	},
	validator: { confidenceThreshold: 80 },
	search: { provider: "duckduckgo" },
}`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Context.MaxExchanges != 3 || cfg.Context.MaxTokens != 4000 {
		t.Errorf("context not loaded: %+v", cfg.Context)
	}
	if cfg.Validator.ConfidenceThreshold != 80 {
		t.Errorf("threshold not loaded: %d", cfg.Validator.ConfidenceThreshold)
	}
	if cfg.Search.Provider != "duckduckgo" {
		t.Errorf("search provider not loaded: %q", cfg.Search.Provider)
	}
}

func TestLoad_EnvFillsEmptyKeys(t *testing.T) {
	t.Setenv("TAVILY_API_KEY", "tv-env")
	t.Setenv("OPENAI_API_KEY", "oa-env")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.json5"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Search.Tavily.APIKey != "tv-env" {
		t.Errorf("tavily key not taken from env: %q", cfg.Search.Tavily.APIKey)
	}
	if cfg.LLM.APIKey != "oa-env" {
		t.Errorf("llm key not taken from env: %q", cfg.LLM.APIKey)
	}
}

func TestLoad_FileValueBeatsEnv(t *testing.T) {
	t.Setenv("TAVILY_API_KEY", "tv-env")

	path := filepath.Join(t.TempDir(), "cfg.json5")
	doc := `{ search: { tavily: { apiKey: "tv-file" } } }`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Search.Tavily.APIKey != "tv-file" {
		t.Errorf("file value must win over env, got %q", cfg.Search.Tavily.APIKey)
	}
}

func TestSearchProviderSelection(t *testing.T) {
	cfg := Default()
	if got := cfg.SearchProvider().Name(); got != "duckduckgo" {
		t.Errorf("keyless default must be duckduckgo, got %q", got)
	}

	cfg.Search.Tavily.APIKey = "tv"
	if got := cfg.SearchProvider().Name(); got != "tavily" {
		t.Errorf("keyed default must be tavily, got %q", got)
	}

	cfg.Search.Provider = "duckduckgo"
	if got := cfg.SearchProvider().Name(); got != "duckduckgo" {
		t.Errorf("explicit provider must win, got %q", got)
	}
}
