// Package config loads the application configuration. The file is JSON5 so
// hand-edited configs can carry comments and trailing commas. API keys may
// come from the environment instead of the file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/titanous/json5"

	"github.com/nextlevelbuilder/audioagents/internal/agents"
	"github.com/nextlevelbuilder/audioagents/internal/conversation"
	"github.com/nextlevelbuilder/audioagents/internal/httpapi"
	"github.com/nextlevelbuilder/audioagents/internal/providers"
	"github.com/nextlevelbuilder/audioagents/internal/search"
	"github.com/nextlevelbuilder/audioagents/internal/store"
	"github.com/nextlevelbuilder/audioagents/internal/tts"
)

// DefaultPath is where Load looks when no path is given.
const DefaultPath = "audioagents.json5"

// SearchConfig selects the web search provider.
type SearchConfig struct {
	// Provider: "tavily" (default when a key is present) or "duckduckgo".
	Provider   string              `json:"provider"`
	MaxResults int                 `json:"maxResults"`
	Tavily     search.TavilyConfig `json:"tavily"`
}

// ContextConfig tunes the conversation compaction thresholds.
type ContextConfig struct {
	MaxExchanges int `json:"maxExchanges"`
	MaxTokens    int `json:"maxTokens"`
}

// ValidatorConfig tunes the validation stage.
type ValidatorConfig struct {
	ConfidenceThreshold int `json:"confidenceThreshold"`
}

// Config is the full application configuration.
type Config struct {
	LLM       providers.OpenAIConfig `json:"llm"`
	Search    SearchConfig           `json:"search"`
	TTS       tts.Config             `json:"tts"`
	Store     store.Config           `json:"store"`
	Server    httpapi.Config         `json:"server"`
	Context   ContextConfig          `json:"context"`
	Validator ValidatorConfig        `json:"validator"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Context: ContextConfig{
			MaxExchanges: conversation.DefaultMaxExchanges,
			MaxTokens:    conversation.DefaultMaxTokens,
		},
		Validator: ValidatorConfig{
			ConfidenceThreshold: agents.DefaultConfidenceThreshold,
		},
	}
}

// Load reads the config file at path, applies environment overrides and
// defaults. A missing file is not an error; the defaults are returned.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}

	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		applyEnv(cfg)
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := json5.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", filepath.Base(path), err)
	}

	applyEnv(cfg)
	applyDefaults(cfg)
	return cfg, nil
}

// applyEnv fills API keys from the environment when the file left them
// empty. The environment never overrides an explicit file value.
func applyEnv(cfg *Config) {
	setIfEmpty(&cfg.LLM.APIKey, "OPENAI_API_KEY")
	setIfEmpty(&cfg.Search.Tavily.APIKey, "TAVILY_API_KEY")
	setIfEmpty(&cfg.TTS.ElevenLabs.APIKey, "ELEVENLABS_API_KEY")
	setIfEmpty(&cfg.TTS.Groq.APIKey, "GROQ_API_KEY")
	setIfEmpty(&cfg.TTS.OpenAI.APIKey, "OPENAI_API_KEY")
}

func setIfEmpty(dst *string, envKey string) {
	if *dst == "" {
		*dst = os.Getenv(envKey)
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Context.MaxExchanges <= 0 {
		cfg.Context.MaxExchanges = conversation.DefaultMaxExchanges
	}
	if cfg.Context.MaxTokens <= 0 {
		cfg.Context.MaxTokens = conversation.DefaultMaxTokens
	}
	if cfg.Validator.ConfidenceThreshold <= 0 {
		cfg.Validator.ConfidenceThreshold = agents.DefaultConfidenceThreshold
	}
}

// SearchProvider builds the configured search provider. Tavily when a key
// is available, DuckDuckGo otherwise.
func (c *Config) SearchProvider() search.Provider {
	switch c.Search.Provider {
	case "duckduckgo":
		return search.NewDuckDuckGoProvider()
	case "tavily":
		return search.NewTavilyProvider(c.Search.Tavily)
	default:
		if c.Search.Tavily.APIKey != "" {
			return search.NewTavilyProvider(c.Search.Tavily)
		}
		return search.NewDuckDuckGoProvider()
	}
}
