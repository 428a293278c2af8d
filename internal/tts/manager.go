package tts

import (
	"context"
	"fmt"
	"log/slog"
)

// Default voices per provider, keyed by agent role. Researcher voices are
// female, validator voices male, so turns are distinguishable by ear.
var defaultVoices = map[string]map[string]string{
	"elevenlabs": {
		VoiceResearcher: "uYXf8XasLslADfZ2MB4u", // Hope
		VoiceValidator:  "jRAAK67SEFE9m7ci5DhD", // Ollie
	},
	"groq": {
		VoiceResearcher: "Arista-PlayAI",
		VoiceValidator:  "Fritz-PlayAI",
	},
	"openai": {
		VoiceResearcher: "nova",
		VoiceValidator:  "onyx",
	},
}

// Config selects the TTS provider and per-role voices.
type Config struct {
	// Provider: "elevenlabs" (default), "groq", "openai", or "off".
	Provider string `json:"provider"`

	// Format: "mp3" (default) or "wav" (groq only).
	Format string `json:"format"`

	ResearcherVoice string `json:"researcherVoice"`
	ValidatorVoice  string `json:"validatorVoice"`

	ElevenLabs ElevenLabsConfig `json:"elevenlabs"`
	Groq       GroqConfig       `json:"groq"`
	OpenAI     OpenAITTSConfig  `json:"openai"`
}

// Manager owns the configured provider and resolves voices per agent role.
// With provider "off", Speak returns nil audio and no error so the pipeline
// runs without a TTS key.
type Manager struct {
	provider Provider
	name     string
	format   string
	voices   map[string]string
}

// NewManager builds the provider selected by config.
func NewManager(cfg Config) (*Manager, error) {
	name := cfg.Provider
	if name == "" {
		name = "elevenlabs"
	}

	m := &Manager{
		name:   name,
		format: cfg.Format,
		voices: map[string]string{},
	}
	if m.format == "" {
		m.format = "mp3"
	}

	switch name {
	case "off":
		m.provider = nil
	case "elevenlabs":
		m.provider = NewElevenLabsProvider(cfg.ElevenLabs)
	case "groq":
		m.provider = NewGroqProvider(cfg.Groq)
	case "openai":
		m.provider = NewOpenAIProvider(cfg.OpenAI)
	default:
		return nil, fmt.Errorf("unknown tts provider %q", name)
	}

	for role, voice := range defaultVoices[name] {
		m.voices[role] = voice
	}
	if cfg.ResearcherVoice != "" {
		m.voices[VoiceResearcher] = cfg.ResearcherVoice
	}
	if cfg.ValidatorVoice != "" {
		m.voices[VoiceValidator] = cfg.ValidatorVoice
	}

	if m.provider != nil {
		slog.Info("tts provider configured", "provider", name, "format", m.format)
	}
	return m, nil
}

// Format returns the configured output format.
func (m *Manager) Format() string { return m.format }

// MimeType returns the MIME type of clips Speak produces.
func (m *Manager) MimeType() string {
	switch m.format {
	case "wav":
		return "audio/wav"
	case "ogg", "opus":
		return "audio/ogg"
	default:
		return "audio/mpeg"
	}
}

// Enabled reports whether a real provider is configured.
func (m *Manager) Enabled() bool { return m.provider != nil }

// Speak synthesizes text with the voice assigned to the given agent role.
func (m *Manager) Speak(ctx context.Context, role, text string) ([]byte, error) {
	if m.provider == nil {
		return nil, nil
	}

	res, err := m.provider.Synthesize(ctx, text, Options{
		Voice:  m.voices[role],
		Format: m.format,
	})
	if err != nil {
		return nil, fmt.Errorf("synthesize %s audio: %w", role, err)
	}
	return res.Audio, nil
}
