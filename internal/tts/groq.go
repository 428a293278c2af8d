package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// GroqProvider implements TTS via Groq's OpenAI-compatible audio/speech API.
type GroqProvider struct {
	apiKey    string
	apiBase   string
	model     string
	voice     string
	timeoutMs int
}

// GroqConfig configures the Groq TTS provider.
type GroqConfig struct {
	APIKey    string `json:"apiKey"`
	APIBase   string `json:"apiBase"`
	Model     string `json:"model"`
	Voice     string `json:"voice"`
	TimeoutMs int    `json:"timeoutMs"`
}

// NewGroqProvider creates a Groq TTS provider.
func NewGroqProvider(cfg GroqConfig) *GroqProvider {
	p := &GroqProvider{
		apiKey:    cfg.APIKey,
		apiBase:   cfg.APIBase,
		model:     cfg.Model,
		voice:     cfg.Voice,
		timeoutMs: cfg.TimeoutMs,
	}
	if p.apiBase == "" {
		p.apiBase = "https://api.groq.com/openai/v1"
	}
	if p.model == "" {
		p.model = "playai-tts"
	}
	if p.voice == "" {
		p.voice = "Arista-PlayAI"
	}
	if p.timeoutMs <= 0 {
		p.timeoutMs = 30000
	}
	return p
}

func (p *GroqProvider) Name() string { return "groq" }

// Synthesize calls POST {apiBase}/audio/speech.
func (p *GroqProvider) Synthesize(ctx context.Context, text string, opts Options) (*SynthResult, error) {
	voice := opts.Voice
	if voice == "" {
		voice = p.voice
	}
	model := opts.Model
	if model == "" {
		model = p.model
	}
	format := opts.Format
	if format != "mp3" && format != "wav" {
		format = "wav"
	}

	body := map[string]interface{}{
		"model":           model,
		"input":           text,
		"voice":           voice,
		"response_format": format,
	}

	bodyJSON, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal groq tts request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiBase+"/audio/speech", bytes.NewReader(bodyJSON))
	if err != nil {
		return nil, fmt.Errorf("create groq tts request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	client := &http.Client{Timeout: time.Duration(p.timeoutMs) * time.Millisecond}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("groq tts request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("groq tts error %d: %s", resp.StatusCode, string(errBody))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read groq tts response: %w", err)
	}

	mime := "audio/wav"
	if format == "mp3" {
		mime = "audio/mpeg"
	}

	return &SynthResult{
		Audio:     audio,
		Extension: format,
		MimeType:  mime,
	}, nil
}
