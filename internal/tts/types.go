// Package tts implements the text-to-speech collaborator.
//
// Supported providers: ElevenLabs, Groq, OpenAI. Each agent speaks with its
// own voice; the manager resolves the voice per agent role.
package tts

import "context"

// Provider synthesizes text into audio bytes.
type Provider interface {
	Name() string
	Synthesize(ctx context.Context, text string, opts Options) (*SynthResult, error)
}

// Options controls synthesis parameters.
type Options struct {
	Voice  string // provider-specific voice ID
	Model  string // provider-specific model ID
	Format string // output format: "mp3", "wav", "opus"
}

// SynthResult is the output of a TTS synthesis.
type SynthResult struct {
	Audio     []byte // raw audio bytes
	Extension string // file extension without dot: "mp3", "wav", "ogg"
	MimeType  string // e.g. "audio/mpeg", "audio/wav"
}

// Voice roles. Researcher and validator each get a distinct voice so the
// two agents are distinguishable by ear.
const (
	VoiceResearcher = "researcher"
	VoiceValidator  = "validator"
)
