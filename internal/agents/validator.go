package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/nextlevelbuilder/audioagents/internal/conversation"
	"github.com/nextlevelbuilder/audioagents/internal/tts"
)

// DefaultConfidenceThreshold is the minimum score considered validated.
const DefaultConfidenceThreshold = 70

// ValidationResult is the structured output of the critique call.
type ValidationResult struct {
	ConfidenceScore int    `json:"confidence_score"`
	Assessment      string `json:"assessment"`
}

var validationResultSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"confidence_score": {
			"type": "integer",
			"description": "Confidence score from 0-100 where 0-40 is poor quality, 41-70 is acceptable, 71-85 is good, and 86-100 is excellent"
		},
		"assessment": {
			"type": "string",
			"description": "Detailed assessment explaining the confidence score"
		}
	},
	"required": ["confidence_score", "assessment"],
	"additionalProperties": false
}`)

// Validation is the validator's full outcome for one turn.
type Validation struct {
	Response
	ConfidenceScore int
	Assessment      string
	IsValidated     bool
}

// Validator critiques the researcher's findings and scores confidence.
type Validator struct {
	speaker Speaker
	llm     LLM

	mu        sync.Mutex
	threshold int
}

// NewValidator creates the validator agent. A non-positive threshold gets
// the default.
func NewValidator(speaker Speaker, llm LLM, threshold int) *Validator {
	v := &Validator{speaker: speaker, llm: llm}
	v.SetThreshold(threshold)
	return v
}

// SetThreshold replaces the validation threshold, taking effect on the next
// Validate call. A non-positive value gets the default.
func (v *Validator) SetThreshold(threshold int) {
	if threshold <= 0 {
		threshold = DefaultConfidenceThreshold
	}
	v.mu.Lock()
	v.threshold = threshold
	v.mu.Unlock()
}

// Threshold returns the current validation threshold.
func (v *Validator) Threshold() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.threshold
}

func (v *Validator) Name() string { return "validator" }

// Process satisfies the Agent contract; it critiques without prior history.
func (v *Validator) Process(ctx context.Context, msgs []conversation.Message) (*Response, error) {
	outcome, err := v.Validate(ctx, msgs, nil)
	if err != nil {
		return nil, err
	}
	return &outcome.Response, nil
}

// Validate runs the critique flow with the prior validation window threaded
// into the prompt. Score decisions belong to the LLM; this only relays the
// history and rejects out-of-range scores as contract violations.
func (v *Validator) Validate(ctx context.Context, msgs []conversation.Message, prior []conversation.ValidationRecord) (*Validation, error) {
	query := lastUserMessage(msgs)
	researchResult := lastAgentMessage(msgs)

	var result ValidationResult
	err := v.llm.GenerateStructured(ctx,
		validationSystemPrompt,
		validationUserPrompt(query, researchResult, msgs, prior),
		"validation_result", validationResultSchema, &result)
	if err != nil {
		return nil, fmt.Errorf("validator critique: %w", err)
	}
	if result.ConfidenceScore < 0 || result.ConfidenceScore > 100 {
		return nil, fmt.Errorf("validator critique: %w: got %d",
			conversation.ErrScoreOutOfRange, result.ConfidenceScore)
	}

	audioSummary, err := v.llm.Generate(ctx,
		validatorAudioSystemPrompt+"\n\n"+
			validatorAudioUserPrompt(query, result.Assessment, result.ConfidenceScore, msgs))
	if err != nil {
		return nil, fmt.Errorf("validator audio summary: %w", err)
	}

	audio, err := v.speaker.Speak(ctx, tts.VoiceValidator, audioSummary)
	if err != nil {
		return nil, err
	}

	return &Validation{
		Response: Response{
			Content:      result.Assessment,
			AudioSummary: audioSummary,
			Audio:        audio,
			Query:        query,
		},
		ConfidenceScore: result.ConfidenceScore,
		Assessment:      result.Assessment,
		IsValidated:     result.ConfidenceScore >= v.Threshold(),
	}, nil
}
