// Package pipeline orchestrates one conversational turn: load thread state,
// run the researcher, run the validator with the prior validation window,
// compact the transcript, and persist. State is mutated on a clone so a
// failed turn leaves the stored state untouched.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nextlevelbuilder/audioagents/internal/agents"
	"github.com/nextlevelbuilder/audioagents/internal/conversation"
	"github.com/nextlevelbuilder/audioagents/internal/store"
)

// researchAgent is the researcher surface the pipeline needs.
type researchAgent interface {
	Process(ctx context.Context, msgs []conversation.Message) (*agents.Response, error)
}

// validationAgent is the validator surface, with the prior-outcome window.
type validationAgent interface {
	Validate(ctx context.Context, msgs []conversation.Message, prior []conversation.ValidationRecord) (*agents.Validation, error)
}

// Turn is the full outcome of one pipeline run.
type Turn struct {
	ThreadID   string
	Research   *agents.Response
	Validation *agents.Validation
	State      *conversation.State
	Duration   time.Duration
}

// Pipeline wires the two agents, the context manager and the checkpoint
// store into the per-turn flow.
type Pipeline struct {
	store      store.CheckpointStore
	researcher researchAgent
	validator  validationAgent
	ctxMgr     *conversation.ContextManager

	// OnEvent, when set, receives stage events as the turn progresses.
	// Called synchronously from Run's goroutine.
	OnEvent func(Event)
}

// New creates a pipeline over the given collaborators.
func New(st store.CheckpointStore, researcher *agents.Researcher, validator *agents.Validator, ctxMgr *conversation.ContextManager) *Pipeline {
	return &Pipeline{
		store:      st,
		researcher: researcher,
		validator:  validator,
		ctxMgr:     ctxMgr,
	}
}

func (p *Pipeline) emit(ev Event) {
	if p.OnEvent != nil {
		p.OnEvent(ev)
	}
}

// Run executes one turn for the given thread. The persisted state is loaded
// (zero value on cold start), extended with the user message and both agent
// responses, compacted when the context manager fires, and saved once at the
// end. Any stage failure aborts the turn without persisting.
func (p *Pipeline) Run(ctx context.Context, threadID, input string) (*Turn, error) {
	start := time.Now()

	loaded, err := p.store.Load(ctx, threadID)
	if errors.Is(err, store.ErrNotFound) {
		loaded = &conversation.State{}
	} else if err != nil {
		return nil, fmt.Errorf("load thread %q: %w", threadID, err)
	}

	state := loaded.Clone()
	state.Messages = append(state.Messages, conversation.UserMessage(input))
	state.UserQuery = input
	p.emit(Event{Kind: EventUserMessage, ThreadID: threadID, Text: input})

	research, err := p.researcher.Process(ctx, state.Messages)
	if err != nil {
		return nil, fmt.Errorf("researcher: %w", err)
	}
	state.Messages = append(state.Messages, conversation.AgentMessage(research.Content))
	state.ResearchResult = research.Content
	p.emit(Event{
		Kind:         EventResearch,
		ThreadID:     threadID,
		Agent:        "researcher",
		Text:         research.Content,
		AudioSummary: research.AudioSummary,
		Audio:        research.Audio,
	})

	prior := conversation.ValidationHistory(state.Metadata)
	validation, err := p.validator.Validate(ctx, state.Messages, prior)
	if err != nil {
		return nil, fmt.Errorf("validator: %w", err)
	}
	state.Messages = append(state.Messages, conversation.AgentMessage(validation.Assessment))
	state.ValidationResult = validation.Assessment
	state.IsValidated = validation.IsValidated

	if err := conversation.RecordValidation(&state.Metadata, conversation.ValidationRecord{
		ConfidenceScore: validation.ConfidenceScore,
		Assessment:      validation.Assessment,
		IsValidated:     validation.IsValidated,
	}); err != nil {
		return nil, fmt.Errorf("record validation: %w", err)
	}
	state.Metadata.Agent = "validator"
	state.Metadata.Query = input
	p.emit(Event{
		Kind:         EventValidation,
		ThreadID:     threadID,
		Agent:        "validator",
		Text:         validation.Assessment,
		AudioSummary: validation.AudioSummary,
		Audio:        validation.Audio,
		Score:        validation.ConfidenceScore,
		Validated:    validation.IsValidated,
	})

	managed, err := p.ctxMgr.Manage(ctx, state.Messages)
	if err != nil {
		return nil, fmt.Errorf("manage context: %w", err)
	}
	state.Messages = managed

	if err := p.store.Save(ctx, threadID, state); err != nil {
		return nil, fmt.Errorf("save thread %q: %w", threadID, err)
	}

	elapsed := time.Since(start)
	slog.Info("turn complete",
		"thread", threadID,
		"score", validation.ConfidenceScore,
		"validated", validation.IsValidated,
		"messages", len(state.Messages),
		"duration", elapsed)
	p.emit(Event{Kind: EventTurnDone, ThreadID: threadID, Score: validation.ConfidenceScore, Validated: validation.IsValidated})

	return &Turn{
		ThreadID:   threadID,
		Research:   research,
		Validation: validation,
		State:      state,
		Duration:   elapsed,
	}, nil
}

// History returns the persisted transcript for a thread, nil on cold start.
func (p *Pipeline) History(ctx context.Context, threadID string) ([]conversation.Message, error) {
	state, err := p.store.Load(ctx, threadID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return state.Messages, nil
}
