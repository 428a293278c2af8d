package cmd

import (
	"fmt"

	"github.com/nextlevelbuilder/audioagents/internal/agents"
	"github.com/nextlevelbuilder/audioagents/internal/config"
	"github.com/nextlevelbuilder/audioagents/internal/conversation"
	"github.com/nextlevelbuilder/audioagents/internal/pipeline"
	"github.com/nextlevelbuilder/audioagents/internal/providers"
	"github.com/nextlevelbuilder/audioagents/internal/search"
	"github.com/nextlevelbuilder/audioagents/internal/store"
	"github.com/nextlevelbuilder/audioagents/internal/tts"
)

// app bundles everything a shell needs to run turns. validator and ctxMgr
// are kept separately so a config reload can retune them live.
type app struct {
	cfg       *config.Config
	pipe      *pipeline.Pipeline
	store     store.CheckpointStore
	tts       *tts.Manager
	validator *agents.Validator
	ctxMgr    *conversation.ContextManager
}

// buildApp wires the pipeline from configuration. The caller owns the
// returned store and must Close it.
func buildApp(cfg *config.Config) (*app, error) {
	st, err := store.Open(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	speaker, err := tts.NewManager(cfg.TTS)
	if err != nil {
		st.Close()
		return nil, err
	}

	llm := providers.NewOpenAIClient(cfg.LLM)
	searcher := search.NewService(cfg.SearchProvider(), cfg.Search.MaxResults)

	researcher := agents.NewResearcher(searcher, speaker, llm)
	validator := agents.NewValidator(speaker, llm, cfg.Validator.ConfidenceThreshold)

	ctxMgr := conversation.NewContextManager(
		llm,
		conversation.NewTokenEstimator(cfg.LLM.Model),
		cfg.Context.MaxExchanges,
		cfg.Context.MaxTokens,
	)

	return &app{
		cfg:       cfg,
		pipe:      pipeline.New(st, researcher, validator, ctxMgr),
		store:     st,
		tts:       speaker,
		validator: validator,
		ctxMgr:    ctxMgr,
	}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}
