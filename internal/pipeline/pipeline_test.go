package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/nextlevelbuilder/audioagents/internal/agents"
	"github.com/nextlevelbuilder/audioagents/internal/conversation"
	"github.com/nextlevelbuilder/audioagents/internal/store"
)

type memStore struct {
	states  map[string]*conversation.State
	saveErr error
	saves   int
}

func newMemStore() *memStore {
	return &memStore{states: map[string]*conversation.State{}}
}

func (m *memStore) Load(_ context.Context, threadID string) (*conversation.State, error) {
	st, ok := m.states[threadID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return st.Clone(), nil
}

func (m *memStore) Save(_ context.Context, threadID string, st *conversation.State) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.states[threadID] = st.Clone()
	return nil
}

func (m *memStore) ListThreadIDs(context.Context) ([]string, error) { return nil, nil }
func (m *memStore) Close() error                                    { return nil }

type fakeResearcher struct {
	err error
}

func (f *fakeResearcher) Process(_ context.Context, msgs []conversation.Message) (*agents.Response, error) {
	if f.err != nil {
		return nil, f.err
	}
	q := msgs[len(msgs)-1].Content
	return &agents.Response{
		Content:      "findings for: " + q,
		AudioSummary: "spoken findings",
		Query:        q,
	}, nil
}

type fakeValidator struct {
	scores []int
	calls  int
	priors [][]conversation.ValidationRecord
	err    error
}

func (f *fakeValidator) Validate(_ context.Context, _ []conversation.Message, prior []conversation.ValidationRecord) (*agents.Validation, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.priors = append(f.priors, append([]conversation.ValidationRecord(nil), prior...))
	score := f.scores[f.calls%len(f.scores)]
	f.calls++
	assessment := fmt.Sprintf("assessment #%d", f.calls)
	return &agents.Validation{
		Response:        agents.Response{Content: assessment, AudioSummary: "spoken"},
		ConfidenceScore: score,
		Assessment:      assessment,
		IsValidated:     score >= 70,
	}, nil
}

type summaryLLM struct{}

func (summaryLLM) Generate(context.Context, string) (string, error) {
	return "earlier discussion condensed", nil
}

func newTestPipeline(st store.CheckpointStore, r researchAgent, v validationAgent, maxExchanges int) *Pipeline {
	cm := conversation.NewContextManager(summaryLLM{}, conversation.NewTokenEstimator(""), maxExchanges, 1<<20)
	p := New(st, nil, nil, cm)
	p.researcher = r
	p.validator = v
	return p
}

func TestRun_ColdStartPersistsFullTurn(t *testing.T) {
	st := newMemStore()
	p := newTestPipeline(st, &fakeResearcher{}, &fakeValidator{scores: []int{82}}, 5)

	turn, err := p.Run(context.Background(), "ada:general", "what is entropy")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if turn.Validation.ConfidenceScore != 82 || !turn.State.IsValidated {
		t.Errorf("expected validated turn, got %+v", turn.Validation)
	}
	if got := len(turn.State.Messages); got != 3 {
		t.Fatalf("expected user+researcher+validator messages, got %d", got)
	}
	if turn.State.Messages[0].Role != conversation.RoleUser {
		t.Errorf("first message must be the user input")
	}
	if !strings.Contains(turn.State.ResearchResult, "what is entropy") {
		t.Errorf("research result not recorded: %q", turn.State.ResearchResult)
	}

	persisted, err := st.Load(context.Background(), "ada:general")
	if err != nil {
		t.Fatalf("state not persisted: %v", err)
	}
	if len(persisted.Messages) != 3 || persisted.Metadata.ConfidenceScore != 82 {
		t.Errorf("persisted state incomplete: %+v", persisted.Metadata)
	}
	if persisted.Metadata.Agent != "validator" || persisted.Metadata.Query != "what is entropy" {
		t.Errorf("turn scalars not recorded: %+v", persisted.Metadata)
	}
}

func TestRun_ThreadsValidationHistoryAcrossTurns(t *testing.T) {
	st := newMemStore()
	v := &fakeValidator{scores: []int{55, 68, 81}}
	p := newTestPipeline(st, &fakeResearcher{}, v, 50)

	ctx := context.Background()
	for i, q := range []string{"first", "second", "third"} {
		if _, err := p.Run(ctx, "t:1", q); err != nil {
			t.Fatalf("turn %d: %v", i+1, err)
		}
	}

	if len(v.priors[0]) != 0 {
		t.Errorf("first turn must see empty history, got %v", v.priors[0])
	}
	if len(v.priors[1]) != 1 || v.priors[1][0].ConfidenceScore != 55 {
		t.Errorf("second turn must see first outcome, got %v", v.priors[1])
	}
	if len(v.priors[2]) != 2 {
		t.Fatalf("third turn must see a two-entry window, got %v", v.priors[2])
	}
	if v.priors[2][0].ConfidenceScore != 55 || v.priors[2][1].ConfidenceScore != 68 {
		t.Errorf("window must be most-recent-last, got %v", v.priors[2])
	}

	final := st.states["t:1"]
	if len(final.Metadata.ValidationHistory) != 2 {
		t.Errorf("persisted window must be capped at 2, got %d", len(final.Metadata.ValidationHistory))
	}
	if final.Metadata.ValidationHistory[1].ConfidenceScore != 81 {
		t.Errorf("latest outcome must be last, got %v", final.Metadata.ValidationHistory)
	}
}

func TestRun_CompactsLongTranscripts(t *testing.T) {
	st := newMemStore()
	p := newTestPipeline(st, &fakeResearcher{}, &fakeValidator{scores: []int{80}}, 2)

	ctx := context.Background()
	for i := 0; i < 4; i++ {
		if _, err := p.Run(ctx, "t:long", fmt.Sprintf("question %d", i)); err != nil {
			t.Fatalf("turn %d: %v", i, err)
		}
	}

	msgs := st.states["t:long"].Messages
	if msgs[0].Role != conversation.RoleSystem {
		t.Fatalf("expected leading summary message, got role %q", msgs[0].Role)
	}
	if !strings.HasPrefix(msgs[0].Content, conversation.SummaryPrefix) {
		t.Errorf("summary message missing prefix: %q", msgs[0].Content)
	}
	if got := conversation.CountExchanges(msgs); got > 2 {
		t.Errorf("compacted transcript must keep at most 2 exchanges, got %d", got)
	}
}

func TestRun_FailedTurnLeavesStateUntouched(t *testing.T) {
	st := newMemStore()
	p := newTestPipeline(st, &fakeResearcher{}, &fakeValidator{scores: []int{75}}, 50)

	ctx := context.Background()
	if _, err := p.Run(ctx, "t:safe", "seed"); err != nil {
		t.Fatalf("seed turn: %v", err)
	}
	before := len(st.states["t:safe"].Messages)

	p.validator = &fakeValidator{err: errors.New("model unavailable")}
	if _, err := p.Run(ctx, "t:safe", "doomed"); err == nil {
		t.Fatal("expected validator failure to abort the turn")
	}

	if got := len(st.states["t:safe"].Messages); got != before {
		t.Errorf("failed turn must not persist, had %d messages, now %d", before, got)
	}
	if st.saves != 1 {
		t.Errorf("expected exactly one save, got %d", st.saves)
	}
}

func TestRun_EmitsStageEvents(t *testing.T) {
	st := newMemStore()
	p := newTestPipeline(st, &fakeResearcher{}, &fakeValidator{scores: []int{90}}, 50)

	var kinds []EventKind
	p.OnEvent = func(ev Event) { kinds = append(kinds, ev.Kind) }

	if _, err := p.Run(context.Background(), "t:ev", "hello"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []EventKind{EventUserMessage, EventResearch, EventValidation, EventTurnDone}
	if len(kinds) != len(want) {
		t.Fatalf("expected %d events, got %v", len(want), kinds)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("event %d: expected %q, got %q", i, want[i], kinds[i])
		}
	}
}
