package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nextlevelbuilder/audioagents/internal/agents"
	"github.com/nextlevelbuilder/audioagents/internal/conversation"
	"github.com/nextlevelbuilder/audioagents/internal/pipeline"
	"github.com/nextlevelbuilder/audioagents/internal/store"
	"github.com/nextlevelbuilder/audioagents/pkg/protocol"
)

type memStore struct {
	mu     sync.Mutex
	states map[string]*conversation.State
}

func (m *memStore) Load(_ context.Context, id string) (*conversation.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.states[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return st.Clone(), nil
}

func (m *memStore) Save(_ context.Context, id string, st *conversation.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[id] = st.Clone()
	return nil
}

func (m *memStore) ListThreadIDs(context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.states))
	for id := range m.states {
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *memStore) Close() error { return nil }

// has reports whether a thread was persisted.
func (m *memStore) has(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.states[id]
	return ok
}

// put seeds a thread directly.
func (m *memStore) put(id string, st *conversation.State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[id] = st
}

// apiLLM satisfies both agents, switching on the structured schema name.
type apiLLM struct{}

func (apiLLM) Generate(context.Context, string) (string, error) {
	return "spoken summary", nil
}

func (apiLLM) GenerateStructured(_ context.Context, _, _, schemaName string, _ json.RawMessage, out any) error {
	var doc string
	switch schemaName {
	case "validation_result":
		doc = `{"confidence_score": 85, "assessment": "solid findings"}`
	default:
		doc = `{"answer": "the answer", "key_facts": ["a fact"], "sources": ["https://example.com"]}`
	}
	return json.Unmarshal([]byte(doc), out)
}

type apiSearcher struct{}

// Search fails on a dead context the way a real HTTP-backed provider would.
func (apiSearcher) Search(ctx context.Context, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return "1. result", nil
}

type apiSpeaker struct{}

func (apiSpeaker) Speak(context.Context, string, string) ([]byte, error) {
	return []byte("fake-audio"), nil
}

func newTestServer(t *testing.T) (*Server, *memStore) {
	t.Helper()
	st := &memStore{states: map[string]*conversation.State{}}
	llm := apiLLM{}
	researcher := agents.NewResearcher(apiSearcher{}, apiSpeaker{}, llm)
	validator := agents.NewValidator(apiSpeaker{}, llm, 70)
	cm := conversation.NewContextManager(llm, conversation.NewTokenEstimator(""), 5, 1<<20)
	pipe := pipeline.New(st, researcher, validator, cm)
	return NewServer(Config{}, pipe, st, "audio/mpeg"), st
}

func TestHandleTurn(t *testing.T) {
	srv, st := newTestServer(t)
	h := srv.Handler()

	body := strings.NewReader(`{"user": "Ada", "topic": "Entropy", "message": "what is entropy"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/turn", body)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp turnResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ThreadID != "ada:entropy" {
		t.Errorf("expected normalized thread id, got %q", resp.ThreadID)
	}
	if resp.Validation.ConfidenceScore != 85 || !resp.Validation.IsValidated {
		t.Errorf("unexpected validation payload: %+v", resp.Validation)
	}
	if !strings.HasPrefix(resp.Research.AudioURL, "/api/audio/") {
		t.Errorf("expected audio URL, got %q", resp.Research.AudioURL)
	}

	if !st.has("ada:entropy") {
		t.Error("turn state was not persisted")
	}
}

func TestHandleTurn_MissingMessage(t *testing.T) {
	srv, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/turn", strings.NewReader(`{"user": "a"}`))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestAudioRoundtrip(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	req := httptest.NewRequest(http.MethodPost, "/api/turn",
		strings.NewReader(`{"message": "hello"}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var resp turnResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, resp.Research.AudioURL, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("audio fetch failed: %d", rec.Code)
	}
	if rec.Header().Get("Content-Type") != "audio/mpeg" {
		t.Errorf("wrong content type: %q", rec.Header().Get("Content-Type"))
	}
	if rec.Body.String() != "fake-audio" {
		t.Errorf("wrong clip bytes: %q", rec.Body.String())
	}
}

func TestAudioNotFound(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/audio/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestHandleHistory_ColdThread(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/history?user=x&topic=y", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		ThreadID string                 `json:"thread_id"`
		Messages []conversation.Message `json:"messages"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Messages == nil || len(resp.Messages) != 0 {
		t.Errorf("cold thread must return an empty list, got %v", resp.Messages)
	}
}

func TestUsersAndTopics(t *testing.T) {
	srv, st := newTestServer(t)
	st.put("ada:math", &conversation.State{})
	st.put("ada:physics", &conversation.State{})
	st.put("bob:golf", &conversation.State{})
	h := srv.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/users", nil))
	var users struct {
		Users []string `json:"users"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &users); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(users.Users) != 2 {
		t.Errorf("expected 2 users, got %v", users.Users)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/topics?user=ada", nil))
	var topics struct {
		Topics []string `json:"topics"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &topics); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(topics.Topics) != 2 {
		t.Errorf("expected 2 topics for ada, got %v", topics.Topics)
	}
}

// wsRequest sends a request frame and reads frames until the matching
// response arrives, skipping broadcast events along the way.
func wsRequest(t *testing.T, conn *websocket.Conn, req protocol.RequestFrame) *protocol.ResponseFrame {
	t.Helper()
	if err := conn.WriteJSON(req); err != nil {
		t.Fatalf("write %s: %v", req.Method, err)
	}
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read after %s: %v", req.Method, err)
		}
		frameType, err := protocol.ParseFrameType(data)
		if err != nil {
			t.Fatalf("parse frame: %v", err)
		}
		if frameType != protocol.FrameTypeResponse {
			continue
		}
		var resp protocol.ResponseFrame
		if err := json.Unmarshal(data, &resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if resp.ID == req.ID {
			return &resp
		}
	}
}

// The connection outlives its upgrade handler, so turns arriving later must
// still run under a live context all the way into the collaborators.
func TestWebSocketChatSend(t *testing.T) {
	srv, st := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	connected := wsRequest(t, conn, protocol.RequestFrame{
		Type: protocol.FrameTypeRequest, ID: "r1", Method: MethodConnect,
	})
	if !connected.OK {
		t.Fatalf("connect failed: %+v", connected.Error)
	}

	resp := wsRequest(t, conn, protocol.RequestFrame{
		Type: protocol.FrameTypeRequest, ID: "r2", Method: MethodChatSend,
		Params: json.RawMessage(`{"user": "Ada", "topic": "Entropy", "message": "what is entropy"}`),
	})
	if !resp.OK {
		t.Fatalf("chat.send failed: %+v", resp.Error)
	}
	payload, ok := resp.Payload.(map[string]any)
	if !ok {
		t.Fatalf("unexpected payload shape: %T", resp.Payload)
	}
	if payload["thread_id"] != "ada:entropy" {
		t.Errorf("expected normalized thread id, got %v", payload["thread_id"])
	}
	if score, _ := payload["confidence_score"].(float64); score != 85 {
		t.Errorf("expected score 85, got %v", payload["confidence_score"])
	}
	if !st.has("ada:entropy") {
		t.Error("turn state was not persisted")
	}

	history := wsRequest(t, conn, protocol.RequestFrame{
		Type: protocol.FrameTypeRequest, ID: "r3", Method: MethodHistory,
		Params: json.RawMessage(`{"user": "Ada", "topic": "Entropy"}`),
	})
	if !history.OK {
		t.Fatalf("history.get failed: %+v", history.Error)
	}
	hp, _ := history.Payload.(map[string]any)
	msgs, _ := hp["messages"].([]any)
	if len(msgs) == 0 {
		t.Error("expected history to carry the turn's messages")
	}

	threads := wsRequest(t, conn, protocol.RequestFrame{
		Type: protocol.FrameTypeRequest, ID: "r4", Method: MethodThreads,
	})
	if !threads.OK {
		t.Fatalf("threads.list failed: %+v", threads.Error)
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(60, 2)

	if !rl.Allow("ip1") || !rl.Allow("ip1") {
		t.Fatal("burst requests must pass")
	}
	if rl.Allow("ip1") {
		t.Error("request beyond burst must be limited")
	}
	if !rl.Allow("ip2") {
		t.Error("limits are per key")
	}

	disabled := NewRateLimiter(0, 0)
	for i := 0; i < 100; i++ {
		if !disabled.Allow("x") {
			t.Fatal("disabled limiter must always allow")
		}
	}
}

func TestRateLimiter_SetLimits(t *testing.T) {
	rl := NewRateLimiter(60, 5)
	if !rl.Allow("ip1") {
		t.Fatal("first request must pass")
	}

	// Tightening clamps the existing bucket without waiting for expiry.
	rl.SetLimits(60, 1)
	if !rl.Allow("ip1") {
		t.Fatal("one token must remain after the clamp")
	}
	if rl.Allow("ip1") {
		t.Error("request beyond the tightened burst must be limited")
	}

	rl.SetLimits(0, 0)
	for i := 0; i < 20; i++ {
		if !rl.Allow("ip1") {
			t.Fatal("disabling must always allow")
		}
	}
}
