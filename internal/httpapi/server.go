// Package httpapi exposes the agent pipeline over HTTP and WebSocket. The
// HTTP surface covers turns, thread listings and audio clips; the WebSocket
// surface streams per-stage events while a turn runs.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nextlevelbuilder/audioagents/internal/conversation"
	"github.com/nextlevelbuilder/audioagents/internal/pipeline"
	"github.com/nextlevelbuilder/audioagents/internal/store"
	"github.com/nextlevelbuilder/audioagents/pkg/protocol"
)

// Config holds the HTTP server settings.
type Config struct {
	// Addr is the listen address, default ":8787".
	Addr string `json:"addr"`

	// RateLimitRPM caps requests per minute per client IP. Zero disables.
	RateLimitRPM   int `json:"rateLimitRpm"`
	RateLimitBurst int `json:"rateLimitBurst"`
}

// Server serves the REST and WebSocket API over one pipeline.
type Server struct {
	cfg       Config
	pipe      *pipeline.Pipeline
	store     store.CheckpointStore
	limiter   *RateLimiter
	audio     *audioCache
	audioMIME string
	upgrader  websocket.Upgrader

	mu      sync.Mutex
	clients map[string]*Client
	seq     atomic.Int64

	// baseCtx is the server lifecycle context WebSocket clients run under.
	baseCtx    context.Context
	httpServer *http.Server
}

// NewServer wires the server over the pipeline and store. audioMIME is the
// MIME type of clips the TTS layer produces. The pipeline's OnEvent hook is
// claimed by the server for WebSocket broadcasting.
func NewServer(cfg Config, pipe *pipeline.Pipeline, st store.CheckpointStore, audioMIME string) *Server {
	if cfg.Addr == "" {
		cfg.Addr = ":8787"
	}
	if audioMIME == "" {
		audioMIME = "audio/mpeg"
	}
	s := &Server{
		cfg:       cfg,
		pipe:      pipe,
		store:     st,
		limiter:   NewRateLimiter(cfg.RateLimitRPM, cfg.RateLimitBurst),
		audio:     newAudioCache(),
		audioMIME: audioMIME,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		clients: make(map[string]*Client),
		baseCtx: context.Background(),
	}
	pipe.OnEvent = s.broadcastPipelineEvent
	return s
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("POST /api/turn", s.limited(s.handleTurn))
	mux.HandleFunc("GET /api/threads", s.limited(s.handleThreads))
	mux.HandleFunc("GET /api/users", s.limited(s.handleUsers))
	mux.HandleFunc("GET /api/topics", s.limited(s.handleTopics))
	mux.HandleFunc("GET /api/history", s.limited(s.handleHistory))
	mux.HandleFunc("GET /api/audio/{id}", s.handleAudio)
	mux.HandleFunc("GET /ws", s.handleWS)
	return mux
}

// Start runs the HTTP server until the context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	s.baseCtx = ctx
	s.httpServer = &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", s.cfg.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.shutdown()
		return nil
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}
}

func (s *Server) shutdown() {
	s.broadcast(protocol.NewEvent(protocol.EventShutdown, nil))

	s.mu.Lock()
	for _, c := range s.clients {
		c.Close()
	}
	s.clients = make(map[string]*Client)
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		slog.Warn("http shutdown", "error", err)
	}
}

// Reconfigure applies reloadable settings to a running server. The listen
// address is fixed for the server's lifetime.
func (s *Server) Reconfigure(cfg Config) {
	s.limiter.SetLimits(cfg.RateLimitRPM, cfg.RateLimitBurst)
}

// limited wraps a handler with the per-IP rate limiter.
func (s *Server) limited(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow(clientIP(r)) {
			writeError(w, http.StatusTooManyRequests, "rate limited")
			return
		}
		next(w, r)
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// turnRequest is the POST /api/turn body.
type turnRequest struct {
	User    string `json:"user"`
	Topic   string `json:"topic"`
	Message string `json:"message"`
}

// turnResponse is the POST /api/turn reply. Audio clips are referenced by
// URL, fetched separately from the audio endpoint.
type turnResponse struct {
	ThreadID string `json:"thread_id"`

	Research struct {
		Content      string `json:"content"`
		AudioSummary string `json:"audio_summary,omitempty"`
		AudioURL     string `json:"audio_url,omitempty"`
	} `json:"research"`

	Validation struct {
		Assessment      string `json:"assessment"`
		ConfidenceScore int    `json:"confidence_score"`
		IsValidated     bool   `json:"is_validated"`
		AudioSummary    string `json:"audio_summary,omitempty"`
		AudioURL        string `json:"audio_url,omitempty"`
	} `json:"validation"`

	DurationMs int64 `json:"duration_ms"`
}

func (s *Server) handleTurn(w http.ResponseWriter, r *http.Request) {
	var req turnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	threadID := store.NormalizeThreadID(req.User, req.Topic)
	turn, err := s.pipe.Run(r.Context(), threadID, req.Message)
	if err != nil {
		slog.Error("turn failed", "thread", threadID, "error", err)
		s.broadcast(protocol.NewEvent(protocol.EventTurn, protocol.TurnPayload{
			Kind:     protocol.TurnEventFailed,
			ThreadID: threadID,
			Error:    err.Error(),
		}))
		writeError(w, http.StatusBadGateway, "turn failed: "+err.Error())
		return
	}

	var resp turnResponse
	resp.ThreadID = turn.ThreadID
	resp.Research.Content = turn.Research.Content
	resp.Research.AudioSummary = turn.Research.AudioSummary
	resp.Research.AudioURL = s.audioURL(turn.Research.Audio)
	resp.Validation.Assessment = turn.Validation.Assessment
	resp.Validation.ConfidenceScore = turn.Validation.ConfidenceScore
	resp.Validation.IsValidated = turn.Validation.IsValidated
	resp.Validation.AudioSummary = turn.Validation.AudioSummary
	resp.Validation.AudioURL = s.audioURL(turn.Validation.Audio)
	resp.DurationMs = turn.Duration.Milliseconds()

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) audioURL(data []byte) string {
	id := s.audio.Put(data, s.audioMIME)
	if id == "" {
		return ""
	}
	return "/api/audio/" + id
}

func (s *Server) handleThreads(w http.ResponseWriter, r *http.Request) {
	ids, err := s.store.ListThreadIDs(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"threads": ids})
}

func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request) {
	ids, err := s.store.ListThreadIDs(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": store.ListUsers(ids)})
}

func (s *Server) handleTopics(w http.ResponseWriter, r *http.Request) {
	user := r.URL.Query().Get("user")
	if user == "" {
		writeError(w, http.StatusBadRequest, "user is required")
		return
	}
	ids, err := s.store.ListThreadIDs(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"topics": store.ListTopicsForUser(ids, user)})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	threadID := store.NormalizeThreadID(r.URL.Query().Get("user"), r.URL.Query().Get("topic"))
	msgs, err := s.pipe.History(r.Context(), threadID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if msgs == nil {
		msgs = []conversation.Message{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"thread_id": threadID, "messages": msgs})
}

func (s *Server) handleAudio(w http.ResponseWriter, r *http.Request) {
	data, mime, ok := s.audio.Get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "audio clip not found")
		return
	}
	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "private, max-age=900")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	if !s.limiter.Allow(clientIP(r)) {
		writeError(w, http.StatusTooManyRequests, "rate limited")
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := NewClient(conn, s)
	s.mu.Lock()
	s.clients[client.ID()] = client
	s.mu.Unlock()
	slog.Info("websocket client connected", "client", client.ID())

	// The connection outlives this handler and net/http cancels r.Context()
	// once ServeHTTP returns, so the client runs under the server lifecycle.
	ctx, cancel := context.WithCancel(s.baseCtx)
	go func() {
		defer cancel()
		client.Run(ctx)
		s.mu.Lock()
		delete(s.clients, client.ID())
		s.mu.Unlock()
		slog.Info("websocket client disconnected", "client", client.ID())
	}()
}

// broadcast sends an event frame to every connected WebSocket client.
func (s *Server) broadcast(ev *protocol.EventFrame) {
	ev.Seq = s.seq.Add(1)

	s.mu.Lock()
	clients := make([]*Client, 0, len(s.clients))
	for _, c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.Unlock()

	for _, c := range clients {
		c.SendEvent(*ev)
	}
}

// broadcastPipelineEvent translates pipeline stage events to wire events,
// swapping inline audio bytes for clip URLs.
func (s *Server) broadcastPipelineEvent(ev pipeline.Event) {
	payload := protocol.TurnPayload{
		Kind:         string(ev.Kind),
		ThreadID:     ev.ThreadID,
		Agent:        ev.Agent,
		Text:         ev.Text,
		AudioSummary: ev.AudioSummary,
		AudioURL:     s.audioURL(ev.Audio),
		Score:        ev.Score,
		Validated:    ev.Validated,
	}
	s.broadcast(protocol.NewEvent(protocol.EventTurn, payload))
}
