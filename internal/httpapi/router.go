package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/nextlevelbuilder/audioagents/internal/conversation"
	"github.com/nextlevelbuilder/audioagents/internal/store"
	"github.com/nextlevelbuilder/audioagents/pkg/protocol"
)

// WebSocket RPC method names.
const (
	MethodConnect  = "connect"
	MethodHealth   = "health"
	MethodChatSend = "chat.send"
	MethodHistory  = "history.get"
	MethodThreads  = "threads.list"
)

// dispatch routes a WebSocket request frame to its method handler.
func (s *Server) dispatch(ctx context.Context, client *Client, req *protocol.RequestFrame) {
	slog.Debug("handling method", "method", req.Method, "client", client.id, "req_id", req.ID)

	switch req.Method {
	case MethodConnect:
		s.handleWSConnect(client, req)
	case MethodHealth:
		client.SendResponse(protocol.NewOKResponse(req.ID, map[string]any{"status": "ok"}))
	case MethodChatSend:
		s.handleWSChatSend(ctx, client, req)
	case MethodHistory:
		s.handleWSHistory(ctx, client, req)
	case MethodThreads:
		s.handleWSThreads(ctx, client, req)
	default:
		slog.Warn("unknown method", "method", req.Method, "client", client.id)
		client.SendResponse(protocol.NewErrorResponse(
			req.ID, protocol.ErrInvalidRequest, "unknown method: "+req.Method))
	}
}

func (s *Server) handleWSConnect(client *Client, req *protocol.RequestFrame) {
	client.SendResponse(protocol.NewOKResponse(req.ID, map[string]any{
		"protocol": protocol.ProtocolVersion,
		"server": map[string]any{
			"name":    "audioagents",
			"version": "0.1.0",
		},
	}))
}

// handleWSChatSend runs a full turn. Stage events stream to all clients as
// the turn progresses; the response frame carries the final outcome.
func (s *Server) handleWSChatSend(ctx context.Context, client *Client, req *protocol.RequestFrame) {
	var params struct {
		User    string `json:"user"`
		Topic   string `json:"topic"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		client.SendResponse(protocol.NewErrorResponse(req.ID, protocol.ErrInvalidRequest, "bad params: "+err.Error()))
		return
	}
	if params.Message == "" {
		client.SendResponse(protocol.NewErrorResponse(req.ID, protocol.ErrInvalidRequest, "message is required"))
		return
	}

	threadID := store.NormalizeThreadID(params.User, params.Topic)
	turn, err := s.pipe.Run(ctx, threadID, params.Message)
	if err != nil {
		slog.Error("turn failed", "thread", threadID, "error", err)
		s.broadcast(protocol.NewEvent(protocol.EventTurn, protocol.TurnPayload{
			Kind:     protocol.TurnEventFailed,
			ThreadID: threadID,
			Error:    err.Error(),
		}))
		client.SendResponse(protocol.NewErrorResponse(req.ID, protocol.ErrUnavailable, "turn failed: "+err.Error()))
		return
	}

	client.SendResponse(protocol.NewOKResponse(req.ID, map[string]any{
		"thread_id":        turn.ThreadID,
		"research":         turn.Research.Content,
		"assessment":       turn.Validation.Assessment,
		"confidence_score": turn.Validation.ConfidenceScore,
		"is_validated":     turn.Validation.IsValidated,
		"duration_ms":      turn.Duration.Milliseconds(),
	}))
}

func (s *Server) handleWSHistory(ctx context.Context, client *Client, req *protocol.RequestFrame) {
	var params struct {
		User  string `json:"user"`
		Topic string `json:"topic"`
	}
	if req.Params != nil {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			client.SendResponse(protocol.NewErrorResponse(req.ID, protocol.ErrInvalidRequest, "bad params: "+err.Error()))
			return
		}
	}

	threadID := store.NormalizeThreadID(params.User, params.Topic)
	msgs, err := s.pipe.History(ctx, threadID)
	if err != nil {
		client.SendResponse(protocol.NewErrorResponse(req.ID, protocol.ErrInternal, err.Error()))
		return
	}
	if msgs == nil {
		msgs = []conversation.Message{}
	}
	client.SendResponse(protocol.NewOKResponse(req.ID, map[string]any{
		"thread_id": threadID,
		"messages":  msgs,
	}))
}

func (s *Server) handleWSThreads(ctx context.Context, client *Client, req *protocol.RequestFrame) {
	ids, err := s.store.ListThreadIDs(ctx)
	if err != nil {
		client.SendResponse(protocol.NewErrorResponse(req.ID, protocol.ErrInternal, err.Error()))
		return
	}
	client.SendResponse(protocol.NewOKResponse(req.ID, map[string]any{"threads": ids}))
}
