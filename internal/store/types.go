// Package store persists conversation state keyed by thread identifier.
// Two backends: SQLite (default) and plain JSON files (standalone fallback).
// The store is the sole owner of durable state; writes are whole-state,
// last-writer-wins per thread.
package store

import (
	"context"
	"errors"

	"github.com/nextlevelbuilder/audioagents/internal/conversation"
)

// ErrNotFound is returned by Load for threads with no persisted state.
// Callers treat it as a normal cold start.
var ErrNotFound = errors.New("thread not found")

// CheckpointStore is the persistence collaborator contract.
type CheckpointStore interface {
	// Load returns the persisted state for a thread, or ErrNotFound.
	Load(ctx context.Context, threadID string) (*conversation.State, error)

	// Save persists the full state for a thread, replacing any prior value.
	Save(ctx context.Context, threadID string, state *conversation.State) error

	// ListThreadIDs returns all known thread identifiers, sorted.
	ListThreadIDs(ctx context.Context) ([]string, error)

	Close() error
}

// Config selects and locates the storage backend.
type Config struct {
	// Driver: "sqlite" (default) or "file".
	Driver string `json:"driver"`

	// Path is the SQLite database path or the directory for file storage.
	Path string `json:"path"`
}
