package store

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/nextlevelbuilder/audioagents/internal/conversation"
)

// FileStore keeps one JSON file per thread under a directory (standalone
// mode). Thread identifiers are URL-escaped for the filename so the colon
// separator survives round-trips.
type FileStore struct {
	dir string
	mu  sync.RWMutex
}

// NewFileStore creates the storage directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (f *FileStore) pathFor(threadID string) string {
	return filepath.Join(f.dir, url.QueryEscape(threadID)+".json")
}

func (f *FileStore) Load(_ context.Context, threadID string) (*conversation.State, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	data, err := os.ReadFile(f.pathFor(threadID))
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read thread %q: %w", threadID, err)
	}

	var state conversation.State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("decode thread %q state: %w", threadID, err)
	}
	return &state, nil
}

func (f *FileStore) Save(_ context.Context, threadID string, state *conversation.State) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode thread %q state: %w", threadID, err)
	}

	// Write-then-rename so a crash mid-write never leaves a torn state file.
	path := f.pathFor(threadID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write thread %q: %w", threadID, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("commit thread %q: %w", threadID, err)
	}
	return nil
}

func (f *FileStore) ListThreadIDs(_ context.Context) ([]string, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("list store dir: %w", err)
	}

	var ids []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		id, err := url.QueryUnescape(strings.TrimSuffix(name, ".json"))
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (f *FileStore) Close() error { return nil }
