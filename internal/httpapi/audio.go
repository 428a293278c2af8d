package httpapi

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// audioTTL bounds how long a synthesized clip stays servable after the turn
// that produced it.
const audioTTL = 15 * time.Minute

type audioClip struct {
	data     []byte
	mimeType string
	stored   time.Time
}

// audioCache holds synthesized speech so HTTP clients can fetch clips by ID
// instead of carrying inline bytes in every event frame.
type audioCache struct {
	mu    sync.RWMutex
	clips map[string]audioClip
}

func newAudioCache() *audioCache {
	c := &audioCache{clips: make(map[string]audioClip)}
	go c.sweepLoop()
	return c
}

// Put stores a clip and returns its ID. Empty data stores nothing.
func (c *audioCache) Put(data []byte, mimeType string) string {
	if len(data) == 0 {
		return ""
	}
	id := uuid.NewString()
	c.mu.Lock()
	c.clips[id] = audioClip{data: data, mimeType: mimeType, stored: time.Now()}
	c.mu.Unlock()
	return id
}

// Get returns the clip bytes and MIME type, or false if absent or expired.
func (c *audioCache) Get(id string) ([]byte, string, bool) {
	c.mu.RLock()
	clip, ok := c.clips[id]
	c.mu.RUnlock()
	if !ok || time.Since(clip.stored) > audioTTL {
		return nil, "", false
	}
	return clip.data, clip.mimeType, true
}

func (c *audioCache) sweepLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		cutoff := time.Now().Add(-audioTTL)
		c.mu.Lock()
		for id, clip := range c.clips {
			if clip.stored.Before(cutoff) {
				delete(c.clips, id)
			}
		}
		c.mu.Unlock()
	}
}
