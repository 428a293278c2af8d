package store

import (
	"regexp"
	"sort"
	"strings"
)

// Thread identifiers name one (user, topic) conversation as
// "{normalized-user}:{normalized-topic}". The format is parsed elsewhere,
// so normalization must be deterministic and idempotent.

const (
	DefaultUser  = "default-user"
	DefaultTopic = "general"

	maxTopicLen = 50
)

var invalidIDChars = regexp.MustCompile(`[^a-z0-9_-]`)

// normalizeComponent lowercases, trims, turns whitespace runs into hyphens,
// and strips everything outside [a-z0-9_-].
func normalizeComponent(s string) string {
	lower := strings.ToLower(strings.TrimSpace(s))
	hyphenated := strings.Join(strings.Fields(lower), "-")
	return invalidIDChars.ReplaceAllString(hyphenated, "")
}

// NormalizeThreadID builds the thread identifier for a (user, topic) pair.
// Empty components after normalization fall back to safe defaults; the
// result is always a valid key.
func NormalizeThreadID(user, topic string) string {
	u := normalizeComponent(user)
	if u == "" {
		u = DefaultUser
	}

	t := normalizeComponent(topic)
	if len(t) > maxTopicLen {
		t = t[:maxTopicLen]
	}
	if t == "" {
		t = DefaultTopic
	}

	return u + ":" + t
}

// ParseThreadID splits a thread identifier into (user, topic) on the first
// colon. Returns ok=false for identifiers without a colon.
func ParseThreadID(threadID string) (user, topic string, ok bool) {
	user, topic, ok = strings.Cut(threadID, ":")
	if !ok {
		return "", "", false
	}
	return user, topic, true
}

// ListUsers extracts the sorted set of unique user names from thread IDs.
func ListUsers(threadIDs []string) []string {
	seen := make(map[string]struct{})
	for _, id := range threadIDs {
		if user, _, ok := ParseThreadID(id); ok {
			seen[user] = struct{}{}
		}
	}
	users := make([]string, 0, len(seen))
	for u := range seen {
		users = append(users, u)
	}
	sort.Strings(users)
	return users
}

// ListTopicsForUser extracts the sorted topics belonging to a user,
// matching case-insensitively.
func ListTopicsForUser(threadIDs []string, user string) []string {
	want := strings.ToLower(user)
	seen := make(map[string]struct{})
	for _, id := range threadIDs {
		u, topic, ok := ParseThreadID(id)
		if ok && strings.ToLower(u) == want {
			seen[topic] = struct{}{}
		}
	}
	topics := make([]string, 0, len(seen))
	for t := range seen {
		topics = append(topics, t)
	}
	sort.Strings(topics)
	return topics
}
