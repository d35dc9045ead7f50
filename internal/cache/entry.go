package cache

import (
	"encoding/json"
	"time"
)

// Entry is one cached response.
type Entry struct {
	Key       string          `json:"key"`
	Data      json.RawMessage `json:"data"`
	CreatedAt time.Time       `json:"created_at"`
	ExpiresAt time.Time       `json:"expires_at"`
}

func newEntry(key string, data json.RawMessage, ttl time.Duration, now time.Time) *Entry {
	return &Entry{Key: key, Data: data, CreatedAt: now, ExpiresAt: now.Add(ttl)}
}

// ExpiredAt reports whether the entry is stale at t.
func (e *Entry) ExpiredAt(t time.Time) bool {
	return !t.Before(e.ExpiresAt)
}

// Age returns how old the entry is at t.
func (e *Entry) Age(t time.Time) time.Duration {
	return t.Sub(e.CreatedAt)
}
