// Package store provides the key-value persistence used by the collector:
// a generic KV interface with Redis and in-memory implementations, plus
// typed stores for bookmarks and settings on top of it.
package store

import (
	"context"
	"time"
)

// Storage keys. Every reader tolerates an absent key and falls back to a
// default value.
const (
	KeyBookmarkedJobs = "bookmarkedJobs"
	KeySettings       = "settings"
	KeyClerkAuth      = "clerkAuth"
	KeyLastAuthError  = "lastAuthError"
	KeyUserProfile    = "userProfile"
)

// KV is the generic asynchronous key-value collaborator. Access is
// read-modify-write without transactions; concurrent writers race with
// last-writer-wins semantics, which callers must tolerate.
type KV interface {
	// Get returns the stored value and whether the key existed.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value. A zero ttl means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete removes the key; deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}

// Events publishes domain events for interested consumers. Publishing is
// fire-and-forget; failures are logged by callers, never fatal.
type Events interface {
	Publish(ctx context.Context, channel string, payload any) error
}

// NopEvents discards all events.
type NopEvents struct{}

// Publish implements Events.
func (NopEvents) Publish(context.Context, string, any) error { return nil }
