package domain

import (
	"context"
	"time"
)

// CacheError represents an error originating from the cache.
type CacheError string

func (e CacheError) Error() string {
	return string(e)
}

// ErrCacheMiss is returned when a key is not found in the cache.
const ErrCacheMiss = CacheError("cache: key not found")

// Cache defines the interface (port) for caching operations.
// Implementations of this interface will be the adapters (e.g., RedisCacheAdapter).
type Cache interface {
	// Get retrieves an item from the cache.
	// It returns ErrCacheMiss if the key is not found.
	Get(ctx context.Context, key string) (string, error)

	// Set adds an item to the cache, overwriting an existing item if one exists.
	// If expiration is 0, the item is cached indefinitely.
	Set(ctx context.Context, key string, value string, expiration time.Duration) error

	// Delete removes items from the cache.
	// It should not return an error if a key is not found.
	Delete(ctx context.Context, keys ...string) error

	// HGet retrieves one field of a hash. It returns ErrCacheMiss if the key or field is absent.
	HGet(ctx context.Context, key, field string) (string, error)

	// HSet sets one field of a hash.
	HSet(ctx context.Context, key, field, value string) error

	// HDel removes fields from a hash.
	HDel(ctx context.Context, key string, fields ...string) error

	// Expire sets an expiration time on key.
	Expire(ctx context.Context, key string, expiration time.Duration) error

	// Ping checks the health of the cache service.
	Ping(ctx context.Context) error
}

// SessionStore holds per-session ephemeral state: session liveness, at most one in-progress
// quiz and at most one pending-undo quiz id.
type SessionStore interface {
	Create(ctx context.Context, sess SessionContext) error
	IsActive(ctx context.Context, sess SessionContext) (bool, error)
	Destroy(ctx context.Context, sessionID string) error

	SaveQuiz(ctx context.Context, sessionID string, quiz *Quiz) error
	// LoadQuiz returns (nil, nil) when no quiz is stored.
	LoadQuiz(ctx context.Context, sessionID string) (*Quiz, error)
	ClearQuiz(ctx context.Context, sessionID string) error

	SetPendingUndo(ctx context.Context, sessionID, quizID string) error
	// PendingUndo returns "" when nothing is pending.
	PendingUndo(ctx context.Context, sessionID string) (string, error)
	ClearPendingUndo(ctx context.Context, sessionID string) error
}
