package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"quiz-tutor/internal/cache"
	"quiz-tutor/internal/domain"
	"quiz-tutor/internal/logger"

	"go.uber.org/zap"
)

// Session state lives in one hash per session so logout is a single delete and every write,
// or liveness check, slides the expiry of all fields together.
const (
	sessionFieldUser = "user"
	sessionFieldQuiz = "quiz"
	sessionFieldUndo = "undo"
)

// cacheSessionStore implements domain.SessionStore on a domain.Cache.
type cacheSessionStore struct {
	cache domain.Cache
	ttl   time.Duration
}

// NewSessionStore creates a session store whose entries expire ttl after their last use.
func NewSessionStore(c domain.Cache, ttl time.Duration) domain.SessionStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &cacheSessionStore{cache: c, ttl: ttl}
}

func (s *cacheSessionStore) key(sessionID string) string {
	return cache.GenerateCacheKey("session", "state", sessionID)
}

func (s *cacheSessionStore) put(ctx context.Context, sessionID, field, value string) error {
	key := s.key(sessionID)
	if err := s.cache.HSet(ctx, key, field, value); err != nil {
		return fmt.Errorf("failed to store session %s: %w", field, err)
	}
	if err := s.cache.Expire(ctx, key, s.ttl); err != nil {
		return fmt.Errorf("failed to refresh session expiry: %w", err)
	}
	return nil
}

func (s *cacheSessionStore) get(ctx context.Context, sessionID, field string) (string, bool, error) {
	val, err := s.cache.HGet(ctx, s.key(sessionID), field)
	if err != nil {
		if errors.Is(err, domain.ErrCacheMiss) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read session %s: %w", field, err)
	}
	return val, true, nil
}

func (s *cacheSessionStore) Create(ctx context.Context, sess domain.SessionContext) error {
	return s.put(ctx, sess.SessionID, sessionFieldUser, sess.UserID)
}

// IsActive reports whether the session exists and belongs to sess.UserID. An active session's
// expiry is pushed back by ttl.
func (s *cacheSessionStore) IsActive(ctx context.Context, sess domain.SessionContext) (bool, error) {
	owner, ok, err := s.get(ctx, sess.SessionID, sessionFieldUser)
	if err != nil || !ok {
		return false, err
	}
	if owner != sess.UserID {
		return false, nil
	}
	if err := s.cache.Expire(ctx, s.key(sess.SessionID), s.ttl); err != nil {
		logger.Get().Warn("Failed to refresh session expiry", zap.String("sessionID", sess.SessionID), zap.Error(err))
	}
	return true, nil
}

func (s *cacheSessionStore) Destroy(ctx context.Context, sessionID string) error {
	if err := s.cache.Delete(ctx, s.key(sessionID)); err != nil {
		return fmt.Errorf("failed to destroy session: %w", err)
	}
	return nil
}

func (s *cacheSessionStore) SaveQuiz(ctx context.Context, sessionID string, quiz *domain.Quiz) error {
	data, err := json.Marshal(quiz)
	if err != nil {
		return fmt.Errorf("failed to marshal quiz: %w", err)
	}
	return s.put(ctx, sessionID, sessionFieldQuiz, string(data))
}

func (s *cacheSessionStore) LoadQuiz(ctx context.Context, sessionID string) (*domain.Quiz, error) {
	data, ok, err := s.get(ctx, sessionID, sessionFieldQuiz)
	if err != nil || !ok {
		return nil, err
	}

	var quiz domain.Quiz
	if err := json.Unmarshal([]byte(data), &quiz); err != nil {
		// A corrupt entry is treated as no quiz so the user can simply start over.
		logger.Get().Warn("Discarding unreadable session quiz", zap.String("sessionID", sessionID), zap.Error(err))
		_ = s.ClearQuiz(ctx, sessionID)
		return nil, nil
	}
	return &quiz, nil
}

func (s *cacheSessionStore) ClearQuiz(ctx context.Context, sessionID string) error {
	return s.cache.HDel(ctx, s.key(sessionID), sessionFieldQuiz)
}

func (s *cacheSessionStore) SetPendingUndo(ctx context.Context, sessionID, quizID string) error {
	return s.put(ctx, sessionID, sessionFieldUndo, quizID)
}

func (s *cacheSessionStore) PendingUndo(ctx context.Context, sessionID string) (string, error) {
	quizID, _, err := s.get(ctx, sessionID, sessionFieldUndo)
	return quizID, err
}

func (s *cacheSessionStore) ClearPendingUndo(ctx context.Context, sessionID string) error {
	return s.cache.HDel(ctx, s.key(sessionID), sessionFieldUndo)
}
