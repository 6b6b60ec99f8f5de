package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"quiz-tutor/internal/domain"

	"github.com/stretchr/testify/mock"
)

// --- MockQuizGenerator ---
type MockQuizGenerator struct {
	mock.Mock
}

func (m *MockQuizGenerator) GenerateQuizText(ctx context.Context, topic string) (string, error) {
	args := m.Called(ctx, topic)
	return args.String(0), args.Error(1)
}

// --- MockResultRepository ---
type MockResultRepository struct {
	mock.Mock
}

func (m *MockResultRepository) InsertResults(ctx context.Context, records []domain.ResultRecord) error {
	args := m.Called(ctx, records)
	return args.Error(0)
}

func (m *MockResultRepository) GetResults(ctx context.Context, userID, quizID string) ([]domain.ResultRecord, error) {
	args := m.Called(ctx, userID, quizID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ResultRecord), args.Error(1)
}

func (m *MockResultRepository) GetDeletedResults(ctx context.Context, userID, quizID string) ([]domain.ResultRecord, error) {
	args := m.Called(ctx, userID, quizID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ResultRecord), args.Error(1)
}

func (m *MockResultRepository) ListQuizSummaries(ctx context.Context, userID string) ([]domain.QuizSummary, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.QuizSummary), args.Error(1)
}

func (m *MockResultRepository) MoveToDeleted(ctx context.Context, userID, quizID string) (int64, error) {
	args := m.Called(ctx, userID, quizID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockResultRepository) RestoreFromDeleted(ctx context.Context, userID, quizID string) (int64, error) {
	args := m.Called(ctx, userID, quizID)
	return args.Get(0).(int64), args.Error(1)
}

// --- MockSessionStore ---
type MockSessionStore struct {
	mock.Mock
}

func (m *MockSessionStore) Create(ctx context.Context, sess domain.SessionContext) error {
	return m.Called(ctx, sess).Error(0)
}

func (m *MockSessionStore) IsActive(ctx context.Context, sess domain.SessionContext) (bool, error) {
	args := m.Called(ctx, sess)
	return args.Bool(0), args.Error(1)
}

func (m *MockSessionStore) Destroy(ctx context.Context, sessionID string) error {
	return m.Called(ctx, sessionID).Error(0)
}

func (m *MockSessionStore) SaveQuiz(ctx context.Context, sessionID string, quiz *domain.Quiz) error {
	return m.Called(ctx, sessionID, quiz).Error(0)
}

func (m *MockSessionStore) LoadQuiz(ctx context.Context, sessionID string) (*domain.Quiz, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Quiz), args.Error(1)
}

func (m *MockSessionStore) ClearQuiz(ctx context.Context, sessionID string) error {
	return m.Called(ctx, sessionID).Error(0)
}

func (m *MockSessionStore) SetPendingUndo(ctx context.Context, sessionID, quizID string) error {
	return m.Called(ctx, sessionID, quizID).Error(0)
}

func (m *MockSessionStore) PendingUndo(ctx context.Context, sessionID string) (string, error) {
	args := m.Called(ctx, sessionID)
	return args.String(0), args.Error(1)
}

func (m *MockSessionStore) ClearPendingUndo(ctx context.Context, sessionID string) error {
	return m.Called(ctx, sessionID).Error(0)
}

// --- MockReportRenderer ---
type MockReportRenderer struct {
	mock.Mock
}

func (m *MockReportRenderer) RenderReport(quizID string, records []domain.ResultRecord) ([]byte, error) {
	args := m.Called(quizID, records)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// --- MockUserRepository ---
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) CreateUser(ctx context.Context, user *domain.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetUserByID(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) UpdatePasswordHash(ctx context.Context, userID, passwordHash string) error {
	return m.Called(ctx, userID, passwordHash).Error(0)
}

// --- MockCache ---
type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockCache) Set(ctx context.Context, key string, value string, expiration time.Duration) error {
	return m.Called(ctx, key, value, expiration).Error(0)
}

func (m *MockCache) Delete(ctx context.Context, keys ...string) error {
	return m.Called(ctx, keys).Error(0)
}

func (m *MockCache) HGet(ctx context.Context, key, field string) (string, error) {
	args := m.Called(ctx, key, field)
	return args.String(0), args.Error(1)
}

func (m *MockCache) HSet(ctx context.Context, key, field, value string) error {
	return m.Called(ctx, key, field, value).Error(0)
}

func (m *MockCache) HDel(ctx context.Context, key string, fields ...string) error {
	return m.Called(ctx, key, fields).Error(0)
}

func (m *MockCache) Expire(ctx context.Context, key string, expiration time.Duration) error {
	return m.Called(ctx, key, expiration).Error(0)
}

func (m *MockCache) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// passThroughTx runs fn directly; the mocked repositories have no transaction to join.
type passThroughTx struct{}

func (passThroughTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// seqIDs hands out sortable ids: id-0001, id-0002, ...
type seqIDs struct {
	mu sync.Mutex
	n  int
}

func (s *seqIDs) NewID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("id-%04d", s.n)
}

// memCache is an in-process domain.Cache. Expiry is recorded but not enforced.
type memCache struct {
	mu      sync.Mutex
	strings map[string]string
	hashes  map[string]map[string]string
	ttls    map[string]time.Duration
}

func newMemCache() *memCache {
	return &memCache{
		strings: map[string]string{},
		hashes:  map[string]map[string]string{},
		ttls:    map[string]time.Duration{},
	}
}

func (c *memCache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.strings[key]
	if !ok {
		return "", domain.ErrCacheMiss
	}
	return v, nil
}

func (c *memCache) Set(_ context.Context, key, value string, expiration time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.strings[key] = value
	c.ttls[key] = expiration
	return nil
}

func (c *memCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.strings, k)
		delete(c.hashes, k)
		delete(c.ttls, k)
	}
	return nil
}

func (c *memCache) HGet(_ context.Context, key, field string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.hashes[key][field]
	if !ok {
		return "", domain.ErrCacheMiss
	}
	return v, nil
}

func (c *memCache) HSet(_ context.Context, key, field, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hashes[key] == nil {
		c.hashes[key] = map[string]string{}
	}
	c.hashes[key][field] = value
	return nil
}

func (c *memCache) HDel(_ context.Context, key string, fields ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, f := range fields {
		delete(c.hashes[key], f)
	}
	return nil
}

func (c *memCache) Expire(_ context.Context, key string, expiration time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ttls[key] = expiration
	return nil
}

func (c *memCache) Ping(context.Context) error { return nil }

var (
	_ domain.Cache              = (*memCache)(nil)
	_ domain.Cache              = (*MockCache)(nil)
	_ domain.SessionStore       = (*MockSessionStore)(nil)
	_ domain.ResultRepository   = (*MockResultRepository)(nil)
	_ domain.UserRepository     = (*MockUserRepository)(nil)
	_ domain.TransactionManager = passThroughTx{}
)
