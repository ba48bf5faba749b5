package service

import (
	"context"
	"encoding/json"
	"time"

	"annoforge/internal/cache"
	"annoforge/internal/domain"
	"annoforge/internal/logger"

	"go.uber.org/zap"
)

// SessionStore persists in-progress annotation sessions behind the generic
// cache port, so the same code runs over the in-memory store and Redis.
type SessionStore interface {
	Get(ctx context.Context, id string) (*domain.Session, error)
	Put(ctx context.Context, session *domain.Session) error
}

type cacheSessionStore struct {
	cache domain.Cache
	ttl   time.Duration
}

// NewSessionStore creates a SessionStore over the given cache. Sessions are
// stored as JSON under a namespaced key and expire after ttl.
func NewSessionStore(c domain.Cache, ttl time.Duration) SessionStore {
	return &cacheSessionStore{cache: c, ttl: ttl}
}

func (s *cacheSessionStore) key(id string) string {
	return cache.GenerateCacheKey("annotation", "session", id)
}

// Get loads a session, translating a cache miss to a session-not-found
// domain error.
func (s *cacheSessionStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	raw, err := s.cache.Get(ctx, s.key(id))
	if err != nil {
		if err == domain.ErrCacheMiss {
			return nil, domain.NewSessionNotFoundError(id)
		}
		return nil, domain.NewInternalError("failed to load session", err)
	}
	var session domain.Session
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		logger.Get().Error("Failed to decode stored session",
			zap.String("session_id", id),
			zap.Error(err),
		)
		return nil, domain.NewInternalError("failed to decode session", err)
	}
	return &session, nil
}

// Put stores the session, refreshing its TTL.
func (s *cacheSessionStore) Put(ctx context.Context, session *domain.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return domain.NewInternalError("failed to encode session", err)
	}
	if err := s.cache.Set(ctx, s.key(session.ID), string(data), s.ttl); err != nil {
		return domain.NewInternalError("failed to store session", err)
	}
	return nil
}
