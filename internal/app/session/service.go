package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"groupchat/internal/app/user"
	"groupchat/internal/apperr"
	"groupchat/internal/providers/redis"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const cachePrefix = "session:"

type Service interface {
	Login(ctx context.Context, email, password, userAgent string) (*Session, *user.User, error)
	ResolveSession(ctx context.Context, sessionKey string) (uint64, error)
	SignOut(ctx context.Context, userID uint64) error
}

type cachedSession struct {
	UserID    uint64    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

type service struct {
	repo    Repository
	userSvc user.Service
	redisP  *redis.RedisProvider
	logger  *zap.SugaredLogger
	ttl     time.Duration
	now     func() time.Time
}

// NewService builds the session service. redisP may be nil, in which case
// every lookup goes to the database.
func NewService(repo Repository, userSvc user.Service, redisP *redis.RedisProvider, ttl time.Duration, logger *zap.Logger) Service {
	return &service{
		repo:    repo,
		userSvc: userSvc,
		redisP:  redisP,
		logger:  logger.Sugar(),
		ttl:     ttl,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *service) Login(ctx context.Context, email, password, userAgent string) (*Session, *user.User, error) {
	u, err := s.userSvc.Authenticate(ctx, email, password)
	if err != nil {
		return nil, nil, err
	}

	sessionKey, err := generateSessionKey()
	if err != nil {
		return nil, nil, apperr.Internal("failed to generate session key", err)
	}

	now := s.now()
	session := &Session{
		SessionKey: sessionKey,
		UserID:     u.ID,
		UserAgent:  &userAgent,
		StartedAt:  now,
		ExpiresAt:  now.Add(s.ttl),
	}
	if err := s.repo.CreateSession(ctx, session); err != nil {
		return nil, nil, apperr.Internal("failed to create session", err)
	}

	s.cache(ctx, session)
	s.logger.Infow("Session started", "user_id", u.ID, "session_id", session.ID)
	return session, u, nil
}

func (s *service) ResolveSession(ctx context.Context, sessionKey string) (uint64, error) {
	if sessionKey == "" {
		return 0, apperr.Unauthorized("Unauthorized request")
	}
	now := s.now()

	if s.redisP != nil {
		var cached cachedSession
		err := s.redisP.GetJSON(ctx, cachePrefix+sessionKey, &cached)
		switch {
		case err == nil && now.Before(cached.ExpiresAt):
			return cached.UserID, nil
		case err != nil && !errors.Is(err, redis.ErrCacheMiss):
			s.logger.Warnw("Session cache read failed", "error", err)
		}
	}

	session, err := s.repo.GetSessionByKey(ctx, sessionKey)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, apperr.Unauthorized("Unauthorized request")
	}
	if err != nil {
		return 0, apperr.Internal("failed to load session", err)
	}
	if !session.Active(now) {
		return 0, apperr.Unauthorized("Session expired")
	}

	s.cache(ctx, session)
	return session.UserID, nil
}

// SignOut closes every open session of the user. Cached entries are evicted
// before and after the database update; if eviction fails nothing is closed
// and the caller can retry.
func (s *service) SignOut(ctx context.Context, userID uint64) error {
	keys, err := s.repo.GetOpenSessionKeys(ctx, userID)
	if err != nil {
		return apperr.Internal("failed to list sessions", err)
	}
	if err := s.evict(ctx, keys); err != nil {
		s.logger.Warnw("Failed to evict session cache", "user_id", userID, "error", err)
		return apperr.Internal("failed to sign out", err)
	}
	if err := s.repo.CloseUserSessions(ctx, userID, s.now()); err != nil {
		return apperr.Internal("failed to close sessions", err)
	}
	// a concurrent resolve may have re-cached a key before the close landed
	if err := s.evict(ctx, keys); err != nil {
		s.logger.Errorw("Failed to evict session cache after close", "user_id", userID, "error", err)
		return apperr.Internal("failed to sign out", err)
	}

	s.logger.Infow("User signed out", "user_id", userID, "sessions_closed", len(keys))
	return nil
}

func (s *service) evict(ctx context.Context, keys []string) error {
	if s.redisP == nil || len(keys) == 0 {
		return nil
	}
	cacheKeys := make([]string, 0, len(keys))
	for _, k := range keys {
		cacheKeys = append(cacheKeys, cachePrefix+k)
	}
	return s.redisP.Del(ctx, cacheKeys...).Err()
}

func (s *service) cache(ctx context.Context, session *Session) {
	if s.redisP == nil {
		return
	}
	ttl := session.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return
	}
	entry := cachedSession{UserID: session.UserID, ExpiresAt: session.ExpiresAt}
	if err := s.redisP.SetJSON(ctx, cachePrefix+session.SessionKey, entry, ttl); err != nil {
		s.logger.Warnw("Session cache write failed", "session_id", session.ID, "error", err)
	}
}

func generateSessionKey() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("reading random bytes: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}
