package message

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"groupchat/internal/apperr"
	"groupchat/internal/metrics"
	"groupchat/internal/providers/redis"
	"groupchat/internal/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	allMessagesCachePrefix = "messages:all:"
	cacheGenerationKey     = "messages:gen"

	EventMessageCreated = "message_created"
	EventMessageUpdated = "message_updated"
	EventMessageDeleted = "message_deleted"
)

// ChangeEvent is published on the event bus after every successful write.
type ChangeEvent struct {
	MessageID uint64 `json:"messageId"`
	Timestamp int64  `json:"timestamp"`
}

// Service is the only writer of message state. Every mutating call takes the
// authenticated caller explicitly.
type Service interface {
	WriteMessage(ctx context.Context, callerID uint64, content string) (*Message, error)
	UpdateMessage(ctx context.Context, callerID, messageID uint64, content string) (*Message, error)
	DeleteMessage(ctx context.Context, callerID, messageID uint64) error
	GetAllMessages(ctx context.Context) ([]*Message, error)
	GetMessagesSince(ctx context.Context, since time.Time) ([]ClassifiedMessage, error)
	SearchMessages(ctx context.Context, term string) ([]*Message, error)
}

type service struct {
	repo      Repository
	redisP    *redis.RedisProvider
	eventBus  *utils.EventBus
	logger    *zap.SugaredLogger
	maxLength int
	cacheTTL  time.Duration
	now       func() time.Time
}

type Option func(*service)

// WithClock replaces the wall clock used to stamp rows.
func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

// NewService wires the message service. redisP and eventBus are optional.
func NewService(
	repo Repository,
	redisP *redis.RedisProvider,
	eventBus *utils.EventBus,
	logger *zap.Logger,
	maxLength int,
	cacheTTL time.Duration,
	opts ...Option,
) Service {
	s := &service{
		repo:      repo,
		redisP:    redisP,
		eventBus:  eventBus,
		logger:    logger.Sugar(),
		maxLength: maxLength,
		cacheTTL:  cacheTTL,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// clock returns the current time at the precision postgres stores.
func (s *service) clock() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

func (s *service) WriteMessage(ctx context.Context, callerID uint64, content string) (*Message, error) {
	normalized, err := NormalizeContent(content, s.maxLength)
	if err != nil {
		return nil, apperr.Validation("Can not send message").WithDetails(err.Error())
	}

	now := s.clock()
	message := &Message{
		Content:   normalized,
		UserID:    callerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateMessage(ctx, message); err != nil {
		return nil, apperr.Internal("failed to create message", err)
	}

	if created, err := s.repo.GetMessageByID(ctx, message.ID); err == nil {
		message = created
	} else {
		s.logger.Warnw("Failed to reload created message", "message_id", message.ID, "error", err)
	}

	s.afterChange(ctx, EventMessageCreated, message.ID, now)
	return message, nil
}

func (s *service) UpdateMessage(ctx context.Context, callerID, messageID uint64, content string) (*Message, error) {
	message, err := s.loadOwned(ctx, callerID, messageID)
	if err != nil {
		return nil, err
	}

	normalized, err := NormalizeContent(content, s.maxLength)
	if err != nil {
		return nil, apperr.Validation("Can not update message").WithDetails(err.Error())
	}

	// An edit must be observable by delta queries, which ignore rows whose
	// updatedAt equals createdAt.
	at := s.clock()
	if !at.After(message.CreatedAt) {
		at = message.CreatedAt.Add(time.Microsecond)
	}

	if err := s.repo.UpdateContent(ctx, messageID, callerID, normalized, at); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Can not find the requested message to edit/delete")
		}
		return nil, apperr.Internal("failed to update message", err)
	}

	message.Content = normalized
	message.UpdatedAt = at
	s.afterChange(ctx, EventMessageUpdated, messageID, at)
	return message, nil
}

func (s *service) DeleteMessage(ctx context.Context, callerID, messageID uint64) error {
	message, err := s.loadOwned(ctx, callerID, messageID)
	if err != nil {
		return err
	}

	at := s.clock()
	if !at.After(message.UpdatedAt) {
		at = message.UpdatedAt.Add(time.Microsecond)
	}

	if err := s.repo.SoftDelete(ctx, messageID, callerID, at); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("Can not find the requested message to edit/delete")
		}
		return apperr.Internal("failed to delete message", err)
	}

	s.afterChange(ctx, EventMessageDeleted, messageID, at)
	return nil
}

func (s *service) loadOwned(ctx context.Context, callerID, messageID uint64) (*Message, error) {
	message, err := s.repo.GetMessageByID(ctx, messageID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("Can not find the requested message to edit/delete")
	}
	if err != nil {
		return nil, apperr.Internal("failed to load message", err)
	}
	if err := CheckOwnership(message, callerID); err != nil {
		s.logger.Warnw("Rejected mutation by non-owner", "message_id", messageID, "caller_id", callerID)
		return nil, err
	}
	return message, nil
}

// GetAllMessages serves the full list from the cache generation current
// when the read started. A write bumps the generation first, so a fill that
// raced it lands under a key nobody reads again.
func (s *service) GetAllMessages(ctx context.Context) ([]*Message, error) {
	cacheKey, cached := s.cachedAll(ctx)
	if cached != nil {
		return cached, nil
	}

	messages, err := s.repo.GetAllMessages(ctx)
	if err != nil {
		return nil, apperr.Internal("Can not retrieve messages", err)
	}
	if messages == nil {
		messages = []*Message{}
	}

	if cacheKey != "" {
		if err := s.redisP.SetJSON(ctx, cacheKey, messages, s.cacheTTL); err != nil {
			s.logger.Warnw("Message cache write failed", "error", err)
		}
	}
	return messages, nil
}

// cachedAll returns the cache key for the current generation and its list,
// if any. An empty key means the cache is unavailable for this read.
func (s *service) cachedAll(ctx context.Context) (string, []*Message) {
	if s.redisP == nil {
		return "", nil
	}

	gen, err := s.redisP.GetInt64(ctx, cacheGenerationKey)
	if err != nil {
		s.logger.Warnw("Message cache generation read failed", "error", err)
		return "", nil
	}
	cacheKey := allMessagesCachePrefix + strconv.FormatInt(gen, 10)

	var cached []*Message
	err = s.redisP.GetJSON(ctx, cacheKey, &cached)
	switch {
	case err == nil:
		return cacheKey, cached
	case !errors.Is(err, redis.ErrCacheMiss):
		s.logger.Warnw("Message cache read failed", "error", err)
	}
	return cacheKey, nil
}

func (s *service) GetMessagesSince(ctx context.Context, since time.Time) ([]ClassifiedMessage, error) {
	since = since.UTC()
	rows, err := s.repo.GetMessagesChangedSince(ctx, since)
	if err != nil {
		return nil, apperr.Internal("Can not retrieve messages", err)
	}

	classified := make([]ClassifiedMessage, 0, len(rows))
	for _, row := range rows {
		if !ChangedSince(row, since) {
			continue
		}
		status := Classify(row, since)
		metrics.SyncRows.WithLabelValues(string(status)).Inc()
		classified = append(classified, ClassifiedMessage{Message: *row, Status: status})
	}
	return classified, nil
}

func (s *service) SearchMessages(ctx context.Context, term string) ([]*Message, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, apperr.Validation("Search string is required")
	}
	messages, err := s.repo.SearchMessages(ctx, term)
	if err != nil {
		return nil, apperr.Internal("No messages found", err)
	}
	if messages == nil {
		messages = []*Message{}
	}
	return messages, nil
}

func (s *service) afterChange(ctx context.Context, event string, messageID uint64, at time.Time) {
	if s.redisP != nil {
		if err := s.redisP.Incr(ctx, cacheGenerationKey).Err(); err != nil {
			s.logger.Warnw("Failed to invalidate message cache", "error", err)
		}
	}
	if s.eventBus != nil {
		s.eventBus.Publish(event, ChangeEvent{MessageID: messageID, Timestamp: at.Unix()})
	}
	s.logger.Debugw("Message changed", "event", event, "message_id", messageID)
}
