package session

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Repository interface {
	CreateSession(ctx context.Context, session *Session) error
	GetSessionByKey(ctx context.Context, sessionKey string) (*Session, error)
	GetOpenSessionKeys(ctx context.Context, userID uint64) ([]string, error)
	CloseUserSessions(ctx context.Context, userID uint64, at time.Time) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateSession(ctx context.Context, session *Session) error {
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *repository) GetSessionByKey(ctx context.Context, sessionKey string) (*Session, error) {
	var session Session
	err := r.db.WithContext(ctx).Where("session_key = ?", sessionKey).First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *repository) GetOpenSessionKeys(ctx context.Context, userID uint64) ([]string, error) {
	var keys []string
	err := r.db.WithContext(ctx).Model(&Session{}).
		Where("user_id = ? AND ended_at IS NULL", userID).
		Pluck("session_key", &keys).Error
	return keys, err
}

func (r *repository) CloseUserSessions(ctx context.Context, userID uint64, at time.Time) error {
	return r.db.WithContext(ctx).Model(&Session{}).
		Where("user_id = ? AND ended_at IS NULL", userID).
		Update("ended_at", at).Error
}
