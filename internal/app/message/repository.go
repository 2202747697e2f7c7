package message

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
)

type Repository interface {
	CreateMessage(ctx context.Context, message *Message) error
	GetMessageByID(ctx context.Context, id uint64) (*Message, error)
	UpdateContent(ctx context.Context, id, userID uint64, content string, at time.Time) error
	SoftDelete(ctx context.Context, id, userID uint64, at time.Time) error
	GetAllMessages(ctx context.Context) ([]*Message, error)
	GetMessagesChangedSince(ctx context.Context, since time.Time) ([]*Message, error)
	SearchMessages(ctx context.Context, term string) ([]*Message, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func withAuthor(db *gorm.DB) *gorm.DB {
	return db.Preload("User", func(tx *gorm.DB) *gorm.DB {
		return tx.Select("id", "first_name", "last_name")
	})
}

func (r *repository) CreateMessage(ctx context.Context, message *Message) error {
	return r.db.WithContext(ctx).Create(message).Error
}

func (r *repository) GetMessageByID(ctx context.Context, id uint64) (*Message, error) {
	var message Message
	err := withAuthor(r.db.WithContext(ctx)).
		Where("messages.id = ?", id).
		First(&message).Error
	if err != nil {
		return nil, err
	}
	return &message, nil
}

// UpdateContent rewrites a live message owned by userID. A row that is
// missing, deleted or owned by someone else yields gorm.ErrRecordNotFound.
func (r *repository) UpdateContent(ctx context.Context, id, userID uint64, content string, at time.Time) error {
	result := r.db.WithContext(ctx).Model(&Message{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]interface{}{
			"content":    content,
			"updated_at": at,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SoftDelete stamps deleted_at and updated_at; the row stays so delta
// queries can report the deletion.
func (r *repository) SoftDelete(ctx context.Context, id, userID uint64, at time.Time) error {
	result := r.db.WithContext(ctx).Model(&Message{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]interface{}{
			"deleted_at": at,
			"updated_at": at,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) GetAllMessages(ctx context.Context) ([]*Message, error) {
	var messages []*Message
	err := withAuthor(r.db.WithContext(ctx)).
		Order("messages.updated_at ASC").
		Order("messages.id ASC").
		Find(&messages).Error
	return messages, err
}

func (r *repository) GetMessagesChangedSince(ctx context.Context, since time.Time) ([]*Message, error) {
	var messages []*Message
	err := withAuthor(r.db.WithContext(ctx).Unscoped()).
		Where(
			"messages.created_at > ? OR (messages.updated_at > ? AND messages.updated_at <> messages.created_at) OR messages.deleted_at > ?",
			since, since, since,
		).
		Order("messages.updated_at ASC").
		Order("messages.id ASC").
		Find(&messages).Error
	return messages, err
}

// SearchMessages does a case-insensitive substring match. LIKE wildcards in
// term are escaped so they match literally.
func (r *repository) SearchMessages(ctx context.Context, term string) ([]*Message, error) {
	var messages []*Message
	pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
	err := withAuthor(r.db.WithContext(ctx)).
		Where(`LOWER(messages.content) LIKE ? ESCAPE '\'`, pattern).
		Order("messages.updated_at ASC").
		Order("messages.id ASC").
		Find(&messages).Error
	return messages, err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
