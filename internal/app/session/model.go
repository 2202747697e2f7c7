package session

import "time"

type Session struct {
	ID         uint64     `gorm:"primaryKey"`
	SessionKey string     `gorm:"uniqueIndex;not null"`
	UserID     uint64     `gorm:"not null;index"`
	UserAgent  *string    `gorm:"type:text"`
	StartedAt  time.Time  `gorm:"not null"`
	ExpiresAt  time.Time  `gorm:"not null;index"`
	EndedAt    *time.Time `gorm:"index"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Active reports whether the session can authenticate requests at now.
func (s *Session) Active(now time.Time) bool {
	return s.EndedAt == nil && now.Before(s.ExpiresAt)
}
