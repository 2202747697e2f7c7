package message

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
)

type Message struct {
	ID        uint64         `json:"id" gorm:"primaryKey"`
	Content   string         `json:"content" gorm:"type:text;not null"`
	UserID    uint64         `json:"userId" gorm:"not null;index"`
	CreatedAt time.Time      `json:"createdAt" gorm:"index"`
	UpdatedAt time.Time      `json:"updatedAt" gorm:"index"`
	DeletedAt gorm.DeletedAt `json:"deletedAt" gorm:"index"`
	User      *Author        `json:"user,omitempty" gorm:"foreignKey:UserID;-:migration"`
}

// Author is the slice of a user row that is published with messages.
type Author struct {
	ID        uint64 `json:"-"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

func (Author) TableName() string {
	return "users"
}

type Status string

const (
	StatusNew     Status = "new"
	StatusUpdated Status = "updated"
	StatusDeleted Status = "deleted"
)

// ClassifiedMessage is a message tagged with how it changed relative to a
// caller's cursor. It only exists in delta responses.
type ClassifiedMessage struct {
	Message
	Status Status `json:"status"`
}

type WriteMessageRequest struct {
	MessageContent string `json:"messageContent"`
}

type UpdateMessageRequest struct {
	MessageID      FlexibleID `json:"messageId"`
	MessageContent string     `json:"messageContent"`
}

// FlexibleID accepts a message id sent either as a JSON number or as a
// numeric string; browsers read ids back out of element attributes.
type FlexibleID uint64

func (f *FlexibleID) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" || raw == "" {
		*f = 0
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		raw = strings.TrimSpace(s)
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid message id %q", raw)
	}
	*f = FlexibleID(v)
	return nil
}

type MessagesData struct {
	Messages []*Message `json:"messages"`
}

type ClassifiedMessagesData struct {
	Messages []ClassifiedMessage `json:"messages"`
}
