package message

import (
	"time"

	"groupchat/internal/apperr"
)

// ChangedSince reports whether m belongs in a delta response for cursor
// since: created after it, edited after it, or deleted after it. An
// updatedAt equal to createdAt is the creation itself, not an edit.
func ChangedSince(m *Message, since time.Time) bool {
	if m.CreatedAt.After(since) {
		return true
	}
	if m.UpdatedAt.After(since) && !m.UpdatedAt.Equal(m.CreatedAt) {
		return true
	}
	return m.DeletedAt.Valid && m.DeletedAt.Time.After(since)
}

// Classify derives the delta status of m for cursor since. Precedence is
// deleted, then new, then updated, so clustered timestamps still yield
// exactly one status.
func Classify(m *Message, since time.Time) Status {
	switch {
	case m.DeletedAt.Valid:
		return StatusDeleted
	case m.CreatedAt.After(since):
		return StatusNew
	default:
		return StatusUpdated
	}
}

// CheckOwnership fails unless callerID authored m.
func CheckOwnership(m *Message, callerID uint64) error {
	if m.UserID != callerID {
		return apperr.Forbidden("The user is not the owner of the message")
	}
	return nil
}
