package entity

import (
	"time"

	"github.com/google/uuid"
)

type Message struct {
	Id              uuid.UUID
	ChatId          uuid.UUID
	SenderId        *uuid.UUID
	Content         string
	MessageType     string
	IsEdited        bool
	DeletedForOwner bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsFromAI reports whether the message was authored by the generation
// engine rather than a user.
func (m *Message) IsFromAI() bool {
	return m.SenderId == nil
}
