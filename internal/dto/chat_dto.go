package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateChatRequest struct {
	Name string `json:"name" validate:"omitempty,max=255"`
}

type UpdateChatRequest struct {
	Name     *string `json:"name" validate:"omitempty,min=1,max=255"`
	IsPinned *bool   `json:"is_pinned"`
}

// PageRequest is an optional window over message history. A zero Limit
// means the full history.
type PageRequest struct {
	Limit  int `query:"limit" validate:"omitempty,min=1,max=500"`
	Offset int `query:"offset" validate:"omitempty,min=0"`
}

type ChatResponse struct {
	Id        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	IsPinned  bool      `json:"is_pinned"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type MessageResponse struct {
	Id          uuid.UUID  `json:"id"`
	ChatId      uuid.UUID  `json:"chat_id"`
	SenderId    *uuid.UUID `json:"sender_id"`
	Content     string     `json:"content"`
	MessageType string     `json:"message_type"`
	IsEdited    bool       `json:"is_edited"`
	CreatedAt   time.Time  `json:"created_at"`
}

// GenerateReplyMessage is the payload the relay hands to the generation
// service over the in-process bus.
type GenerateReplyMessage struct {
	ChatId uuid.UUID `json:"chat_id"`
	Prompt string    `json:"prompt"`
}
