package contract

import (
	"context"

	"ai-companion-be/internal/entity"
	"ai-companion-be/internal/repository/specification"

	"github.com/google/uuid"
)

// MessageRepository is the durable message store. The Append methods hold an
// exclusive row lock on the parent chat for the duration of the insert, so
// concurrent writers to one chat are serialized while writers to different
// chats never block each other.
type MessageRepository interface {
	AppendUserMessage(ctx context.Context, chatId, senderId uuid.UUID, body string) (*entity.Message, error)
	AppendSystemMessage(ctx context.Context, chatId uuid.UUID, body string) (*entity.Message, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Message, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
