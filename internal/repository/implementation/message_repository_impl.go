package implementation

import (
	"context"
	"errors"

	"ai-companion-be/internal/apperror"
	"ai-companion-be/internal/constant"
	"ai-companion-be/internal/entity"
	"ai-companion-be/internal/mapper"
	"ai-companion-be/internal/model"
	"ai-companion-be/internal/repository/contract"
	"ai-companion-be/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// chatLockTimeout bounds the wait for the per-chat row lock. A writer that
// cannot acquire the lock within this window fails with ErrLockTimeout
// instead of queueing indefinitely.
const chatLockTimeout = "5s"

// pgLockNotAvailable is the Postgres SQLSTATE raised when lock_timeout expires.
const pgLockNotAvailable = "55P03"

type MessageRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ChatMapper
}

func NewMessageRepository(db *gorm.DB) contract.MessageRepository {
	return &MessageRepositoryImpl{
		db:     db,
		mapper: mapper.NewChatMapper(),
	}
}

func (r *MessageRepositoryImpl) AppendUserMessage(ctx context.Context, chatId, senderId uuid.UUID, body string) (*entity.Message, error) {
	sender := senderId
	return r.appendLocked(ctx, chatId, &sender, body, constant.MessageTypeText)
}

// AppendSystemMessage stores an AI-authored reply. The sender is NULL; the
// message keeps the "text" kind so clients render it like any other turn.
func (r *MessageRepositoryImpl) AppendSystemMessage(ctx context.Context, chatId uuid.UUID, body string) (*entity.Message, error) {
	return r.appendLocked(ctx, chatId, nil, body, constant.MessageTypeText)
}

// appendLocked inserts a message inside a transaction that holds a
// SELECT ... FOR UPDATE lock on the parent chat row, bounded by
// chatLockTimeout. The lock is released on commit or rollback.
func (r *MessageRepositoryImpl) appendLocked(ctx context.Context, chatId uuid.UUID, senderId *uuid.UUID, body, messageType string) (*entity.Message, error) {
	var m *model.Message
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SET LOCAL lock_timeout = '" + chatLockTimeout + "'").Error; err != nil {
			return err
		}

		var chat model.Chat
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND deleted = ?", chatId, false).
			First(&chat).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.ErrChatNotFound
			}
			return translatePgError(err)
		}

		m = &model.Message{
			ChatId:      chat.Id,
			SenderId:    senderId,
			Content:     body,
			MessageType: messageType,
		}
		return tx.Create(m).Error
	})
	if err != nil {
		return nil, err
	}
	return r.mapper.MessageToEntity(m), nil
}

func (r *MessageRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Message, error) {
	var models []*model.Message
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.Message, len(models))
	for i, m := range models {
		entities[i] = r.mapper.MessageToEntity(m)
	}
	return entities, nil
}

func (r *MessageRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := applySpecifications(r.db.WithContext(ctx).Model(&model.Message{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func translatePgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgLockNotAvailable {
		return apperror.ErrLockTimeout
	}
	return err
}
