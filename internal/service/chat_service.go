package service

import (
	"context"
	"time"

	"ai-companion-be/internal/apperror"
	"ai-companion-be/internal/constant"
	"ai-companion-be/internal/dto"
	"ai-companion-be/internal/entity"
	"ai-companion-be/internal/repository/contract"
	"ai-companion-be/internal/repository/specification"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// Ownership verdicts are cached briefly so the websocket handshake does not
// hit the database on every reconnect.
const (
	ownershipCacheTTL     = time.Minute
	ownershipCacheCleanup = 5 * time.Minute
)

type IChatService interface {
	CreateChat(ctx context.Context, userId uuid.UUID, request *dto.CreateChatRequest) (*dto.ChatResponse, error)
	ListChats(ctx context.Context, userId uuid.UUID) ([]*dto.ChatResponse, error)
	UpdateChat(ctx context.Context, userId, chatId uuid.UUID, request *dto.UpdateChatRequest) (*dto.ChatResponse, error)
	DeleteChat(ctx context.Context, userId, chatId uuid.UUID) error
	ListMessages(ctx context.Context, userId, chatId uuid.UUID, page *dto.PageRequest) ([]*dto.MessageResponse, error)

	// VerifyOwnership answers whether a non-deleted chat with chatId is
	// owned by userId. Used by the gateway before joining a group.
	VerifyOwnership(ctx context.Context, chatId, userId uuid.UUID) (bool, error)
}

type chatService struct {
	chats          contract.ChatRepository
	messages       contract.MessageRepository
	validate       *validator.Validate
	ownershipCache *cache.Cache
}

func NewChatService(chats contract.ChatRepository, messages contract.MessageRepository) IChatService {
	return &chatService{
		chats:          chats,
		messages:       messages,
		validate:       validator.New(),
		ownershipCache: cache.New(ownershipCacheTTL, ownershipCacheCleanup),
	}
}

func (cs *chatService) CreateChat(ctx context.Context, userId uuid.UUID, request *dto.CreateChatRequest) (*dto.ChatResponse, error) {
	if err := cs.validate.Struct(request); err != nil {
		return nil, err
	}

	name := request.Name
	if name == "" {
		name = constant.DefaultChatName
	}

	count, err := cs.chats.Count(ctx,
		specification.OwnedBy{OwnerID: userId},
		specification.ByName{Name: name},
		specification.Live{},
	)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, apperror.ErrDuplicateChat
	}

	chat := &entity.Chat{
		Name:    name,
		OwnerId: userId,
	}
	if err := cs.chats.Create(ctx, chat); err != nil {
		return nil, err
	}

	return chatToResponse(chat), nil
}

func (cs *chatService) ListChats(ctx context.Context, userId uuid.UUID) ([]*dto.ChatResponse, error) {
	chats, err := cs.chats.FindAll(ctx,
		specification.OwnedBy{OwnerID: userId},
		specification.Live{},
		specification.PinnedFirst{},
	)
	if err != nil {
		return nil, err
	}

	responses := make([]*dto.ChatResponse, len(chats))
	for i, chat := range chats {
		responses[i] = chatToResponse(chat)
	}
	return responses, nil
}

func (cs *chatService) UpdateChat(ctx context.Context, userId, chatId uuid.UUID, request *dto.UpdateChatRequest) (*dto.ChatResponse, error) {
	if err := cs.validate.Struct(request); err != nil {
		return nil, err
	}

	chat, err := cs.findOwnedChat(ctx, userId, chatId)
	if err != nil {
		return nil, err
	}

	if request.Name != nil && *request.Name != chat.Name {
		count, err := cs.chats.Count(ctx,
			specification.OwnedBy{OwnerID: userId},
			specification.ByName{Name: *request.Name},
			specification.Live{},
		)
		if err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, apperror.ErrDuplicateChat
		}
		chat.Name = *request.Name
	}
	if request.IsPinned != nil {
		chat.IsPinned = *request.IsPinned
	}

	if err := cs.chats.Update(ctx, chat); err != nil {
		return nil, err
	}
	return chatToResponse(chat), nil
}

func (cs *chatService) DeleteChat(ctx context.Context, userId, chatId uuid.UUID) error {
	chat, err := cs.findOwnedChat(ctx, userId, chatId)
	if err != nil {
		return err
	}

	chat.Deleted = true
	if err := cs.chats.Update(ctx, chat); err != nil {
		return err
	}

	// The chat is gone for new connections; any cached verdict is stale now
	cs.ownershipCache.Delete(ownershipCacheKey(chatId, userId))
	return nil
}

func (cs *chatService) ListMessages(ctx context.Context, userId, chatId uuid.UUID, page *dto.PageRequest) ([]*dto.MessageResponse, error) {
	if page != nil {
		if err := cs.validate.Struct(page); err != nil {
			return nil, err
		}
	}
	if _, err := cs.findOwnedChat(ctx, userId, chatId); err != nil {
		return nil, err
	}

	specs := []specification.Specification{
		specification.ByChatID{ChatID: chatId},
		specification.VisibleToOwner{},
		specification.InCreationOrder{},
	}
	if page != nil && page.Limit > 0 {
		specs = append(specs, specification.Pagination{Limit: page.Limit, Offset: page.Offset})
	}

	messages, err := cs.messages.FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}

	responses := make([]*dto.MessageResponse, len(messages))
	for i, msg := range messages {
		responses[i] = &dto.MessageResponse{
			Id:          msg.Id,
			ChatId:      msg.ChatId,
			SenderId:    msg.SenderId,
			Content:     msg.Content,
			MessageType: msg.MessageType,
			IsEdited:    msg.IsEdited,
			CreatedAt:   msg.CreatedAt,
		}
	}
	return responses, nil
}

func (cs *chatService) VerifyOwnership(ctx context.Context, chatId, userId uuid.UUID) (bool, error) {
	key := ownershipCacheKey(chatId, userId)
	if _, found := cs.ownershipCache.Get(key); found {
		return true, nil
	}

	chat, err := cs.chats.FindOne(ctx,
		specification.ByID{ID: chatId},
		specification.OwnedBy{OwnerID: userId},
		specification.Live{},
	)
	if err != nil {
		return false, err
	}
	if chat == nil {
		// Negative verdicts are not cached: a freshly created chat must be
		// joinable immediately
		return false, nil
	}

	cs.ownershipCache.SetDefault(key, true)
	return true, nil
}

func (cs *chatService) findOwnedChat(ctx context.Context, userId, chatId uuid.UUID) (*entity.Chat, error) {
	chat, err := cs.chats.FindOne(ctx,
		specification.ByID{ID: chatId},
		specification.OwnedBy{OwnerID: userId},
		specification.Live{},
	)
	if err != nil {
		return nil, err
	}
	if chat == nil {
		return nil, apperror.ErrChatNotFound
	}
	return chat, nil
}

func ownershipCacheKey(chatId, userId uuid.UUID) string {
	return chatId.String() + ":" + userId.String()
}

func chatToResponse(chat *entity.Chat) *dto.ChatResponse {
	return &dto.ChatResponse{
		Id:        chat.Id,
		Name:      chat.Name,
		IsPinned:  chat.IsPinned,
		CreatedAt: chat.CreatedAt,
		UpdatedAt: chat.UpdatedAt,
	}
}
