package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"ai-companion-be/internal/apperror"
	"ai-companion-be/internal/dto"
	"ai-companion-be/internal/pkg/logger"
	"ai-companion-be/internal/repository/contract"
	"ai-companion-be/internal/websocket"

	"github.com/google/uuid"
)

// Broadcaster is the slice of the hub the services need.
type Broadcaster interface {
	Publish(ctx context.Context, groupKey string, event interface{})
}

// IRelayService turns inbound frames of an authorized connection into store
// writes, group publishes and generation dispatches. It satisfies
// websocket.InboundHandler.
type IRelayService interface {
	HandleInbound(ctx context.Context, chatId, userId uuid.UUID, body string) error
}

type relayService struct {
	messages  contract.MessageRepository
	bus       Broadcaster
	publisher IPublisherService
	logger    logger.ILogger
}

func NewRelayService(
	messages contract.MessageRepository,
	bus Broadcaster,
	publisher IPublisherService,
	log logger.ILogger,
) IRelayService {
	return &relayService{
		messages:  messages,
		bus:       bus,
		publisher: publisher,
		logger:    log,
	}
}

// HandleInbound persists the user turn under the chat lock, echoes it to the
// group and dispatches one generation run. It returns as soon as the run is
// dispatched; the reply streams back through the hub.
func (rs *relayService) HandleInbound(ctx context.Context, chatId, userId uuid.UUID, body string) error {
	content := strings.TrimSpace(body)
	if content == "" {
		// Blank input is a silent no-op, not an error
		return nil
	}

	msg, err := rs.messages.AppendUserMessage(ctx, chatId, userId, content)
	if err != nil {
		// No retry policy: the inbound message is dropped. The client sees
		// no echo, which is its signal that the turn was not recorded.
		switch {
		case errors.Is(err, apperror.ErrLockTimeout):
			rs.logger.Warn("Relay", "Chat lock timed out, message dropped", map[string]interface{}{
				"chat_id": chatId, "user_id": userId,
			})
		case errors.Is(err, apperror.ErrChatNotFound):
			rs.logger.Warn("Relay", "Chat disappeared mid-session", map[string]interface{}{
				"chat_id": chatId, "user_id": userId,
			})
		default:
			rs.logger.Error("Relay", "Failed to persist user message", map[string]interface{}{
				"chat_id": chatId, "user_id": userId, "error": err.Error(),
			})
		}
		return err
	}

	rs.bus.Publish(ctx, websocket.GroupKey(chatId), websocket.NewUserMessageEvent(msg.Id.String(), content))

	payload, err := json.Marshal(dto.GenerateReplyMessage{ChatId: chatId, Prompt: content})
	if err != nil {
		return err
	}
	if err := rs.publisher.Publish(ctx, payload); err != nil {
		rs.logger.Error("Relay", "Failed to dispatch generation run", map[string]interface{}{
			"chat_id": chatId, "error": err.Error(),
		})
		return err
	}

	return nil
}
