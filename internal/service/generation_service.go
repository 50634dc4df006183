package service

import (
	"context"
	"encoding/json"

	"ai-companion-be/internal/constant"
	"ai-companion-be/internal/dto"
	"ai-companion-be/internal/pkg/logger"
	"ai-companion-be/internal/repository/contract"
	"ai-companion-be/internal/websocket"
	"ai-companion-be/pkg/events"
	"ai-companion-be/pkg/llm"
	pktNats "ai-companion-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

// IGenerationService consumes generation requests and runs the streaming
// completion workers. Each run lives on its own goroutine with a background
// context, so it survives the connection that triggered it.
type IGenerationService interface {
	Consume(ctx context.Context) error
	GenerateReply(chatId uuid.UUID, prompt string)
}

type generationService struct {
	pubSub         *gochannel.GoChannel
	topicName      string
	messages       contract.MessageRepository
	bus            Broadcaster
	provider       llm.StreamingProvider
	eventPublisher *pktNats.Publisher // nil when NATS is not deployed
	logger         logger.ILogger
}

func NewGenerationService(
	pubSub *gochannel.GoChannel,
	topicName string,
	messages contract.MessageRepository,
	bus Broadcaster,
	provider llm.StreamingProvider,
	eventPublisher *pktNats.Publisher,
	log logger.ILogger,
) IGenerationService {
	return &generationService{
		pubSub:         pubSub,
		topicName:      topicName,
		messages:       messages,
		bus:            bus,
		provider:       provider,
		eventPublisher: eventPublisher,
		logger:         log,
	}
}

func (gs *generationService) Consume(ctx context.Context) error {
	messages, err := gs.pubSub.Subscribe(ctx, gs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			gs.processMessage(msg)
		}
	}()

	return nil
}

func (gs *generationService) processMessage(msg *message.Message) {
	var payload dto.GenerateReplyMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		gs.logger.Error("Generation", "Failed to unmarshal request", map[string]interface{}{"error": err.Error()})
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}
	msg.Ack()

	// One independent run per request. Two rapid user messages in the same
	// chat produce two interleaving streams; the store lock only serializes
	// the final inserts.
	go gs.GenerateReply(payload.ChatId, payload.Prompt)
}

// GenerateReply is one worker run: stream tokens from the engine into the
// chat's group, then persist the full reply and announce completion.
// Failures are logged and swallowed; no error frame reaches the clients.
func (gs *generationService) GenerateReply(chatId uuid.UUID, prompt string) {
	// Deliberately not tied to any connection context, and no timeout on
	// the engine: a stalled model stalls only this run.
	ctx := context.Background()
	groupKey := websocket.GroupKey(chatId)

	fullText, err := gs.provider.GenerateStream(ctx, constant.CompanionSystemPrompt, prompt, func(token string) {
		gs.bus.Publish(ctx, groupKey, websocket.NewAIChunkEvent(token))
	})
	if err != nil {
		gs.logger.Error("Generation", "Engine call failed", map[string]interface{}{
			"chat_id": chatId, "error": err.Error(),
		})
		return
	}

	saved, err := gs.messages.AppendSystemMessage(ctx, chatId, fullText)
	if err != nil {
		gs.logger.Error("Generation", "Failed to persist reply", map[string]interface{}{
			"chat_id": chatId, "error": err.Error(),
		})
		return
	}

	gs.bus.Publish(ctx, groupKey, websocket.NewAICompleteEvent(saved.Id.String()))

	if gs.eventPublisher != nil {
		evt := events.NewMessageCreated(constant.MessageCreatedEventType, chatId.String(), saved.Id.String())
		if err := gs.eventPublisher.Publish(ctx, evt); err != nil {
			gs.logger.Warn("Generation", "Failed to publish created event", map[string]interface{}{
				"chat_id": chatId, "error": err.Error(),
			})
		}
	}
}
