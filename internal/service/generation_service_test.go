package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"ai-companion-be/internal/dto"
	"ai-companion-be/internal/websocket"
	"ai-companion-be/pkg/llm"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	tokens []string
	err    error

	seenSystem string
	seenPrompt string
}

func (p *fakeProvider) GenerateStream(_ context.Context, system, prompt string, onToken llm.StreamHandler) (string, error) {
	p.seenSystem = system
	p.seenPrompt = prompt
	var full string
	for _, token := range p.tokens {
		onToken(token)
		full += token
	}
	if p.err != nil {
		return "", p.err
	}
	return full, nil
}

func newTestGenerationService(repo *fakeMessageRepo, bus *fakeBus, provider llm.StreamingProvider) IGenerationService {
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	return NewGenerationService(pubSub, "test_generate", repo, bus, provider, nil, nopLogger{})
}

func TestGeneration_StreamsPersistsAndCompletes(t *testing.T) {
	repo := &fakeMessageRepo{}
	bus := &fakeBus{}
	provider := &fakeProvider{tokens: []string{"Hel", "lo"}}
	gs := newTestGenerationService(repo, bus, provider)

	chatId := uuid.New()
	gs.GenerateReply(chatId, "hi there")

	assert.Equal(t, "hi there", provider.seenPrompt)
	assert.NotEmpty(t, provider.seenSystem, "persona prompt is always supplied")

	appends := repo.appended()
	require.Len(t, appends, 1)
	assert.Equal(t, "Hello", appends[0].Body, "persisted reply is the concatenation of all chunks")
	assert.Nil(t, appends[0].SenderId, "companion messages carry no sender")

	events := bus.recorded()
	require.Len(t, events, 3)
	groupKey := websocket.GroupKey(chatId)
	for _, evt := range events {
		assert.Equal(t, groupKey, evt.GroupKey)
	}

	first, ok := events[0].Event.(websocket.AIChunkEvent)
	require.True(t, ok)
	assert.Equal(t, "Hel", first.Chunk)

	second, ok := events[1].Event.(websocket.AIChunkEvent)
	require.True(t, ok)
	assert.Equal(t, "lo", second.Chunk)

	done, ok := events[2].Event.(websocket.AICompleteEvent)
	require.True(t, ok)
	assert.NotEmpty(t, done.MessageID, "completion carries the stored message id")
}

func TestGeneration_EngineFailureIsSilent(t *testing.T) {
	repo := &fakeMessageRepo{}
	bus := &fakeBus{}
	provider := &fakeProvider{err: errors.New("engine unreachable")}
	gs := newTestGenerationService(repo, bus, provider)

	gs.GenerateReply(uuid.New(), "hi")

	assert.Empty(t, repo.appended(), "nothing is persisted when the engine fails")
	assert.Empty(t, bus.recorded(), "no frames reach the group when the engine fails")
}

func TestGeneration_PersistFailureSkipsCompletion(t *testing.T) {
	repo := &fakeMessageRepo{systemErr: errors.New("db down")}
	bus := &fakeBus{}
	provider := &fakeProvider{tokens: []string{"Hel", "lo"}}
	gs := newTestGenerationService(repo, bus, provider)

	gs.GenerateReply(uuid.New(), "hi")

	events := bus.recorded()
	require.Len(t, events, 2, "chunks already streamed are not recalled")
	for _, evt := range events {
		_, isChunk := evt.Event.(websocket.AIChunkEvent)
		assert.True(t, isChunk, "no completion frame after a failed persist")
	}
}

func TestGeneration_ConsumeRoundTrip(t *testing.T) {
	repo := &fakeMessageRepo{}
	bus := &fakeBus{}
	provider := &fakeProvider{tokens: []string{"ok"}}

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	gs := NewGenerationService(pubSub, "test_generate", repo, bus, provider, nil, nopLogger{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, gs.Consume(ctx))

	publisher := NewPublisherService("test_generate", pubSub)
	payload, err := json.Marshal(dto.GenerateReplyMessage{ChatId: uuid.New(), Prompt: "hi"})
	require.NoError(t, err)
	require.NoError(t, publisher.Publish(ctx, payload))

	assert.Eventually(t, func() bool {
		return len(bus.recorded()) == 2 && len(repo.appended()) == 1
	}, 2*time.Second, 10*time.Millisecond, "a published request runs a full worker cycle")
}

func TestGeneration_MalformedRequestIsAcked(t *testing.T) {
	repo := &fakeMessageRepo{}
	bus := &fakeBus{}
	provider := &fakeProvider{tokens: []string{"ok"}}

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	gs := NewGenerationService(pubSub, "test_generate", repo, bus, provider, nil, nopLogger{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, gs.Consume(ctx))

	publisher := NewPublisherService("test_generate", pubSub)
	require.NoError(t, publisher.Publish(ctx, []byte("not json")))

	// A good request after the bad one proves the consumer loop survived
	payload, err := json.Marshal(dto.GenerateReplyMessage{ChatId: uuid.New(), Prompt: "hi"})
	require.NoError(t, err)
	require.NoError(t, publisher.Publish(ctx, payload))

	assert.Eventually(t, func() bool {
		return len(repo.appended()) == 1
	}, 2*time.Second, 10*time.Millisecond)
}
