package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"ai-companion-be/internal/apperror"
	"ai-companion-be/internal/dto"
	"ai-companion-be/internal/entity"
	"ai-companion-be/internal/repository/specification"
	"ai-companion-be/internal/websocket"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Shared test doubles for the relay and generation services.

type nopLogger struct{}

func (nopLogger) Debug(string, string, map[string]interface{}) {}
func (nopLogger) Info(string, string, map[string]interface{})  {}
func (nopLogger) Warn(string, string, map[string]interface{})  {}
func (nopLogger) Error(string, string, map[string]interface{}) {}
func (nopLogger) Sync() error                                  { return nil }

type publishedEvent struct {
	GroupKey string
	Event    interface{}
}

type fakeBus struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (b *fakeBus) Publish(_ context.Context, groupKey string, event interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, publishedEvent{GroupKey: groupKey, Event: event})
}

func (b *fakeBus) recorded() []publishedEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]publishedEvent, len(b.events))
	copy(out, b.events)
	return out
}

type appendCall struct {
	ChatId   uuid.UUID
	SenderId *uuid.UUID
	Body     string
}

type fakeMessageRepo struct {
	mu         sync.Mutex
	appends    []appendCall
	appendErr  error
	systemErr  error
}

func (r *fakeMessageRepo) record(chatId uuid.UUID, senderId *uuid.UUID, body string) *entity.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.appends = append(r.appends, appendCall{ChatId: chatId, SenderId: senderId, Body: body})
	return &entity.Message{Id: uuid.New(), ChatId: chatId, SenderId: senderId, Content: body}
}

func (r *fakeMessageRepo) AppendUserMessage(_ context.Context, chatId, senderId uuid.UUID, body string) (*entity.Message, error) {
	if r.appendErr != nil {
		return nil, r.appendErr
	}
	sender := senderId
	return r.record(chatId, &sender, body), nil
}

func (r *fakeMessageRepo) AppendSystemMessage(_ context.Context, chatId uuid.UUID, body string) (*entity.Message, error) {
	if r.systemErr != nil {
		return nil, r.systemErr
	}
	return r.record(chatId, nil, body), nil
}

func (r *fakeMessageRepo) FindAll(context.Context, ...specification.Specification) ([]*entity.Message, error) {
	return nil, nil
}

func (r *fakeMessageRepo) Count(context.Context, ...specification.Specification) (int64, error) {
	return 0, nil
}

func (r *fakeMessageRepo) appended() []appendCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]appendCall, len(r.appends))
	copy(out, r.appends)
	return out
}

type fakePublisher struct {
	mu       sync.Mutex
	payloads [][]byte
	err      error
}

func (p *fakePublisher) Publish(_ context.Context, payload []byte) error {
	if p.err != nil {
		return p.err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.payloads = append(p.payloads, payload)
	return nil
}

func (p *fakePublisher) published() [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([][]byte, len(p.payloads))
	copy(out, p.payloads)
	return out
}

// Tests

func TestRelay_BlankInputIsSilentNoop(t *testing.T) {
	repo := &fakeMessageRepo{}
	bus := &fakeBus{}
	pub := &fakePublisher{}
	relay := NewRelayService(repo, bus, pub, nopLogger{})

	err := relay.HandleInbound(context.Background(), uuid.New(), uuid.New(), "   ")

	assert.NoError(t, err)
	assert.Empty(t, repo.appended(), "blank input must not touch the store")
	assert.Empty(t, bus.recorded(), "blank input must not publish anything")
	assert.Empty(t, pub.published())
}

func TestRelay_PersistsEchoesAndDispatches(t *testing.T) {
	repo := &fakeMessageRepo{}
	bus := &fakeBus{}
	pub := &fakePublisher{}
	relay := NewRelayService(repo, bus, pub, nopLogger{})

	chatId := uuid.New()
	userId := uuid.New()

	err := relay.HandleInbound(context.Background(), chatId, userId, "  how are you?  ")
	require.NoError(t, err)

	appends := repo.appended()
	require.Len(t, appends, 1)
	assert.Equal(t, chatId, appends[0].ChatId)
	require.NotNil(t, appends[0].SenderId)
	assert.Equal(t, userId, *appends[0].SenderId)
	assert.Equal(t, "how are you?", appends[0].Body, "body is trimmed before persisting")

	events := bus.recorded()
	require.Len(t, events, 1)
	assert.Equal(t, websocket.GroupKey(chatId), events[0].GroupKey)
	echo, ok := events[0].Event.(websocket.UserMessageEvent)
	require.True(t, ok)
	assert.Equal(t, "how are you?", echo.Content)
	assert.NotEmpty(t, echo.MessageID)

	payloads := pub.published()
	require.Len(t, payloads, 1)
	var request dto.GenerateReplyMessage
	require.NoError(t, json.Unmarshal(payloads[0], &request))
	assert.Equal(t, chatId, request.ChatId)
	assert.Equal(t, "how are you?", request.Prompt)
}

func TestRelay_LockTimeoutDropsMessage(t *testing.T) {
	repo := &fakeMessageRepo{appendErr: apperror.ErrLockTimeout}
	bus := &fakeBus{}
	pub := &fakePublisher{}
	relay := NewRelayService(repo, bus, pub, nopLogger{})

	err := relay.HandleInbound(context.Background(), uuid.New(), uuid.New(), "hello")

	assert.ErrorIs(t, err, apperror.ErrLockTimeout)
	assert.Empty(t, bus.recorded(), "nothing is echoed for a dropped message")
	assert.Empty(t, pub.published(), "no generation run for a dropped message")
}

func TestRelay_DispatchFailureIsSurfaced(t *testing.T) {
	repo := &fakeMessageRepo{}
	bus := &fakeBus{}
	pub := &fakePublisher{err: errors.New("bus down")}
	relay := NewRelayService(repo, bus, pub, nopLogger{})

	err := relay.HandleInbound(context.Background(), uuid.New(), uuid.New(), "hello")

	assert.Error(t, err)
	// The echo already went out before the dispatch failed
	assert.Len(t, bus.recorded(), 1)
}
