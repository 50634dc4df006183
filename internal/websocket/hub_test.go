package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Debug(string, string, map[string]interface{}) {}
func (nopLogger) Info(string, string, map[string]interface{})  {}
func (nopLogger) Warn(string, string, map[string]interface{})  {}
func (nopLogger) Error(string, string, map[string]interface{}) {}
func (nopLogger) Sync() error                                  { return nil }

func newTestHub() *Hub {
	hub := NewHub(nil, nopLogger{})
	go hub.Run()
	return hub
}

func newTestClient(hub *Hub, groupKey string) *Client {
	return &Client{
		Hub:      hub,
		UserID:   uuid.New(),
		GroupKey: groupKey,
		Send:     make(chan []byte, 16),
	}
}

func TestHub_JoinCreatesGroup(t *testing.T) {
	hub := newTestHub()
	client := newTestClient(hub, "chat_a")

	hub.Join(client)

	assert.Eventually(t, func() bool {
		return hub.GroupSize("chat_a") == 1
	}, time.Second, 5*time.Millisecond)
}

func TestHub_LeaveRemovesEmptyGroup(t *testing.T) {
	hub := newTestHub()
	client := newTestClient(hub, "chat_a")

	hub.Join(client)
	assert.Eventually(t, func() bool { return hub.GroupSize("chat_a") == 1 }, time.Second, 5*time.Millisecond)

	hub.Leave(client)
	assert.Eventually(t, func() bool { return hub.GroupSize("chat_a") == 0 }, time.Second, 5*time.Millisecond)

	hub.mu.RLock()
	_, exists := hub.groups["chat_a"]
	hub.mu.RUnlock()
	assert.False(t, exists, "empty group should be removed from the table")
}

func TestHub_PublishReachesAllMembersIncludingPublisher(t *testing.T) {
	hub := newTestHub()
	first := newTestClient(hub, "chat_a")
	second := newTestClient(hub, "chat_a")

	hub.Join(first)
	hub.Join(second)
	require.Eventually(t, func() bool { return hub.GroupSize("chat_a") == 2 }, time.Second, 5*time.Millisecond)

	// "first" plays the publisher's connection; there is no self-exclusion
	hub.Publish(context.Background(), "chat_a", NewUserMessageEvent("m1", "hello"))

	for _, client := range []*Client{first, second} {
		select {
		case data := <-client.Send:
			var frame UserMessageEvent
			require.NoError(t, json.Unmarshal(data, &frame))
			assert.Equal(t, EventUserMessage, frame.Type)
			assert.Equal(t, "m1", frame.MessageID)
			assert.Equal(t, "hello", frame.Content)
		case <-time.After(time.Second):
			t.Fatal("client did not receive the event")
		}
	}
}

func TestHub_PublishDoesNotCrossGroups(t *testing.T) {
	hub := newTestHub()
	member := newTestClient(hub, "chat_a")
	outsider := newTestClient(hub, "chat_b")

	hub.Join(member)
	hub.Join(outsider)
	require.Eventually(t, func() bool {
		return hub.GroupSize("chat_a") == 1 && hub.GroupSize("chat_b") == 1
	}, time.Second, 5*time.Millisecond)

	hub.Publish(context.Background(), "chat_a", NewAIChunkEvent("tok"))

	select {
	case <-member.Send:
	case <-time.After(time.Second):
		t.Fatal("group member did not receive the event")
	}

	select {
	case <-outsider.Send:
		t.Fatal("event leaked into another group")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_PublishToEmptyGroupIsNoop(t *testing.T) {
	hub := newTestHub()

	// Nothing joined; must not panic or error
	hub.Publish(context.Background(), "chat_ghost", NewAIChunkEvent("tok"))

	assert.Equal(t, 0, hub.GroupSize("chat_ghost"))
}

func TestHub_SinglePublisherOrderPreserved(t *testing.T) {
	hub := newTestHub()
	client := newTestClient(hub, "chat_a")

	hub.Join(client)
	require.Eventually(t, func() bool { return hub.GroupSize("chat_a") == 1 }, time.Second, 5*time.Millisecond)

	chunks := []string{"Hel", "lo", "!"}
	for _, chunk := range chunks {
		hub.Publish(context.Background(), "chat_a", NewAIChunkEvent(chunk))
	}

	for _, want := range chunks {
		select {
		case data := <-client.Send:
			var frame AIChunkEvent
			require.NoError(t, json.Unmarshal(data, &frame))
			assert.Equal(t, want, frame.Chunk)
		case <-time.After(time.Second):
			t.Fatal("missing chunk")
		}
	}
}

func TestHub_DisconnectDuringConcurrentStreams(t *testing.T) {
	hub := newTestHub()
	groupKey := "chat_a"

	const members = 50
	clients := make([]*Client, members)
	for i := range clients {
		clients[i] = newTestClient(hub, groupKey)
		hub.Join(clients[i])
	}
	require.Eventually(t, func() bool { return hub.GroupSize(groupKey) == members }, time.Second, 5*time.Millisecond)

	// Several interleaving streams publish while half the members drop out.
	// A departing member must simply miss subsequent events.
	var wg sync.WaitGroup
	for p := 0; p < 4; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				hub.Publish(context.Background(), groupKey, NewAIChunkEvent("tok"))
			}
		}()
	}
	for _, client := range clients[:members/2] {
		wg.Add(1)
		go func(c *Client) {
			defer wg.Done()
			c.Close()
		}(client)
	}
	wg.Wait()

	assert.NotPanics(t, func() {
		hub.Publish(context.Background(), groupKey, NewAIChunkEvent("after"))
	})
}

func TestClient_SendAfterCloseIsDropped(t *testing.T) {
	hub := newTestHub()
	client := newTestClient(hub, "chat_a")

	hub.Join(client)
	require.Eventually(t, func() bool { return hub.GroupSize("chat_a") == 1 }, time.Second, 5*time.Millisecond)

	client.Close()
	require.Eventually(t, func() bool { return hub.GroupSize("chat_a") == 0 }, time.Second, 5*time.Millisecond)

	assert.NotPanics(t, func() {
		assert.True(t, client.trySend([]byte(`{}`)), "a departed client drops frames, it is not a slow consumer")
	})
}

func TestClient_CloseIsIdempotent(t *testing.T) {
	hub := newTestHub()
	client := newTestClient(hub, "chat_a")

	hub.Join(client)
	require.Eventually(t, func() bool { return hub.GroupSize("chat_a") == 1 }, time.Second, 5*time.Millisecond)

	client.Close()
	assert.Eventually(t, func() bool { return hub.GroupSize("chat_a") == 0 }, time.Second, 5*time.Millisecond)

	// Second close must not panic or send another leave
	assert.NotPanics(t, func() { client.Close() })
	assert.Equal(t, 0, hub.GroupSize("chat_a"))
}
