package websocket

// Outbound frame types. Every event published to a group is forwarded to
// each member verbatim, the publisher's own connection included.
const (
	EventUserMessage = "user_message"
	EventAIChunk     = "ai_chunk"
	EventAIComplete  = "ai_complete"
)

// UserMessageEvent echoes a persisted user turn to the group.
type UserMessageEvent struct {
	Type      string `json:"type"`
	MessageID string `json:"message_id"`
	Content   string `json:"content"`
}

func NewUserMessageEvent(messageID, content string) UserMessageEvent {
	return UserMessageEvent{Type: EventUserMessage, MessageID: messageID, Content: content}
}

// AIChunkEvent carries one incremental fragment of a streaming reply.
type AIChunkEvent struct {
	Type  string `json:"type"`
	Chunk string `json:"chunk"`
}

func NewAIChunkEvent(chunk string) AIChunkEvent {
	return AIChunkEvent{Type: EventAIChunk, Chunk: chunk}
}

// AICompleteEvent signals that the reply finished streaming and was
// persisted under MessageID.
type AICompleteEvent struct {
	Type      string `json:"type"`
	MessageID string `json:"message_id"`
}

func NewAICompleteEvent(messageID string) AICompleteEvent {
	return AICompleteEvent{Type: EventAIComplete, MessageID: messageID}
}
