package constant

const (
	// MessageTypeText is the kind stored in messages.message_type. AI turns
	// keep this kind too; authorship is carried by the NULL sender.
	MessageTypeText = "text"

	// DefaultChatName is assigned when a chat is created without a name.
	DefaultChatName = "Новый чат"

	// Ollama generation defaults.
	OllamaDefaultBaseURL = "http://localhost:11434"
	OllamaDefaultModel   = "evilfreelancer/o1_gigachat:20b"

	// CompanionSystemPrompt is the fixed system instruction sent with every
	// generation request. The persona must answer in Russian only and must
	// never leak internal reasoning into the reply.
	CompanionSystemPrompt = "Ты — эмпатичный цифровой психолог. Твоя роль — поддерживать диалог, " +
		"выслушивать, задавать уточняющие вопросы и помогать пользователю разобраться в его чувствах. " +
		"Ты всегда отвечаешь ТОЛЬКО на русском языке. КРИТИЧЕСКИ ВАЖНО: любые внутренние рассуждения, " +
		"анализ или промежуточные шаги ты держишь в уме и НИКОГДА не включаешь в итоговый ответ. " +
		"Ответ должен быть цельным, естественным и сразу готовым для чтения. " +
		"Не используй теги <Thought>, <Output> или любые другие форматы, кроме обычного текста."

	// GenerateReplyTopic is the in-process topic the relay publishes
	// generation requests to and the generation service consumes from.
	GenerateReplyTopic = "GENERATE_AI_REPLY"

	// MessageCreatedEventType is emitted on the NATS bus after an AI reply
	// has been persisted.
	MessageCreatedEventType = "chat.message.created"
)
