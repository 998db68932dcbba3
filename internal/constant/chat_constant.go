package constant

const (
	ChatMessageRoleUser      = "user"
	ChatMessageRoleAssistant = "assistant"

	ChatFeedbackLike    = "like"
	ChatFeedbackDislike = "dislike"

	// DefaultSessionTitle is the placeholder until the first user message
	// provides a real title.
	DefaultSessionTitle = "New Chat"

	// SessionTitleMaxLen caps auto-derived titles (runes, not bytes).
	SessionTitleMaxLen = 50

	// ExportRoleUser / ExportRoleAssistant are the labels used by the
	// plain-text export. The export is human-readable, not re-importable.
	ExportRoleUser      = "You"
	ExportRoleAssistant = "Assistant"

	// GenerateReplyTopic is the watermill topic carrying reply generation
	// commands from the chatbot service to the generation worker.
	GenerateReplyTopic = "GENERATE_ASSISTANT_REPLY"

	// WebSocket event types pushed to the client.
	WsEventReply            = "chat.reply"
	WsEventGenerationFailed = "chat.generation_failed"
)
