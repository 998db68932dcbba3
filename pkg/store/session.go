package store

import "github.com/google/uuid"

// Session represents the per-user UI session state kept in memory. It is
// controller-scoped state, not chat history: losing it never loses messages.
type Session struct {
	UserID string `json:"user_id"`

	// CurrentChatSessionId is the chat the user is looking at, nil when no
	// chat is selected (fresh login or after delete/archive of the current).
	CurrentChatSessionId *uuid.UUID `json:"current_chat_session_id"`

	// Generating is true while an assistant reply for this user is pending.
	Generating bool `json:"generating"`

	// GeneratingFor is the chat the pending reply belongs to. The reply is
	// appended to this chat even if the user switches away meanwhile.
	GeneratingFor *uuid.UUID `json:"generating_for"`
}
