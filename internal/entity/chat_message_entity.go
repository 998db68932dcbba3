package entity

import (
	"time"

	"github.com/google/uuid"
)

// ChatAttachment is client-supplied file metadata carried on a message.
// Upload and validation happen client-side; we only persist the descriptor.
type ChatAttachment struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
	Mime string `json:"mime"`
}

type ChatMessage struct {
	Id            uuid.UUID
	ChatSessionId uuid.UUID
	Role          string
	Content       string
	// Feedback is nil, "like" or "dislike". Toggle semantics: setting the
	// current value again clears it.
	Feedback    *string
	Attachments []ChatAttachment
	// Seq is the per-session creation sequence and the canonical render
	// order. It never changes after creation.
	Seq       int64
	CreatedAt time.Time
}
