package dto

import (
	"time"

	"github.com/google/uuid"

	"ai-assistant-be/internal/entity"
)

type CreateSessionResponse struct {
	Id    uuid.UUID `json:"id"`
	Title string    `json:"title"`
}

type GetAllSessionsRequest struct {
	Query           string `query:"q"`
	IncludeArchived bool   `query:"include_archived"`
}

type GetAllSessionsResponse struct {
	Id        uuid.UUID  `json:"id"`
	Title     string     `json:"title"`
	Archived  bool       `json:"archived"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

type ChatMessageDTO struct {
	Id          uuid.UUID               `json:"id"`
	Role        string                  `json:"role"`
	Content     string                  `json:"content"`
	Feedback    *string                 `json:"feedback,omitempty"`
	Attachments []entity.ChatAttachment `json:"attachments,omitempty"`
	CreatedAt   time.Time               `json:"created_at"`
}

type GetChatHistoryResponse struct {
	ChatSessionId uuid.UUID        `json:"chat_session_id"`
	Title         string           `json:"title"`
	Messages      []ChatMessageDTO `json:"messages"`
}

type SendChatRequest struct {
	Content     string                  `json:"content" validate:"required"`
	Attachments []entity.ChatAttachment `json:"attachments,omitempty" validate:"max=5"`
}

type SendChatResponse struct {
	ChatSessionId    uuid.UUID      `json:"chat_session_id"`
	ChatSessionTitle string         `json:"title"`
	Sent             ChatMessageDTO `json:"sent"`
	// Pending is true while the assistant reply is being generated; the
	// reply itself arrives over the websocket stream.
	Pending bool `json:"pending"`
}

type SelectSessionRequest struct {
	ChatSessionId uuid.UUID `json:"chat_session_id" validate:"required"`
}

type RenameSessionRequest struct {
	Id       uuid.UUID `json:"-"`
	NewTitle string    `json:"title" validate:"required"`
}

type UpdateFeedbackRequest struct {
	MessageId uuid.UUID `json:"-"`
	Feedback  string    `json:"feedback" validate:"required,oneof=like dislike"`
}

type UpdateFeedbackResponse struct {
	MessageId uuid.UUID `json:"message_id"`
	Feedback  *string   `json:"feedback"`
}

type ShareSessionResponse struct {
	ChatSessionId uuid.UUID `json:"chat_session_id"`
	URL           string    `json:"url"`
}

type ExportSessionResponse struct {
	ChatSessionId uuid.UUID `json:"chat_session_id"`
	Title         string    `json:"title"`
	Text          string    `json:"text"`
}

type SessionStateResponse struct {
	CurrentChatSessionId *uuid.UUID `json:"current_chat_session_id"`
	IsGenerating         bool       `json:"is_generating"`
}

type StarterPromptDTO struct {
	Title  string `json:"title"`
	Prompt string `json:"prompt"`
}

// GenerateReplyCommand is the watermill payload dispatched by SendChat and
// consumed by the generation worker. ChatSessionId is captured at request
// time so a late reply always lands in the session it was requested for.
type GenerateReplyCommand struct {
	ChatSessionId uuid.UUID `json:"chat_session_id"`
	UserId        uuid.UUID `json:"user_id"`
	UserMessageId uuid.UUID `json:"user_message_id"`
}
