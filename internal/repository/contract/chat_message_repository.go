package contract

import (
	"context"

	"ai-assistant-be/internal/entity"
	"ai-assistant-be/internal/repository/specification"

	"github.com/google/uuid"
)

type ChatMessageRepository interface {
	Create(ctx context.Context, message *entity.ChatMessage) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatMessage, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatMessage, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	// UpdateFeedback writes the feedback column only; nil clears it.
	UpdateFeedback(ctx context.Context, id uuid.UUID, feedback *string) error
	DeleteByChatSessionId(ctx context.Context, chatSessionId uuid.UUID) error
}
