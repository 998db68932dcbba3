package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"ai-assistant-be/internal/entity"
	"ai-assistant-be/internal/repository/contract"
	"ai-assistant-be/internal/repository/specification"

	"github.com/google/uuid"
)

// ChatMessageRepository is the in-memory counterpart of the gorm message
// repository. Seq is assigned per session at insert time, mirroring the
// database sequence column.
type ChatMessageRepository struct {
	mu       sync.RWMutex
	messages map[uuid.UUID]*entity.ChatMessage
	nextSeq  map[uuid.UUID]int64
}

func NewChatMessageRepository() contract.ChatMessageRepository {
	return &ChatMessageRepository{
		messages: make(map[uuid.UUID]*entity.ChatMessage),
		nextSeq:  make(map[uuid.UUID]int64),
	}
}

func (r *ChatMessageRepository) Create(ctx context.Context, message *entity.ChatMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if message.Id == uuid.Nil {
		message.Id = uuid.New()
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}
	if message.Seq == 0 {
		r.nextSeq[message.ChatSessionId]++
		message.Seq = r.nextSeq[message.ChatSessionId]
	} else if message.Seq > r.nextSeq[message.ChatSessionId] {
		r.nextSeq[message.ChatSessionId] = message.Seq
	}
	cp := *message
	r.messages[message.Id] = &cp
	return nil
}

func (r *ChatMessageRepository) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatMessage, error) {
	matches, err := r.FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}
	return matches[0], nil
}

func (r *ChatMessageRepository) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatMessage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*entity.ChatMessage
	for _, m := range r.messages {
		if matchesMessageSpecs(m, specs) {
			cp := *m
			result = append(result, &cp)
		}
	}

	applyMessageOrdering(result, specs)
	return result, nil
}

func (r *ChatMessageRepository) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	all, err := r.FindAll(ctx, specs...)
	if err != nil {
		return 0, err
	}
	return int64(len(all)), nil
}

func (r *ChatMessageRepository) UpdateFeedback(ctx context.Context, id uuid.UUID, feedback *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if m, ok := r.messages[id]; ok {
		m.Feedback = feedback
	}
	return nil
}

func (r *ChatMessageRepository) DeleteByChatSessionId(ctx context.Context, chatSessionId uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, m := range r.messages {
		if m.ChatSessionId == chatSessionId {
			delete(r.messages, id)
		}
	}
	delete(r.nextSeq, chatSessionId)
	return nil
}

func matchesMessageSpecs(m *entity.ChatMessage, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch sp := spec.(type) {
		case specification.ByID:
			if m.Id != sp.ID {
				return false
			}
		case specification.ByChatSessionID:
			if m.ChatSessionId != sp.ChatSessionID {
				return false
			}
		}
	}
	return true
}

func applyMessageOrdering(messages []*entity.ChatMessage, specs []specification.Specification) {
	ordered := false
	for _, spec := range specs {
		order, ok := spec.(specification.OrderBy)
		if !ok {
			continue
		}
		ordered = true
		sort.SliceStable(messages, func(i, j int) bool {
			var less bool
			switch order.Field {
			case "seq":
				less = messages[i].Seq < messages[j].Seq
			case "created_at":
				less = messages[i].CreatedAt.Before(messages[j].CreatedAt)
			default:
				return false
			}
			if order.Desc {
				return !less
			}
			return less
		})
	}
	if !ordered {
		sort.SliceStable(messages, func(i, j int) bool {
			return messages[i].Seq < messages[j].Seq
		})
	}
}
