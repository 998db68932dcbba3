package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"ai-assistant-be/internal/entity"
	"ai-assistant-be/internal/repository/contract"
	"ai-assistant-be/internal/repository/specification"

	"github.com/google/uuid"
)

// ChatSessionRepository is an in-memory implementation of
// contract.ChatSessionRepository. It interprets the same specification
// values the gorm implementation does, so services run unchanged on top
// of either backend. Used by tests and local development.
type ChatSessionRepository struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*entity.ChatSession
}

func NewChatSessionRepository() contract.ChatSessionRepository {
	return &ChatSessionRepository{
		sessions: make(map[uuid.UUID]*entity.ChatSession),
	}
}

func (r *ChatSessionRepository) Create(ctx context.Context, session *entity.ChatSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if session.Id == uuid.Nil {
		session.Id = uuid.New()
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}
	cp := *session
	r.sessions[session.Id] = &cp
	return nil
}

func (r *ChatSessionRepository) Update(ctx context.Context, session *entity.ChatSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *session
	r.sessions[session.Id] = &cp
	return nil
}

func (r *ChatSessionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[id]; ok {
		now := time.Now()
		s.IsDeleted = true
		s.DeletedAt = &now
	}
	return nil
}

func (r *ChatSessionRepository) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatSession, error) {
	matches, err := r.FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}
	return matches[0], nil
}

func (r *ChatSessionRepository) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*entity.ChatSession
	for _, s := range r.sessions {
		if s.IsDeleted {
			continue
		}
		if matchesSessionSpecs(s, specs) {
			cp := *s
			result = append(result, &cp)
		}
	}

	applySessionOrdering(result, specs)
	result = applySessionPagination(result, specs)
	return result, nil
}

func (r *ChatSessionRepository) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	all, err := r.FindAll(ctx, specs...)
	if err != nil {
		return 0, err
	}
	return int64(len(all)), nil
}

func matchesSessionSpecs(s *entity.ChatSession, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch sp := spec.(type) {
		case specification.ByID:
			if s.Id != sp.ID {
				return false
			}
		case specification.ByIDs:
			found := false
			for _, id := range sp.IDs {
				if s.Id == id {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		case specification.UserOwnedBy:
			if s.UserId != sp.UserID {
				return false
			}
		case specification.TitleContains:
			if !strings.Contains(strings.ToLower(s.Title), strings.ToLower(sp.Query)) {
				return false
			}
		case specification.ExcludeArchived:
			if s.Archived {
				return false
			}
		}
	}
	return true
}

func applySessionOrdering(sessions []*entity.ChatSession, specs []specification.Specification) {
	for _, spec := range specs {
		order, ok := spec.(specification.OrderBy)
		if !ok {
			continue
		}
		sort.SliceStable(sessions, func(i, j int) bool {
			var less bool
			switch order.Field {
			case "updated_at":
				less = lastActivity(sessions[i]).Before(lastActivity(sessions[j]))
			case "created_at":
				less = sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
			case "title":
				less = sessions[i].Title < sessions[j].Title
			default:
				return false
			}
			if order.Desc {
				return !less
			}
			return less
		})
	}
}

func lastActivity(s *entity.ChatSession) time.Time {
	if s.UpdatedAt != nil {
		return *s.UpdatedAt
	}
	return s.CreatedAt
}

func applySessionPagination(sessions []*entity.ChatSession, specs []specification.Specification) []*entity.ChatSession {
	for _, spec := range specs {
		p, ok := spec.(specification.Pagination)
		if !ok {
			continue
		}
		if p.Offset >= len(sessions) {
			return nil
		}
		sessions = sessions[p.Offset:]
		if p.Limit > 0 && p.Limit < len(sessions) {
			sessions = sessions[:p.Limit]
		}
	}
	return sessions
}
