package mapper

import (
	"encoding/json"
	"time"

	"ai-assistant-be/internal/entity"
	"ai-assistant-be/internal/model"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ChatMapper struct{}

func NewChatMapper() *ChatMapper {
	return &ChatMapper{}
}

// Session Mappers

func (m *ChatMapper) ChatSessionToEntity(s *model.ChatSession) *entity.ChatSession {
	if s == nil {
		return nil
	}

	var deletedAt *time.Time
	if s.DeletedAt.Valid {
		t := s.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !s.UpdatedAt.IsZero() {
		t := s.UpdatedAt
		updatedAt = &t
	}

	return &entity.ChatSession{
		Id:          s.Id,
		UserId:      s.UserId,
		Title:       s.Title,
		TitleLocked: s.TitleLocked,
		Archived:    s.Archived,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   updatedAt,
		DeletedAt:   deletedAt,
		IsDeleted:   s.DeletedAt.Valid,
	}
}

func (m *ChatMapper) ChatSessionToModel(s *entity.ChatSession) *model.ChatSession {
	if s == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if s.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *s.DeletedAt, Valid: true}
	} else if s.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if s.UpdatedAt != nil {
		updatedAt = *s.UpdatedAt
	}

	return &model.ChatSession{
		Id:          s.Id,
		UserId:      s.UserId,
		Title:       s.Title,
		TitleLocked: s.TitleLocked,
		Archived:    s.Archived,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   updatedAt,
		DeletedAt:   deletedAt,
	}
}

// Message Mappers

func (m *ChatMapper) ChatMessageToEntity(msg *model.ChatMessage) *entity.ChatMessage {
	if msg == nil {
		return nil
	}

	var attachments []entity.ChatAttachment
	if len(msg.Attachments) > 0 {
		// Corrupt attachment JSON degrades to no attachments rather than
		// failing the whole read.
		_ = json.Unmarshal(msg.Attachments, &attachments)
	}

	return &entity.ChatMessage{
		Id:            msg.Id,
		ChatSessionId: msg.ChatSessionId,
		Role:          msg.Role,
		Content:       msg.Content,
		Feedback:      msg.Feedback,
		Attachments:   attachments,
		Seq:           msg.Seq,
		CreatedAt:     msg.CreatedAt,
	}
}

func (m *ChatMapper) ChatMessageToModel(msg *entity.ChatMessage) *model.ChatMessage {
	if msg == nil {
		return nil
	}

	var attachments datatypes.JSON
	if len(msg.Attachments) > 0 {
		if data, err := json.Marshal(msg.Attachments); err == nil {
			attachments = data
		}
	}

	return &model.ChatMessage{
		Id:            msg.Id,
		ChatSessionId: msg.ChatSessionId,
		Role:          msg.Role,
		Content:       msg.Content,
		Feedback:      msg.Feedback,
		Attachments:   attachments,
		Seq:           msg.Seq,
		CreatedAt:     msg.CreatedAt,
	}
}

func (m *ChatMapper) ChatMessagesToEntities(msgs []*model.ChatMessage) []*entity.ChatMessage {
	entities := make([]*entity.ChatMessage, len(msgs))
	for i, msg := range msgs {
		entities[i] = m.ChatMessageToEntity(msg)
	}
	return entities
}
