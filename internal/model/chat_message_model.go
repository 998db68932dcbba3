package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ChatMessage struct {
	Id            uuid.UUID `gorm:"type:uuid;primaryKey"`
	ChatSessionId uuid.UUID `gorm:"type:uuid;not null;index"`
	Role          string    `gorm:"type:varchar(20);not null"`
	Content       string    `gorm:"type:text;not null"`
	Feedback      *string   `gorm:"type:varchar(10)"`
	Attachments   datatypes.JSON
	Seq           int64     `gorm:"not null;index:idx_chat_messages_session_seq"`
	CreatedAt     time.Time `gorm:"autoCreateTime"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}
