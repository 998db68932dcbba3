package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ChatSession struct {
	Id          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId      uuid.UUID `gorm:"type:uuid;not null;index"` // User ownership for data isolation
	Title       string    `gorm:"type:text;not null"`
	TitleLocked bool      `gorm:"not null;default:false"`
	Archived    bool      `gorm:"not null;default:false;index"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	// UpdatedAt doubles as the last-activity timestamp used for sidebar
	// ordering. It is written explicitly on message append and must not be
	// touched by rename/archive saves, hence no auto-update.
	UpdatedAt time.Time      `gorm:"autoUpdateTime:false"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (ChatSession) TableName() string {
	return "chat_sessions"
}
