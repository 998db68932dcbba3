package entity

import (
	"time"

	"github.com/google/uuid"
)

type ChatSession struct {
	Id     uuid.UUID
	UserId uuid.UUID
	Title  string
	// TitleLocked is set once the title is derived from the first message or
	// chosen by the user. A locked title is never auto-derived again, even
	// when it happens to equal the placeholder.
	TitleLocked bool
	Archived    bool
	CreatedAt time.Time
	// UpdatedAt is the last-activity timestamp. It is bumped whenever a
	// message is appended, never on select.
	UpdatedAt *time.Time
	DeletedAt *time.Time
	IsDeleted bool
}
