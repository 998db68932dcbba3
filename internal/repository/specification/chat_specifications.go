package specification

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ByChatSessionID struct {
	ChatSessionID uuid.UUID
}

func (s ByChatSessionID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("chat_session_id = ?", s.ChatSessionID)
}

// TitleContains does a case-insensitive substring match on the session title.
type TitleContains struct {
	Query string
}

// likeEscaper neutralizes LIKE metacharacters so a query such as "100%" or
// "a_b" matches literally instead of acting as a wildcard.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePattern(query string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(query)) + "%"
}

func (s TitleContains) Apply(db *gorm.DB) *gorm.DB {
	return db.Where(`LOWER(title) LIKE ? ESCAPE '\'`, likePattern(s.Query))
}

// ExcludeArchived hides archived sessions from the default listing and from
// title search. Archived sessions stay retrievable by id.
type ExcludeArchived struct{}

func (s ExcludeArchived) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("archived = ?", false)
}
