package model

import (
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// UpdatedAt is the last-activity timestamp, written explicitly on message
// append. If the field ever loses its tag, GORM's conventional update
// callback starts bumping it on every Save (rename, archive), which breaks
// sidebar ordering on the database backend.
func TestChatSessionUpdatedAtIsNotAutoManaged(t *testing.T) {
	field, ok := reflect.TypeOf(ChatSession{}).FieldByName("UpdatedAt")
	require.True(t, ok)
	assert.True(t, strings.Contains(field.Tag.Get("gorm"), "autoUpdateTime:false"),
		"chat_sessions.updated_at must not be auto-updated by GORM")
}
