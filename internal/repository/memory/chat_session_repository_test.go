package memory

import (
	"context"
	"testing"
	"time"

	"ai-assistant-be/internal/entity"
	"ai-assistant-be/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedSession(t *testing.T, repo *ChatSessionRepository, userId uuid.UUID, title string, createdAt time.Time, updatedAt *time.Time) *entity.ChatSession {
	t.Helper()
	s := &entity.ChatSession{
		Id:        uuid.New(),
		UserId:    userId,
		Title:     title,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}
	require.NoError(t, repo.Create(context.Background(), s))
	return s
}

func TestSessionOrderingByActivity(t *testing.T) {
	repo := NewChatSessionRepository().(*ChatSessionRepository)
	userId := uuid.New()
	base := time.Now()

	// Untouched session falls back to CreatedAt for ordering
	idle := seedSession(t, repo, userId, "idle", base.Add(-2*time.Hour), nil)
	activeAt := base.Add(-time.Minute)
	active := seedSession(t, repo, userId, "active", base.Add(-3*time.Hour), &activeAt)
	fresh := seedSession(t, repo, userId, "fresh", base, nil)

	result, err := repo.FindAll(context.Background(),
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "updated_at", Desc: true},
	)
	require.NoError(t, err)
	require.Len(t, result, 3)
	assert.Equal(t, fresh.Id, result[0].Id)
	assert.Equal(t, active.Id, result[1].Id)
	assert.Equal(t, idle.Id, result[2].Id)
}

func TestSessionPagination(t *testing.T) {
	repo := NewChatSessionRepository().(*ChatSessionRepository)
	userId := uuid.New()
	base := time.Now()

	for i := 0; i < 5; i++ {
		seedSession(t, repo, userId, "s", base.Add(time.Duration(i)*time.Second), nil)
	}

	page, err := repo.FindAll(context.Background(),
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: false},
		specification.Pagination{Offset: 2, Limit: 2},
	)
	require.NoError(t, err)
	assert.Len(t, page, 2)

	past, err := repo.FindAll(context.Background(),
		specification.UserOwnedBy{UserID: userId},
		specification.Pagination{Offset: 10},
	)
	require.NoError(t, err)
	assert.Empty(t, past)
}

func TestSessionDeleteHidesFromQueries(t *testing.T) {
	repo := NewChatSessionRepository().(*ChatSessionRepository)
	userId := uuid.New()

	s := seedSession(t, repo, userId, "gone soon", time.Now(), nil)
	require.NoError(t, repo.Delete(context.Background(), s.Id))

	found, err := repo.FindOne(context.Background(), specification.ByID{ID: s.Id})
	require.NoError(t, err)
	assert.Nil(t, found)

	count, err := repo.Count(context.Background(), specification.UserOwnedBy{UserID: userId})
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestSessionFindAllReturnsCopies(t *testing.T) {
	repo := NewChatSessionRepository().(*ChatSessionRepository)
	userId := uuid.New()

	s := seedSession(t, repo, userId, "original", time.Now(), nil)

	found, err := repo.FindOne(context.Background(), specification.ByID{ID: s.Id})
	require.NoError(t, err)
	found.Title = "mutated"

	again, err := repo.FindOne(context.Background(), specification.ByID{ID: s.Id})
	require.NoError(t, err)
	assert.Equal(t, "original", again.Title)
}
