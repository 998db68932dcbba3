package memory

import (
	"context"
	"testing"

	"ai-assistant-be/internal/entity"
	"ai-assistant-be/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageSeqAssignedPerSession(t *testing.T) {
	repo := NewChatMessageRepository().(*ChatMessageRepository)
	ctx := context.Background()
	first := uuid.New()
	second := uuid.New()

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(ctx, &entity.ChatMessage{ChatSessionId: first, Role: "user", Content: "a"}))
	}
	require.NoError(t, repo.Create(ctx, &entity.ChatMessage{ChatSessionId: second, Role: "user", Content: "b"}))

	messages, err := repo.FindAll(ctx, specification.ByChatSessionID{ChatSessionID: first})
	require.NoError(t, err)
	require.Len(t, messages, 3)
	for i, m := range messages {
		assert.Equal(t, int64(i+1), m.Seq)
	}

	other, err := repo.FindAll(ctx, specification.ByChatSessionID{ChatSessionID: second})
	require.NoError(t, err)
	require.Len(t, other, 1)
	assert.Equal(t, int64(1), other[0].Seq)
}

func TestMessageOrderingDefaultsToSeq(t *testing.T) {
	repo := NewChatMessageRepository().(*ChatMessageRepository)
	ctx := context.Background()
	sessionId := uuid.New()

	// Insert out of order with explicit seqs
	require.NoError(t, repo.Create(ctx, &entity.ChatMessage{ChatSessionId: sessionId, Seq: 2, Content: "second"}))
	require.NoError(t, repo.Create(ctx, &entity.ChatMessage{ChatSessionId: sessionId, Seq: 1, Content: "first"}))

	messages, err := repo.FindAll(ctx, specification.ByChatSessionID{ChatSessionID: sessionId})
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "first", messages[0].Content)
	assert.Equal(t, "second", messages[1].Content)

	// The counter continues after the highest explicit seq
	next := &entity.ChatMessage{ChatSessionId: sessionId, Content: "third"}
	require.NoError(t, repo.Create(ctx, next))
	assert.Equal(t, int64(3), next.Seq)
}

func TestMessageFeedbackUpdate(t *testing.T) {
	repo := NewChatMessageRepository().(*ChatMessageRepository)
	ctx := context.Background()

	msg := &entity.ChatMessage{ChatSessionId: uuid.New(), Role: "assistant", Content: "hi"}
	require.NoError(t, repo.Create(ctx, msg))

	like := "like"
	require.NoError(t, repo.UpdateFeedback(ctx, msg.Id, &like))

	found, err := repo.FindOne(ctx, specification.ByID{ID: msg.Id})
	require.NoError(t, err)
	require.NotNil(t, found.Feedback)
	assert.Equal(t, "like", *found.Feedback)

	require.NoError(t, repo.UpdateFeedback(ctx, msg.Id, nil))
	found, err = repo.FindOne(ctx, specification.ByID{ID: msg.Id})
	require.NoError(t, err)
	assert.Nil(t, found.Feedback)
}

func TestDeleteByChatSessionIdRemovesTranscript(t *testing.T) {
	repo := NewChatMessageRepository().(*ChatMessageRepository)
	ctx := context.Background()
	victim := uuid.New()
	survivor := uuid.New()

	require.NoError(t, repo.Create(ctx, &entity.ChatMessage{ChatSessionId: victim, Content: "bye"}))
	require.NoError(t, repo.Create(ctx, &entity.ChatMessage{ChatSessionId: survivor, Content: "stay"}))

	require.NoError(t, repo.DeleteByChatSessionId(ctx, victim))

	gone, err := repo.Count(ctx, specification.ByChatSessionID{ChatSessionID: victim})
	require.NoError(t, err)
	assert.Zero(t, gone)

	kept, err := repo.Count(ctx, specification.ByChatSessionID{ChatSessionID: survivor})
	require.NoError(t, err)
	assert.Equal(t, int64(1), kept)

	// Seq restarts for a recreated transcript
	fresh := &entity.ChatMessage{ChatSessionId: victim, Content: "new"}
	require.NoError(t, repo.Create(ctx, fresh))
	assert.Equal(t, int64(1), fresh.Seq)
}
