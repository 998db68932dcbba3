package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"ai-assistant-be/internal/constant"
	"ai-assistant-be/internal/dto"
	"ai-assistant-be/internal/repository/memory"
	"ai-assistant-be/internal/websocket"
	"ai-assistant-be/pkg/llm"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLLM struct {
	mu      sync.Mutex
	reply   string
	err     error
	history []llm.Message
}

func (s *stubLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = history
	return s.reply, s.err
}

func (s *stubLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return s.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}})
}

func (s *stubLLM) lastHistory() []llm.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history
}

type generationFixture struct {
	chatbot   IChatbotService
	stateRepo *memory.SessionStateRepository
	llm       *stubLLM
	pubSub    *gochannel.GoChannel
}

func newGenerationFixture(t *testing.T) *generationFixture {
	t.Helper()

	factory := memory.NewRepositoryFactory()
	stateRepo := memory.NewSessionStateRepository()
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	publisher := NewPublisherService(pubSub, constant.GenerateReplyTopic)
	stub := &stubLLM{reply: "generated reply"}
	hub := websocket.NewHub(nil, nopLogger{})

	generation := NewGenerationService(
		pubSub,
		constant.GenerateReplyTopic,
		factory,
		stub,
		stateRepo,
		hub,
		5*time.Second,
		nopLogger{},
	)
	require.NoError(t, generation.Consume(context.Background()))

	chatbot := NewChatbotService(factory, stateRepo, publisher, nil, "https://app.example.com", nopLogger{})

	return &generationFixture{chatbot: chatbot, stateRepo: stateRepo, llm: stub, pubSub: pubSub}
}

func TestGenerationAppendsAssistantReply(t *testing.T) {
	f := newGenerationFixture(t)
	userId := uuid.New()

	created, err := f.chatbot.CreateSession(context.Background(), userId)
	require.NoError(t, err)

	_, err = f.chatbot.SendChat(context.Background(), userId, &dto.SendChatRequest{Content: "hello model"})
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		history, err := f.chatbot.GetChatHistory(context.Background(), userId, created.Id)
		if err != nil {
			return false
		}
		return len(history.Messages) == 2
	}, 3*time.Second, 10*time.Millisecond)

	history, err := f.chatbot.GetChatHistory(context.Background(), userId, created.Id)
	require.NoError(t, err)
	assert.Equal(t, constant.ChatMessageRoleUser, history.Messages[0].Role)
	assert.Equal(t, constant.ChatMessageRoleAssistant, history.Messages[1].Role)
	assert.Equal(t, "generated reply", history.Messages[1].Content)

	// The model saw the transcript including the new user message
	sent := f.llm.lastHistory()
	require.Len(t, sent, 1)
	assert.Equal(t, "hello model", sent[0].Content)

	// Generating flag cleared once the reply landed
	assert.Eventually(t, func() bool {
		state, err := f.chatbot.GetState(context.Background(), userId)
		return err == nil && !state.IsGenerating
	}, 3*time.Second, 10*time.Millisecond)
}

func TestGenerationFailureClearsStateWithoutReply(t *testing.T) {
	f := newGenerationFixture(t)
	f.llm.err = errors.New("model unavailable")
	userId := uuid.New()

	created, err := f.chatbot.CreateSession(context.Background(), userId)
	require.NoError(t, err)

	_, err = f.chatbot.SendChat(context.Background(), userId, &dto.SendChatRequest{Content: "hello"})
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		state, err := f.chatbot.GetState(context.Background(), userId)
		return err == nil && !state.IsGenerating
	}, 3*time.Second, 10*time.Millisecond)

	// No assistant message was appended; the user message survives for retry
	history, err := f.chatbot.GetChatHistory(context.Background(), userId, created.Id)
	require.NoError(t, err)
	require.Len(t, history.Messages, 1)
	assert.Equal(t, constant.ChatMessageRoleUser, history.Messages[0].Role)
}

func TestGenerationReplyLandsInOriginSessionAfterSwitch(t *testing.T) {
	f := newGenerationFixture(t)
	userId := uuid.New()

	origin, err := f.chatbot.CreateSession(context.Background(), userId)
	require.NoError(t, err)

	_, err = f.chatbot.SendChat(context.Background(), userId, &dto.SendChatRequest{Content: "slow question"})
	require.NoError(t, err)

	// Switch sessions while the reply is (potentially) still in flight
	other, err := f.chatbot.CreateSession(context.Background(), userId)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		history, err := f.chatbot.GetChatHistory(context.Background(), userId, origin.Id)
		if err != nil {
			return false
		}
		return len(history.Messages) == 2
	}, 3*time.Second, 10*time.Millisecond)

	otherHistory, err := f.chatbot.GetChatHistory(context.Background(), userId, other.Id)
	require.NoError(t, err)
	assert.Empty(t, otherHistory.Messages)
}

func TestGenerationDropsReplyForDeletedSession(t *testing.T) {
	f := newGenerationFixture(t)
	userId := uuid.New()

	created, err := f.chatbot.CreateSession(context.Background(), userId)
	require.NoError(t, err)
	require.NoError(t, f.chatbot.DeleteSession(context.Background(), userId, created.Id))

	// Publish a command for the session that no longer exists
	command := dto.GenerateReplyCommand{
		ChatSessionId: created.Id,
		UserId:        userId,
		UserMessageId: uuid.New(),
	}
	payload, err := json.Marshal(command)
	require.NoError(t, err)
	publisher := NewPublisherService(f.pubSub, constant.GenerateReplyTopic)
	require.NoError(t, publisher.Publish(context.Background(), payload))

	// The worker drops it; nothing reappears under the deleted id
	time.Sleep(200 * time.Millisecond)
	_, err = f.chatbot.GetChatHistory(context.Background(), userId, created.Id)
	assert.ErrorIs(t, err, constant.ErrSessionNotFound)
}
