package service

import (
	"context"
	"strings"
	"testing"

	"ai-assistant-be/internal/constant"
	"ai-assistant-be/internal/dto"
	"ai-assistant-be/internal/repository/memory"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }

type capturingPublisher struct {
	published [][]byte
	failNext  bool
}

func (p *capturingPublisher) Publish(ctx context.Context, payload []byte) error {
	if p.failNext {
		p.failNext = false
		return assert.AnError
	}
	p.published = append(p.published, payload)
	return nil
}

type chatbotFixture struct {
	svc       IChatbotService
	factory   *memory.RepositoryFactory
	stateRepo *memory.SessionStateRepository
	publisher *capturingPublisher
}

func newChatbotFixture(t *testing.T) *chatbotFixture {
	t.Helper()
	factory := memory.NewRepositoryFactory()
	stateRepo := memory.NewSessionStateRepository()
	publisher := &capturingPublisher{}
	svc := NewChatbotService(factory, stateRepo, publisher, nil, "https://app.example.com/", nopLogger{})
	return &chatbotFixture{svc: svc, factory: factory, stateRepo: stateRepo, publisher: publisher}
}

func (f *chatbotFixture) mustSend(t *testing.T, userId uuid.UUID, content string) *dto.SendChatResponse {
	t.Helper()
	res, err := f.svc.SendChat(context.Background(), userId, &dto.SendChatRequest{Content: content})
	require.NoError(t, err)
	return res
}

func TestCreateSessionBecomesCurrent(t *testing.T) {
	f := newChatbotFixture(t)
	userId := uuid.New()

	created, err := f.svc.CreateSession(context.Background(), userId)
	require.NoError(t, err)
	assert.Equal(t, constant.DefaultSessionTitle, created.Title)

	state, err := f.svc.GetState(context.Background(), userId)
	require.NoError(t, err)
	require.NotNil(t, state.CurrentChatSessionId)
	assert.Equal(t, created.Id, *state.CurrentChatSessionId)
	assert.False(t, state.IsGenerating)
}

func TestSendChatRequiresCurrentSession(t *testing.T) {
	f := newChatbotFixture(t)

	_, err := f.svc.SendChat(context.Background(), uuid.New(), &dto.SendChatRequest{Content: "hello"})
	assert.ErrorIs(t, err, constant.ErrNoActiveSession)
}

func TestSendChatAppendsAndDispatches(t *testing.T) {
	f := newChatbotFixture(t)
	userId := uuid.New()

	created, err := f.svc.CreateSession(context.Background(), userId)
	require.NoError(t, err)

	res := f.mustSend(t, userId, "What is the capital of France?")
	assert.Equal(t, created.Id, res.ChatSessionId)
	assert.True(t, res.Pending)
	assert.Equal(t, constant.ChatMessageRoleUser, res.Sent.Role)

	// Command carries the target session so a late reply cannot leak
	require.Len(t, f.publisher.published, 1)
	assert.Contains(t, string(f.publisher.published[0]), created.Id.String())

	state, err := f.svc.GetState(context.Background(), userId)
	require.NoError(t, err)
	assert.True(t, state.IsGenerating)
}

func TestSendChatDerivesTitleFromFirstMessageOnly(t *testing.T) {
	f := newChatbotFixture(t)
	userId := uuid.New()

	_, err := f.svc.CreateSession(context.Background(), userId)
	require.NoError(t, err)

	res := f.mustSend(t, userId, "  Plan\na trip\tto   Kyoto  ")
	assert.Equal(t, "Plan a trip to Kyoto", res.ChatSessionTitle)

	res = f.mustSend(t, userId, "Something completely different")
	assert.Equal(t, "Plan a trip to Kyoto", res.ChatSessionTitle)
}

func TestSendChatTitleIsCapped(t *testing.T) {
	f := newChatbotFixture(t)
	userId := uuid.New()

	_, err := f.svc.CreateSession(context.Background(), userId)
	require.NoError(t, err)

	res := f.mustSend(t, userId, strings.Repeat("x", 200))
	assert.Equal(t, constant.SessionTitleMaxLen, len([]rune(res.ChatSessionTitle)))
}

func TestSendChatDispatchFailureKeepsUserMessage(t *testing.T) {
	f := newChatbotFixture(t)
	userId := uuid.New()

	created, err := f.svc.CreateSession(context.Background(), userId)
	require.NoError(t, err)

	f.publisher.failNext = true
	_, err = f.svc.SendChat(context.Background(), userId, &dto.SendChatRequest{Content: "hello"})
	assert.ErrorIs(t, err, constant.ErrGenerationFailed)

	// Generating flag must be rolled back so the user can retry
	state, err := f.svc.GetState(context.Background(), userId)
	require.NoError(t, err)
	assert.False(t, state.IsGenerating)

	history, err := f.svc.GetChatHistory(context.Background(), userId, created.Id)
	require.NoError(t, err)
	require.Len(t, history.Messages, 1)
	assert.Equal(t, "hello", history.Messages[0].Content)
}

func TestRenameSession(t *testing.T) {
	f := newChatbotFixture(t)
	userId := uuid.New()

	created, err := f.svc.CreateSession(context.Background(), userId)
	require.NoError(t, err)

	err = f.svc.RenameSession(context.Background(), userId, &dto.RenameSessionRequest{Id: created.Id, NewTitle: "   "})
	assert.ErrorIs(t, err, constant.ErrInvalidTitle)

	err = f.svc.RenameSession(context.Background(), userId, &dto.RenameSessionRequest{Id: created.Id, NewTitle: "  My research  "})
	require.NoError(t, err)

	// A manual title sticks; the next message must not re-derive it
	f.mustSend(t, userId, "first message after rename")

	history, err := f.svc.GetChatHistory(context.Background(), userId, created.Id)
	require.NoError(t, err)
	assert.Equal(t, "My research", history.Title)
}

func TestRenameToPlaceholderTitleSticks(t *testing.T) {
	f := newChatbotFixture(t)
	userId := uuid.New()

	created, err := f.svc.CreateSession(context.Background(), userId)
	require.NoError(t, err)

	// Deliberately renaming to the placeholder text is still a manual title
	err = f.svc.RenameSession(context.Background(), userId, &dto.RenameSessionRequest{Id: created.Id, NewTitle: constant.DefaultSessionTitle})
	require.NoError(t, err)

	f.mustSend(t, userId, "this must not become the title")

	history, err := f.svc.GetChatHistory(context.Background(), userId, created.Id)
	require.NoError(t, err)
	assert.Equal(t, constant.DefaultSessionTitle, history.Title)
}

func TestArchiveHidesFromListingAndSearch(t *testing.T) {
	f := newChatbotFixture(t)
	userId := uuid.New()

	first, err := f.svc.CreateSession(context.Background(), userId)
	require.NoError(t, err)
	require.NoError(t, f.svc.RenameSession(context.Background(), userId, &dto.RenameSessionRequest{Id: first.Id, NewTitle: "Golang questions"}))

	second, err := f.svc.CreateSession(context.Background(), userId)
	require.NoError(t, err)
	require.NoError(t, f.svc.RenameSession(context.Background(), userId, &dto.RenameSessionRequest{Id: second.Id, NewTitle: "Golang recipes"}))

	require.NoError(t, f.svc.ArchiveSession(context.Background(), userId, first.Id))

	listed, err := f.svc.GetAllSessions(context.Background(), userId, &dto.GetAllSessionsRequest{})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, second.Id, listed[0].Id)

	// Search never matches archived sessions either
	found, err := f.svc.GetAllSessions(context.Background(), userId, &dto.GetAllSessionsRequest{Query: "golang"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, second.Id, found[0].Id)

	all, err := f.svc.GetAllSessions(context.Background(), userId, &dto.GetAllSessionsRequest{IncludeArchived: true})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	// Archived sessions stay readable by id
	history, err := f.svc.GetChatHistory(context.Background(), userId, first.Id)
	require.NoError(t, err)
	assert.Equal(t, first.Id, history.ChatSessionId)
}

func TestRenameDoesNotBumpActivityOrdering(t *testing.T) {
	f := newChatbotFixture(t)
	userId := uuid.New()

	older, err := f.svc.CreateSession(context.Background(), userId)
	require.NoError(t, err)
	newer, err := f.svc.CreateSession(context.Background(), userId)
	require.NoError(t, err)

	// Activity on the older session puts it on top
	require.NoError(t, f.svc.SelectSession(context.Background(), userId, older.Id))
	f.mustSend(t, userId, "some activity")

	// Rename and archive cycle are not activity; the order must hold
	require.NoError(t, f.svc.RenameSession(context.Background(), userId, &dto.RenameSessionRequest{Id: newer.Id, NewTitle: "renamed"}))
	require.NoError(t, f.svc.ArchiveSession(context.Background(), userId, newer.Id))
	require.NoError(t, f.svc.UnarchiveSession(context.Background(), userId, newer.Id))

	listed, err := f.svc.GetAllSessions(context.Background(), userId, &dto.GetAllSessionsRequest{})
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, older.Id, listed[0].Id)
	assert.Equal(t, newer.Id, listed[1].Id)
}

func TestArchiveCurrentSessionDeselectsIt(t *testing.T) {
	f := newChatbotFixture(t)
	userId := uuid.New()

	created, err := f.svc.CreateSession(context.Background(), userId)
	require.NoError(t, err)

	require.NoError(t, f.svc.ArchiveSession(context.Background(), userId, created.Id))

	state, err := f.svc.GetState(context.Background(), userId)
	require.NoError(t, err)
	assert.Nil(t, state.CurrentChatSessionId)

	// Unarchive restores the session but not the selection
	require.NoError(t, f.svc.UnarchiveSession(context.Background(), userId, created.Id))
	listed, err := f.svc.GetAllSessions(context.Background(), userId, &dto.GetAllSessionsRequest{})
	require.NoError(t, err)
	assert.Len(t, listed, 1)
}

func TestDeleteSessionCascades(t *testing.T) {
	f := newChatbotFixture(t)
	userId := uuid.New()

	created, err := f.svc.CreateSession(context.Background(), userId)
	require.NoError(t, err)
	f.mustSend(t, userId, "to be deleted")

	require.NoError(t, f.svc.DeleteSession(context.Background(), userId, created.Id))

	_, err = f.svc.GetChatHistory(context.Background(), userId, created.Id)
	assert.ErrorIs(t, err, constant.ErrSessionNotFound)

	state, err := f.svc.GetState(context.Background(), userId)
	require.NoError(t, err)
	assert.Nil(t, state.CurrentChatSessionId)
}

func TestOwnershipIsIndistinguishableFromMissing(t *testing.T) {
	f := newChatbotFixture(t)
	owner := uuid.New()
	intruder := uuid.New()

	created, err := f.svc.CreateSession(context.Background(), owner)
	require.NoError(t, err)

	_, err = f.svc.GetChatHistory(context.Background(), intruder, created.Id)
	assert.ErrorIs(t, err, constant.ErrSessionNotFound)

	err = f.svc.SelectSession(context.Background(), intruder, created.Id)
	assert.ErrorIs(t, err, constant.ErrSessionNotFound)

	err = f.svc.DeleteSession(context.Background(), intruder, created.Id)
	assert.ErrorIs(t, err, constant.ErrSessionNotFound)
}

func TestFeedbackToggle(t *testing.T) {
	f := newChatbotFixture(t)
	userId := uuid.New()

	_, err := f.svc.CreateSession(context.Background(), userId)
	require.NoError(t, err)
	sent := f.mustSend(t, userId, "rate me")
	messageId := sent.Sent.Id

	res, err := f.svc.UpdateFeedback(context.Background(), userId, &dto.UpdateFeedbackRequest{MessageId: messageId, Feedback: constant.ChatFeedbackLike})
	require.NoError(t, err)
	require.NotNil(t, res.Feedback)
	assert.Equal(t, constant.ChatFeedbackLike, *res.Feedback)

	// Opposite value replaces
	res, err = f.svc.UpdateFeedback(context.Background(), userId, &dto.UpdateFeedbackRequest{MessageId: messageId, Feedback: constant.ChatFeedbackDislike})
	require.NoError(t, err)
	require.NotNil(t, res.Feedback)
	assert.Equal(t, constant.ChatFeedbackDislike, *res.Feedback)

	// Same value clears
	res, err = f.svc.UpdateFeedback(context.Background(), userId, &dto.UpdateFeedbackRequest{MessageId: messageId, Feedback: constant.ChatFeedbackDislike})
	require.NoError(t, err)
	assert.Nil(t, res.Feedback)
}

func TestFeedbackHiddenAcrossUsers(t *testing.T) {
	f := newChatbotFixture(t)
	owner := uuid.New()
	intruder := uuid.New()

	_, err := f.svc.CreateSession(context.Background(), owner)
	require.NoError(t, err)
	sent := f.mustSend(t, owner, "private message")

	_, err = f.svc.UpdateFeedback(context.Background(), intruder, &dto.UpdateFeedbackRequest{MessageId: sent.Sent.Id, Feedback: constant.ChatFeedbackLike})
	assert.ErrorIs(t, err, constant.ErrMessageNotFound)

	_, err = f.svc.UpdateFeedback(context.Background(), owner, &dto.UpdateFeedbackRequest{MessageId: uuid.New(), Feedback: constant.ChatFeedbackLike})
	assert.ErrorIs(t, err, constant.ErrMessageNotFound)
}

func TestShareURLIsStable(t *testing.T) {
	f := newChatbotFixture(t)
	userId := uuid.New()

	created, err := f.svc.CreateSession(context.Background(), userId)
	require.NoError(t, err)

	first, err := f.svc.ShareSession(context.Background(), userId, created.Id)
	require.NoError(t, err)
	second, err := f.svc.ShareSession(context.Background(), userId, created.Id)
	require.NoError(t, err)

	assert.Equal(t, "https://app.example.com/share/"+created.Id.String(), first.URL)
	assert.Equal(t, first.URL, second.URL)
}

func TestExportSession(t *testing.T) {
	f := newChatbotFixture(t)
	userId := uuid.New()

	created, err := f.svc.CreateSession(context.Background(), userId)
	require.NoError(t, err)

	// Empty transcript exports nothing
	res, err := f.svc.ExportSession(context.Background(), userId, created.Id)
	require.NoError(t, err)
	assert.Nil(t, res)

	f.mustSend(t, userId, "hello there")

	res, err = f.svc.ExportSession(context.Background(), userId, created.Id)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, constant.ExportRoleUser+": hello there", res.Text)

	// Unknown session also exports nothing rather than erroring
	res, err = f.svc.ExportSession(context.Background(), userId, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestGetStateDefaultsWhenUnknown(t *testing.T) {
	f := newChatbotFixture(t)

	state, err := f.svc.GetState(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, state.CurrentChatSessionId)
	assert.False(t, state.IsGenerating)
}

func TestStarterPrompts(t *testing.T) {
	f := newChatbotFixture(t)

	prompts := f.svc.GetStarterPrompts(context.Background())
	require.NotEmpty(t, prompts)
	for _, p := range prompts {
		assert.NotEmpty(t, p.Title)
		assert.NotEmpty(t, p.Prompt)
	}
}
