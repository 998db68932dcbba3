package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"ai-assistant-be/internal/constant"
	"ai-assistant-be/internal/dto"
	"ai-assistant-be/internal/entity"
	"ai-assistant-be/internal/pkg/logger"
	"ai-assistant-be/internal/repository/memory"
	"ai-assistant-be/internal/repository/specification"
	"ai-assistant-be/internal/repository/unitofwork"
	"ai-assistant-be/pkg/events"
	pktNats "ai-assistant-be/pkg/nats"
	"ai-assistant-be/pkg/store"

	"github.com/google/uuid"
)

// IChatbotService defines the chatbot service interface
type IChatbotService interface {
	CreateSession(ctx context.Context, userId uuid.UUID) (*dto.CreateSessionResponse, error)
	SelectSession(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) error
	GetAllSessions(ctx context.Context, userId uuid.UUID, request *dto.GetAllSessionsRequest) ([]*dto.GetAllSessionsResponse, error)
	GetChatHistory(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) (*dto.GetChatHistoryResponse, error)
	SendChat(ctx context.Context, userId uuid.UUID, request *dto.SendChatRequest) (*dto.SendChatResponse, error)
	UpdateFeedback(ctx context.Context, userId uuid.UUID, request *dto.UpdateFeedbackRequest) (*dto.UpdateFeedbackResponse, error)
	RenameSession(ctx context.Context, userId uuid.UUID, request *dto.RenameSessionRequest) error
	ArchiveSession(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) error
	UnarchiveSession(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) error
	DeleteSession(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) error
	ShareSession(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) (*dto.ShareSessionResponse, error)
	ExportSession(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) (*dto.ExportSessionResponse, error)
	GetState(ctx context.Context, userId uuid.UUID) (*dto.SessionStateResponse, error)
	GetStarterPrompts(ctx context.Context) []dto.StarterPromptDTO
}

// chatbotService owns the conversation lifecycle: sessions, messages and the
// per-user UI state. Reply generation itself runs out of band; SendChat only
// persists the user message and dispatches a command to the worker.
type chatbotService struct {
	uowFactory       unitofwork.RepositoryFactory
	stateRepo        *memory.SessionStateRepository
	publisherService IPublisherService
	eventPublisher   *pktNats.Publisher
	clientURL        string
	logger           logger.ILogger
}

func NewChatbotService(
	uowFactory unitofwork.RepositoryFactory,
	stateRepo *memory.SessionStateRepository,
	publisherService IPublisherService,
	eventPublisher *pktNats.Publisher,
	clientURL string,
	log logger.ILogger,
) IChatbotService {
	return &chatbotService{
		uowFactory:       uowFactory,
		stateRepo:        stateRepo,
		publisherService: publisherService,
		eventPublisher:   eventPublisher,
		clientURL:        strings.TrimRight(clientURL, "/"),
		logger:           log,
	}
}

// CreateSession creates a new chat session and makes it the user's current one.
func (cs *chatbotService) CreateSession(ctx context.Context, userId uuid.UUID) (*dto.CreateSessionResponse, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	chatSession := entity.ChatSession{
		Id:        uuid.New(),
		UserId:    userId,
		Title:     constant.DefaultSessionTitle,
		CreatedAt: time.Now(),
	}

	if err := uow.ChatSessionRepository().Create(ctx, &chatSession); err != nil {
		return nil, err
	}

	cs.setCurrentSession(userId, &chatSession.Id)

	return &dto.CreateSessionResponse{
		Id:    chatSession.Id,
		Title: chatSession.Title,
	}, nil
}

// SelectSession switches the user's current session. Selecting never counts
// as activity, so UpdatedAt is untouched.
func (cs *chatbotService) SelectSession(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) error {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	sess, err := cs.findOwnedSession(ctx, uow, userId, sessionId)
	if err != nil {
		return err
	}

	cs.setCurrentSession(userId, &sess.Id)
	return nil
}

// GetAllSessions lists the user's sessions, most recently active first.
// Archived sessions are hidden unless explicitly requested; title search
// never matches archived sessions either.
func (cs *chatbotService) GetAllSessions(ctx context.Context, userId uuid.UUID, request *dto.GetAllSessionsRequest) ([]*dto.GetAllSessionsResponse, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	specs := []specification.Specification{
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "updated_at", Desc: true},
	}
	if !request.IncludeArchived {
		specs = append(specs, specification.ExcludeArchived{})
	}
	if request.Query != "" {
		specs = append(specs, specification.TitleContains{Query: request.Query})
	}

	chatSessions, err := uow.ChatSessionRepository().FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}

	response := make([]*dto.GetAllSessionsResponse, 0, len(chatSessions))
	for _, s := range chatSessions {
		response = append(response, &dto.GetAllSessionsResponse{
			Id:        s.Id,
			Title:     s.Title,
			Archived:  s.Archived,
			CreatedAt: s.CreatedAt,
			UpdatedAt: s.UpdatedAt,
		})
	}

	return response, nil
}

// GetChatHistory retrieves the full transcript of a session in creation
// order. Archived sessions stay readable by id.
func (cs *chatbotService) GetChatHistory(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) (*dto.GetChatHistoryResponse, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	sess, err := cs.findOwnedSession(ctx, uow, userId, sessionId)
	if err != nil {
		return nil, err
	}

	chatMessages, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: sessionId},
		specification.OrderBy{Field: "seq", Desc: false},
	)
	if err != nil {
		return nil, err
	}

	messages := make([]dto.ChatMessageDTO, 0, len(chatMessages))
	for _, msg := range chatMessages {
		messages = append(messages, dto.ChatMessageDTO{
			Id:          msg.Id,
			Role:        msg.Role,
			Content:     msg.Content,
			Feedback:    msg.Feedback,
			Attachments: msg.Attachments,
			CreatedAt:   msg.CreatedAt,
		})
	}

	return &dto.GetChatHistoryResponse{
		ChatSessionId: sess.Id,
		Title:         sess.Title,
		Messages:      messages,
	}, nil
}

// SendChat appends the user's message to the current session and dispatches
// an async command for the assistant reply. The reply arrives later over the
// websocket stream; the session the command was built for never changes even
// if the user switches sessions meanwhile.
func (cs *chatbotService) SendChat(ctx context.Context, userId uuid.UUID, request *dto.SendChatRequest) (*dto.SendChatResponse, error) {
	state, found := cs.stateRepo.Get(userId.String())
	if !found || state.CurrentChatSessionId == nil {
		return nil, constant.ErrNoActiveSession
	}
	sessionId := *state.CurrentChatSessionId

	uow := cs.uowFactory.NewUnitOfWork(ctx)

	sess, err := cs.findOwnedSession(ctx, uow, userId, sessionId)
	if err != nil {
		return nil, err
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	now := time.Now()
	userMessage := entity.ChatMessage{
		Id:            uuid.New(),
		ChatSessionId: sess.Id,
		Role:          constant.ChatMessageRoleUser,
		Content:       request.Content,
		Attachments:   request.Attachments,
		CreatedAt:     now,
	}
	if err := uow.ChatMessageRepository().Create(ctx, &userMessage); err != nil {
		return nil, err
	}

	// First user message names the session, unless a title is already locked
	// in by derivation or by a rename. Comparing against the placeholder
	// would re-derive over a deliberate rename to that exact text.
	if !sess.TitleLocked {
		if derived := deriveTitle(request.Content); derived != constant.DefaultSessionTitle {
			sess.Title = derived
			sess.TitleLocked = true
		}
	}
	sess.UpdatedAt = &now
	if err := uow.ChatSessionRepository().Update(ctx, sess); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	state.Generating = true
	state.GeneratingFor = &sess.Id
	cs.stateRepo.Save(state)

	command := dto.GenerateReplyCommand{
		ChatSessionId: sess.Id,
		UserId:        userId,
		UserMessageId: userMessage.Id,
	}
	commandJson, err := json.Marshal(command)
	if err != nil {
		return nil, err
	}
	if err := cs.publisherService.Publish(ctx, commandJson); err != nil {
		// The user message is already committed; it stays even when dispatch
		// fails, so the user can retry without losing what they typed.
		cs.logger.Error("ChatbotService", "Failed to dispatch generation command", map[string]interface{}{
			"error":           err,
			"chat_session_id": sess.Id,
		})
		state.Generating = false
		state.GeneratingFor = nil
		cs.stateRepo.Save(state)
		return nil, constant.ErrGenerationFailed
	}

	return &dto.SendChatResponse{
		ChatSessionId:    sess.Id,
		ChatSessionTitle: sess.Title,
		Sent: dto.ChatMessageDTO{
			Id:          userMessage.Id,
			Role:        userMessage.Role,
			Content:     userMessage.Content,
			Attachments: userMessage.Attachments,
			CreatedAt:   userMessage.CreatedAt,
		},
		Pending: true,
	}, nil
}

// UpdateFeedback toggles like/dislike on a message. Submitting the current
// value clears it, submitting the other value replaces it.
func (cs *chatbotService) UpdateFeedback(ctx context.Context, userId uuid.UUID, request *dto.UpdateFeedbackRequest) (*dto.UpdateFeedbackResponse, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	msg, err := uow.ChatMessageRepository().FindOne(ctx, specification.ByID{ID: request.MessageId})
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, constant.ErrMessageNotFound
	}

	if _, err := cs.findOwnedSession(ctx, uow, userId, msg.ChatSessionId); err != nil {
		// Hide messages of other users' sessions entirely
		return nil, constant.ErrMessageNotFound
	}

	var newFeedback *string
	if msg.Feedback == nil || *msg.Feedback != request.Feedback {
		f := request.Feedback
		newFeedback = &f
	}

	if err := uow.ChatMessageRepository().UpdateFeedback(ctx, msg.Id, newFeedback); err != nil {
		return nil, err
	}

	return &dto.UpdateFeedbackResponse{
		MessageId: msg.Id,
		Feedback:  newFeedback,
	}, nil
}

// RenameSession sets a user-chosen title. Manual titles stick: they are
// never overwritten by auto-derivation afterwards.
func (cs *chatbotService) RenameSession(ctx context.Context, userId uuid.UUID, request *dto.RenameSessionRequest) error {
	title := strings.TrimSpace(request.NewTitle)
	if title == "" {
		return constant.ErrInvalidTitle
	}

	uow := cs.uowFactory.NewUnitOfWork(ctx)

	sess, err := cs.findOwnedSession(ctx, uow, userId, request.Id)
	if err != nil {
		return err
	}

	sess.Title = title
	sess.TitleLocked = true
	return uow.ChatSessionRepository().Update(ctx, sess)
}

// ArchiveSession hides a session from the default listing. Archiving the
// current session also deselects it.
func (cs *chatbotService) ArchiveSession(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) error {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	sess, err := cs.findOwnedSession(ctx, uow, userId, sessionId)
	if err != nil {
		return err
	}

	sess.Archived = true
	if err := uow.ChatSessionRepository().Update(ctx, sess); err != nil {
		return err
	}

	cs.clearCurrentIfMatches(userId, sessionId)
	return nil
}

func (cs *chatbotService) UnarchiveSession(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) error {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	sess, err := cs.findOwnedSession(ctx, uow, userId, sessionId)
	if err != nil {
		return err
	}

	sess.Archived = false
	return uow.ChatSessionRepository().Update(ctx, sess)
}

// DeleteSession removes a session with its full transcript. Deletion is
// terminal: the id never resolves again.
func (cs *chatbotService) DeleteSession(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) error {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	if _, err := cs.findOwnedSession(ctx, uow, userId, sessionId); err != nil {
		return err
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.ChatMessageRepository().DeleteByChatSessionId(ctx, sessionId); err != nil {
		return err
	}
	if err := uow.ChatSessionRepository().Delete(ctx, sessionId); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return err
	}

	cs.clearCurrentIfMatches(userId, sessionId)

	if cs.eventPublisher != nil {
		event := events.BaseEvent{
			Type: "CHAT_SESSION_DELETED",
			Data: map[string]interface{}{
				"user_id":         userId,
				"chat_session_id": sessionId,
			},
			OccurredAt: time.Now(),
		}
		if err := cs.eventPublisher.Publish(ctx, event); err != nil {
			cs.logger.Warn("ChatbotService", "Failed to publish CHAT_SESSION_DELETED event", map[string]interface{}{"error": err})
		}
	}
	return nil
}

// ShareSession returns the stable share URL for a session. The URL is a pure
// function of the session id, so sharing twice yields the same link.
func (cs *chatbotService) ShareSession(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) (*dto.ShareSessionResponse, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	sess, err := cs.findOwnedSession(ctx, uow, userId, sessionId)
	if err != nil {
		return nil, err
	}

	return &dto.ShareSessionResponse{
		ChatSessionId: sess.Id,
		URL:           cs.clientURL + "/share/" + sess.Id.String(),
	}, nil
}

// ExportSession renders a plain-text transcript. Returns nil when there is
// nothing to export (unknown session or no messages); the controller maps
// that to 204.
func (cs *chatbotService) ExportSession(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) (*dto.ExportSessionResponse, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	sess, err := uow.ChatSessionRepository().FindOne(ctx,
		specification.ByID{ID: sessionId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, nil
	}

	chatMessages, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: sessionId},
		specification.OrderBy{Field: "seq", Desc: false},
	)
	if err != nil {
		return nil, err
	}
	if len(chatMessages) == 0 {
		return nil, nil
	}

	lines := make([]string, 0, len(chatMessages))
	for _, msg := range chatMessages {
		label := constant.ExportRoleUser
		if msg.Role == constant.ChatMessageRoleAssistant {
			label = constant.ExportRoleAssistant
		}
		lines = append(lines, label+": "+msg.Content)
	}

	return &dto.ExportSessionResponse{
		ChatSessionId: sess.Id,
		Title:         sess.Title,
		Text:          strings.Join(lines, "\n\n"),
	}, nil
}

// GetState reports what the UI needs on load: the selected session and
// whether a reply is still being generated.
func (cs *chatbotService) GetState(ctx context.Context, userId uuid.UUID) (*dto.SessionStateResponse, error) {
	state, found := cs.stateRepo.Get(userId.String())
	if !found {
		return &dto.SessionStateResponse{}, nil
	}
	return &dto.SessionStateResponse{
		CurrentChatSessionId: state.CurrentChatSessionId,
		IsGenerating:         state.Generating,
	}, nil
}

// GetStarterPrompts returns the suggestions shown on an empty chat.
func (cs *chatbotService) GetStarterPrompts(ctx context.Context) []dto.StarterPromptDTO {
	return []dto.StarterPromptDTO{
		{Title: "Summarize", Prompt: "Summarize the following text for me: "},
		{Title: "Brainstorm", Prompt: "Help me brainstorm ideas about "},
		{Title: "Explain", Prompt: "Explain this concept in simple terms: "},
		{Title: "Draft", Prompt: "Draft a short message about "},
	}
}

// findOwnedSession resolves a session the user owns or returns
// ErrSessionNotFound. Ownership failures are indistinguishable from missing
// sessions on purpose.
func (cs *chatbotService) findOwnedSession(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID, sessionId uuid.UUID) (*entity.ChatSession, error) {
	sess, err := uow.ChatSessionRepository().FindOne(ctx,
		specification.ByID{ID: sessionId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, constant.ErrSessionNotFound
	}
	return sess, nil
}

func (cs *chatbotService) setCurrentSession(userId uuid.UUID, sessionId *uuid.UUID) {
	state, found := cs.stateRepo.Get(userId.String())
	if !found {
		state = &store.Session{UserID: userId.String()}
	}
	state.CurrentChatSessionId = sessionId
	cs.stateRepo.Save(state)
}

func (cs *chatbotService) clearCurrentIfMatches(userId uuid.UUID, sessionId uuid.UUID) {
	state, found := cs.stateRepo.Get(userId.String())
	if !found {
		return
	}
	if state.CurrentChatSessionId != nil && *state.CurrentChatSessionId == sessionId {
		state.CurrentChatSessionId = nil
		cs.stateRepo.Save(state)
	}
}

// deriveTitle builds a session title from the first user message. Newlines
// collapse to spaces and the result is capped at SessionTitleMaxLen runes.
func deriveTitle(content string) string {
	title := strings.Join(strings.Fields(content), " ")
	if title == "" {
		return constant.DefaultSessionTitle
	}
	runes := []rune(title)
	if len(runes) > constant.SessionTitleMaxLen {
		title = string(runes[:constant.SessionTitleMaxLen])
	}
	return title
}
