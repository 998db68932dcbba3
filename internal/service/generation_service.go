package service

import (
	"context"
	"encoding/json"
	"time"

	"ai-assistant-be/internal/constant"
	"ai-assistant-be/internal/dto"
	"ai-assistant-be/internal/entity"
	"ai-assistant-be/internal/pkg/logger"
	"ai-assistant-be/internal/repository/memory"
	"ai-assistant-be/internal/repository/specification"
	"ai-assistant-be/internal/repository/unitofwork"
	"ai-assistant-be/internal/websocket"
	"ai-assistant-be/pkg/llm"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

type IGenerationService interface {
	Consume(ctx context.Context) error
}

// generationService is the async worker behind SendChat. It consumes
// GenerateReplyCommand messages, runs the LLM over the session transcript
// and appends the assistant reply to the session captured in the command.
// The target session is fixed at dispatch time, so replies never leak into
// whatever session the user is looking at by the time generation finishes.
type generationService struct {
	pubSub      *gochannel.GoChannel
	topicName   string
	uowFactory  unitofwork.RepositoryFactory
	llmProvider llm.LLMProvider
	stateRepo   *memory.SessionStateRepository
	hub         *websocket.Hub
	timeout     time.Duration
	logger      logger.ILogger
}

func NewGenerationService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	llmProvider llm.LLMProvider,
	stateRepo *memory.SessionStateRepository,
	hub *websocket.Hub,
	timeout time.Duration,
	log logger.ILogger,
) IGenerationService {
	return &generationService{
		pubSub:      pubSub,
		topicName:   topicName,
		uowFactory:  uowFactory,
		llmProvider: llmProvider,
		stateRepo:   stateRepo,
		hub:         hub,
		timeout:     timeout,
		logger:      log,
	}
}

func (gs *generationService) Consume(ctx context.Context) error {
	messages, err := gs.pubSub.Subscribe(ctx, gs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			gs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (gs *generationService) processMessage(ctx context.Context, msg *message.Message) {
	var command dto.GenerateReplyCommand
	if err := json.Unmarshal(msg.Payload, &command); err != nil {
		gs.logger.Error("GenerationService", "Failed to unmarshal command", map[string]interface{}{"error": err})
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	uow := gs.uowFactory.NewUnitOfWork(ctx)

	sess, err := uow.ChatSessionRepository().FindOne(ctx,
		specification.ByID{ID: command.ChatSessionId},
		specification.UserOwnedBy{UserID: command.UserId},
	)
	if err != nil {
		gs.logger.Error("GenerationService", "Failed to load session", map[string]interface{}{
			"error":           err,
			"chat_session_id": command.ChatSessionId,
		})
		msg.Nack() // Retriable
		return
	}
	if sess == nil {
		// Session deleted while the command was in flight. Drop the reply.
		gs.logger.Warn("GenerationService", "Session gone, dropping reply", map[string]interface{}{
			"chat_session_id": command.ChatSessionId,
		})
		gs.clearGenerating(command.UserId, command.ChatSessionId)
		msg.Ack()
		return
	}

	history, err := gs.loadHistory(ctx, uow, command.ChatSessionId)
	if err != nil {
		gs.logger.Error("GenerationService", "Failed to load history", map[string]interface{}{
			"error":           err,
			"chat_session_id": command.ChatSessionId,
		})
		msg.Nack()
		return
	}

	llmCtx, cancel := context.WithTimeout(ctx, gs.timeout)
	reply, err := gs.llmProvider.Chat(llmCtx, history)
	cancel()
	if err != nil {
		gs.logger.Error("GenerationService", "Reply generation failed", map[string]interface{}{
			"error":           err,
			"chat_session_id": command.ChatSessionId,
		})
		gs.clearGenerating(command.UserId, command.ChatSessionId)
		gs.hub.Send(command.UserId, constant.WsEventGenerationFailed, map[string]interface{}{
			"chat_session_id": command.ChatSessionId,
			"error":           constant.ErrGenerationFailed.Error(),
		})
		msg.Ack() // The user retries by sending again; no automatic redelivery
		return
	}

	now := time.Now()
	assistantMessage := entity.ChatMessage{
		Id:            uuid.New(),
		ChatSessionId: command.ChatSessionId,
		Role:          constant.ChatMessageRoleAssistant,
		Content:       reply,
		CreatedAt:     now,
	}

	if err := uow.Begin(ctx); err != nil {
		msg.Nack()
		return
	}
	defer uow.Rollback()

	if err := uow.ChatMessageRepository().Create(ctx, &assistantMessage); err != nil {
		gs.logger.Error("GenerationService", "Failed to persist reply", map[string]interface{}{"error": err})
		msg.Nack()
		return
	}

	// The reply is activity on the session it belongs to
	sess.UpdatedAt = &now
	if err := uow.ChatSessionRepository().Update(ctx, sess); err != nil {
		gs.logger.Error("GenerationService", "Failed to bump session activity", map[string]interface{}{"error": err})
		msg.Nack()
		return
	}

	if err := uow.Commit(); err != nil {
		msg.Nack()
		return
	}

	gs.clearGenerating(command.UserId, command.ChatSessionId)

	gs.hub.Send(command.UserId, constant.WsEventReply, map[string]interface{}{
		"chat_session_id": command.ChatSessionId,
		"message": dto.ChatMessageDTO{
			Id:        assistantMessage.Id,
			Role:      assistantMessage.Role,
			Content:   assistantMessage.Content,
			CreatedAt: assistantMessage.CreatedAt,
		},
	})

	msg.Ack()
}

func (gs *generationService) loadHistory(ctx context.Context, uow unitofwork.UnitOfWork, sessionId uuid.UUID) ([]llm.Message, error) {
	chatMessages, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: sessionId},
		specification.OrderBy{Field: "seq", Desc: false},
	)
	if err != nil {
		return nil, err
	}

	history := make([]llm.Message, 0, len(chatMessages))
	for _, m := range chatMessages {
		history = append(history, llm.Message{
			Role:    m.Role,
			Content: m.Content,
		})
	}
	return history, nil
}

// clearGenerating resets the user's generating flag, but only if it still
// points at the session this command was dispatched for.
func (gs *generationService) clearGenerating(userId uuid.UUID, sessionId uuid.UUID) {
	state, found := gs.stateRepo.Get(userId.String())
	if !found {
		return
	}
	if state.GeneratingFor == nil || *state.GeneratingFor == sessionId {
		state.Generating = false
		state.GeneratingFor = nil
		gs.stateRepo.Save(state)
	}
}
