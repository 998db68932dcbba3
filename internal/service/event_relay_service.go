package service

import (
	"context"
	"fmt"
	"strings"

	"ai-assistant-be/internal/pkg/logger"
	"ai-assistant-be/internal/websocket"
	"ai-assistant-be/pkg/events"
	pktNats "ai-assistant-be/pkg/nats"

	"github.com/google/uuid"
)

// EventRelayService forwards audit events from the NATS bus to connected
// websocket clients. Events carrying a user_id are delivered to that user
// only, everything else is dropped. Persistence is not this service's job;
// the JetStream stream itself is the audit trail.
type EventRelayService struct {
	subscriber *pktNats.Subscriber
	hub        *websocket.Hub
	logger     logger.ILogger
}

func NewEventRelayService(sub *pktNats.Subscriber, hub *websocket.Hub, log logger.ILogger) *EventRelayService {
	return &EventRelayService{
		subscriber: sub,
		hub:        hub,
		logger:     log,
	}
}

// Start begins listening to the event bus.
func (s *EventRelayService) Start() {
	err := s.subscriber.Subscribe("events.>", "event-relay-worker", s.handleEvent)
	if err != nil {
		s.logger.Error("EventRelayService", "Failed to start event subscriber", map[string]interface{}{"error": err})
		return
	}
	s.logger.Info("EventRelayService", "Event relay started, listening to events.>", nil)
}

func (s *EventRelayService) handleEvent(ctx context.Context, event events.Event) error {
	typeCode := strings.TrimPrefix(event.EventType(), "events.")

	uidStr, ok := event.Payload()["user_id"].(string)
	if !ok {
		s.logger.Warn("EventRelayService", fmt.Sprintf("Event %s has no user_id, skipping", typeCode), nil)
		return nil
	}

	uid, err := uuid.Parse(uidStr)
	if err != nil {
		s.logger.Warn("EventRelayService", "Invalid user_id in event payload", map[string]interface{}{"user_id": uidStr})
		return nil
	}

	if s.hub != nil {
		s.hub.Send(uid, typeCode, event.Payload())
	}
	return nil
}
