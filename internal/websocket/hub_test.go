package websocket

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type quietLogger struct{}

func (quietLogger) Debug(module, message string, details map[string]interface{}) {}
func (quietLogger) Info(module, message string, details map[string]interface{})  {}
func (quietLogger) Warn(module, message string, details map[string]interface{})  {}
func (quietLogger) Error(module, message string, details map[string]interface{}) {}
func (quietLogger) Sync() error                                                  { return nil }

func registerClient(t *testing.T, h *Hub, userID uuid.UUID, buffer int) *Client {
	t.Helper()
	client := &Client{Hub: h, UserID: userID, Send: make(chan []byte, buffer)}
	h.register <- client
	require.Eventually(t, func() bool {
		return len(h.clientsFor(userID)) > 0
	}, time.Second, 5*time.Millisecond)
	return client
}

func TestHubDeliversToRegisteredClient(t *testing.T) {
	h := NewHub(nil, quietLogger{})
	go h.Run()

	userID := uuid.New()
	client := registerClient(t, h, userID, 4)

	h.Send(userID, "chat.reply", map[string]string{"content": "hi"})

	select {
	case msg := <-client.Send:
		assert.Contains(t, string(msg), "chat.reply")
	case <-time.After(time.Second):
		t.Fatal("expected a delivered message")
	}
}

// A connection that stops draining its buffer gets dropped. Repeated sends
// while it is being dropped must not panic on an already closed channel.
func TestHubDropsSlowClientWithoutDoubleClose(t *testing.T) {
	h := NewHub(nil, quietLogger{})
	go h.Run()

	userID := uuid.New()
	client := registerClient(t, h, userID, 1)

	// Fill the buffer, then keep sending so the drop path runs repeatedly.
	h.Send(userID, "chat.reply", map[string]string{"n": "1"})
	h.Send(userID, "chat.reply", map[string]string{"n": "2"})
	h.Send(userID, "chat.reply", map[string]string{"n": "3"})

	require.Eventually(t, func() bool {
		return len(h.clientsFor(userID)) == 0
	}, time.Second, 5*time.Millisecond)

	// Drain until the channel reports closed. A second close would have
	// panicked inside the hub goroutine above.
	require.Eventually(t, func() bool {
		select {
		case _, open := <-client.Send:
			return !open
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)
}

func TestHubSendToUnknownUserIsHarmless(t *testing.T) {
	h := NewHub(nil, quietLogger{})
	go h.Run()

	h.Send(uuid.New(), "chat.reply", map[string]string{"content": "nobody home"})
}
