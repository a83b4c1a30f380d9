package http

import (
	"time"

	"franchise-catalog/internal/catalog/domain/model"
	"franchise-catalog/internal/shared/logger"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	liveWriteTimeout = 10 * time.Second
	livePingInterval = 30 * time.Second
)

// ChangeSource hands out live change subscriptions
type ChangeSource interface {
	Subscribe(id string) (<-chan *model.ChangeEvent, func())
}

// LiveMessage is one frame of the live change stream
type LiveMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// LiveChangesHandler streams change events to websocket clients as they happen
type LiveChangesHandler struct {
	source ChangeSource
	log    logger.Logger
}

// NewLiveChangesHandler creates the handler
func NewLiveChangesHandler(source ChangeSource, log logger.Logger) *LiveChangesHandler {
	return &LiveChangesHandler{source: source, log: log.WithComponent("live_changes")}
}

// RegisterRoutes mounts GET /changes/live. Plain HTTP requests get 426.
func (h *LiveChangesHandler) RegisterRoutes(router fiber.Router) {
	router.Use("/changes/live", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	router.Get("/changes/live", websocket.New(h.stream))
}

// stream forwards events until the client goes away. ?entity= narrows the stream to one entity kind.
func (h *LiveChangesHandler) stream(conn *websocket.Conn) {
	subscriberID := uuid.NewString()
	entity := conn.Query("entity")
	log := h.log.WithFields(map[string]interface{}{
		"subscriber_id": subscriberID,
		"entity":        entity,
	})

	events, cancel := h.source.Subscribe(subscriberID)
	defer cancel()
	log.Info("Live change subscriber connected")
	defer log.Info("Live change subscriber disconnected")

	// The read loop only detects disconnects; clients send nothing.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.WithFields(map[string]interface{}{"error": err.Error()}).Warn("Live change read failed")
				}
				return
			}
		}
	}()

	if !h.write(conn, LiveMessage{Type: "subscribed", Data: fiber.Map{"subscriberId": subscriberID}}) {
		return
	}

	ticker := time.NewTicker(livePingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if entity != "" && event.Entity != entity {
				continue
			}
			if !h.write(conn, LiveMessage{Type: event.EventType(), Data: event}) {
				return
			}
		case <-ticker.C:
			deadline := time.Now().Add(liveWriteTimeout)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		}
	}
}

func (h *LiveChangesHandler) write(conn *websocket.Conn, msg LiveMessage) bool {
	_ = conn.SetWriteDeadline(time.Now().Add(liveWriteTimeout))
	if err := conn.WriteJSON(msg); err != nil {
		h.log.WithFields(map[string]interface{}{
			"type":  msg.Type,
			"error": err.Error(),
		}).Debug("Live change write failed")
		return false
	}
	return true
}
