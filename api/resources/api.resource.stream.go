package resources

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	nuts "github.com/vaudience/go-nuts"

	"github.com/robowatch/hub/internal/stream"
)

const (
	streamWriteWait  = 10 * time.Second
	streamPongWait   = 60 * time.Second
	streamPingPeriod = (streamPongWait * 9) / 10
)

// StreamHandlers push hub events to dashboard clients over websockets
type StreamHandlers struct {
	broker   *stream.Broker
	upgrader websocket.Upgrader
}

func NewStreamHandlers(broker *stream.Broker) *StreamHandlers {
	return &StreamHandlers{
		broker: broker,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Origin is enforced by the CORS layer and the session check.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// @Summary Live alert stream
// @Description Websocket feed of new and updated anomaly alerts
// @Tags stream
// @Router /stream/alerts [get]
// @Security BearerAuth
func (h *StreamHandlers) Alerts(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		nuts.L.Warnf("[Stream] Websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	messages, cancel := h.broker.Subscribe()
	defer cancel()

	// The read pump only handles control frames; it ends the session when
	// the client goes away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadLimit(512)
		conn.SetReadDeadline(time.Now().Add(streamPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(streamPongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(streamPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case msg, ok := <-messages:
			conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
				return
			}
			if err := conn.WriteJSON(msg); err != nil {
				nuts.L.Warnf("[Stream] Write failed, closing stream: %v", err)
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
