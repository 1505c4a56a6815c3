package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/frenesis/frenesis/internal/domain"
)

const (
	clientSendBuffer = 64
	writeWait        = 10 * time.Second
	pingPeriod       = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HistoryLister returns the current history log
type HistoryLister interface {
	List(ctx context.Context) ([]domain.HistoryRecord, error)
}

// eventClient is one connected websocket peer
type eventClient struct {
	conn *websocket.Conn
	send chan []byte
}

// EventHub fans domain events out to every connected websocket client.
// Publish never blocks: a client whose buffer is full is dropped.
type EventHub struct {
	history HistoryLister
	logger  *zap.Logger

	mu      sync.RWMutex
	clients map[*eventClient]bool
	// historySeq counts published history_changed events
	historySeq uint64
}

// NewEventHub creates a new event hub
func NewEventHub(history HistoryLister, log *zap.Logger) *EventHub {
	if log == nil {
		log = zap.NewNop()
	}
	return &EventHub{
		history: history,
		logger:  log,
		clients: make(map[*eventClient]bool),
	}
}

// SetHistory sets the history source used to greet new clients
func (h *EventHub) SetHistory(history HistoryLister) {
	h.mu.Lock()
	h.history = history
	h.mu.Unlock()
}

// Publish implements domain.EventPublisher
func (h *EventHub) Publish(event domain.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("Failed to marshal event", zap.String("type", string(event.Type)), zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if event.Type == domain.EventHistoryChanged {
		h.historySeq++
	}
	for client := range h.clients {
		h.sendLocked(client, data)
	}
}

// sendLocked queues data for client, dropping the client when its buffer is
// full. h.mu must be held.
func (h *EventHub) sendLocked(client *eventClient, data []byte) {
	if !h.clients[client] {
		return
	}
	select {
	case client.send <- data:
	default:
		h.logger.Warn("Dropping slow event client")
		delete(h.clients, client)
		close(client.send)
	}
}

// ClientCount returns the number of connected clients
func (h *EventHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HandleWebSocket handles GET /api/v1/events
func (h *EventHub) HandleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade WebSocket", zap.Error(err))
		return
	}

	client := &eventClient{conn: conn, send: make(chan []byte, clientSendBuffer)}
	seq := h.register(client)
	h.greet(c.Request.Context(), client, seq)

	h.logger.Info("Event client connected", zap.String("remote_addr", c.Request.RemoteAddr))

	go h.readPump(client)
	h.writePump(client)
}

// greet queues the current history so a new page renders without polling.
// The greeting is skipped when a history_changed event reached the client
// after it registered, since that event is at least as new.
func (h *EventHub) greet(ctx context.Context, client *eventClient, seq uint64) {
	h.mu.RLock()
	history := h.history
	h.mu.RUnlock()
	if history == nil {
		return
	}

	records, err := history.List(ctx)
	if err != nil {
		h.logger.Warn("Failed to load history for new client", zap.Error(err))
		return
	}
	if records == nil {
		records = []domain.HistoryRecord{}
	}

	data, err := json.Marshal(domain.Event{Type: domain.EventHistoryChanged, History: records})
	if err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.historySeq != seq {
		return
	}
	h.sendLocked(client, data)
}

// register adds client and returns the history sequence at that moment
func (h *EventHub) register(client *eventClient) uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client] = true
	return h.historySeq
}

func (h *EventHub) unregister(client *eventClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
}

// readPump discards client messages and unregisters on disconnect
func (h *EventHub) readPump(client *eventClient) {
	defer h.unregister(client)
	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump delivers queued events and keeps the connection alive
func (h *EventHub) writePump(client *eventClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		client.conn.Close()
	}()

	for {
		select {
		case data, ok := <-client.send:
			_ = client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = client.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				h.logger.Debug("Failed to send event", zap.Error(err))
				return
			}

		case <-ticker.C:
			_ = client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
