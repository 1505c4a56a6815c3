package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frenesis/frenesis/internal/domain"
)

type staticHistory []domain.HistoryRecord

func (h staticHistory) List(ctx context.Context) ([]domain.HistoryRecord, error) {
	return h, nil
}

func dialHub(t *testing.T, hub *EventHub) *websocket.Conn {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/events", hub.HandleWebSocket)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) domain.Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var event domain.Event
	require.NoError(t, json.Unmarshal(data, &event))
	return event
}

func TestEventHub_GreetsWithHistory(t *testing.T) {
	req := domain.DownloadRequest{URL: "https://youtu.be/abc", Format: domain.FormatVideo, Quality: "720"}
	history := staticHistory{domain.NewHistoryRecord(1, req, domain.HistorySuccess, "ok", time.Now())}
	hub := NewEventHub(history, nil)

	conn := dialHub(t, hub)

	event := readEvent(t, conn)
	assert.Equal(t, domain.EventHistoryChanged, event.Type)
	require.Len(t, event.History, 1)
	assert.Equal(t, int64(1), event.History[0].ID)
}

func TestEventHub_Publish(t *testing.T) {
	hub := NewEventHub(nil, nil)
	conn := dialHub(t, hub)

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 5*time.Millisecond)

	hub.Publish(domain.ProgressEvent(42, "Downloading... 42%"))

	event := readEvent(t, conn)
	assert.Equal(t, domain.EventProgress, event.Type)
	assert.Equal(t, float64(42), event.Percent)
	assert.Equal(t, "Downloading... 42%", event.Message)
}

func TestEventHub_UnregistersOnDisconnect(t *testing.T) {
	hub := NewEventHub(nil, nil)
	conn := dialHub(t, hub)

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 5*time.Millisecond)
	conn.Close()
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 5*time.Millisecond)
}

func TestEventHub_PublishNeverBlocks(t *testing.T) {
	hub := NewEventHub(nil, nil)
	client := &eventClient{send: make(chan []byte, 1)}
	hub.register(client)

	done := make(chan struct{})
	go func() {
		for i := 0; i < clientSendBuffer*2; i++ {
			hub.Publish(domain.ProgressEvent(float64(i), "tick"))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a slow client")
	}
	assert.Equal(t, 0, hub.ClientCount())
}

// publishingHistory publishes a newer history while a greeting is loading
type publishingHistory struct {
	hub     *EventHub
	stale   []domain.HistoryRecord
	current []domain.HistoryRecord
}

func (h *publishingHistory) List(ctx context.Context) ([]domain.HistoryRecord, error) {
	h.hub.Publish(domain.Event{Type: domain.EventHistoryChanged, History: h.current})
	return h.stale, nil
}

func decodeQueued(t *testing.T, client *eventClient) []domain.Event {
	t.Helper()
	var events []domain.Event
	for {
		select {
		case data := <-client.send:
			var event domain.Event
			require.NoError(t, json.Unmarshal(data, &event))
			events = append(events, event)
		default:
			return events
		}
	}
}

func TestEventHub_GreetAfterRegister(t *testing.T) {
	history := staticHistory{{ID: 3, URL: "https://youtu.be/abc", Status: domain.HistorySuccess}}
	hub := NewEventHub(history, nil)
	client := &eventClient{send: make(chan []byte, clientSendBuffer)}

	seq := hub.register(client)
	hub.greet(context.Background(), client, seq)

	events := decodeQueued(t, client)
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventHistoryChanged, events[0].Type)
	require.Len(t, events[0].History, 1)
	assert.Equal(t, int64(3), events[0].History[0].ID)
}

func TestEventHub_GreetSkippedWhenHistoryChangedMeanwhile(t *testing.T) {
	hub := NewEventHub(nil, nil)
	history := &publishingHistory{
		hub:     hub,
		stale:   []domain.HistoryRecord{{ID: 1}},
		current: []domain.HistoryRecord{{ID: 2}, {ID: 1}},
	}
	hub.SetHistory(history)
	client := &eventClient{send: make(chan []byte, clientSendBuffer)}

	seq := hub.register(client)
	hub.greet(context.Background(), client, seq)

	events := decodeQueued(t, client)
	require.Len(t, events, 1)
	require.Len(t, events[0].History, 2)
	assert.Equal(t, int64(2), events[0].History[0].ID)
}

func TestEventHub_GreetDroppedClient(t *testing.T) {
	history := staticHistory{{ID: 1}}
	hub := NewEventHub(history, nil)
	client := &eventClient{send: make(chan []byte, clientSendBuffer)}

	seq := hub.register(client)
	hub.unregister(client)

	assert.NotPanics(t, func() { hub.greet(context.Background(), client, seq) })
}
