package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frenesis/frenesis/internal/domain"
)

func TestAPIClient_Download(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/download", r.URL.Path)

		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "https://youtu.be/abc", body["url"])
		assert.Equal(t, "mp3", body["format"])
		_, hasQuality := body["quality"]
		assert.False(t, hasQuality)

		w.WriteHeader(http.StatusAccepted)
		_ = json.NewEncoder(w).Encode(domain.DownloadSession{
			ID:      "session-1",
			Request: domain.DownloadRequest{URL: body["url"], Format: domain.FormatAudio, Quality: "192"},
		})
	}))
	defer server.Close()

	session, err := newAPIClient(server.URL).Download("https://youtu.be/abc", "mp3", "")
	require.NoError(t, err)
	assert.Equal(t, "session-1", session.ID)
	assert.Equal(t, "192", session.Request.Quality)
}

func TestAPIClient_ErrorResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":"a download is already in progress"}`))
	}))
	defer server.Close()

	_, err := newAPIClient(server.URL + "/").Download("https://youtu.be/abc", "", "")
	require.Error(t, err)

	var apiErr *apiError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.StatusCode)
	assert.Equal(t, "a download is already in progress", apiErr.Message)
}

func TestAPIClient_HistoryAndRetry(t *testing.T) {
	req := domain.DownloadRequest{URL: "https://youtu.be/abc", Format: domain.FormatVideo, Quality: "720"}
	record := domain.NewHistoryRecord(5, req, domain.HistoryFailed, "boom", time.Now())

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/v1/history":
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"history": []domain.HistoryRecord{record}, "count": 1})
		case r.Method == http.MethodDelete && r.URL.Path == "/api/v1/history":
			assert.Equal(t, "true", r.URL.Query().Get("confirm"))
			_, _ = w.Write([]byte(`{"message":"history cleared"}`))
		case r.Method == http.MethodPost && r.URL.Path == "/api/v1/history/5/retry":
			w.WriteHeader(http.StatusAccepted)
			_ = json.NewEncoder(w).Encode(domain.DownloadSession{ID: "retry", Request: req})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := newAPIClient(server.URL)

	records, err := client.History()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, int64(5), records[0].ID)

	require.NoError(t, client.ClearHistory())

	session, err := client.Retry(5)
	require.NoError(t, err)
	assert.Equal(t, req, session.Request)

	_, err = client.Retry(6)
	assert.Error(t, err)
}

func TestAPIClient_VideoInfoEscapesURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "https://www.youtube.com/watch?v=abc&list=PL1", r.URL.Query().Get("url"))
		_ = json.NewEncoder(w).Encode(domain.VideoInfo{Title: "Sample"})
	}))
	defer server.Close()

	info, err := newAPIClient(server.URL).VideoInfo("https://www.youtube.com/watch?v=abc&list=PL1")
	require.NoError(t, err)
	assert.Equal(t, "Sample", info.Title)
}

func eventServer(t *testing.T, events ...domain.Event) string {
	t.Helper()
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for _, event := range events {
			data, _ := json.Marshal(event)
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		}
		// Hold the connection open until the client hangs up
		_, _, _ = conn.ReadMessage()
	}))
	t.Cleanup(server.Close)
	return server.URL
}

func TestWatchDownload_Success(t *testing.T) {
	req := domain.DownloadRequest{URL: "https://youtu.be/abc", Format: domain.FormatVideo, Quality: "720"}
	started := time.Now()
	record := domain.NewHistoryRecord(1, req, domain.HistorySuccess, domain.SuccessDetails(req), started.Add(time.Second))

	url := eventServer(t,
		domain.Event{Type: domain.EventHistoryChanged, History: []domain.HistoryRecord{}},
		domain.ProgressEvent(0, "Starting download..."),
		domain.ProgressEvent(50, "Downloading... 50%"),
		domain.Event{Type: domain.EventSpeedUpdate, Text: "Speed: 1.5 MB/s"},
		domain.ProgressEvent(100, "Download complete!"),
		domain.Event{Type: domain.EventHistoryChanged, History: []domain.HistoryRecord{record}},
		domain.Event{Type: domain.EventFileReady, Message: "Download complete! Your MP4 file is ready."},
	)

	conn, err := newAPIClient(url).Events()
	require.NoError(t, err)
	defer conn.Close()

	var out bytes.Buffer
	last, err := watchDownload(conn, &out, started)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, domain.HistorySuccess, last.Status)
	assert.Contains(t, out.String(), "Speed: 1.5 MB/s")
	assert.True(t, strings.HasSuffix(out.String(), "Your MP4 file is ready.\n"))
}

func TestWatchDownload_Failure(t *testing.T) {
	req := domain.DownloadRequest{URL: "https://youtu.be/abc", Format: domain.FormatVideo, Quality: "720"}
	started := time.Now()
	old := domain.NewHistoryRecord(1, req, domain.HistoryFailed, "old failure", started.Add(-time.Hour))
	failed := domain.NewHistoryRecord(2, req, domain.HistoryFailed, "network down", started.Add(time.Second))

	url := eventServer(t,
		domain.Event{Type: domain.EventHistoryChanged, History: []domain.HistoryRecord{old}},
		domain.ProgressEvent(0, "Error: network down"),
		domain.Event{Type: domain.EventHistoryChanged, History: []domain.HistoryRecord{failed, old}},
	)

	conn, err := newAPIClient(url).Events()
	require.NoError(t, err)
	defer conn.Close()

	var out bytes.Buffer
	last, err := watchDownload(conn, &out, started)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, domain.HistoryFailed, last.Status)
	assert.Equal(t, "network down", last.Details)
}

func TestWatchDownload_OutcomeWithoutGreeting(t *testing.T) {
	req := domain.DownloadRequest{URL: "https://youtu.be/abc", Format: domain.FormatVideo, Quality: "720"}
	started := time.Now()
	failed := domain.NewHistoryRecord(2, req, domain.HistoryFailed, "video unavailable", started.Add(time.Second))

	url := eventServer(t,
		domain.Event{Type: domain.EventHistoryChanged, History: []domain.HistoryRecord{failed}},
	)

	conn, err := newAPIClient(url).Events()
	require.NoError(t, err)
	defer conn.Close()

	var out bytes.Buffer
	last, err := watchDownload(conn, &out, started)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, "video unavailable", last.Details)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}
