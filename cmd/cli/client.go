package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/frenesis/frenesis/internal/domain"
)

// apiClient talks to the FRENESIS HTTP API
type apiClient struct {
	baseURL string
	http    *http.Client
}

func newAPIClient(baseURL string) *apiClient {
	return &apiClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// apiError is an error response of the API
type apiError struct {
	StatusCode int
	Message    string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("%s (HTTP %d)", e.Message, e.StatusCode)
}

// do sends a request and decodes a JSON response into out when out is not nil
func (c *apiClient) do(method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 400 {
		var e struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &e) != nil || e.Error == "" {
			e.Error = strings.TrimSpace(string(data))
		}
		return &apiError{StatusCode: resp.StatusCode, Message: e.Error}
	}

	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}

// Download starts a download
func (c *apiClient) Download(rawURL, format, quality string) (*domain.DownloadSession, error) {
	var session domain.DownloadSession
	payload := map[string]string{"url": rawURL}
	if format != "" {
		payload["format"] = format
	}
	if quality != "" {
		payload["quality"] = quality
	}
	if err := c.do(http.MethodPost, "/api/v1/download", payload, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// snapshot mirrors the status response of the API
type snapshot struct {
	State      domain.State            `json:"state"`
	Session    *domain.DownloadSession `json:"session,omitempty"`
	LastRecord *domain.HistoryRecord   `json:"last_record,omitempty"`
}

// Status returns the current download status
func (c *apiClient) Status() (*snapshot, error) {
	var s snapshot
	if err := c.do(http.MethodGet, "/api/v1/download", nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Cancel requests cancellation of the running download
func (c *apiClient) Cancel() error {
	return c.do(http.MethodPost, "/api/v1/download/cancel", nil, nil)
}

// History returns the history log newest-first
func (c *apiClient) History() ([]domain.HistoryRecord, error) {
	var body struct {
		History []domain.HistoryRecord `json:"history"`
	}
	if err := c.do(http.MethodGet, "/api/v1/history", nil, &body); err != nil {
		return nil, err
	}
	return body.History, nil
}

// ClearHistory empties the history log
func (c *apiClient) ClearHistory() error {
	return c.do(http.MethodDelete, "/api/v1/history?confirm=true", nil, nil)
}

// Retry restarts the download recorded under id
func (c *apiClient) Retry(id int64) (*domain.DownloadSession, error) {
	var session domain.DownloadSession
	if err := c.do(http.MethodPost, fmt.Sprintf("/api/v1/history/%d/retry", id), nil, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// VideoInfo fetches the metadata preview of a URL
func (c *apiClient) VideoInfo(rawURL string) (*domain.VideoInfo, error) {
	var info domain.VideoInfo
	if err := c.do(http.MethodGet, "/api/v1/video-info?url="+url.QueryEscape(rawURL), nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Events opens the event stream
func (c *apiClient) Events() (*websocket.Conn, error) {
	wsURL := "ws" + strings.TrimPrefix(c.baseURL, "http") + "/api/v1/events"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open event stream: %w", err)
	}
	return conn, nil
}
