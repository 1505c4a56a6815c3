package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/frenesis/frenesis/internal/app"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// HealthHandler handles health check requests
type HealthHandler struct {
	orchestrator *app.DownloadOrchestrator
	hub          *EventHub
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(orchestrator *app.DownloadOrchestrator, hub *EventHub) *HealthHandler {
	return &HealthHandler{
		orchestrator: orchestrator,
		hub:          hub,
	}
}

// HealthResponse represents a health check response
type HealthResponse struct {
	Status     string `json:"status"`
	Version    string `json:"version"`
	Downloader struct {
		State string `json:"state"`
	} `json:"downloader"`
	Clients int `json:"clients"`
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	response := HealthResponse{
		Status:  "ok",
		Version: Version,
	}
	response.Downloader.State = string(h.orchestrator.Status().State)
	if h.hub != nil {
		response.Clients = h.hub.ClientCount()
	}

	c.JSON(http.StatusOK, response)
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(c *gin.Context) {
	if h.orchestrator.Closed() {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": "downloader is shutting down",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
