package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/frenesis/frenesis/internal/app"
	"github.com/frenesis/frenesis/internal/domain"
)

// DownloadHandler handles download-related HTTP requests
type DownloadHandler struct {
	orchestrator *app.DownloadOrchestrator
	logger       *zap.Logger
}

// NewDownloadHandler creates a new download handler
func NewDownloadHandler(orchestrator *app.DownloadOrchestrator, logger *zap.Logger) *DownloadHandler {
	return &DownloadHandler{
		orchestrator: orchestrator,
		logger:       logger,
	}
}

// StartDownloadRequest represents a request to start a download
type StartDownloadRequest struct {
	URL     string `json:"url" binding:"required"`
	Format  string `json:"format,omitempty"`
	Quality string `json:"quality,omitempty"`
}

// StartDownload handles POST /api/v1/download
func (h *DownloadHandler) StartDownload(c *gin.Context) {
	var req StartDownloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var format domain.Format
	if req.Format != "" {
		parsed, err := domain.ParseFormat(req.Format)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		format = parsed
	}

	session, err := h.orchestrator.Start(domain.DownloadRequest{
		URL:     req.URL,
		Format:  format,
		Quality: req.Quality,
	})
	if err != nil {
		h.respondStartError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, session)
}

// GetStatus handles GET /api/v1/download
func (h *DownloadHandler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.orchestrator.Status())
}

// CancelDownload handles POST /api/v1/download/cancel
func (h *DownloadHandler) CancelDownload(c *gin.Context) {
	if !h.orchestrator.Cancel() {
		c.JSON(http.StatusConflict, gin.H{"error": "no download is running"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"message": "download cancellation requested"})
}

// respondStartError maps orchestrator errors to HTTP status codes
func (h *DownloadHandler) respondStartError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidURL), errors.Is(err, domain.ErrInvalidFormat):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrAlreadyInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrShuttingDown):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		h.logger.Error("Failed to start download", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
