package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/frenesis/frenesis/internal/app"
)

// HistoryHandler handles history-related HTTP requests
type HistoryHandler struct {
	history  *app.HistoryStore
	download *DownloadHandler
	logger   *zap.Logger
}

// NewHistoryHandler creates a new history handler. Retries are started
// through the download handler so they share its error mapping.
func NewHistoryHandler(history *app.HistoryStore, download *DownloadHandler, logger *zap.Logger) *HistoryHandler {
	return &HistoryHandler{
		history:  history,
		download: download,
		logger:   logger,
	}
}

// ListHistory handles GET /api/v1/history
func (h *HistoryHandler) ListHistory(c *gin.Context) {
	records, err := h.history.List(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list history", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"history": records,
		"count":   len(records),
	})
}

// ClearHistory handles DELETE /api/v1/history?confirm=true
func (h *HistoryHandler) ClearHistory(c *gin.Context) {
	if c.Query("confirm") != "true" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "clearing history requires confirm=true"})
		return
	}

	if err := h.history.Clear(c.Request.Context()); err != nil {
		h.logger.Error("Failed to clear history", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "history cleared"})
}

// RetryDownload handles POST /api/v1/history/:id/retry
func (h *HistoryHandler) RetryDownload(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid record id"})
		return
	}

	session, err := h.download.orchestrator.Retry(c.Request.Context(), id)
	if err != nil {
		h.download.respondStartError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, session)
}
