package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/frenesis/frenesis/internal/app"
	"github.com/frenesis/frenesis/internal/domain"
)

// VideoInfoHandler serves the metadata preview
type VideoInfoHandler struct {
	service *app.VideoInfoService
}

// NewVideoInfoHandler creates a new video info handler
func NewVideoInfoHandler(service *app.VideoInfoService) *VideoInfoHandler {
	return &VideoInfoHandler{service: service}
}

// GetVideoInfo handles GET /api/v1/video-info?url=
func (h *VideoInfoHandler) GetVideoInfo(c *gin.Context) {
	info, err := h.service.Lookup(c.Request.Context(), c.Query("url"))
	if err != nil {
		if errors.Is(err, domain.ErrInvalidURL) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, info)
}
