package handlers

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
)

// FileHandler serves finished downloads from the download directory
type FileHandler struct {
	downloadDir string
}

// NewFileHandler creates a new file handler
func NewFileHandler(downloadDir string) *FileHandler {
	return &FileHandler{downloadDir: downloadDir}
}

// GetFile handles GET /api/v1/files/:filename
func (h *FileHandler) GetFile(c *gin.Context) {
	name := filepath.Base(c.Param("filename"))
	if name == "." || name == "/" || name == ".." {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid file name"})
		return
	}

	path := filepath.Join(h.downloadDir, name)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
		return
	}

	c.FileAttachment(path, name)
}
