package api

import (
	"io"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/frenesis/frenesis/api/handlers"
	"github.com/frenesis/frenesis/api/middleware"
	"github.com/frenesis/frenesis/internal/app"
	"github.com/frenesis/frenesis/pkg/logger"
	"github.com/frenesis/frenesis/web"
)

// Dependencies holds the services exposed over HTTP
type Dependencies struct {
	Orchestrator *app.DownloadOrchestrator
	History      *app.HistoryStore
	VideoInfo    *app.VideoInfoService
	Hub          *handlers.EventHub
	Logger       *zap.Logger
	Events       *logger.MultiLogger
	DownloadDir  string
	LogsDir      string
}

// SetupRouter sets up the HTTP router
func SetupRouter(deps Dependencies) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	router := gin.New()

	router.Use(middleware.Logger(deps.Logger, deps.Events))
	router.Use(middleware.Recovery(deps.Logger, deps.Events))
	router.Use(middleware.CORS())

	healthHandler := handlers.NewHealthHandler(deps.Orchestrator, deps.Hub)
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	v1 := router.Group("/api/v1")
	{
		downloadHandler := handlers.NewDownloadHandler(deps.Orchestrator, deps.Logger)
		download := v1.Group("/download")
		{
			download.POST("", downloadHandler.StartDownload)
			download.GET("", downloadHandler.GetStatus)
			download.POST("/cancel", downloadHandler.CancelDownload)
		}

		historyHandler := handlers.NewHistoryHandler(deps.History, downloadHandler, deps.Logger)
		history := v1.Group("/history")
		{
			history.GET("", historyHandler.ListHistory)
			history.DELETE("", historyHandler.ClearHistory)
			history.POST("/:id/retry", historyHandler.RetryDownload)
		}

		videoInfoHandler := handlers.NewVideoInfoHandler(deps.VideoInfo)
		v1.GET("/video-info", videoInfoHandler.GetVideoInfo)

		fileHandler := handlers.NewFileHandler(deps.DownloadDir)
		v1.GET("/files/:filename", fileHandler.GetFile)

		if deps.Hub != nil {
			v1.GET("/events", deps.Hub.HandleWebSocket)
		}

		logHandler := handlers.NewLogHandler(deps.LogsDir)
		logStream := handlers.NewLogWebSocketHandler(deps.LogsDir, deps.Logger)
		logs := v1.Group("/logs")
		{
			logs.GET("/categories", logHandler.GetCategories)
			logs.GET("/stream", logStream.HandleWebSocket)
			logs.GET("/:category", logHandler.GetLogs)
			logs.GET("/:category/search", logHandler.SearchLogs)
			logs.GET("/:category/export", logHandler.ExportLogs)
		}
	}

	staticFS := web.StaticFS()

	router.GET("/", func(c *gin.Context) {
		page, err := web.IndexHTML()
		if err != nil {
			c.String(http.StatusInternalServerError, "Failed to read page: %v", err)
			return
		}
		c.Data(http.StatusOK, contentType("index.html"), page)
	})

	router.GET("/static/*filepath", func(c *gin.Context) {
		filePath := strings.TrimPrefix(path.Clean(c.Param("filepath")), "/")
		serveFile(c, staticFS, filePath)
	})

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	return router
}

// serveFile serves a file from an embedded filesystem with proper content type
func serveFile(c *gin.Context, fsys fs.FS, filePath string) {
	file, err := fsys.Open(filePath)
	if err != nil {
		c.String(http.StatusNotFound, "File not found")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		c.String(http.StatusInternalServerError, "Failed to read file: %v", err)
		return
	}

	c.Data(http.StatusOK, contentType(filePath), content)
}

// contentType determines the content type from the file extension
func contentType(filePath string) string {
	switch path.Ext(filePath) {
	case ".html":
		return "text/html; charset=utf-8"
	case ".css":
		return "text/css; charset=utf-8"
	case ".js":
		return "application/javascript; charset=utf-8"
	case ".json":
		return "application/json; charset=utf-8"
	case ".png":
		return "image/png"
	case ".svg":
		return "image/svg+xml"
	case ".ico":
		return "image/x-icon"
	default:
		return "application/octet-stream"
	}
}
