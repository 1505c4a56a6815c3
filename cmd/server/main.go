package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/frenesis/frenesis/api"
	"github.com/frenesis/frenesis/api/handlers"
	"github.com/frenesis/frenesis/internal/app"
	"github.com/frenesis/frenesis/internal/domain"
	"github.com/frenesis/frenesis/internal/infrastructure"
	"github.com/frenesis/frenesis/internal/platform"
	"github.com/frenesis/frenesis/pkg/logger"
)

var (
	serverMode = flag.Bool("server-mode", false, "Internal flag: run in server mode (called by daemon)")
	foreground = flag.Bool("foreground", false, "Run in the foreground instead of detaching")
	configPath = flag.String("config", "", "Path to config file")
)

func main() {
	flag.Parse()

	if !*serverMode && !*foreground {
		startAsDaemon()
		return
	}

	if err := runServer(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

// startAsDaemon re-executes the binary in server mode, detached from the terminal
func startAsDaemon() {
	execPath, err := os.Executable()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to get executable path: %v\n", err)
		os.Exit(1)
	}

	cwd, err := os.Getwd()
	if err != nil {
		cwd = "/"
	}

	args := []string{"-server-mode"}
	if *configPath != "" {
		args = append(args, "-config", *configPath)
	}

	cmd := exec.Command(execPath, args...)
	cmd.Dir = cwd
	cmd.Env = os.Environ()
	platform.Detach(cmd)

	devNull, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open %s: %v\n", os.DevNull, err)
		os.Exit(1)
	}
	cmd.Stdin = devNull
	cmd.Stdout = devNull
	cmd.Stderr = devNull

	if err := cmd.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start daemon: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Server started as daemon (PID: %d)\n", cmd.Process.Pid)
	os.Exit(0)
}

func runServer() error {
	config, err := app.LoadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:      config.Logging.Level,
		Format:     config.Logging.Format,
		OutputPath: config.Logging.OutputPath,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()

	multiLog, err := logger.NewMultiLogger(logger.MultiLoggerConfig{
		Level:   config.Logging.Level,
		LogsDir: config.Logging.Dir,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize category logs: %w", err)
	}
	defer multiLog.Close()

	log.Info("Starting FRENESIS server",
		zap.String("version", handlers.Version),
		zap.String("host", config.Server.Host),
		zap.Int("port", config.Server.Port),
		zap.String("fetcher", config.Download.Fetcher),
		zap.String("history_backend", config.History.Backend))

	if err := os.MkdirAll(config.Download.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create download directory: %w", err)
	}

	bucket, closer, err := infrastructure.NewHistoryBucket(config.History)
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer closer.Close()

	hub := handlers.NewEventHub(nil, log)
	history := app.NewHistoryStore(bucket, hub, log)
	hub.SetHistory(history)

	validator := infrastructure.NewYouTubeValidator()
	notifier := infrastructure.NewNotificationService(&config.Notification, log)

	orchestrator := app.NewDownloadOrchestrator(
		newFetcher(config, multiLog, log),
		validator,
		history,
		hub,
		notifier,
		&config.Download,
		log,
		multiLog,
	)

	videoInfo := app.NewVideoInfoService(newVideoInfoProvider(config), validator, hub, log)

	router := api.SetupRouter(api.Dependencies{
		Orchestrator: orchestrator,
		History:      history,
		VideoInfo:    videoInfo,
		Hub:          hub,
		Logger:       log,
		Events:       multiLog,
		DownloadDir:  config.Download.Dir,
		LogsDir:      config.Logging.Dir,
	})

	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		log.Info("Received shutdown signal")
	case err := <-serverErr:
		log.Error("HTTP server failed", zap.Error(err))
		multiLog.LogAppError("HTTP server failed", zap.Error(err))
	}

	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := orchestrator.Close(shutdownCtx); err != nil {
		log.Error("Error stopping downloader", zap.Error(err))
	}

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
	return nil
}

// newFetcher builds the fetcher selected by download.fetcher
func newFetcher(config *domain.Config, multiLog *logger.MultiLogger, log *zap.Logger) domain.Fetcher {
	if config.Download.Fetcher == "ytdlp" {
		if _, err := exec.LookPath(config.YTDLP.Binary); err != nil {
			log.Warn("yt-dlp binary not found, downloads will fail",
				zap.String("binary", config.YTDLP.Binary))
		}
		return infrastructure.NewYTDLPFetcher(&config.YTDLP, config.Download.Dir, config.Logging.Dir, multiLog)
	}
	return infrastructure.NewSyntheticFetcher(config.Download.TickInterval, config.Download.FailureRate, nil)
}

// newVideoInfoProvider builds the provider selected by video_info.provider
func newVideoInfoProvider(config *domain.Config) domain.VideoInfoProvider {
	if config.VideoInfo.Provider == "ytdlp" {
		return infrastructure.NewYTDLPVideoInfoProvider(&config.YTDLP)
	}
	return infrastructure.NewStaticVideoInfoProvider(config.VideoInfo.Delay)
}
