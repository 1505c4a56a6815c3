package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/frenesis/frenesis/internal/domain"
)

// LoadConfig loads configuration from file and environment
func LoadConfig(configPath string) (*domain.Config, error) {
	// Start with default config
	config := domain.DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.frenesis")
		v.AddConfigPath("/etc/frenesis")
	}

	// Environment variables, e.g. FRENESIS_SERVER_PORT
	v.SetEnvPrefix("FRENESIS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvKeys(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, use defaults
	}

	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config = expandPaths(config)

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// bindEnvKeys registers every known key so AutomaticEnv also applies
// to keys that are absent from the config file.
func bindEnvKeys(v *viper.Viper) {
	keys := []string{
		"server.host", "server.port",
		"download.dir", "download.fetcher", "download.tick_interval", "download.settle_delay",
		"download.cancel_grace", "download.max_duration", "download.video_quality",
		"download.audio_quality", "download.playlist_quality", "download.failure_rate",
		"history.backend", "history.bucket", "history.file_path", "history.database_path",
		"history.postgres_dsn", "history.redis_url",
		"ytdlp.binary", "ytdlp.cookie_file",
		"video_info.provider", "video_info.delay",
		"notification.enabled", "notification.sound", "notification.method",
		"logging.level", "logging.format", "logging.output_path", "logging.dir",
	}
	for _, key := range keys {
		_ = v.BindEnv(key)
	}
}

// expandPaths expands environment variables in path configurations
func expandPaths(config *domain.Config) *domain.Config {
	config.Download.Dir = expandPath(config.Download.Dir)
	config.History.FilePath = expandPath(config.History.FilePath)
	config.History.DatabasePath = expandPath(config.History.DatabasePath)
	config.YTDLP.CookieFile = expandPath(config.YTDLP.CookieFile)
	config.Logging.Dir = expandPath(config.Logging.Dir)

	if config.Logging.OutputPath != "stdout" && config.Logging.OutputPath != "stderr" {
		config.Logging.OutputPath = expandPath(config.Logging.OutputPath)
	}

	return config
}

// expandPath expands environment variables and ~ in paths
func expandPath(path string) string {
	// Replace $HOME first so it works even when HOME is unset in the environment
	if strings.Contains(path, "$HOME") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = strings.ReplaceAll(path, "$HOME", home)
		}
	}

	path = os.ExpandEnv(path)

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	}

	return path
}

// validateConfig validates the configuration
func validateConfig(config *domain.Config) error {
	if config.Server.Port < 1 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Download.Dir == "" {
		return fmt.Errorf("download directory not configured")
	}

	switch config.Download.Fetcher {
	case "synthetic", "ytdlp":
	default:
		return fmt.Errorf("unknown fetcher: %s", config.Download.Fetcher)
	}

	if config.Download.TickInterval <= 0 {
		return fmt.Errorf("tick interval must be positive")
	}

	if config.Download.MaxDuration < 0 {
		return fmt.Errorf("max duration cannot be negative")
	}

	if config.Download.FailureRate < 0 || config.Download.FailureRate > 1 {
		return fmt.Errorf("failure rate must be between 0 and 1")
	}

	switch config.History.Backend {
	case "memory":
	case "file":
		if config.History.FilePath == "" {
			return fmt.Errorf("history file path not configured")
		}
	case "sqlite":
		if config.History.DatabasePath == "" {
			return fmt.Errorf("history database path not configured")
		}
	case "postgres":
		if config.History.PostgresDSN == "" {
			return fmt.Errorf("history postgres dsn not configured")
		}
	case "redis":
		if config.History.RedisURL == "" {
			return fmt.Errorf("history redis url not configured")
		}
	default:
		return fmt.Errorf("unknown history backend: %s", config.History.Backend)
	}

	if config.History.Bucket == "" {
		config.History.Bucket = "downloadHistory"
	}

	switch config.VideoInfo.Provider {
	case "static", "ytdlp":
	default:
		return fmt.Errorf("unknown video info provider: %s", config.VideoInfo.Provider)
	}

	if config.Logging.Level == "" {
		config.Logging.Level = "info"
	}

	return nil
}

// SaveConfig saves configuration to file
func SaveConfig(config *domain.Config, path string) error {
	v := viper.New()
	v.SetConfigType("yaml")

	v.Set("server", map[string]interface{}{
		"host": config.Server.Host,
		"port": config.Server.Port,
	})
	v.Set("download", map[string]interface{}{
		"dir":              config.Download.Dir,
		"fetcher":          config.Download.Fetcher,
		"tick_interval":    config.Download.TickInterval.String(),
		"settle_delay":     config.Download.SettleDelay.String(),
		"cancel_grace":     config.Download.CancelGrace.String(),
		"max_duration":     config.Download.MaxDuration.String(),
		"video_quality":    config.Download.VideoQuality,
		"audio_quality":    config.Download.AudioQuality,
		"playlist_quality": config.Download.PlaylistQuality,
		"failure_rate":     config.Download.FailureRate,
	})
	v.Set("history", map[string]interface{}{
		"backend":       config.History.Backend,
		"bucket":        config.History.Bucket,
		"file_path":     config.History.FilePath,
		"database_path": config.History.DatabasePath,
		"postgres_dsn":  config.History.PostgresDSN,
		"redis_url":     config.History.RedisURL,
	})
	v.Set("ytdlp", map[string]interface{}{
		"binary":      config.YTDLP.Binary,
		"cookie_file": config.YTDLP.CookieFile,
	})
	v.Set("video_info", map[string]interface{}{
		"provider": config.VideoInfo.Provider,
		"delay":    config.VideoInfo.Delay.String(),
	})
	v.Set("notification", map[string]interface{}{
		"enabled": config.Notification.Enabled,
		"sound":   config.Notification.Sound,
		"method":  config.Notification.Method,
	})
	v.Set("logging", map[string]interface{}{
		"level":       config.Logging.Level,
		"format":      config.Logging.Format,
		"output_path": config.Logging.OutputPath,
		"dir":         config.Logging.Dir,
	})

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
