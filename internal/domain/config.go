package domain

import "time"

// Config represents the application configuration
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Download     DownloadConfig     `mapstructure:"download"`
	History      HistoryConfig      `mapstructure:"history"`
	YTDLP        YTDLPConfig        `mapstructure:"ytdlp"`
	VideoInfo    VideoInfoConfig    `mapstructure:"video_info"`
	Notification NotificationConfig `mapstructure:"notification"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// DownloadConfig contains download-related configuration
type DownloadConfig struct {
	Dir             string        `mapstructure:"dir"`
	Fetcher         string        `mapstructure:"fetcher"` // synthetic, ytdlp
	TickInterval    time.Duration `mapstructure:"tick_interval"`
	SettleDelay     time.Duration `mapstructure:"settle_delay"`
	CancelGrace     time.Duration `mapstructure:"cancel_grace"`
	MaxDuration     time.Duration `mapstructure:"max_duration"` // 0 disables the cap
	VideoQuality    string        `mapstructure:"video_quality"`
	AudioQuality    string        `mapstructure:"audio_quality"`
	PlaylistQuality string        `mapstructure:"playlist_quality"`
	FailureRate     float64       `mapstructure:"failure_rate"` // synthetic fetcher only
}

// DefaultQuality returns the configured quality for a format
func (c DownloadConfig) DefaultQuality(format Format) string {
	switch format {
	case FormatAudio:
		return c.AudioQuality
	case FormatPlaylist:
		return c.PlaylistQuality
	default:
		return c.VideoQuality
	}
}

// HistoryConfig contains history persistence configuration
type HistoryConfig struct {
	Backend      string `mapstructure:"backend"` // memory, file, sqlite, postgres, redis
	Bucket       string `mapstructure:"bucket"`
	FilePath     string `mapstructure:"file_path"`
	DatabasePath string `mapstructure:"database_path"`
	PostgresDSN  string `mapstructure:"postgres_dsn"`
	RedisURL     string `mapstructure:"redis_url"`
}

// YTDLPConfig contains yt-dlp specific configuration
type YTDLPConfig struct {
	Binary     string `mapstructure:"binary"`
	CookieFile string `mapstructure:"cookie_file"`
}

// VideoInfoConfig contains configuration of the video preview
type VideoInfoConfig struct {
	Provider string        `mapstructure:"provider"` // static, ytdlp
	Delay    time.Duration `mapstructure:"delay"`    // static provider only
}

// NotificationConfig contains notification-related configuration
type NotificationConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Sound   bool   `mapstructure:"sound"`
	Method  string `mapstructure:"method"` // osascript, notify-send
}

// LoggingConfig contains logging-related configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, or file path
	Dir        string `mapstructure:"dir"`         // category log files
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: 5000,
		},
		Download: DownloadConfig{
			Dir:             "$HOME/Downloads/frenesis",
			Fetcher:         "synthetic",
			TickInterval:    500 * time.Millisecond,
			SettleDelay:     2 * time.Second,
			CancelGrace:     1 * time.Second,
			MaxDuration:     1 * time.Hour,
			VideoQuality:    "720",
			AudioQuality:    "192",
			PlaylistQuality: "720",
		},
		History: HistoryConfig{
			Backend:      "file",
			Bucket:       "downloadHistory",
			FilePath:     "$HOME/.frenesis/history.json",
			DatabasePath: "$HOME/.frenesis/history.db",
			PostgresDSN:  "postgres://frenesis@localhost:5432/frenesis?sslmode=disable",
			RedisURL:     "redis://localhost:6379/0",
		},
		YTDLP: YTDLPConfig{
			Binary: "yt-dlp",
		},
		VideoInfo: VideoInfoConfig{
			Provider: "static",
			Delay:    1500 * time.Millisecond,
		},
		Notification: NotificationConfig{
			Enabled: false,
			Sound:   true,
			Method:  "notify-send",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			OutputPath: "stdout",
			Dir:        "$HOME/.frenesis/logs",
		},
	}
}
