package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/frenesis/frenesis/internal/domain"
)

// StaticVideoInfoProvider returns fixed sample metadata after a delay.
// It lets the preview work without yt-dlp installed.
type StaticVideoInfoProvider struct {
	delay time.Duration
}

// NewStaticVideoInfoProvider creates a static provider answering after delay
func NewStaticVideoInfoProvider(delay time.Duration) *StaticVideoInfoProvider {
	return &StaticVideoInfoProvider{delay: delay}
}

// VideoInfo returns the sample metadata
func (p *StaticVideoInfoProvider) VideoInfo(ctx context.Context, url string) (*domain.VideoInfo, error) {
	if p.delay > 0 {
		timer := time.NewTimer(p.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	return &domain.VideoInfo{
		Title:       "Sample YouTube Video",
		Duration:    "5:30",
		Views:       "1,234,567",
		Uploader:    "Sample Channel",
		UploadDate:  "2023-10-01",
		Description: "This is a sample video description.",
		Thumbnail:   "https://img.youtube.com/vi/dQw4w9WgXcQ/maxresdefault.jpg",
		Formats: []domain.FormatInfo{
			{Quality: "1080p", Format: "MP4", Size: "125 MB"},
			{Quality: "720p", Format: "MP4", Size: "85 MB"},
			{Quality: "480p", Format: "MP4", Size: "45 MB"},
			{Quality: "Audio", Format: "MP3", Size: "8 MB"},
		},
	}, nil
}

// YTDLPVideoInfoProvider reads metadata with "yt-dlp -J"
type YTDLPVideoInfoProvider struct {
	config *domain.YTDLPConfig
}

// NewYTDLPVideoInfoProvider creates a yt-dlp backed metadata provider
func NewYTDLPVideoInfoProvider(config *domain.YTDLPConfig) *YTDLPVideoInfoProvider {
	return &YTDLPVideoInfoProvider{config: config}
}

// ytdlpInfo is the subset of yt-dlp's JSON output used for the preview
type ytdlpInfo struct {
	Title       string        `json:"title"`
	Duration    float64       `json:"duration"`
	ViewCount   int64         `json:"view_count"`
	Uploader    string        `json:"uploader"`
	UploadDate  string        `json:"upload_date"`
	Description string        `json:"description"`
	Thumbnail   string        `json:"thumbnail"`
	Formats     []ytdlpFormat `json:"formats"`
}

type ytdlpFormat struct {
	FormatID       string `json:"format_id"`
	Ext            string `json:"ext"`
	Resolution     string `json:"resolution"`
	FormatNote     string `json:"format_note"`
	VCodec         string `json:"vcodec"`
	ACodec         string `json:"acodec"`
	Filesize       int64  `json:"filesize"`
	FilesizeApprox int64  `json:"filesize_approx"`
}

// VideoInfo runs yt-dlp without downloading and maps its JSON output
func (p *YTDLPVideoInfoProvider) VideoInfo(ctx context.Context, url string) (*domain.VideoInfo, error) {
	args := []string{"-J", "--skip-download", "--no-playlist", "--no-warnings"}
	if p.config.CookieFile != "" && fileExists(p.config.CookieFile) {
		args = append(args, "--cookies", p.config.CookieFile)
	}
	args = append(args, url)

	cmd := exec.CommandContext(ctx, p.config.Binary, args...)
	output, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok && len(exitErr.Stderr) > 0 {
			return nil, fmt.Errorf("yt-dlp failed: %s", strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, fmt.Errorf("yt-dlp failed: %w", err)
	}

	return parseYTDLPInfo(output)
}

// parseYTDLPInfo maps yt-dlp JSON into the preview metadata
func parseYTDLPInfo(data []byte) (*domain.VideoInfo, error) {
	var raw ytdlpInfo
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse yt-dlp output: %w", err)
	}

	info := &domain.VideoInfo{
		Title:       orDefault(raw.Title, "Unknown"),
		Duration:    formatDuration(int(raw.Duration)),
		Views:       humanize.Comma(raw.ViewCount),
		Uploader:    orDefault(raw.Uploader, "Unknown"),
		UploadDate:  formatUploadDate(raw.UploadDate),
		Description: raw.Description,
		Thumbnail:   raw.Thumbnail,
		Formats:     []domain.FormatInfo{},
	}

	for _, f := range raw.Formats {
		if f.VCodec == "none" && f.ACodec == "none" {
			continue
		}

		quality := f.Resolution
		if f.VCodec == "none" || quality == "" || quality == "audio only" {
			quality = "Audio"
		}

		size := ""
		switch {
		case f.Filesize > 0:
			size = humanize.Bytes(uint64(f.Filesize))
		case f.FilesizeApprox > 0:
			size = "~" + humanize.Bytes(uint64(f.FilesizeApprox))
		}

		info.Formats = append(info.Formats, domain.FormatInfo{
			FormatID: f.FormatID,
			Quality:  quality,
			Format:   strings.ToUpper(f.Ext),
			Size:     size,
			Note:     f.FormatNote,
		})
	}

	return info, nil
}

// formatDuration renders seconds as m:ss or h:mm:ss
func formatDuration(seconds int) string {
	if seconds <= 0 {
		return "0:00"
	}
	h, m, s := seconds/3600, (seconds%3600)/60, seconds%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// formatUploadDate turns yt-dlp's YYYYMMDD into YYYY-MM-DD
func formatUploadDate(date string) string {
	t, err := time.Parse("20060102", date)
	if err != nil {
		return date
	}
	return t.Format("2006-01-02")
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
