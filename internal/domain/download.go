package domain

import (
	"fmt"
	"strings"
	"time"
)

// Format represents the requested output format of a download
type Format string

const (
	FormatVideo    Format = "mp4"      // Video
	FormatAudio    Format = "mp3"      // Audio only
	FormatPlaylist Format = "playlist" // Whole playlist
)

// HistoryStatus represents the outcome recorded for a download attempt
type HistoryStatus string

const (
	HistorySuccess  HistoryStatus = "success"
	HistoryFailed   HistoryStatus = "failed"
	HistoryCanceled HistoryStatus = "canceled"
)

// HistoryCapacity is the maximum number of records kept in the history log
const HistoryCapacity = 20

// DownloadRequest is a validated request to download a URL.
// It is treated as immutable once accepted by the orchestrator.
type DownloadRequest struct {
	URL     string `json:"url"`
	Format  Format `json:"format"`
	Quality string `json:"quality"`
}

// DownloadSession is the single active download attempt
type DownloadSession struct {
	ID              string          `json:"id"`
	Request         DownloadRequest `json:"request"`
	Status          State           `json:"status"`
	ProgressPercent float64         `json:"progress_percent"`
	Speed           string          `json:"speed"`
	ETASeconds      int             `json:"eta_seconds"`
	StartedAt       time.Time       `json:"started_at"`
}

// HistoryRecord is an immutable entry of the download history log
type HistoryRecord struct {
	ID        int64         `json:"id"`
	URL       string        `json:"url"`
	Format    Format        `json:"format"`
	Quality   string        `json:"quality,omitempty"`
	Status    HistoryStatus `json:"status"`
	Details   string        `json:"details"`
	Timestamp time.Time     `json:"timestamp"`
	Filename  string        `json:"filename"`
}

// NewHistoryRecord creates a history record for a finished download attempt
func NewHistoryRecord(id int64, req DownloadRequest, status HistoryStatus, details string, at time.Time) HistoryRecord {
	return HistoryRecord{
		ID:        id,
		URL:       req.URL,
		Format:    req.Format,
		Quality:   req.Quality,
		Status:    status,
		Details:   details,
		Timestamp: at,
		Filename:  RecordFilename(id, req.Format),
	}
}

// RecordFilename derives the file name shown for a history record
func RecordFilename(id int64, format Format) string {
	return fmt.Sprintf("video_%d.%s", id, format)
}

// SuccessDetails builds the details text of a successful download
func SuccessDetails(req DownloadRequest) string {
	return fmt.Sprintf("Downloaded as %s (%s)", strings.ToUpper(string(req.Format)), req.Quality)
}

// Request returns the request that produced this record, used for retries
func (r HistoryRecord) Request() DownloadRequest {
	return DownloadRequest{URL: r.URL, Format: r.Format, Quality: r.Quality}
}

// ValidateFormat checks if a format is valid
func ValidateFormat(format Format) bool {
	return format == FormatVideo || format == FormatAudio || format == FormatPlaylist
}

// ParseFormat parses user input into a Format. Both the extension ("mp4")
// and the kind ("video") spellings are accepted.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mp4", "video":
		return FormatVideo, nil
	case "mp3", "audio":
		return FormatAudio, nil
	case "playlist":
		return FormatPlaylist, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidFormat, s)
}

// DetectFormat picks the playlist format for playlist URLs and falls back otherwise
func DetectFormat(url string, fallback Format) Format {
	if strings.Contains(url, "list=") || strings.Contains(url, "/playlist") {
		return FormatPlaylist
	}
	return fallback
}

// FormatETA renders an ETA in seconds as mm:ss. Negative values mean unknown.
func FormatETA(seconds int) string {
	if seconds < 0 {
		return "N/A"
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
