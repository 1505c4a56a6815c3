package domain

import "context"

// FetchProgress is a progress sample reported by a Fetcher
type FetchProgress struct {
	Percent    float64
	Speed      string
	ETASeconds int // -1 when unknown
}

// ProgressFunc receives progress samples while a fetch is running
type ProgressFunc func(FetchProgress)

// FileHandle describes the file produced by a successful fetch
type FileHandle struct {
	Path string `json:"path,omitempty"`
	Name string `json:"name"`
	Size int64  `json:"size,omitempty"`
}

// Fetcher performs the actual transfer of a download request.
// Fetch must return promptly with ctx.Err() once ctx is cancelled.
type Fetcher interface {
	Fetch(ctx context.Context, req DownloadRequest, onProgress ProgressFunc) (*FileHandle, error)
}

// URLValidator decides whether a URL has an acceptable shape
type URLValidator interface {
	Valid(url string) bool
}

// VideoInfo is the metadata shown in the preview before downloading
type VideoInfo struct {
	Title       string       `json:"title"`
	Duration    string       `json:"duration"`
	Views       string       `json:"views"`
	Uploader    string       `json:"uploader"`
	UploadDate  string       `json:"upload_date"`
	Description string       `json:"description,omitempty"`
	Thumbnail   string       `json:"thumbnail"`
	Formats     []FormatInfo `json:"formats"`
}

// FormatInfo describes one downloadable format of a video
type FormatInfo struct {
	FormatID string `json:"format_id,omitempty"`
	Quality  string `json:"quality"`
	Format   string `json:"format"`
	Size     string `json:"size,omitempty"`
	Note     string `json:"note,omitempty"`
}

// VideoInfoProvider fetches metadata for a video URL
type VideoInfoProvider interface {
	VideoInfo(ctx context.Context, url string) (*VideoInfo, error)
}

// Notifier sends user notifications about download outcomes
type Notifier interface {
	NotifyDownloadStarted(url string)
	NotifyDownloadCompleted(url, filename string)
	NotifyDownloadFailed(url string, err error)
	NotifyDownloadCanceled(url string)
}
