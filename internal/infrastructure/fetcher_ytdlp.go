package infrastructure

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/frenesis/frenesis/internal/domain"
	"github.com/frenesis/frenesis/pkg/logger"
)

var (
	progressPercentRe = regexp.MustCompile(`^\[download\]\s+([\d.]+)%`)
	progressSpeedRe   = regexp.MustCompile(`\sat\s+(\S+/s)`)
	progressETARe     = regexp.MustCompile(`\sETA\s+(\S+)`)
)

// YTDLPFetcher downloads with the external yt-dlp binary
type YTDLPFetcher struct {
	config      *domain.YTDLPConfig
	downloadDir string
	logsDir     string
	eventLogger *logger.MultiLogger // For structured events only (LogAppError)
}

// NewYTDLPFetcher creates a new yt-dlp fetcher
func NewYTDLPFetcher(config *domain.YTDLPConfig, downloadDir, logsDir string, eventLogger *logger.MultiLogger) *YTDLPFetcher {
	return &YTDLPFetcher{
		config:      config,
		downloadDir: downloadDir,
		logsDir:     logsDir,
		eventLogger: eventLogger,
	}
}

// Fetch runs yt-dlp for the request and reports its progress lines. The
// process is killed when ctx is cancelled.
func (f *YTDLPFetcher) Fetch(ctx context.Context, req domain.DownloadRequest, onProgress domain.ProgressFunc) (*domain.FileHandle, error) {
	if onProgress == nil {
		onProgress = func(domain.FetchProgress) {}
	}

	if err := os.MkdirAll(f.downloadDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create download directory: %w", err)
	}

	args := f.buildArgs(req)

	// Raw process output goes to the daily fetch log
	fetchLog, err := f.openLogFile()
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer fetchLog.Close()

	writeLogHeader(fetchLog, req.URL, ShellEscapeCommand(f.config.Binary, args...))

	cmd := exec.CommandContext(ctx, f.config.Binary, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to attach to yt-dlp output: %w", err)
	}
	// --print puts yt-dlp in quiet mode, which moves progress lines to stderr
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to attach to yt-dlp output: %w", err)
	}

	if err := cmd.Start(); err != nil {
		writeLogFooter(fetchLog, false, fmt.Sprintf("failed to start: %v", err))
		return nil, fmt.Errorf("failed to start yt-dlp: %w", err)
	}

	log := &lockedWriter{w: fetchLog}
	report := serializeProgress(onProgress)

	var (
		wg        sync.WaitGroup
		errOutput scanResult
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		errOutput = scanOutput(io.TeeReader(stderr, log), report)
	}()
	output := scanOutput(io.TeeReader(stdout, log), report)
	wg.Wait()
	err = cmd.Wait()

	if ctx.Err() != nil {
		writeLogFooter(fetchLog, false, "canceled")
		return nil, ctx.Err()
	}
	if err != nil {
		writeLogFooter(fetchLog, false, fmt.Sprintf("yt-dlp failed: %v", err))
		if f.eventLogger != nil {
			f.eventLogger.LogAppError("yt-dlp failed",
				zap.String("url", req.URL),
				zap.String("reason", errOutput.lastError),
				zap.Error(err))
		}
		if errOutput.lastError != "" {
			return nil, fmt.Errorf("yt-dlp failed: %s: %w", errOutput.lastError, err)
		}
		return nil, fmt.Errorf("yt-dlp failed: %w", err)
	}

	path := output.path
	handle := &domain.FileHandle{}
	if path != "" {
		handle.Path = path
		handle.Name = filepath.Base(path)
		if info, err := os.Stat(path); err == nil {
			handle.Size = info.Size()
		}
	}

	writeLogFooter(fetchLog, true, fmt.Sprintf("Downloaded: %s", handle.Name))
	return handle, nil
}

// buildArgs translates a request into yt-dlp arguments
func (f *YTDLPFetcher) buildArgs(req domain.DownloadRequest) []string {
	args := []string{
		"--newline",
		"--progress",
		"--print", "after_move:filepath",
		"-o", filepath.Join(f.downloadDir, "%(title)s.%(ext)s"),
	}

	switch req.Format {
	case domain.FormatAudio:
		args = append(args, "-f", "bestaudio/best", "-x", "--audio-format", "mp3")
		if req.Quality != "" {
			args = append(args, "--audio-quality", strings.TrimSuffix(req.Quality, "K")+"K")
		}
		args = append(args, "--no-playlist")
	case domain.FormatPlaylist:
		args = append(args, "-f", "best", "--yes-playlist")
	default:
		args = append(args, "-f", videoFormatSelector(req.Quality), "--merge-output-format", "mp4", "--no-playlist")
	}

	if f.config.CookieFile != "" && fileExists(f.config.CookieFile) {
		args = append(args, "--cookies", f.config.CookieFile)
	}

	return append(args, req.URL)
}

// videoFormatSelector caps the video height at quality unless it is "best"
func videoFormatSelector(quality string) string {
	height := strings.TrimSuffix(strings.ToLower(quality), "p")
	if height == "" || height == "best" {
		return "bestvideo[ext=mp4]+bestaudio[ext=m4a]/best[ext=mp4]/best"
	}
	return fmt.Sprintf("bestvideo[height<=%s][ext=mp4]+bestaudio[ext=m4a]/best[height<=%s][ext=mp4]/best", height, height)
}

// scanResult is what scanOutput keeps from one output stream
type scanResult struct {
	path      string // last absolute path printed
	lastError string // last "ERROR:" line
}

// scanOutput forwards progress lines from r until EOF
func scanOutput(r io.Reader, onProgress domain.ProgressFunc) scanResult {
	var result scanResult
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if p, ok := ParseProgressLine(line); ok {
			onProgress(p)
			continue
		}
		switch {
		case strings.HasPrefix(line, "ERROR:"):
			result.lastError = strings.TrimSpace(strings.TrimPrefix(line, "ERROR:"))
		case filepath.IsAbs(line):
			result.path = line
		}
	}
	// Drain so the process never blocks on a full pipe
	_, _ = io.Copy(io.Discard, r)
	return result
}

// serializeProgress makes fn safe to call from both output scanners
func serializeProgress(fn domain.ProgressFunc) domain.ProgressFunc {
	var mu sync.Mutex
	return func(p domain.FetchProgress) {
		mu.Lock()
		defer mu.Unlock()
		fn(p)
	}
}

// lockedWriter serializes writes from the stdout and stderr tees
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

// ParseProgressLine parses a yt-dlp "[download]  42.0% of 10.00MiB at 1.50MiB/s ETA 00:05" line
func ParseProgressLine(line string) (domain.FetchProgress, bool) {
	m := progressPercentRe.FindStringSubmatch(line)
	if m == nil {
		return domain.FetchProgress{}, false
	}

	percent, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return domain.FetchProgress{}, false
	}

	progress := domain.FetchProgress{Percent: percent, ETASeconds: -1}
	if s := progressSpeedRe.FindStringSubmatch(line); s != nil {
		progress.Speed = s[1]
	}
	if e := progressETARe.FindStringSubmatch(line); e != nil {
		progress.ETASeconds = parseClock(e[1])
	}
	return progress, true
}

// parseClock converts "ss", "mm:ss" or "hh:mm:ss" to seconds, -1 if unparseable
func parseClock(s string) int {
	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return -1
	}
	total := 0
	for _, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return -1
		}
		total = total*60 + n
	}
	return total
}

// openLogFile opens today's raw fetch log
func (f *YTDLPFetcher) openLogFile() (*os.File, error) {
	if err := os.MkdirAll(f.logsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create logs directory: %w", err)
	}
	path := logger.CategoryLogPath(f.logsDir, logger.CategoryFetch, time.Now())
	return os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
}

// writeLogHeader writes the fetch start marker
func writeLogHeader(w io.Writer, url, cmdLine string) {
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	fmt.Fprintf(w, "\n=== [%s] Download: %s ===\n", timestamp, url)
	fmt.Fprintf(w, "$ %s\n", cmdLine)
}

// writeLogFooter writes the fetch end marker
func writeLogFooter(w io.Writer, success bool, message string) {
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	status := "SUCCESS"
	if !success {
		status = "FAILED"
	}
	fmt.Fprintf(w, "[%s] %s: %s\n", timestamp, status, message)
	fmt.Fprint(w, "=== END ===\n\n")
}

// fileExists checks if a file exists
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
