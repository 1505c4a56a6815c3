package infrastructure

import (
	"net/url"
	"regexp"
	"strings"
)

var youtubeURLPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^(https?://)?(www\.|m\.|music\.)?(youtube\.com|youtu\.?be)/.+`),
	regexp.MustCompile(`^https?://(www\.)?youtube\.com/watch\?v=[\w-]+`),
	regexp.MustCompile(`^https?://youtu\.be/[\w-]+`),
	regexp.MustCompile(`^https?://(www\.)?youtube\.com/playlist\?list=[\w-]+`),
}

// YouTubeValidator accepts URLs shaped like YouTube video or playlist links
type YouTubeValidator struct{}

// NewYouTubeValidator creates a new YouTube URL validator
func NewYouTubeValidator() *YouTubeValidator {
	return &YouTubeValidator{}
}

// Valid reports whether rawURL matches a known YouTube URL shape and parses
// as an http(s) URL on a YouTube host.
func (v *YouTubeValidator) Valid(rawURL string) bool {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return false
	}

	matched := false
	for _, pattern := range youtubeURLPatterns {
		if pattern.MatchString(rawURL) {
			matched = true
			break
		}
	}
	if !matched {
		return false
	}

	if !strings.Contains(rawURL, "://") {
		rawURL = "https://" + rawURL
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false
	}

	host := strings.ToLower(parsed.Hostname())
	host = strings.TrimPrefix(host, "www.")

	switch host {
	case "youtube.com", "m.youtube.com", "music.youtube.com", "youtu.be":
	default:
		return false
	}

	return strings.Trim(parsed.Path, "/") != ""
}
