package infrastructure

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShellEscape(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty", "", "''"},
		{"plain", "yt-dlp", "yt-dlp"},
		{"path", "/tmp/downloads/file.mp4", "/tmp/downloads/file.mp4"},
		{"spaces", "/tmp/My Videos", "'/tmp/My Videos'"},
		{"single quote", "it's", `'it'"'"'s'`},
		{"format selector", "bestvideo[height<=720][ext=mp4]+bestaudio", "'bestvideo[height<=720][ext=mp4]+bestaudio'"},
		{"output template", "%(title)s.%(ext)s", "'%(title)s.%(ext)s'"},
		{"url with query", "https://www.youtube.com/watch?v=abc&list=PL1", "'https://www.youtube.com/watch?v=abc&list=PL1'"},
		{"dollar", "$HOME", "'$HOME'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ShellEscape(tt.input))
		})
	}
}

func TestShellEscapeCommand(t *testing.T) {
	line := ShellEscapeCommand("yt-dlp", "--newline", "-o", "/tmp/My Videos/%(title)s.%(ext)s", "https://youtu.be/abc")
	assert.Equal(t, "yt-dlp --newline -o '/tmp/My Videos/%(title)s.%(ext)s' https://youtu.be/abc", line)
}
