package infrastructure

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestYouTubeValidator_Valid(t *testing.T) {
	v := NewYouTubeValidator()

	valid := []string{
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		"http://youtube.com/watch?v=dQw4w9WgXcQ",
		"https://youtu.be/dQw4w9WgXcQ",
		"https://www.youtube.com/playlist?list=PL590L5WQmH8fJ54F369BLDSqIwcs-TCfs",
		"youtube.com/shorts/abc123",
		"www.youtube.com/watch?v=abc",
		"  https://youtu.be/abc  ",
		"https://m.youtube.com/watch?v=dQw4w9WgXcQ",
		"https://music.youtube.com/watch?v=dQw4w9WgXcQ",
		"music.youtube.com/playlist?list=OLAK5uy_abc",
	}
	for _, u := range valid {
		assert.True(t, v.Valid(u), u)
	}

	invalid := []string{
		"",
		"https://example.com/watch?v=abc",
		"https://vimeo.com/123",
		"https://www.youtube.com/",
		"ftp://youtube.com/watch?v=abc",
		"https://youtube.com.evil.example/watch",
		"not a url",
		"https://m.youtu.be/abc",
		"https://music.youtube.com/",
	}
	for _, u := range invalid {
		assert.False(t, v.Valid(u), u)
	}
}
