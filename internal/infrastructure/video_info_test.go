package infrastructure

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frenesis/frenesis/internal/domain"
)

func TestStaticVideoInfoProvider(t *testing.T) {
	provider := NewStaticVideoInfoProvider(0)

	info, err := provider.VideoInfo(context.Background(), "https://youtu.be/abc")
	require.NoError(t, err)
	assert.Equal(t, "Sample YouTube Video", info.Title)
	assert.Equal(t, "5:30", info.Duration)
	assert.Len(t, info.Formats, 4)
	assert.Equal(t, "Audio", info.Formats[3].Quality)
}

func TestStaticVideoInfoProvider_Canceled(t *testing.T) {
	provider := NewStaticVideoInfoProvider(time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := provider.VideoInfo(ctx, "https://youtu.be/abc")
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestParseYTDLPInfo(t *testing.T) {
	data := []byte(`{
		"title": "Never Gonna Give You Up",
		"duration": 213,
		"view_count": 1234567,
		"uploader": "Rick Astley",
		"upload_date": "20091025",
		"thumbnail": "https://i.ytimg.com/vi/dQw4w9WgXcQ/maxresdefault.jpg",
		"formats": [
			{"format_id": "sb0", "ext": "mhtml", "vcodec": "none", "acodec": "none"},
			{"format_id": "140", "ext": "m4a", "resolution": "audio only", "vcodec": "none", "acodec": "mp4a.40.2", "filesize": 3450000},
			{"format_id": "22", "ext": "mp4", "resolution": "1280x720", "format_note": "720p", "vcodec": "avc1", "acodec": "mp4a", "filesize_approx": 85000000}
		]
	}`)

	info, err := parseYTDLPInfo(data)
	require.NoError(t, err)

	assert.Equal(t, "Never Gonna Give You Up", info.Title)
	assert.Equal(t, "3:33", info.Duration)
	assert.Equal(t, "1,234,567", info.Views)
	assert.Equal(t, "2009-10-25", info.UploadDate)

	require.Len(t, info.Formats, 2)
	assert.Equal(t, domain.FormatInfo{FormatID: "140", Quality: "Audio", Format: "M4A", Size: "3.5 MB"}, info.Formats[0])
	assert.Equal(t, "1280x720", info.Formats[1].Quality)
	assert.Equal(t, "~85 MB", info.Formats[1].Size)
	assert.Equal(t, "720p", info.Formats[1].Note)
}

func TestParseYTDLPInfo_Defaults(t *testing.T) {
	info, err := parseYTDLPInfo([]byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, "Unknown", info.Title)
	assert.Equal(t, "Unknown", info.Uploader)
	assert.Equal(t, "0:00", info.Duration)
	assert.Equal(t, "0", info.Views)
	assert.NotNil(t, info.Formats)

	_, err = parseYTDLPInfo([]byte(`not json`))
	assert.Error(t, err)
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "5:30", formatDuration(330))
	assert.Equal(t, "1:01:01", formatDuration(3661))
	assert.Equal(t, "0:00", formatDuration(-5))
}

func TestYTDLPVideoInfoProvider(t *testing.T) {
	binary := writeFakeYTDLP(t, `echo '{"title": "From Script", "duration": 90, "view_count": 10}'`)
	provider := NewYTDLPVideoInfoProvider(&domain.YTDLPConfig{Binary: binary})

	info, err := provider.VideoInfo(context.Background(), "https://youtu.be/abc")
	require.NoError(t, err)
	assert.Equal(t, "From Script", info.Title)
	assert.Equal(t, "1:30", info.Duration)
}

func TestYTDLPVideoInfoProvider_Error(t *testing.T) {
	binary := writeFakeYTDLP(t, "echo 'ERROR: Private video' >&2\nexit 1\n")
	provider := NewYTDLPVideoInfoProvider(&domain.YTDLPConfig{Binary: binary})

	_, err := provider.VideoInfo(context.Background(), "https://youtu.be/abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Private video")
}
