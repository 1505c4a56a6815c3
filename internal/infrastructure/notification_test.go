package infrastructure

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frenesis/frenesis/internal/domain"
)

type recordedCommand struct {
	name string
	args []string
}

func newRecordingNotifier(config *domain.NotificationConfig, err error) (*NotificationService, *[]recordedCommand) {
	var commands []recordedCommand
	n := NewNotificationService(config, nil)
	n.run = func(ctx context.Context, name string, args ...string) error {
		commands = append(commands, recordedCommand{name: name, args: args})
		return err
	}
	return n, &commands
}

func TestNotificationService_Disabled(t *testing.T) {
	n, commands := newRecordingNotifier(&domain.NotificationConfig{Enabled: false, Method: "notify-send"}, nil)

	n.NotifyDownloadCompleted("https://youtu.be/abc", "video_1.mp4")
	assert.Empty(t, *commands)
}

func TestNotificationService_NotifySend(t *testing.T) {
	n, commands := newRecordingNotifier(&domain.NotificationConfig{Enabled: true, Method: "notify-send"}, nil)

	n.NotifyDownloadCompleted("https://youtu.be/abc", "video_1.mp4")

	require.Len(t, *commands, 1)
	cmd := (*commands)[0]
	assert.Equal(t, "notify-send", cmd.name)
	assert.Equal(t, []string{"--app-name=FRENESIS", "Download Completed", "Saved video_1.mp4"}, cmd.args)
}

func TestNotificationService_OSAScriptQuoting(t *testing.T) {
	n, commands := newRecordingNotifier(&domain.NotificationConfig{Enabled: true, Method: "osascript", Sound: true}, nil)

	n.NotifyDownloadFailed("https://youtu.be/abc", errors.New(`bad "quote"`))

	require.Len(t, *commands, 1)
	script := (*commands)[0].args[1]
	assert.Contains(t, script, `bad \"quote\"`)
	assert.Contains(t, script, `with title "Download Failed"`)
	assert.Contains(t, script, `sound name "default"`)
}

func TestNotificationService_CommandError(t *testing.T) {
	n, _ := newRecordingNotifier(&domain.NotificationConfig{Enabled: true, Method: "notify-send"}, errors.New("not found"))

	assert.Error(t, n.Send("title", "message"))
}

func TestNotificationService_UnknownMethod(t *testing.T) {
	n, commands := newRecordingNotifier(&domain.NotificationConfig{Enabled: true, Method: "pigeon"}, nil)

	assert.NoError(t, n.Send("title", "message"))
	assert.Empty(t, *commands)
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", truncateString("short", 10))
	assert.Equal(t, "abcde...", truncateString("abcdefgh", 5))
}
