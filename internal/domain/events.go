package domain

// EventType identifies an event raised to the UI
type EventType string

const (
	EventProgress       EventType = "progress"
	EventSpeedUpdate    EventType = "speed_update"
	EventETAUpdate      EventType = "eta_update"
	EventHistoryChanged EventType = "history_changed"
	EventVideoInfoReady EventType = "video_info_ready"
	EventFileReady      EventType = "file_ready"
)

// Event is a message raised to the UI adapter
type Event struct {
	Type     EventType       `json:"type"`
	Percent  float64         `json:"percent"`
	Message  string          `json:"message,omitempty"`
	Text     string          `json:"text,omitempty"`
	Filename string          `json:"filename,omitempty"`
	History  []HistoryRecord `json:"history,omitempty"`
	Info     *VideoInfo      `json:"info,omitempty"`
}

// EventPublisher delivers events to the UI. Publish must not block.
type EventPublisher interface {
	Publish(event Event)
}

// ProgressEvent builds a progress event
func ProgressEvent(percent float64, message string) Event {
	return Event{Type: EventProgress, Percent: percent, Message: message}
}
