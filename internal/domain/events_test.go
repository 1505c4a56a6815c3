package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventJSON_ProgressOmitsHistory(t *testing.T) {
	data, err := json.Marshal(ProgressEvent(42, "Downloading..."))
	require.NoError(t, err)

	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &fields))
	assert.Equal(t, "progress", fields["type"])
	assert.Equal(t, float64(42), fields["percent"])
	assert.NotContains(t, fields, "history")
}

func TestEventJSON_HistoryChanged(t *testing.T) {
	event := Event{
		Type:    EventHistoryChanged,
		History: []HistoryRecord{{ID: 7, URL: "https://youtu.be/abc", Status: HistorySuccess}},
	}

	data, err := json.Marshal(event)
	require.NoError(t, err)

	var decoded Event
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded.History, 1)
	assert.Equal(t, int64(7), decoded.History[0].ID)
}
