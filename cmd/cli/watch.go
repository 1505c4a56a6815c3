package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/gorilla/websocket"

	"github.com/frenesis/frenesis/internal/domain"
)

// watchDownload prints events until the download reaches an outcome.
// It returns the final history record when one was announced.
func watchDownload(conn *websocket.Conn, out io.Writer, since time.Time) (*domain.HistoryRecord, error) {
	var last *domain.HistoryRecord

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return last, err
		}

		var event domain.Event
		if err := json.Unmarshal(data, &event); err != nil {
			continue
		}

		switch event.Type {
		case domain.EventProgress:
			fmt.Fprintf(out, "\r%-40s", event.Message)
		case domain.EventSpeedUpdate, domain.EventETAUpdate:
			fmt.Fprintf(out, " %s", event.Text)
		case domain.EventHistoryChanged:
			// Records older than the session come from the connect greeting
			if len(event.History) == 0 || event.History[0].Timestamp.Before(since) {
				continue
			}
			record := event.History[0]
			last = &record
			if record.Status != domain.HistorySuccess {
				fmt.Fprintln(out)
				return last, nil
			}
		case domain.EventFileReady:
			fmt.Fprintf(out, "\n%s\n", event.Message)
			return last, nil
		}
	}
}
