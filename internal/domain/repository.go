package domain

import "context"

// HistoryBucket persists a single named blob holding the serialized history log.
// Load returns nil data when nothing has been saved yet.
type HistoryBucket interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
}
