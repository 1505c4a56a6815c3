package infrastructure

import (
	"context"
	"sync"
)

// MemoryHistoryBucket keeps the history blob in process memory
type MemoryHistoryBucket struct {
	mu   sync.RWMutex
	data []byte
}

// NewMemoryHistoryBucket creates an empty in-memory bucket
func NewMemoryHistoryBucket() *MemoryHistoryBucket {
	return &MemoryHistoryBucket{}
}

// Load returns a copy of the stored blob, or nil if nothing was saved
func (b *MemoryHistoryBucket) Load(ctx context.Context) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.data == nil {
		return nil, nil
	}
	return append([]byte(nil), b.data...), nil
}

// Save replaces the stored blob
func (b *MemoryHistoryBucket) Save(ctx context.Context, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.data = append([]byte(nil), data...)
	return nil
}
