package app

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/frenesis/frenesis/internal/domain"
)

// HistoryStore keeps the bounded, newest-first download history on top of a
// single persisted bucket. It is the only writer of that bucket.
type HistoryStore struct {
	bucket    domain.HistoryBucket
	publisher domain.EventPublisher
	logger    *zap.Logger
	mu        sync.Mutex
}

// NewHistoryStore creates a new history store
func NewHistoryStore(bucket domain.HistoryBucket, publisher domain.EventPublisher, logger *zap.Logger) *HistoryStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HistoryStore{
		bucket:    bucket,
		publisher: publisher,
		logger:    logger,
	}
}

// Append prepends a record, evicts the oldest entries beyond capacity and
// persists the whole log before returning.
func (s *HistoryStore) Append(ctx context.Context, record domain.HistoryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	history, err := s.load(ctx)
	if err != nil {
		return err
	}

	history = append([]domain.HistoryRecord{record}, history...)
	if len(history) > domain.HistoryCapacity {
		history = history[:domain.HistoryCapacity]
	}

	if err := s.save(ctx, history); err != nil {
		return err
	}

	s.publish(history)
	return nil
}

// List returns the log newest-first. A missing or corrupt log reads as empty.
func (s *HistoryStore) List(ctx context.Context) ([]domain.HistoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.load(ctx)
}

// Clear irreversibly replaces the log with an empty one
func (s *HistoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := []domain.HistoryRecord{}
	if err := s.save(ctx, history); err != nil {
		return err
	}

	s.logger.Info("History cleared")
	s.publish(history)
	return nil
}

// Retry looks up the request that produced a record so the caller can start it again
func (s *HistoryStore) Retry(ctx context.Context, id int64) (domain.DownloadRequest, error) {
	history, err := s.List(ctx)
	if err != nil {
		return domain.DownloadRequest{}, err
	}

	for _, record := range history {
		if record.ID == id {
			return record.Request(), nil
		}
	}

	return domain.DownloadRequest{}, fmt.Errorf("%w: %d", domain.ErrRecordNotFound, id)
}

// load reads the persisted log. Callers must hold s.mu.
func (s *HistoryStore) load(ctx context.Context) ([]domain.HistoryRecord, error) {
	data, err := s.bucket.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	history := []domain.HistoryRecord{}
	if len(data) == 0 {
		return history, nil
	}

	if err := json.Unmarshal(data, &history); err != nil {
		s.logger.Warn("Discarding unreadable history",
			zap.Error(fmt.Errorf("%w: %v", domain.ErrPersistenceCorrupt, err)))
		return []domain.HistoryRecord{}, nil
	}

	if history == nil {
		history = []domain.HistoryRecord{}
	}
	if len(history) > domain.HistoryCapacity {
		history = history[:domain.HistoryCapacity]
	}

	return history, nil
}

// save persists the full log. Callers must hold s.mu.
func (s *HistoryStore) save(ctx context.Context, history []domain.HistoryRecord) error {
	data, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	if err := s.bucket.Save(ctx, data); err != nil {
		return fmt.Errorf("failed to save history: %w", err)
	}

	return nil
}

func (s *HistoryStore) publish(history []domain.HistoryRecord) {
	if s.publisher == nil {
		return
	}
	snapshot := make([]domain.HistoryRecord, len(history))
	copy(snapshot, history)
	s.publisher.Publish(domain.Event{Type: domain.EventHistoryChanged, History: snapshot})
}
