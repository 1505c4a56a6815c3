package infrastructure

import (
	"fmt"
	"io"

	"github.com/spf13/afero"

	"github.com/frenesis/frenesis/internal/domain"
)

// NewHistoryBucket opens the history bucket selected by config.Backend.
// The returned closer releases the backend's resources and is never nil.
func NewHistoryBucket(config domain.HistoryConfig) (domain.HistoryBucket, io.Closer, error) {
	switch config.Backend {
	case "memory":
		return NewMemoryHistoryBucket(), nopCloser{}, nil

	case "file", "":
		bucket, err := NewFileHistoryBucket(afero.NewOsFs(), config.FilePath)
		if err != nil {
			return nil, nil, err
		}
		return bucket, nopCloser{}, nil

	case "sqlite":
		bucket, err := NewSQLiteHistoryBucket(config.DatabasePath, config.Bucket)
		if err != nil {
			return nil, nil, err
		}
		return bucket, bucket, nil

	case "postgres":
		bucket, err := NewPostgresHistoryBucket(config.PostgresDSN, config.Bucket)
		if err != nil {
			return nil, nil, err
		}
		return bucket, bucket, nil

	case "redis":
		bucket, err := NewRedisHistoryBucket(config.RedisURL, config.Bucket)
		if err != nil {
			return nil, nil, err
		}
		return bucket, bucket, nil
	}

	return nil, nil, fmt.Errorf("unknown history backend: %s", config.Backend)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
