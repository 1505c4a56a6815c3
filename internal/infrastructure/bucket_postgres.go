package infrastructure

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS history_buckets (
	name TEXT PRIMARY KEY,
	data BYTEA NOT NULL,
	updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);`

// PostgresHistoryBucket stores the history blob as a row of a Postgres table
type PostgresHistoryBucket struct {
	db   *sql.DB
	name string
}

// NewPostgresHistoryBucket connects to dsn and creates the buckets table
func NewPostgresHistoryBucket(dsn, name string) (*PostgresHistoryBucket, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.ExecContext(ctx, postgresSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &PostgresHistoryBucket{db: db, name: name}, nil
}

// Load returns the stored blob, or nil if the bucket has never been saved
func (b *PostgresHistoryBucket) Load(ctx context.Context) ([]byte, error) {
	var data []byte
	err := b.db.QueryRowContext(ctx, `SELECT data FROM history_buckets WHERE name = $1`, b.name).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load history bucket: %w", err)
	}
	return data, nil
}

// Save upserts the blob under the bucket name
func (b *PostgresHistoryBucket) Save(ctx context.Context, data []byte) error {
	_, err := b.db.ExecContext(ctx, `
		INSERT INTO history_buckets (name, data, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (name) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`,
		b.name, data)
	if err != nil {
		return fmt.Errorf("failed to save history bucket: %w", err)
	}
	return nil
}

// Close closes the database connection pool
func (b *PostgresHistoryBucket) Close() error {
	return b.db.Close()
}
