package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// historyBucketRow is one named blob in the buckets table
type historyBucketRow struct {
	Name      string `gorm:"primaryKey"`
	Data      []byte
	UpdatedAt time.Time
}

func (historyBucketRow) TableName() string {
	return "history_buckets"
}

// SQLiteHistoryBucket stores the history blob as a row of a SQLite table
type SQLiteHistoryBucket struct {
	db   *gorm.DB
	name string
}

// NewSQLiteHistoryBucket opens the database at dbPath and migrates the schema
func NewSQLiteHistoryBucket(dbPath, name string) (*SQLiteHistoryBucket, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(&historyBucketRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &SQLiteHistoryBucket{db: db, name: name}, nil
}

// Load returns the stored blob, or nil if the bucket has never been saved
func (b *SQLiteHistoryBucket) Load(ctx context.Context) ([]byte, error) {
	var row historyBucketRow
	err := b.db.WithContext(ctx).First(&row, "name = ?", b.name).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load history bucket: %w", err)
	}
	return row.Data, nil
}

// Save upserts the blob under the bucket name
func (b *SQLiteHistoryBucket) Save(ctx context.Context, data []byte) error {
	row := historyBucketRow{Name: b.name, Data: data, UpdatedAt: time.Now()}

	err := b.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to save history bucket: %w", err)
	}
	return nil
}

// Close closes the underlying database connection
func (b *SQLiteHistoryBucket) Close() error {
	sqlDB, err := b.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
