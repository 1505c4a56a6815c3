package infrastructure

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frenesis/frenesis/internal/domain"
)

// exerciseBucket checks the Load/Save contract shared by every backend
func exerciseBucket(t *testing.T, bucket domain.HistoryBucket) {
	t.Helper()
	ctx := context.Background()

	data, err := bucket.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, data)

	require.NoError(t, bucket.Save(ctx, []byte(`[{"id":1}]`)))
	data, err = bucket.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, `[{"id":1}]`, string(data))

	require.NoError(t, bucket.Save(ctx, []byte(`[]`)))
	data, err = bucket.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(data))
}

func TestMemoryHistoryBucket(t *testing.T) {
	exerciseBucket(t, NewMemoryHistoryBucket())
}

func TestMemoryHistoryBucket_CopiesData(t *testing.T) {
	bucket := NewMemoryHistoryBucket()
	ctx := context.Background()

	blob := []byte(`[]`)
	require.NoError(t, bucket.Save(ctx, blob))
	blob[0] = 'x'

	data, err := bucket.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(data))
}

func TestFileHistoryBucket(t *testing.T) {
	fs := afero.NewMemMapFs()
	bucket, err := NewFileHistoryBucket(fs, "/data/frenesis/history.json")
	require.NoError(t, err)

	exerciseBucket(t, bucket)

	exists, err := afero.Exists(fs, "/data/frenesis/history.json.tmp")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestFileHistoryBucket_OsFs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.json")
	bucket, err := NewFileHistoryBucket(nil, path)
	require.NoError(t, err)

	require.NoError(t, bucket.Save(context.Background(), []byte(`[]`)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(data))
	assert.Equal(t, path, bucket.Path())
}

func TestFileHistoryBucket_CanceledContext(t *testing.T) {
	bucket, err := NewFileHistoryBucket(afero.NewMemMapFs(), "/history.json")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, bucket.Save(ctx, []byte(`[]`)))
	_, err = bucket.Load(ctx)
	assert.Error(t, err)
}

func TestSQLiteHistoryBucket(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")
	bucket, err := NewSQLiteHistoryBucket(dbPath, "downloadHistory")
	require.NoError(t, err)
	defer bucket.Close()

	exerciseBucket(t, bucket)
}

func TestSQLiteHistoryBucket_NamedBucketsAreIndependent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	first, err := NewSQLiteHistoryBucket(dbPath, "first")
	require.NoError(t, err)
	defer first.Close()
	second, err := NewSQLiteHistoryBucket(dbPath, "second")
	require.NoError(t, err)
	defer second.Close()

	require.NoError(t, first.Save(ctx, []byte(`[1]`)))

	data, err := second.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, data)

	// Reopening sees the persisted blob
	reopened, err := NewSQLiteHistoryBucket(dbPath, "first")
	require.NoError(t, err)
	defer reopened.Close()

	data, err = reopened.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, `[1]`, string(data))
}

func TestRedisHistoryBucket(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}

	bucket, err := NewRedisHistoryBucket(url, "test-"+t.Name())
	if err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	defer bucket.Close()

	ctx := context.Background()
	require.NoError(t, bucket.client.Del(ctx, bucket.key).Err())
	defer bucket.client.Del(ctx, bucket.key)

	exerciseBucket(t, bucket)
}

func TestPostgresHistoryBucket(t *testing.T) {
	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_DSN not set")
	}

	bucket, err := NewPostgresHistoryBucket(dsn, "test-"+t.Name())
	if err != nil {
		t.Skipf("Postgres not available: %v", err)
	}
	defer bucket.Close()

	ctx := context.Background()
	_, err = bucket.db.ExecContext(ctx, `DELETE FROM history_buckets WHERE name = $1`, bucket.name)
	require.NoError(t, err)

	exerciseBucket(t, bucket)
}

func TestPostgresHistoryBucket_Unreachable(t *testing.T) {
	_, err := NewPostgresHistoryBucket("postgres://nobody@127.0.0.1:1/none?sslmode=disable&connect_timeout=1", "history")
	assert.Error(t, err)
}

func TestRedisHistoryBucket_BadURL(t *testing.T) {
	_, err := NewRedisHistoryBucket("not-a-url", "history")
	assert.Error(t, err)
}

func TestNewHistoryBucket(t *testing.T) {
	dir := t.TempDir()

	bucket, closer, err := NewHistoryBucket(domain.HistoryConfig{Backend: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &MemoryHistoryBucket{}, bucket)
	assert.NoError(t, closer.Close())

	bucket, closer, err = NewHistoryBucket(domain.HistoryConfig{Backend: "file", FilePath: filepath.Join(dir, "history.json")})
	require.NoError(t, err)
	assert.IsType(t, &FileHistoryBucket{}, bucket)
	assert.NoError(t, closer.Close())

	bucket, closer, err = NewHistoryBucket(domain.HistoryConfig{Backend: "sqlite", DatabasePath: filepath.Join(dir, "history.db"), Bucket: "downloadHistory"})
	require.NoError(t, err)
	assert.IsType(t, &SQLiteHistoryBucket{}, bucket)
	assert.NoError(t, closer.Close())

	_, _, err = NewHistoryBucket(domain.HistoryConfig{Backend: "mongo"})
	assert.Error(t, err)
}
