package infrastructure

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// FileHistoryBucket stores the history blob as a single JSON file
type FileHistoryBucket struct {
	fs   afero.Fs
	path string
}

// NewFileHistoryBucket creates a bucket backed by path on fs.
// A nil fs means the operating system filesystem.
func NewFileHistoryBucket(fs afero.Fs, path string) (*FileHistoryBucket, error) {
	if fs == nil {
		fs = afero.NewOsFs()
	}

	if err := fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	return &FileHistoryBucket{fs: fs, path: path}, nil
}

// Path returns the file the history is stored in
func (b *FileHistoryBucket) Path() string {
	return b.path
}

// Load reads the history file. A missing file is not an error.
func (b *FileHistoryBucket) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := afero.ReadFile(b.fs, b.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read history file: %w", err)
	}
	return data, nil
}

// Save writes the blob to a temporary file and renames it over the history
// file, so readers never observe a partial write.
func (b *FileHistoryBucket) Save(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tmp := b.path + ".tmp"
	if err := afero.WriteFile(b.fs, tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write history file: %w", err)
	}

	if err := b.fs.Rename(tmp, b.path); err != nil {
		_ = b.fs.Remove(tmp)
		return fmt.Errorf("failed to replace history file: %w", err)
	}
	return nil
}
