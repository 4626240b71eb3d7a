package storage

import (
	"context"
	"io"
)

// Storage persists uploaded blobs (checkout videos, room images, avatars).
// Paths are relative to the backend's root.
type Storage interface {
	// Save writes content to path, creating parent directories as needed.
	Save(ctx context.Context, path string, content io.Reader) (int64, error)

	// Get opens the blob at path. The caller closes the reader.
	Get(ctx context.Context, path string) (io.ReadCloser, error)

	// Delete removes the blob at path. Missing blobs are not an error.
	Delete(ctx context.Context, path string) error
}
