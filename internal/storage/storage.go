// Package storage provides temporary and durable file storage capabilities.
// It defines the Storage port used by the result materializer and the batch
// runner, with implementations for local disk and S3.
package storage

import (
	"context"
	"io"
)

// Storage defines the interface for temporary and durable file storage.
// Implementations must handle uniquely named temporary files during
// materialization and optionally support durable uploads for final
// artifacts and thumbnails.
type Storage interface {
	// SaveTemp saves data to a uniquely named temporary file and returns
	// the file path. The name parameter is used as a hint for the filename,
	// so concurrent workers never contend on the filesystem.
	SaveTemp(ctx context.Context, name string, data io.Reader) (path string, err error)

	// LoadTemp reads a temporary file and returns a reader.
	// The caller is responsible for closing the returned ReadCloser.
	LoadTemp(ctx context.Context, path string) (io.ReadCloser, error)

	// CleanupTemp removes the specified temporary files.
	// It continues cleanup even if some files fail to delete.
	CleanupTemp(ctx context.Context, paths []string) error

	// Upload stores data durably under key and returns its public URL.
	// Returns ErrDurableNotConfigured if no durable backend is configured.
	Upload(ctx context.Context, key string, data io.Reader) (url string, err error)

	// Download streams a durable object into dst.
	// Returns ErrDurableNotConfigured if no durable backend is configured.
	Download(ctx context.Context, key string, dst io.Writer) error
}
