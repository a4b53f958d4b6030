package domain

import (
	"context"
	"io"
	"time"
)

// BlobInfo describes one stored object.
type BlobInfo struct {
	Path         string
	Size         int64
	LastModified time.Time
}

// BlobWriter uploads an object to blob storage.
type BlobWriter interface {
	Put(ctx context.Context, key string, body io.Reader, contentType string) error
}

// BlobReader retrieves and enumerates stored objects.
type BlobReader interface {
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	List(ctx context.Context, prefix string) ([]BlobInfo, error)
	Exists(ctx context.Context, key string) (bool, error)
}

// Archiver exports old ledger rows to cold storage. Archival never deletes
// from the ledger; the history table stays append-only.
type Archiver interface {
	ArchiveObservations(ctx context.Context, before time.Time) (int64, error)
}
