package backend

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/sgaunet/s2console/pkg/dto"
)

var (
	// ErrBucketNotFound is returned by a Storage for an unknown bucket.
	ErrBucketNotFound = errors.New("bucket not found")
	// ErrFileNotFound is returned by a Storage for an unknown file.
	ErrFileNotFound = errors.New("file not found")
	// ErrInvalidName is returned when a bucket or file name escapes the store.
	ErrInvalidName = errors.New("wrong bucket or file name")
)

// Storage is the object store the listing API serves from.
type Storage interface {
	// Buckets returns every bucket with its size, in a stable order.
	Buckets(ctx context.Context) ([]dto.Bucket, error)
	// Files returns the regular files directly inside bucket, in a stable order.
	Files(ctx context.Context, bucket string) ([]dto.File, error)
	// Open returns the content of one file.
	Open(ctx context.Context, bucket, name string) (io.ReadCloser, FileInfo, error)
}

// FileInfo describes a downloaded file.
type FileInfo struct {
	Name    string
	Size    int64
	ModTime time.Time
}
