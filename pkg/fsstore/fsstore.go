// Package fsstore is a directory backed Storage: every directory under the
// store directory is a bucket, and the regular files directly inside it are
// its files.
package fsstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/sgaunet/s2console/pkg/backend"
	"github.com/sgaunet/s2console/pkg/dto"
)

// MaxBucketDepth bounds how deep directories are considered buckets.
const MaxBucketDepth = 64

// ErrStoreDir is returned when the store directory is unusable.
var ErrStoreDir = errors.New("store directory is not a directory")

// Store serves buckets from a directory tree.
type Store struct {
	dir string
	log *slog.Logger
}

var _ backend.Storage = (*Store)(nil)

// New opens the store rooted at dir.
func New(dir string) (*Store, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve store directory: %w", err)
	}
	fi, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("cannot open store directory: %w", err)
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrStoreDir, abs)
	}
	return &Store{dir: abs, log: slog.New(slog.DiscardHandler)}, nil
}

// SetLogger sets the logger for the store
func (s *Store) SetLogger(log *slog.Logger) {
	s.log = log
}

// Buckets walks the store directory and returns every directory as a bucket
// named by its slash separated path relative to the store.
func (s *Store) Buckets(ctx context.Context) ([]dto.Bucket, error) {
	var buckets []dto.Bucket
	err := filepath.WalkDir(s.dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			s.log.Debug("Skipping unreadable path", slog.String("path", p), slog.String("error", err.Error()))
			if d != nil && d.IsDir() && p != s.dir {
				return fs.SkipDir
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if !d.IsDir() || p == s.dir {
			return nil
		}
		rel, err := filepath.Rel(s.dir, p)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if depth := strings.Count(rel, "/") + 1; depth > MaxBucketDepth {
			return fs.SkipDir
		}
		size, err := dirSize(p)
		if err != nil {
			s.log.Debug("Cannot size bucket", slog.String("bucket", rel), slog.String("error", err.Error()))
			return nil
		}
		buckets = append(buckets, dto.Bucket{Name: rel, Size: size})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("cannot list buckets: %w", err)
	}
	return buckets, nil
}

// Files returns the regular files directly inside bucket, sorted by name.
func (s *Store) Files(ctx context.Context, bucket string) ([]dto.File, error) {
	dir, err := s.bucketPath(bucket)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %q", backend.ErrBucketNotFound, bucket)
		}
		return nil, fmt.Errorf("cannot list bucket %q: %w", bucket, err)
	}

	files := make([]dto.File, 0, len(entries))
	for _, e := range entries {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if !e.Type().IsRegular() {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			s.log.Debug("Skipping file", slog.String("file", e.Name()), slog.String("error", err.Error()))
			continue
		}
		files = append(files, dto.File{Name: e.Name(), Size: fi.Size(), ModTime: fi.ModTime()})
	}
	return files, nil
}

// Open returns the content of a regular file of bucket.
func (s *Store) Open(_ context.Context, bucket, name string) (io.ReadCloser, backend.FileInfo, error) {
	dir, err := s.bucketPath(bucket)
	if err != nil {
		return nil, backend.FileInfo{}, err
	}
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return nil, backend.FileInfo{}, fmt.Errorf("%w: %q", backend.ErrInvalidName, name)
	}

	p := filepath.Join(dir, name)
	fi, err := os.Stat(p)
	if err != nil || !fi.Mode().IsRegular() {
		return nil, backend.FileInfo{}, fmt.Errorf("%w: %s/%s", backend.ErrFileNotFound, bucket, name)
	}
	f, err := os.Open(p) //nolint:gosec // path confined to the store directory
	if err != nil {
		return nil, backend.FileInfo{}, fmt.Errorf("cannot open %s/%s: %w", bucket, name, err)
	}
	return f, backend.FileInfo{Name: name, Size: fi.Size(), ModTime: fi.ModTime()}, nil
}

// bucketPath resolves bucket inside the store and checks that it is an
// existing directory.
func (s *Store) bucketPath(bucket string) (string, error) {
	if strings.Trim(bucket, "/.") == "" {
		return "", fmt.Errorf("%w: empty bucket name", backend.ErrInvalidName)
	}
	p := filepath.Clean(filepath.Join(s.dir, filepath.FromSlash(bucket)))
	rel, err := filepath.Rel(s.dir, p)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", backend.ErrInvalidName, bucket)
	}
	fi, err := os.Stat(p)
	if err != nil || !fi.IsDir() {
		return "", fmt.Errorf("%w: %q", backend.ErrBucketNotFound, bucket)
	}
	return p, nil
}

// dirSize sums the sizes of the regular files directly inside dir.
func dirSize(dir string) (int64, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("cannot read %s: %w", dir, err)
	}
	var size int64
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			continue
		}
		size += fi.Size()
	}
	return size, nil
}
