// Package s3svc is the S3 backed Storage of the listing API.
package s3svc

import (
	"context"
	"log/slog"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/sgaunet/s2console/pkg/backend"
)

// API is the subset of the S3 client used by the service.
type API interface {
	ListBuckets(ctx context.Context, in *s3.ListBucketsInput, optFns ...func(*s3.Options)) (*s3.ListBucketsOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Service is the struct for the S3 service
type Service struct {
	client API
	log    *slog.Logger

	mu    sync.RWMutex
	sizes map[string]int64 // bucket name -> total object size, filled by RefreshSizes
}

var _ backend.Storage = (*Service)(nil)

// NewS3Svc creates a new S3 service
// By default the logger is set to write to /dev/null
func NewS3Svc(client API) *Service {
	return &Service{
		client: client,
		log:    slog.New(slog.DiscardHandler),
		sizes:  make(map[string]int64),
	}
}

// SetLogger sets the logger
func (s *Service) SetLogger(log *slog.Logger) {
	s.log = log
}
