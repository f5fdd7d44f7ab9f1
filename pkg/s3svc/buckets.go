package s3svc

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/sgaunet/s2console/pkg/dto"
)

// Buckets returns every S3 bucket accessible with the current credentials,
// sorted by name. Sizes come from the last RefreshSizes run and are 0 before it.
func (s *Service) Buckets(ctx context.Context) ([]dto.Bucket, error) {
	names, err := s.bucketNames(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	buckets := make([]dto.Bucket, 0, len(names))
	for _, name := range names {
		buckets = append(buckets, dto.Bucket{Name: name, Size: s.sizes[name]})
	}
	return buckets, nil
}

// RefreshSizes recomputes the total object size of every bucket. A bucket
// that cannot be listed keeps its previous size.
func (s *Service) RefreshSizes(ctx context.Context) error {
	names, err := s.bucketNames(ctx)
	if err != nil {
		return err
	}

	sizes := make(map[string]int64, len(names))
	for _, name := range names {
		size, err := s.bucketSize(ctx, name)
		if err != nil {
			s.log.Warn("Cannot compute bucket size",
				slog.String("bucket", name),
				slog.String("error", err.Error()))
			s.mu.RLock()
			size = s.sizes[name]
			s.mu.RUnlock()
		}
		sizes[name] = size
	}

	s.mu.Lock()
	s.sizes = sizes
	s.mu.Unlock()
	s.log.Debug("Bucket sizes refreshed", slog.Int("count", len(sizes)))
	return nil
}

func (s *Service) bucketNames(ctx context.Context) ([]string, error) {
	output, err := s.client.ListBuckets(ctx, &s3.ListBucketsInput{})
	if err != nil {
		s.log.Error("Failed to list buckets", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to list buckets: %w", err)
	}
	names := make([]string, 0, len(output.Buckets))
	for _, b := range output.Buckets {
		names = append(names, aws.ToString(b.Name))
	}
	sort.Strings(names)
	return names, nil
}

func (s *Service) bucketSize(ctx context.Context, bucket string) (int64, error) {
	var size int64
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return 0, fmt.Errorf("bucketSize: error of paginator.NextPage: %w", mapError(err, bucket))
		}
		for _, obj := range page.Contents {
			size += aws.ToInt64(obj.Size)
		}
	}
	return size, nil
}
