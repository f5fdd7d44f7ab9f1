package s3svc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/sgaunet/s2console/pkg/backend"
	"github.com/sgaunet/s2console/pkg/dto"
)

const delimiter = "/"

// splitScope splits "bucket/some/prefix" into the bucket and a prefix ending
// with the delimiter.
func splitScope(scope string) (bucket, prefix string, err error) {
	scope = strings.Trim(scope, delimiter)
	if scope == "" {
		return "", "", fmt.Errorf("%w: empty bucket name", backend.ErrInvalidName)
	}
	bucket, prefix, _ = strings.Cut(scope, delimiter)
	for _, part := range strings.Split(prefix, delimiter) {
		if part == ".." || part == "." {
			return "", "", fmt.Errorf("%w: %q", backend.ErrInvalidName, scope)
		}
	}
	if prefix != "" {
		prefix += delimiter
	}
	return bucket, prefix, nil
}

// Files returns the objects directly under scope. The scope is a bucket name
// optionally followed by a folder prefix; file names are relative to it.
func (s *Service) Files(ctx context.Context, scope string) ([]dto.File, error) {
	bucket, prefix, err := splitScope(scope)
	if err != nil {
		return nil, err
	}

	result := []dto.File{}
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(bucket),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String(delimiter),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("Files: error of paginator.NextPage: %w", mapError(err, scope))
		}
		for _, obj := range page.Contents {
			name := strings.TrimPrefix(aws.ToString(obj.Key), prefix)
			if name == "" {
				continue // folder placeholder
			}
			result = append(result, dto.File{
				Name:    name,
				Size:    aws.ToInt64(obj.Size),
				ModTime: aws.ToTime(obj.LastModified),
			})
		}
	}
	return result, nil
}

// Open downloads one object of scope.
func (s *Service) Open(ctx context.Context, scope, name string) (io.ReadCloser, backend.FileInfo, error) {
	bucket, prefix, err := splitScope(scope)
	if err != nil {
		return nil, backend.FileInfo{}, err
	}
	if name == "" || strings.Contains(name, delimiter) {
		return nil, backend.FileInfo{}, fmt.Errorf("%w: %q", backend.ErrInvalidName, name)
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(prefix + name),
	})
	if err != nil {
		return nil, backend.FileInfo{}, fmt.Errorf("Open: error of GetObject: %w", mapError(err, scope+"/"+name))
	}
	size := int64(-1)
	if out.ContentLength != nil {
		size = *out.ContentLength
	}
	return out.Body, backend.FileInfo{
		Name:    name,
		Size:    size,
		ModTime: aws.ToTime(out.LastModified),
	}, nil
}

// mapError translates S3 not-found errors into the storage sentinels.
func mapError(err error, what string) error {
	var noBucket *types.NoSuchBucket
	if errors.As(err, &noBucket) {
		return fmt.Errorf("%w: %q", backend.ErrBucketNotFound, what)
	}
	var noKey *types.NoSuchKey
	if errors.As(err, &noKey) {
		return fmt.Errorf("%w: %q", backend.ErrFileNotFound, what)
	}
	return err
}
