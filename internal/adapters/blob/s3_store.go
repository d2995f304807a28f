package blob

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/kamal-hamza/ccw/internal/core/ports"
)

// DefaultURLTemplate renders public object URLs in the region-style S3 form
const DefaultURLTemplate = "https://s3-{region}.amazonaws.com/{bucket}/{key}"

// S3API is the subset of the S3 client used by the store
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store stores blobs as publicly readable objects in a single bucket
type S3Store struct {
	client      S3API
	bucket      string
	region      string
	urlTemplate string
}

// NewS3Store creates a store for bucket. An empty template selects DefaultURLTemplate.
func NewS3Store(client S3API, bucket, region, urlTemplate string) *S3Store {
	if urlTemplate == "" {
		urlTemplate = DefaultURLTemplate
	}
	return &S3Store{
		client:      client,
		bucket:      bucket,
		region:      region,
		urlTemplate: urlTemplate,
	}
}

// Ensure it implements the interface
var _ ports.BlobStore = (*S3Store)(nil)

// Put uploads body under key and returns its public URL
func (s *S3Store) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
		ACL:           types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return "", fmt.Errorf("failed to put s3://%s/%s: %w", s.bucket, key, err)
	}
	return s.URL(key), nil
}

// URL renders the public location of key
func (s *S3Store) URL(key string) string {
	return strings.NewReplacer(
		"{region}", s.region,
		"{bucket}", s.bucket,
		"{key}", url.PathEscape(key),
	).Replace(s.urlTemplate)
}
