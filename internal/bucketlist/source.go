package bucketlist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// Object is one listed bucket object.
type Object struct {
	Name    string
	Size    int64
	Updated time.Time
}

// Source enumerates the objects of a bucket under a prefix, calling fn for
// each one in listing order. Returning an error from fn stops the listing.
type Source interface {
	List(ctx context.Context, bucket, prefix string, fn func(Object) error) error
}

// GCSSource lists objects through the Cloud Storage client.
type GCSSource struct {
	client *storage.Client
}

// NewGCSSource builds a storage client. Anonymous access is used for public
// buckets; otherwise application default credentials apply.
func NewGCSSource(ctx context.Context, anonymous bool, opts ...option.ClientOption) (*GCSSource, error) {
	if anonymous {
		opts = append(opts, option.WithoutAuthentication())
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &GCSSource{client: client}, nil
}

// Close releases the storage client.
func (s *GCSSource) Close() error {
	return s.client.Close()
}

// List implements Source. Prefix placeholders are not reported.
func (s *GCSSource) List(ctx context.Context, bucket, prefix string, fn func(Object) error) error {
	it := s.client.Bucket(bucket).Objects(ctx, &storage.Query{Prefix: prefix})
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("list gs://%s/%s: %w", bucket, prefix, err)
		}
		if attrs.Prefix != "" {
			continue
		}
		if err := fn(Object{Name: attrs.Name, Size: attrs.Size, Updated: attrs.Updated}); err != nil {
			return err
		}
	}
}
