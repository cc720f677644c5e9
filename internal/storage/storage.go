// Package storage puts processed images into an S3-compatible bucket.
package storage

import (
	"context"
	"fmt"
	"strings"
)

// ObjectStore is the bucket an Uploader writes to.
type ObjectStore interface {
	PutObject(ctx context.Context, key string, body []byte, contentType, cacheControl string) error
	DeleteObject(ctx context.Context, key string) error
}

func publicURL(base, key string) string {
	return fmt.Sprintf("%s/%s", strings.TrimSuffix(base, "/"), key)
}
