package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned when the requested cookie jar does not exist.
var ErrNotFound = errors.New("object not found")

// CookieStore keeps exported browser cookie jars out of the container image.
type CookieStore interface {
	BucketName() string
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
	Exists(ctx context.Context, key string) (bool, error)
	Ping(ctx context.Context) error
}
