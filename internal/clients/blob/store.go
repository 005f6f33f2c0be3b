package blob

import (
	"context"
	"io"
)

// Store persists uploaded document files. Keys are opaque slash-separated
// paths; the catalog row holds the key, the store holds the bytes.
type Store interface {
	Upload(ctx context.Context, key string, contentType string, r io.Reader) error
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}
