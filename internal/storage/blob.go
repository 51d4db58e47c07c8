package storage

import "context"

// BlobStore persists immutable objects and resolves their public URLs.
type BlobStore interface {
	Upload(ctx context.Context, name string, data []byte, contentType string) error
	PublicURL(name string) string
}
