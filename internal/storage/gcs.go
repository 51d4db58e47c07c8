package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSStore uploads objects to a Google Cloud Storage bucket.
type GCSStore struct {
	client        *gcs.Client
	bucket        string
	publicBaseURL string
}

// NewGCSClient builds a storage client from GOOGLE_APPLICATION_CREDENTIALS_JSON
// or GOOGLE_APPLICATION_CREDENTIALS, falling back to application default credentials.
func NewGCSClient(ctx context.Context, extra ...option.ClientOption) (*gcs.Client, error) {
	opts := append(ClientOptionsFromEnv(), option.WithScopes(gcs.ScopeReadWrite))
	opts = append(opts, extra...)
	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("storage: gcs client: %w", err)
	}
	return client, nil
}

// ClientOptionsFromEnv accepts inline JSON credentials or a credentials file path.
func ClientOptionsFromEnv() []option.ClientOption {
	creds := strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS_JSON"))
	if creds == "" {
		creds = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	if creds == "" {
		return nil
	}
	if strings.HasPrefix(creds, "{") {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(creds))}
	}
	return []option.ClientOption{option.WithCredentialsFile(creds)}
}

func NewGCSStore(client *gcs.Client, bucket, publicBaseURL string) (*GCSStore, error) {
	if client == nil {
		return nil, errors.New("storage: gcs client is required")
	}
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return nil, errors.New("storage: gcs bucket is required")
	}
	return &GCSStore{
		client:        client,
		bucket:        bucket,
		publicBaseURL: strings.TrimRight(strings.TrimSpace(publicBaseURL), "/"),
	}, nil
}

// Upload writes data to bucket/name. Objects are created only if absent.
func (s *GCSStore) Upload(ctx context.Context, name string, data []byte, contentType string) error {
	key, err := sanitizeKey(name)
	if err != nil {
		return err
	}
	obj := s.client.Bucket(s.bucket).Object(key).If(gcs.Conditions{DoesNotExist: true})
	w := obj.NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		_ = w.Close()
		return fmt.Errorf("storage: write gcs object: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("storage: close gcs writer: %w", err)
	}
	return nil
}

// PublicURL uses the configured public base (CDN or proxy) when set, otherwise
// the storage.googleapis.com host.
func (s *GCSStore) PublicURL(name string) string {
	key := strings.TrimLeft(strings.TrimSpace(name), "/")
	if cleaned, err := sanitizeKey(name); err == nil {
		key = cleaned
	}
	if s.publicBaseURL != "" {
		return fmt.Sprintf("%s/%s", s.publicBaseURL, key)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, key)
}

// Close releases the underlying client.
func (s *GCSStore) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

var _ BlobStore = (*GCSStore)(nil)
