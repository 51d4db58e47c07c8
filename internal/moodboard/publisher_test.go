package moodboard

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"testing"

	"moodboard/internal/domain"
	"moodboard/internal/providers/image"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

type upload struct {
	name        string
	data        []byte
	contentType string
}

type memoryStore struct {
	mu      sync.Mutex
	uploads []upload
	err     error
}

func (m *memoryStore) Upload(ctx context.Context, name string, data []byte, contentType string) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploads = append(m.uploads, upload{name: name, data: append([]byte(nil), data...), contentType: contentType})
	return nil
}

func (m *memoryStore) PublicURL(name string) string {
	return "https://blob.example.com/" + name
}

var artifactNamePattern = regexp.MustCompile(`^moodboards/[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}\.png$`)

func TestPublishInlineBytes(t *testing.T) {
	store := &memoryStore{}
	artifact, err := NewPublisher(store, PublisherOptions{}).Publish(context.Background(), image.Payload{Bytes: []byte("png"), Shape: image.ShapeInlineBase64})
	if err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	if len(store.uploads) != 1 {
		t.Fatalf("expected one upload, got %d", len(store.uploads))
	}
	up := store.uploads[0]
	if !artifactNamePattern.MatchString(up.name) {
		t.Fatalf("artifact name %q does not match pattern", up.name)
	}
	if up.contentType != "image/png" || string(up.data) != "png" {
		t.Fatalf("unexpected upload: %+v", up)
	}
	if artifact.URL != "https://blob.example.com/"+up.name || artifact.Size != 3 {
		t.Fatalf("unexpected artifact: %+v", artifact)
	}
}

func TestPublishDownloadsHostedURL(t *testing.T) {
	store := &memoryStore{}
	client := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		if r.URL.String() != "https://x/img.png" {
			t.Fatalf("unexpected download url %s", r.URL)
		}
		return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(bytes.NewReader([]byte("remote-png")))}, nil
	})}
	_, err := NewPublisher(store, PublisherOptions{HTTPClient: client}).Publish(context.Background(), image.Payload{URL: "https://x/img.png", Shape: image.ShapeHostedURL})
	if err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	if len(store.uploads) != 1 || string(store.uploads[0].data) != "remote-png" {
		t.Fatalf("unexpected uploads: %+v", store.uploads)
	}
}

func TestPublishRejectsOversizedDownload(t *testing.T) {
	store := &memoryStore{}
	client := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader(strings.Repeat("x", 64)))}, nil
	})}
	_, err := NewPublisher(store, PublisherOptions{HTTPClient: client, MaxDownloadSize: 16}).Publish(context.Background(), image.Payload{URL: "https://x/img.png"})
	if !errors.Is(err, domain.ErrProvider) {
		t.Fatalf("error = %v, want provider error", err)
	}
	if len(store.uploads) != 0 {
		t.Fatalf("nothing should be uploaded")
	}
}

func TestPublishUploadFailureIsStorageError(t *testing.T) {
	store := &memoryStore{err: errors.New("permission denied")}
	_, err := NewPublisher(store, PublisherOptions{}).Publish(context.Background(), image.Payload{Bytes: []byte("png")})
	if !errors.Is(err, domain.ErrStorage) {
		t.Fatalf("error = %v, want storage error", err)
	}
}

func TestPublishEmptyPayload(t *testing.T) {
	_, err := NewPublisher(&memoryStore{}, PublisherOptions{}).Publish(context.Background(), image.Payload{})
	if !errors.Is(err, image.ErrNoImagePayload) {
		t.Fatalf("error = %v, want ErrNoImagePayload", err)
	}
}

func TestPublishConcurrentNamesAreUnique(t *testing.T) {
	store := &memoryStore{}
	pub := NewPublisher(store, PublisherOptions{})
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := pub.Publish(context.Background(), image.Payload{Bytes: []byte("png")}); err != nil {
				t.Errorf("Publish returned error: %v", err)
			}
		}()
	}
	wg.Wait()
	seen := map[string]struct{}{}
	for _, up := range store.uploads {
		if _, dup := seen[up.name]; dup {
			t.Fatalf("duplicate artifact name %q", up.name)
		}
		seen[up.name] = struct{}{}
	}
	if len(seen) != 32 {
		t.Fatalf("expected 32 uploads, got %d", len(seen))
	}
}
