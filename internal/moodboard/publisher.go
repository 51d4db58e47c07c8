package moodboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"moodboard/internal/domain"
	"moodboard/internal/providers/image"
	"moodboard/internal/storage"
)

const (
	artifactPrefix      = "moodboards/"
	artifactContentType = "image/png"
	defaultMaxDownload  = 32 << 20
	defaultDownloadWait = 60 * time.Second
)

type PublisherOptions struct {
	HTTPClient      *http.Client
	MaxDownloadSize int64
	DownloadTimeout time.Duration
}

// Publisher writes canonical payloads to the blob store under unique names.
type Publisher struct {
	store       storage.BlobStore
	client      *http.Client
	maxDownload int64
	timeout     time.Duration
	now         func() time.Time
	newName     func() string
}

func NewPublisher(store storage.BlobStore, opts PublisherOptions) *Publisher {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	maxDownload := opts.MaxDownloadSize
	if maxDownload <= 0 {
		maxDownload = defaultMaxDownload
	}
	timeout := opts.DownloadTimeout
	if timeout <= 0 {
		timeout = defaultDownloadWait
	}
	return &Publisher{
		store:       store,
		client:      client,
		maxDownload: maxDownload,
		timeout:     timeout,
		now:         time.Now,
		newName: func() string {
			return artifactPrefix + uuid.NewString() + ".png"
		},
	}
}

// Publish stores the payload and returns the artifact with its public URL.
// URL payloads are downloaded first; a failed download is a provider error
// and a failed upload a storage error.
func (p *Publisher) Publish(ctx context.Context, payload image.Payload) (domain.Artifact, error) {
	data := payload.Bytes
	if len(data) == 0 {
		if payload.URL == "" {
			return domain.Artifact{}, domain.NewProviderError("image payload is empty", image.ErrNoImagePayload)
		}
		downloaded, err := p.download(ctx, payload.URL)
		if err != nil {
			return domain.Artifact{}, domain.NewProviderError("download generated image", err)
		}
		data = downloaded
	}

	name := p.newName()
	if err := p.store.Upload(ctx, name, data, artifactContentType); err != nil {
		return domain.Artifact{}, domain.NewStorageError("upload moodboard", err)
	}
	return domain.Artifact{
		Name:        name,
		ContentType: artifactContentType,
		Size:        int64(len(data)),
		URL:         p.store.PublicURL(name),
		CreatedAt:   p.now().UTC(),
	}, nil
}

func (p *Publisher) download(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, p.maxDownload+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > p.maxDownload {
		return nil, fmt.Errorf("image exceeds %d bytes", p.maxDownload)
	}
	if len(data) == 0 {
		return nil, errors.New("image body is empty")
	}
	return data, nil
}
