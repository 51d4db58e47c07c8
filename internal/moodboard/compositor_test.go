package moodboard

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"strings"
	"testing"

	"moodboard/internal/domain"
	"moodboard/internal/providers/image"
	"moodboard/internal/storage"
)

type stubGenerator struct {
	payload image.Payload
	err     error
	calls   []image.GenerateRequest
}

func (s *stubGenerator) Generate(ctx context.Context, req image.GenerateRequest) (image.Payload, error) {
	s.calls = append(s.calls, req)
	return s.payload, s.err
}

type stubPublisher struct {
	artifact domain.Artifact
	err      error
	calls    []image.Payload
}

func (s *stubPublisher) Publish(ctx context.Context, payload image.Payload) (domain.Artifact, error) {
	s.calls = append(s.calls, payload)
	return s.artifact, s.err
}

func request(ids ...string) domain.MoodboardRequest {
	req := domain.MoodboardRequest{RequestID: "req-1"}
	for _, id := range ids {
		req.Products = append(req.Products, domain.ProductRef{ID: id, Category: "top"})
	}
	return req
}

func TestComposeProceedsWithPartialResolution(t *testing.T) {
	lookup := &stubLookup{urls: map[string]string{"A": "https://cat/a.png"}}
	gen := &stubGenerator{payload: image.Payload{Bytes: []byte("png")}}
	pub := &stubPublisher{artifact: domain.Artifact{Name: "moodboards/x.png", URL: "https://blob/moodboards/x.png"}}
	c := NewCompositor(NewResolver(lookup), gen, pub, CompositorOptions{Size: "1024x1024", Quality: "high"})

	res, err := c.Compose(context.Background(), request("A", "B"))
	if err != nil {
		t.Fatalf("Compose returned error: %v", err)
	}
	if res.ImageURL != "https://blob/moodboards/x.png" {
		t.Fatalf("ImageURL = %q", res.ImageURL)
	}
	if len(gen.calls) != 1 {
		t.Fatalf("expected one generation call, got %d", len(gen.calls))
	}
	call := gen.calls[0]
	if call.Prompt != image.BuildMoodboardPrompt([]string{"https://cat/a.png"}) {
		t.Fatalf("unexpected prompt %q", call.Prompt)
	}
	if call.Count != 1 || call.Size != "1024x1024" || call.Quality != "high" || call.RequestID != "req-1" {
		t.Fatalf("unexpected generation params: %+v", call)
	}
	if len(call.References) != 1 || call.References[0].URL != "https://cat/a.png" {
		t.Fatalf("unexpected references: %+v", call.References)
	}
	want := []State{StateReceived, StateResolved, StatePrompted, StateGenerated, StatePublished, StateDone}
	if !reflect.DeepEqual(res.States, want) {
		t.Fatalf("States = %v, want %v", res.States, want)
	}
}

func TestComposeAllUnresolvedIsResolutionEmpty(t *testing.T) {
	gen := &stubGenerator{}
	c := NewCompositor(NewResolver(&stubLookup{}), gen, &stubPublisher{}, CompositorOptions{})

	_, err := c.Compose(context.Background(), request("X", "Y"))
	if !errors.Is(err, domain.ErrResolutionEmpty) {
		t.Fatalf("error = %v, want ResolutionEmpty", err)
	}
	if errors.Is(err, domain.ErrProvider) {
		t.Fatalf("must not be a provider error")
	}
	if domain.MessageOf(err) != MsgNoImages {
		t.Fatalf("message = %q", domain.MessageOf(err))
	}
	if len(gen.calls) != 0 {
		t.Fatalf("generator must not be called")
	}
}

func TestComposeEmptyRequestIsValidationError(t *testing.T) {
	lookup := &stubLookup{}
	c := NewCompositor(NewResolver(lookup), &stubGenerator{}, &stubPublisher{}, CompositorOptions{})
	for _, req := range []domain.MoodboardRequest{request(), request("", "  ")} {
		_, err := c.Compose(context.Background(), req)
		if !errors.Is(err, domain.ErrValidation) || domain.MessageOf(err) != MsgNoProducts {
			t.Fatalf("error = %v, want validation %q", err, MsgNoProducts)
		}
	}
	if len(lookup.calls) != 0 {
		t.Fatalf("resolver must not be called")
	}
}

func TestComposeDeduplicatesBeforeResolution(t *testing.T) {
	lookup := &stubLookup{urls: map[string]string{"A": "https://cat/a.png", "B": "https://cat/b.png"}}
	gen := &stubGenerator{payload: image.Payload{Bytes: []byte("png")}}
	c := NewCompositor(NewResolver(lookup), gen, &stubPublisher{}, CompositorOptions{})
	if _, err := c.Compose(context.Background(), request("B", "A", "B")); err != nil {
		t.Fatalf("Compose returned error: %v", err)
	}
	if !reflect.DeepEqual(lookup.calls[0], []string{"B", "A"}) {
		t.Fatalf("lookup ids = %v", lookup.calls[0])
	}
	if gen.calls[0].Prompt != image.BuildMoodboardPrompt([]string{"https://cat/b.png", "https://cat/a.png"}) {
		t.Fatalf("unexpected prompt %q", gen.calls[0].Prompt)
	}
}

func TestComposeFailureKinds(t *testing.T) {
	lookup := &stubLookup{urls: map[string]string{"A": "https://cat/a.png"}}

	gen := &stubGenerator{err: errors.New("socket hang up")}
	pub := &stubPublisher{}
	_, err := NewCompositor(NewResolver(lookup), gen, pub, CompositorOptions{}).Compose(context.Background(), request("A"))
	if !errors.Is(err, domain.ErrProvider) {
		t.Fatalf("generation failure = %v, want provider error", err)
	}
	if len(pub.calls) != 0 {
		t.Fatalf("publisher must not be called after a failed generation")
	}

	gen = &stubGenerator{payload: image.Payload{Bytes: []byte("png")}}
	pub = &stubPublisher{err: errors.New("bucket missing")}
	res, err := NewCompositor(NewResolver(lookup), gen, pub, CompositorOptions{}).Compose(context.Background(), request("A"))
	if !errors.Is(err, domain.ErrStorage) {
		t.Fatalf("publish failure = %v, want storage error", err)
	}
	if res.ImageURL != "" || len(res.States) != 0 {
		t.Fatalf("expected no partial result, got %+v", res)
	}

	failing := &stubLookup{err: errors.New("catalog down")}
	_, err = NewCompositor(NewResolver(failing), &stubGenerator{}, &stubPublisher{}, CompositorOptions{}).Compose(context.Background(), request("A"))
	if !errors.Is(err, domain.ErrStorage) {
		t.Fatalf("lookup failure = %v, want storage error", err)
	}
}

func TestComposeEndToEndWithFileStore(t *testing.T) {
	pngBytes := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 1, 2, 3, 4}
	encoded := base64.StdEncoding.EncodeToString(pngBytes)
	client := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		if !strings.HasSuffix(r.URL.Path, "/images/generations") {
			t.Fatalf("unexpected request %s", r.URL)
		}
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(`{"data":[{"b64_json":"` + encoded + `"}]}`)),
		}, nil
	})}
	gen, err := image.NewOpenAIGenerator(image.OpenAIOptions{APIKey: "sk-test", BaseURL: "https://images.example.com/v1", HTTPClient: client})
	if err != nil {
		t.Fatalf("NewOpenAIGenerator returned error: %v", err)
	}
	dir := t.TempDir()
	store, err := storage.NewFileStore(dir, "http://blob.local/static")
	if err != nil {
		t.Fatalf("NewFileStore returned error: %v", err)
	}
	lookup := &stubLookup{urls: map[string]string{"p1": "https://cat/p1.png"}}
	c := NewCompositor(NewResolver(lookup), gen, NewPublisher(store, PublisherOptions{}), CompositorOptions{})

	res, err := c.Compose(context.Background(), request("p1"))
	if err != nil {
		t.Fatalf("Compose returned error: %v", err)
	}
	pattern := `^http://blob\.local/static/moodboards/[0-9a-f-]{36}\.png$`
	if !regexp.MustCompile(pattern).MatchString(res.ImageURL) {
		t.Fatalf("ImageURL %q does not match %s", res.ImageURL, pattern)
	}
	stored, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(res.Artifact.Name)))
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	if !bytes.Equal(stored, pngBytes) {
		t.Fatalf("stored bytes mismatch")
	}
}
