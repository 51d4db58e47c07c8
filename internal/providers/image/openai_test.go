package image

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"moodboard/internal/domain"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func newGenerator(t *testing.T, opts OpenAIOptions, fn roundTripFunc) *OpenAIGenerator {
	t.Helper()
	if opts.APIKey == "" {
		opts.APIKey = "sk-test"
	}
	opts.BaseURL = "https://images.example.com/v1"
	opts.HTTPClient = &http.Client{Transport: fn}
	g, err := NewOpenAIGenerator(opts)
	if err != nil {
		t.Fatalf("NewOpenAIGenerator returned error: %v", err)
	}
	return g
}

func TestGenerateSendsFixedParameters(t *testing.T) {
	var captured generationRequest
	g := newGenerator(t, OpenAIOptions{}, func(r *http.Request) (*http.Response, error) {
		if r.URL.String() != "https://images.example.com/v1/images/generations" {
			t.Fatalf("unexpected url %s", r.URL)
		}
		if got := r.Header.Get("X-Request-ID"); got != "req-1" {
			t.Fatalf("X-Request-ID = %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		return jsonResponse(http.StatusOK, `{"data":[{"url":"https://x/img.png"}]}`), nil
	})

	payload, err := g.Generate(context.Background(), GenerateRequest{Prompt: "moodboard", RequestID: "req-1"})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if payload.URL != "https://x/img.png" || payload.Shape != ShapeHostedURL {
		t.Fatalf("unexpected payload: %+v", payload)
	}
	want := generationRequest{Model: "gpt-image-1", Prompt: "moodboard", Size: "1024x1024", Quality: "high", N: 1}
	if captured != want {
		t.Fatalf("request = %+v, want %+v", captured, want)
	}
}

func TestGenerateDecodesInlineBase64(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString(pngHeader)
	g := newGenerator(t, OpenAIOptions{}, func(r *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"data":[{"b64_json":"`+encoded+`"}]}`), nil
	})
	payload, err := g.Generate(context.Background(), GenerateRequest{Prompt: "moodboard"})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if !bytes.Equal(payload.Bytes, pngHeader) {
		t.Fatalf("unexpected bytes: %v", payload.Bytes)
	}
}

func TestGenerateFailureKinds(t *testing.T) {
	cases := []struct {
		name string
		fn   roundTripFunc
		want error
	}{
		{name: "network", fn: func(*http.Request) (*http.Response, error) { return nil, errors.New("connection reset") }, want: ErrProviderCall},
		{name: "unauthorized", fn: func(*http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusUnauthorized, `{"error":{"message":"bad key"}}`), nil
		}, want: ErrProviderCall},
		{name: "rate_limited", fn: func(*http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusTooManyRequests, `{}`), nil
		}, want: ErrProviderCall},
		{name: "no_data", fn: func(*http.Request) (*http.Response, error) { return jsonResponse(http.StatusOK, `{"created":1}`), nil }, want: ErrNoDataField},
		{name: "empty_data", fn: func(*http.Request) (*http.Response, error) { return jsonResponse(http.StatusOK, `{"data":[]}`), nil }, want: ErrNoImagePayload},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := newGenerator(t, OpenAIOptions{}, tc.fn)
			_, err := g.Generate(context.Background(), GenerateRequest{Prompt: "moodboard"})
			if !errors.Is(err, tc.want) {
				t.Fatalf("error = %v, want %v", err, tc.want)
			}
			if !errors.Is(err, domain.ErrProvider) {
				t.Fatalf("expected provider error kind, got %v", err)
			}
		})
	}
}

func TestGenerateHonoursTimeout(t *testing.T) {
	g := newGenerator(t, OpenAIOptions{Timeout: 20 * time.Millisecond}, func(r *http.Request) (*http.Response, error) {
		<-r.Context().Done()
		return nil, r.Context().Err()
	})
	start := time.Now()
	_, err := g.Generate(context.Background(), GenerateRequest{Prompt: "moodboard"})
	if !errors.Is(err, ErrProviderCall) {
		t.Fatalf("error = %v, want ErrProviderCall", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Fatalf("timeout not applied")
	}
}

func TestGenerateAbortsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	g := newGenerator(t, OpenAIOptions{}, func(r *http.Request) (*http.Response, error) {
		if r.Context().Err() == nil {
			t.Fatalf("expected cancelled request context")
		}
		return nil, r.Context().Err()
	})
	if _, err := g.Generate(ctx, GenerateRequest{Prompt: "moodboard"}); !errors.Is(err, ErrProviderCall) {
		t.Fatalf("error = %v, want ErrProviderCall", err)
	}
}

func TestEditModeUploadsReferences(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString(pngHeader)
	var parts []string
	g := newGenerator(t, OpenAIOptions{Mode: ModeEdit}, func(r *http.Request) (*http.Response, error) {
		switch r.URL.String() {
		case "https://cat/p1.png":
			return &http.Response{StatusCode: http.StatusOK, Header: http.Header{"Content-Type": []string{"image/png"}}, Body: io.NopCloser(bytes.NewReader(pngHeader))}, nil
		case "https://images.example.com/v1/images/edits":
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				t.Fatalf("ParseMultipartForm: %v", err)
			}
			if r.FormValue("model") != "gpt-image-1" || r.FormValue("n") != "1" {
				t.Fatalf("unexpected form fields: %v", r.MultipartForm.Value)
			}
			for _, fh := range r.MultipartForm.File["image[]"] {
				parts = append(parts, fh.Filename)
			}
			return jsonResponse(http.StatusOK, `{"data":[{"edits":[{"b64_json":"`+encoded+`"}]}]}`), nil
		}
		t.Fatalf("unexpected url %s", r.URL)
		return nil, nil
	})

	payload, err := g.Generate(context.Background(), GenerateRequest{
		Prompt:     "moodboard",
		References: []ReferenceImage{{URL: "https://cat/p1.png"}, {Data: pngHeader}},
	})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if payload.Shape != ShapeEditArray || !bytes.Equal(payload.Bytes, pngHeader) {
		t.Fatalf("unexpected payload: %+v", payload)
	}
	if len(parts) != 2 || parts[0] != "reference-0.png" {
		t.Fatalf("unexpected image parts: %v", parts)
	}
}

func TestEditModeRequiresReferences(t *testing.T) {
	g := newGenerator(t, OpenAIOptions{Mode: ModeEdit}, func(*http.Request) (*http.Response, error) {
		t.Fatalf("no request expected")
		return nil, nil
	})
	if _, err := g.Generate(context.Background(), GenerateRequest{Prompt: "moodboard"}); !errors.Is(err, ErrProviderCall) {
		t.Fatalf("error = %v, want ErrProviderCall", err)
	}
}

func TestNewOpenAIGeneratorRejectsUnknownMode(t *testing.T) {
	if _, err := NewOpenAIGenerator(OpenAIOptions{APIKey: "k", Mode: "variation"}); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}
