package image

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"moodboard/internal/domain"
)

const (
	ModeGenerate = "generate"
	ModeEdit     = "edit"

	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-image-1"
	defaultSize    = "1024x1024"
	defaultQuality = "high"
	defaultTimeout = 120 * time.Second

	maxResponseBytes  = 64 << 20
	maxReferenceBytes = 20 << 20
	maxErrorDetail    = 512
)

type OpenAIOptions struct {
	APIKey       string
	BaseURL      string
	Organization string
	Model        string
	Size         string
	Quality      string
	// Mode selects /images/generations (ModeGenerate) or /images/edits (ModeEdit).
	Mode       string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// OpenAIGenerator calls an OpenAI-compatible images endpoint.
type OpenAIGenerator struct {
	apiKey       string
	baseURL      string
	organization string
	model        string
	size         string
	quality      string
	mode         string
	timeout      time.Duration
	client       *http.Client
}

type generationRequest struct {
	Model   string `json:"model"`
	Prompt  string `json:"prompt"`
	Size    string `json:"size,omitempty"`
	Quality string `json:"quality,omitempty"`
	N       int    `json:"n"`
}

func NewOpenAIGenerator(opts OpenAIOptions) (*OpenAIGenerator, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("image: api key is required")
	}
	mode := strings.ToLower(strings.TrimSpace(opts.Mode))
	switch mode {
	case "":
		mode = ModeGenerate
	case ModeGenerate, ModeEdit:
	default:
		return nil, fmt.Errorf("image: unsupported mode %q", opts.Mode)
	}
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	return &OpenAIGenerator{
		apiKey:       strings.TrimSpace(opts.APIKey),
		baseURL:      baseURL,
		organization: strings.TrimSpace(opts.Organization),
		model:        firstNonEmpty(opts.Model, defaultModel),
		size:         firstNonEmpty(opts.Size, defaultSize),
		quality:      firstNonEmpty(opts.Quality, defaultQuality),
		mode:         mode,
		timeout:      timeout,
		client:       client,
	}, nil
}

// Generate runs one generation job. All failures are domain provider errors
// wrapping ErrProviderCall, ErrNoDataField or ErrNoImagePayload.
func (g *OpenAIGenerator) Generate(ctx context.Context, req GenerateRequest) (Payload, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return Payload{}, domain.NewProviderError("image generation failed", fmt.Errorf("%w: prompt is empty", ErrProviderCall))
	}
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	var (
		body []byte
		err  error
	)
	if g.mode == ModeEdit {
		body, err = g.edit(ctx, req)
	} else {
		body, err = g.generate(ctx, req)
	}
	if err != nil {
		return Payload{}, domain.NewProviderError("image generation failed", err)
	}
	payload, err := ParseResponse(body)
	if err != nil {
		return Payload{}, domain.NewProviderError("image provider returned no image", err)
	}
	return payload, nil
}

func (g *OpenAIGenerator) params(req GenerateRequest) generationRequest {
	n := req.Count
	if n <= 0 {
		n = 1
	}
	return generationRequest{
		Model:   g.model,
		Prompt:  strings.TrimSpace(req.Prompt),
		Size:    firstNonEmpty(req.Size, g.size),
		Quality: firstNonEmpty(req.Quality, g.quality),
		N:       n,
	}
}

func (g *OpenAIGenerator) generate(ctx context.Context, req GenerateRequest) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(g.params(req)); err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", ErrProviderCall, err)
	}
	return g.post(ctx, "/images/generations", "application/json", &buf, req.RequestID)
}

func (g *OpenAIGenerator) edit(ctx context.Context, req GenerateRequest) ([]byte, error) {
	if len(req.References) == 0 {
		return nil, fmt.Errorf("%w: edit mode needs at least one reference image", ErrProviderCall)
	}
	params := g.params(req)
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	_ = writer.WriteField("model", params.Model)
	_ = writer.WriteField("prompt", params.Prompt)
	_ = writer.WriteField("size", params.Size)
	_ = writer.WriteField("quality", params.Quality)
	_ = writer.WriteField("n", strconv.Itoa(params.N))
	for i, ref := range req.References {
		data, mime, err := g.referenceBytes(ctx, ref)
		if err != nil {
			return nil, fmt.Errorf("%w: reference %d: %v", ErrProviderCall, i, err)
		}
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image[]"; filename="reference-%d%s"`, i, extensionFor(mime)))
		header.Set("Content-Type", mime)
		part, err := writer.CreatePart(header)
		if err != nil {
			return nil, fmt.Errorf("%w: build multipart: %v", ErrProviderCall, err)
		}
		if _, err := part.Write(data); err != nil {
			return nil, fmt.Errorf("%w: build multipart: %v", ErrProviderCall, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("%w: build multipart: %v", ErrProviderCall, err)
	}
	return g.post(ctx, "/images/edits", writer.FormDataContentType(), &buf, req.RequestID)
}

func (g *OpenAIGenerator) referenceBytes(ctx context.Context, ref ReferenceImage) ([]byte, string, error) {
	if len(ref.Data) > 0 {
		return ref.Data, normalizeMIME(firstNonEmpty(ref.MIMEType, http.DetectContentType(ref.Data))), nil
	}
	if strings.TrimSpace(ref.URL) == "" {
		return nil, "", errors.New("reference has neither data nor url")
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimSpace(ref.URL), nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, "", err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("fetch %s: status %d", ref.URL, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxReferenceBytes+1))
	if err != nil {
		return nil, "", err
	}
	if len(data) > maxReferenceBytes {
		return nil, "", fmt.Errorf("fetch %s: reference exceeds %d bytes", ref.URL, maxReferenceBytes)
	}
	mime := firstNonEmpty(ref.MIMEType, resp.Header.Get("Content-Type"), http.DetectContentType(data))
	return data, normalizeMIME(mime), nil
}

func (g *OpenAIGenerator) post(ctx context.Context, path, contentType string, body io.Reader, requestID string) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrProviderCall, err)
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)
	if g.organization != "" {
		httpReq.Header.Set("OpenAI-Organization", g.organization)
	}
	if requestID != "" {
		httpReq.Header.Set("X-Request-ID", requestID)
	}
	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderCall, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrProviderCall, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail := strings.TrimSpace(string(raw))
		if len(detail) > maxErrorDetail {
			detail = detail[:maxErrorDetail]
		}
		return nil, fmt.Errorf("%w: status %d: %s", ErrProviderCall, resp.StatusCode, detail)
	}
	return raw, nil
}

func extensionFor(mime string) string {
	switch mime {
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}

var _ Generator = (*OpenAIGenerator)(nil)
