package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"moodboard/internal/domain"
)

const (
	defaultBaseURL     = "https://api.openai.com/v1"
	defaultModel       = "gpt-4o-mini"
	defaultTimeout     = 30 * time.Second
	defaultTemperature = 0.2
	maxErrorBody       = 2048
)

// Input is the free-text description of one detected item.
type Input struct {
	Type  string
	Color string
	Style string
}

type Options struct {
	APIKey       string
	Model        string
	BaseURL      string
	Organization string
	Timeout      time.Duration
	// JSONMode asks the endpoint for a json_object response. Replies are still
	// parsed tolerantly since compatible servers may ignore the flag.
	JSONMode   bool
	HTTPClient *http.Client
}

// Client classifies catalog items through an OpenAI-compatible chat endpoint.
type Client struct {
	apiKey       string
	model        string
	baseURL      string
	organization string
	timeout      time.Duration
	jsonMode     bool
	client       *http.Client
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type classificationPayload struct {
	PrimaryCategory *string `json:"primary_category"`
	SubCategory     *string `json:"sub_category"`
	PrimaryColor    *string `json:"primary_color"`
}

func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("classifier: api key is required")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultModel
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	return &Client{
		apiKey:       strings.TrimSpace(opts.APIKey),
		model:        model,
		baseURL:      baseURL,
		organization: strings.TrimSpace(opts.Organization),
		timeout:      timeout,
		jsonMode:     opts.JSONMode,
		client:       client,
	}, nil
}

// Classify performs one classification call. Transport and status failures are
// provider errors; replies that are not a valid classification are parse errors.
func (c *Client) Classify(ctx context.Context, in Input) (domain.Classification, error) {
	content, err := c.complete(ctx, in)
	if err != nil {
		return domain.Classification{}, domain.NewProviderError("classifier call failed", err)
	}
	return parseClassification(content)
}

func (c *Client) complete(ctx context.Context, in Input) (string, error) {
	payload := chatRequest{
		Model:       c.model,
		Temperature: defaultTemperature,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt()},
			{Role: "user", Content: userPrompt(in)},
		},
	}
	if c.jsonMode {
		payload.ResponseFormat = &responseFormat{Type: "json_object"}
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return "", fmt.Errorf("classifier: encode request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", &buf)
	if err != nil {
		return "", fmt.Errorf("classifier: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	if c.organization != "" {
		httpReq.Header.Set("OpenAI-Organization", c.organization)
	}
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("classifier: http request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", fmt.Errorf("classifier: status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("classifier: decode response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", errors.New("classifier: no choices")
	}
	return out.Choices[0].Message.Content, nil
}

func parseClassification(content string) (domain.Classification, error) {
	if strings.TrimSpace(content) == "" {
		return domain.Classification{}, domain.NewParseError("classifier reply is empty", errEmptyPayload)
	}
	parsed, err := parseModelPayload[classificationPayload](content)
	if err != nil {
		return domain.Classification{}, domain.NewParseError("classifier reply is not JSON", err)
	}
	if parsed.PrimaryCategory == nil || parsed.SubCategory == nil || parsed.PrimaryColor == nil {
		return domain.Classification{}, domain.NewParseError("classifier reply is missing keys", errors.New("primary_category, sub_category and primary_color are required"))
	}
	result, err := domain.NewClassification(*parsed.PrimaryCategory, *parsed.SubCategory, *parsed.PrimaryColor)
	if err != nil {
		return domain.Classification{}, domain.NewParseError("classifier reply failed validation", err)
	}
	return result, nil
}

func systemPrompt() string {
	cats := make([]string, 0, len(domain.Categories()))
	for _, c := range domain.Categories() {
		cats = append(cats, string(c))
	}
	colors := make([]string, 0, len(domain.Palette()))
	for _, c := range domain.Palette() {
		colors = append(colors, string(c))
	}
	sb := &strings.Builder{}
	sb.WriteString("You are a fashion AI assistant. Given a product's type, color, and style, return the following standardized fields:\n")
	fmt.Fprintf(sb, "- primary_category (one of: %s)\n", strings.Join(cats, ", "))
	sb.WriteString("- sub_category (examples: Jeans, Boots, Backpacks, Hats, etc.)\n")
	fmt.Fprintf(sb, "- primary_color (normalize into %s)\n", strings.Join(colors, ", "))
	sb.WriteString(`Only respond with a compact JSON object like: {"primary_category":"Clothing","sub_category":"Jeans","primary_color":"blue"}`)
	return sb.String()
}

func userPrompt(in Input) string {
	return fmt.Sprintf("Item type: %s\nColor: %s\nStyle: %s", cleanText(in.Type), cleanText(in.Color), cleanText(in.Style))
}
