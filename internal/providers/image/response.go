package image

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

type envelope struct {
	Data       json.RawMessage `json:"data"`
	Edits      json.RawMessage `json:"edits"`
	Candidates json.RawMessage `json:"candidates"`
}

type dataItem struct {
	URL     string     `json:"url"`
	B64JSON string     `json:"b64_json"`
	Edits   []editItem `json:"edits"`
}

type editItem struct {
	B64JSON string `json:"b64_json"`
	Image   string `json:"image"`
}

type candidate struct {
	Content struct {
		Parts []struct {
			InlineData *struct {
				MimeType string `json:"mimeType"`
				Data     string `json:"data"`
			} `json:"inlineData"`
			FileData *struct {
				MimeType string `json:"mimeType"`
				FileURI  string `json:"fileUri"`
			} `json:"fileData"`
		} `json:"parts"`
	} `json:"content"`
}

// ParseResponse normalizes a provider reply body into a Payload. Every failure
// wraps ErrNoDataField or ErrNoImagePayload.
func ParseResponse(raw []byte) (Payload, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Payload{}, fmt.Errorf("%w: undecodable body: %v", ErrNoDataField, err)
	}
	switch {
	case present(env.Data):
		return parseDataArray(env.Data)
	case present(env.Edits):
		var edits []editItem
		if err := json.Unmarshal(env.Edits, &edits); err != nil {
			return Payload{}, fmt.Errorf("%w: edits: %v", ErrNoImagePayload, err)
		}
		return parseEdits(edits)
	case present(env.Candidates):
		return parseCandidates(env.Candidates)
	default:
		return Payload{}, ErrNoDataField
	}
}

func present(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

func parseDataArray(raw json.RawMessage) (Payload, error) {
	var items []dataItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return Payload{}, fmt.Errorf("%w: data: %v", ErrNoImagePayload, err)
	}
	if len(items) == 0 {
		return Payload{}, fmt.Errorf("%w: data array is empty", ErrNoImagePayload)
	}
	for _, item := range items {
		switch {
		case len(item.Edits) > 0:
			return parseEdits(item.Edits)
		case strings.TrimSpace(item.B64JSON) != "":
			return inlinePayload(item.B64JSON, "", ShapeInlineBase64)
		case strings.TrimSpace(item.URL) != "":
			return Payload{URL: strings.TrimSpace(item.URL), Shape: ShapeHostedURL}, nil
		}
	}
	return Payload{}, fmt.Errorf("%w: no url, b64_json or edits in data", ErrNoImagePayload)
}

func parseEdits(edits []editItem) (Payload, error) {
	for _, e := range edits {
		if encoded := firstNonEmpty(e.B64JSON, e.Image); encoded != "" {
			return inlinePayload(encoded, "", ShapeEditArray)
		}
	}
	return Payload{}, fmt.Errorf("%w: edits array has no image", ErrNoImagePayload)
}

func parseCandidates(raw json.RawMessage) (Payload, error) {
	var candidates []candidate
	if err := json.Unmarshal(raw, &candidates); err != nil {
		return Payload{}, fmt.Errorf("%w: candidates: %v", ErrNoImagePayload, err)
	}
	for _, c := range candidates {
		for _, part := range c.Content.Parts {
			if part.InlineData != nil && strings.TrimSpace(part.InlineData.Data) != "" {
				return inlinePayload(part.InlineData.Data, part.InlineData.MimeType, ShapeInlineParts)
			}
			if part.FileData != nil && strings.TrimSpace(part.FileData.FileURI) != "" {
				return Payload{URL: strings.TrimSpace(part.FileData.FileURI), MIMEType: part.FileData.MimeType, Shape: ShapeInlineParts}, nil
			}
		}
	}
	return Payload{}, fmt.Errorf("%w: candidates have no image part", ErrNoImagePayload)
}

func inlinePayload(encoded, mime string, shape ResponseShape) (Payload, error) {
	data, err := decodeBase64(encoded)
	if err != nil {
		return Payload{}, fmt.Errorf("%w: %s: %v", ErrNoImagePayload, shape, err)
	}
	if len(data) == 0 {
		return Payload{}, fmt.Errorf("%w: %s: empty image", ErrNoImagePayload, shape)
	}
	if strings.TrimSpace(mime) == "" {
		mime = http.DetectContentType(data)
	}
	return Payload{Bytes: data, MIMEType: normalizeMIME(mime), Shape: shape}, nil
}

// decodeBase64 accepts padded or unpadded standard encoding and data: URLs.
func decodeBase64(encoded string) ([]byte, error) {
	encoded = strings.TrimSpace(encoded)
	if strings.HasPrefix(encoded, "data:") {
		if idx := strings.Index(encoded, ","); idx >= 0 {
			encoded = encoded[idx+1:]
		}
	}
	if data, err := base64.StdEncoding.DecodeString(encoded); err == nil {
		return data, nil
	}
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(encoded, "="))
}

func normalizeMIME(mime string) string {
	mime = strings.ToLower(strings.TrimSpace(strings.Split(mime, ";")[0]))
	switch mime {
	case "image/jpg":
		return "image/jpeg"
	case "":
		return "image/png"
	default:
		if strings.HasPrefix(mime, "image/") {
			return mime
		}
		return "image/png"
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
