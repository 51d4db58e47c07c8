package image

import (
	"context"
	"errors"
)

// ResponseShape names the provider reply layout a payload was parsed from.
type ResponseShape string

const (
	// ShapeHostedURL is {"data":[{"url":"https://..."}]}.
	ShapeHostedURL ResponseShape = "hosted_url"
	// ShapeInlineBase64 is {"data":[{"b64_json":"..."}]}.
	ShapeInlineBase64 ResponseShape = "inline_base64"
	// ShapeEditArray is {"data":[{"edits":[{"b64_json":"..."}]}]} or a top-level "edits" array.
	ShapeEditArray ResponseShape = "edit_array"
	// ShapeInlineParts is the candidates/content/parts layout with inlineData or fileData.
	ShapeInlineParts ResponseShape = "inline_parts"
)

var (
	// ErrNoDataField means the reply had none of data, edits or candidates.
	ErrNoDataField = errors.New("image: provider response has no data field")
	// ErrNoImagePayload means the reply had a data field but no usable image in it.
	ErrNoImagePayload = errors.New("image: provider response has no image payload")
	// ErrProviderCall covers transport failures and non-2xx replies.
	ErrProviderCall = errors.New("image: provider call failed")
)

// ReferenceImage is an input image attached to edit requests. Data is fetched
// from URL when empty.
type ReferenceImage struct {
	URL      string
	Data     []byte
	MIMEType string
}

// GenerateRequest describes one generation job. Zero values take the generator defaults.
type GenerateRequest struct {
	Prompt     string
	Size       string
	Quality    string
	Count      int
	RequestID  string
	References []ReferenceImage
}

// Payload is the canonical image result. Exactly one of Bytes or URL is set.
type Payload struct {
	Bytes    []byte
	URL      string
	MIMEType string
	Shape    ResponseShape
}

// HasBytes reports whether the payload carries inline image bytes.
func (p Payload) HasBytes() bool { return len(p.Bytes) > 0 }

// Generator is the contract implemented by image providers.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (Payload, error)
}
