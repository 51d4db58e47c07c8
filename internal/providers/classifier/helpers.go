package classifier

import (
	"encoding/json"
	"errors"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var errEmptyPayload = errors.New("empty payload")

// cleanText applies NFKC, drops control characters and collapses whitespace.
func cleanText(s string) string {
	s = norm.NFKC.String(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && !unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

func parseModelPayload[T any](raw string) (T, error) {
	var zero T
	cleaned := extractJSONFragment(raw)
	if cleaned == "" {
		return zero, errEmptyPayload
	}
	dec := json.NewDecoder(strings.NewReader(cleaned))
	var decoded T
	if err := dec.Decode(&decoded); err != nil {
		return zero, err
	}
	if dec.More() {
		return zero, errors.New("trailing data after JSON object")
	}
	return decoded, nil
}

// extractJSONFragment strips code fences and surrounding prose from a model reply.
func extractJSONFragment(raw string) string {
	text := trimCodeFence(strings.TrimSpace(raw))
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return ""
	}
	return strings.TrimSpace(text[start : end+1])
}

func trimCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	idx := strings.Index(trimmed, "```")
	if idx < 0 {
		return trimmed
	}
	trimmed = trimmed[idx+3:]
	if nl := strings.IndexByte(trimmed, '\n'); nl >= 0 && !strings.ContainsAny(trimmed[:nl], "{}") {
		trimmed = trimmed[nl+1:]
	}
	if end := strings.Index(trimmed, "```"); end >= 0 {
		trimmed = trimmed[:end]
	}
	return strings.TrimSpace(trimmed)
}
