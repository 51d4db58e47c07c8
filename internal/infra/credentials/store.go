package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"moodboard/internal/infra"
	"moodboard/internal/sqlinline"
)

// ProviderOpenAI is the integration_tokens row holding the key shared by the
// classifier and the image generator.
const ProviderOpenAI = "openai"

var (
	// ErrEmptyToken is returned when an empty credential is stored.
	ErrEmptyToken = errors.New("credentials: token is required")
	// ErrNoAPIKey means neither the environment nor integration_tokens holds a key.
	ErrNoAPIKey = errors.New("credentials: no openai api key configured")
)

// Store reads and writes provider credentials kept in integration_tokens.
type Store struct {
	sql infra.SQLExecutor
}

func NewStore(sql infra.SQLExecutor) *Store {
	return &Store{sql: sql}
}

// OpenAIAPIKey returns the stored key, or "" when none has been saved yet.
func (s *Store) OpenAIAPIKey(ctx context.Context) (string, error) {
	return s.Token(ctx, ProviderOpenAI)
}

// ResolveOpenAIKey returns configured when set, otherwise the stored key.
func (s *Store) ResolveOpenAIKey(ctx context.Context, configured string) (string, error) {
	if key := strings.TrimSpace(configured); key != "" {
		return key, nil
	}
	key, err := s.OpenAIAPIKey(ctx)
	if err != nil {
		return "", fmt.Errorf("credentials: load openai key: %w", err)
	}
	if key == "" {
		return "", ErrNoAPIKey
	}
	return key, nil
}

func (s *Store) SetOpenAIAPIKey(ctx context.Context, key string, props map[string]any) error {
	return s.SetToken(ctx, ProviderOpenAI, key, props)
}

func (s *Store) Token(ctx context.Context, provider string) (string, error) {
	var token string
	if err := s.sql.QueryRow(ctx, sqlinline.QSelectIntegrationToken, provider).Scan(&token); err != nil {
		if infra.IsNoRows(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(token), nil
}

func (s *Store) SetToken(ctx context.Context, provider, token string, props map[string]any) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrEmptyToken
	}
	if props == nil {
		props = map[string]any{}
	}
	raw, err := json.Marshal(props)
	if err != nil {
		return err
	}
	_, err = s.sql.Exec(ctx, sqlinline.QUpsertIntegrationToken, strings.ToLower(provider), token, raw)
	return err
}
