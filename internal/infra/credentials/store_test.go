package credentials

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type stubExecutor struct {
	token string
	err   error
	exec  struct {
		query string
		args  []any
	}
	queryArgs []any
}

func (s *stubExecutor) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	s.exec.query = query
	s.exec.args = args
	return pgconn.CommandTag{}, s.err
}

func (s *stubExecutor) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	s.queryArgs = args
	return stubRow{token: s.token, err: s.err}
}

func (s *stubExecutor) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

type stubRow struct {
	token string
	err   error
}

func (r stubRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	ptr, ok := dest[0].(*string)
	if !ok {
		return errors.New("invalid dest")
	}
	*ptr = r.token
	return nil
}

func TestOpenAIAPIKeyTrimsStoredValue(t *testing.T) {
	exec := &stubExecutor{token: " sk-test "}
	key, err := NewStore(exec).OpenAIAPIKey(context.Background())
	if err != nil {
		t.Fatalf("OpenAIAPIKey error: %v", err)
	}
	if key != "sk-test" {
		t.Fatalf("expected sk-test, got %q", key)
	}
	if len(exec.queryArgs) != 1 || exec.queryArgs[0] != ProviderOpenAI {
		t.Fatalf("unexpected query args: %#v", exec.queryArgs)
	}
}

func TestOpenAIAPIKeyNoRows(t *testing.T) {
	key, err := NewStore(&stubExecutor{err: pgx.ErrNoRows}).OpenAIAPIKey(context.Background())
	if err != nil {
		t.Fatalf("OpenAIAPIKey error: %v", err)
	}
	if key != "" {
		t.Fatalf("expected empty key, got %q", key)
	}
}

func TestOpenAIAPIKeyPropagatesErrors(t *testing.T) {
	boom := errors.New("connection reset")
	if _, err := NewStore(&stubExecutor{err: boom}).OpenAIAPIKey(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected connection error, got %v", err)
	}
}

func TestSetOpenAIAPIKey(t *testing.T) {
	exec := &stubExecutor{}
	store := NewStore(exec)
	if err := store.SetOpenAIAPIKey(context.Background(), " secret ", map[string]any{"note": "rotated"}); err != nil {
		t.Fatalf("SetOpenAIAPIKey error: %v", err)
	}
	if len(exec.exec.args) != 3 {
		t.Fatalf("expected 3 args, got %d", len(exec.exec.args))
	}
	if v, ok := exec.exec.args[1].(string); !ok || v != "secret" {
		t.Fatalf("expected secret argument, got %T %v", exec.exec.args[1], exec.exec.args[1])
	}
	raw, ok := exec.exec.args[2].([]byte)
	if !ok || !strings.Contains(string(raw), `"note":"rotated"`) {
		t.Fatalf("unexpected properties argument: %T %v", exec.exec.args[2], exec.exec.args[2])
	}
}

func TestSetTokenRejectsEmpty(t *testing.T) {
	if err := NewStore(&stubExecutor{}).SetToken(context.Background(), ProviderOpenAI, "  ", nil); !errors.Is(err, ErrEmptyToken) {
		t.Fatalf("expected ErrEmptyToken, got %v", err)
	}
}

func TestResolveOpenAIKey(t *testing.T) {
	tests := []struct {
		name       string
		configured string
		stored     string
		storeErr   error
		want       string
		wantErr    error
	}{
		{name: "configured wins", configured: " sk-env ", stored: "sk-db", want: "sk-env"},
		{name: "falls back to store", stored: "sk-db", want: "sk-db"},
		{name: "nothing anywhere", wantErr: ErrNoAPIKey},
		{name: "no rows", storeErr: pgx.ErrNoRows, wantErr: ErrNoAPIKey},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			exec := &stubExecutor{token: tc.stored, err: tc.storeErr}
			got, err := NewStore(exec).ResolveOpenAIKey(context.Background(), tc.configured)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("error = %v, want %v", err, tc.wantErr)
			}
			if got != tc.want {
				t.Fatalf("key = %q, want %q", got, tc.want)
			}
		})
	}
}
