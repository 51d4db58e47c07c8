package infra

import (
	"context"
	"errors"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/rs/zerolog"
)

func TestExtractMarker(t *testing.T) {
	marker, body, err := extractMarker("--sql 0d6f3c52-9a43-4a8e-9f0c-6a2f4d1e7b11\nselect 1;\n")
	if err != nil {
		t.Fatalf("extractMarker returned error: %v", err)
	}
	if marker != "0d6f3c52-9a43-4a8e-9f0c-6a2f4d1e7b11" {
		t.Fatalf("marker = %q", marker)
	}
	if body != "select 1;" {
		t.Fatalf("body = %q", body)
	}
}

func TestExtractMarkerRejectsUnmarkedSQL(t *testing.T) {
	for _, query := range []string{"", "select 1", "--sql not-a-uuid\nselect 1"} {
		if _, _, err := extractMarker(query); err == nil {
			t.Fatalf("expected error for %q", query)
		}
	}
}

func TestSQLRunnerStripsMarkerBeforeExec(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	mock.ExpectExec("^update product_catalog set primary_color").
		WithArgs("blue", "p1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	runner := NewSQLRunner(mock, zerolog.Nop())
	tag, err := runner.Exec(context.Background(), "--sql 0d6f3c52-9a43-4a8e-9f0c-6a2f4d1e7b11\nupdate product_catalog set primary_color = $1 where id = $2", "blue", "p1")
	if err != nil {
		t.Fatalf("Exec returned error: %v", err)
	}
	if tag.RowsAffected() != 1 {
		t.Fatalf("rows affected = %d, want 1", tag.RowsAffected())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSQLRunnerRejectsMissingMarker(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	runner := NewSQLRunner(mock, zerolog.Nop())
	if _, err := runner.Exec(context.Background(), "delete from product_catalog"); !errors.Is(err, ErrMissingMarker) {
		t.Fatalf("Exec error = %v, want ErrMissingMarker", err)
	}
	if err := runner.QueryRow(context.Background(), "select 1").Scan(); !errors.Is(err, ErrMissingMarker) {
		t.Fatalf("QueryRow error = %v, want ErrMissingMarker", err)
	}
}
