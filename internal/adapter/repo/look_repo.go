package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"moodboard/internal/domain"
	"moodboard/internal/infra"
	"moodboard/internal/sqlinline"
)

// LookRepositoryPG implements domain.LookRepository on saved_looks.
type LookRepositoryPG struct {
	sql infra.SQLExecutor
}

func NewLookRepository(sql infra.SQLExecutor) *LookRepositoryPG {
	return &LookRepositoryPG{sql: sql}
}

// Create assigns an ID when missing and stores the look.
func (r *LookRepositoryPG) Create(ctx context.Context, look *domain.Look) error {
	if look.ID == "" {
		look.ID = uuid.NewString()
	}
	if err := r.sql.QueryRow(ctx, sqlinline.QInsertSavedLook, look.ID, look.UserID, look.MediaURL).Scan(&look.CreatedAt); err != nil {
		return fmt.Errorf("looks: insert: %w", err)
	}
	return nil
}

// ListByUser returns the user's looks, newest first.
func (r *LookRepositoryPG) ListByUser(ctx context.Context, userID string, limit int) ([]domain.Look, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.sql.Query(ctx, sqlinline.QListSavedLooksByUser, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("looks: list: %w", err)
	}
	defer rows.Close()

	looks := []domain.Look{}
	for rows.Next() {
		var l domain.Look
		if err := rows.Scan(&l.ID, &l.UserID, &l.MediaURL, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("looks: scan: %w", err)
		}
		looks = append(looks, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("looks: list: %w", err)
	}
	return looks, nil
}

var _ domain.LookRepository = (*LookRepositoryPG)(nil)
