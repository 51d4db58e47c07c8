package domain

import "context"

// CatalogRepository reads and updates product_catalog rows.
type CatalogRepository interface {
	ListForNormalization(ctx context.Context, limit int) ([]Product, error)
	ImageURLsByIDs(ctx context.Context, ids []string) (map[string]string, error)
	UpdateClassification(ctx context.Context, id string, c Classification, colorVariant, primaryStyle string) error
	List(ctx context.Context, filter ProductFilter) ([]Product, error)
}

// LookRepository persists saved looks.
type LookRepository interface {
	Create(ctx context.Context, look *Look) error
	ListByUser(ctx context.Context, userID string, limit int) ([]Look, error)
}
