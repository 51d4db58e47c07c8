package repo

import (
	"context"
	"encoding/json"
	"fmt"

	"moodboard/internal/domain"
	"moodboard/internal/infra"
	"moodboard/internal/sqlinline"
)

const (
	defaultCatalogLimit = 200
	maxCatalogLimit     = 1000
)

// CatalogRepositoryPG implements domain.CatalogRepository on product_catalog.
type CatalogRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewCatalogRepository constructs a catalog repository over the marked SQL runner.
func NewCatalogRepository(sql infra.SQLExecutor) *CatalogRepositoryPG {
	return &CatalogRepositoryPG{sql: sql}
}

// ListForNormalization returns up to limit rows with their detected-items payload.
// Rows whose payload is null or not decodable come back with ItemsDetected == nil.
func (r *CatalogRepositoryPG) ListForNormalization(ctx context.Context, limit int) ([]domain.Product, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListProductsForNormalization, limit)
	if err != nil {
		return nil, fmt.Errorf("catalog: list for normalization: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var (
			p   domain.Product
			raw []byte
		)
		if err := rows.Scan(&p.ID, &raw); err != nil {
			return nil, fmt.Errorf("catalog: scan product: %w", err)
		}
		p.ItemsDetected = decodeItemsDetected(raw)
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: list for normalization: %w", err)
	}
	return products, nil
}

func decodeItemsDetected(raw []byte) *domain.ItemsDetected {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var items domain.ItemsDetected
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	return &items
}

// ImageURLsByIDs returns id -> image_url for the ids that have a non-blank image.
func (r *CatalogRepositoryPG) ImageURLsByIDs(ctx context.Context, ids []string) (map[string]string, error) {
	out := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.sql.Query(ctx, sqlinline.QSelectImageURLsByIDs, ids)
	if err != nil {
		return nil, fmt.Errorf("catalog: select image urls: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id, url string
		if err := rows.Scan(&id, &url); err != nil {
			return nil, fmt.Errorf("catalog: scan image url: %w", err)
		}
		out[id] = url
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: select image urls: %w", err)
	}
	return out, nil
}

// UpdateClassification writes every canonical field of one product in a single statement.
func (r *CatalogRepositoryPG) UpdateClassification(ctx context.Context, id string, c domain.Classification, colorVariant, primaryStyle string) error {
	tag, err := r.sql.Exec(ctx, sqlinline.QUpdateProductClassification,
		id,
		string(c.PrimaryCategory),
		c.SubCategory,
		string(c.PrimaryColor),
		colorVariant,
		primaryStyle,
	)
	if err != nil {
		return fmt.Errorf("catalog: update %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("catalog: update %s: no row matched", id)
	}
	return nil
}

// List returns catalog products with their normalized fields.
func (r *CatalogRepositoryPG) List(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultCatalogLimit
	}
	if limit > maxCatalogLimit {
		limit = maxCatalogLimit
	}
	rows, err := r.sql.Query(ctx, sqlinline.QListCatalogProducts, filter.Category, limit)
	if err != nil {
		return nil, fmt.Errorf("catalog: list: %w", err)
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Title, &p.ImageURL, &p.PrimaryCategory, &p.SubCategory, &p.PrimaryColor, &p.ColorVariant, &p.PrimaryStyle); err != nil {
			return nil, fmt.Errorf("catalog: scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: list: %w", err)
	}
	return products, nil
}

var _ domain.CatalogRepository = (*CatalogRepositoryPG)(nil)
