package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"moodboard/internal/domain"
)

type catalogItem struct {
	ID              string  `json:"id"`
	Title           string  `json:"title"`
	ImageURL        *string `json:"image_url"`
	PrimaryCategory *string `json:"primary_category"`
	SubCategory     *string `json:"sub_category"`
	PrimaryColor    *string `json:"primary_color"`
	ColorVariant    *string `json:"color_variant"`
	PrimaryStyle    *string `json:"primary_style"`
}

// ListCatalog handles GET /catalog?category=&limit=.
func (a *App) ListCatalog(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.ProductFilter{}
	if raw := strings.TrimSpace(q.Get("category")); raw != "" {
		cat, ok := domain.ParseCategory(raw)
		if !ok {
			a.error(w, http.StatusBadRequest, "Unknown category.")
			return
		}
		filter.Category = string(cat)
	}
	if raw := strings.TrimSpace(q.Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			a.error(w, http.StatusBadRequest, "Invalid limit.")
			return
		}
		filter.Limit = n
	}

	products, err := a.Catalog.List(r.Context(), filter)
	if err != nil {
		a.logger().Error().Err(err).Msg("list catalog")
		a.error(w, http.StatusInternalServerError, "Failed to load catalog")
		return
	}

	items := make([]catalogItem, 0, len(products))
	for _, p := range products {
		items = append(items, catalogItem{
			ID:              p.ID,
			Title:           p.Title,
			ImageURL:        p.ImageURL,
			PrimaryCategory: p.PrimaryCategory,
			SubCategory:     p.SubCategory,
			PrimaryColor:    p.PrimaryColor,
			ColorVariant:    p.ColorVariant,
			PrimaryStyle:    p.PrimaryStyle,
		})
	}
	a.json(w, http.StatusOK, items)
}
