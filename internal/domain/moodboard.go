package domain

import (
	"strings"
	"time"
)

// ProductRef is one product selected for a moodboard.
type ProductRef struct {
	ID       string `json:"id"`
	Category string `json:"category"`
}

// MoodboardRequest is an ordered product selection.
type MoodboardRequest struct {
	RequestID string
	Products  []ProductRef
}

// UniqueIDs returns the non-blank product IDs in request order with duplicates removed.
func (r MoodboardRequest) UniqueIDs() []string {
	seen := make(map[string]struct{}, len(r.Products))
	ids := make([]string, 0, len(r.Products))
	for _, p := range r.Products {
		id := strings.TrimSpace(p.ID)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

// ResolvedImage maps a product to its catalog image.
type ResolvedImage struct {
	ProductID string
	URL       string
}

// Artifact is a published moodboard image. It is written once and never mutated.
type Artifact struct {
	Name        string
	ContentType string
	Size        int64
	URL         string
	CreatedAt   time.Time
}

// Look is a moodboard a user chose to keep.
type Look struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	MediaURL  string    `json:"media_url"`
	CreatedAt time.Time `json:"created_at"`
}
