package moodboard

import (
	"context"
	"strings"

	"moodboard/internal/domain"
)

// ImageLookup returns id -> image URL for the ids that have one.
type ImageLookup interface {
	ImageURLsByIDs(ctx context.Context, ids []string) (map[string]string, error)
}

// Resolver maps product IDs to catalog image URLs.
type Resolver struct {
	lookup ImageLookup
}

func NewResolver(lookup ImageLookup) *Resolver {
	return &Resolver{lookup: lookup}
}

// Resolve keeps the input order and drops IDs without a usable image. Missing
// IDs are not an error; only a failed lookup is.
func (r *Resolver) Resolve(ctx context.Context, ids []string) ([]domain.ResolvedImage, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	urls, err := r.lookup.ImageURLsByIDs(ctx, ids)
	if err != nil {
		return nil, domain.NewStorageError("catalog lookup failed", err)
	}
	resolved := make([]domain.ResolvedImage, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		url := strings.TrimSpace(urls[id])
		if url == "" {
			continue
		}
		resolved = append(resolved, domain.ResolvedImage{ProductID: id, URL: url})
	}
	return resolved, nil
}
