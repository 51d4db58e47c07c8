package handlers

import (
	"net/http"

	"moodboard/internal/domain"
	"moodboard/internal/middleware"
)

type moodboardRequest struct {
	Products []domain.ProductRef `json:"products"`
}

type moodboardResponse struct {
	ImageURL string `json:"image_url"`
}

// CreateMoodboard handles POST /moodboard.
func (a *App) CreateMoodboard(w http.ResponseWriter, r *http.Request) {
	var body moodboardRequest
	if !a.decode(w, r, &body) {
		return
	}

	res, err := a.Moodboards.Compose(r.Context(), domain.MoodboardRequest{
		RequestID: middleware.RequestIDFromContext(r.Context()),
		Products:  body.Products,
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, moodboardResponse{ImageURL: res.ImageURL})
}
