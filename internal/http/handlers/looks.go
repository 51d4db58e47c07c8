package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"moodboard/internal/domain"
)

type saveLookRequest struct {
	UserID   string `json:"user_id"`
	MediaURL string `json:"media_url"`
}

// SaveLook handles POST /looks.
func (a *App) SaveLook(w http.ResponseWriter, r *http.Request) {
	var body saveLookRequest
	if !a.decode(w, r, &body) {
		return
	}
	look := &domain.Look{
		UserID:   strings.TrimSpace(body.UserID),
		MediaURL: strings.TrimSpace(body.MediaURL),
	}
	if look.UserID == "" || look.MediaURL == "" {
		a.error(w, http.StatusBadRequest, "Missing user_id or media_url")
		return
	}

	if err := a.Looks.Create(r.Context(), look); err != nil {
		a.logger().Error().Err(err).Str("user_id", look.UserID).Msg("save look")
		a.error(w, http.StatusInternalServerError, "Failed to save look")
		return
	}
	a.json(w, http.StatusOK, map[string]any{"success": true, "saved": look})
}

// ListLooks handles GET /looks?user_id=, newest first.
func (a *App) ListLooks(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	if userID == "" {
		a.error(w, http.StatusBadRequest, "Missing user_id")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	looks, err := a.Looks.ListByUser(r.Context(), userID, limit)
	if err != nil {
		a.logger().Error().Err(err).Str("user_id", userID).Msg("list looks")
		a.error(w, http.StatusInternalServerError, "Failed to fetch saved looks")
		return
	}
	if looks == nil {
		looks = []domain.Look{}
	}
	a.json(w, http.StatusOK, looks)
}
