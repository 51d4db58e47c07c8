package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"moodboard/internal/domain"
	"moodboard/internal/infra"
	"moodboard/internal/moodboard"
)

// MoodboardComposer runs one moodboard request end to end.
type MoodboardComposer interface {
	Compose(ctx context.Context, req domain.MoodboardRequest) (moodboard.Result, error)
}

// CatalogLister lists catalog products with their normalized fields.
type CatalogLister interface {
	List(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error)
}

type App struct {
	Logger     *infra.Logger
	Moodboards MoodboardComposer
	Catalog    CatalogLister
	Looks      domain.LookRepository
	Metrics    *infra.Metrics
	// Ping reports store connectivity for the health probe. Nil skips the check.
	Ping func(ctx context.Context) error
}

const (
	maxBodyBytes = 1 << 20
	msgInternal  = "Internal server error."
)

func (a *App) logger() *infra.Logger {
	if a.Logger == nil {
		return infra.NopLogger()
	}
	return a.Logger
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, msg string) {
	a.json(w, code, map[string]string{"error": msg})
}

// fail maps a domain error to its HTTP status and writes {"error": message}.
func (a *App) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	evt := a.logger().Warn()
	if status >= http.StatusInternalServerError {
		evt = a.logger().Error()
	}
	evt.Err(err).
		Str("path", r.URL.Path).
		Str("kind", string(domain.KindOf(err))).
		Int("status", status).
		Msg("request failed")
	msg := domain.MessageOf(err)
	if domain.KindOf(err) == "" {
		msg = msgInternal
	}
	a.error(w, status, msg)
}

func statusFor(err error) int {
	switch domain.KindOf(err) {
	case domain.KindValidation, domain.KindResolutionEmpty:
		return http.StatusBadRequest
	case domain.KindProvider, domain.KindParse:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (a *App) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		a.error(w, http.StatusBadRequest, "Invalid JSON body.")
		return false
	}
	return true
}
