package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/ulule/limiter/v3"

	"moodboard/internal/http/handlers"
	"moodboard/internal/middleware"
)

type Options struct {
	Logger         zerolog.Logger
	AllowedOrigins []string
	// RateLimitPerMin caps POST /moodboard per client IP. Zero disables it.
	RateLimitPerMin int
	RateLimitStore  limiter.Store
	// StaticDir is served under /static/ when the filesystem blob backend is active.
	StaticDir string
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		chimw.Recoverer,
		middleware.Logger(opts.Logger),
		middleware.CORS(opts.AllowedOrigins),
	)

	r.Get("/v1/healthz", app.Health)
	r.Get("/v1/openapi.json", app.OpenAPIJSON)
	r.Get("/v1/docs", app.OpenAPIDocs)
	r.Handle("/metrics", app.MetricsHandler())

	r.Group(func(r chi.Router) {
		if opts.RateLimitStore != nil {
			r.Use(middleware.RateLimit(opts.RateLimitStore, opts.RateLimitPerMin, time.Minute, opts.Logger))
		}
		r.Post("/moodboard", app.CreateMoodboard)
	})

	r.Get("/catalog", app.ListCatalog)
	r.Route("/looks", func(r chi.Router) {
		r.Get("/", app.ListLooks)
		r.Post("/", app.SaveLook)
	})

	if opts.StaticDir != "" {
		fs := http.StripPrefix("/static/", http.FileServer(http.Dir(opts.StaticDir)))
		r.Handle("/static/*", fs)
	}

	return r
}
