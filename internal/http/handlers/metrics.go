package handlers

import "net/http"

// MetricsHandler serves the Prometheus registry.
func (a *App) MetricsHandler() http.Handler {
	return a.Metrics.Handler()
}
