// Package router maps the public HTTP surface onto the weather handlers.
package router

import (
	"net/http"

	"github.com/fakhrymubarak/weather-history-api/internal/handler"
	"github.com/fakhrymubarak/weather-history-api/internal/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// New builds the router. Only GET /weather, GET /weather/history and GET /docs
// are served; every other method and path gets the structured 404.
func New(h *handler.WeatherHandler, logger *zap.SugaredLogger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.TraceContext)

	r.Get("/weather", h.HandleWeather)
	r.Get("/weather/history", h.HandleHistory)
	r.Get("/docs", h.HandleDocs)

	r.NotFound(h.HandleNotFound)
	r.MethodNotAllowed(h.HandleNotFound)

	return r
}
