package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/fakhrymubarak/weather-history-api/internal/config"
	"github.com/fakhrymubarak/weather-history-api/internal/docs"
	"github.com/fakhrymubarak/weather-history-api/internal/model"
	"github.com/fakhrymubarak/weather-history-api/internal/service"
	"go.uber.org/zap"
)

// Caller-visible error messages. Internal causes are only logged.
const (
	msgMissingCity     = "Missing 'city' query parameter"
	msgFetchFailed     = "Failed to fetch weather data"
	msgHistoryFailed   = "Failed to fetch weather history"
	msgRouteNotFound   = "Route not found"
	contentTypeJSON    = "application/json"
	contentTypeHTML    = "text/html; charset=utf-8"
	headerContentType  = "Content-Type"
	headerNoSniff      = "X-Content-Type-Options"
	headerNoSniffValue = "nosniff"
)

type WeatherHandler struct {
	WeatherService service.WeatherServiceInterface

	weather config.WeatherConfig
	logger  *zap.SugaredLogger
}

func NewWeatherHandler(svc service.WeatherServiceInterface, weather config.WeatherConfig, logger *zap.SugaredLogger) *WeatherHandler {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &WeatherHandler{
		WeatherService: svc,
		weather:        weather,
		logger:         logger,
	}
}

func (h *WeatherHandler) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set(headerContentType, contentTypeJSON)
	w.Header().Set(headerNoSniff, headerNoSniffValue)
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Errorw("Could not encode JSON response", "error", err)
	}
}

func (h *WeatherHandler) writeError(w http.ResponseWriter, statusCode int, errMsg string) {
	h.writeJSONResponse(w, statusCode, model.NewErrorResponse(errMsg))
}

// resolveCity applies the missing-city policy. It reports false when the
// request must be rejected.
func (h *WeatherHandler) resolveCity(r *http.Request) (string, bool) {
	city := strings.TrimSpace(r.URL.Query().Get("city"))
	if city != "" {
		return city, true
	}
	if h.weather.RequireCity {
		return "", false
	}
	return h.weather.DefaultCity, true
}

// HandleWeather serves GET /weather?city=.
func (h *WeatherHandler) HandleWeather(w http.ResponseWriter, r *http.Request) {
	city, ok := h.resolveCity(r)
	if !ok {
		h.writeError(w, http.StatusBadRequest, msgMissingCity)
		return
	}

	record, err := h.WeatherService.FetchWeather(r.Context(), city)
	if err != nil {
		var notFound *service.CityNotFoundError
		if errors.As(err, &notFound) {
			h.writeError(w, http.StatusNotFound, notFound.Error())
			return
		}
		h.logger.Errorw("Weather request failed", "route", r.URL.Path, "city", city, "error", err)
		h.writeError(w, http.StatusInternalServerError, msgFetchFailed)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, record.Response())
}

// HandleHistory serves GET /weather/history, newest record first.
func (h *WeatherHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	records, err := h.WeatherService.ListHistory(r.Context())
	if err != nil {
		h.logger.Errorw("History request failed", "route", r.URL.Path, "error", err)
		h.writeError(w, http.StatusInternalServerError, msgHistoryFailed)
		return
	}
	if records == nil {
		records = []model.WeatherRecord{}
	}
	h.writeJSONResponse(w, http.StatusOK, records)
}

// HandleDocs serves the static API documentation page.
func (h *WeatherHandler) HandleDocs(w http.ResponseWriter, r *http.Request) {
	w.Header().Set(headerContentType, contentTypeHTML)
	w.Header().Set(headerNoSniff, headerNoSniffValue)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(docs.Page()); err != nil {
		h.logger.Errorw("Could not write docs page", "error", err)
	}
}

// HandleNotFound answers every unmatched method and path.
func (h *WeatherHandler) HandleNotFound(w http.ResponseWriter, r *http.Request) {
	h.logger.Debugw("Route not found", "method", r.Method, "path", r.URL.Path)
	h.writeError(w, http.StatusNotFound, msgRouteNotFound)
}
