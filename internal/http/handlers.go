package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	weathersdk "github.com/kjstillabower/openweather-sdk"
)

// Handler holds dependencies for the weatherd HTTP handlers.
type Handler struct {
	sdk    *weathersdk.SDK
	logger *zap.Logger
}

// NewHandler returns a new Handler.
func NewHandler(sdk *weathersdk.SDK, logger *zap.Logger) *Handler {
	return &Handler{sdk: sdk, logger: logger}
}

// weatherResponse is the wire shape for GET /weather/{city}: the raw Kelvin
// snapshot plus derived Celsius views computed on read.
type weatherResponse struct {
	weathersdk.Weather
	TempCelsius      float64 `json:"tempCelsius"`
	FeelsLikeCelsius float64 `json:"feelsLikeCelsius"`
}

// GetWeather handles GET /weather/{city}.
func (h *Handler) GetWeather(w http.ResponseWriter, r *http.Request) {
	city := mux.Vars(r)["city"]

	result, err := h.sdk.CurrentWeather(r.Context(), city)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, weatherResponse{
		Weather:          result,
		TempCelsius:      result.TempCelsius(),
		FeelsLikeCelsius: result.FeelsLikeCelsius(),
	})
}

// GetHealth handles GET /health.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":       "ok",
		"service":      "weatherd",
		"mode":         h.sdk.Mode().String(),
		"cachedCities": h.sdk.CachedCityCount(),
		"timestamp":    time.Now().UTC().Format(time.RFC3339),
	})
}

// writeServiceError maps SDK error kinds to HTTP statuses.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, weathersdk.ErrInvalidCityName):
		writeError(w, r, http.StatusBadRequest, "INVALID_CITY", err.Error())
	case errors.Is(err, weathersdk.ErrCityNotFound):
		writeError(w, r, http.StatusNotFound, "CITY_NOT_FOUND", err.Error())
	case errors.Is(err, weathersdk.ErrRateLimited):
		writeError(w, r, http.StatusTooManyRequests, "UPSTREAM_RATE_LIMITED", err.Error())
	case errors.Is(err, weathersdk.ErrClosed):
		writeError(w, r, http.StatusServiceUnavailable, "SHUTTING_DOWN", err.Error())
	case errors.Is(err, weathersdk.ErrInvalidAPIKey),
		errors.Is(err, weathersdk.ErrUpstreamFailure),
		errors.Is(err, weathersdk.ErrMalformedResponse),
		errors.Is(err, weathersdk.ErrNetwork):
		writeError(w, r, http.StatusBadGateway, "UPSTREAM_ERROR", err.Error())
	default:
		writeError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "unexpected error")
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	corrID := ""
	if v := r.Context().Value("correlation_id"); v != nil {
		if s, ok := v.(string); ok {
			corrID = s
		}
	}
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]string{
			"code":      code,
			"message":   message,
			"requestId": corrID,
		},
	})
}
