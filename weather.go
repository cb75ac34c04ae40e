package weathersdk

import "time"

// kelvinOffset converts between Kelvin and Celsius.
const kelvinOffset = 273.15

// Weather is a current-weather snapshot for one city. Values are immutable
// once fetched; a refresh produces a whole new snapshot. Temperatures are in
// Kelvin, the upstream canonical unit; use the Celsius helpers for display.
type Weather struct {
	City             string        `json:"city"`
	Condition        string        `json:"condition"`
	Description      string        `json:"description"`
	TempKelvin       float64       `json:"tempKelvin"`
	FeelsLikeKelvin  float64       `json:"feelsLikeKelvin"`
	WindSpeed        float64       `json:"windSpeed"`
	VisibilityMeters int           `json:"visibilityMeters"`
	ObservedAt       time.Time     `json:"observedAt"`
	Sunrise          time.Time     `json:"sunrise"`
	Sunset           time.Time     `json:"sunset"`
	UTCOffset        time.Duration `json:"utcOffset"`
}

// TempCelsius returns the temperature converted to Celsius.
// Computed on read, never stored.
func (w Weather) TempCelsius() float64 {
	return w.TempKelvin - kelvinOffset
}

// FeelsLikeCelsius returns the perceived temperature converted to Celsius.
func (w Weather) FeelsLikeCelsius() float64 {
	return w.FeelsLikeKelvin - kelvinOffset
}
