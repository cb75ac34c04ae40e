package weathersdk

import (
	"math"
	"testing"
)

// TestWeather_CelsiusConversions verifies the Kelvin to Celsius helpers.
func TestWeather_CelsiusConversions(t *testing.T) {
	w := Weather{TempKelvin: 273.15, FeelsLikeKelvin: 300.15}

	if got := w.TempCelsius(); math.Abs(got) > 1e-9 {
		t.Errorf("TempCelsius() = %v, want 0", got)
	}
	if got := w.FeelsLikeCelsius(); math.Abs(got-27) > 1e-9 {
		t.Errorf("FeelsLikeCelsius() = %v, want 27", got)
	}
}
