package weathersdk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kjstillabower/openweather-sdk/internal/observability"
)

// DefaultAPIURL is the OpenWeatherMap current-weather endpoint.
const DefaultAPIURL = "https://api.openweathermap.org/data/2.5/weather"

const defaultFetchTimeout = 10 * time.Second

// OpenWeatherFetcher is the production Fetcher backed by the OpenWeatherMap
// current-weather API. Transient failures (rate limiting, 5xx, timeouts) are
// retried with exponential backoff and jitter; terminal failures (bad key,
// unknown city) are returned immediately.
type OpenWeatherFetcher struct {
	apiKey         string
	apiURL         string
	timeout        time.Duration
	client         *http.Client
	retryAttempts  int
	retryBaseDelay time.Duration
	retryMaxDelay  time.Duration
}

// NewOpenWeatherFetcher creates a fetcher with default endpoint, timeout and
// retry policy (3 attempts, 100ms base delay, 2s cap).
func NewOpenWeatherFetcher(apiKey string) (*OpenWeatherFetcher, error) {
	return NewOpenWeatherFetcherWithRetry(apiKey, DefaultAPIURL, defaultFetchTimeout, 3, 100*time.Millisecond, 2*time.Second)
}

// NewOpenWeatherFetcherWithRetry creates a fetcher with explicit endpoint,
// timeout and retry policy.
func NewOpenWeatherFetcherWithRetry(apiKey, apiURL string, timeout time.Duration, retryAttempts int, retryBaseDelay, retryMaxDelay time.Duration) (*OpenWeatherFetcher, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("%w: API key is required", ErrInvalidAPIKey)
	}
	if retryAttempts < 1 {
		retryAttempts = 1
	}
	return &OpenWeatherFetcher{
		apiKey:         apiKey,
		apiURL:         apiURL,
		timeout:        timeout,
		retryAttempts:  retryAttempts,
		retryBaseDelay: retryBaseDelay,
		retryMaxDelay:  retryMaxDelay,
		client: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// openWeatherResponse mirrors the subset of the OpenWeatherMap payload the
// SDK exposes.
type openWeatherResponse struct {
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
	} `json:"main"`
	Visibility int `json:"visibility"`
	Wind       struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Dt  int64 `json:"dt"`
	Sys struct {
		Sunrise int64 `json:"sunrise"`
		Sunset  int64 `json:"sunset"`
	} `json:"sys"`
	Timezone int    `json:"timezone"`
	Name     string `json:"name"`
}

// Fetch retrieves the current weather for a city, retrying transient failures.
func (f *OpenWeatherFetcher) Fetch(ctx context.Context, city string) (Weather, error) {
	var lastErr error

	for attempt := 0; attempt < f.retryAttempts; attempt++ {
		if attempt > 0 {
			observability.WeatherAPIRetriesTotal.Inc()
			delay := f.calculateBackoff(attempt)
			select {
			case <-ctx.Done():
				return Weather{}, fmt.Errorf("%w: %v", ErrNetwork, ctx.Err())
			case <-time.After(delay):
			}
		}

		result, err := f.callAPI(ctx, city)
		if err == nil {
			return result, nil
		}

		lastErr = err
		if !isRetryable(err) {
			return Weather{}, err
		}
	}

	return Weather{}, fmt.Errorf("exhausted retries: %w", lastErr)
}

func (f *OpenWeatherFetcher) callAPI(ctx context.Context, city string) (Weather, error) {
	start := time.Now()

	reqCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := f.buildRequest(reqCtx, city)
	if err != nil {
		observability.WeatherAPICallsTotal.WithLabelValues("error").Inc()
		return Weather{}, fmt.Errorf("build request: %w", err)
	}

	if corrID := extractCorrelationID(ctx); corrID != "" {
		req.Header.Set("X-Correlation-ID", corrID)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		duration := time.Since(start).Seconds()
		observability.WeatherAPICallsTotal.WithLabelValues("error").Inc()
		observability.WeatherAPIDuration.WithLabelValues("error").Observe(duration)
		return Weather{}, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	duration := time.Since(start).Seconds()
	status := statusLabel(resp.StatusCode)
	observability.WeatherAPICallsTotal.WithLabelValues(status).Inc()
	observability.WeatherAPIDuration.WithLabelValues(status).Observe(duration)

	if err := handleErrorResponse(resp); err != nil {
		return Weather{}, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Weather{}, fmt.Errorf("%w: %v", ErrNetwork, err)
	}

	var apiResp openWeatherResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return Weather{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	return mapResponse(apiResp, city), nil
}

func (f *OpenWeatherFetcher) buildRequest(ctx context.Context, city string) (*http.Request, error) {
	baseURL, err := url.Parse(f.apiURL)
	if err != nil {
		return nil, fmt.Errorf("invalid API URL: %w", err)
	}

	params := url.Values{}
	params.Set("q", city)
	params.Set("appid", f.apiKey)
	baseURL.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", baseURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (f *OpenWeatherFetcher) calculateBackoff(attempt int) time.Duration {
	delay := float64(f.retryBaseDelay) * math.Pow(2, float64(attempt-1))
	if delay > float64(f.retryMaxDelay) {
		delay = float64(f.retryMaxDelay)
	}

	jitter := delay * 0.1 * rand.Float64()
	return time.Duration(delay + jitter)
}

// ValidateAPIKey probes the upstream with a known city to confirm the key is
// accepted. Useful at startup before entering polling mode.
func (f *OpenWeatherFetcher) ValidateAPIKey(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := f.buildRequest(ctx, "London")
	if err != nil {
		return fmt.Errorf("build validation request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%w: key is invalid or not activated", ErrInvalidAPIKey)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("validation failed: HTTP %d", resp.StatusCode)
	}
	return nil
}

func isRetryable(err error) bool {
	return errors.Is(err, ErrRateLimited) ||
		errors.Is(err, ErrUpstreamFailure) ||
		errors.Is(err, ErrNetwork)
}

func handleErrorResponse(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: upstream rejected credentials", ErrInvalidAPIKey)
	case http.StatusNotFound:
		return fmt.Errorf("%w: check the city name", ErrCityNotFound)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: upstream throttling", ErrRateLimited)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: HTTP %d", ErrUpstreamFailure, resp.StatusCode)
	}
	return nil
}

func mapResponse(apiResp openWeatherResponse, city string) Weather {
	condition := ""
	description := ""
	if len(apiResp.Weather) > 0 {
		condition = apiResp.Weather[0].Main
		description = apiResp.Weather[0].Description
	}

	name := apiResp.Name
	if name == "" {
		name = city
	}

	return Weather{
		City:             name,
		Condition:        condition,
		Description:      description,
		TempKelvin:       apiResp.Main.Temp,
		FeelsLikeKelvin:  apiResp.Main.FeelsLike,
		WindSpeed:        apiResp.Wind.Speed,
		VisibilityMeters: apiResp.Visibility,
		ObservedAt:       time.Unix(apiResp.Dt, 0).UTC(),
		Sunrise:          time.Unix(apiResp.Sys.Sunrise, 0).UTC(),
		Sunset:           time.Unix(apiResp.Sys.Sunset, 0).UTC(),
		UTCOffset:        time.Duration(apiResp.Timezone) * time.Second,
	}
}

func extractCorrelationID(ctx context.Context) string {
	if v := ctx.Value("correlation_id"); v != nil {
		if corrID, ok := v.(string); ok {
			return corrID
		}
	}
	return ""
}

func statusLabel(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return "success"
	case statusCode == http.StatusTooManyRequests:
		return "rate_limited"
	case statusCode >= 400 && statusCode < 500:
		return "client_error"
	case statusCode >= 500:
		return "server_error"
	}
	return "error"
}
