package weathersdk

import "errors"

// Sentinel errors returned by the SDK and the OpenWeather fetcher. Callers
// dispatch with errors.Is; messages may carry additional wrapped context.
var (
	// ErrInvalidAPIKey covers a missing/blank key at construction and an
	// upstream 401 on fetch. Fatal to the triggering call only.
	ErrInvalidAPIKey = errors.New("invalid API key")

	// ErrInvalidCityName is returned before any cache or network access when
	// the requested city name is blank or malformed.
	ErrInvalidCityName = errors.New("invalid city name")

	// ErrCityNotFound is returned when the upstream cannot resolve the city.
	ErrCityNotFound = errors.New("city not found")

	// ErrRateLimited is returned on upstream throttling. No automatic
	// backoff happens at the SDK layer.
	ErrRateLimited = errors.New("rate limited")

	// ErrUpstreamFailure is returned on upstream 5xx responses.
	ErrUpstreamFailure = errors.New("upstream failure")

	// ErrNetwork is returned on transport-level failures (timeout, DNS,
	// connection reset).
	ErrNetwork = errors.New("network error")

	// ErrMalformedResponse is returned when the upstream body cannot be parsed.
	ErrMalformedResponse = errors.New("malformed upstream response")

	// ErrClosed is returned by operations attempted after Close.
	ErrClosed = errors.New("sdk is closed")

	// ErrConflictingMode is returned by Registry.Acquire when an SDK already
	// exists for the credential in a different mode.
	ErrConflictingMode = errors.New("sdk already registered with a different mode")
)
