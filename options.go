package weathersdk

import (
	"time"

	"go.uber.org/zap"
)

// Defaults for SDK construction. All of them are configuration constants,
// overridable per instance through options.
const (
	DefaultCacheCapacity   = 10
	DefaultCacheTTL        = 10 * time.Minute
	DefaultPollingInterval = 5 * time.Minute
	DefaultCloseGrace      = 5 * time.Second
)

// settings collects construction parameters before validation.
type settings struct {
	mode            Mode
	fetcher         Fetcher
	logger          *zap.Logger
	cacheCapacity   int
	cacheTTL        time.Duration
	pollingInterval time.Duration
	closeGrace      time.Duration
}

func defaultSettings() settings {
	return settings{
		mode:            OnDemand,
		cacheCapacity:   DefaultCacheCapacity,
		cacheTTL:        DefaultCacheTTL,
		pollingInterval: DefaultPollingInterval,
		closeGrace:      DefaultCloseGrace,
	}
}

// Option customizes SDK construction.
type Option func(*settings)

// WithMode selects the operating mode. Defaults to OnDemand.
func WithMode(mode Mode) Option {
	return func(s *settings) { s.mode = mode }
}

// WithFetcher injects a Fetcher, replacing the default OpenWeather HTTP
// fetcher. Primarily for tests and callers that own their transport.
func WithFetcher(f Fetcher) Option {
	return func(s *settings) { s.fetcher = f }
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// WithCacheCapacity sets the maximum number of cached cities.
func WithCacheCapacity(n int) Option {
	return func(s *settings) { s.cacheCapacity = n }
}

// WithCacheTTL sets how long a cached snapshot stays fresh.
func WithCacheTTL(d time.Duration) Option {
	return func(s *settings) { s.cacheTTL = d }
}

// WithPollingInterval sets the background refresh interval used in Polling
// mode. The first sweep fires one interval after construction.
func WithPollingInterval(d time.Duration) Option {
	return func(s *settings) { s.pollingInterval = d }
}

// WithCloseGrace bounds how long Close waits for an in-flight sweep.
func WithCloseGrace(d time.Duration) Option {
	return func(s *settings) { s.closeGrace = d }
}
