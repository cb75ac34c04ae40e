// Package weathersdk is a client SDK for the OpenWeatherMap current-weather
// API. Each SDK instance owns a bounded LRU cache of recent snapshots and,
// in Polling mode, a background task that keeps every cached city fresh.
//
// Usage:
//
//	sdk, err := weathersdk.New(apiKey, weathersdk.WithMode(weathersdk.Polling))
//	if err != nil {
//		...
//	}
//	defer sdk.Close()
//
//	w, err := sdk.CurrentWeather(ctx, "London")
package weathersdk

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/openweather-sdk/internal/cache"
	"github.com/kjstillabower/openweather-sdk/internal/observability"
	"github.com/kjstillabower/openweather-sdk/internal/validation"
)

// SDK resolves city names to current weather, cache-first. It is safe for
// concurrent use. Once closed, an instance rejects all further requests;
// closing is terminal and idempotent.
type SDK struct {
	apiKey  string
	mode    Mode
	fetcher Fetcher
	cache   *cache.Cache[Weather]
	logger  *zap.Logger

	pollingInterval time.Duration
	closeGrace      time.Duration

	mu         sync.Mutex
	closed     bool
	pollCancel context.CancelFunc
	pollDone   chan struct{}
}

// New creates an SDK instance for the given API key. The key must be
// non-blank; the mode defaults to OnDemand. In Polling mode the background
// refresh loop starts immediately, with its first sweep one interval later.
func New(apiKey string, opts ...Option) (*SDK, error) {
	key := strings.TrimSpace(apiKey)
	if key == "" {
		return nil, fmt.Errorf("%w: API key is required", ErrInvalidAPIKey)
	}

	cfg := defaultSettings()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}
	if cfg.fetcher == nil {
		f, err := NewOpenWeatherFetcher(key)
		if err != nil {
			return nil, err
		}
		cfg.fetcher = f
	}
	if cfg.mode == Polling && cfg.pollingInterval <= 0 {
		return nil, fmt.Errorf("polling interval must be positive, got %v", cfg.pollingInterval)
	}
	if cfg.closeGrace <= 0 {
		cfg.closeGrace = DefaultCloseGrace
	}

	c, err := cache.New[Weather](cfg.cacheCapacity, cfg.cacheTTL)
	if err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}

	s := &SDK{
		apiKey:          key,
		mode:            cfg.mode,
		fetcher:         cfg.fetcher,
		cache:           c,
		logger:          cfg.logger,
		pollingInterval: cfg.pollingInterval,
		closeGrace:      cfg.closeGrace,
	}

	if s.mode == Polling {
		ctx, cancel := context.WithCancel(context.Background())
		s.pollCancel = cancel
		s.pollDone = make(chan struct{})
		go s.pollLoop(ctx)
	}

	s.logger.Info("weather sdk initialized",
		zap.String("mode", s.mode.String()),
		zap.Int("cache_capacity", cfg.cacheCapacity),
		zap.Duration("cache_ttl", cfg.cacheTTL))
	return s, nil
}

// CurrentWeather returns the current weather for the city, serving from
// cache when a fresh snapshot exists and fetching upstream otherwise.
// Fetch errors propagate to the caller unchanged; cache hits cannot fail.
func (s *SDK) CurrentWeather(ctx context.Context, city string) (Weather, error) {
	name, err := validation.ValidateCityName(city)
	if err != nil {
		return Weather{}, fmt.Errorf("%w: %v", ErrInvalidCityName, err)
	}
	if s.IsClosed() {
		return Weather{}, ErrClosed
	}

	if entry, ok := s.cache.Get(name); ok {
		observability.CacheHitsTotal.Inc()
		s.logger.Debug("cache hit", zap.String("city", cache.NormalizeKey(name)))
		return entry.Value, nil
	}
	observability.CacheMissesTotal.Inc()
	s.logger.Debug("cache miss, fetching upstream", zap.String("city", cache.NormalizeKey(name)))

	return s.fetchAndStore(ctx, name)
}

// fetchAndStore fetches a fresh snapshot and writes it back to the cache.
// The write is skipped when the SDK closed while the fetch was in flight,
// so shutdown cannot be raced into resurrecting a cleared cache.
func (s *SDK) fetchAndStore(ctx context.Context, city string) (Weather, error) {
	w, err := s.fetcher.Fetch(ctx, city)
	if err != nil {
		return Weather{}, err
	}
	if !s.IsClosed() {
		if err := s.cache.Put(city, cache.NewEntry(w, time.Now())); err != nil {
			return Weather{}, err
		}
		observability.CachedCitiesGauge.Set(float64(s.cache.Len()))
	}
	return w, nil
}

// ClearCache drops all cached snapshots. The operating mode and the polling
// loop are unaffected.
func (s *SDK) ClearCache() {
	s.cache.Clear()
	observability.CachedCitiesGauge.Set(0)
	s.logger.Info("cache cleared")
}

// Mode returns the operating mode chosen at construction.
func (s *SDK) Mode() Mode {
	return s.mode
}

// CachedCityCount returns the number of cities currently cached.
func (s *SDK) CachedCityCount() int {
	return s.cache.Len()
}

// IsClosed reports whether Close has been called.
func (s *SDK) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close shuts the instance down: new requests are rejected immediately, the
// polling loop is cancelled and given a bounded grace period to finish an
// in-flight sweep, and the cache is cleared. Close never fails and repeated
// calls are no-ops.
func (s *SDK) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	cancel, done := s.pollCancel, s.pollDone
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		select {
		case <-done:
		case <-time.After(s.closeGrace):
			s.logger.Warn("polling sweep did not finish within grace period",
				zap.Duration("grace", s.closeGrace))
		}
	}

	s.cache.Clear()
	observability.CachedCitiesGauge.Set(0)
	s.logger.Info("weather sdk closed")
}

// pollLoop revalidates all cached cities every pollingInterval until the
// context is cancelled. The first sweep fires one interval after start.
func (s *SDK) pollLoop(ctx context.Context) {
	defer close(s.pollDone)

	ticker := time.NewTicker(s.pollingInterval)
	defer ticker.Stop()

	s.logger.Info("polling started", zap.Duration("interval", s.pollingInterval))
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.refreshAll(ctx)
		}
	}
}

// refreshAll runs one sweep: snapshot the cached keys, then refresh each
// concurrently. The cache lock is never held across a fetch; foreground
// callers only contend on the brief Contains/Put brackets. Per-city failures
// are logged and counted, never propagated.
func (s *SDK) refreshAll(ctx context.Context) {
	start := time.Now()
	observability.PollingSweepsTotal.Inc()

	keys := s.cache.Keys()
	s.logger.Debug("polling sweep started", zap.Int("cities", len(keys)))

	var wg sync.WaitGroup
	for _, city := range keys {
		city := city
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.refreshOne(ctx, city)
		}()
	}
	wg.Wait()

	duration := time.Since(start)
	observability.PollingSweepDurationSeconds.Observe(duration.Seconds())
	s.logger.Debug("polling sweep complete",
		zap.Int("cities", len(keys)),
		zap.Duration("duration", duration))
}

// refreshOne fetches a single city and replaces its cache entry. A city
// removed between snapshot and write-back is skipped, and nothing is written
// after shutdown began.
func (s *SDK) refreshOne(ctx context.Context, city string) {
	w, err := s.fetcher.Fetch(ctx, city)
	if err != nil {
		observability.PollingRefreshErrorsTotal.Inc()
		s.logger.Warn("background refresh failed",
			zap.String("city", city),
			zap.Error(err))
		return
	}

	if ctx.Err() != nil || s.IsClosed() {
		return
	}
	if !s.cache.Contains(city) {
		s.logger.Debug("skipping refresh for removed city", zap.String("city", city))
		return
	}
	if err := s.cache.Put(city, cache.NewEntry(w, time.Now())); err != nil {
		s.logger.Warn("background refresh store failed",
			zap.String("city", city),
			zap.Error(err))
	}
}
