// Command weatherd is a small HTTP facade over the weather SDK: one SDK
// instance per process, acquired through the registry, exposed as
// GET /weather/{city} with health and metrics endpoints.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	weathersdk "github.com/kjstillabower/openweather-sdk"
	"github.com/kjstillabower/openweather-sdk/internal/config"
	httphandler "github.com/kjstillabower/openweather-sdk/internal/http"
	"github.com/kjstillabower/openweather-sdk/internal/observability"
)

func main() {
	logger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}

	mode, err := weathersdk.ParseMode(cfg.Mode)
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}

	opts := []weathersdk.Option{
		weathersdk.WithLogger(logger),
		weathersdk.WithCacheCapacity(cfg.CacheCapacity),
		weathersdk.WithCacheTTL(cfg.CacheTTL),
		weathersdk.WithPollingInterval(cfg.PollingInterval),
	}
	if cfg.WeatherAPIURL != "" {
		fetcher, err := weathersdk.NewOpenWeatherFetcherWithRetry(
			cfg.WeatherAPIKey,
			cfg.WeatherAPIURL,
			cfg.WeatherAPITimeout,
			cfg.RetryAttempts,
			cfg.RetryBaseDelay,
			cfg.RetryMaxDelay,
		)
		if err != nil {
			logger.Fatal("weather fetcher", zap.Error(err))
		}
		opts = append(opts, weathersdk.WithFetcher(fetcher))
	}

	sdk, err := weathersdk.Acquire(cfg.WeatherAPIKey, mode, opts...)
	if err != nil {
		logger.Fatal("weather sdk", zap.Error(err))
	}
	defer weathersdk.ReleaseAll()

	handler := httphandler.NewHandler(sdk, logger)

	var limiter *rate.Limiter
	if cfg.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	}

	router := mux.NewRouter()
	router.Use(httphandler.CorrelationIDMiddleware(logger))
	router.Use(httphandler.MetricsMiddleware)
	router.HandleFunc("/health", handler.GetHealth).Methods("GET")
	router.Handle("/metrics", observability.MetricsHandler())
	weatherRouter := router.PathPrefix("/weather").Subrouter()
	weatherRouter.Use(httphandler.RateLimitMiddleware(limiter))
	weatherRouter.Use(httphandler.TimeoutMiddleware(cfg.RequestTimeout))
	weatherRouter.HandleFunc("/{city}", handler.GetWeather).Methods("GET")

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting",
			zap.String("addr", srv.Addr),
			zap.String("mode", mode.String()))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	<-ctx.Done()
	stop()

	logger.Info("graceful shutdown triggered")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}

	weathersdk.ReleaseAll()
	logger.Info("shutdown complete")
}
