package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds weatherd configuration loaded from YAML and env.
type Config struct {
	ServerPort string

	Mode string // "on_demand" or "polling"

	WeatherAPIKey     string
	WeatherAPIURL     string
	WeatherAPITimeout time.Duration

	CacheCapacity   int
	CacheTTL        time.Duration
	PollingInterval time.Duration

	RequestTimeout time.Duration
	RetryAttempts  int
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration

	RateLimitRPS   int
	RateLimitBurst int

	ShutdownTimeout time.Duration
}

type fileConfig struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`

	SDK struct {
		Mode            string `yaml:"mode"`
		CacheCapacity   int    `yaml:"cache_capacity"`
		CacheTTL        string `yaml:"cache_ttl"`
		PollingInterval string `yaml:"polling_interval"`
	} `yaml:"sdk"`

	WeatherAPI struct {
		URL     string `yaml:"url"`
		Timeout string `yaml:"timeout"`
	} `yaml:"weather_api"`

	Request struct {
		Timeout string `yaml:"timeout"`
	} `yaml:"request"`

	Reliability struct {
		RetryMaxAttempts int    `yaml:"retry_max_attempts"`
		RetryBaseDelay   string `yaml:"retry_base_delay"`
		RetryMaxDelay    string `yaml:"retry_max_delay"`
		RateLimitRPS     int    `yaml:"rate_limit_rps"`
		RateLimitBurst   int    `yaml:"rate_limit_burst"`
	} `yaml:"reliability"`

	Shutdown struct {
		Timeout string `yaml:"timeout"`
	} `yaml:"shutdown"`
}

// Load reads configuration from the file named by WEATHERD_CONFIG (optional;
// defaults apply when unset or missing) and the WEATHER_API_KEY env var,
// which is required.
func Load() (*Config, error) {
	var fc fileConfig
	if path := os.Getenv("WEATHERD_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg := &Config{}

	cfg.ServerPort = fc.Server.Port
	if cfg.ServerPort == "" {
		cfg.ServerPort = "8080"
	}

	cfg.Mode = strings.TrimSpace(strings.ToLower(os.Getenv("WEATHER_SDK_MODE")))
	if cfg.Mode == "" {
		cfg.Mode = strings.TrimSpace(strings.ToLower(fc.SDK.Mode))
	}
	if cfg.Mode == "" {
		cfg.Mode = "on_demand"
	}

	cfg.WeatherAPIKey = os.Getenv("WEATHER_API_KEY")
	if cfg.WeatherAPIKey == "" {
		return nil, fmt.Errorf("WEATHER_API_KEY required")
	}

	cfg.WeatherAPIURL = fc.WeatherAPI.URL
	cfg.WeatherAPITimeout = parseDuration(fc.WeatherAPI.Timeout, 10*time.Second)

	cfg.CacheCapacity = fc.SDK.CacheCapacity
	if cfg.CacheCapacity <= 0 {
		cfg.CacheCapacity = 10
	}
	cfg.CacheTTL = parseDuration(fc.SDK.CacheTTL, 10*time.Minute)
	cfg.PollingInterval = parseDuration(fc.SDK.PollingInterval, 5*time.Minute)

	cfg.RequestTimeout = parseDuration(fc.Request.Timeout, 15*time.Second)
	if cfg.RequestTimeout <= cfg.WeatherAPITimeout {
		cfg.RequestTimeout = cfg.WeatherAPITimeout + time.Second
	}

	cfg.RetryAttempts = fc.Reliability.RetryMaxAttempts
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = 3
	}
	cfg.RetryBaseDelay = parseDuration(fc.Reliability.RetryBaseDelay, 100*time.Millisecond)
	cfg.RetryMaxDelay = parseDuration(fc.Reliability.RetryMaxDelay, 2*time.Second)
	cfg.RateLimitRPS = fc.Reliability.RateLimitRPS
	if cfg.RateLimitRPS <= 0 {
		cfg.RateLimitRPS = 100
	}
	cfg.RateLimitBurst = fc.Reliability.RateLimitBurst
	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = 250
	}

	cfg.ShutdownTimeout = parseDuration(fc.Shutdown.Timeout, 30*time.Second)

	switch cfg.Mode {
	case "on_demand", "polling":
		// valid
	default:
		return nil, fmt.Errorf("sdk.mode must be on_demand or polling, got %q", cfg.Mode)
	}
	return cfg, nil
}

// parseDuration parses a duration string and returns defaultVal on empty
// input, parse error, or a non-positive result.
func parseDuration(s string, defaultVal time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}
