package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string           `toml:"environment"` // "development" or "production"
	Server      ServerConfig     `toml:"server"`
	Storage     StorageConfig    `toml:"storage"`
	Bridge      BridgeConfig     `toml:"bridge"`
	Translator  TranslatorConfig `toml:"translator"`
	Worker      WorkerConfig     `toml:"worker"`
	Monitor     MonitorConfig    `toml:"monitor"`
	Languages   LanguagesConfig  `toml:"languages"`
	WebSocket   WebSocketConfig  `toml:"websocket"`
	Logging     LoggingConfig    `toml:"logging"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
	GCInterval     string `toml:"gc_interval"`      // Value-log GC interval, e.g. "5m" (empty = disabled)
}

// BridgeConfig controls the completion bridge behavior
type BridgeConfig struct {
	PreprocessTimeout string `toml:"preprocess_timeout"` // e.g. "30s" - max wait for a preprocessing notification
	GraceWindow       string `toml:"grace_window"`       // e.g. "10s" - how long unclaimed outcomes stay cached
}

// TranslatorConfig configures the remote translation backend
type TranslatorConfig struct {
	URL            string  `toml:"url"`              // Base URL of the translation backend
	RequestTimeout string  `toml:"request_timeout"`  // Per-call deadline, e.g. "30s"
	UseCache       bool    `toml:"use_cache"`        // Ask the backend to serve cached translations
	RateLimit      float64 `toml:"rate_limit"`       // Max requests per second to the backend (0 = unlimited)
	RateBurst      int     `toml:"rate_burst"`       // Burst size for the rate limiter
}

// WorkerConfig controls the embedded preprocessing worker pool.
// Production deployments disable this and run an external worker population
// publishing to the same notification topic.
type WorkerConfig struct {
	Enabled     bool `toml:"enabled"`
	Concurrency int  `toml:"concurrency"`
}

// MonitorConfig controls the liveness monitor
type MonitorConfig struct {
	ScanSchedule     string `toml:"scan_schedule"`     // Cron schedule for the periodic stuck-job scan
	ActiveThreshold  string `toml:"active_threshold"`  // e.g. "60s" - translating jobs older than this are stuck
	WaitingThreshold string `toml:"waiting_threshold"` // e.g. "45s" - awaiting jobs older than this are stuck
	PageSize         int    `toml:"page_size"`         // Store page size for snapshot reads
	MaxPages         int    `toml:"max_pages"`         // Page budget per state - beyond this the snapshot is sampled
}

// LanguagesConfig points at the optional language registry file
type LanguagesConfig struct {
	File string `toml:"file"` // YAML registry of supported language codes (empty = accept any code)
}

// WebSocketConfig contains configuration for WebSocket result streaming
type WebSocketConfig struct {
	AllowedEvents     []string          `toml:"allowed_events"`     // Whitelist of event types to broadcast. Empty list allows all events.
	ThrottleIntervals map[string]string `toml:"throttle_intervals"` // Per-event-type minimum broadcast interval for advisory events
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Format string   `toml:"format"` // "json" or "text"
	Output []string `toml:"output"` // "stdout", "file"
}

// NewDefaultConfig creates a configuration with default values
// Technical parameters are hardcoded here for production stability.
// Only user-facing settings should be exposed in transfero.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path:       "./data",
				GCInterval: "5m",
			},
		},
		Bridge: BridgeConfig{
			PreprocessTimeout: "30s",
			GraceWindow:       "10s",
		},
		Translator: TranslatorConfig{
			URL:            "http://localhost:8000",
			RequestTimeout: "30s",
			UseCache:       true,
			RateLimit:      0, // Unlimited by default - backend enforces its own quotas
			RateBurst:      1,
		},
		Worker: WorkerConfig{
			Enabled:     true,
			Concurrency: 4,
		},
		Monitor: MonitorConfig{
			ScanSchedule:     "@every 30s",
			ActiveThreshold:  "60s",
			WaitingThreshold: "45s",
			PageSize:         200,
			MaxPages:         10,
		},
		Languages: LanguagesConfig{
			File: "", // Accept any language code unless a registry is configured
		},
		WebSocket: WebSocketConfig{
			AllowedEvents: []string{},
			ThrottleIntervals: map[string]string{
				"throughput_sample": "1s", // Advisory counters at most once per second
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: []string{"stdout", "file"},
		},
	}
}

// LoadFromFiles loads configuration from defaults, then overlays each file in
// order (later files override earlier ones), then applies environment overrides.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for _, path := range paths {
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnvOverrides applies TRANSFERO_* environment variable overrides
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("TRANSFERO_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	if port := os.Getenv("TRANSFERO_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("TRANSFERO_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	if badgerPath := os.Getenv("TRANSFERO_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	if timeout := os.Getenv("TRANSFERO_PREPROCESS_TIMEOUT"); timeout != "" {
		config.Bridge.PreprocessTimeout = timeout
	}
	if grace := os.Getenv("TRANSFERO_GRACE_WINDOW"); grace != "" {
		config.Bridge.GraceWindow = grace
	}

	if url := os.Getenv("TRANSFERO_TRANSLATOR_URL"); url != "" {
		config.Translator.URL = url
	}
	if timeout := os.Getenv("TRANSFERO_TRANSLATOR_TIMEOUT"); timeout != "" {
		config.Translator.RequestTimeout = timeout
	}

	if enabled := os.Getenv("TRANSFERO_WORKER_ENABLED"); enabled != "" {
		config.Worker.Enabled = enabled == "true" || enabled == "1"
	}
	if concurrency := os.Getenv("TRANSFERO_WORKER_CONCURRENCY"); concurrency != "" {
		if c, err := strconv.Atoi(concurrency); err == nil && c > 0 {
			config.Worker.Concurrency = c
		}
	}

	if level := os.Getenv("TRANSFERO_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("TRANSFERO_LOG_OUTPUT"); output != "" {
		config.Logging.Output = strings.Split(output, ",")
	}
}

// Validate checks that duration and schedule fields parse
func (c *Config) Validate() error {
	durations := map[string]string{
		"bridge.preprocess_timeout":  c.Bridge.PreprocessTimeout,
		"bridge.grace_window":        c.Bridge.GraceWindow,
		"translator.request_timeout": c.Translator.RequestTimeout,
		"monitor.active_threshold":   c.Monitor.ActiveThreshold,
		"monitor.waiting_threshold":  c.Monitor.WaitingThreshold,
	}
	for field, value := range durations {
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid duration for %s: %w", field, err)
		}
	}
	if c.Storage.Badger.GCInterval != "" {
		if _, err := time.ParseDuration(c.Storage.Badger.GCInterval); err != nil {
			return fmt.Errorf("invalid duration for storage.badger.gc_interval: %w", err)
		}
	}
	if c.Worker.Concurrency < 1 {
		return fmt.Errorf("worker.concurrency must be at least 1, got %d", c.Worker.Concurrency)
	}
	return nil
}

// PreprocessTimeout returns the parsed preprocessing await deadline
func (c *Config) PreprocessTimeout() time.Duration {
	d, err := time.ParseDuration(c.Bridge.PreprocessTimeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// GraceWindow returns the parsed unclaimed-outcome cache window
func (c *Config) GraceWindow() time.Duration {
	d, err := time.ParseDuration(c.Bridge.GraceWindow)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// TranslatorTimeout returns the parsed per-call translation deadline
func (c *Config) TranslatorTimeout() time.Duration {
	d, err := time.ParseDuration(c.Translator.RequestTimeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// ActiveThreshold returns the parsed stuck threshold for translating jobs
func (c *Config) ActiveThreshold() time.Duration {
	d, err := time.ParseDuration(c.Monitor.ActiveThreshold)
	if err != nil {
		return 60 * time.Second
	}
	return d
}

// WaitingThreshold returns the parsed stuck threshold for awaiting jobs
func (c *Config) WaitingThreshold() time.Duration {
	d, err := time.ParseDuration(c.Monitor.WaitingThreshold)
	if err != nil {
		return 45 * time.Second
	}
	return d
}
