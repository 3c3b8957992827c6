package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for skywatch.
type Config struct {
	Backend      BackendConfig
	Polling      PollingConfig
	RateLimit    RateLimitConfig
	Store        StoreConfig
	Notification NotificationConfig
	Metrics      MetricsConfig
	Output       OutputConfig
}

// BackendConfig locates the weather-analysis API.
type BackendConfig struct {
	BaseURL        string        // includes the /api prefix
	Timeout        time.Duration // per-request timeout
	MaxRetries     int           // retries for idempotent GETs
	RetryBaseDelay time.Duration
}

// PollingConfig controls job progress polling.
type PollingConfig struct {
	Interval    time.Duration
	MaxDuration time.Duration // zero disables the timeout
}

// RateLimitConfig controls per-endpoint request pacing.
type RateLimitConfig struct {
	MinDelay          time.Duration            // minimum gap between requests to the same endpoint
	EndpointOverrides map[string]time.Duration // keyed by endpoint name, e.g. "progress"
}

// MinDelayFor returns the configured delay for the given endpoint, falling back to MinDelay.
func (r RateLimitConfig) MinDelayFor(endpoint string) time.Duration {
	if d, ok := r.EndpointOverrides[endpoint]; ok {
		return d
	}
	return r.MinDelay
}

// StoreConfig locates the local session database.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// NotificationConfig controls which notifier is used and its settings.
type NotificationConfig struct {
	Type       string `yaml:"type"`        // "log" or "slack"
	WebhookURL string `yaml:"webhook_url"` // required if type is "slack"
}

// MetricsConfig enables the Prometheus endpoint when Addr is set.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// OutputConfig controls where downloaded files go.
type OutputConfig struct {
	Dir string `yaml:"dir"`
}

const (
	defaultBaseURL        = "http://localhost:5000/api"
	defaultTimeout        = 30 * time.Second
	defaultMaxRetries     = 2
	defaultRetryBaseDelay = time.Second
	defaultInterval       = 2 * time.Second
	defaultMaxDuration    = 30 * time.Minute
	defaultMinDelay       = 200 * time.Millisecond
	defaultStorePath      = "skywatch.db"
	defaultOutputDir      = "output"
	slackWebhookPrefix    = "https://hooks.slack.com/"
)

// rawConfig is used for YAML unmarshaling (snake_case fields and duration as string).
type rawConfig struct {
	Backend      rawBackendConfig   `yaml:"backend"`
	Polling      rawPollingConfig   `yaml:"polling"`
	RateLimit    rawRateLimitConfig `yaml:"rate_limit"`
	Store        StoreConfig        `yaml:"store"`
	Notification NotificationConfig `yaml:"notification"`
	Metrics      MetricsConfig      `yaml:"metrics"`
	Output       OutputConfig       `yaml:"output"`
}

type rawBackendConfig struct {
	BaseURL        string `yaml:"base_url"`
	Timeout        string `yaml:"timeout"`
	MaxRetries     *int   `yaml:"max_retries"`
	RetryBaseDelay string `yaml:"retry_base_delay"`
}

type rawPollingConfig struct {
	Interval    string `yaml:"interval"`
	MaxDuration string `yaml:"max_duration"`
}

type rawRateLimitConfig struct {
	MinDelay          string            `yaml:"min_delay"`
	EndpointOverrides map[string]string `yaml:"endpoint_overrides"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Backend: BackendConfig{
			BaseURL:        defaultBaseURL,
			Timeout:        defaultTimeout,
			MaxRetries:     defaultMaxRetries,
			RetryBaseDelay: defaultRetryBaseDelay,
		},
		Polling: PollingConfig{
			Interval:    defaultInterval,
			MaxDuration: defaultMaxDuration,
		},
		RateLimit: RateLimitConfig{
			MinDelay:          defaultMinDelay,
			EndpointOverrides: map[string]time.Duration{},
		},
		Store:        StoreConfig{Path: defaultStorePath},
		Notification: NotificationConfig{Type: "log"},
		Output:       OutputConfig{Dir: defaultOutputDir},
	}
}

// Load reads and parses the YAML config file at path, validates it, and returns Config.
// A missing file yields an error wrapping fs.ErrNotExist.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse expands environment variables in data, applies defaults for unset
// fields and validates the result.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg := Default()
	var err error

	if raw.Backend.BaseURL != "" {
		cfg.Backend.BaseURL = strings.TrimRight(raw.Backend.BaseURL, "/")
	}
	if err = parseDuration("backend.timeout", raw.Backend.Timeout, &cfg.Backend.Timeout); err != nil {
		return nil, err
	}
	if raw.Backend.MaxRetries != nil {
		cfg.Backend.MaxRetries = *raw.Backend.MaxRetries
	}
	if err = parseDuration("backend.retry_base_delay", raw.Backend.RetryBaseDelay, &cfg.Backend.RetryBaseDelay); err != nil {
		return nil, err
	}

	if err = parseDuration("polling.interval", raw.Polling.Interval, &cfg.Polling.Interval); err != nil {
		return nil, err
	}
	if err = parseDuration("polling.max_duration", raw.Polling.MaxDuration, &cfg.Polling.MaxDuration); err != nil {
		return nil, err
	}

	if err = parseDuration("rate_limit.min_delay", raw.RateLimit.MinDelay, &cfg.RateLimit.MinDelay); err != nil {
		return nil, err
	}
	for endpoint, value := range raw.RateLimit.EndpointOverrides {
		d, err := time.ParseDuration(value)
		if err != nil {
			return nil, fmt.Errorf("parse rate_limit.endpoint_overrides[%q]: %w", endpoint, err)
		}
		cfg.RateLimit.EndpointOverrides[endpoint] = d
	}

	if raw.Store.Path != "" {
		cfg.Store.Path = raw.Store.Path
	}
	if raw.Notification.Type != "" {
		cfg.Notification = raw.Notification
	}
	cfg.Metrics = raw.Metrics
	if raw.Output.Dir != "" {
		cfg.Output.Dir = raw.Output.Dir
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// parseDuration parses value into dst unless value is empty.
func parseDuration(field, value string, dst *time.Duration) error {
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s %q: %w", field, value, err)
	}
	*dst = d
	return nil
}

func validate(cfg *Config) error {
	u, err := url.Parse(cfg.Backend.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("backend.base_url must be an absolute http(s) URL, got %q", cfg.Backend.BaseURL)
	}
	if cfg.Backend.Timeout <= 0 {
		return fmt.Errorf("backend.timeout must be positive, got %v", cfg.Backend.Timeout)
	}
	if cfg.Backend.MaxRetries < 0 {
		return fmt.Errorf("backend.max_retries must not be negative, got %d", cfg.Backend.MaxRetries)
	}

	if cfg.Polling.Interval <= 0 {
		return fmt.Errorf("polling.interval must be positive, got %v", cfg.Polling.Interval)
	}
	if cfg.Polling.MaxDuration < 0 {
		return fmt.Errorf("polling.max_duration must not be negative, got %v", cfg.Polling.MaxDuration)
	}
	if cfg.Polling.MaxDuration > 0 && cfg.Polling.MaxDuration < cfg.Polling.Interval {
		return fmt.Errorf("polling.max_duration (%v) is shorter than polling.interval (%v)", cfg.Polling.MaxDuration, cfg.Polling.Interval)
	}

	if cfg.RateLimit.MinDelay < 0 {
		return fmt.Errorf("rate_limit.min_delay must not be negative, got %v", cfg.RateLimit.MinDelay)
	}
	for endpoint, d := range cfg.RateLimit.EndpointOverrides {
		if d < 0 {
			return fmt.Errorf("rate_limit.endpoint_overrides[%q] must not be negative, got %v", endpoint, d)
		}
	}

	switch cfg.Notification.Type {
	case "log":
	case "slack":
		if cfg.Notification.WebhookURL == "" {
			return fmt.Errorf("notification.webhook_url is required when type is \"slack\"")
		}
		if !strings.HasPrefix(cfg.Notification.WebhookURL, slackWebhookPrefix) {
			return fmt.Errorf("notification.webhook_url must start with %s", slackWebhookPrefix)
		}
	default:
		return fmt.Errorf("notification.type must be \"log\" or \"slack\", got %q", cfg.Notification.Type)
	}

	return nil
}
