// Package config handles YAML configuration loading with environment variable expansion.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"time"

	"go.yaml.in/yaml/v3"

	restorehq "github.com/eugener/restorehq/internal"
)

// Config is the top-level service configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Areas     []AreaEntry     `yaml:"areas"`
	Cache     CacheConfig     `yaml:"cache"`
	Search    SearchConfig    `yaml:"search"`
	Contact   ContactConfig   `yaml:"contact"`
	Notifiers NotifiersConfig `yaml:"notifiers"`
	Health    HealthConfig    `yaml:"health"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	TrustProxy      bool          `yaml:"trust_proxy"` // take client IP from X-Forwarded-For
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Format string `yaml:"format"` // "text" or "json"
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
}

// AreaEntry seeds one service area at startup.
type AreaEntry struct {
	Name     string `yaml:"name"`
	Postcode string `yaml:"postcode"`
	Active   *bool  `yaml:"active"`
}

// IsActive reports whether the area starts active (defaults to true when nil).
func (a AreaEntry) IsActive() bool {
	return a.Active == nil || *a.Active
}

// CacheConfig holds search result cache settings.
type CacheConfig struct {
	MaxSize int           `yaml:"max_size"`
	TTL     time.Duration `yaml:"ttl"`
}

// SearchConfig is the static content indexed by site search.
type SearchConfig struct {
	Services []restorehq.Service `yaml:"services"`
	Articles []restorehq.Article `yaml:"articles"`
}

// ContactConfig configures contact-form handling and lead emails.
type ContactConfig struct {
	RateLimitRPM int    `yaml:"rate_limit_rpm"` // per client IP, 0 = unlimited
	Business     string `yaml:"business"`
	TeamEmail    string `yaml:"team_email"`
	Phone        string `yaml:"phone"`
	SubjectHint  string `yaml:"subject_hint"`
}

// NotifiersConfig holds the two lead delivery upstreams.
type NotifiersConfig struct {
	Leads UpstreamConfig `yaml:"leads"`
	CRM   UpstreamConfig `yaml:"crm"`
}

// UpstreamConfig describes one notification API.
type UpstreamConfig struct {
	BaseURL    string        `yaml:"base_url"` // empty disables the upstream
	Path       string        `yaml:"path"`
	HealthPath string        `yaml:"health_path"`
	StatusPath string        `yaml:"status_path"` // gjson path checked by health probes
	Expect     string        `yaml:"expect"`
	Timeout    time.Duration `yaml:"timeout"`
	HTTP2      bool          `yaml:"http2"`
	Auth       AuthEntry     `yaml:"auth"`
	Breaker    BreakerEntry  `yaml:"breaker"`
}

// Enabled reports whether a base URL is configured.
func (u UpstreamConfig) Enabled() bool { return u.BaseURL != "" }

// AuthEntry configures upstream authentication. OAuth client credentials
// take precedence over a static API key.
type AuthEntry struct {
	APIKey       string   `yaml:"api_key"`
	Header       string   `yaml:"header"`
	Prefix       string   `yaml:"prefix"`
	ClientID     string   `yaml:"client_id"`
	ClientSecret string   `yaml:"client_secret"`
	TokenURL     string   `yaml:"token_url"`
	Scopes       []string `yaml:"scopes"`
}

// BreakerEntry tunes an upstream's circuit breaker.
type BreakerEntry struct {
	FailureThreshold float64       `yaml:"failure_threshold"`
	OpenTimeout      time.Duration `yaml:"open_timeout"`
}

// HealthConfig controls the aggregated health endpoint.
type HealthConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

// TelemetryConfig holds observability settings.
type TelemetryConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`
}

// MetricsConfig controls Prometheus metrics.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// TracingConfig controls OpenTelemetry tracing.
type TracingConfig struct {
	Enabled    bool    `yaml:"enabled"`
	Endpoint   string  `yaml:"endpoint"`    // OTLP gRPC endpoint
	SampleRate float64 `yaml:"sample_rate"` // 0.0 to 1.0
}

var envPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnv replaces ${VAR} patterns with environment variable values.
func expandEnv(data []byte) []byte {
	return envPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		varName := string(match[2 : len(match)-1])
		if val, ok := os.LookupEnv(varName); ok {
			return []byte(val)
		}
		return match
	})
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Log: LogConfig{
			Format: "text",
			Level:  "info",
		},
		Areas: defaultAreas(),
		Cache: CacheConfig{
			MaxSize: 10_000,
			TTL:     5 * time.Minute,
		},
		Search: SearchConfig{
			Services: defaultServices(),
		},
		Contact: ContactConfig{
			RateLimitRPM: 5,
			Business:     "Restoration HQ",
			Phone:        "1300 000 000",
		},
		Notifiers: NotifiersConfig{
			Leads: UpstreamConfig{Path: "/leads", HealthPath: "/health", Timeout: 10 * time.Second, HTTP2: true},
			CRM:   UpstreamConfig{Path: "/contacts", HealthPath: "/health", Timeout: 10 * time.Second, HTTP2: true},
		},
		Health: HealthConfig{
			Timeout: 3 * time.Second,
		},
	}
}

// Load reads and parses a YAML config file, expanding environment variables.
// A missing file yields Default.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	data = expandEnv(data)

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

func defaultAreas() []AreaEntry {
	return []AreaEntry{
		{Name: "Brisbane", Postcode: "4000"},
		{Name: "Fortitude Valley", Postcode: "4006"},
		{Name: "South Brisbane", Postcode: "4101"},
		{Name: "Toowong", Postcode: "4066"},
		{Name: "Chermside", Postcode: "4032"},
		{Name: "Ipswich", Postcode: "4305"},
		{Name: "Logan Central", Postcode: "4114"},
		{Name: "Redcliffe", Postcode: "4020"},
		{Name: "Gold Coast", Postcode: "4217"},
		{Name: "Sunshine Coast", Postcode: "4558"},
	}
}

func defaultServices() []restorehq.Service {
	return []restorehq.Service{
		{
			Slug:        "water-damage",
			Name:        "Water Damage Restoration",
			Description: "Extraction, drying and repair after floods, burst pipes and leaks.",
			Keywords:    []string{"flood", "leak", "burst pipe", "drying", "wet carpet"},
		},
		{
			Slug:        "fire-damage",
			Name:        "Fire and Smoke Damage",
			Description: "Soot removal, odour treatment and structural cleaning after a fire.",
			Keywords:    []string{"smoke", "soot", "odour", "burn"},
		},
		{
			Slug:        "mould-remediation",
			Name:        "Mould Remediation",
			Description: "Inspection, containment and removal of mould with moisture control.",
			Keywords:    []string{"mold", "mildew", "damp", "moisture"},
		},
		{
			Slug:        "storm-damage",
			Name:        "Storm Damage Repair",
			Description: "Emergency make-safe, tarping and clean-up after storms and hail.",
			Keywords:    []string{"storm", "hail", "roof", "tarp", "cyclone"},
		},
		{
			Slug:        "sewage-cleanup",
			Name:        "Sewage Clean-up",
			Description: "Safe removal and sanitising of sewage and black water contamination.",
			Keywords:    []string{"sewer", "black water", "overflow", "sanitise"},
		},
	}
}
