package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/andybalholm/cascadia"
	"github.com/joho/godotenv"
	"github.com/pfrederiksen/rota-merge/internal/logger"
	"gopkg.in/yaml.v3"
)

// Defaults applied when neither the file nor the environment sets a value.
const (
	DefaultPort          = 8080
	DefaultTimeout       = 10 * time.Second
	DefaultUserAgent     = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	DefaultTableSelector = "table"
	DefaultLogLevel      = "INFO"
)

// DefaultSources are the two clinic rota pages of the reference deployment.
var DefaultSources = []string{
	"https://vchp.my.salesforce-sites.com/rota?clinicId=7014J000000kfMy",
	"https://vchp.my.salesforce-sites.com/rota?clinicId=7014J000000kfNS",
}

// Environment variables that override file values.
const (
	EnvSources       = "ROTA_SOURCES"
	EnvPort          = "PORT"
	EnvTimeout       = "ROTA_TIMEOUT"
	EnvUserAgent     = "ROTA_USER_AGENT"
	EnvTableSelector = "ROTA_TABLE_SELECTOR"
	EnvStaticDir     = "ROTA_STATIC_DIR"
	EnvLogLevel      = "ROTA_LOG_LEVEL"
)

// Config is the root configuration structure.
type Config struct {
	// Port is the HTTP server port.
	Port int `yaml:"port"`

	// Sources are the rota page URLs, merged in this order.
	Sources []string `yaml:"sources"`

	// Timeout bounds each individual source fetch.
	Timeout Duration `yaml:"timeout"`

	// UserAgent is sent with every fetch.
	UserAgent string `yaml:"user_agent"`

	// TableSelector locates the rota table on each page; the first match wins.
	TableSelector string `yaml:"table_selector"`

	// StaticDir holds rota.html. Empty means the embedded page.
	StaticDir string `yaml:"static_dir"`

	// LogLevel is one of DEBUG, INFO, WARN, ERROR.
	LogLevel string `yaml:"log_level"`
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Default returns a Config populated with default values.
func Default() *Config {
	sources := make([]string, len(DefaultSources))
	copy(sources, DefaultSources)
	return &Config{
		Port:          DefaultPort,
		Sources:       sources,
		Timeout:       Duration(DefaultTimeout),
		UserAgent:     DefaultUserAgent,
		TableSelector: DefaultTableSelector,
		LogLevel:      DefaultLogLevel,
	}
}

// Load builds the effective configuration: defaults, then the YAML file at
// path (skipped when path is empty), then a .env file in the working directory,
// then environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
		if err := cfg.decode(data); err != nil {
			return nil, err
		}
	}

	// .env is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("Could not load .env file", logger.Fields{"error": err.Error()})
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// Parse parses YAML configuration data on top of the defaults. Environment
// overrides are not applied; ${VAR} references in values are.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := cfg.decode(data); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func (c *Config) decode(data []byte) error {
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config: parse yaml: %w", err)
	}

	var err error
	for i, src := range c.Sources {
		if c.Sources[i], err = expandEnvVars(src); err != nil {
			return fmt.Errorf("config: sources[%d]: %w", i, err)
		}
	}
	for name, field := range map[string]*string{
		"user_agent":     &c.UserAgent,
		"table_selector": &c.TableSelector,
		"static_dir":     &c.StaticDir,
		"log_level":      &c.LogLevel,
	} {
		if *field, err = expandEnvVars(*field); err != nil {
			return fmt.Errorf("config: %s: %w", name, err)
		}
	}
	return nil
}

// applyEnv overrides fields from environment variables that are set and non-empty.
func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvSources); v != "" {
		c.Sources = SplitSources(v)
	}
	if v := os.Getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: invalid port %q", EnvPort, v)
		}
		c.Port = port
	}
	if v := os.Getenv(EnvTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: invalid duration %q: %w", EnvTimeout, v, err)
		}
		c.Timeout = Duration(d)
	}
	if v := os.Getenv(EnvUserAgent); v != "" {
		c.UserAgent = v
	}
	if v := os.Getenv(EnvTableSelector); v != "" {
		c.TableSelector = v
	}
	if v := os.Getenv(EnvStaticDir); v != "" {
		c.StaticDir = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	return nil
}

// SplitSources splits a comma-separated URL list, dropping blanks.
func SplitSources(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate checks required fields and structural constraints.
func (c *Config) Validate() error {
	if len(c.Sources) == 0 {
		return fmt.Errorf("at least one source is required")
	}
	for i, src := range c.Sources {
		u, err := url.Parse(src)
		if err != nil {
			return fmt.Errorf("sources[%d]: invalid URL %q: %w", i, src, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("sources[%d]: URL %q must use http or https", i, src)
		}
		if u.Host == "" {
			return fmt.Errorf("sources[%d]: URL %q has no host", i, src)
		}
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	if c.Timeout.Duration() <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout.Duration())
	}
	if strings.TrimSpace(c.TableSelector) == "" {
		return fmt.Errorf("table_selector must not be empty")
	}
	if _, err := cascadia.ParseGroup(c.TableSelector); err != nil {
		return fmt.Errorf("table_selector %q: %w", c.TableSelector, err)
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	return nil
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} references.
// An unset variable without a default is an error.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		varName := submatches[1]
		hasDefault := submatches[2] != ""

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return submatches[3]
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}
