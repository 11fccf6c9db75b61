package mfe

import (
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode"

	"github.com/GoCodeAlone/mfe/feeders"
)

// EnvPrefix is the prefix of environment variables read by LoadConfig.
const EnvPrefix = "MFE"

// Config holds the runtime settings.
type Config struct {
	// Product is the name at the start of every formatted error message.
	Product string `yaml:"product" toml:"product" env:"PRODUCT"`

	// DocsBaseURL is where error codes are documented.
	DocsBaseURL string `yaml:"docsBaseUrl" toml:"docs_base_url" env:"DOCS_BASE_URL"`

	// StripMessages drops human-readable text from formatted error messages.
	StripMessages bool `yaml:"stripMessages" toml:"strip_messages" env:"STRIP_MESSAGES"`

	// LifecycleTimeout bounds every lifecycle function. Zero disables it.
	LifecycleTimeout time.Duration `yaml:"lifecycleTimeout" toml:"lifecycle_timeout" env:"LIFECYCLE_TIMEOUT"`

	// LoadErrorRetryDelay is how long a unit stays in LOAD_ERROR before a
	// navigation may try to load it again.
	LoadErrorRetryDelay time.Duration `yaml:"loadErrorRetryDelay" toml:"load_error_retry_delay" env:"LOAD_ERROR_RETRY_DELAY"`

	// UnhandledQueueSize is the buffer of the queue that reports failures
	// no error handler was registered for. Reports that overflow it are not
	// delayed; they are delivered out of order instead.
	UnhandledQueueSize int `yaml:"unhandledQueueSize" toml:"unhandled_queue_size" env:"UNHANDLED_QUEUE_SIZE"`

	// LogLevel is read by the command line tools when building a logger.
	LogLevel string `yaml:"logLevel" toml:"log_level" env:"LOG_LEVEL"`
}

// DefaultConfig returns the default runtime settings.
func DefaultConfig() *Config {
	return &Config{
		Product:             DefaultProduct,
		DocsBaseURL:         DefaultDocsBaseURL,
		StripMessages:       stripMessagesByDefault,
		LoadErrorRetryDelay: 200 * time.Millisecond,
		UnhandledQueueSize:  64,
		LogLevel:            "info",
	}
}

// Validate checks the settings.
func (c *Config) Validate() error {
	if c.Product == "" {
		return ErrConfigEmptyProduct
	}
	if strings.ContainsFunc(c.Product, unicode.IsSpace) {
		return fmt.Errorf("%w: %q", ErrConfigInvalidProduct, c.Product)
	}
	if strings.ContainsFunc(c.DocsBaseURL, unicode.IsSpace) {
		return fmt.Errorf("%w: %q contains whitespace", ErrConfigInvalidDocsURL, c.DocsBaseURL)
	}
	if _, err := url.ParseRequestURI(c.DocsBaseURL); err != nil {
		return fmt.Errorf("%w: %w", ErrConfigInvalidDocsURL, err)
	}
	if c.UnhandledQueueSize <= 0 {
		return fmt.Errorf("%w: %d", ErrConfigInvalidQueueSize, c.UnhandledQueueSize)
	}
	if c.LifecycleTimeout < 0 || c.LoadErrorRetryDelay < 0 {
		return ErrConfigInvalidTimeout
	}
	return nil
}

// Formatter returns the error formatter described by the settings.
func (c *Config) Formatter() *ErrorFormatter {
	return &ErrorFormatter{
		Product:       c.Product,
		DocsBaseURL:   c.DocsBaseURL,
		StripMessages: c.StripMessages,
	}
}

// LoadConfig starts from DefaultConfig, applies each file in order (YAML or
// TOML, chosen by extension), then MFE_* environment variables, and
// validates the result.
func LoadConfig(paths ...string) (*Config, error) {
	cfg := DefaultConfig()

	for _, path := range paths {
		feeder, err := feeders.ForFile(path)
		if err != nil {
			return nil, err
		}
		if err := feeder.Feed(cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
		}
	}

	if err := feeders.NewEnvFeeder(EnvPrefix).Feed(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
