// Package config loads the CLI configuration from defaults, an optional YAML
// file and USERPOSTS_* environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is stripped from environment variables before mapping them to
// keys: USERPOSTS_RETRY_MAX_ATTEMPTS -> retry.max_attempts.
const EnvPrefix = "USERPOSTS_"

// Config is the full CLI configuration.
type Config struct {
	API     APIConfig     `koanf:"api"`
	Retry   RetryConfig   `koanf:"retry"`
	Log     LogConfig     `koanf:"log"`
	Output  OutputConfig  `koanf:"output"`
	Redis   RedisConfig   `koanf:"redis"`
	Metrics MetricsConfig `koanf:"metrics"`
}

// APIConfig points at the upstream API.
type APIConfig struct {
	BaseURL   string        `koanf:"base_url" validate:"required,url"`
	UserAgent string        `koanf:"user_agent" validate:"required"`
	Timeout   time.Duration `koanf:"timeout" validate:"gt=0"`
}

// RetryConfig bounds the fetch retries.
type RetryConfig struct {
	MaxAttempts    int           `koanf:"max_attempts" validate:"gte=1,lte=10"`
	InitialBackoff time.Duration `koanf:"initial_backoff" validate:"gte=0"`
	MaxBackoff     time.Duration `koanf:"max_backoff" validate:"gtefield=InitialBackoff"`
}

// LogConfig configures zerolog.
type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn warning error"`
	Pretty bool   `koanf:"pretty"`
}

// OutputConfig selects how the snapshot is printed to stdout.
type OutputConfig struct {
	Format string `koanf:"format" validate:"oneof=json pretty none"`
}

// RedisConfig enables the Redis sink when Addr is set.
type RedisConfig struct {
	Addr     string        `koanf:"addr" validate:"omitempty,hostname_port"`
	Password string        `koanf:"password"`
	DB       int           `koanf:"db" validate:"gte=0"`
	Prefix   string        `koanf:"prefix"`
	TTL      time.Duration `koanf:"ttl" validate:"gte=0"`
}

// MetricsConfig enables the textfile export when Textfile is set.
type MetricsConfig struct {
	Textfile string `koanf:"textfile"`
}

func defaults() map[string]any {
	return map[string]any{
		"api.base_url":          "https://jsonplaceholder.typicode.com",
		"api.user_agent":        "userposts/0.1.0",
		"api.timeout":           "30s",
		"retry.max_attempts":    3,
		"retry.initial_backoff": "250ms",
		"retry.max_backoff":     "5s",
		"log.level":             "info",
		"log.pretty":            false,
		"output.format":         "json",
		"redis.addr":            "",
		"redis.db":              0,
		"redis.prefix":          "userposts",
		"redis.ttl":             "24h",
		"metrics.textfile":      "",
	}
}

// Load builds the configuration. path may be empty; a path that does not
// exist is an error, since it was asked for explicitly.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file %s not found: %w", path, err)
			}
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(".", env.Opt{
		Prefix:        EnvPrefix,
		TransformFunc: envKey,
	}), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// envKey maps USERPOSTS_API_BASE_URL to api.base_url: the first underscore
// separates the section, the rest stay part of the field name.
func envKey(k, v string) (string, any) {
	k = strings.ToLower(strings.TrimPrefix(k, EnvPrefix))
	section, field, found := strings.Cut(k, "_")
	if !found {
		return k, v
	}
	return section + "." + field, v
}

// Validate checks cfg against its struct tags.
func Validate(cfg *Config) error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(cfg); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			fields := make([]string, 0, len(validationErrs))
			for _, fe := range validationErrs {
				fields = append(fields, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("%s: %w", strings.Join(fields, "; "), err)
		}
		return err
	}
	return nil
}
