package hwcodec

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every configuration environment variable.
const EnvPrefix = "HWCODEC"

// Config is the start-up configuration. It selects which backends the
// registry is populated with and how probing runs; it never changes the
// semantics of probing or ranking.
type Config struct {
	LogLevel         string   `mapstructure:"log_level"`         // trace, debug, info, warn, error, off
	LibPath          string   `mapstructure:"lib_path"`          // Directory or file of the native codec shim
	Backends         []string `mapstructure:"backends"`          // Allow list, empty = platform detection
	Disabled         []string `mapstructure:"disabled"`          // Deny list, applied after Backends
	ProbeConcurrency int      `mapstructure:"probe_concurrency"` // 0 = GOMAXPROCS
	Lookahead        int      `mapstructure:"lookahead"`         // rawvideo encoder lookahead depth
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		LogLevel:  "info",
		Lookahead: 2,
	}
}

// LoadConfig reads the configuration from an optional file (any format
// viper understands: yaml, toml, json) and HWCODEC_* environment variables.
// Environment variables win over the file. HWCODEC_LOG is accepted as an
// alias for HWCODEC_LOG_LEVEL.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	def := DefaultConfig()
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("lib_path", def.LibPath)
	v.SetDefault("backends", []string{})
	v.SetDefault("disabled", []string{})
	v.SetDefault("probe_concurrency", def.ProbeConcurrency)
	v.SetDefault("lookahead", def.Lookahead)

	if err := v.BindEnv("log_level", LogEnv, EnvPrefix+"_LOG_LEVEL"); err != nil {
		return Config{}, fmt.Errorf("failed to bind %s: %w", LogEnv, err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.Backends = normalizeNames(cfg.Backends)
	cfg.Disabled = normalizeNames(cfg.Disabled)

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.ProbeConcurrency < 0 {
		return errors.New("probe_concurrency must be >= 0")
	}
	if c.Lookahead < 0 {
		return errors.New("lookahead must be >= 0")
	}
	switch strings.ToLower(c.LogLevel) {
	case "", "trace", "debug", "info", "warn", "error", "off":
	default:
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}
	return nil
}

// Enabled reports whether the backend name passes the allow and deny lists.
func (c Config) Enabled(name string) bool {
	name = strings.ToLower(name)
	for _, d := range c.Disabled {
		if d == name {
			return false
		}
	}
	if len(c.Backends) == 0 {
		return true
	}
	for _, b := range c.Backends {
		if b == name {
			return true
		}
	}
	return false
}

// normalizeNames lower-cases and trims names, splitting comma separated
// entries that arrive through a single environment variable.
func normalizeNames(in []string) []string {
	var out []string
	for _, item := range in {
		for _, name := range strings.Split(item, ",") {
			name = strings.ToLower(strings.TrimSpace(name))
			if name != "" {
				out = append(out, name)
			}
		}
	}
	return out
}
