package configs

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/i2y/talos-mcp/internal/usecase"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "talos_mcp"

// Defaults applied after file and environment are merged.
const (
	DefaultTalosctlPath = "talosctl"
	DefaultLogLevel     = "info"
)

// Config holds the application configuration, merged from an optional YAML
// file and environment variables prefixed with "TALOS_MCP_". Environment
// variables win over file values. Fields tagged with a well-known name
// (TALOSCONFIG, OTEL_EXPORTER_OTLP_*) also accept the unprefixed variable.
type Config struct {
	// ConfigFile names the YAML file. Env only.
	ConfigFile string `envconfig:"CONFIG_FILE" yaml:"-"`

	// TalosConfig is the talosctl client configuration path. Required.
	TalosConfig string `envconfig:"TALOSCONFIG" yaml:"talosconfig"`

	TalosctlPath string        `envconfig:"TALOSCTL_PATH" yaml:"talosctl_path"`
	ExecTimeout  time.Duration `envconfig:"EXEC_TIMEOUT" yaml:"exec_timeout"` // 0 disables the limit

	LogLevel string `envconfig:"LOG_LEVEL" yaml:"log_level"`
	LogFile  string `envconfig:"LOG_FILE" yaml:"log_file"` // empty means stderr

	// DisabledTools are removed from the registry and the method table.
	DisabledTools []string `envconfig:"DISABLED_TOOLS" yaml:"disabled_tools"`

	// ExtraEnv is added to the talosctl environment. File only.
	ExtraEnv map[string]string `ignored:"true" yaml:"extra_env"`

	OtelExporterOtlpEndpoint string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT" yaml:"otel_exporter_otlp_endpoint"`
	OtelExporterOtlpInsecure bool   `envconfig:"OTEL_EXPORTER_OTLP_INSECURE" yaml:"otel_exporter_otlp_insecure"`
}

// ParsedLogLevel returns the slog.Level based on the configured LogLevel string.
func (c *Config) ParsedLogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "info":
		fallthrough
	default:
		return slog.LevelInfo
	}
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var result *multierror.Error
	if c.TalosConfig == "" {
		result = multierror.Append(result, errors.New("TALOSCONFIG is not set"))
	}
	if c.ExecTimeout < 0 {
		result = multierror.Append(result, fmt.Errorf("exec timeout must not be negative, got %s", c.ExecTimeout))
	}
	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		result = multierror.Append(result, fmt.Errorf("unknown log level %q", c.LogLevel))
	}
	for key := range c.ExtraEnv {
		if key == "" || strings.Contains(key, "=") {
			result = multierror.Append(result, fmt.Errorf("invalid extra_env key %q", key))
		}
	}
	return result.ErrorOrNil()
}

// Load reads the YAML file named by TALOS_MCP_CONFIG_FILE (if any), overlays
// environment variables, applies defaults and validates the result. Every
// failure wraps usecase.ErrConfiguration.
func Load() (*Config, error) {
	var cfg Config

	// 1. The file path itself only comes from the environment.
	var locate struct {
		ConfigFile string `envconfig:"CONFIG_FILE"`
	}
	if err := envconfig.Process(EnvPrefix, &locate); err != nil {
		return nil, fmt.Errorf("%w: failed to process environment variables: %w", usecase.ErrConfiguration, err)
	}

	// 2. File values.
	if locate.ConfigFile != "" {
		data, err := os.ReadFile(locate.ConfigFile)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read config file '%s': %w", usecase.ErrConfiguration, locate.ConfigFile, err)
		}
		if err := decodeFile(data, &cfg); err != nil {
			return nil, fmt.Errorf("%w: failed to parse config file '%s': %w", usecase.ErrConfiguration, locate.ConfigFile, err)
		}
		slog.Debug("Loaded configuration from file.", "path", locate.ConfigFile)
	}

	// 3. Environment overrides. Fields without a variable keep the file value.
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to process environment variables: %w", usecase.ErrConfiguration, err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", usecase.ErrConfiguration, err)
	}
	return &cfg, nil
}

func decodeFile(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.TalosctlPath == "" {
		c.TalosctlPath = DefaultTalosctlPath
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
}

// Usage writes the environment variables understood by Load.
func Usage(w io.Writer) error {
	return envconfig.Usagef(EnvPrefix, &Config{}, w, envconfig.DefaultTableFormat)
}
