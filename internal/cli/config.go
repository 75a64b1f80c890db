package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/roach88/querytext/internal/dialect"
	"github.com/roach88/querytext/internal/dialects"
	"github.com/roach88/querytext/internal/store"
)

// DefaultConfigFile is looked up in the working directory when --config is
// not given.
const DefaultConfigFile = "querytext.yaml"

// envPrefix marks environment variables read as configuration.
// QUERYTEXT_DATABASE_DSN sets database.dsn.
const envPrefix = "QUERYTEXT_"

// Config is the resolved CLI configuration.
type Config struct {
	Dialect     string         `koanf:"dialect"`
	Format      string         `koanf:"format"`
	Verbose     bool           `koanf:"verbose"`
	Placeholder string         `koanf:"placeholder"` // "" = dialect default
	Database    DatabaseConfig `koanf:"database"`
	Watch       WatchConfig    `koanf:"watch"`

	// File is the config file that was read, empty if none.
	File string `koanf:"-"`
}

// DatabaseConfig selects the connection used by exec.
type DatabaseConfig struct {
	Driver string `koanf:"driver"`
	DSN    string `koanf:"dsn"`
}

// WatchConfig tunes render --watch.
type WatchConfig struct {
	Debounce time.Duration `koanf:"debounce"`
}

// flagKeys maps flag names to config keys where they differ.
var flagKeys = map[string]string{
	"driver":   "database.driver",
	"dsn":      "database.dsn",
	"debounce": "watch.debounce",
}

// LoadConfig loads configuration from defaults, the config file, environment
// variables and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults
//
// Only flags that were explicitly set override lower layers.
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Load defaults
	if err := k.Load(confmap.Provider(map[string]any{
		"dialect":         dialects.Default,
		"format":          "text",
		"verbose":         false,
		"placeholder":     "",
		"database.driver": store.DriverSQLite,
		"database.dsn":    ":memory:",
		"watch.debounce":  "200ms",
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Find and load config file
	used := cfgFile
	if used == "" {
		if _, err := os.Stat(DefaultConfigFile); err == nil {
			used = DefaultConfigFile
		}
	}
	if used != "" {
		if err := k.Load(file.Provider(used), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", used, err)
		}
	}

	// 3. Load environment variables (QUERYTEXT_ prefix)
	// Transform: QUERYTEXT_WATCH_DEBOUNCE -> watch.debounce
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "_", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Load flags (highest priority - overrides env vars and config file)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed || f.Name == "config" {
				return "", nil
			}
			key := f.Name
			if mapped, ok := flagKeys[key]; ok {
				key = mapped
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.File = used

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if !isValidFormat(c.Format) {
		return fmt.Errorf("invalid format %q: must be one of %v", c.Format, ValidFormats)
	}
	if c.Placeholder != "" {
		if _, ok := dialect.ParsePlaceholderStyle(c.Placeholder); !ok {
			return fmt.Errorf("invalid placeholder %q: must be question or dollar", c.Placeholder)
		}
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("invalid watch.debounce %s: must be non-negative", c.Watch.Debounce)
	}
	return nil
}

// ResolveDialect looks up the configured dialect, or name when non-empty,
// applying the placeholder override.
func (c *Config) ResolveDialect(reg *dialect.Registry, name string) (*dialect.Patterns, error) {
	if name == "" {
		name = c.Dialect
	}
	p, err := reg.Lookup(name)
	if err != nil {
		return nil, err
	}
	if c.Placeholder == "" {
		return p, nil
	}

	style, _ := dialect.ParsePlaceholderStyle(c.Placeholder)
	if style == p.PlaceholderStyle() {
		return p, nil
	}
	return dialect.Extend(p, p.Name()).Placeholder(style).Build()
}
