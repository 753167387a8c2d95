package relq

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/zoobzio/relq/internal/types"
)

// EnvPrefix prefixes environment variables read by LoadConfig.
// A double underscore separates nested keys: RELQ_PURE__DATABASE sets pure.database.
const EnvPrefix = "RELQ_"

// Config holds engine settings.
type Config struct {
	Dialect     string     `koanf:"dialect"`
	MaxDepth    int        `koanf:"max_depth"`
	SchemaCheck bool       `koanf:"schema_check"`
	Pure        PureConfig `koanf:"pure"`
}

// PureConfig holds settings for the relation-algebra dialect.
type PureConfig struct {
	Database string `koanf:"database"`
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() Config {
	return Config{
		Dialect:  string(types.DuckDB),
		MaxDepth: types.DefaultMaxDepth,
	}
}

// LoadConfig loads settings in priority order: defaults, then the YAML file at
// path (skipped when path is empty), then RELQ_ environment variables.
func LoadConfig(path string) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	def := DefaultConfig()
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"dialect":       def.Dialect,
		"max_depth":     def.MaxDepth,
		"schema_check":  def.SchemaCheck,
		"pure.database": def.Pure.Database,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	// 3. Environment
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the settings are usable.
func (c Config) Validate() error {
	if c.MaxDepth <= 0 {
		return fmt.Errorf("max_depth must be positive, got %d", c.MaxDepth)
	}
	d := types.ParseDialect(c.Dialect)
	if d.Family() == types.FamilyUnknown {
		return types.UnsupportedDialectError{Dialect: d}
	}
	return nil
}
