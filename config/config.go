// Package config loads the textboxer configuration.
//
// Configuration comes from a single YAML file named by the --config flag or,
// when the flag is absent, the TEXTBOXER_CONFIG environment variable. Without
// either, the defaults are used unchanged. Command-line flags that are set
// explicitly override file values (see main).
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ByLCY/textboxer/expand"
)

// EnvVar names the environment variable consulted when no --config flag is given.
const EnvVar = "TEXTBOXER_CONFIG"

// Binding modes for positional arguments.
const (
	ModeStr  = "str"
	ModeArgs = "args"
)

// Config is the textboxer configuration.
type Config struct {
	// Resources is the root directory of the resource store.
	// Default: resources
	Resources string `yaml:"resources"`

	// DefaultStyle overrides the defaultstyle declared by the default data.
	DefaultStyle string `yaml:"default_style"`

	// Filter is the resize filter used by images that name none.
	// Default: nearest
	Filter string `yaml:"filter"`

	// Mode selects how positional arguments are bound: str or args.
	// Default: str
	Mode string `yaml:"mode"`

	// LogLevel is one of debug, info, warn, error.
	// Default: info
	LogLevel string `yaml:"log_level"`

	// DebugJSON, when set, is the path the layout result is dumped to.
	DebugJSON string `yaml:"debug_json"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Resources: "resources",
		Filter:    expand.DefaultFilter,
		Mode:      ModeStr,
		LogLevel:  "info",
	}
}

// Load reads the file at path, falling back to $TEXTBOXER_CONFIG when path is
// empty. With neither set the defaults are returned.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvVar)
	}
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile loads configuration from a specific file on top of the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件 %s 失败: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration and reports every problem at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Resources == "" {
		errs = append(errs, fmt.Errorf("resources is required"))
	}
	if c.Mode != ModeStr && c.Mode != ModeArgs {
		errs = append(errs, fmt.Errorf("mode must be one of: %s, %s", ModeStr, ModeArgs))
	}
	if !knownFilter(c.Filter) {
		errs = append(errs, fmt.Errorf("filter %q is not a known resize filter", c.Filter))
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return slog.LevelInfo, fmt.Errorf("log_level %q is invalid: %w", c.LogLevel, err)
	}
	return level, nil
}

func knownFilter(name string) bool {
	for _, f := range expand.Filters() {
		if strings.EqualFold(f, name) {
			return true
		}
	}
	return false
}
