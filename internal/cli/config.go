package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Defaults applied before any config source is consulted.
const (
	DefaultUser   = "local"
	DefaultOutput = "table"
)

// Config holds the resolved runtime settings.
type Config struct {
	// DatabasePath is the sqlite notes database. Empty means an
	// in-memory store that lives for the duration of the process.
	DatabasePath string `koanf:"database"`
	// User scopes the notes this process sees.
	User string `koanf:"user"`
	// Output selects the render style for listings (table or csv).
	Output  string `koanf:"output"`
	Verbose bool   `koanf:"verbose"`
}

var configFileUsed string

// findConfigFile picks the config file to use.
// Priority: explicit path > margin.yaml > margin.yml
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range []string{"margin.yaml", "margin.yml"} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// LoadConfig layers configuration sources.
// Precedence (highest to lowest): flags > env vars > config file > defaults
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(map[string]interface{}{
		"database": "",
		"user":     DefaultUser,
		"output":   DefaultOutput,
		"verbose":  false,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	configFileUsed = findConfigFile(cfgFile)
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
	}

	// MARGIN_DATABASE -> database
	if err := k.Load(env.Provider("MARGIN_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "MARGIN_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	return &cfg, nil
}

// ConfigFileUsed returns the path of the config file loaded, if any.
func ConfigFileUsed() string {
	return configFileUsed
}
