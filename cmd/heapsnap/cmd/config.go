// ABOUTME: Viper-backed CLI configuration: output format, cache location, default tracing sample ratio
// ABOUTME: Trimmed from the pack's env/database/APM/scheduler config shape to the sections this CLI actually has

package cmd

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/prateek/heapsnap/store"
)

// Config holds every setting the CLI reads from a config file or
// environment, as opposed to a per-invocation flag.
type Config struct {
	Output OutputConfig `mapstructure:"output"`
	Cache  CacheConfig  `mapstructure:"cache"`
	Trace  TraceConfig  `mapstructure:"trace"`
}

// OutputConfig controls how analysis results are rendered.
type OutputConfig struct {
	Format string `mapstructure:"format"` // "text" or "json"; loaded but not consulted: every command prints text
	TopN   int    `mapstructure:"top_n"`
}

// CacheConfig controls the store package's analysis-summary cache.
type CacheConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// TraceConfig is the config-file equivalent of the --trace flag; tracing is
// on when either the flag or Enabled turns it on (see root.go's
// PersistentPreRunE).
type TraceConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
}

// LoadConfig reads configPath (or the standard search locations when
// empty), applying defaults for anything unset.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("heapsnap")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/heapsnap")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix("HEAPSNAP")
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("output.format", "text")
	v.SetDefault("output.top_n", 10)

	v.SetDefault("cache.enabled", true)
	if defaultCachePath, err := store.DefaultPath(); err == nil {
		v.SetDefault("cache.path", defaultCachePath)
	}

	v.SetDefault("trace.enabled", false)
	v.SetDefault("trace.sample_ratio", 1.0)
}
