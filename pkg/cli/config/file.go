package config

import (
	"os"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v3"
)

// FileConfig is the optional TOML configuration file. Its values are used
// for flags that were not set on the command line or in the environment.
type FileConfig struct {
	Sync  SyncFile  `toml:"sync"`
	Cache CacheFile `toml:"cache"`
}

// SyncFile is the [sync] table. Durations use time.ParseDuration syntax.
type SyncFile struct {
	DebounceWindow string `toml:"debounce_window"`
	FetchTimeout   string `toml:"fetch_timeout"`
	SettleDelay    string `toml:"settle_delay"`
	ReconnectDelay string `toml:"reconnect_delay"`
	ProbeURL       string `toml:"probe_url"`
	ProbeInterval  string `toml:"probe_interval"`
	ProbeTimeout   string `toml:"probe_timeout"`
}

// CacheFile is the [cache] table
type CacheFile struct {
	Backend      string `toml:"backend"`
	Path         string `toml:"path"`
	RedisAddr    string `toml:"redis_addr"`
	RedisDB      *int   `toml:"redis_db"`
	Installation string `toml:"installation"`
	MaxBytes     *int   `toml:"max_bytes"`
}

// File holds the --config flag
type File struct {
	path string
}

func (f *File) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Path to a TOML configuration file",
			Sources:     cli.EnvVars("REPAIRDESK_CONFIG"),
			Destination: &f.path,
		},
	}
}

// Load reads the configuration file. An empty path yields an empty config.
func (f *File) Load() (*FileConfig, error) {
	if f.path == "" {
		return &FileConfig{}, nil
	}
	return LoadFile(f.path)
}

// LoadFile reads and validates a TOML configuration file
func LoadFile(path string) (*FileConfig, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read config file", goerr.V(ConfigPathKey, path))
	}

	var cfg FileConfig
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, goerr.Wrap(ErrInvalidConfig, "failed to parse TOML config",
			goerr.V(ConfigPathKey, path), goerr.V("cause", err.Error()))
	}

	if err := cfg.Validate(); err != nil {
		return nil, goerr.Wrap(err, "config validation failed", goerr.V(ConfigPathKey, path))
	}

	return &cfg, nil
}

// Validate checks that every duration in the file parses
func (c *FileConfig) Validate() error {
	durations := map[string]string{
		"sync.debounce_window": c.Sync.DebounceWindow,
		"sync.fetch_timeout":   c.Sync.FetchTimeout,
		"sync.settle_delay":    c.Sync.SettleDelay,
		"sync.reconnect_delay": c.Sync.ReconnectDelay,
		"sync.probe_interval":  c.Sync.ProbeInterval,
		"sync.probe_timeout":   c.Sync.ProbeTimeout,
	}
	for name, v := range durations {
		if _, err := parseDuration(name, v); err != nil {
			return err
		}
	}
	if c.Cache.MaxBytes != nil && *c.Cache.MaxBytes < 0 {
		return goerr.Wrap(ErrInvalidConfig, "cache.max_bytes must not be negative", goerr.V(ValueKey, *c.Cache.MaxBytes))
	}
	return nil
}

func parseDuration(name, v string) (time.Duration, error) {
	if v == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, goerr.Wrap(ErrInvalidConfig, "invalid duration", goerr.V(FlagKey, name), goerr.V(ValueKey, v))
	}
	if d < 0 {
		return 0, goerr.Wrap(ErrInvalidConfig, "duration must not be negative", goerr.V(FlagKey, name), goerr.V(ValueKey, v))
	}
	return d, nil
}

// fileDuration assigns a file duration to dst unless the flag was given
func fileDuration(c *cli.Command, flag, v string, dst *time.Duration) {
	if v == "" || c.IsSet(flag) {
		return
	}
	// Validated by LoadFile
	d, _ := time.ParseDuration(v)
	*dst = d
}

func fileString(c *cli.Command, flag, v string, dst *string) {
	if v == "" || c.IsSet(flag) {
		return
	}
	*dst = v
}

func fileInt(c *cli.Command, flag string, v *int, dst *int) {
	if v == nil || c.IsSet(flag) {
		return
	}
	*dst = *v
}
