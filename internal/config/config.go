// Package config holds citygap's settings: compiled-in defaults, an optional
// YAML file, CITYGAP_* environment overrides and validation.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"

	"github.com/rshade/citygap/internal/batch"
	"github.com/rshade/citygap/internal/cache"
	"github.com/rshade/citygap/internal/render"
	"github.com/rshade/citygap/internal/wiki"
)

// Compiled-in defaults.
const (
	DefaultMode       = ModeManual
	DefaultLimit      = 10
	DefaultDataset    = "geonames.csv"
	DefaultTokenFile  = "wikipedia_token.txt"
	DefaultFormat     = render.FormatTable
	DefaultLogLevel   = "info"
	DefaultLogFormat  = "console"
	configFileName    = "config.yaml"
	cacheDirName      = "cache"
	currentVersion    = "1.0.0"
	versionConstraint = "^1"
)

// Config is the complete citygap configuration.
//
// YAML Location: ~/.citygap/config.yaml ($CITYGAP_HOME/config.yaml)
type Config struct {
	// Version is the config schema version; must satisfy ^1.
	Version string `yaml:"version"`

	Search  SearchConfig  `yaml:"search"`
	Dataset DatasetConfig `yaml:"dataset"`
	Wiki    WikiConfig    `yaml:"wiki"`
	Cache   CacheConfig   `yaml:"cache"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`

	configPath string
}

// SearchConfig controls the selection run.
type SearchConfig struct {
	// Mode is "naive" (accept all candidates) or "manual" (confirm each).
	Mode Mode `yaml:"mode"`
	// Limit is the number of cities to collect.
	Limit int `yaml:"limit"`
	// BatchSize is the number of titles per lookup request.
	BatchSize int `yaml:"batch_size"`
}

// DatasetConfig locates the GeoNames dump.
type DatasetConfig struct {
	Path string `yaml:"path"`
}

// WikiConfig configures the article lookup service.
type WikiConfig struct {
	Endpoint string `yaml:"endpoint"`
	// TokenFile holds a personal API token. A missing file means anonymous access.
	TokenFile string `yaml:"token_file"`
	// RequestsPerSecond paces lookups; 0 disables pacing.
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	// TimeoutSeconds bounds each request; 0 waits indefinitely.
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// CacheConfig configures the on-disk lookup cache.
type CacheConfig struct {
	Enabled bool `yaml:"enabled"`
	// Directory defaults to ~/.citygap/cache when empty.
	Directory  string `yaml:"directory,omitempty"`
	TTLSeconds int    `yaml:"ttl_seconds"`
}

// OutputConfig controls how the result list is printed.
type OutputConfig struct {
	Format string `yaml:"format"`
}

// LoggingConfig controls diagnostic logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	// File, when set, sends logs to a file instead of stderr.
	File string `yaml:"file,omitempty"`
}

// Default returns a Config holding the compiled-in defaults.
func Default() *Config {
	path := configFileName
	if dir, err := GetConfigDir(); err == nil {
		path = filepath.Join(dir, configFileName)
	}

	return &Config{
		Version: currentVersion,
		Search: SearchConfig{
			Mode:      DefaultMode,
			Limit:     DefaultLimit,
			BatchSize: batch.DefaultBatchSize,
		},
		Dataset: DatasetConfig{Path: DefaultDataset},
		Wiki: WikiConfig{
			Endpoint:  wiki.DefaultEndpoint,
			TokenFile: DefaultTokenFile,
		},
		Cache: CacheConfig{
			Enabled:    false,
			TTLSeconds: cache.DefaultTTLSeconds,
		},
		Output: OutputConfig{Format: DefaultFormat},
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		configPath: path,
	}
}

// Load builds a Config from defaults, the YAML file at path and the
// environment. An empty path means the default location, which may be absent.
// The result is not validated; call Validate after applying flag overrides.
func Load(path string) (*Config, error) {
	return LoadWithEnv(path, os.LookupEnv)
}

// LoadWithEnv is Load with an explicit environment lookup.
func LoadWithEnv(path string, lookupEnv func(string) (string, bool)) (*Config, error) {
	cfg := Default()
	explicit := path != ""
	if explicit {
		cfg.configPath = path
	}

	data, err := os.ReadFile(cfg.configPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", cfg.configPath, err)
		}
		if err := checkVersion(cfg.Version); err != nil {
			return nil, err
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("reading config file %s: %w", cfg.configPath, err)
	}

	if err := cfg.ApplyEnv(lookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func checkVersion(v string) error {
	if v == "" {
		return nil
	}
	parsed, err := semver.NewVersion(v)
	if err != nil {
		return invalid("version", v, fmt.Errorf("%w: %w", ErrIncompatibleVersion, err))
	}
	constraint, err := semver.NewConstraint(versionConstraint)
	if err != nil {
		return err
	}
	if !constraint.Check(parsed) {
		return invalid("version", v, ErrIncompatibleVersion)
	}
	return nil
}

// Validate checks every setting and normalises the mode name.
func (c *Config) Validate() error {
	mode, err := ParseMode(string(c.Search.Mode))
	if err != nil {
		return err
	}
	c.Search.Mode = mode

	if c.Search.Limit <= 0 {
		return invalid("search.limit", c.Search.Limit, ErrNotPositive)
	}
	if _, err := batch.NewProcessor[struct{}](c.Search.BatchSize); err != nil {
		return invalid("search.batch_size", c.Search.BatchSize, err)
	}
	if c.Dataset.Path == "" {
		return invalid("dataset.path", c.Dataset.Path, ErrEmptyPath)
	}
	if c.Wiki.RequestsPerSecond < 0 {
		return invalid("wiki.requests_per_second", c.Wiki.RequestsPerSecond, ErrNegative)
	}
	if c.Wiki.TimeoutSeconds < 0 {
		return invalid("wiki.timeout_seconds", c.Wiki.TimeoutSeconds, ErrNegative)
	}
	switch c.Output.Format {
	case render.FormatTable, render.FormatJSON, render.FormatNDJSON:
	default:
		return invalid("output.format", c.Output.Format, ErrInvalidOutputFormat)
	}
	if c.Cache.Enabled &&
		(c.Cache.TTLSeconds < cache.MinTTLSeconds || c.Cache.TTLSeconds > cache.MaxTTLSeconds) {
		return invalid("cache.ttl_seconds", c.Cache.TTLSeconds, fmt.Errorf("%w: %w", ErrInvalidCacheTTL, cache.ErrInvalidTTL))
	}
	return nil
}

// CacheDirectory returns the configured cache directory or the default one.
func (c *Config) CacheDirectory() (string, error) {
	if c.Cache.Directory != "" {
		return c.Cache.Directory, nil
	}
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, cacheDirName), nil
}

// ConfigPath returns the file this Config loads from and saves to.
func (c *Config) ConfigPath() string {
	return c.configPath
}

// SetConfigPath changes where Save writes.
func (c *Config) SetConfigPath(path string) {
	c.configPath = path
}

// Save writes the configuration as YAML, creating the directory if needed.
func (c *Config) Save() error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(c.configPath), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(c.configPath, data, 0o600); err != nil {
		return fmt.Errorf("writing config file %s: %w", c.configPath, err)
	}
	return nil
}
