package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/citygap/internal/batch"
	"github.com/rshade/citygap/internal/logging"
	"github.com/rshade/citygap/internal/render"
	"github.com/rshade/citygap/internal/wiki"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	t.Setenv(EnvHome, t.TempDir())

	cfg := Default()
	assert.Equal(t, ModeManual, cfg.Search.Mode)
	assert.Equal(t, 10, cfg.Search.Limit)
	assert.Equal(t, batch.DefaultBatchSize, cfg.Search.BatchSize)
	assert.Equal(t, "geonames.csv", cfg.Dataset.Path)
	assert.Equal(t, "wikipedia_token.txt", cfg.Wiki.TokenFile)
	assert.Equal(t, wiki.DefaultEndpoint, cfg.Wiki.Endpoint)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, render.FormatTable, cfg.Output.Format)
	require.NoError(t, cfg.Validate())
}

func TestLoad_MissingDefaultFileIsFine(t *testing.T) {
	home := t.TempDir()
	t.Setenv(EnvHome, home)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "config.yaml"), cfg.ConfigPath())
	assert.Equal(t, DefaultLimit, cfg.Search.Limit)
}

func TestLoad_MissingExplicitFileFails(t *testing.T) {
	t.Setenv(EnvHome, t.TempDir())
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_YAMLAndEnvPrecedence(t *testing.T) {
	t.Setenv(EnvHome, t.TempDir())
	path := writeFile(t, t.TempDir(), "config.yaml", `
version: "1.2.0"
search:
  mode: naive
  limit: 25
  batch_size: 20
dataset:
  path: /data/cities.tsv
wiki:
  requests_per_second: 2.5
`)
	t.Setenv(EnvLimit, "7")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, ModeNaive, cfg.Search.Mode)
	assert.Equal(t, 7, cfg.Search.Limit, "environment wins over file")
	assert.Equal(t, 20, cfg.Search.BatchSize)
	assert.Equal(t, "/data/cities.tsv", cfg.Dataset.Path)
	assert.InDelta(t, 2.5, cfg.Wiki.RequestsPerSecond, 0.001)
}

func TestLoad_IncompatibleVersion(t *testing.T) {
	t.Setenv(EnvHome, t.TempDir())
	for _, v := range []string{"2.0.0", "0.9.0", "banana"} {
		path := writeFile(t, t.TempDir(), "config.yaml", "version: \""+v+"\"\n")
		_, err := Load(path)

		var ce *ConfigurationError
		require.ErrorAs(t, err, &ce, v)
		assert.Equal(t, "version", ce.Field)
		assert.ErrorIs(t, err, ErrIncompatibleVersion, v)
	}
}

func TestLoad_MalformedYAML(t *testing.T) {
	t.Setenv(EnvHome, t.TempDir())
	path := writeFile(t, t.TempDir(), "config.yaml", "search: [unterminated\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvHome, t.TempDir())
	cfg := Default()
	err := cfg.ApplyEnv(lookupFrom(map[string]string{
		EnvMode:              "geonames_naive",
		EnvBatchSize:         " 5 ",
		EnvDataset:           "other.tsv",
		EnvRequestsPerSecond: "1",
		EnvCacheEnabled:      "true",
		EnvOutputFormat:      "json",
		EnvLogLevel:          "debug",
		EnvLimit:             "",
	}))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, ModeNaive, cfg.Search.Mode)
	assert.Equal(t, 5, cfg.Search.BatchSize)
	assert.Equal(t, DefaultLimit, cfg.Search.Limit, "blank values are ignored")
	assert.Equal(t, "other.tsv", cfg.Dataset.Path)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, render.FormatJSON, cfg.Output.Format)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestApplyEnv_Unparseable(t *testing.T) {
	tests := map[string]string{
		EnvLimit:             "ten",
		EnvRequestsPerSecond: "fast",
		EnvCacheEnabled:      "maybe",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			cfg := Default()
			err := cfg.ApplyEnv(lookupFrom(map[string]string{key: value}))
			var ce *ConfigurationError
			require.ErrorAs(t, err, &ce)
			assert.ErrorIs(t, err, ErrUnparseableOverride)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
		want   error
	}{
		{"unknown mode", func(c *Config) { c.Search.Mode = "greedy" }, "search.mode", ErrInvalidMode},
		{"zero limit", func(c *Config) { c.Search.Limit = 0 }, "search.limit", ErrNotPositive},
		{"zero batch", func(c *Config) { c.Search.BatchSize = 0 }, "search.batch_size", batch.ErrInvalidBatchSize},
		{"negative batch", func(c *Config) { c.Search.BatchSize = -3 }, "search.batch_size", batch.ErrInvalidBatchSize},
		{"empty dataset", func(c *Config) { c.Dataset.Path = "" }, "dataset.path", ErrEmptyPath},
		{"negative rate", func(c *Config) { c.Wiki.RequestsPerSecond = -1 }, "wiki.requests_per_second", ErrNegative},
		{"negative timeout", func(c *Config) { c.Wiki.TimeoutSeconds = -1 }, "wiki.timeout_seconds", ErrNegative},
		{"bad format", func(c *Config) { c.Output.Format = "xml" }, "output.format", ErrInvalidOutputFormat},
		{"short ttl", func(c *Config) {
			c.Cache.Enabled = true
			c.Cache.TTLSeconds = 5
		}, "cache.ttl_seconds", ErrInvalidCacheTTL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()

			var ce *ConfigurationError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.field, ce.Field)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestValidate_ShortTTLIgnoredWhenCacheDisabled(t *testing.T) {
	cfg := Default()
	cfg.Cache.TTLSeconds = 5
	assert.NoError(t, cfg.Validate())
}

func TestValidate_AcceptsEveryRenderFormat(t *testing.T) {
	for _, format := range []string{render.FormatTable, render.FormatJSON, render.FormatNDJSON} {
		cfg := Default()
		cfg.Output.Format = format
		assert.NoError(t, cfg.Validate(), format)
	}
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{
		"naive":           ModeNaive,
		"MANUAL":          ModeManual,
		" manual ":        ModeManual,
		"geonames_naive":  ModeNaive,
		"geonames_manual": ModeManual,
	} {
		got, err := ParseMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseMode("")
	assert.ErrorIs(t, err, ErrInvalidMode)
}

func TestSave(t *testing.T) {
	t.Setenv(EnvHome, t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.SetConfigPath(path)
	cfg.Search.Mode = ModeNaive
	cfg.Search.Limit = 3
	require.NoError(t, cfg.Save())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ModeNaive, loaded.Search.Mode)
	assert.Equal(t, 3, loaded.Search.Limit)
	assert.Empty(t, loaded.Cache.Directory, "empty directory stays implicit")
}

func TestCacheDirectory(t *testing.T) {
	home := t.TempDir()
	t.Setenv(EnvHome, home)

	cfg := Default()
	dir, err := cfg.CacheDirectory()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "cache"), dir)

	cfg.Cache.Directory = "/tmp/elsewhere"
	dir, err = cfg.CacheDirectory()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/elsewhere", dir)
}

func TestResolveToken(t *testing.T) {
	dir := t.TempDir()
	cfg := Default()

	t.Run("MissingFile", func(t *testing.T) {
		cfg.Wiki.TokenFile = filepath.Join(dir, "absent.txt")
		token, src, err := cfg.ResolveToken(lookupFrom(nil))
		require.NoError(t, err)
		assert.Empty(t, token)
		assert.Equal(t, TokenNone, src)
	})

	t.Run("File", func(t *testing.T) {
		cfg.Wiki.TokenFile = writeFile(t, dir, "token.txt", "  abc123\n")
		token, src, err := cfg.ResolveToken(lookupFrom(nil))
		require.NoError(t, err)
		assert.Equal(t, "abc123", token)
		assert.Equal(t, TokenFromFile, src)
	})

	t.Run("EnvWins", func(t *testing.T) {
		token, src, err := cfg.ResolveToken(lookupFrom(map[string]string{EnvToken: "fromenv"}))
		require.NoError(t, err)
		assert.Equal(t, "fromenv", token)
		assert.Equal(t, TokenFromEnv, src)
	})

	t.Run("Unreadable", func(t *testing.T) {
		cfg.Wiki.TokenFile = dir
		_, _, err := cfg.ResolveToken(lookupFrom(nil))
		assert.Error(t, err)
	})
}

func TestToLoggingConfig(t *testing.T) {
	lc := LoggingConfig{Level: "debug", Format: "json"}
	out := lc.ToLoggingConfig()
	assert.Equal(t, logging.OutputStderr, out.Output)
	assert.Equal(t, "debug", out.Level)

	lc.File = "/var/log/citygap.log"
	out = lc.ToLoggingConfig()
	assert.Equal(t, logging.OutputFile, out.Output)
	assert.Equal(t, "/var/log/citygap.log", out.File)
}

func TestEnsureLogDir(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.EnsureLogDir())

	cfg.Logging.File = filepath.Join(t.TempDir(), "logs", "citygap.log")
	require.NoError(t, cfg.EnsureLogDir())
	assert.DirExists(t, filepath.Dir(cfg.Logging.File))
}
