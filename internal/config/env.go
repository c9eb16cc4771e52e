package config

import (
	"strconv"
	"strings"
)

// Environment variables that override the config file.
const (
	EnvHome              = "CITYGAP_HOME"
	EnvMode              = "CITYGAP_MODE"
	EnvLimit             = "CITYGAP_LIMIT"
	EnvBatchSize         = "CITYGAP_BATCH_SIZE"
	EnvDataset           = "CITYGAP_DATASET"
	EnvEndpoint          = "CITYGAP_ENDPOINT"
	EnvTokenFile         = "CITYGAP_TOKEN_FILE"
	EnvToken             = "CITYGAP_WIKI_TOKEN"
	EnvRequestsPerSecond = "CITYGAP_REQUESTS_PER_SECOND"
	EnvCacheEnabled      = "CITYGAP_CACHE_ENABLED"
	EnvCacheDir          = "CITYGAP_CACHE_DIR"
	EnvCacheTTL          = "CITYGAP_CACHE_TTL_SECONDS"
	EnvOutputFormat      = "CITYGAP_OUTPUT_FORMAT"
	EnvLogLevel          = "CITYGAP_LOG_LEVEL"
	EnvLogFormat         = "CITYGAP_LOG_FORMAT"
)

// ApplyEnv overlays CITYGAP_* variables found through lookup. Unparseable
// numeric or boolean values are a ConfigurationError.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}

	var mode string
	str(EnvMode, &mode)
	if mode != "" {
		c.Search.Mode = Mode(mode)
	}
	str(EnvDataset, &c.Dataset.Path)
	str(EnvEndpoint, &c.Wiki.Endpoint)
	str(EnvTokenFile, &c.Wiki.TokenFile)
	str(EnvCacheDir, &c.Cache.Directory)
	str(EnvOutputFormat, &c.Output.Format)
	str(EnvLogLevel, &c.Logging.Level)
	str(EnvLogFormat, &c.Logging.Format)

	ints := []struct {
		key   string
		field string
		dst   *int
	}{
		{EnvLimit, "search.limit", &c.Search.Limit},
		{EnvBatchSize, "search.batch_size", &c.Search.BatchSize},
		{EnvCacheTTL, "cache.ttl_seconds", &c.Cache.TTLSeconds},
	}
	for _, o := range ints {
		v, ok := lookup(o.key)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return invalid(o.field, v, ErrUnparseableOverride)
		}
		*o.dst = n
	}

	if v, ok := lookup(EnvRequestsPerSecond); ok && strings.TrimSpace(v) != "" {
		rps, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return invalid("wiki.requests_per_second", v, ErrUnparseableOverride)
		}
		c.Wiki.RequestsPerSecond = rps
	}

	if v, ok := lookup(EnvCacheEnabled); ok && strings.TrimSpace(v) != "" {
		enabled, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return invalid("cache.enabled", v, ErrUnparseableOverride)
		}
		c.Cache.Enabled = enabled
	}

	return nil
}
