package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// TokenSource says where a bearer token came from.
type TokenSource string

// Token sources.
const (
	TokenFromEnv  TokenSource = "env"
	TokenFromFile TokenSource = "file"
	TokenNone     TokenSource = "none"
)

// ResolveToken returns the bearer token for the lookup service. CITYGAP_WIKI_TOKEN
// wins over the token file; a missing token file is not an error.
func (c *Config) ResolveToken(lookup func(string) (string, bool)) (string, TokenSource, error) {
	if v, ok := lookup(EnvToken); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v), TokenFromEnv, nil
	}

	token, err := LoadToken(c.Wiki.TokenFile)
	if err != nil {
		return "", TokenNone, err
	}
	if token == "" {
		return "", TokenNone, nil
	}
	return token, TokenFromFile, nil
}

// LoadToken reads a token file holding a single token string. It returns ""
// when path is empty or the file does not exist.
func LoadToken(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("reading token file %s: %w", path, err)
	}
	return strings.TrimSpace(string(data)), nil
}
