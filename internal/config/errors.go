package config

import (
	"errors"
	"fmt"
)

// Validation errors wrapped by ConfigurationError.
var (
	ErrInvalidMode         = errors.New("mode must be 'naive' or 'manual'")
	ErrNotPositive         = errors.New("must be a positive integer")
	ErrNegative            = errors.New("cannot be negative")
	ErrInvalidOutputFormat = errors.New("output format must be 'table', 'json' or 'ndjson'")
	ErrIncompatibleVersion = errors.New("config file version is not supported")
	ErrInvalidCacheTTL     = errors.New("cache TTL out of range")
	ErrEmptyPath           = errors.New("path cannot be empty")
	ErrUnparseableOverride = errors.New("cannot parse value")
)

// ConfigurationError reports an invalid setting. Field is the dotted YAML key.
type ConfigurationError struct {
	Field string
	Value any
	Err   error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration %s=%v: %v", e.Field, e.Value, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

func invalid(field string, value any, err error) *ConfigurationError {
	return &ConfigurationError{Field: field, Value: value, Err: err}
}
