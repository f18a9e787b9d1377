package config

import (
	"errors"
	"time"

	"github.com/knadh/koanf/v2"
)

var errNotInitialized = errors.New("configuration not initialized")

// source returns the loaded koanf tree, or nil for a zero or nil Config.
func (c *Config) source() *koanf.Koanf {
	if c == nil {
		return nil
	}
	return c.k
}

// GetString returns the value at key, else the first default, else "".
func (c *Config) GetString(key string, defaultVal ...string) string {
	if !c.Exists(key) {
		return firstOr(defaultVal)
	}
	return c.k.String(key)
}

// GetDuration returns the value at key, else the first default, else 0.
func (c *Config) GetDuration(key string, defaultVal ...time.Duration) time.Duration {
	if !c.Exists(key) {
		return firstOr(defaultVal)
	}
	return c.k.Duration(key)
}

// Unmarshal decodes the section at key into out. It is how sections without
// a typed field, such as observability, are read.
func (c *Config) Unmarshal(key string, out any) error {
	k := c.source()
	if k == nil {
		return errNotInitialized
	}
	return k.Unmarshal(key, out)
}

// Exists reports whether any source set key.
func (c *Config) Exists(key string) bool {
	k := c.source()
	return k != nil && k.Exists(key)
}

// All returns the merged configuration keyed by dotted path.
func (c *Config) All() map[string]any {
	k := c.source()
	if k == nil {
		return nil
	}
	return k.All()
}

func firstOr[T any](values []T) T {
	var zero T
	if len(values) > 0 {
		return values[0]
	}
	return zero
}
