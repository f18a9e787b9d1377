package config

import (
	"errors"
	"fmt"
	"strings"
)

// ConfigError names one offending configuration key and how to fix it.
// Load joins one ConfigError per failing field.
//
//nolint:revive // exported as config.ConfigError on purpose
type ConfigError struct {
	Category string // missing or invalid
	Field    string // dotted key, e.g. ssh.host
	Message  string
	Action   string
}

// Error renders "config_<category>: <field> <message> <action>", skipping
// empty parts.
func (e *ConfigError) Error() string {
	var b strings.Builder
	write := func(s string) {
		if s == "" {
			return
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(s)
	}
	if e.Category != "" {
		write("config_" + e.Category + ":")
	}
	write(e.Field)
	write(e.Message)
	write(e.Action)
	return b.String()
}

// NewMissingFieldError reports a required key that no source provided.
func NewMissingFieldError(field, envVar, yamlPath string) *ConfigError {
	return &ConfigError{
		Category: "missing",
		Field:    field,
		Message:  "required",
		Action:   fmt.Sprintf("set %s env var or add %s to the config file", envVar, yamlPath),
	}
}

// NewInvalidFieldError reports a key whose value failed validation.
func NewInvalidFieldError(field, message string, validOptions []string) *ConfigError {
	e := &ConfigError{Category: "invalid", Field: field, Message: message}
	if len(validOptions) > 0 {
		e.Action = "must be one of: " + strings.Join(validOptions, ", ")
	}
	return e
}

// IsConfigError reports whether err carries a *ConfigError.
func IsConfigError(err error) bool {
	var configErr *ConfigError
	return errors.As(err, &configErr)
}
