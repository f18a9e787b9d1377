package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// structValidator returns a validator that reports fields by their koanf key.
func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(field reflect.StructField) string {
			name, _, _ := strings.Cut(field.Tag.Get("koanf"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Validate checks every section of cfg. The returned error joins one
// *ConfigError per invalid field.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	return convertValidationErrors(structValidator().Struct(cfg))
}

// validateExcept checks cfg skipping the named top-level struct fields.
func validateExcept(cfg *Config, fields ...string) error {
	return convertValidationErrors(structValidator().StructExcept(cfg, fields...))
}

func convertValidationErrors(err error) error {
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return err
	}

	errs := make([]error, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		errs = append(errs, fieldError(fe))
	}
	return errors.Join(errs...)
}

func fieldError(fe validator.FieldError) *ConfigError {
	path := configPath(fe.Namespace())

	switch fe.Tag() {
	case "required":
		return NewMissingFieldError(path, envVarName(path), path)
	case "required_without":
		return NewMissingFieldError(path, envVarName(path), path+" or ssh.key_file")
	case "oneof":
		return NewInvalidFieldError(path, fmt.Sprintf("invalid value %q", fe.Value()), strings.Fields(fe.Param()))
	case "min", "gte", "gt":
		return NewInvalidFieldError(path, fmt.Sprintf("must be %s %s", comparison(fe.Tag()), fe.Param()), nil)
	case "max", "lte":
		return NewInvalidFieldError(path, fmt.Sprintf("must be at most %s", fe.Param()), nil)
	default:
		return NewInvalidFieldError(path, fmt.Sprintf("failed %s validation", fe.Tag()), nil)
	}
}

func comparison(tag string) string {
	if tag == "gt" {
		return "greater than"
	}
	return "at least"
}

// configPath turns "Config.ssh.host" into "ssh.host".
func configPath(namespace string) string {
	_, path, found := strings.Cut(namespace, ".")
	if !found {
		return namespace
	}
	return path
}

// envVarName returns the environment variable that sets path.
func envVarName(path string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(path, ".", "_"))
}
