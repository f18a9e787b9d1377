package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of environment variables read by Load.
// REMOTECURL_SSH_KEY_FILE maps to ssh.key_file.
const EnvPrefix = "REMOTECURL_"

const defaultDotEnvFile = ".env"

//go:embed defaults.yaml
var defaultsYAML []byte

type loadOptions struct {
	file          string
	dotEnv        string
	dotEnvStrict  bool
	envPrefix     string
	overrides     map[string]any
	skipSSHChecks bool
}

// LoadOption customizes Load.
type LoadOption func(*loadOptions)

// WithFile loads a YAML configuration file. The file must exist.
func WithFile(path string) LoadOption {
	return func(o *loadOptions) {
		o.file = path
	}
}

// WithDotEnv reads variables from path instead of ./.env. The file must exist.
func WithDotEnv(path string) LoadOption {
	return func(o *loadOptions) {
		o.dotEnv = path
		o.dotEnvStrict = true
	}
}

// WithEnvPrefix changes the environment variable prefix.
func WithEnvPrefix(prefix string) LoadOption {
	return func(o *loadOptions) {
		o.envPrefix = prefix
	}
}

// WithOverrides applies dotted-key values on top of every other source.
func WithOverrides(overrides map[string]any) LoadOption {
	return func(o *loadOptions) {
		o.overrides = overrides
	}
}

// WithoutSSHValidation skips checks of the ssh section, for commands that
// never connect.
func WithoutSSHValidation() LoadOption {
	return func(o *loadOptions) {
		o.skipSSHChecks = true
	}
}

// Load loads configuration from multiple sources with priority:
// 1. Overrides (highest priority)
// 2. Environment variables
// 3. .env file
// 4. YAML configuration file
// 5. Embedded defaults (lowest priority)
func Load(opts ...LoadOption) (*Config, error) {
	o := &loadOptions{dotEnv: defaultDotEnvFile, envPrefix: EnvPrefix}
	for _, opt := range opts {
		opt(o)
	}

	k := koanf.New(".")

	if err := k.Load(rawbytes.Provider(defaultsYAML), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if o.file != "" {
		if err := k.Load(file.Provider(o.file), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", o.file, err)
		}
	}

	if err := loadDotEnv(k, o); err != nil {
		return nil, err
	}

	if err := k.Load(env.Provider(".", env.Opt{
		Prefix: o.envPrefix,
		TransformFunc: func(key, value string) (string, any) {
			return envKey(o.envPrefix, key), value
		},
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if len(o.overrides) > 0 {
		if err := k.Load(confmap.Provider(o.overrides, "."), nil); err != nil {
			return nil, fmt.Errorf("failed to apply overrides: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.k = k

	var err error
	if o.skipSSHChecks {
		err = validateExcept(&cfg, "SSH")
	} else {
		err = Validate(&cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadDotEnv(k *koanf.Koanf, o *loadOptions) error {
	vars, err := godotenv.Read(o.dotEnv)
	if err != nil {
		if !o.dotEnvStrict && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read %s: %w", o.dotEnv, err)
	}

	values := make(map[string]any, len(vars))
	for key, value := range vars {
		if !strings.HasPrefix(key, o.envPrefix) {
			continue
		}
		values[envKey(o.envPrefix, key)] = value
	}
	if err := k.Load(confmap.Provider(values, "."), nil); err != nil {
		return fmt.Errorf("failed to load %s: %w", o.dotEnv, err)
	}
	return nil
}

// envKey converts PREFIX_SECTION_SOME_KEY to section.some_key.
func envKey(prefix, key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, prefix))
	section, rest, found := strings.Cut(key, "_")
	if !found {
		return section
	}
	return section + "." + rest
}
