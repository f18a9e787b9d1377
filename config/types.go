package config

import (
	"time"

	"github.com/knadh/koanf/v2"
)

// Config represents the remote-curl configuration. Sections without a typed
// field here (observability) are read with Unmarshal.
type Config struct {
	SSH     SSHConfig     `koanf:"ssh" json:"ssh" yaml:"ssh"`
	Request RequestConfig `koanf:"request" json:"request" yaml:"request"`
	Log     LogConfig     `koanf:"log" json:"log" yaml:"log"`

	// k holds the underlying Koanf instance for flexible access to other sections
	k *koanf.Koanf `json:"-" yaml:"-"`
}

// SSHConfig holds how to reach and authenticate against the remote host.
type SSHConfig struct {
	Host string `koanf:"host" json:"host" yaml:"host" validate:"required"`
	Port int    `koanf:"port" json:"port" yaml:"port" validate:"min=1,max=65535"`
	User string `koanf:"user" json:"user" yaml:"user" validate:"required"`

	// Password or KeyFile must be set.
	Password      string `koanf:"password" json:"password" yaml:"password" validate:"required_without=KeyFile"`
	KeyFile       string `koanf:"key_file" json:"key_file" yaml:"key_file"`
	KeyPassphrase string `koanf:"key_passphrase" json:"key_passphrase" yaml:"key_passphrase"`

	// KnownHosts enables host key verification when set.
	KnownHosts     string        `koanf:"known_hosts" json:"known_hosts" yaml:"known_hosts"`
	ConnectTimeout time.Duration `koanf:"connect_timeout" json:"connect_timeout" yaml:"connect_timeout" validate:"gte=0"`
}

// RequestConfig holds client defaults applied to every request.
type RequestConfig struct {
	// Timeout bounds curl's transfer time; zero leaves curl unbounded.
	Timeout time.Duration `koanf:"timeout" json:"timeout" yaml:"timeout" validate:"gte=0"`
	// ExecTimeout bounds the remote execution when Timeout is zero.
	ExecTimeout time.Duration `koanf:"exec_timeout" json:"exec_timeout" yaml:"exec_timeout" validate:"gt=0"`

	Retries    int           `koanf:"retries" json:"retries" yaml:"retries" validate:"gte=0,lte=100"`
	Backoff    time.Duration `koanf:"backoff" json:"backoff" yaml:"backoff" validate:"gte=0"`
	MaxBackoff time.Duration `koanf:"max_backoff" json:"max_backoff" yaml:"max_backoff" validate:"gte=0"`

	FollowRedirects  bool              `koanf:"follow_redirects" json:"follow_redirects" yaml:"follow_redirects"`
	Insecure         bool              `koanf:"insecure" json:"insecure" yaml:"insecure"`
	RequestID        bool              `koanf:"request_id" json:"request_id" yaml:"request_id"`
	TracePropagation bool              `koanf:"trace_propagation" json:"trace_propagation" yaml:"trace_propagation"`
	Headers          map[string]string `koanf:"headers" json:"headers" yaml:"headers"`
}

// LogConfig holds logging preferences.
type LogConfig struct {
	Level  string `koanf:"level" json:"level" yaml:"level" validate:"oneof=trace debug info warn error disabled"`
	Pretty bool   `koanf:"pretty" json:"pretty" yaml:"pretty"`
}
