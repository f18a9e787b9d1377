package observability

import (
	"maps"
	"strings"
	"time"
)

const (
	// EndpointStdout selects the console exporters (for local development).
	EndpointStdout = "stdout"

	// ProtocolHTTP specifies OTLP over HTTP/protobuf.
	ProtocolHTTP = "http"

	// ProtocolGRPC specifies OTLP over gRPC.
	ProtocolGRPC = "grpc"

	// EnvironmentDevelopment is the default environment name.
	EnvironmentDevelopment = "development"

	defaultServiceName     = "remote-curl"
	defaultMetricsInterval = 60 * time.Second
)

// BoolPtr returns a pointer to the provided bool value.
func BoolPtr(v bool) *bool {
	return &v
}

// Float64Ptr returns a pointer to the provided float64 value.
func Float64Ptr(v float64) *float64 {
	return &v
}

// Config defines the observability section of the configuration. Pointer
// fields distinguish unset from an explicit zero.
type Config struct {
	// Enabled controls whether telemetry is exported at all.
	Enabled bool `koanf:"enabled"`

	ServiceName    string `koanf:"service_name"`
	ServiceVersion string `koanf:"service_version"`
	Environment    string `koanf:"environment"`

	// Endpoint is "stdout", host:port for gRPC, or a http(s) URL for HTTP.
	Endpoint string            `koanf:"endpoint"`
	Protocol string            `koanf:"protocol"`
	Insecure bool              `koanf:"insecure"`
	Headers  map[string]string `koanf:"headers"`

	TraceEnabled   *bool    `koanf:"trace_enabled"`
	SampleRate     *float64 `koanf:"sample_rate"`
	MetricsEnabled *bool    `koanf:"metrics_enabled"`

	MetricsInterval time.Duration `koanf:"metrics_interval"`
}

// ApplyDefaults sets default values for any config fields that are not specified.
func (c *Config) ApplyDefaults() {
	if c.ServiceName == "" {
		c.ServiceName = defaultServiceName
	}
	if c.ServiceVersion == "" {
		c.ServiceVersion = "unknown"
	}
	if c.Environment == "" {
		c.Environment = EnvironmentDevelopment
	}
	if c.Endpoint == "" {
		c.Endpoint = EndpointStdout
	}
	if c.Protocol == "" {
		c.Protocol = ProtocolHTTP
	}
	if c.TraceEnabled == nil {
		c.TraceEnabled = BoolPtr(true)
	}
	if c.SampleRate == nil {
		c.SampleRate = Float64Ptr(1.0)
	}
	if c.MetricsEnabled == nil {
		c.MetricsEnabled = BoolPtr(true)
	}
	if c.MetricsInterval <= 0 {
		c.MetricsInterval = defaultMetricsInterval
	}
	c.Headers = cloneHeaderMap(c.Headers)
}

// Validate checks the configuration for common errors.
func (c *Config) Validate() error {
	if c == nil {
		return ErrNilConfig
	}
	if !c.Enabled {
		return nil
	}
	if c.ServiceName == "" {
		return ErrMissingServiceName
	}
	if c.SampleRate != nil && (*c.SampleRate < 0.0 || *c.SampleRate > 1.0) {
		return ErrInvalidSampleRate
	}
	if c.Protocol != ProtocolHTTP && c.Protocol != ProtocolGRPC {
		return ErrInvalidProtocol
	}
	return validateEndpointFormat(c.Endpoint, c.Protocol)
}

// validateEndpointFormat checks that the endpoint format matches the protocol.
// gRPC endpoints use "host:port"; HTTP endpoints are full URLs.
func validateEndpointFormat(endpoint, protocol string) error {
	if endpoint == EndpointStdout || endpoint == "" {
		return nil
	}

	hasScheme := strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://")
	if protocol == ProtocolGRPC && hasScheme {
		return ErrInvalidEndpointFormat
	}
	if protocol == ProtocolHTTP && !hasScheme {
		return ErrInvalidEndpointFormat
	}
	return nil
}

func cloneHeaderMap(headers map[string]string) map[string]string {
	if headers == nil {
		return nil
	}
	clone := make(map[string]string, len(headers))
	maps.Copy(clone, headers)
	return clone
}
