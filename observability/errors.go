package observability

import "errors"

// Validation errors returned by Config.Validate and NewProvider.
var (
	ErrNilConfig          = errors.New("observability: config is nil")
	ErrMissingServiceName = errors.New("observability: service_name must be set when enabled")
	ErrInvalidSampleRate  = errors.New("observability: sample_rate must be within [0, 1]")
	ErrInvalidProtocol    = errors.New(`observability: protocol must be "http" or "grpc"`)

	// ErrInvalidEndpointFormat means the endpoint does not suit the protocol:
	// gRPC takes host:port, HTTP takes a full URL.
	ErrInvalidEndpointFormat = errors.New("observability: endpoint does not match protocol")
)
