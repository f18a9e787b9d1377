package testing

// Logger levels used when building loggers in tests.
const (
	TestLoggerLevelDebug    = "debug"
	TestLoggerLevelError    = "error"
	TestLoggerLevelDisabled = "disabled"
)

// Remote host identity used by CLI and dialer tests.
const (
	TestSSHHost     = "bastion"
	TestSSHUser     = "ops"
	TestSSHPassword = "pw"
	TestSSHAddr     = "bastion.example.com:22"
)

// Request targets and canned curl output.
const (
	TestURL = "https://api.example.com/items"

	// TestCurlOutputOK is a single-hop 200 response as curl -sS -D - prints it.
	TestCurlOutputOK = "HTTP/1.1 200 OK\r\nContent-Type: text/plain\r\n\r\nHello World!\nCURLSTATUS:200"
	// TestCurlOutputNotFound is a 404 with one custom header.
	TestCurlOutputNotFound = "HTTP/1.1 404 Not Found\r\nX-Test: yes\r\n\r\nmissing\nCURLSTATUS:404"
	// TestCurlOutputMalformed is stderr-style text without the status trailer.
	TestCurlOutputMalformed = "curl: (6) Could not resolve host"
)

// OpenTelemetry names.
const (
	TestServiceName = "remote-curl-test"
)
