package observability

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/gaborage/go-remotecurl/logger"
	testconsts "github.com/gaborage/go-remotecurl/testing"
)

// restoreGlobals puts the global providers back after a test installs its own.
func restoreGlobals(t *testing.T) {
	t.Helper()
	tp := otel.GetTracerProvider()
	mp := otel.GetMeterProvider()
	prop := otel.GetTextMapPropagator()
	t.Cleanup(func() {
		otel.SetTracerProvider(tp)
		otel.SetMeterProvider(mp)
		otel.SetTextMapPropagator(prop)
	})
}

func TestNewProviderDisabled(t *testing.T) {
	p, err := NewProvider(&Config{Enabled: false})
	require.NoError(t, err)

	assert.IsType(t, disabledProvider{}, p)
	assert.IsType(t, tracenoop.NewTracerProvider(), p.TracerProvider())
	assert.IsType(t, noop.NewMeterProvider(), p.MeterProvider())
	assert.NoError(t, p.ForceFlush(context.Background()))
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestNewProviderNilConfig(t *testing.T) {
	_, err := NewProvider(nil)
	assert.ErrorIs(t, err, ErrNilConfig)
}

func TestNewProviderInvalidConfig(t *testing.T) {
	_, err := NewProvider(&Config{Enabled: true, Protocol: "udp"})
	assert.ErrorIs(t, err, ErrInvalidProtocol)
}

func TestNewProviderStdoutExportsToConsoleWriter(t *testing.T) {
	restoreGlobals(t)

	var console, logs bytes.Buffer
	p, err := NewProvider(
		&Config{Enabled: true, ServiceName: testconsts.TestServiceName},
		WithConsoleWriter(&console),
		WithLogger(logger.NewWithWriter(testconsts.TestLoggerLevelDebug, false, &logs)),
	)
	require.NoError(t, err)

	_, span := otel.Tracer("test").Start(context.Background(), "remotecurl.request")
	span.End()

	counter, err := CreateCounter(otel.Meter("test"), "remotecurl.attempts", "attempts")
	require.NoError(t, err)
	counter.Add(context.Background(), 1)

	require.NoError(t, Shutdown(p, time.Second))

	out := console.String()
	assert.Contains(t, out, "remotecurl.request")
	assert.Contains(t, out, "remotecurl.attempts")
	assert.Contains(t, out, testconsts.TestServiceName)
	assert.Contains(t, logs.String(), "Observability provider initialized")
}

func TestNewProviderTracesOnly(t *testing.T) {
	restoreGlobals(t)

	p, err := NewProvider(
		&Config{Enabled: true, MetricsEnabled: BoolPtr(false)},
		WithConsoleWriter(&bytes.Buffer{}),
	)
	require.NoError(t, err)
	defer func() { _ = p.Shutdown(context.Background()) }()

	assert.IsType(t, noop.NewMeterProvider(), p.MeterProvider())
	assert.NotNil(t, p.TracerProvider())
}

func TestNewProviderOTLPExporters(t *testing.T) {
	restoreGlobals(t)

	// exporters connect lazily, so construction succeeds without a collector
	for _, cfg := range []*Config{
		{Enabled: true, Protocol: ProtocolHTTP, Endpoint: "http://127.0.0.1:4318", Headers: map[string]string{"api-key": "k"}},
		{Enabled: true, Protocol: ProtocolGRPC, Endpoint: "127.0.0.1:4317", Insecure: true},
	} {
		p, err := NewProvider(cfg)
		require.NoError(t, err, cfg.Protocol)

		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		_ = p.Shutdown(ctx)
		cancel()
	}
}

func TestShutdownNilProvider(t *testing.T) {
	assert.NoError(t, Shutdown(nil, 0))
}

func TestCreateHistogram(t *testing.T) {
	h, err := CreateHistogram(noop.NewMeterProvider().Meter("test"), "remotecurl.request.duration", "duration")
	require.NoError(t, err)
	assert.NotNil(t, h)
}
