package tracking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func setupTestMeterProvider(t *testing.T) *sdkmetric.ManualReader {
	t.Helper()
	ResetForTesting()

	original := otel.GetMeterProvider()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	t.Cleanup(func() {
		_ = provider.Shutdown(context.Background())
		otel.SetMeterProvider(original)
		ResetForTesting()
	})

	return reader
}

func collectMetric(t *testing.T, reader *sdkmetric.ManualReader, name string) (metricdata.Metrics, bool) {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	for _, sm := range rm.ScopeMetrics {
		if sm.Scope.Name != httpMeterName {
			continue
		}
		for _, m := range sm.Metrics {
			if m.Name == name {
				return m, true
			}
		}
	}
	return metricdata.Metrics{}, false
}

func attrValue(set attribute.Set, key string) string {
	v, ok := set.Value(attribute.Key(key))
	if !ok {
		return ""
	}
	return v.Emit()
}

func TestRecordAttemptCountsByOutcome(t *testing.T) {
	reader := setupTestMeterProvider(t)
	ctx := context.Background()

	RecordAttempt(ctx, "GET", "connection")
	RecordAttempt(ctx, "GET", "connection")
	RecordAttempt(ctx, "GET", OutcomeSuccess)

	m, found := collectMetric(t, reader, metricAttempts)
	require.True(t, found, "expected %s metric", metricAttempts)

	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "expected sum data")

	counts := make(map[string]int64)
	for _, dp := range sum.DataPoints {
		counts[attrValue(dp.Attributes, attrOutcome)] += dp.Value
		assert.Equal(t, "GET", attrValue(dp.Attributes, "http.request.method"))
	}
	assert.Equal(t, map[string]int64{"connection": 2, OutcomeSuccess: 1}, counts)
}

func TestRecordRequestDuration(t *testing.T) {
	reader := setupTestMeterProvider(t)
	ctx := context.Background()

	RecordRequest(ctx, "POST", 250*time.Millisecond, 201, "")
	RecordRequest(ctx, "POST", time.Second, 0, "execution")

	m, found := collectMetric(t, reader, metricRequestDuration)
	require.True(t, found, "expected %s metric", metricRequestDuration)
	assert.Equal(t, "s", m.Unit)

	hist, ok := m.Data.(metricdata.Histogram[float64])
	require.True(t, ok, "expected histogram data")
	require.Len(t, hist.DataPoints, 2)

	for _, dp := range hist.DataPoints {
		assert.Equal(t, uint64(1), dp.Count)
		if errType := attrValue(dp.Attributes, "error.type"); errType != "" {
			assert.Equal(t, "execution", errType)
			assert.InDelta(t, 1.0, dp.Sum, 0.001)
			continue
		}
		assert.Equal(t, "201", attrValue(dp.Attributes, "http.response.status_code"))
		assert.InDelta(t, 0.25, dp.Sum, 0.001)
	}
}

func TestInitializationState(t *testing.T) {
	setupTestMeterProvider(t)
	assert.False(t, IsInitialized())

	RecordAttempt(context.Background(), "GET", OutcomeSuccess)
	assert.True(t, IsInitialized())

	ResetForTesting()
	assert.False(t, IsInitialized())
}
