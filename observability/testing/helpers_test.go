package testing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

func TestSpanCollectorFilters(t *testing.T) {
	tp := NewTestTraceProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()

	tracer := tp.Tracer("test")
	for _, method := range []string{"GET", "POST", "GET"} {
		_, span := tracer.Start(context.Background(), "remotecurl.request")
		span.SetAttributes(attribute.String("http.request.method", method), attribute.Int("attempts", 1))
		span.End()
	}
	_, other := tracer.Start(context.Background(), "other")
	other.End()

	collector := NewSpanCollector(t, tp.Exporter)
	assert.Equal(t, 4, collector.Len())

	requests := collector.WithName("remotecurl.request").AssertCount(3)
	requests.WithAttribute("http.request.method", "GET").AssertCount(2)
	requests.WithAttribute("attempts", 1).AssertCount(3)
	requests.WithAttribute("attempts", "1").AssertCount(0)

	first := requests.First()
	AssertSpanAttribute(t, &first, "http.request.method", "GET")
}

func TestSumInt64(t *testing.T) {
	mp := NewTestMeterProvider()
	defer func() { _ = mp.Shutdown(context.Background()) }()

	counter, err := mp.Meter("test").Int64Counter("attempts")
	assert.NoError(t, err)

	ctx := context.Background()
	counter.Add(ctx, 2, metricAttrs("success"))
	counter.Add(ctx, 3, metricAttrs("connection"))

	rm := mp.Collect(t)
	assert.Equal(t, int64(5), SumInt64(t, rm, "attempts"))
	assert.Equal(t, int64(3), SumInt64(t, rm, "attempts", attribute.String("outcome", "connection")))
	assert.Nil(t, FindMetric(rm, "missing"))
}

func metricAttrs(outcome string) metric.AddOption {
	return metric.WithAttributes(attribute.String("outcome", outcome))
}
