package tracking

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.32.0"

	"github.com/gaborage/go-remotecurl/observability"
)

const (
	// Meter name for remote request instrumentation
	httpMeterName = "go-remotecurl/http"

	metricAttempts        = "remotecurl.attempts"         // Counter
	metricRequestDuration = "remotecurl.request.duration" // Histogram in seconds

	attrOutcome = "outcome"
)

// OutcomeSuccess marks an attempt that produced a parsed response.
// Failed attempts use the error type as their outcome.
const OutcomeSuccess = "success"

var (
	httpMeter     metric.Meter
	meterOnce     sync.Once
	meterInitMu   sync.Mutex
	metricsInited bool

	attemptCounter  metric.Int64Counter
	requestDuration metric.Float64Histogram
)

func logMetricError(metricName string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "WARNING: Failed to initialize remote curl metric %s: %v\n", metricName, err)
	}
}

func initHTTPMeter() {
	meterInitMu.Lock()
	defer meterInitMu.Unlock()

	if httpMeter != nil {
		return
	}

	httpMeter = otel.Meter(httpMeterName)

	var err error
	attemptCounter, err = observability.CreateCounter(httpMeter,
		metricAttempts,
		"Number of remote curl executions, labelled by outcome",
		metric.WithUnit("{attempt}"),
	)
	logMetricError(metricAttempts, err)

	requestDuration, err = observability.CreateHistogram(httpMeter,
		metricRequestDuration,
		"Duration of remote requests including retries",
		metric.WithUnit("s"),
	)
	logMetricError(metricRequestDuration, err)

	metricsInited = true
}

func ensureHTTPMeterInitialized() {
	meterOnce.Do(initHTTPMeter)
}

// RecordAttempt counts one execution attempt with its outcome.
func RecordAttempt(ctx context.Context, method, outcome string) {
	ensureHTTPMeterInitialized()

	if attemptCounter == nil {
		return
	}
	attemptCounter.Add(ctx, 1, metric.WithAttributes(
		semconv.HTTPRequestMethodKey.String(method),
		attribute.String(attrOutcome, outcome),
	))
}

// RecordRequest records the total duration of a request. errType is empty on
// success, in which case the status code is attached instead.
func RecordRequest(ctx context.Context, method string, duration time.Duration, statusCode int, errType string) {
	ensureHTTPMeterInitialized()

	if requestDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{semconv.HTTPRequestMethodKey.String(method)}
	if errType != "" {
		attrs = append(attrs, semconv.ErrorTypeKey.String(errType))
	} else {
		attrs = append(attrs, semconv.HTTPResponseStatusCode(statusCode))
	}

	requestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// IsInitialized returns true if the metric instruments have been created.
func IsInitialized() bool {
	meterInitMu.Lock()
	defer meterInitMu.Unlock()
	return metricsInited
}

// ResetForTesting resets the metric state for testing purposes.
func ResetForTesting() {
	meterInitMu.Lock()
	defer meterInitMu.Unlock()

	httpMeter = nil
	attemptCounter = nil
	requestDuration = nil
	metricsInited = false
	meterOnce = sync.Once{}
}
