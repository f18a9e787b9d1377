package tracking

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.32.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	httpTracerName = "go-remotecurl/http"

	spanRequest = "remotecurl.request"
	spanAttempt = "remotecurl.attempt"

	attrAttempt    = "remotecurl.attempt"
	attrSSHAddress = "remotecurl.ssh.address"
	attrExitStatus = "remotecurl.exit_status"
)

// StartRequestSpan opens the span covering a whole request including retries.
func StartRequestSpan(ctx context.Context, method, url, sshAddr string) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		semconv.HTTPRequestMethodKey.String(method),
		semconv.URLFull(url),
	}
	if sshAddr != "" {
		attrs = append(attrs, attribute.String(attrSSHAddress, sshAddr))
	}

	return otel.Tracer(httpTracerName).Start(ctx, spanRequest,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)
}

// StartAttemptSpan opens a child span for a single attempt. attempt is zero based.
func StartAttemptSpan(ctx context.Context, attempt int) (context.Context, trace.Span) {
	return otel.Tracer(httpTracerName).Start(ctx, spanAttempt,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.Int(attrAttempt, attempt)),
	)
}

// SetExitStatus attaches the remote command's exit status to span.
func SetExitStatus(span trace.Span, status int) {
	span.SetAttributes(attribute.Int(attrExitStatus, status))
}

// EndSpan records the result on span and ends it. A non-nil err marks the span
// failed with errType; otherwise the HTTP status code is attached.
func EndSpan(span trace.Span, statusCode int, errType string, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if errType != "" {
			span.SetAttributes(semconv.ErrorTypeKey.String(errType))
		}
	} else {
		span.SetAttributes(semconv.HTTPResponseStatusCode(statusCode))
	}
	span.End()
}
