package jwtmiddleware

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// SpanName is the name of the span opened around each authentication.
const SpanName = "jwtmiddleware.Authenticate"

// Span attribute keys.
const (
	AttrAuthStatus = attribute.Key("auth.status")
	AttrAuthCode   = attribute.Key("auth.code")
)

// startSpan opens a span when a tracer is configured. The returned span is
// never nil.
func startSpan(ctx context.Context, tracer oteltrace.Tracer) (context.Context, oteltrace.Span) {
	if tracer == nil {
		return ctx, oteltrace.SpanFromContext(ctx)
	}
	return tracer.Start(ctx, SpanName, oteltrace.WithSpanKind(oteltrace.SpanKindServer))
}

func finishSpan(span oteltrace.Span, owned bool, result, code string, err error) {
	if !owned {
		return
	}
	defer span.End()

	span.SetAttributes(AttrAuthStatus.String(result))
	if code != "" {
		span.SetAttributes(AttrAuthCode.String(code))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, result)
	}
}
