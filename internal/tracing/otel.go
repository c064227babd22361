package tracing

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

var (
	providerMu sync.Mutex
	provider   *sdktrace.TracerProvider
)

// Init installs a process-wide tracer provider. Spans are sampled and kept
// in process; extra span processors (exporters) can be passed in. Calling it
// again is a no-op.
func Init(serviceName, version string, processors ...sdktrace.SpanProcessor) error {
	providerMu.Lock()
	defer providerMu.Unlock()

	if provider != nil {
		return nil
	}

	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(version),
		),
	)
	if err != nil {
		return err
	}

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.AlwaysSample())),
		sdktrace.WithResource(res),
	}
	for _, p := range processors {
		opts = append(opts, sdktrace.WithSpanProcessor(p))
	}

	provider = sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(provider)
	return nil
}

// Shutdown flushes and shuts down the tracer provider installed by Init
func Shutdown(ctx context.Context) error {
	providerMu.Lock()
	tp := provider
	provider = nil
	providerMu.Unlock()

	if tp == nil {
		return nil
	}
	return tp.Shutdown(ctx)
}

// StartSpan starts a span and records its trace ID in the context so log
// lines and spans can be correlated.
func StartSpan(ctx context.Context, tracerName, spanName string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if ctx == nil {
		ctx = context.Background()
	}

	if rid := GetRequestID(ctx); rid != "" {
		attrs = append(attrs, attribute.String("rpc.request_id", rid))
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, spanName, trace.WithAttributes(attrs...))

	if sc := span.SpanContext(); sc.IsValid() && GetTraceID(ctx) != sc.TraceID().String() {
		ctx = WithTraceID(ctx, sc.TraceID().String())
	}

	return ctx, span
}
