package tracing

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestStartSpanRecordsTraceID(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	if err := Init("puppeteer-mcp-test", "test", recorder); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer Shutdown(context.Background())

	ctx := WithRequestID(context.Background(), "11")
	ctx, span := StartSpan(ctx, "test", "unit.span")
	span.End()

	if GetTraceID(ctx) != span.SpanContext().TraceID().String() {
		t.Errorf("Expected context trace ID %s, got %s", span.SpanContext().TraceID(), GetTraceID(ctx))
	}

	ended := recorder.Ended()
	if len(ended) != 1 {
		t.Fatalf("Expected 1 ended span, got %d", len(ended))
	}
	if ended[0].Name() != "unit.span" {
		t.Errorf("Expected span unit.span, got %s", ended[0].Name())
	}

	found := false
	for _, kv := range ended[0].Attributes() {
		if string(kv.Key) == "rpc.request_id" && kv.Value.AsString() == "11" {
			found = true
		}
	}
	if !found {
		t.Error("Expected rpc.request_id attribute on span")
	}
}
