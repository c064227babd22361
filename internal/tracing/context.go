package tracing

import (
	"context"

	"github.com/google/uuid"
)

// ContextKey is the type for context keys
type ContextKey string

const (
	// TraceIDKey is the context key for trace ID
	TraceIDKey ContextKey = "trace_id"
	// RequestIDKey is the context key for the JSON-RPC request ID
	RequestIDKey ContextKey = "request_id"
	// MethodKey is the context key for the JSON-RPC method
	MethodKey ContextKey = "method"
)

// TraceContext holds tracing information for one protocol request
type TraceContext struct {
	TraceID   string
	RequestID string
	Method    string
}

// NewTraceID generates a new trace ID
func NewTraceID() string {
	return uuid.New().String()
}

// WithTraceID adds a trace ID to the context
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey, traceID)
}

// WithRequestID adds a JSON-RPC request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// WithMethod adds a JSON-RPC method name to the context
func WithMethod(ctx context.Context, method string) context.Context {
	return context.WithValue(ctx, MethodKey, method)
}

// GetTraceID retrieves the trace ID from the context
func GetTraceID(ctx context.Context) string {
	if traceID, ok := ctx.Value(TraceIDKey).(string); ok {
		return traceID
	}
	return ""
}

// GetRequestID retrieves the request ID from the context
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// GetMethod retrieves the method from the context
func GetMethod(ctx context.Context) string {
	if method, ok := ctx.Value(MethodKey).(string); ok {
		return method
	}
	return ""
}

// FromContext extracts all tracing information from the context
func FromContext(ctx context.Context) *TraceContext {
	return &TraceContext{
		TraceID:   GetTraceID(ctx),
		RequestID: GetRequestID(ctx),
		Method:    GetMethod(ctx),
	}
}

// NewContext creates a new context with tracing information
func NewContext(ctx context.Context, tc *TraceContext) context.Context {
	if tc.TraceID != "" {
		ctx = WithTraceID(ctx, tc.TraceID)
	}
	if tc.RequestID != "" {
		ctx = WithRequestID(ctx, tc.RequestID)
	}
	if tc.Method != "" {
		ctx = WithMethod(ctx, tc.Method)
	}
	return ctx
}

// NewRequestContext starts tracing a protocol request
func NewRequestContext(ctx context.Context, requestID, method string) context.Context {
	return NewContext(ctx, &TraceContext{
		TraceID:   NewTraceID(),
		RequestID: requestID,
		Method:    method,
	})
}
