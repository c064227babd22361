// Package observability records the security-relevant history of the browser
// session: rejected and overridden launch configurations, launches and closes.
package observability

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Audit event types
const (
	EventSafety  = "safety"
	EventSession = "session"
)

// AuditEvent represents a structured event for the audit log
type AuditEvent struct {
	Type      string                 `json:"event_type"`
	Timestamp time.Time              `json:"timestamp"`
	Action    string                 `json:"action"` // e.g. "launch_rejected", "browser_launched"
	Status    string                 `json:"status"` // "success", "failure", "denied", "allowed"
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	TraceID   string                 `json:"trace_id,omitempty"`
}

// AuditLogger writes audit events as JSON lines
type AuditLogger struct {
	mu     sync.Mutex
	logger zerolog.Logger
	closer io.Closer
}

// NewAuditLogger writes events to w
func NewAuditLogger(w io.Writer) *AuditLogger {
	return &AuditLogger{
		logger: zerolog.New(w).With().Timestamp().Str("stream", "audit").Logger(),
	}
}

// OpenAuditLogger appends events to the file at path. An empty path writes
// to stderr.
func OpenAuditLogger(path string) (*AuditLogger, error) {
	if path == "" {
		return NewAuditLogger(os.Stderr), nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil, err
	}

	a := NewAuditLogger(file)
	a.closer = file
	return a, nil
}

// Record emits an audit event, and a span event when ctx carries a span
func (a *AuditLogger) Record(ctx context.Context, event AuditEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		event.TraceID = span.SpanContext().TraceID().String()
		span.AddEvent(event.Action, trace.WithAttributes(
			attribute.String("audit.type", event.Type),
			attribute.String("audit.status", event.Status),
		))
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	entry := a.logger.Log().
		Str("type", event.Type).
		Str("action", event.Action).
		Str("status", event.Status).
		Time("at", event.Timestamp)

	if event.TraceID != "" {
		entry.Str("trace_id", event.TraceID)
	}
	if event.Metadata != nil {
		entry.Interface("metadata", event.Metadata)
	}

	entry.Msg("")
}

// Close closes the audit file, if any
func (a *AuditLogger) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closer != nil {
		err := a.closer.Close()
		a.closer = nil
		return err
	}
	return nil
}

// RecordSafetyAudit records a decision of the safety validator
func (a *AuditLogger) RecordSafetyAudit(ctx context.Context, action, status string, flags []string) {
	a.Record(ctx, AuditEvent{
		Type:     EventSafety,
		Action:   action,
		Status:   status,
		Metadata: map[string]interface{}{"flags": flags},
	})
}

// RecordSessionAudit records a browser session transition
func (a *AuditLogger) RecordSessionAudit(ctx context.Context, action, status string, metadata map[string]interface{}) {
	a.Record(ctx, AuditEvent{
		Type:     EventSession,
		Action:   action,
		Status:   status,
		Metadata: metadata,
	})
}
