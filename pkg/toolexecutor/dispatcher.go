package toolexecutor

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/tcschm/puppeteer-mcp/internal/tracing"
	"github.com/tcschm/puppeteer-mcp/pkg/browser"
	"github.com/tcschm/puppeteer-mcp/pkg/launchcfg"
)

// Argument names consumed by the dispatcher before a tool runs.
const (
	ArgLaunchOptions  = "launchOptions"
	ArgAllowDangerous = "allowDangerous"
)

// Call outcomes reported to the CallRecorder.
const (
	OutcomeOK       = "ok"
	OutcomeToolErr  = "tool_error"
	OutcomeUnknown  = "unknown_tool"
	OutcomeInvalid  = "invalid_arguments"
	OutcomeRejected = "session_rejected"
	OutcomeFailed   = "execution_failed"
)

// SessionProvider supplies the page a tool runs against.
type SessionProvider interface {
	EnsureSession(ctx context.Context, req browser.SessionRequest) (browser.Page, error)
}

// Notifier is told when the set of stored artifacts changes.
type Notifier interface {
	ResourceListChanged()
}

// CallRecorder receives per-call outcomes for metrics.
type CallRecorder interface {
	ToolCall(tool, outcome string, duration time.Duration)
	ArtifactStored(replaced bool)
}

// Dispatcher routes tool calls through session checks to the tools. It never
// lets a failure escape as anything other than an error result.
type Dispatcher struct {
	registry  *Registry
	sessions  SessionProvider
	artifacts *ArtifactStore
	notifier  Notifier
	recorder  CallRecorder
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithNotifier sets the artifact change notification target.
func WithNotifier(n Notifier) DispatcherOption {
	return func(d *Dispatcher) { d.notifier = n }
}

// WithCallRecorder sets the per-call metrics sink.
func WithCallRecorder(r CallRecorder) DispatcherOption {
	return func(d *Dispatcher) { d.recorder = r }
}

// NewDispatcher creates a dispatcher over a closed registry.
func NewDispatcher(registry *Registry, sessions SessionProvider, artifacts *ArtifactStore, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		registry:  registry,
		sessions:  sessions,
		artifacts: artifacts,
		notifier:  noopNotifier{},
		recorder:  noopCallRecorder{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Registry returns the tools the dispatcher serves.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Artifacts returns the artifact store.
func (d *Dispatcher) Artifacts() *ArtifactStore {
	return d.artifacts
}

// Handle executes the named tool with args and always returns a result.
func (d *Dispatcher) Handle(ctx context.Context, name string, args map[string]interface{}) *Result {
	start := time.Now()
	callID := uuid.NewString()
	ctx = ContextWithCallID(ctx, callID)
	ctx = ContextWithToolName(ctx, name)

	ctx, span := tracing.StartSpan(ctx, "toolexecutor", "tool.call",
		attribute.String("tool.name", name),
		attribute.String("tool.call_id", callID),
	)
	defer span.End()

	logger := log.With().
		Str("tool", name).
		Str("call_id", callID).
		Logger()

	result, outcome := d.handle(ctx, name, args)

	duration := time.Since(start)
	d.recorder.ToolCall(name, outcome, duration)
	span.SetAttributes(attribute.String("tool.outcome", outcome))
	if result.IsError {
		span.SetStatus(codes.Error, outcome)
		logger.Warn().
			Str("outcome", outcome).
			Dur("duration", duration).
			Str("message", result.Text()).
			Msg("Tool call failed")
	} else {
		logger.Debug().
			Dur("duration", duration).
			Msg("Tool call completed")
	}

	return result
}

func (d *Dispatcher) handle(ctx context.Context, name string, args map[string]interface{}) (*Result, string) {
	tool, ok := d.registry.Lookup(name)
	if !ok {
		return ErrorResult("Unknown tool: %s", name), OutcomeUnknown
	}
	args = dropNullSessionArgs(args)

	if err := d.registry.Validate(name, args); err != nil {
		return ErrorResult("Invalid arguments for %s: %v", name, err), OutcomeInvalid
	}

	req, err := sessionRequest(args)
	if err != nil {
		return ErrorResult("Invalid arguments for %s: %v", name, err), OutcomeInvalid
	}

	page, err := d.sessions.EnsureSession(ctx, req)
	if err != nil {
		return ErrorResult("%s", err.Error()), OutcomeRejected
	}

	result, err := execute(ctx, tool, page, args)
	if err != nil {
		return ErrorResult("Tool execution failed: %v", err), OutcomeFailed
	}

	if a := result.Artifact; a != nil {
		replaced := d.artifacts.Put(a.Name, a.Data)
		d.recorder.ArtifactStored(replaced)
		d.notifier.ResourceListChanged()
	}

	if result.IsError {
		return result, OutcomeToolErr
	}
	return result, OutcomeOK
}

// execute runs the tool and converts panics into errors.
func execute(ctx context.Context, tool Tool, page browser.Page, args map[string]interface{}) (result *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Str("tool", ToolNameFromContext(ctx)).
				Interface("panic", r).
				Msg("Tool panicked")
			result, err = nil, fmt.Errorf("%v", r)
		}
	}()

	result, err = tool.Execute(ctx, page, args)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, fmt.Errorf("tool returned no result")
	}
	return result, nil
}

// dropNullSessionArgs returns args without null session arguments, which mean
// "use the default". The caller's map is not modified.
func dropNullSessionArgs(args map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(args))
	for k, v := range args {
		if v == nil && (k == ArgLaunchOptions || k == ArgAllowDangerous) {
			continue
		}
		out[k] = v
	}
	return out
}

// sessionRequest extracts the session arguments of a call.
func sessionRequest(args map[string]interface{}) (browser.SessionRequest, error) {
	var req browser.SessionRequest

	if v, ok := args[ArgLaunchOptions]; ok && v != nil {
		m, isMap := v.(map[string]interface{})
		if !isMap {
			return req, fmt.Errorf("%s must be an object", ArgLaunchOptions)
		}
		req.LaunchOptions = launchcfg.Config(m)
	}

	if v, ok := args[ArgAllowDangerous]; ok && v != nil {
		b, isBool := v.(bool)
		if !isBool {
			return req, fmt.Errorf("%s must be a boolean", ArgAllowDangerous)
		}
		req.AllowDangerous = b
	}

	return req, nil
}

type noopNotifier struct{}

func (noopNotifier) ResourceListChanged() {}

type noopCallRecorder struct{}

func (noopCallRecorder) ToolCall(string, string, time.Duration) {}
func (noopCallRecorder) ArtifactStored(bool)                    {}
