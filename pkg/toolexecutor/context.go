package toolexecutor

import "context"

type callIDKey struct{}

type toolNameKey struct{}

// ContextWithCallID attaches the correlation id of a tool call.
func ContextWithCallID(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, callIDKey{}, id)
}

// CallIDFromContext extracts the correlation id of a tool call.
func CallIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(callIDKey{}).(string); ok {
		return v
	}
	return ""
}

// ContextWithToolName attaches the name of the tool being executed.
func ContextWithToolName(ctx context.Context, name string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, toolNameKey{}, name)
}

// ToolNameFromContext extracts the name of the tool being executed.
func ToolNameFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(toolNameKey{}).(string); ok {
		return v
	}
	return ""
}
