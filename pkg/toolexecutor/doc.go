// Package toolexecutor registers browser tools and dispatches calls to them.
//
// Invariants:
// - The registry is closed after NewRegistry; tool names are unique.
// - Arguments are schema-validated before a session is ensured.
// - Session rejections and tool failures become error results, never panics.
// - Artifacts produced by a tool are stored before the result is returned.
//
// Usage:
//
//	reg, _ := toolexecutor.NewRegistry(browsertools.All()...)
//	d := toolexecutor.NewDispatcher(reg, controller, toolexecutor.NewArtifactStore())
//	res := d.Handle(ctx, "puppeteer_navigate", map[string]interface{}{"url": "https://example.com"})
package toolexecutor
