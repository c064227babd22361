package observability

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tcschm/puppeteer-mcp/internal/metrics"
)

// Recorder fans controller and dispatcher events out to metrics and the
// audit log. Either sink may be nil.
type Recorder struct {
	metrics *metrics.Metrics
	audit   *AuditLogger
}

// NewRecorder creates a Recorder
func NewRecorder(m *metrics.Metrics, audit *AuditLogger) *Recorder {
	return &Recorder{metrics: m, audit: audit}
}

// SessionLaunched implements browser.Recorder
func (r *Recorder) SessionLaunched(sessionID string, relaunch bool) {
	if r.metrics != nil {
		r.metrics.SessionLaunched(sessionID, relaunch)
	}
	if r.audit != nil {
		r.audit.RecordSessionAudit(context.Background(), "browser_launched", "success", map[string]interface{}{
			"session_id": sessionID,
			"relaunch":   relaunch,
		})
	}
}

// SessionLaunchFailed implements browser.Recorder
func (r *Recorder) SessionLaunchFailed(err error) {
	log.Error().Err(err).Msg("Browser launch failed")
	if r.metrics != nil {
		r.metrics.SessionLaunchFailed(err)
	}
	if r.audit != nil {
		r.audit.RecordSessionAudit(context.Background(), "browser_launched", "failure", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// SessionClosed implements browser.Recorder
func (r *Recorder) SessionClosed(sessionID string) {
	log.Info().Str("session_id", sessionID).Msg("Browser session closed")
	if r.metrics != nil {
		r.metrics.SessionClosed(sessionID)
	}
	if r.audit != nil {
		r.audit.RecordSessionAudit(context.Background(), "browser_closed", "success", map[string]interface{}{
			"session_id": sessionID,
		})
	}
}

// SafetyRejected implements browser.Recorder
func (r *Recorder) SafetyRejected(flags []string) {
	if r.metrics != nil {
		r.metrics.SafetyRejected(flags)
	}
	if r.audit != nil {
		r.audit.RecordSafetyAudit(context.Background(), "launch_rejected", "denied", flags)
	}
}

// DangerousOverride implements browser.Recorder
func (r *Recorder) DangerousOverride(flags []string) {
	log.Warn().Strs("flags", flags).Msg("Launching with dangerous options on explicit override")
	if r.metrics != nil {
		r.metrics.DangerousOverride(flags)
	}
	if r.audit != nil {
		r.audit.RecordSafetyAudit(context.Background(), "dangerous_override", "allowed", flags)
	}
}

// ConsoleMessage implements browser.Recorder
func (r *Recorder) ConsoleMessage(msgType string) {
	if r.metrics != nil {
		r.metrics.ConsoleMessage(msgType)
	}
}

// ToolCall implements toolexecutor.CallRecorder
func (r *Recorder) ToolCall(tool, outcome string, d time.Duration) {
	if r.metrics != nil {
		r.metrics.ToolCall(tool, outcome, d)
	}
}

// ArtifactStored implements toolexecutor.CallRecorder
func (r *Recorder) ArtifactStored(replaced bool) {
	if r.metrics != nil {
		r.metrics.ArtifactStored(replaced)
	}
}
