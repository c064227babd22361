package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/tcschm/puppeteer-mcp/internal/tracing"
	"github.com/tcschm/puppeteer-mcp/pkg/launchcfg"
)

// EnvSource supplies the environment inputs of the session decision. Values
// are read on every call.
type EnvSource interface {
	LaunchOptions() launchcfg.Config
	AllowDangerous() bool
	InContainer() bool
}

// SessionObserver is told when the console log grows.
type SessionObserver interface {
	ConsoleUpdated()
}

// Recorder receives lifecycle events for metrics and auditing.
type Recorder interface {
	SessionLaunched(sessionID string, relaunch bool)
	SessionLaunchFailed(err error)
	SessionClosed(sessionID string)
	SafetyRejected(flags []string)
	DangerousOverride(flags []string)
	ConsoleMessage(msgType string)
}

// SessionRequest carries the per-call inputs of EnsureSession.
type SessionRequest struct {
	LaunchOptions  launchcfg.Config
	AllowDangerous bool
}

type session struct {
	id          string
	browser     Browser
	page        Page
	fingerprint string
	generation  uint64
}

// Controller owns the single browser session. It decides on every call
// whether the session is reused, recreated or refused.
type Controller struct {
	launcher Launcher
	env      EnvSource
	observer SessionObserver
	recorder Recorder

	mu         sync.Mutex
	session    *session
	generation atomic.Uint64

	console ConsoleLog
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithObserver sets the console notification target.
func WithObserver(o SessionObserver) ControllerOption {
	return func(c *Controller) { c.observer = o }
}

// WithRecorder sets the lifecycle event sink.
func WithRecorder(r Recorder) ControllerOption {
	return func(c *Controller) { c.recorder = r }
}

// NewController creates a controller with no session.
func NewController(launcher Launcher, env EnvSource, opts ...ControllerOption) *Controller {
	c := &Controller{
		launcher: launcher,
		env:      env,
		observer: noopObserver{},
		recorder: noopRecorder{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// EnsureSession returns the active page, launching or relaunching the browser
// when required. A safety violation leaves the session untouched.
func (c *Controller) EnsureSession(ctx context.Context, req SessionRequest) (Page, error) {
	ctx, span := tracing.StartSpan(ctx, "browser", "browser.ensure_session")
	defer span.End()

	c.mu.Lock()
	defer c.mu.Unlock()

	user := launchcfg.MergeConfig(c.env.LaunchOptions(), req.LaunchOptions)
	allow := req.AllowDangerous || c.env.AllowDangerous()

	if err := launchcfg.Validate(user, allow); err != nil {
		var violation *launchcfg.SafetyViolation
		if errors.As(err, &violation) {
			c.recorder.SafetyRejected(violation.Flags)
		}
		log.Warn().
			Err(err).
			Msg("Rejected launch configuration")
		span.SetStatus(codes.Error, "safety violation")
		return nil, err
	}
	if allow {
		if flags := launchcfg.FindDangerousFlags(user); len(flags) > 0 {
			c.recorder.DangerousOverride(flags)
		}
	}

	full := launchcfg.MergeConfig(launchcfg.Defaults(c.env.InContainer()), user)
	fingerprint := launchcfg.Fingerprint(full)

	relaunch := false
	if s := c.session; s != nil {
		switch {
		case s.fingerprint != fingerprint:
			log.Info().
				Str("session_id", s.id).
				Msg("Launch configuration changed, restarting browser")
		case !s.browser.Connected(ctx):
			log.Warn().
				Str("session_id", s.id).
				Msg("Browser disconnected, restarting")
		default:
			span.SetAttributes(attribute.String("session.id", s.id), attribute.Bool("session.reused", true))
			return s.page, nil
		}
		c.closeSession()
		relaunch = true
	}

	s, err := c.launch(ctx, full, fingerprint)
	if err != nil {
		c.recorder.SessionLaunchFailed(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "launch failed")
		return nil, err
	}
	c.session = s
	c.recorder.SessionLaunched(s.id, relaunch)
	span.SetAttributes(
		attribute.String("session.id", s.id),
		attribute.Bool("session.reused", false),
		attribute.Bool("session.relaunch", relaunch),
	)

	log.Info().
		Str("session_id", s.id).
		Bool("relaunch", relaunch).
		Msg("Browser session ready")

	return s.page, nil
}

func (c *Controller) launch(ctx context.Context, full launchcfg.Config, fingerprint string) (*session, error) {
	opts, err := launchcfg.DecodeOptions(full)
	if err != nil {
		return nil, &BrowserError{
			Code:    ErrCodeConfiguration,
			Message: fmt.Sprintf("Invalid launch options: %v", err),
		}
	}

	b, err := c.launcher.Launch(ctx, opts)
	if err != nil {
		if IsCode(err, ErrCodeLaunch) {
			return nil, err
		}
		return nil, &BrowserError{
			Code:    ErrCodeLaunch,
			Message: fmt.Sprintf("Failed to launch browser: %v", err),
		}
	}

	page, err := b.Page(ctx)
	if err != nil {
		if closeErr := b.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("Failed to close browser after page error")
		}
		return nil, &BrowserError{
			Code:    ErrCodeLaunch,
			Message: fmt.Sprintf("Failed to open page: %v", err),
		}
	}

	id, err := gonanoid.New()
	if err != nil {
		id = fmt.Sprintf("session-%d", c.generation.Load()+1)
	}

	gen := c.generation.Add(1)
	page.ObserveConsole(func(msg ConsoleMessage) {
		c.recordConsole(gen, msg)
	})

	return &session{
		id:          id,
		browser:     b,
		page:        page,
		fingerprint: fingerprint,
		generation:  gen,
	}, nil
}

func (c *Controller) recordConsole(gen uint64, msg ConsoleMessage) {
	// Messages from a replaced session are dropped.
	if c.generation.Load() != gen {
		return
	}
	c.console.Append(msg.Line())
	c.recorder.ConsoleMessage(msg.Type)
	c.observer.ConsoleUpdated()
}

// closeSession must be called with mu held.
func (c *Controller) closeSession() error {
	s := c.session
	if s == nil {
		return nil
	}
	c.session = nil
	c.generation.Add(1)
	c.recorder.SessionClosed(s.id)

	if err := s.browser.Close(); err != nil {
		log.Warn().
			Err(err).
			Str("session_id", s.id).
			Msg("Failed to close browser")
		return err
	}
	return nil
}

// Close shuts the browser down. It is safe to call without a session.
func (c *Controller) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeSession()
}

// HasSession reports whether a browser session is active.
func (c *Controller) HasSession() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session != nil
}

// ConsoleLogs returns a copy of the console log.
func (c *Controller) ConsoleLogs() []string {
	return c.console.Lines()
}

// ConsoleText returns the console log joined by newlines.
func (c *Controller) ConsoleText() string {
	return c.console.Text()
}

type noopObserver struct{}

func (noopObserver) ConsoleUpdated() {}

type noopRecorder struct{}

func (noopRecorder) SessionLaunched(string, bool) {}
func (noopRecorder) SessionLaunchFailed(error)    {}
func (noopRecorder) SessionClosed(string)         {}
func (noopRecorder) SafetyRejected([]string)      {}
func (noopRecorder) DangerousOverride([]string)   {}
func (noopRecorder) ConsoleMessage(string)        {}
