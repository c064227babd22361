package browser

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/rs/zerolog/log"

	"github.com/tcschm/puppeteer-mcp/pkg/launchcfg"
)

const (
	disableFeatures      flags.Flag = "disable-features"
	siteIsolationFeature            = "site-per-process"
)

// RodLauncher starts Chromium through go-rod
type RodLauncher struct{}

// NewRodLauncher creates a launcher backed by a local Chromium
func NewRodLauncher() *RodLauncher {
	return &RodLauncher{}
}

// Launch spawns Chromium with opts and connects to it over CDP
func (r *RodLauncher) Launch(ctx context.Context, opts launchcfg.Options) (Browser, error) {
	l := buildLauncher(opts)

	log.Debug().
		Strs("args", l.FormatArgs()).
		Bool("headless", opts.Headless).
		Msg("Launching browser")

	controlURL, err := l.Launch()
	if err != nil {
		return nil, &BrowserError{
			Code:    ErrCodeLaunch,
			Message: fmt.Sprintf("Failed to launch Chrome: %v", err),
		}
	}

	b := rod.New().ControlURL(controlURL).NoDefaultDevice()
	if opts.SlowMo > 0 {
		b = b.SlowMotion(opts.SlowMo)
	}
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, &BrowserError{
			Code:    ErrCodeLaunch,
			Message: fmt.Sprintf("Failed to connect to CDP: %v", err),
		}
	}

	return &rodBrowser{
		browser:     b,
		launcher:    l,
		viewport:    opts.Viewport,
		ownsDataDir: opts.UserDataDir == "",
	}, nil
}

// buildLauncher translates launch options into Chromium flags
func buildLauncher(opts launchcfg.Options) *launcher.Launcher {
	l := launcher.New().Headless(opts.Headless)
	stripUnsafeDefaults(l)

	if opts.IgnoreAllDefaultArgs {
		for name := range l.Flags {
			if keepFlag(name) {
				continue
			}
			l.Delete(name)
		}
	}
	for _, arg := range opts.IgnoreDefaultArgs {
		l.Delete(flags.Flag(strings.TrimLeft(launchcfg.FlagName(arg), "-")))
	}

	for _, arg := range opts.Args {
		if !strings.HasPrefix(arg, "-") {
			l.Append(flags.Arguments, arg)
			continue
		}
		name, value, hasValue := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if hasValue {
			l.Set(flags.Flag(name), value)
		} else {
			l.Set(flags.Flag(name))
		}
	}

	if opts.ExecutablePath != "" {
		l.Bin(opts.ExecutablePath)
	}
	if opts.UserDataDir != "" {
		l.UserDataDir(opts.UserDataDir)
	}
	if opts.Devtools {
		l.Devtools(true)
	}
	if len(opts.Env) > 0 {
		env := make([]string, 0, len(opts.Env))
		for k, v := range opts.Env {
			env = append(env, k+"="+v)
		}
		l.Env(env...)
	}

	return l
}

// stripUnsafeDefaults removes rod's built-in flags that weaken the sandbox or
// site isolation. They come back only when the validated args carry them.
func stripUnsafeDefaults(l *launcher.Launcher) {
	for name, values := range l.Flags {
		if keepFlag(name) {
			continue
		}
		arg := "--" + string(name)
		if len(values) > 0 {
			arg += "=" + strings.Join(values, ",")
		}
		if launchcfg.IsDangerousFlag(arg) {
			l.Delete(name)
		}
	}

	if features, ok := l.GetFlags(disableFeatures); ok {
		kept := make([]string, 0, len(features))
		for _, f := range features {
			if f != siteIsolationFeature {
				kept = append(kept, f)
			}
		}
		if len(kept) == 0 {
			l.Delete(disableFeatures)
		} else {
			l.Set(disableFeatures, kept...)
		}
	}
}

// keepFlag reports whether a flag is required for the launcher to work
func keepFlag(name flags.Flag) bool {
	switch name {
	case flags.RemoteDebuggingPort, flags.UserDataDir, flags.Headless:
		return true
	}
	// Launcher-internal settings are never passed to Chromium.
	return strings.HasPrefix(string(name), "rod-")
}

type rodBrowser struct {
	browser     *rod.Browser
	launcher    *launcher.Launcher
	viewport    *launchcfg.Viewport
	ownsDataDir bool

	closeOnce sync.Once
	closeErr  error
}

func (b *rodBrowser) Page(ctx context.Context) (Page, error) {
	pages, err := b.browser.Context(ctx).Pages()
	if err != nil {
		return nil, &BrowserError{
			Code:    ErrCodeBrowserCrash,
			Message: fmt.Sprintf("Failed to list pages: %v", err),
		}
	}

	var page *rod.Page
	if len(pages) > 0 {
		page = pages.First()
	} else {
		page, err = b.browser.Context(ctx).Page(proto.TargetCreateTarget{})
		if err != nil {
			return nil, &BrowserError{
				Code:    ErrCodeBrowserCrash,
				Message: fmt.Sprintf("Failed to create page: %v", err),
			}
		}
	}

	if b.viewport != nil {
		if err := setViewport(page, b.viewport.Width, b.viewport.Height); err != nil {
			return nil, &BrowserError{
				Code:    ErrCodeConfiguration,
				Message: fmt.Sprintf("Failed to set viewport: %v", err),
			}
		}
	}

	return newRodPage(page), nil
}

func (b *rodBrowser) Connected(ctx context.Context) bool {
	_, err := proto.BrowserGetVersion{}.Call(b.browser.Context(ctx))
	return err == nil
}

func (b *rodBrowser) Close() error {
	b.closeOnce.Do(func() {
		b.closeErr = b.browser.Close()
		b.launcher.Kill()
		if b.ownsDataDir {
			b.launcher.Cleanup()
		}
	})
	return b.closeErr
}
