// Package browsertest provides in-memory doubles of the browser engine.
package browsertest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tcschm/puppeteer-mcp/pkg/browser"
	"github.com/tcschm/puppeteer-mcp/pkg/launchcfg"
)

// Launcher records launches and hands out fake browsers.
type Launcher struct {
	mu       sync.Mutex
	Err      error
	Launches []launchcfg.Options
	Browsers []*Browser
	// NewPage customizes the page of each launched browser.
	NewPage func() *Page
}

// NewLauncher creates a launcher whose browsers each own a fresh Page.
func NewLauncher() *Launcher {
	return &Launcher{}
}

func (l *Launcher) Launch(ctx context.Context, opts launchcfg.Options) (browser.Browser, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.Launches = append(l.Launches, opts)
	if l.Err != nil {
		return nil, l.Err
	}

	page := NewPage()
	if l.NewPage != nil {
		page = l.NewPage()
	}
	b := &Browser{page: page, connected: true}
	l.Browsers = append(l.Browsers, b)
	return b, nil
}

// LaunchCount returns how many launches were attempted.
func (l *Launcher) LaunchCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.Launches)
}

// Last returns the most recently launched browser.
func (l *Launcher) Last() *Browser {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.Browsers) == 0 {
		return nil
	}
	return l.Browsers[len(l.Browsers)-1]
}

// Browser is a fake running browser with a single page.
type Browser struct {
	mu        sync.Mutex
	page      *Page
	connected bool
	closed    int
	CloseErr  error
	PageErr   error
}

func (b *Browser) Page(ctx context.Context) (browser.Page, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.PageErr != nil {
		return nil, b.PageErr
	}
	return b.page, nil
}

func (b *Browser) Connected(ctx context.Context) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.connected && b.closed == 0
}

func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed++
	return b.CloseErr
}

// Disconnect simulates a crashed browser.
func (b *Browser) Disconnect() {
	b.mu.Lock()
	b.connected = false
	b.mu.Unlock()
}

// Closed reports whether Close was called.
func (b *Browser) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed > 0
}

// FakePage returns the browser's page.
func (b *Browser) FakePage() *Page {
	return b.page
}

// Page is a scriptable fake page. Selectors listed in Elements exist; the
// rest are missing.
type Page struct {
	mu sync.Mutex

	Elements map[string]bool
	// Options maps a select selector to its option values.
	Options map[string][]string

	Response      *browser.Response
	NavigateErr   error
	ViewportErr   error
	ScreenshotPNG []byte
	ScreenshotErr error
	EvalResult    *browser.EvalResult
	EvalErr       error
	// Panic makes every operation panic with this value when set.
	Panic any

	Calls    []string
	Viewport [2]int
	Filled   map[string]string
	Selected map[string]string

	observers []func(browser.ConsoleMessage)
}

// NewPage creates a page answering navigations with 200 OK.
func NewPage() *Page {
	return &Page{
		Elements:      map[string]bool{},
		Options:       map[string][]string{},
		Response:      &browser.Response{Status: 200, StatusText: "OK"},
		ScreenshotPNG: []byte("\x89PNG fake"),
		Filled:        map[string]string{},
		Selected:      map[string]string{},
	}
}

func (p *Page) record(format string, args ...any) {
	p.mu.Lock()
	p.Calls = append(p.Calls, fmt.Sprintf(format, args...))
	p.mu.Unlock()
	if p.Panic != nil {
		panic(p.Panic)
	}
}

func (p *Page) has(selector string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Elements[selector]
}

func (p *Page) Navigate(ctx context.Context, url string) (*browser.Response, error) {
	p.record("navigate %s", url)
	if p.NavigateErr != nil {
		return nil, p.NavigateErr
	}
	return p.Response, nil
}

func (p *Page) Click(ctx context.Context, selector string) error {
	p.record("click %s", selector)
	if !p.has(selector) {
		return fmt.Errorf("no element found for selector: %s", selector)
	}
	return nil
}

func (p *Page) Fill(ctx context.Context, selector, value string) error {
	p.record("fill %s", selector)
	if !p.has(selector) {
		return waitTimeout(selector)
	}
	p.mu.Lock()
	p.Filled[selector] += value
	p.mu.Unlock()
	return nil
}

func (p *Page) Select(ctx context.Context, selector, value string) error {
	p.record("select %s", selector)
	if !p.has(selector) {
		return waitTimeout(selector)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, opt := range p.Options[selector] {
		if opt == value {
			p.Selected[selector] = value
			return nil
		}
	}
	return errors.New("no option matched")
}

func (p *Page) Hover(ctx context.Context, selector string) error {
	p.record("hover %s", selector)
	if !p.has(selector) {
		return waitTimeout(selector)
	}
	return nil
}

func (p *Page) SetViewport(ctx context.Context, width, height int) error {
	p.record("viewport %dx%d", width, height)
	if p.ViewportErr != nil {
		return p.ViewportErr
	}
	p.mu.Lock()
	p.Viewport = [2]int{width, height}
	p.mu.Unlock()
	return nil
}

func (p *Page) Screenshot(ctx context.Context, selector string) ([]byte, error) {
	p.record("screenshot %s", selector)
	if p.ScreenshotErr != nil {
		return nil, p.ScreenshotErr
	}
	if selector != "" && !p.has(selector) {
		return nil, browser.ErrElementNotFound
	}
	return p.ScreenshotPNG, nil
}

func (p *Page) Evaluate(ctx context.Context, script string) (*browser.EvalResult, error) {
	p.record("evaluate %s", script)
	if p.EvalErr != nil {
		return nil, p.EvalErr
	}
	if p.EvalResult == nil {
		return &browser.EvalResult{Undefined: true}, nil
	}
	return p.EvalResult, nil
}

func (p *Page) ObserveConsole(fn func(browser.ConsoleMessage)) {
	p.mu.Lock()
	p.observers = append(p.observers, fn)
	p.mu.Unlock()
}

// EmitConsole delivers a console message to every observer.
func (p *Page) EmitConsole(msgType, text string) {
	p.mu.Lock()
	observers := append([]func(browser.ConsoleMessage){}, p.observers...)
	p.mu.Unlock()

	msg := browser.ConsoleMessage{Type: msgType, Text: text, Timestamp: time.Now()}
	for _, observe := range observers {
		observe(msg)
	}
}

// CallLog returns a copy of the recorded operations.
func (p *Page) CallLog() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.Calls...)
}

func waitTimeout(selector string) error {
	return fmt.Errorf("waiting for selector %q failed: context deadline exceeded", selector)
}

// Env is a static environment source.
type Env struct {
	Options   launchcfg.Config
	Allow     bool
	Container bool
}

func (e Env) LaunchOptions() launchcfg.Config { return e.Options }
func (e Env) AllowDangerous() bool            { return e.Allow }
func (e Env) InContainer() bool               { return e.Container }
