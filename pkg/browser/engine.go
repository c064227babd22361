package browser

import (
	"context"

	"github.com/tcschm/puppeteer-mcp/pkg/launchcfg"
)

// Launcher starts a browser from decoded launch options.
type Launcher interface {
	Launch(ctx context.Context, opts launchcfg.Options) (Browser, error)
}

// Browser is a running browser process.
type Browser interface {
	// Page returns the first open page, creating one when none exists.
	Page(ctx context.Context) (Page, error)
	// Connected reports whether the browser still answers protocol calls.
	Connected(ctx context.Context) bool
	Close() error
}

// Page is the active tab that tools operate on.
type Page interface {
	// Navigate loads url and waits until the network is idle. A nil Response
	// means the navigation produced no document response.
	Navigate(ctx context.Context, url string) (*Response, error)
	// Click clicks the first element matching selector without waiting for it.
	Click(ctx context.Context, selector string) error
	// Fill waits for selector and types value into it.
	Fill(ctx context.Context, selector, value string) error
	// Select waits for selector and selects the option with the given value.
	Select(ctx context.Context, selector, value string) error
	// Hover waits for selector and moves the pointer over it.
	Hover(ctx context.Context, selector string) error
	SetViewport(ctx context.Context, width, height int) error
	// Screenshot captures the viewport as PNG, or a single element when
	// selector is set. A missing element yields ErrElementNotFound.
	Screenshot(ctx context.Context, selector string) ([]byte, error)
	// Evaluate runs script and captures console output written meanwhile.
	Evaluate(ctx context.Context, script string) (*EvalResult, error)
	// ObserveConsole registers fn for every console message of the page.
	ObserveConsole(fn func(ConsoleMessage))
}
