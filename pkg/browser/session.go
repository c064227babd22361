package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

const (
	// WaitTimeout bounds how long operations wait for a selector to appear.
	WaitTimeout = 30 * time.Second
	// NavigationTimeout bounds a page load including the wait for network idle.
	NavigationTimeout = 30 * time.Second
)

// rodPage adapts a rod page to the Page interface
type rodPage struct {
	page *rod.Page

	mu        sync.Mutex
	observers []func(ConsoleMessage)
	observing bool
}

func newRodPage(page *rod.Page) *rodPage {
	return &rodPage{page: page}
}

func (p *rodPage) Navigate(ctx context.Context, url string) (*Response, error) {
	navCtx, cancel := context.WithTimeout(ctx, NavigationTimeout)
	defer cancel()

	page := p.page.Context(navCtx)
	frameID := page.FrameID

	var (
		mu   sync.Mutex
		resp *Response
	)
	go page.EachEvent(func(e *proto.NetworkResponseReceived) {
		if e.Type != proto.NetworkResourceTypeDocument || e.Response == nil {
			return
		}
		if frameID != "" && e.FrameID != frameID {
			return
		}
		mu.Lock()
		resp = &Response{Status: e.Response.Status, StatusText: e.Response.StatusText}
		mu.Unlock()
	})()

	wait := page.WaitNavigation(proto.PageLifecycleEventNameNetworkIdle)
	if err := page.Navigate(url); err != nil {
		if ctxErr := navCtx.Err(); ctxErr != nil {
			return nil, interruptedLoad(ctxErr)
		}
		return nil, &BrowserError{
			Code:    ErrCodeNavigation,
			Message: err.Error(),
		}
	}
	wait()

	if err := navCtx.Err(); err != nil {
		return nil, interruptedLoad(err)
	}

	mu.Lock()
	defer mu.Unlock()
	return resp, nil
}

// interruptedLoad describes a page load cut short by its context
func interruptedLoad(err error) *BrowserError {
	if errors.Is(err, context.DeadlineExceeded) {
		return &BrowserError{
			Code:    ErrCodeTimeout,
			Message: fmt.Sprintf("Navigation timeout of %d ms exceeded", NavigationTimeout.Milliseconds()),
		}
	}
	return &BrowserError{
		Code:    ErrCodeNavigation,
		Message: fmt.Sprintf("Page load interrupted: %v", err),
	}
}

func (p *rodPage) Click(ctx context.Context, selector string) error {
	has, elem, err := p.page.Context(ctx).Has(selector)
	if err != nil {
		return err
	}
	if !has {
		return fmt.Errorf("no element found for selector: %s", selector)
	}
	return elem.Click(proto.InputMouseButtonLeft, 1)
}

func (p *rodPage) Fill(ctx context.Context, selector, value string) error {
	elem, err := p.waitFor(ctx, selector)
	if err != nil {
		return err
	}
	return elem.Input(value)
}

func (p *rodPage) Select(ctx context.Context, selector, value string) error {
	elem, err := p.waitFor(ctx, selector)
	if err != nil {
		return err
	}
	option := fmt.Sprintf("option[value=%s]", strconv.Quote(value))
	return elem.Select([]string{option}, true, rod.SelectorTypeCSSSector)
}

func (p *rodPage) Hover(ctx context.Context, selector string) error {
	elem, err := p.waitFor(ctx, selector)
	if err != nil {
		return err
	}
	return elem.Hover()
}

func (p *rodPage) SetViewport(ctx context.Context, width, height int) error {
	return setViewport(p.page.Context(ctx), width, height)
}

func (p *rodPage) Screenshot(ctx context.Context, selector string) ([]byte, error) {
	page := p.page.Context(ctx)
	if selector == "" {
		return page.Screenshot(false, nil)
	}

	has, elem, err := page.Has(selector)
	if err != nil {
		return nil, err
	}
	if !has {
		return nil, ErrElementNotFound
	}
	return elem.Screenshot(proto.PageCaptureScreenshotFormatPng, 0)
}

const consoleHookJS = `() => {
	const hook = { logs: [], original: {} };
	for (const method of ['log', 'info', 'warn', 'error']) {
		if (typeof console[method] !== 'function') continue;
		hook.original[method] = console[method];
		console[method] = (...args) => {
			hook.logs.push('[' + method + '] ' + args.map(String).join(' '));
			hook.original[method].apply(console, args);
		};
	}
	window.__mcpConsoleHook = hook;
}`

const consoleUnhookJS = `() => {
	const hook = window.__mcpConsoleHook;
	if (!hook) return [];
	Object.assign(console, hook.original);
	delete window.__mcpConsoleHook;
	return hook.logs;
}`

func (p *rodPage) Evaluate(ctx context.Context, script string) (result *EvalResult, err error) {
	page := p.page.Context(ctx)

	if _, err := page.Eval(consoleHookJS); err != nil {
		return nil, err
	}
	defer func() {
		logs, unhookErr := p.collectConsole(page)
		if result != nil {
			result.Console = logs
		}
		if err == nil && unhookErr != nil {
			result, err = nil, unhookErr
		}
	}()

	res, err := proto.RuntimeEvaluate{
		Expression:    script,
		ReturnByValue: true,
		AwaitPromise:  true,
	}.Call(page)
	if err != nil {
		return nil, err
	}
	if res.ExceptionDetails != nil {
		return nil, &BrowserError{
			Code:    ErrCodeScriptExecution,
			Message: exceptionMessage(res.ExceptionDetails),
		}
	}

	out := &EvalResult{}
	if res.Result == nil || res.Result.Type == proto.RuntimeRemoteObjectTypeUndefined {
		out.Undefined = true
		return out, nil
	}

	data, err := res.Result.Value.MarshalJSON()
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, &out.Value); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *rodPage) collectConsole(page *rod.Page) ([]string, error) {
	obj, err := page.Eval(consoleUnhookJS)
	if err != nil {
		return nil, err
	}
	var logs []string
	for _, v := range obj.Value.Arr() {
		logs = append(logs, v.Str())
	}
	return logs, nil
}

func (p *rodPage) ObserveConsole(fn func(ConsoleMessage)) {
	p.mu.Lock()
	p.observers = append(p.observers, fn)
	start := !p.observing
	p.observing = true
	p.mu.Unlock()

	if !start {
		return
	}

	go p.page.EachEvent(func(e *proto.RuntimeConsoleAPICalled) {
		msg := ConsoleMessage{
			Type:      string(e.Type),
			Text:      consoleText(e.Args),
			Timestamp: time.Now(),
		}

		p.mu.Lock()
		observers := append([]func(ConsoleMessage){}, p.observers...)
		p.mu.Unlock()

		for _, observe := range observers {
			observe(msg)
		}
	})()
}

func consoleText(args []*proto.RuntimeRemoteObject) string {
	parts := make([]string, 0, len(args))
	for _, arg := range args {
		if arg.Value.Nil() {
			parts = append(parts, arg.Description)
			continue
		}
		parts = append(parts, fmt.Sprintf("%v", arg.Value))
	}
	return strings.Join(parts, " ")
}

func exceptionMessage(details *proto.RuntimeExceptionDetails) string {
	if details.Exception != nil && details.Exception.Description != "" {
		return details.Exception.Description
	}
	return details.Text
}

func (p *rodPage) waitFor(ctx context.Context, selector string) (*rod.Element, error) {
	return p.page.Context(ctx).Timeout(WaitTimeout).Element(selector)
}

func setViewport(page *rod.Page, width, height int) error {
	return page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             width,
		Height:            height,
		DeviceScaleFactor: 1,
	})
}
