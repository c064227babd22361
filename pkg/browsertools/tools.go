// Package browsertools implements the browser automation tools served over MCP.
package browsertools

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"

	"github.com/tcschm/puppeteer-mcp/pkg/browser"
	"github.com/tcschm/puppeteer-mcp/pkg/toolexecutor"
)

// Tool names
const (
	NavigateName   = "puppeteer_navigate"
	ScreenshotName = "puppeteer_screenshot"
	ClickName      = "puppeteer_click"
	FillName       = "puppeteer_fill"
	SelectName     = "puppeteer_select"
	HoverName      = "puppeteer_hover"
	EvaluateName   = "puppeteer_evaluate"
)

// Screenshot viewport defaults
const (
	DefaultScreenshotWidth  = 800
	DefaultScreenshotHeight = 600
)

// All returns every browser tool in registration order
func All() []toolexecutor.Tool {
	return []toolexecutor.Tool{
		Navigate{},
		Screenshot{},
		Click{},
		Fill{},
		Select{},
		Hover{},
		Evaluate{},
	}
}

// Navigate loads a URL in the active page
type Navigate struct{}

func (Navigate) Name() string        { return NavigateName }
func (Navigate) Description() string { return "Navigate to a URL" }

func (Navigate) Parameters() []toolexecutor.ToolParameter {
	return []toolexecutor.ToolParameter{
		{
			Name:        "url",
			Type:        "string",
			Description: "URL to navigate to",
			Required:    true,
		},
		{
			Name:        toolexecutor.ArgLaunchOptions,
			Type:        "object",
			Description: "Browser launch options. If changed and not null, the browser restarts. Example: { headless: true, args: ['--window-size=1280,720'] }",
		},
		{
			Name:        toolexecutor.ArgAllowDangerous,
			Type:        "boolean",
			Description: "Allow launch options that reduce security, such as --no-sandbox. Default false.",
			Default:     false,
		},
	}
}

func (Navigate) Execute(ctx context.Context, page browser.Page, args map[string]interface{}) (*toolexecutor.Result, error) {
	url, ok := stringArg(args, "url")
	if !ok {
		return toolexecutor.ErrorResult("url must be a non-empty string"), nil
	}

	resp, err := page.Navigate(ctx, url)
	if err != nil {
		return toolexecutor.ErrorResult("Navigation to %s failed: %v", url, err), nil
	}
	if resp == nil {
		return toolexecutor.ErrorResult("Navigation to %s failed to produce a response.", url), nil
	}
	if !resp.OK() {
		return toolexecutor.ErrorResult("Navigation to %s failed with status: %d %s", url, resp.Status, resp.StatusText), nil
	}

	return toolexecutor.TextResult("Navigated to %s successfully. Status: %d", url, resp.Status), nil
}

// Screenshot captures the page or one element as PNG and stores it by name
type Screenshot struct{}

func (Screenshot) Name() string { return ScreenshotName }

func (Screenshot) Description() string {
	return "Take a screenshot of the current page or a specific element"
}

func (Screenshot) Parameters() []toolexecutor.ToolParameter {
	return []toolexecutor.ToolParameter{
		{
			Name:        "name",
			Type:        "string",
			Description: "Name for the screenshot",
			Required:    true,
		},
		{
			Name:        "selector",
			Type:        "string",
			Description: "CSS selector for element to screenshot",
		},
		{
			Name:        "width",
			Type:        "number",
			Description: "Width in pixels (default: 800)",
			Default:     DefaultScreenshotWidth,
		},
		{
			Name:        "height",
			Type:        "number",
			Description: "Height in pixels (default: 600)",
			Default:     DefaultScreenshotHeight,
		},
		{
			Name:        "encoded",
			Type:        "boolean",
			Description: "If true, return the screenshot as a base64 data URI in text instead of image content. Default false.",
			Default:     false,
		},
	}
}

func (Screenshot) Execute(ctx context.Context, page browser.Page, args map[string]interface{}) (*toolexecutor.Result, error) {
	name, ok := stringArg(args, "name")
	if !ok {
		return toolexecutor.ErrorResult("name must be a non-empty string"), nil
	}
	selector, _ := stringArg(args, "selector")
	width := intArg(args, "width", DefaultScreenshotWidth)
	height := intArg(args, "height", DefaultScreenshotHeight)
	encoded, _ := args["encoded"].(bool)

	if width <= 0 || height <= 0 {
		return toolexecutor.ErrorResult("width and height must be positive, got %dx%d", width, height), nil
	}

	if err := page.SetViewport(ctx, width, height); err != nil {
		return toolexecutor.ErrorResult("Failed to set viewport to %dx%d: %v", width, height, err), nil
	}

	data, err := page.Screenshot(ctx, selector)
	switch {
	case errors.Is(err, browser.ErrElementNotFound):
		return toolexecutor.ErrorResult("Element not found: %s", selector), nil
	case err != nil && selector != "":
		return toolexecutor.ErrorResult("Screenshot of %s failed: %v", selector, err), nil
	case err != nil:
		return toolexecutor.ErrorResult("Screenshot failed: %v", err), nil
	}
	if len(data) == 0 {
		if selector != "" {
			return toolexecutor.ErrorResult("Element not found: %s", selector), nil
		}
		return toolexecutor.ErrorResult("Screenshot failed"), nil
	}

	b64 := base64.StdEncoding.EncodeToString(data)
	result := toolexecutor.TextResult("Screenshot '%s' taken at %dx%d", name, width, height)
	if encoded {
		result.Content = append(result.Content, toolexecutor.TextContent("data:image/png;base64,"+b64))
	} else {
		result.Content = append(result.Content, toolexecutor.ImageContent(b64, "image/png"))
	}
	result.Artifact = &toolexecutor.Artifact{Name: name, Data: b64}

	return result, nil
}

// Click clicks an element
type Click struct{}

func (Click) Name() string        { return ClickName }
func (Click) Description() string { return "Click an element on the page" }

func (Click) Parameters() []toolexecutor.ToolParameter {
	return []toolexecutor.ToolParameter{
		selectorParam("CSS selector for element to click"),
	}
}

func (Click) Execute(ctx context.Context, page browser.Page, args map[string]interface{}) (*toolexecutor.Result, error) {
	selector, ok := stringArg(args, "selector")
	if !ok {
		return toolexecutor.ErrorResult("selector must be a non-empty string"), nil
	}
	if err := page.Click(ctx, selector); err != nil {
		return toolexecutor.ErrorResult("Failed to click %s: %v", selector, err), nil
	}
	return toolexecutor.TextResult("Clicked: %s", selector), nil
}

// Fill types a value into an input field
type Fill struct{}

func (Fill) Name() string        { return FillName }
func (Fill) Description() string { return "Fill out an input field" }

func (Fill) Parameters() []toolexecutor.ToolParameter {
	return []toolexecutor.ToolParameter{
		selectorParam("CSS selector for input field"),
		{
			Name:        "value",
			Type:        "string",
			Description: "Value to fill",
			Required:    true,
		},
	}
}

func (Fill) Execute(ctx context.Context, page browser.Page, args map[string]interface{}) (*toolexecutor.Result, error) {
	selector, ok := stringArg(args, "selector")
	if !ok {
		return toolexecutor.ErrorResult("selector must be a non-empty string"), nil
	}
	value, _ := args["value"].(string)

	if err := page.Fill(ctx, selector, value); err != nil {
		return toolexecutor.ErrorResult("Failed to fill %s: %v", selector, err), nil
	}
	return toolexecutor.TextResult("Filled %s with: %s", selector, value), nil
}

// Select picks an option of a select element by value
type Select struct{}

func (Select) Name() string        { return SelectName }
func (Select) Description() string { return "Select an option in a select element on the page" }

func (Select) Parameters() []toolexecutor.ToolParameter {
	return []toolexecutor.ToolParameter{
		selectorParam("CSS selector for the select element"),
		{
			Name:        "value",
			Type:        "string",
			Description: "Value of the option to select",
			Required:    true,
		},
	}
}

func (Select) Execute(ctx context.Context, page browser.Page, args map[string]interface{}) (*toolexecutor.Result, error) {
	selector, ok := stringArg(args, "selector")
	if !ok {
		return toolexecutor.ErrorResult("selector must be a non-empty string"), nil
	}
	value, _ := args["value"].(string)

	if err := page.Select(ctx, selector, value); err != nil {
		return toolexecutor.ErrorResult("Failed to select in %s: %v", selector, err), nil
	}
	return toolexecutor.TextResult("Selected option with value '%s' in %s", value, selector), nil
}

// Hover moves the pointer over an element
type Hover struct{}

func (Hover) Name() string        { return HoverName }
func (Hover) Description() string { return "Hover over an element on the page" }

func (Hover) Parameters() []toolexecutor.ToolParameter {
	return []toolexecutor.ToolParameter{
		selectorParam("CSS selector for element to hover"),
	}
}

func (Hover) Execute(ctx context.Context, page browser.Page, args map[string]interface{}) (*toolexecutor.Result, error) {
	selector, ok := stringArg(args, "selector")
	if !ok {
		return toolexecutor.ErrorResult("selector must be a non-empty string"), nil
	}
	if err := page.Hover(ctx, selector); err != nil {
		return toolexecutor.ErrorResult("Failed to hover %s: %v", selector, err), nil
	}
	return toolexecutor.TextResult("Hovered over: %s", selector), nil
}

// Evaluate runs JavaScript in the page and reports its result and console output
type Evaluate struct{}

func (Evaluate) Name() string        { return EvaluateName }
func (Evaluate) Description() string { return "Execute JavaScript in the browser console" }

func (Evaluate) Parameters() []toolexecutor.ToolParameter {
	return []toolexecutor.ToolParameter{
		{
			Name:        "script",
			Type:        "string",
			Description: "JavaScript code to execute",
			Required:    true,
		},
	}
}

func (Evaluate) Execute(ctx context.Context, page browser.Page, args map[string]interface{}) (*toolexecutor.Result, error) {
	script, ok := stringArg(args, "script")
	if !ok {
		return toolexecutor.ErrorResult("script must be a non-empty string"), nil
	}

	res, err := page.Evaluate(ctx, script)
	if err != nil {
		return toolexecutor.ErrorResult("Script execution failed: %v", err), nil
	}

	value, err := formatValue(res)
	if err != nil {
		return toolexecutor.ErrorResult("Script execution failed: %v", err), nil
	}

	return toolexecutor.TextResult("Execution result:\n%s\n\nConsole output:\n%s",
		value, strings.Join(res.Console, "\n")), nil
}

// formatValue renders an evaluation result as indented JSON
func formatValue(res *browser.EvalResult) (string, error) {
	if res == nil || res.Undefined {
		return "undefined", nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res.Value); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

func selectorParam(description string) toolexecutor.ToolParameter {
	return toolexecutor.ToolParameter{
		Name:        "selector",
		Type:        "string",
		Description: description,
		Required:    true,
	}
}

// stringArg returns a non-empty string argument
func stringArg(args map[string]interface{}, key string) (string, bool) {
	s, ok := args[key].(string)
	return s, ok && s != ""
}

// intArg returns a numeric argument truncated to int, or def when absent
func intArg(args map[string]interface{}, key string, def int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n)
		}
		if f, err := v.Float64(); err == nil {
			return int(f)
		}
	}
	return def
}
