package browsertools

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tcschm/puppeteer-mcp/pkg/browser"
	"github.com/tcschm/puppeteer-mcp/pkg/browser/browsertest"
	"github.com/tcschm/puppeteer-mcp/pkg/toolexecutor"
)

func TestAll(t *testing.T) {
	var names []string
	for _, tool := range All() {
		names = append(names, tool.Name())
	}
	assert.Equal(t, []string{
		NavigateName, ScreenshotName, ClickName, FillName, SelectName, HoverName, EvaluateName,
	}, names)

	reg, err := toolexecutor.NewRegistry(All()...)
	require.NoError(t, err)
	assert.Equal(t, 7, reg.Len())
}

func TestNavigate(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		page := browsertest.NewPage()
		res, err := Navigate{}.Execute(ctx, page, map[string]interface{}{"url": "https://example.com"})
		require.NoError(t, err)
		assert.False(t, res.IsError)
		assert.Equal(t, "Navigated to https://example.com successfully. Status: 200", res.Text())
		assert.Equal(t, []string{"navigate https://example.com"}, page.CallLog())
	})

	t.Run("error status", func(t *testing.T) {
		page := browsertest.NewPage()
		page.Response = &browser.Response{Status: 404, StatusText: "Not Found"}
		res, err := Navigate{}.Execute(ctx, page, map[string]interface{}{"url": "https://example.com/x"})
		require.NoError(t, err)
		assert.True(t, res.IsError)
		assert.Equal(t, "Navigation to https://example.com/x failed with status: 404 Not Found", res.Text())
	})

	t.Run("no response", func(t *testing.T) {
		page := browsertest.NewPage()
		page.Response = nil
		res, err := Navigate{}.Execute(ctx, page, map[string]interface{}{"url": "about:blank"})
		require.NoError(t, err)
		assert.True(t, res.IsError)
		assert.Contains(t, res.Text(), "failed to produce a response")
	})

	t.Run("navigation error", func(t *testing.T) {
		page := browsertest.NewPage()
		page.NavigateErr = errors.New("net::ERR_NAME_NOT_RESOLVED")
		res, err := Navigate{}.Execute(ctx, page, map[string]interface{}{"url": "https://nope.invalid"})
		require.NoError(t, err)
		assert.True(t, res.IsError)
		assert.Equal(t, "Navigation to https://nope.invalid failed: net::ERR_NAME_NOT_RESOLVED", res.Text())
	})

	t.Run("empty url", func(t *testing.T) {
		res, err := Navigate{}.Execute(ctx, browsertest.NewPage(), map[string]interface{}{"url": ""})
		require.NoError(t, err)
		assert.True(t, res.IsError)
	})
}

func TestScreenshot(t *testing.T) {
	ctx := context.Background()

	t.Run("page screenshot with defaults", func(t *testing.T) {
		page := browsertest.NewPage()
		res, err := Screenshot{}.Execute(ctx, page, map[string]interface{}{"name": "home"})
		require.NoError(t, err)

		want := base64.StdEncoding.EncodeToString(page.ScreenshotPNG)
		assert.False(t, res.IsError)
		require.Len(t, res.Content, 2)
		assert.Equal(t, "Screenshot 'home' taken at 800x600", res.Content[0].Text)
		assert.Equal(t, toolexecutor.ContentTypeImage, res.Content[1].Type)
		assert.Equal(t, want, res.Content[1].Data)
		assert.Equal(t, "image/png", res.Content[1].MIMEType)
		assert.Equal(t, &toolexecutor.Artifact{Name: "home", Data: want}, res.Artifact)
		assert.Equal(t, [2]int{800, 600}, page.Viewport)
	})

	t.Run("encoded returns a data URI", func(t *testing.T) {
		page := browsertest.NewPage()
		res, err := Screenshot{}.Execute(ctx, page, map[string]interface{}{
			"name": "small", "width": 320.0, "height": 240.0, "encoded": true,
		})
		require.NoError(t, err)

		require.Len(t, res.Content, 2)
		assert.Equal(t, "Screenshot 'small' taken at 320x240", res.Content[0].Text)
		assert.Equal(t, toolexecutor.ContentTypeText, res.Content[1].Type)
		assert.Equal(t, "data:image/png;base64,"+base64.StdEncoding.EncodeToString(page.ScreenshotPNG), res.Content[1].Text)
		assert.NotNil(t, res.Artifact)
	})

	t.Run("element screenshot", func(t *testing.T) {
		page := browsertest.NewPage()
		page.Elements["#logo"] = true
		res, err := Screenshot{}.Execute(ctx, page, map[string]interface{}{"name": "logo", "selector": "#logo"})
		require.NoError(t, err)
		assert.False(t, res.IsError)
		assert.Contains(t, page.CallLog(), "screenshot #logo")
	})

	t.Run("missing element", func(t *testing.T) {
		page := browsertest.NewPage()
		res, err := Screenshot{}.Execute(ctx, page, map[string]interface{}{"name": "x", "selector": "#missing"})
		require.NoError(t, err)
		assert.True(t, res.IsError)
		assert.Equal(t, "Element not found: #missing", res.Text())
		assert.Nil(t, res.Artifact)
	})

	t.Run("empty capture", func(t *testing.T) {
		page := browsertest.NewPage()
		page.ScreenshotPNG = nil
		res, err := Screenshot{}.Execute(ctx, page, map[string]interface{}{"name": "x"})
		require.NoError(t, err)
		assert.True(t, res.IsError)
		assert.Equal(t, "Screenshot failed", res.Text())
	})

	t.Run("invalid selector", func(t *testing.T) {
		page := browsertest.NewPage()
		page.ScreenshotErr = errors.New("DOMException: '##' is not a valid selector")
		res, err := Screenshot{}.Execute(ctx, page, map[string]interface{}{"name": "x", "selector": "##"})
		require.NoError(t, err)
		assert.True(t, res.IsError)
		assert.Equal(t, "Screenshot of ## failed: DOMException: '##' is not a valid selector", res.Text())
		assert.Nil(t, res.Artifact)
	})

	t.Run("viewport failure", func(t *testing.T) {
		page := browsertest.NewPage()
		page.ViewportErr = errors.New("target closed")
		res, err := Screenshot{}.Execute(ctx, page, map[string]interface{}{"name": "x"})
		require.NoError(t, err)
		assert.True(t, res.IsError)
		assert.Equal(t, "Failed to set viewport to 800x600: target closed", res.Text())
	})

	t.Run("invalid size", func(t *testing.T) {
		res, err := Screenshot{}.Execute(ctx, browsertest.NewPage(), map[string]interface{}{"name": "x", "width": 0.0})
		require.NoError(t, err)
		assert.True(t, res.IsError)
	})
}

func TestElementTools(t *testing.T) {
	ctx := context.Background()

	page := browsertest.NewPage()
	page.Elements["#btn"] = true
	page.Elements["#name"] = true
	page.Elements["#color"] = true
	page.Options["#color"] = []string{"red", "blue"}

	tests := []struct {
		name    string
		tool    toolexecutor.Tool
		args    map[string]interface{}
		want    string
		wantErr bool
	}{
		{name: "click", tool: Click{}, args: map[string]interface{}{"selector": "#btn"}, want: "Clicked: #btn"},
		{
			name: "click missing", tool: Click{}, args: map[string]interface{}{"selector": "#nope"},
			want: "Failed to click #nope: no element found for selector: #nope", wantErr: true,
		},
		{name: "fill", tool: Fill{}, args: map[string]interface{}{"selector": "#name", "value": "Ada"}, want: "Filled #name with: Ada"},
		{
			name: "fill missing", tool: Fill{}, args: map[string]interface{}{"selector": "#nope", "value": "x"},
			want: "Failed to fill #nope: ", wantErr: true,
		},
		{
			name: "select", tool: Select{}, args: map[string]interface{}{"selector": "#color", "value": "blue"},
			want: "Selected option with value 'blue' in #color",
		},
		{
			name: "select unknown option", tool: Select{}, args: map[string]interface{}{"selector": "#color", "value": "green"},
			want: "Failed to select in #color: ", wantErr: true,
		},
		{name: "hover", tool: Hover{}, args: map[string]interface{}{"selector": "#btn"}, want: "Hovered over: #btn"},
		{
			name: "hover missing", tool: Hover{}, args: map[string]interface{}{"selector": "#nope"},
			want: "Failed to hover #nope: ", wantErr: true,
		},
		{name: "empty selector", tool: Click{}, args: map[string]interface{}{"selector": ""}, want: "selector must be", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := tt.tool.Execute(ctx, page, tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.wantErr, res.IsError)
			if tt.wantErr {
				assert.Contains(t, res.Text(), tt.want)
			} else {
				assert.Equal(t, tt.want, res.Text())
			}
		})
	}

	assert.Equal(t, "Ada", page.Filled["#name"])
	assert.Equal(t, "blue", page.Selected["#color"])
}

func TestEvaluate(t *testing.T) {
	ctx := context.Background()

	t.Run("reports value and console output", func(t *testing.T) {
		page := browsertest.NewPage()
		page.EvalResult = &browser.EvalResult{
			Value:   map[string]interface{}{"a": 1.0, "html": "<b>"},
			Console: []string{"[log] hi", "[warn] careful"},
		}

		res, err := Evaluate{}.Execute(ctx, page, map[string]interface{}{"script": "({a: 1})"})
		require.NoError(t, err)
		assert.False(t, res.IsError)
		assert.Equal(t,
			"Execution result:\n{\n  \"a\": 1,\n  \"html\": \"<b>\"\n}\n\nConsole output:\n[log] hi\n[warn] careful",
			res.Text())
	})

	t.Run("undefined result", func(t *testing.T) {
		page := browsertest.NewPage()
		res, err := Evaluate{}.Execute(ctx, page, map[string]interface{}{"script": "void 0"})
		require.NoError(t, err)
		assert.Equal(t, "Execution result:\nundefined\n\nConsole output:\n", res.Text())
	})

	t.Run("script exception", func(t *testing.T) {
		page := browsertest.NewPage()
		page.EvalErr = &browser.BrowserError{Code: browser.ErrCodeScriptExecution, Message: "ReferenceError: foo is not defined"}
		res, err := Evaluate{}.Execute(ctx, page, map[string]interface{}{"script": "foo()"})
		require.NoError(t, err)
		assert.True(t, res.IsError)
		assert.Equal(t, "Script execution failed: ReferenceError: foo is not defined", res.Text())
	})
}
