package toolexecutor

import (
	"context"
	"fmt"
	"strings"

	"github.com/tcschm/puppeteer-mcp/pkg/browser"
)

// ToolParameter defines a parameter for a tool
type ToolParameter struct {
	Name        string      `json:"name"`
	Type        string      `json:"type"`
	Description string      `json:"description"`
	Required    bool        `json:"required"`
	Default     interface{} `json:"default,omitempty"`
}

// Tool is a browser operation callable by name
type Tool interface {
	Name() string
	Description() string
	Parameters() []ToolParameter
	// Execute runs against the active page. Expected failures are reported
	// as error results; a returned error or panic is treated as unexpected.
	Execute(ctx context.Context, page browser.Page, args map[string]interface{}) (*Result, error)
}

// Content types
const (
	ContentTypeText  = "text"
	ContentTypeImage = "image"
)

// Content is one item of a tool result
type Content struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	Data     string `json:"data,omitempty"`
	MIMEType string `json:"mimeType,omitempty"`
}

// TextContent creates a text item
func TextContent(text string) Content {
	return Content{Type: ContentTypeText, Text: text}
}

// ImageContent creates an image item from base64 data
func ImageContent(data, mimeType string) Content {
	return Content{Type: ContentTypeImage, Data: data, MIMEType: mimeType}
}

// Artifact is a named binary payload produced by a tool, stored base64 encoded
type Artifact struct {
	Name string `json:"name"`
	Data string `json:"data"`
}

// Result represents the result of a tool execution
type Result struct {
	Content []Content `json:"content"`
	IsError bool      `json:"isError"`
	// Artifact is set by tools that produce a stored resource.
	Artifact *Artifact `json:"-"`
}

// TextResult creates a successful single-text result
func TextResult(format string, args ...interface{}) *Result {
	return &Result{Content: []Content{TextContent(fmt.Sprintf(format, args...))}}
}

// ErrorResult creates a failed single-text result
func ErrorResult(format string, args ...interface{}) *Result {
	return &Result{Content: []Content{TextContent(fmt.Sprintf(format, args...))}, IsError: true}
}

// Text joins the text items of the result
func (r *Result) Text() string {
	if r == nil {
		return ""
	}
	var parts []string
	for _, c := range r.Content {
		if c.Type == ContentTypeText {
			parts = append(parts, c.Text)
		}
	}
	return strings.Join(parts, "\n")
}
