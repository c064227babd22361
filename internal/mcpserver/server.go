// Package mcpserver serves the browser tools over MCP: newline-delimited
// JSON-RPC 2.0 on a pair of streams, normally stdin and stdout.
package mcpserver

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog/log"

	"github.com/tcschm/puppeteer-mcp/internal/tracing"
	"github.com/tcschm/puppeteer-mcp/pkg/toolexecutor"
)

const maxMessageSize = 10 * 1024 * 1024

// ConsoleSource provides the browser console log
type ConsoleSource interface {
	ConsoleText() string
}

// Server answers MCP requests one at a time and pushes resource
// notifications. It implements browser.SessionObserver and
// toolexecutor.Notifier.
type Server struct {
	info mcp.Implementation
	out  io.Writer

	dispatcher *toolexecutor.Dispatcher
	console    ConsoleSource

	writeMu sync.Mutex
	ready   atomic.Bool
}

// Option configures a Server
type Option func(*Server)

// WithServerInfo sets the name and version reported on initialize
func WithServerInfo(name, version string) Option {
	return func(s *Server) {
		s.info = mcp.Implementation{Name: name, Version: version}
	}
}

// New creates a server writing to out. Bind must be called before Serve.
func New(out io.Writer, opts ...Option) *Server {
	s := &Server{
		info: mcp.Implementation{Name: "puppeteer-mcp", Version: "dev"},
		out:  out,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Bind attaches the tool dispatcher and the console log. The server is
// created first so the controller and dispatcher can notify it.
func (s *Server) Bind(d *toolexecutor.Dispatcher, console ConsoleSource) {
	s.dispatcher = d
	s.console = console
}

// Serve reads requests from in until it is exhausted or ctx is done. Both
// end the loop cleanly; read and write failures are returned.
func (s *Server) Serve(ctx context.Context, in io.Reader) error {
	if s.dispatcher == nil || s.console == nil {
		return errors.New("mcpserver: Serve called before Bind")
	}

	lines := make(chan []byte)
	readErr := make(chan error, 1)

	go func() {
		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 64*1024), maxMessageSize)
		for scanner.Scan() {
			line := append([]byte(nil), scanner.Bytes()...)
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	log.Info().Str("server", s.info.Name).Str("version", s.info.Version).Msg("MCP server listening on stdio")

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-readErr:
			if err != nil {
				return fmt.Errorf("read request: %w", err)
			}
			log.Info().Msg("Input closed")
			return nil
		case line := <-lines:
			if err := s.handleLine(ctx, line); err != nil {
				return err
			}
		}
	}
}

// handleLine processes one message. Only write failures are returned.
func (s *Server) handleLine(ctx context.Context, line []byte) error {
	if len(strings.TrimSpace(string(line))) == 0 {
		return nil
	}

	var req request
	if err := json.Unmarshal(line, &req); err != nil {
		log.Warn().Err(err).Msg("Failed to parse message")
		return s.write(response{
			JSONRPC: jsonrpcVersion,
			ID:      json.RawMessage("null"),
			Error:   &rpcError{Code: codeParseError, Message: "Parse error"},
		})
	}
	if req.Method == "" {
		if req.isNotification() {
			// a response to nothing we sent
			return nil
		}
		return s.write(response{
			JSONRPC: jsonrpcVersion,
			ID:      req.ID,
			Error:   &rpcError{Code: codeInvalidRequest, Message: "Invalid request: method is required"},
		})
	}

	ctx = tracing.NewRequestContext(ctx, strings.Trim(string(req.ID), `"`), req.Method)
	logger := tracing.LoggerFromContext(ctx, log.Logger)

	result, rpcErr := s.dispatch(ctx, &req)
	if req.isNotification() {
		if rpcErr != nil {
			logger.Debug().Str("error", rpcErr.Message).Msg("Ignoring notification")
		}
		return nil
	}

	resp := response{JSONRPC: jsonrpcVersion, ID: req.ID}
	if rpcErr != nil {
		logger.Debug().Int("code", rpcErr.Code).Str("error", rpcErr.Message).Msg("Request failed")
		resp.Error = rpcErr
	} else if result != nil {
		resp.Result = result
	} else {
		resp.Result = struct{}{}
	}
	return s.write(resp)
}

func (s *Server) dispatch(ctx context.Context, req *request) (interface{}, *rpcError) {
	switch req.Method {
	case methodInitialize:
		return s.initialize(req.Params)
	case methodInitialized:
		s.ready.Store(true)
		return nil, nil
	case methodPing:
		return struct{}{}, nil
	case methodToolsList:
		return s.listTools(), nil
	case methodToolsCall:
		return s.callTool(ctx, req.Params)
	case methodResourcesList:
		return s.listResources(), nil
	case methodResourcesRead:
		return s.readResource(req.Params)
	case methodSubscribe, methodUnsubscribe:
		return s.subscription(req.Params)
	default:
		return nil, &rpcError{Code: codeMethodNotFound, Message: fmt.Sprintf("Method not found: %s", req.Method)}
	}
}

func (s *Server) initialize(raw json.RawMessage) (interface{}, *rpcError) {
	var params initializeParams
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &params); err != nil {
			return nil, &rpcError{Code: codeInvalidParams, Message: fmt.Sprintf("Invalid params: %v", err)}
		}
	}

	log.Info().
		Str("client", params.ClientInfo.Name).
		Str("client_version", params.ClientInfo.Version).
		Str("protocol", params.ProtocolVersion).
		Msg("Client connected")

	s.ready.Store(true)

	return &initializeResult{
		ProtocolVersion: negotiateVersion(params.ProtocolVersion),
		Capabilities: capabilities{
			Resources: resourceCapabilities{Subscribe: true, ListChanged: true},
		},
		ServerInfo: s.info,
	}, nil
}

func (s *Server) listTools() *mcp.ListToolsResult {
	descriptors := s.dispatcher.Registry().List()
	tools := make([]mcp.Tool, 0, len(descriptors))
	for _, d := range descriptors {
		schema, err := json.Marshal(d.InputSchema)
		if err != nil {
			log.Error().Err(err).Str("tool", d.Name).Msg("Failed to encode input schema")
			continue
		}
		tools = append(tools, mcp.NewToolWithRawSchema(d.Name, d.Description, schema))
	}
	return &mcp.ListToolsResult{Tools: tools}
}

func (s *Server) callTool(ctx context.Context, raw json.RawMessage) (interface{}, *rpcError) {
	var params callToolParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, &rpcError{Code: codeInvalidParams, Message: fmt.Sprintf("Invalid params: %v", err)}
	}
	if params.Name == "" {
		return nil, &rpcError{Code: codeInvalidParams, Message: "Invalid params: name is required"}
	}
	if params.Arguments == nil {
		params.Arguments = map[string]interface{}{}
	}

	return toCallToolResult(s.dispatcher.Handle(ctx, params.Name, params.Arguments)), nil
}

func toCallToolResult(r *toolexecutor.Result) *mcp.CallToolResult {
	out := &mcp.CallToolResult{
		Content: []mcp.Content{},
		IsError: r.IsError,
	}
	for _, c := range r.Content {
		switch c.Type {
		case toolexecutor.ContentTypeImage:
			out.Content = append(out.Content, mcp.NewImageContent(c.Data, c.MIMEType))
		default:
			out.Content = append(out.Content, mcp.NewTextContent(c.Text))
		}
	}
	return out
}

func (s *Server) listResources() *mcp.ListResourcesResult {
	resources := []mcp.Resource{
		mcp.NewResource(ConsoleURI, "Browser console logs", mcp.WithMIMEType("text/plain")),
	}
	for _, a := range s.dispatcher.Artifacts().List() {
		resources = append(resources, mcp.NewResource(
			ScreenshotScheme+a.Name,
			fmt.Sprintf("Screenshot: %s", a.Name),
			mcp.WithMIMEType("image/png"),
		))
	}
	return &mcp.ListResourcesResult{Resources: resources}
}

func (s *Server) readResource(raw json.RawMessage) (interface{}, *rpcError) {
	var params readResourceParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, &rpcError{Code: codeInvalidParams, Message: fmt.Sprintf("Invalid params: %v", err)}
	}

	if params.URI == ConsoleURI {
		return &mcp.ReadResourceResult{
			Contents: []mcp.ResourceContents{
				mcp.TextResourceContents{URI: params.URI, MIMEType: "text/plain", Text: s.console.ConsoleText()},
			},
		}, nil
	}

	if name, ok := strings.CutPrefix(params.URI, ScreenshotScheme); ok {
		if data, found := s.dispatcher.Artifacts().Get(name); found {
			return &mcp.ReadResourceResult{
				Contents: []mcp.ResourceContents{
					mcp.BlobResourceContents{URI: params.URI, MIMEType: "image/png", Blob: data},
				},
			}, nil
		}
	}

	return nil, &rpcError{
		Code:    codeResourceNotFound,
		Message: fmt.Sprintf("Resource not found: %s", params.URI),
		Data:    map[string]string{"uri": params.URI},
	}
}

// subscription acknowledges resources/subscribe and resources/unsubscribe.
// A stdio server has one client, which receives every update.
func (s *Server) subscription(raw json.RawMessage) (interface{}, *rpcError) {
	var params readResourceParams
	if err := json.Unmarshal(raw, &params); err != nil || params.URI == "" {
		return nil, &rpcError{Code: codeInvalidParams, Message: "Invalid params: uri is required"}
	}
	return struct{}{}, nil
}

// ResourceListChanged implements toolexecutor.Notifier
func (s *Server) ResourceListChanged() {
	s.notify(notifyResourceListChanged, nil)
}

// ConsoleUpdated implements browser.SessionObserver
func (s *Server) ConsoleUpdated() {
	s.notify(notifyResourceUpdated, resourceUpdatedParams{URI: ConsoleURI})
}

// notify sends a notification once the client has initialized. Failures are
// logged since notifications come from engine goroutines.
func (s *Server) notify(method string, params interface{}) {
	if !s.ready.Load() {
		return
	}
	if err := s.write(notification{JSONRPC: jsonrpcVersion, Method: method, Params: params}); err != nil {
		log.Warn().Err(err).Str("method", method).Msg("Failed to send notification")
	}
}

func (s *Server) write(msg interface{}) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	data = append(data, '\n')

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if _, err := s.out.Write(data); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	return nil
}
