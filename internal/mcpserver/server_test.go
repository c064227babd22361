package mcpserver

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tcschm/puppeteer-mcp/pkg/browser"
	"github.com/tcschm/puppeteer-mcp/pkg/browser/browsertest"
	"github.com/tcschm/puppeteer-mcp/pkg/browsertools"
	"github.com/tcschm/puppeteer-mcp/pkg/toolexecutor"
)

type harness struct {
	srv        *Server
	out        *bytes.Buffer
	launcher   *browsertest.Launcher
	controller *browser.Controller
}

func newHarness(t *testing.T, env *browsertest.Env) *harness {
	t.Helper()

	out := &bytes.Buffer{}
	srv := New(out, WithServerInfo("puppeteer-mcp", "test"))

	reg, err := toolexecutor.NewRegistry(browsertools.All()...)
	require.NoError(t, err)

	launcher := browsertest.NewLauncher()
	controller := browser.NewController(launcher, env, browser.WithObserver(srv))
	dispatcher := toolexecutor.NewDispatcher(reg, controller, toolexecutor.NewArtifactStore(), toolexecutor.WithNotifier(srv))
	srv.Bind(dispatcher, controller)

	return &harness{srv: srv, out: out, launcher: launcher, controller: controller}
}

// run feeds messages to the server and returns every line it wrote
func (h *harness) run(t *testing.T, msgs ...string) []map[string]interface{} {
	t.Helper()
	h.out.Reset()

	require.NoError(t, h.srv.Serve(context.Background(), strings.NewReader(strings.Join(msgs, "\n")+"\n")))

	var lines []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(h.out.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &m), line)
		lines = append(lines, m)
	}
	return lines
}

func call(id int, name string, args map[string]interface{}) string {
	data, _ := json.Marshal(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      id,
		"method":  "tools/call",
		"params":  map[string]interface{}{"name": name, "arguments": args},
	})
	return string(data)
}

const initialize = `{"jsonrpc":"2.0","id":0,"method":"initialize","params":{"protocolVersion":"2024-11-05","clientInfo":{"name":"test","version":"1"}}}`

func resultOf(t *testing.T, msg map[string]interface{}) map[string]interface{} {
	t.Helper()
	require.Contains(t, msg, "result", "%v", msg)
	return msg["result"].(map[string]interface{})
}

func textOf(t *testing.T, result map[string]interface{}) string {
	t.Helper()
	content := result["content"].([]interface{})
	require.NotEmpty(t, content)
	return content[0].(map[string]interface{})["text"].(string)
}

func TestInitialize(t *testing.T) {
	h := newHarness(t, &browsertest.Env{})

	lines := h.run(t, initialize, `{"jsonrpc":"2.0","method":"notifications/initialized"}`)
	require.Len(t, lines, 1)

	res := resultOf(t, lines[0])
	assert.Equal(t, "2024-11-05", res["protocolVersion"])
	assert.Equal(t, map[string]interface{}{"name": "puppeteer-mcp", "version": "test"}, res["serverInfo"])
	caps := res["capabilities"].(map[string]interface{})
	assert.Contains(t, caps, "tools")
	assert.Equal(t, map[string]interface{}{"subscribe": true, "listChanged": true}, caps["resources"])
}

func TestInitializeUnknownVersion(t *testing.T) {
	h := newHarness(t, &browsertest.Env{})

	lines := h.run(t, `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"1999-01-01"}}`)
	require.Len(t, lines, 1)
	assert.Equal(t, supportedVersions[0], resultOf(t, lines[0])["protocolVersion"])
}

func TestPingAndUnknownMethod(t *testing.T) {
	h := newHarness(t, &browsertest.Env{})

	lines := h.run(t,
		`{"jsonrpc":"2.0","id":"a","method":"ping"}`,
		`{"jsonrpc":"2.0","id":2,"method":"prompts/list"}`,
		`{"jsonrpc":"2.0","method":"notifications/cancelled"}`,
		`not json`,
	)
	require.Len(t, lines, 3)

	assert.Equal(t, "a", lines[0]["id"])
	assert.Equal(t, map[string]interface{}{}, lines[0]["result"])

	rpcErr := lines[1]["error"].(map[string]interface{})
	assert.Equal(t, float64(codeMethodNotFound), rpcErr["code"])

	assert.Nil(t, lines[2]["id"])
	assert.Equal(t, float64(codeParseError), lines[2]["error"].(map[string]interface{})["code"])
}

func TestToolsList(t *testing.T) {
	h := newHarness(t, &browsertest.Env{})

	lines := h.run(t, `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`)
	require.Len(t, lines, 1)

	tools := resultOf(t, lines[0])["tools"].([]interface{})
	require.Len(t, tools, 7)

	var names []string
	for _, tool := range tools {
		names = append(names, tool.(map[string]interface{})["name"].(string))
	}
	assert.Equal(t, []string{
		browsertools.NavigateName, browsertools.ScreenshotName, browsertools.ClickName,
		browsertools.FillName, browsertools.SelectName, browsertools.HoverName, browsertools.EvaluateName,
	}, names)

	navigate := tools[0].(map[string]interface{})
	schema := navigate["inputSchema"].(map[string]interface{})
	assert.Equal(t, "object", schema["type"])
	assert.Equal(t, []interface{}{"url"}, schema["required"])
	assert.Contains(t, schema["properties"], "launchOptions")
}

func TestToolsCall(t *testing.T) {
	t.Run("navigate", func(t *testing.T) {
		h := newHarness(t, &browsertest.Env{})

		lines := h.run(t, call(1, browsertools.NavigateName, map[string]interface{}{"url": "https://example.com"}))
		require.Len(t, lines, 1)

		res := resultOf(t, lines[0])
		assert.Equal(t, "Navigated to https://example.com successfully. Status: 200", textOf(t, res))
		assert.NotEqual(t, true, res["isError"])
		assert.Equal(t, 1, h.launcher.LaunchCount())
	})

	t.Run("unknown tool is an error result", func(t *testing.T) {
		h := newHarness(t, &browsertest.Env{})

		lines := h.run(t, call(1, "puppeteer_teleport", nil))
		require.Len(t, lines, 1)

		res := resultOf(t, lines[0])
		assert.Equal(t, true, res["isError"])
		assert.Equal(t, "Unknown tool: puppeteer_teleport", textOf(t, res))
	})

	t.Run("dangerous launch options rejected", func(t *testing.T) {
		h := newHarness(t, &browsertest.Env{})

		lines := h.run(t, call(1, browsertools.NavigateName, map[string]interface{}{
			"url":           "https://example.com",
			"launchOptions": map[string]interface{}{"args": []string{"--no-sandbox"}},
		}))
		require.Len(t, lines, 1)

		res := resultOf(t, lines[0])
		assert.Equal(t, true, res["isError"])
		assert.Contains(t, textOf(t, res), "--no-sandbox")
		assert.Equal(t, 0, h.launcher.LaunchCount())
	})

	t.Run("missing name", func(t *testing.T) {
		h := newHarness(t, &browsertest.Env{})

		lines := h.run(t, `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{}}`)
		require.Len(t, lines, 1)
		assert.Equal(t, float64(codeInvalidParams), lines[0]["error"].(map[string]interface{})["code"])
	})
}

func TestScreenshotResource(t *testing.T) {
	h := newHarness(t, &browsertest.Env{})

	h.run(t, initialize)
	lines := h.run(t,
		call(1, browsertools.NavigateName, map[string]interface{}{"url": "https://example.com"}),
		call(2, browsertools.ScreenshotName, map[string]interface{}{"name": "home"}),
		`{"jsonrpc":"2.0","id":3,"method":"resources/list"}`,
		`{"jsonrpc":"2.0","id":4,"method":"resources/read","params":{"uri":"screenshot://home"}}`,
	)
	require.Len(t, lines, 5)

	assert.Equal(t, notifyResourceListChanged, lines[1]["method"])

	shot := resultOf(t, lines[2])
	content := shot["content"].([]interface{})
	require.Len(t, content, 2)
	image := content[1].(map[string]interface{})
	assert.Equal(t, "image", image["type"])
	assert.Equal(t, "image/png", image["mimeType"])

	want := base64.StdEncoding.EncodeToString(h.launcher.Last().FakePage().ScreenshotPNG)
	assert.Equal(t, want, image["data"])

	resources := resultOf(t, lines[3])["resources"].([]interface{})
	require.Len(t, resources, 2)
	assert.Equal(t, ConsoleURI, resources[0].(map[string]interface{})["uri"])
	assert.Equal(t, "Browser console logs", resources[0].(map[string]interface{})["name"])
	assert.Equal(t, "screenshot://home", resources[1].(map[string]interface{})["uri"])
	assert.Equal(t, "Screenshot: home", resources[1].(map[string]interface{})["name"])
	assert.Equal(t, "image/png", resources[1].(map[string]interface{})["mimeType"])

	contents := resultOf(t, lines[4])["contents"].([]interface{})
	require.Len(t, contents, 1)
	blob := contents[0].(map[string]interface{})
	assert.Equal(t, "screenshot://home", blob["uri"])
	assert.Equal(t, want, blob["blob"])
}

func TestConsoleResource(t *testing.T) {
	h := newHarness(t, &browsertest.Env{})

	h.run(t, initialize, call(1, browsertools.NavigateName, map[string]interface{}{"url": "https://example.com"}))

	h.out.Reset()
	page := h.launcher.Last().FakePage()
	page.EmitConsole("log", "hello")
	page.EmitConsole("error", "boom")

	var notes []string
	for _, line := range strings.Split(strings.TrimSpace(h.out.String()), "\n") {
		var m map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		notes = append(notes, m["method"].(string)+" "+m["params"].(map[string]interface{})["uri"].(string))
	}
	assert.Equal(t, []string{
		notifyResourceUpdated + " " + ConsoleURI,
		notifyResourceUpdated + " " + ConsoleURI,
	}, notes)

	lines := h.run(t, `{"jsonrpc":"2.0","id":2,"method":"resources/read","params":{"uri":"console://logs"}}`)
	require.Len(t, lines, 1)
	contents := resultOf(t, lines[0])["contents"].([]interface{})
	text := contents[0].(map[string]interface{})
	assert.Equal(t, "text/plain", text["mimeType"])
	assert.Equal(t, "[log] hello\n[error] boom", text["text"])
}

func TestNotificationsWaitForInitialize(t *testing.T) {
	h := newHarness(t, &browsertest.Env{})

	h.srv.ResourceListChanged()
	h.srv.ConsoleUpdated()
	assert.Empty(t, h.out.String())
}

func TestReadUnknownResource(t *testing.T) {
	h := newHarness(t, &browsertest.Env{})

	lines := h.run(t,
		`{"jsonrpc":"2.0","id":1,"method":"resources/read","params":{"uri":"screenshot://missing"}}`,
		`{"jsonrpc":"2.0","id":2,"method":"resources/read","params":{"uri":"file:///etc/passwd"}}`,
	)
	require.Len(t, lines, 2)

	for i, uri := range []string{"screenshot://missing", "file:///etc/passwd"} {
		rpcErr := lines[i]["error"].(map[string]interface{})
		assert.Equal(t, float64(codeResourceNotFound), rpcErr["code"])
		assert.Equal(t, "Resource not found: "+uri, rpcErr["message"])
	}
}

func TestResourceSubscriptions(t *testing.T) {
	h := newHarness(t, &browsertest.Env{})

	lines := h.run(t,
		`{"jsonrpc":"2.0","id":1,"method":"resources/subscribe","params":{"uri":"console://logs"}}`,
		`{"jsonrpc":"2.0","id":2,"method":"resources/unsubscribe","params":{"uri":"console://logs"}}`,
		`{"jsonrpc":"2.0","id":3,"method":"resources/subscribe","params":{}}`,
	)
	require.Len(t, lines, 3)

	assert.Empty(t, resultOf(t, lines[0]))
	assert.Empty(t, resultOf(t, lines[1]))
	rpcErr := lines[2]["error"].(map[string]interface{})
	assert.Equal(t, float64(codeInvalidParams), rpcErr["code"])
}

func TestServeStopsOnContextCancel(t *testing.T) {
	h := newHarness(t, &browsertest.Env{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r, w := io.Pipe()
	defer w.Close()
	assert.NoError(t, h.srv.Serve(ctx, r))
}

func TestServeRequiresBind(t *testing.T) {
	srv := New(&bytes.Buffer{})
	assert.Error(t, srv.Serve(context.Background(), strings.NewReader("")))
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("stdout closed") }

func TestServeReturnsWriteErrors(t *testing.T) {
	h := newHarness(t, &browsertest.Env{})
	h.srv.out = failingWriter{}

	err := h.srv.Serve(context.Background(), strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"ping"}`+"\n"))
	assert.ErrorContains(t, err, "stdout closed")
}
