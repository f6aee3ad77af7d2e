// Package testutil provides shared test fixtures: a canned configuration
// and a mock SigNoz server with per-path handlers and request counting.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"signoz-mcp/internal/models"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// MockConfig returns a test configuration pointed at the given base URL.
func MockConfig(baseURL string) models.Config {
	return models.Config{
		BaseURL:   baseURL,
		APIKey:    "test-api-key",
		SSLVerify: true,
		Timeout:   5 * time.Second,
	}
}

// MockSignoz is an httptest-backed SigNoz stand-in. Paths without a
// registered handler answer 404, so tests only describe the endpoints they
// expect to be hit.
type MockSignoz struct {
	server *httptest.Server

	mu       sync.Mutex
	handlers map[string]http.HandlerFunc
	requests []string
}

// NewMockSignoz starts a mock server; it is shut down with the test.
func NewMockSignoz(t *testing.T) *MockSignoz {
	t.Helper()
	m := &MockSignoz{handlers: make(map[string]http.HandlerFunc)}
	m.server = httptest.NewServer(http.HandlerFunc(m.dispatch))
	t.Cleanup(m.server.Close)
	return m
}

// URL returns the mock server's base URL.
func (m *MockSignoz) URL() string { return m.server.URL }

// Handle registers a handler for an exact path.
func (m *MockSignoz) Handle(path string, h http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = h
}

// HandleJSON registers a handler that answers 200 with a fixed JSON body.
func (m *MockSignoz) HandleJSON(path, body string) {
	m.Handle(path, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	})
}

// HandleStatus registers a handler that answers with a fixed status code.
func (m *MockSignoz) HandleStatus(path string, status int) {
	m.Handle(path, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	})
}

// RequestCount reports how many requests the mock has served.
func (m *MockSignoz) RequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// Requests returns the served "METHOD path" pairs in arrival order.
func (m *MockSignoz) Requests() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.requests...)
}

func (m *MockSignoz) dispatch(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	m.requests = append(m.requests, r.Method+" "+r.URL.Path)
	h := m.handlers[r.URL.Path]
	m.mu.Unlock()

	if h == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	h(w, r)
}

// DecodeResult unmarshals the envelope a tool handler serialized into its
// text content.
func DecodeResult(t *testing.T, res *mcp.CallToolResult) models.ToolResult {
	t.Helper()
	if res == nil || len(res.Content) == 0 {
		t.Fatal("tool returned no content")
	}
	text, ok := res.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, want *mcp.TextContent", res.Content[0])
	}
	var result models.ToolResult
	if err := json.Unmarshal([]byte(text.Text), &result); err != nil {
		t.Fatalf("tool result is not valid JSON: %v", err)
	}
	return result
}

// RequireStatus asserts the envelope status and, for errors, the kind.
func RequireStatus(t *testing.T, result models.ToolResult, status, kind string) {
	t.Helper()
	if result.Status != status {
		t.Fatalf("status = %q, want %q (error: %+v)", result.Status, status, result.Error)
	}
	if status == models.StatusError {
		if result.Error == nil {
			t.Fatal("error status without error detail")
		}
		if kind != "" && result.Error.Kind != kind {
			t.Fatalf("error kind = %q, want %q (%s)", result.Error.Kind, kind, result.Error.Message)
		}
	}
}
