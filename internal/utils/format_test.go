package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"signoz-mcp/internal/models"
	"signoz-mcp/internal/signoz"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func decode(t *testing.T, res *mcp.CallToolResult) models.ToolResult {
	t.Helper()
	text, ok := res.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T", res.Content[0])
	}
	var result models.ToolResult
	if err := json.Unmarshal([]byte(text.Text), &result); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return result
}

func TestResultEnvelope(t *testing.T) {
	res, _, err := Result(map[string]any{"answer": 42})
	if err != nil {
		t.Fatalf("Result: %v", err)
	}
	result := decode(t, res)
	if result.Status != models.StatusOK {
		t.Errorf("status = %q", result.Status)
	}
	if result.Error != nil {
		t.Errorf("error = %+v, want nil", result.Error)
	}
	if result.Data.(map[string]any)["answer"] != float64(42) {
		t.Errorf("data = %v", result.Data)
	}
}

func TestFailureEnvelope(t *testing.T) {
	res, _, err := Failure(signoz.Errorf(signoz.KindNotFound, "no dashboard %q", "x"))
	if err != nil {
		t.Fatalf("Failure: %v", err)
	}
	result := decode(t, res)
	if result.Status != models.StatusError {
		t.Errorf("status = %q", result.Status)
	}
	if result.Data != nil {
		t.Errorf("data = %v, want nil", result.Data)
	}
	if result.Error.Kind != signoz.KindNotFound {
		t.Errorf("kind = %q", result.Error.Kind)
	}
	if result.Error.Message != `no dashboard "x"` {
		t.Errorf("message = %q, want message without the kind prefix", result.Error.Message)
	}
}

func TestFailureWrapsUnclassifiedErrors(t *testing.T) {
	res, _, err := Failure(errors.New("boom"))
	if err != nil {
		t.Fatalf("Failure: %v", err)
	}
	result := decode(t, res)
	if result.Error.Kind != signoz.KindUpstream {
		t.Errorf("kind = %q, want UpstreamError default", result.Error.Kind)
	}
	if result.Error.Message != "boom" {
		t.Errorf("message = %q", result.Error.Message)
	}
}

func TestFailureKeepsWrappedKind(t *testing.T) {
	wrapped := fmt.Errorf("resolving window: %w", signoz.Errorf(signoz.KindInvalidDuration, "bad duration"))
	res, _, err := Failure(wrapped)
	if err != nil {
		t.Fatalf("Failure: %v", err)
	}
	if result := decode(t, res); result.Error.Kind != signoz.KindInvalidDuration {
		t.Errorf("kind = %q, want kind from the wrapped error", result.Error.Kind)
	}
}
