package utils

import (
	"encoding/json"
	"errors"
	"fmt"

	"signoz-mcp/internal/models"
	"signoz-mcp/internal/signoz"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Result wraps normalized data in a success envelope and serializes it as
// the tool's text content.
func Result(data any) (*mcp.CallToolResult, any, error) {
	return marshalEnvelope(models.OK(data))
}

// Failure wraps a classified error in an error envelope. The error itself
// is consumed here: callers always receive a structured ToolResult rather
// than a protocol-level failure.
func Failure(err error) (*mcp.CallToolResult, any, error) {
	kind := signoz.KindOf(err)
	message := err.Error()
	var se *signoz.Error
	if errors.As(err, &se) {
		message = se.Message
	}
	return marshalEnvelope(models.Fail(kind, message))
}

func marshalEnvelope(result models.ToolResult) (*mcp.CallToolResult, any, error) {
	text, err := json.Marshal(result)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal tool result: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(text)},
		},
		IsError: result.Status == models.StatusError,
	}, nil, nil
}
