package models

// Result statuses. Exactly one of Data/Error is populated, matching Status.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// ToolError carries a classified failure back to the caller.
type ToolError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// ToolResult is the canonical envelope every tool returns, regardless of
// which upstream shape produced it.
type ToolResult struct {
	Status string     `json:"status"`
	Data   any        `json:"data,omitempty"`
	Error  *ToolError `json:"error,omitempty"`
}

// OK wraps normalized data in a success envelope.
func OK(data any) ToolResult {
	return ToolResult{Status: StatusOK, Data: data}
}

// Fail wraps a classified error in an error envelope.
func Fail(kind, message string) ToolResult {
	return ToolResult{
		Status: StatusError,
		Error:  &ToolError{Kind: kind, Message: message},
	}
}
