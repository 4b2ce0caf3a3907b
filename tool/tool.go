// Package tool implements the typed capability units agents can invoke:
// schema validated arguments, declared side effects, consistent error codes,
// and composition of tools into higher-level capabilities.
package tool

import (
	"context"
	"fmt"

	"github.com/querypilot/querypilot/core"
)

// Tool defines the contract every callable capability unit satisfies.
//
// Tool implementations should:
//   - Provide clear, descriptive names and descriptions (snake_case names)
//   - Declare a parameter schema covering every accepted argument
//   - Return a core.ToolResult rather than panicking
//   - Be safe for concurrent use; a tool instance is shared across sessions
type Tool interface {
	// Name returns the unique identifier for this tool.
	Name() string

	// Description returns a human-readable description of what this tool
	// does. It is rendered into the reasoner's system prompt.
	Description() string

	// Schema returns the declared input schema: named arguments with types
	// and required/optional flags.
	Schema() Schema

	// SideEffectFree reports whether executing the tool mutates external
	// state. Only side-effect-free tools are eligible for result caching;
	// this is a declared property, never a runtime guess.
	SideEffectFree() bool

	// Call executes the tool with already-parsed arguments. Argument schema
	// validation is the implementation's responsibility (FunctionTool does it
	// before invoking the wrapped function).
	Call(ctx context.Context, args map[string]any) core.ToolResult
}

// ToolError represents errors that occur during tool execution.
type ToolError struct {
	Tool    string `json:"tool"`              // Name of the tool that failed
	Message string `json:"message"`           // Error message
	Code    string `json:"code"`              // Error code for categorization
	Details any    `json:"details,omitempty"` // Additional error details
}

// Error codes used across the built-in tools.
const (
	CodeValidation  = "VALIDATION_ERROR"
	CodeExecution   = "EXECUTION_ERROR"
	CodeTimeout     = "TIMEOUT"
	CodeUnavailable = "UNAVAILABLE"
)

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// NewToolError creates a new ToolError with the specified details.
func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{Tool: tool, Message: message, Code: code}
}
