// Package tool implements the function calling subsystem: locally registered
// tools with schema-validated arguments, a registry that routes invocations to
// local tools or remote providers, and consistent error handling so a failed
// tool never aborts an agent run.
package tool

import (
	"context"
	"fmt"

	"github.com/VRUSHIL1/shop-chatbot-v2/internal/util"
)

// Tool defines the interface for structured capabilities the model can invoke.
//
// Implementations should provide clear snake_case names, a JSON schema for
// parameters, and graceful error handling. Tools must be safe for concurrent
// use.
type Tool interface {
	// Name returns the unique identifier for this tool.
	Name() string

	// Description returns the human-readable description given to the model.
	Description() string

	// Parameters returns a JSON schema describing the expected arguments.
	Parameters() map[string]interface{}

	// Call executes the tool with already-parsed arguments.
	Call(ctx context.Context, args map[string]interface{}) (interface{}, error)
}

// ValidationError represents parameter validation errors with detailed information.
type ValidationError = util.ValidationError

// ToolError represents errors that occur during tool execution.
type ToolError struct {
	Tool    string      `json:"tool"`              // Name of the tool that failed
	Message string      `json:"message"`           // Error message
	Code    string      `json:"code"`              // Error code for categorization
	Details interface{} `json:"details,omitempty"` // Additional error details
}

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// NewToolError creates a new ToolError with the specified details.
func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{
		Tool:    tool,
		Message: message,
		Code:    code,
	}
}

// FunctionTool adapts a plain Go function into a Tool. Arguments are validated
// against the schema before the function runs; validation failures surface as
// *ToolError with code VALIDATION_ERROR, other failures as EXECUTION_ERROR
// (custom codes are preserved when the function returns *ToolError directly).
//
// A FunctionTool has no mutable state after construction and is safe for
// concurrent use.
type FunctionTool struct {
	name        string
	description string
	parameters  map[string]any
	fn          func(ctx context.Context, args map[string]any) (any, error)
}

// NewFunctionTool constructs a FunctionTool from explicit schema and function.
func NewFunctionTool(
	name, description string,
	parameters map[string]any,
	fn func(ctx context.Context, args map[string]any) (any, error),
) *FunctionTool {
	return &FunctionTool{
		name:        name,
		description: description,
		parameters:  parameters,
		fn:          fn,
	}
}

// Name implements Tool.
func (t *FunctionTool) Name() string { return t.name }

// Description implements Tool.
func (t *FunctionTool) Description() string { return t.description }

// Parameters implements Tool.
func (t *FunctionTool) Parameters() map[string]interface{} { return t.parameters }

// Call implements Tool, validating args before invoking the wrapped function.
func (t *FunctionTool) Call(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	if err := util.ValidateParameters(args, t.parameters); err != nil {
		return nil, NewToolError(t.name, err.Error(), "VALIDATION_ERROR")
	}

	result, err := t.fn(ctx, args)
	if err != nil {
		if toolErr, ok := err.(*ToolError); ok {
			return nil, toolErr
		}
		return nil, NewToolError(t.name, err.Error(), "EXECUTION_ERROR")
	}
	return result, nil
}
