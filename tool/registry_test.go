package tool

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRemote struct {
	provider string
	found    bool
	result   json.RawMessage
	err      error
}

func (s *stubRemote) FindProvider(_ context.Context, _ string) (string, bool) {
	return s.provider, s.found
}

func (s *stubRemote) CallTool(_ context.Context, _, _ string, _ map[string]any) (json.RawMessage, error) {
	return s.result, s.err
}

func echoTool() Tool {
	return NewFunctionTool(
		"echo",
		"Echo the input back",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"text": map[string]any{"type": "string"},
			},
			"required": []string{"text"},
		},
		func(_ context.Context, args map[string]any) (any, error) {
			return args["text"], nil
		},
	)
}

func TestExecuteLocalTool(t *testing.T) {
	r := NewRegistry([]Tool{echoTool()})

	result := r.Execute(context.Background(), InvocationRequest{
		Name:      "echo",
		Arguments: map[string]any{"text": "hello"},
	})

	assert.Equal(t, StatusSuccess, result.Status)
	assert.Equal(t, "echo", result.Tool)
	assert.Equal(t, "hello", result.Message)
}

func TestExecuteValidationFailureBecomesErrorResult(t *testing.T) {
	r := NewRegistry([]Tool{echoTool()})

	result := r.Execute(context.Background(), InvocationRequest{
		Name:      "echo",
		Arguments: map[string]any{},
	})

	assert.Equal(t, StatusError, result.Status)
	assert.Contains(t, result.Message, "Tool execution failed")
}

func TestExecuteUnknownToolNoGateway(t *testing.T) {
	r := NewRegistry([]Tool{echoTool()})

	result := r.Execute(context.Background(), InvocationRequest{Name: "ghost"})

	assert.Equal(t, StatusError, result.Status)
	assert.Equal(t, "Unknown tool ghost", result.Message)
}

func TestExecuteRecoversFromPanic(t *testing.T) {
	panicky := NewFunctionTool("boom", "Always panics",
		map[string]any{"type": "object", "properties": map[string]any{}},
		func(_ context.Context, _ map[string]any) (any, error) {
			panic("kaboom")
		},
	)
	r := NewRegistry([]Tool{panicky})

	result := r.Execute(context.Background(), InvocationRequest{Name: "boom"})

	assert.Equal(t, StatusError, result.Status)
	assert.Contains(t, result.Message, "kaboom")
}

func TestExecuteRoutesToRemoteProvider(t *testing.T) {
	remote := &stubRemote{provider: "alpha", found: true, result: json.RawMessage(`{"ok":true}`)}
	r := NewRegistry(nil, func(o *RegistryOptions) { o.Gateway = remote })

	result := r.Execute(context.Background(), InvocationRequest{Name: "remote_tool"})

	assert.Equal(t, StatusSuccess, result.Status)
	assert.Equal(t, `{"ok":true}`, result.Message)
}

func TestExecuteRemoteFailure(t *testing.T) {
	remote := &stubRemote{provider: "alpha", found: true, err: errors.New("provider crashed")}
	r := NewRegistry(nil, func(o *RegistryOptions) { o.Gateway = remote })

	result := r.Execute(context.Background(), InvocationRequest{Name: "remote_tool"})

	assert.Equal(t, StatusError, result.Status)
	assert.Contains(t, result.Message, "MCP tool execution failed")
	assert.Contains(t, result.Message, "provider crashed")
}

func TestExecuteLocalShadowsRemote(t *testing.T) {
	remote := &stubRemote{provider: "alpha", found: true, result: json.RawMessage(`"remote"`)}
	r := NewRegistry([]Tool{echoTool()}, func(o *RegistryOptions) { o.Gateway = remote })

	result := r.Execute(context.Background(), InvocationRequest{
		Name:      "echo",
		Arguments: map[string]any{"text": "local wins"},
	})

	assert.Equal(t, StatusSuccess, result.Status)
	assert.Equal(t, "local wins", result.Message)
}

func TestParseArguments(t *testing.T) {
	assert.Equal(t, map[string]any{"a": "b"}, ParseArguments(`{"a":"b"}`))
	assert.Equal(t, map[string]any{}, ParseArguments(""))
	assert.Equal(t, map[string]any{}, ParseArguments("{not json"))
	assert.Equal(t, map[string]any{}, ParseArguments("null"))
	assert.Equal(t, map[string]any{}, ParseArguments(`[1,2]`))
}

func TestDefinitionsPreserveRegistrationOrder(t *testing.T) {
	first := NewFunctionTool("first", "d1", map[string]any{"type": "object", "properties": map[string]any{}}, nil)
	second := NewFunctionTool("second", "d2", map[string]any{"type": "object", "properties": map[string]any{}}, nil)

	r := NewRegistry([]Tool{first, second})
	defs := r.Definitions()

	require.Len(t, defs, 2)
	assert.Equal(t, "first", defs[0].Function.Name)
	assert.Equal(t, "second", defs[1].Function.Name)
	assert.Equal(t, "function", defs[0].Type)
}

func TestResultMessagePrefersMapMessage(t *testing.T) {
	msg := resultMessage(map[string]any{"message": "Email sent to a@b.c", "status": "success"})
	assert.Equal(t, "Email sent to a@b.c", msg)

	msg = resultMessage(map[string]any{"status": "success"})
	assert.JSONEq(t, `{"status":"success"}`, msg)

	assert.Equal(t, "plain", resultMessage("plain"))
}
