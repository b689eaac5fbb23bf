package tool

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/VRUSHIL1/shop-chatbot-v2/logging"
	"github.com/VRUSHIL1/shop-chatbot-v2/model"
)

// Invocation statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// InvocationRequest describes one tool call requested by the model.
type InvocationRequest struct {
	// Name of the tool to run.
	Name string
	// Arguments already parsed from the model's JSON.
	Arguments map[string]any
	// Provider pins the call to a specific remote provider. Empty means
	// resolve: local tools first, then remote providers in order.
	Provider string
}

// InvocationResult is the structured outcome of a tool call. Status is always
// success or error; Message always carries human-readable text suitable for
// feeding back to the model.
type InvocationResult struct {
	Status  string      `json:"status"`
	Tool    string      `json:"tool"`
	Message string      `json:"message"`
	Result  interface{} `json:"result,omitempty"`
}

// RemoteCaller is the slice of the gateway the registry needs: tool routing
// and invocation.
type RemoteCaller interface {
	FindProvider(ctx context.Context, toolName string) (string, bool)
	CallTool(ctx context.Context, provider, tool string, args map[string]any) (json.RawMessage, error)
}

// Registry routes tool invocations to local tools or remote providers. Local
// tools keep registration order and shadow remote tools with the same name.
type Registry struct {
	tools   []Tool
	byName  map[string]Tool
	gateway RemoteCaller
	logger  logging.Logger
}

// RegistryOptions configure a Registry.
type RegistryOptions struct {
	// Gateway resolves tools no local registration covers. Optional.
	Gateway RemoteCaller
	Logger  logging.Logger
}

// NewRegistry creates a Registry over the given local tools.
func NewRegistry(tools []Tool, optFns ...func(o *RegistryOptions)) *Registry {
	opts := RegistryOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	byName := make(map[string]Tool, len(tools))
	ordered := make([]Tool, 0, len(tools))
	for _, t := range tools {
		if _, exists := byName[t.Name()]; exists {
			continue
		}
		byName[t.Name()] = t
		ordered = append(ordered, t)
	}

	return &Registry{
		tools:   ordered,
		byName:  byName,
		gateway: opts.Gateway,
		logger:  opts.Logger,
	}
}

// Definitions returns the local tools as model tool definitions in
// registration order.
func (r *Registry) Definitions() []model.ToolDefinition {
	defs := make([]model.ToolDefinition, len(r.tools))
	for i, t := range r.tools {
		defs[i] = model.ToolDefinition{
			Type: "function",
			Function: model.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Parameters(),
			},
		}
	}
	return defs
}

// ParseArguments decodes a model-supplied JSON argument string. Empty or
// malformed input yields an empty map so a confused model never crashes a run.
func ParseArguments(raw string) map[string]any {
	if raw == "" {
		return map[string]any{}
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil || args == nil {
		return map[string]any{}
	}
	return args
}

// Execute runs one tool invocation and always returns a structured result,
// never an error: tool failures, unknown tools and panics all become error
// results so the agent loop can report them to the model and continue.
func (r *Registry) Execute(ctx context.Context, req InvocationRequest) (result InvocationResult) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("tool panicked", "tool", req.Name, "panic", rec)
			result = InvocationResult{
				Status:  StatusError,
				Tool:    req.Name,
				Message: fmt.Sprintf("Tool execution failed: %v", rec),
			}
		}
	}()

	args := req.Arguments
	if args == nil {
		args = map[string]any{}
	}

	r.logger.Debug("running tool", "tool", req.Name, "provider", req.Provider)

	if req.Provider == "" {
		if local, ok := r.byName[req.Name]; ok {
			return r.executeLocal(ctx, local, args)
		}
	}
	return r.executeRemote(ctx, req, args)
}

func (r *Registry) executeLocal(ctx context.Context, t Tool, args map[string]any) InvocationResult {
	output, err := t.Call(ctx, args)
	if err != nil {
		return InvocationResult{
			Status:  StatusError,
			Tool:    t.Name(),
			Message: fmt.Sprintf("Tool execution failed: %v", err),
		}
	}
	return InvocationResult{
		Status:  StatusSuccess,
		Tool:    t.Name(),
		Message: resultMessage(output),
		Result:  output,
	}
}

func (r *Registry) executeRemote(ctx context.Context, req InvocationRequest, args map[string]any) InvocationResult {
	if r.gateway == nil {
		return InvocationResult{
			Status:  StatusError,
			Tool:    req.Name,
			Message: fmt.Sprintf("Unknown tool %s", req.Name),
		}
	}

	provider := req.Provider
	if provider == "" {
		found, ok := r.gateway.FindProvider(ctx, req.Name)
		if !ok {
			return InvocationResult{
				Status:  StatusError,
				Tool:    req.Name,
				Message: fmt.Sprintf("Unknown tool %s", req.Name),
			}
		}
		provider = found
	}

	raw, err := r.gateway.CallTool(ctx, provider, req.Name, args)
	if err != nil {
		return InvocationResult{
			Status:  StatusError,
			Tool:    req.Name,
			Message: fmt.Sprintf("MCP tool execution failed: %v", err),
		}
	}

	message := string(raw)
	if message == "" {
		message = "MCP tool executed successfully"
	}
	return InvocationResult{
		Status:  StatusSuccess,
		Tool:    req.Name,
		Message: message,
		Result:  raw,
	}
}

// resultMessage derives the text fed back to the model from a tool's output:
// a map's message field when present, otherwise its JSON form, otherwise the
// value's string form.
func resultMessage(output interface{}) string {
	switch v := output.(type) {
	case string:
		return v
	case map[string]any:
		if msg, ok := v["message"].(string); ok && msg != "" {
			return msg
		}
		if data, err := json.Marshal(v); err == nil {
			return string(data)
		}
		return fmt.Sprintf("%v", v)
	default:
		if data, err := json.Marshal(v); err == nil {
			return string(data)
		}
		return fmt.Sprintf("%v", v)
	}
}
