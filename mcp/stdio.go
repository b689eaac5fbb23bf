package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"sync"
)

const protocolVersion = "2024-11-05"

type rpcRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
	ID      interface{} `json:"id,omitempty"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
	ID      interface{}     `json:"id"`
}

type rpcError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// StdioTransport runs a provider as a child process and exchanges
// line-delimited JSON-RPC messages over its stdin/stdout.
type StdioTransport struct {
	cfg ProviderConfig

	mu      sync.Mutex
	process *exec.Cmd
	stdin   io.WriteCloser
	id      int
	pending map[int]chan *rpcResponse
}

// NewStdioTransport creates an unstarted transport for the provider config.
// The process is launched by Initialize.
func NewStdioTransport(cfg ProviderConfig) *StdioTransport {
	return &StdioTransport{
		cfg:     cfg,
		pending: make(map[int]chan *rpcResponse),
	}
}

// DialStdio is the default Gateway DialFunc.
func DialStdio(cfg ProviderConfig) (Transport, error) {
	return NewStdioTransport(cfg), nil
}

// Initialize launches the provider process and performs the MCP handshake.
// It is a no-op when the process is already running.
func (t *StdioTransport) Initialize(ctx context.Context) error {
	if err := t.start(); err != nil {
		return err
	}

	params := map[string]interface{}{
		"protocolVersion": protocolVersion,
		"capabilities":    map[string]interface{}{},
		"clientInfo": map[string]interface{}{
			"name":    "shop-chatbot",
			"version": "2.0.0",
		},
	}
	_, err := t.call(ctx, "initialize", params)
	return err
}

func (t *StdioTransport) start() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.process != nil {
		return nil
	}

	cmd := exec.Command(t.cfg.Command, t.cfg.Args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}

	if err := cmd.Start(); err != nil {
		return err
	}

	t.process = cmd
	t.stdin = stdin

	go t.listen(stdout)

	return nil
}

// listen demultiplexes responses to pending calls by request id.
func (t *StdioTransport) listen(stdout io.Reader) {
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		var resp rpcResponse
		if err := json.Unmarshal(scanner.Bytes(), &resp); err != nil {
			continue
		}

		if id, ok := resp.ID.(float64); ok {
			t.mu.Lock()
			ch, exists := t.pending[int(id)]
			if exists {
				delete(t.pending, int(id))
				ch <- &resp
			}
			t.mu.Unlock()
		}
	}
}

func (t *StdioTransport) call(ctx context.Context, method string, params interface{}) (*rpcResponse, error) {
	t.mu.Lock()
	t.id++
	id := t.id
	ch := make(chan *rpcResponse, 1)
	t.pending[id] = ch
	stdin := t.stdin
	t.mu.Unlock()

	if stdin == nil {
		t.mu.Lock()
		delete(t.pending, id)
		t.mu.Unlock()
		return nil, fmt.Errorf("mcp provider %s not started", t.cfg.Name)
	}

	req := rpcRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      id,
	}

	data, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	if _, err := io.WriteString(stdin, string(data)+"\n"); err != nil {
		return nil, err
	}

	select {
	case resp := <-ch:
		if resp.Error != nil {
			return nil, fmt.Errorf("mcp error (%d): %s", resp.Error.Code, resp.Error.Message)
		}
		return resp, nil
	case <-ctx.Done():
		t.mu.Lock()
		delete(t.pending, id)
		t.mu.Unlock()
		return nil, ctx.Err()
	}
}

// ListTools fetches the provider's live tool catalog.
func (t *StdioTransport) ListTools(ctx context.Context) ([]ToolDescriptor, error) {
	resp, err := t.call(ctx, "tools/list", nil)
	if err != nil {
		return nil, err
	}

	var listResult struct {
		Tools []struct {
			Name        string         `json:"name"`
			Description string         `json:"description"`
			InputSchema map[string]any `json:"inputSchema"`
		} `json:"tools"`
	}
	if err := json.Unmarshal(resp.Result, &listResult); err != nil {
		return nil, err
	}

	tools := make([]ToolDescriptor, 0, len(listResult.Tools))
	for _, tool := range listResult.Tools {
		tools = append(tools, ToolDescriptor{
			Name:        tool.Name,
			Description: tool.Description,
			InputSchema: tool.InputSchema,
			Provider:    t.cfg.Name,
		})
	}
	return tools, nil
}

// CallTool invokes a named tool and returns the provider's raw result.
func (t *StdioTransport) CallTool(ctx context.Context, name string, args map[string]any) (json.RawMessage, error) {
	callParams := map[string]interface{}{
		"name":      name,
		"arguments": args,
	}

	resp, err := t.call(ctx, "tools/call", callParams)
	if err != nil {
		return nil, err
	}
	return resp.Result, nil
}

// Close terminates the provider process. Safe to call on a transport that was
// never fully started.
func (t *StdioTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stdin != nil {
		_ = t.stdin.Close()
	}
	if t.process != nil && t.process.Process != nil {
		_ = t.process.Process.Kill()
		_ = t.process.Wait()
	}
	t.process = nil
	return nil
}
