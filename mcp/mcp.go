// Package mcp manages connections to external tool-providing processes
// speaking the Model Context Protocol. A Gateway owns the configured provider
// set, discovers their tool catalogs and forwards invocations, isolating each
// provider's failures from the rest of the run.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrUnknownProvider is returned by CallTool when the named provider is not a
// ready connection.
var ErrUnknownProvider = errors.New("unknown mcp provider")

// ProviderConfig declares one external tool provider. Inactive entries are
// skipped entirely. Declaration order is significant: it decides tool name
// collision resolution across providers.
type ProviderConfig struct {
	Name    string   `json:"name" mapstructure:"name"`
	Command string   `json:"command" mapstructure:"command"`
	Args    []string `json:"args" mapstructure:"args"`
	Active  bool     `json:"is_active" mapstructure:"is_active"`
}

// ToolDescriptor describes one callable tool exposed by a provider.
type ToolDescriptor struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
	Provider    string         `json:"provider,omitempty"`
}

// ProviderCatalog pairs a provider name with its live tool list. Catalogs are
// returned in provider declaration order so downstream merging stays
// deterministic.
type ProviderCatalog struct {
	Provider string           `json:"provider"`
	Tools    []ToolDescriptor `json:"tools"`
}

// Transport is the three-operation contract a provider connection must
// satisfy: an initialization handshake, a tool listing and a tool invocation.
// The production implementation spawns a process and speaks line-delimited
// JSON-RPC over stdio; tests substitute in-memory fakes.
type Transport interface {
	Initialize(ctx context.Context) error
	ListTools(ctx context.Context) ([]ToolDescriptor, error)
	CallTool(ctx context.Context, name string, args map[string]any) (json.RawMessage, error)
	Close() error
}

// DialFunc constructs an unconnected Transport for a provider config.
type DialFunc func(cfg ProviderConfig) (Transport, error)
