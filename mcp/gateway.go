package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/VRUSHIL1/shop-chatbot-v2/logging"
)

// GatewayOptions configure connection behavior.
type GatewayOptions struct {
	// Dial constructs a Transport per provider. Defaults to DialStdio.
	Dial DialFunc

	// ConnectTimeout bounds process startup plus handshake per provider.
	ConnectTimeout time.Duration

	// ListTimeout bounds a single tools/list query.
	ListTimeout time.Duration

	Logger logging.Logger
}

// Gateway fans out to the configured MCP providers. Connections are
// established once per Gateway lifetime; a provider that fails to connect
// stays failed and is excluded from catalogs and routing.
type Gateway struct {
	configs []ProviderConfig
	opts    GatewayOptions

	connectOnce sync.Once

	mu    sync.RWMutex
	conns map[string]Transport
	ready []string // connected providers in declaration order
}

// NewGateway creates a Gateway over the declared providers. No processes are
// started until ConnectAll.
func NewGateway(configs []ProviderConfig, optFns ...func(o *GatewayOptions)) *Gateway {
	opts := GatewayOptions{
		Dial:           DialStdio,
		ConnectTimeout: 5 * time.Minute,
		ListTimeout:    10 * time.Second,
		Logger:         logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Gateway{
		configs: configs,
		opts:    opts,
		conns:   make(map[string]Transport),
	}
}

// ConnectAll connects every active provider. Repeated calls are no-ops, even
// when some providers failed the first time: a failed provider is terminal
// for the Gateway's lifetime. Individual failures are logged and swallowed so
// one bad provider never blocks the rest.
func (g *Gateway) ConnectAll(ctx context.Context) {
	g.connectOnce.Do(func() {
		for _, cfg := range g.configs {
			if !cfg.Active {
				g.opts.Logger.Debug("skipping inactive mcp provider", "provider", cfg.Name)
				continue
			}
			if err := g.connect(ctx, cfg); err != nil {
				g.opts.Logger.Warn("mcp provider connection failed",
					"provider", cfg.Name, "error", err)
			}
		}
	})
}

func (g *Gateway) connect(ctx context.Context, cfg ProviderConfig) error {
	transport, err := g.opts.Dial(cfg)
	if err != nil {
		return err
	}

	connectCtx, cancel := context.WithTimeout(ctx, g.opts.ConnectTimeout)
	defer cancel()

	if err := transport.Initialize(connectCtx); err != nil {
		_ = transport.Close()
		return err
	}

	g.mu.Lock()
	g.conns[cfg.Name] = transport
	g.ready = append(g.ready, cfg.Name)
	g.mu.Unlock()

	g.opts.Logger.Info("mcp provider connected", "provider", cfg.Name)
	return nil
}

// AllTools queries every ready provider for its current tool list, connecting
// the providers first if nothing has yet. Catalogs appear in provider
// declaration order. A provider whose listing fails contributes an empty
// catalog rather than an error.
func (g *Gateway) AllTools(ctx context.Context) []ProviderCatalog {
	g.ConnectAll(ctx)

	g.mu.RLock()
	ready := make([]string, len(g.ready))
	copy(ready, g.ready)
	g.mu.RUnlock()

	catalogs := make([]ProviderCatalog, 0, len(ready))
	for _, name := range ready {
		g.mu.RLock()
		transport := g.conns[name]
		g.mu.RUnlock()

		listCtx, cancel := context.WithTimeout(ctx, g.opts.ListTimeout)
		tools, err := transport.ListTools(listCtx)
		cancel()
		if err != nil {
			g.opts.Logger.Warn("mcp tool listing failed", "provider", name, "error", err)
			catalogs = append(catalogs, ProviderCatalog{Provider: name, Tools: []ToolDescriptor{}})
			continue
		}
		catalogs = append(catalogs, ProviderCatalog{Provider: name, Tools: tools})
	}
	return catalogs
}

// FindProvider returns the first ready provider (declaration order) currently
// exposing a tool with the given name.
func (g *Gateway) FindProvider(ctx context.Context, toolName string) (string, bool) {
	for _, catalog := range g.AllTools(ctx) {
		for _, tool := range catalog.Tools {
			if tool.Name == toolName {
				return catalog.Provider, true
			}
		}
	}
	return "", false
}

// CallTool forwards an invocation to the named provider. Unlike listing,
// invocation errors propagate to the caller.
func (g *Gateway) CallTool(ctx context.Context, provider, tool string, args map[string]any) (json.RawMessage, error) {
	g.mu.RLock()
	transport, ok := g.conns[provider]
	g.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, provider)
	}

	result, err := transport.CallTool(ctx, tool, args)
	if err != nil {
		return nil, fmt.Errorf("mcp tool %s/%s: %w", provider, tool, err)
	}
	return result, nil
}

// Ready reports the connected provider names in declaration order.
func (g *Gateway) Ready() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]string, len(g.ready))
	copy(out, g.ready)
	return out
}

// Close shuts down all provider connections.
func (g *Gateway) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	var firstErr error
	for name, transport := range g.conns {
		if err := transport.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(g.conns, name)
	}
	g.ready = nil
	return firstErr
}
