// Package agent implements the bounded tool-calling loop that turns a user
// task into a final text answer. A run alternates model calls with tool
// executions up to a hard iteration ceiling and always produces a non-empty
// result string; model failures and tool failures become reportable text, not
// panics or errors.
package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/VRUSHIL1/shop-chatbot-v2/catalog"
	"github.com/VRUSHIL1/shop-chatbot-v2/core"
	"github.com/VRUSHIL1/shop-chatbot-v2/logging"
	"github.com/VRUSHIL1/shop-chatbot-v2/mcp"
	"github.com/VRUSHIL1/shop-chatbot-v2/model"
	"github.com/VRUSHIL1/shop-chatbot-v2/store"
	"github.com/VRUSHIL1/shop-chatbot-v2/tool"
)

// Terminal result strings. Every run ends with real model text or one of
// these.
const (
	emptyResponseMessage  = "I apologize, but I couldn't generate a response. Please try again."
	maxIterationsMessage  = "Task completed after maximum iterations."
	errorMessageTemplate  = "An error occurred: %v"
	taskEnvelopeTemplate  = "<task>\n%s\n</task>"
	finishReasonCompleted = "stop"
)

// CatalogSource supplies remote tool catalogs, typically an *mcp.Gateway.
type CatalogSource interface {
	AllTools(ctx context.Context) []mcp.ProviderCatalog
}

// Options tune a run of the agent loop.
type Options struct {
	// MaxIterations is the hard ceiling on model calls per task.
	MaxIterations int
	// HistoryLimit is how many prior session messages feed the prompt.
	HistoryLimit int
	// MemoryTopK is how many remembered user facts feed the prompt.
	MemoryTopK int
	Temperature float64
	MaxTokens   int64

	// Extractor is the secondary model used for memory extraction. Nil
	// disables extraction.
	Extractor model.Model
	// Catalogs supplies remote tools merged into the local set. Optional.
	Catalogs CatalogSource

	Logger logging.Logger
	Now    func() time.Time
}

// Agent runs bounded tool-calling tasks against one primary model.
type Agent struct {
	model    model.Model
	registry *tool.Registry
	store    store.Store
	opts     Options
}

// New creates an Agent over a primary model, a tool registry and the
// persistence layer.
func New(m model.Model, registry *tool.Registry, st store.Store, optFns ...func(o *Options)) *Agent {
	opts := Options{
		MaxIterations: 5,
		HistoryLimit:  8,
		MemoryTopK:    3,
		Temperature:   0.3,
		MaxTokens:     900,
		Logger:        logging.NoOpLogger{},
		Now:           time.Now,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Agent{
		model:    m,
		registry: registry,
		store:    st,
		opts:     opts,
	}
}

// StartTask runs one task to completion and returns the final answer text.
// The returned string is never empty: exhausted iterations, empty model
// output and model errors each map to a fixed terminal message. Persistence
// failures are logged, never fatal.
func (a *Agent) StartTask(ctx context.Context, sessionID, task string) string {
	historyText := a.loadHistory(ctx, sessionID)
	a.recordUserMessage(ctx, sessionID, task)
	a.rememberUserFacts(ctx, task)

	prompt, tools := a.prepare(ctx, historyText)

	transcript := []core.Content{
		core.NewTextContent(core.RoleUser, fmt.Sprintf(taskEnvelopeTemplate, task)),
	}

	var result string
	for iteration := 1; iteration <= a.opts.MaxIterations; iteration++ {
		a.opts.Logger.Debug("agent iteration", "iteration", iteration, "max", a.opts.MaxIterations)

		resp, err := a.model.Generate(ctx, model.Request{
			Instructions: prompt,
			Contents:     transcript,
			Tools:        tools,
			Temperature:  a.opts.Temperature,
			MaxTokens:    a.opts.MaxTokens,
		})
		if err != nil {
			a.opts.Logger.Error("model call failed", "error", err)
			result = fmt.Sprintf(errorMessageTemplate, err)
			break
		}

		candidate := pickCandidate(resp.Candidates)
		if candidate == nil {
			// no candidates this round, retry within the ceiling
			continue
		}

		text := candidate.Content.Text()
		calls := candidate.Content.FunctionCalls()

		if text == "" && len(calls) == 0 {
			result = emptyResponseMessage
			break
		}

		if len(calls) > 0 {
			transcript = append(transcript, candidate.Content)
			transcript = append(transcript, a.runTools(ctx, sessionID, calls))
			continue
		}

		result = text
		break
	}

	if result == "" {
		a.opts.Logger.Warn("iteration ceiling reached without final text")
		result = maxIterationsMessage
	}

	a.recordAssistantMessage(ctx, sessionID, result)
	return result
}

// pickCandidate prefers a candidate whose finish reason marks completion,
// falling back to the first.
func pickCandidate(candidates []model.Candidate) *model.Candidate {
	if len(candidates) == 0 {
		return nil
	}
	for i := range candidates {
		if candidates[i].FinishReason == finishReasonCompleted {
			return &candidates[i]
		}
	}
	return &candidates[0]
}

// runTools executes the requested calls in order and bundles their outcomes
// into one tool-role content turn. Tool failures feed back as text.
func (a *Agent) runTools(ctx context.Context, sessionID string, calls []core.FunctionCall) core.Content {
	parts := make([]core.Part, 0, len(calls))
	for _, call := range calls {
		result := a.registry.Execute(ctx, tool.InvocationRequest{
			Name:      call.Name,
			Arguments: tool.ParseArguments(call.Arguments),
		})
		a.opts.Logger.Info("tool executed",
			"tool", call.Name, "status", result.Status)

		a.recordToolMessage(ctx, sessionID, call.ID, result.Message)

		parts = append(parts, core.FunctionResponsePart{FunctionResponse: core.FunctionResponse{
			ID:       call.ID,
			Name:     call.Name,
			Response: result.Message,
		}})
	}
	return core.Content{Role: "tool", Parts: parts}
}

// prepare builds the system prompt and the merged tool definitions for a run.
func (a *Agent) prepare(ctx context.Context, historyText string) (string, []model.ToolDefinition) {
	local := a.registry.Definitions()

	var remote []mcp.ProviderCatalog
	if a.opts.Catalogs != nil {
		remote = a.opts.Catalogs.AllTools(ctx)
	}
	merged := catalog.Merge(local, remote)

	names := make([]string, len(merged))
	for i, def := range merged {
		names[i] = def.Function.Name
	}

	memoryText := ""
	facts, err := a.store.LatestMemory(ctx, a.opts.MemoryTopK)
	if err != nil {
		a.opts.Logger.Warn("memory lookup failed", "error", err)
	} else {
		memoryText = formatMemory(facts)
	}

	return buildSystemPrompt(a.opts.Now(), names, memoryText, historyText), merged
}

// loadHistory renders the last HistoryLimit messages of the session as
// "role: content" lines.
func (a *Agent) loadHistory(ctx context.Context, sessionID string) string {
	messages, err := a.store.RecentMessages(ctx, sessionID, a.opts.HistoryLimit)
	if err != nil {
		a.opts.Logger.Warn("history lookup failed", "session", sessionID, "error", err)
		return ""
	}
	lines := make([]string, len(messages))
	for i, msg := range messages {
		lines[i] = fmt.Sprintf("%s: %s", msg.Role, msg.Content)
	}
	return strings.Join(lines, "\n")
}

// rememberUserFacts extracts durable facts from the task and upserts them.
// Extraction is best effort: any failure is logged and skipped.
func (a *Agent) rememberUserFacts(ctx context.Context, task string) {
	if a.opts.Extractor == nil {
		return
	}
	facts, err := extractMemory(ctx, a.opts.Extractor, fmt.Sprintf("user: %s", task))
	if err != nil {
		a.opts.Logger.Warn("memory extraction failed", "error", err)
		return
	}
	for field, value := range facts {
		if err := a.store.UpsertMemory(ctx, field, value); err != nil {
			a.opts.Logger.Warn("memory save failed", "field", field, "error", err)
		}
	}
}

func (a *Agent) recordUserMessage(ctx context.Context, sessionID, task string) {
	session, err := a.store.GetSession(ctx, sessionID)
	if err == nil && session.Name == store.DefaultSessionName {
		if err := a.store.RenameSession(ctx, sessionID, store.NamePreview(strings.TrimSpace(task))); err != nil {
			a.opts.Logger.Warn("session rename failed", "session", sessionID, "error", err)
		}
	}
	a.appendMessage(ctx, sessionID, core.RoleUser, task, "")
}

func (a *Agent) recordAssistantMessage(ctx context.Context, sessionID, result string) {
	a.appendMessage(ctx, sessionID, core.RoleAssistant, result, "")
}

func (a *Agent) recordToolMessage(ctx context.Context, sessionID, callID, message string) {
	a.appendMessage(ctx, sessionID, core.RoleFunction, message, callID)
}

func (a *Agent) appendMessage(ctx context.Context, sessionID, role, content, toolCallID string) {
	err := a.store.AppendMessage(ctx, &core.Message{
		SessionID:  sessionID,
		Role:       role,
		Content:    content,
		ToolCallID: toolCallID,
	})
	if err != nil {
		a.opts.Logger.Warn("message persist failed",
			"session", sessionID, "role", role, "error", err)
	}
}
