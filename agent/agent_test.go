package agent

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VRUSHIL1/shop-chatbot-v2/core"
	"github.com/VRUSHIL1/shop-chatbot-v2/model"
	"github.com/VRUSHIL1/shop-chatbot-v2/store"
	"github.com/VRUSHIL1/shop-chatbot-v2/tool"
)

func staticTool(name, reply string) tool.Tool {
	return tool.NewFunctionTool(name, "test tool",
		map[string]any{"type": "object", "properties": map[string]any{}},
		func(_ context.Context, _ map[string]any) (any, error) {
			return reply, nil
		},
	)
}

func newTestAgent(t *testing.T, m model.Model, tools []tool.Tool, optFns ...func(o *Options)) (*Agent, store.Store, string) {
	t.Helper()
	st := store.NewInMemoryStore()
	session, err := st.CreateSession(context.Background())
	require.NoError(t, err)

	registry := tool.NewRegistry(tools)
	a := New(m, registry, st, optFns...)
	return a, st, session.ID
}

func TestStartTaskDirectAnswer(t *testing.T) {
	m := model.NewMockModel("primary").EnqueueText("Hello! How can I help?")
	a, st, sessionID := newTestAgent(t, m, nil)

	result := a.StartTask(context.Background(), sessionID, "hi")

	assert.Equal(t, "Hello! How can I help?", result)
	assert.Equal(t, 1, m.CallCount())

	// user turn wrapped in a task envelope
	require.NotEmpty(t, m.Calls[0].Contents)
	assert.Equal(t, "<task>\nhi\n</task>", m.Calls[0].Contents[0].Text())

	messages, err := st.Messages(context.Background(), sessionID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, core.RoleUser, messages[0].Role)
	assert.Equal(t, "hi", messages[0].Content)
	assert.Equal(t, core.RoleAssistant, messages[1].Role)
	assert.Equal(t, "Hello! How can I help?", messages[1].Content)
}

func TestStartTaskToolRoundTrip(t *testing.T) {
	m := model.NewMockModel("primary").
		EnqueueFunctionCall("lookup", `{}`).
		EnqueueText("The answer is 42.")
	a, st, sessionID := newTestAgent(t, m, []tool.Tool{staticTool("lookup", "42")})

	result := a.StartTask(context.Background(), sessionID, "what is the answer?")

	assert.Equal(t, "The answer is 42.", result)
	require.Equal(t, 2, m.CallCount())

	// the second model call sees the assistant turn and the tool result
	second := m.Calls[1].Contents
	require.Len(t, second, 3)
	assert.Equal(t, "tool", second[2].Role)
	responses := second[2].FunctionResponses()
	require.Len(t, responses, 1)
	assert.Equal(t, "lookup", responses[0].Name)
	assert.Equal(t, "42", responses[0].Response)

	// tool result is persisted as a function turn
	messages, err := st.Messages(context.Background(), sessionID)
	require.NoError(t, err)
	require.Len(t, messages, 3)
	assert.Equal(t, core.RoleFunction, messages[1].Role)
	assert.Equal(t, "42", messages[1].Content)
}

func TestStartTaskIterationCeiling(t *testing.T) {
	m := model.NewMockModel("primary")
	for i := 0; i < 10; i++ {
		m.EnqueueFunctionCall("lookup", `{}`)
	}
	a, _, sessionID := newTestAgent(t, m, []tool.Tool{staticTool("lookup", "again")})

	result := a.StartTask(context.Background(), sessionID, "loop forever")

	assert.Equal(t, "Task completed after maximum iterations.", result)
	assert.Equal(t, 5, m.CallCount())
}

func TestStartTaskModelErrorIsTerminal(t *testing.T) {
	m := model.NewMockModel("primary").EnqueueError(errors.New("rate limited"))
	a, st, sessionID := newTestAgent(t, m, nil)

	result := a.StartTask(context.Background(), sessionID, "hello")

	assert.Equal(t, "An error occurred: rate limited", result)
	assert.Equal(t, 1, m.CallCount())

	messages, err := st.Messages(context.Background(), sessionID)
	require.NoError(t, err)
	assert.Equal(t, result, messages[len(messages)-1].Content)
}

func TestStartTaskEmptyCandidateApologizes(t *testing.T) {
	m := model.NewMockModel("primary").Enqueue(&model.Response{
		Candidates: []model.Candidate{{
			Content:      core.Content{Role: "assistant"},
			FinishReason: "stop",
		}},
	})
	a, _, sessionID := newTestAgent(t, m, nil)

	result := a.StartTask(context.Background(), sessionID, "hello")

	assert.Equal(t, "I apologize, but I couldn't generate a response. Please try again.", result)
}

func TestStartTaskZeroCandidatesRetriesWithinCeiling(t *testing.T) {
	m := model.NewMockModel("primary").
		Enqueue(&model.Response{}).
		EnqueueText("recovered")
	a, _, sessionID := newTestAgent(t, m, nil)

	result := a.StartTask(context.Background(), sessionID, "hello")

	assert.Equal(t, "recovered", result)
	assert.Equal(t, 2, m.CallCount())
}

func TestStartTaskFailedToolFeedsErrorBack(t *testing.T) {
	failing := tool.NewFunctionTool("broken", "always fails",
		map[string]any{"type": "object", "properties": map[string]any{}},
		func(_ context.Context, _ map[string]any) (any, error) {
			return nil, errors.New("backend down")
		},
	)
	m := model.NewMockModel("primary").
		EnqueueFunctionCall("broken", `{}`).
		EnqueueText("Sorry, the lookup failed.")
	a, _, sessionID := newTestAgent(t, m, []tool.Tool{failing})

	result := a.StartTask(context.Background(), sessionID, "try the tool")

	assert.Equal(t, "Sorry, the lookup failed.", result)
	responses := m.Calls[1].Contents[2].FunctionResponses()
	require.Len(t, responses, 1)
	assert.Contains(t, responses[0].Response, "Tool execution failed")
}

func TestStartTaskNamesSessionFromFirstMessage(t *testing.T) {
	m := model.NewMockModel("primary").EnqueueText("ok").EnqueueText("ok again")
	a, st, sessionID := newTestAgent(t, m, nil)

	a.StartTask(context.Background(), sessionID, "where is my order?")

	session, err := st.GetSession(context.Background(), sessionID)
	require.NoError(t, err)
	assert.Equal(t, "where is my order?", session.Name)

	// a later task must not rename again
	a.StartTask(context.Background(), sessionID, "something else entirely")
	session, err = st.GetSession(context.Background(), sessionID)
	require.NoError(t, err)
	assert.Equal(t, "where is my order?", session.Name)
}

func TestStartTaskExtractsMemory(t *testing.T) {
	extractor := model.NewMockModel("extractor").
		EnqueueText(`{"name": "Ravi", "city": "Pune"}`)
	m := model.NewMockModel("primary").EnqueueText("Nice to meet you, Ravi!")

	a, st, sessionID := newTestAgent(t, m, nil, func(o *Options) {
		o.Extractor = extractor
	})

	a.StartTask(context.Background(), sessionID, "my name is Ravi and I live in Pune")

	facts, err := st.AllMemory(context.Background())
	require.NoError(t, err)
	require.Len(t, facts, 2)
}

func TestStartTaskMemoryInPrompt(t *testing.T) {
	m := model.NewMockModel("primary").EnqueueText("ok")
	a, st, sessionID := newTestAgent(t, m, nil)

	require.NoError(t, st.UpsertMemory(context.Background(), "name", "Ravi"))

	a.StartTask(context.Background(), sessionID, "hello again")

	assert.Contains(t, m.Calls[0].Instructions, "name: Ravi")
}

func TestStartTaskPromptCarriesDateAndTools(t *testing.T) {
	fixed := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	m := model.NewMockModel("primary").EnqueueText("ok")
	a, _, sessionID := newTestAgent(t, m, []tool.Tool{staticTool("lookup", "x")}, func(o *Options) {
		o.Now = func() time.Time { return fixed }
	})

	a.StartTask(context.Background(), sessionID, "hello")

	instructions := m.Calls[0].Instructions
	assert.Contains(t, instructions, "2025-03-14")
	assert.Contains(t, instructions, "09:30:00")
	assert.Contains(t, instructions, "lookup")
}

func TestPickCandidatePrefersFinished(t *testing.T) {
	candidates := []model.Candidate{
		{Content: core.NewTextContent("assistant", "partial"), FinishReason: "length"},
		{Content: core.NewTextContent("assistant", "done"), FinishReason: "stop"},
	}
	picked := pickCandidate(candidates)
	require.NotNil(t, picked)
	assert.Equal(t, "done", picked.Content.Text())

	picked = pickCandidate(candidates[:1])
	require.NotNil(t, picked)
	assert.Equal(t, "partial", picked.Content.Text())

	assert.Nil(t, pickCandidate(nil))
}

func TestStartTaskResultNeverEmpty(t *testing.T) {
	// scripted empty-text final candidate exhausts into the apology, while a
	// ceiling of tool loops exhausts into the max-iterations message; both
	// paths must persist and return non-empty text
	for name, build := range map[string]func() *model.MockModel{
		"empty candidate": func() *model.MockModel {
			return model.NewMockModel("m").Enqueue(&model.Response{
				Candidates: []model.Candidate{{Content: core.Content{Role: "assistant"}}},
			})
		},
		"all zero candidates": func() *model.MockModel {
			m := model.NewMockModel("m")
			for i := 0; i < 5; i++ {
				m.Enqueue(&model.Response{})
			}
			return m
		},
	} {
		t.Run(name, func(t *testing.T) {
			a, _, sessionID := newTestAgent(t, build(), nil)
			result := a.StartTask(context.Background(), sessionID, fmt.Sprintf("task for %s", name))
			assert.NotEmpty(t, result)
		})
	}
}
