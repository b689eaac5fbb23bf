package model

import (
	"context"
	"fmt"
	"sync"

	"github.com/VRUSHIL1/shop-chatbot-v2/core"
)

// MockModel is a lightweight in-memory Model useful for tests & examples. It
// replays a scripted sequence of responses; once the script is exhausted it
// returns a canned echo of the last user text, or the configured error.
type MockModel struct {
	mu     sync.Mutex
	info   Info
	script []*Response
	errs   []error
	Calls  []Request // requests recorded in order
}

// NewMockModel constructs a MockModel with basic tool support enabled.
func NewMockModel(name string) *MockModel {
	return &MockModel{
		info: Info{Name: name, Provider: "mock", SupportsTools: true},
	}
}

// Enqueue appends a scripted response to the replay sequence.
func (m *MockModel) Enqueue(resp *Response) *MockModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, resp)
	m.errs = append(m.errs, nil)
	return m
}

// EnqueueText appends a single-candidate plain text response.
func (m *MockModel) EnqueueText(text string) *MockModel {
	return m.Enqueue(&Response{Candidates: []Candidate{{
		Content:      core.NewTextContent("assistant", text),
		FinishReason: "stop",
	}}})
}

// EnqueueFunctionCall appends a single-candidate response requesting the named
// tool with raw JSON arguments.
func (m *MockModel) EnqueueFunctionCall(name, args string) *MockModel {
	return m.Enqueue(&Response{Candidates: []Candidate{{
		Content: core.Content{Role: "assistant", Parts: []core.Part{
			core.FunctionCallPart{FunctionCall: core.FunctionCall{
				ID:        core.NewID(),
				Name:      name,
				Arguments: args,
			}},
		}},
		FinishReason: "tool_calls",
	}}})
}

// EnqueueError appends a call that fails with err.
func (m *MockModel) EnqueueError(err error) *MockModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, nil)
	m.errs = append(m.errs, err)
	return m
}

// Generate implements Model by replaying the scripted sequence.
func (m *MockModel) Generate(_ context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx := len(m.Calls)
	m.Calls = append(m.Calls, req)

	if idx < len(m.script) {
		if err := m.errs[idx]; err != nil {
			return nil, err
		}
		return m.script[idx], nil
	}

	var last string
	if len(req.Contents) > 0 {
		last = req.Contents[len(req.Contents)-1].Text()
	}
	return &Response{Candidates: []Candidate{{
		Content:      core.NewTextContent("assistant", fmt.Sprintf("Mock response to: %s", last)),
		FinishReason: "stop",
	}}}, nil
}

// CallCount returns how many Generate calls were recorded.
func (m *MockModel) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// Info implements Model.
func (m *MockModel) Info() Info { return m.info }
