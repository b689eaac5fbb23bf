package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentText(t *testing.T) {
	c := Content{Role: RoleAssistant, Parts: []Part{
		TextPart{Text: "hello "},
		FunctionCallPart{FunctionCall: FunctionCall{Name: "lookup"}},
		TextPart{Text: "world"},
	}}

	assert.Equal(t, "hello world", c.Text())
}

func TestContentFunctionCalls(t *testing.T) {
	c := Content{Role: RoleAssistant, Parts: []Part{
		TextPart{Text: "checking"},
		FunctionCallPart{FunctionCall: FunctionCall{ID: "1", Name: "first"}},
		FunctionCallPart{FunctionCall: FunctionCall{ID: "2", Name: "second"}},
	}}

	calls := c.FunctionCalls()
	require.Len(t, calls, 2)
	assert.Equal(t, "first", calls[0].Name)
	assert.Equal(t, "second", calls[1].Name)
}

func TestContentFunctionResponses(t *testing.T) {
	c := Content{Role: "tool", Parts: []Part{
		FunctionResponsePart{FunctionResponse: FunctionResponse{ID: "1", Name: "lookup", Response: "42"}},
	}}

	responses := c.FunctionResponses()
	require.Len(t, responses, 1)
	assert.Equal(t, "42", responses[0].Response)
	assert.Empty(t, c.FunctionCalls())
}

func TestNewTextContent(t *testing.T) {
	c := NewTextContent(RoleUser, "hi")
	assert.Equal(t, RoleUser, c.Role)
	assert.Equal(t, "hi", c.Text())
}

func TestNewIDUnique(t *testing.T) {
	assert.NotEqual(t, NewID(), NewID())
}
