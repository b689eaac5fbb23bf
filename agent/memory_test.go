package agent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VRUSHIL1/shop-chatbot-v2/core"
	"github.com/VRUSHIL1/shop-chatbot-v2/model"
)

func TestExtractMemoryParsesFacts(t *testing.T) {
	extractor := model.NewMockModel("extractor").
		EnqueueText(`{"name": "Alice", "age": 25, "likes": ["pizza", "jazz"]}`)

	facts, err := extractMemory(context.Background(), extractor, "user: I'm Alice, 25, into pizza and jazz")
	require.NoError(t, err)

	assert.Equal(t, "Alice", facts["name"])
	assert.Equal(t, "25", facts["age"])
	assert.JSONEq(t, `["pizza","jazz"]`, facts["likes"])
}

func TestExtractMemoryHandlesFencedJSON(t *testing.T) {
	extractor := model.NewMockModel("extractor").
		EnqueueText("```json\n{\"city\": \"Pune\"}\n```")

	facts, err := extractMemory(context.Background(), extractor, "user: I live in Pune")
	require.NoError(t, err)
	assert.Equal(t, "Pune", facts["city"])
}

func TestExtractMemoryInvalidJSONYieldsEmpty(t *testing.T) {
	extractor := model.NewMockModel("extractor").
		EnqueueText("Sorry, I cannot extract anything here.")

	facts, err := extractMemory(context.Background(), extractor, "user: hello")
	require.NoError(t, err)
	assert.Empty(t, facts)
}

func TestExtractMemoryPropagatesModelError(t *testing.T) {
	extractor := model.NewMockModel("extractor").EnqueueError(errors.New("quota"))

	_, err := extractMemory(context.Background(), extractor, "user: hello")
	assert.Error(t, err)
}

func TestFormatMemory(t *testing.T) {
	assert.Empty(t, formatMemory(nil))

	out := formatMemory([]core.MemoryFact{
		{Field: "name", Value: "Ravi", UpdatedAt: time.Now()},
		{Field: "city", Value: "Pune", UpdatedAt: time.Now()},
	})
	assert.Equal(t, "name: Ravi\ncity: Pune", out)
}
