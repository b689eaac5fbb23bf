package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/VRUSHIL1/shop-chatbot-v2/core"
	"github.com/VRUSHIL1/shop-chatbot-v2/model"
)

const memoryExtractionPrompt = `You are an information extraction system.
From the conversation below, extract ONLY user-related facts such as:
- name
- age
- location
- hobbies
- likes/dislikes
- preferences
- favorites (food, music, movies, etc.)

Rules:
- Output must be ONLY valid JSON.
- Do not include extra text or explanations.
- If nothing relevant, return empty JSON {}.

Conversation:
%s`

// extractMemory asks the extractor model for user facts in the given text and
// returns them as field/value pairs. A reply that is not valid JSON yields an
// empty map, not an error.
func extractMemory(ctx context.Context, extractor model.Model, text string) (map[string]string, error) {
	resp, err := extractor.Generate(ctx, model.Request{
		Instructions: fmt.Sprintf(memoryExtractionPrompt, text),
		Contents:     []core.Content{core.NewTextContent(core.RoleUser, text)},
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Candidates) == 0 {
		return map[string]string{}, nil
	}

	raw := strings.TrimSpace(resp.Candidates[0].Content.Text())
	raw = stripCodeFence(raw)

	var parsed map[string]any
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return map[string]string{}, nil
	}

	facts := make(map[string]string, len(parsed))
	for field, value := range parsed {
		switch v := value.(type) {
		case string:
			facts[field] = v
		case float64, bool:
			facts[field] = fmt.Sprintf("%v", v)
		default:
			if data, err := json.Marshal(v); err == nil {
				facts[field] = string(data)
			}
		}
	}
	return facts, nil
}

// stripCodeFence unwraps a ```json ... ``` fenced reply.
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// formatMemory renders facts as "field: value" lines for prompt injection.
func formatMemory(facts []core.MemoryFact) string {
	if len(facts) == 0 {
		return ""
	}
	lines := make([]string, len(facts))
	for i, fact := range facts {
		lines[i] = fmt.Sprintf("%s: %s", fact.Field, fact.Value)
	}
	return strings.Join(lines, "\n")
}
