// Package catalog normalizes tool schemas for model consumption and merges
// locally registered tools with the live catalogs of remote providers into a
// single deterministic tool list.
package catalog

import (
	"fmt"

	"github.com/VRUSHIL1/shop-chatbot-v2/mcp"
	"github.com/VRUSHIL1/shop-chatbot-v2/model"
)

// maxRemoteDescription caps the tagged description of a remote tool.
const maxRemoteDescription = 100

// bannedKeys are schema vocabulary some model APIs reject. They are stripped
// from every node during sanitization.
var bannedKeys = []string{
	"additionalProperties",
	"additional_properties",
	"examples",
	"nullable",
	"default",
	"title",
	"description",
}

// Sanitize returns a copy of a JSON schema node reduced to the vocabulary all
// supported model APIs accept. The input is never mutated. Nodes without a
// recognized type collapse to an empty object schema, and the required list
// is repaired to reference only declared properties.
func Sanitize(schema map[string]any) map[string]any {
	if schema == nil {
		return map[string]any{"type": "object", "properties": map[string]any{}}
	}

	out := make(map[string]any, len(schema))
	for k, v := range schema {
		out[k] = v
	}
	for _, k := range bannedKeys {
		delete(out, k)
	}

	typ, _ := out["type"].(string)
	switch typ {
	case "object":
		props := map[string]any{}
		if rawProps, ok := out["properties"].(map[string]any); ok {
			for name, sub := range rawProps {
				if subSchema, ok := sub.(map[string]any); ok {
					props[name] = Sanitize(subSchema)
				} else {
					props[name] = map[string]any{"type": "object", "properties": map[string]any{}}
				}
			}
		}
		out["properties"] = props
		if required := repairRequired(out["required"], props); required != nil {
			out["required"] = required
		} else {
			delete(out, "required")
		}
	case "array":
		if items, ok := out["items"].(map[string]any); ok {
			out["items"] = Sanitize(items)
		} else {
			out["items"] = map[string]any{"type": "object", "properties": map[string]any{}}
		}
	case "string", "number", "integer", "boolean", "null":
		// scalar node, nothing nested to walk
	default:
		return map[string]any{"type": "object", "properties": map[string]any{}}
	}

	return out
}

// repairRequired keeps only required entries that name declared properties.
// Returns nil when nothing survives.
func repairRequired(raw any, props map[string]any) []string {
	var names []string
	switch required := raw.(type) {
	case []string:
		names = required
	case []any:
		for _, r := range required {
			if s, ok := r.(string); ok {
				names = append(names, s)
			}
		}
	default:
		return nil
	}

	var repaired []string
	for _, name := range names {
		if _, declared := props[name]; declared {
			repaired = append(repaired, name)
		}
	}
	return repaired
}

// Merge combines local tool definitions with remote provider catalogs into
// one list. Local tools come first and win name collisions; remote tools are
// deduplicated first-seen across providers in the order the catalogs were
// given. Remote descriptions are tagged with their provider and truncated,
// and remote schemas are sanitized.
func Merge(local []model.ToolDefinition, remote []mcp.ProviderCatalog) []model.ToolDefinition {
	merged := make([]model.ToolDefinition, 0, len(local))
	seen := make(map[string]bool, len(local))

	for _, def := range local {
		if seen[def.Function.Name] {
			continue
		}
		seen[def.Function.Name] = true
		merged = append(merged, def)
	}

	for _, providerCatalog := range remote {
		for _, tool := range providerCatalog.Tools {
			if seen[tool.Name] {
				continue
			}
			seen[tool.Name] = true
			merged = append(merged, model.ToolDefinition{
				Type: "function",
				Function: model.FunctionDefinition{
					Name:        tool.Name,
					Description: tagDescription(providerCatalog.Provider, tool.Description),
					Parameters:  Sanitize(tool.InputSchema),
				},
			})
		}
	}

	return merged
}

// tagDescription prefixes a remote tool description with its provider and
// truncates the result to maxRemoteDescription characters.
func tagDescription(provider, description string) string {
	tagged := fmt.Sprintf("[%s] %s", provider, description)
	if len(tagged) <= maxRemoteDescription {
		return tagged
	}
	return tagged[:maxRemoteDescription-3] + "..."
}
