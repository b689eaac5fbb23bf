package tool

import (
	"context"
	"fmt"
	"strings"

	"github.com/VRUSHIL1/shop-chatbot-v2/core"
	"github.com/VRUSHIL1/shop-chatbot-v2/model"
	"github.com/VRUSHIL1/shop-chatbot-v2/store"
	"github.com/VRUSHIL1/shop-chatbot-v2/vectorstore"
)

// pdfContextChunks caps how many retrieved chunks feed the extraction prompt.
const pdfContextChunks = 5

var pdfSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"query": map[string]any{
			"type":        "string",
			"description": "The user's natural language question to search in the uploaded PDF",
		},
	},
	"required": []string{"query"},
}

const pdfExtractionPrompt = `You are an assistant that extracts concise, direct answers from PDF context.

PDF Context:
%s

User Question:
%s

Instruction:
- Provide the answer as plain text.
- If no answer is clear, respond "I don't know."`

// NewPDFTool creates the document question-answering tool: retrieve similar
// chunks from the uploaded documents' vector indexes, then have extractor
// distill a direct answer from them.
func NewPDFTool(docs store.Store, vectors *vectorstore.Store, extractor model.Model) Tool {
	return NewFunctionTool(
		"pdf_tool",
		"Search for information in uploaded PDF documents. Use this ONLY when the user asks about document content, personal details, or information that might be in PDFs. Do NOT use for database queries like products, orders, or structured data.",
		pdfSchema,
		func(ctx context.Context, args map[string]any) (any, error) {
			query, _ := args["query"].(string)

			paths, err := docs.VectorPaths(ctx)
			if err != nil {
				return nil, fmt.Errorf("list vector paths: %w", err)
			}
			if len(paths) == 0 {
				return "No PDF documents available.", nil
			}

			results, err := vectors.Search(ctx, query, paths, pdfContextChunks)
			if err != nil {
				return nil, fmt.Errorf("vector search: %w", err)
			}
			if len(results) == 0 {
				return "No relevant information found in PDF.", nil
			}

			chunks := make([]string, len(results))
			for i, r := range results {
				chunks[i] = r.Text
			}
			contextText := strings.Join(chunks, "\n\n")

			resp, err := extractor.Generate(ctx, model.Request{
				Instructions: fmt.Sprintf(pdfExtractionPrompt, contextText, query),
				Contents: []core.Content{
					core.NewTextContent(core.RoleUser, query),
				},
			})
			if err != nil {
				return nil, fmt.Errorf("answer extraction: %w", err)
			}
			if len(resp.Candidates) == 0 {
				return "No relevant information found in PDF.", nil
			}
			return strings.TrimSpace(resp.Candidates[0].Content.Text()), nil
		},
	)
}
