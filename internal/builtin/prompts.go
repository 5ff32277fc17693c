package builtin

import (
	"context"
	"fmt"
	"strings"

	"capstan/internal/api"
	"capstan/internal/capability"

	"github.com/mark3labs/mcp-go/mcp"
)

// DocumentPrompts offers writing prompts over workspace documents.
type DocumentPrompts struct {
	ws api.WorkspaceHandler
}

func documentPromptsClass() *capability.Class {
	return &capability.Class{
		Ref: DocumentPromptsRef,
		New: func() (any, error) {
			ws, err := workspace()
			if err != nil {
				return nil, err
			}
			return &DocumentPrompts{ws: ws}, nil
		},
		Describe: func() (*capability.Spec, error) {
			return &capability.Spec{Operations: []capability.Operation{
				{
					Name:    "Summarize",
					Prompt:  &capability.PromptMarker{Name: "summarize_document", Description: "Summarize a workspace document"},
					Meta:    &capability.MetaMarker{Category: "content"},
					Handler: capability.Method((*DocumentPrompts).Summarize),
					Params: []capability.Param{
						{Name: "path", Description: "Document to summarize", Required: true, Completion: DocumentPathsRef},
						{Name: "tone", Description: "Tone of the summary", Completion: TonesRef},
					},
				},
				{
					Name:    "Draft",
					Prompt:  &capability.PromptMarker{Name: "draft_document", Description: "Draft a new document on a topic"},
					Meta:    &capability.MetaMarker{Category: "content"},
					Handler: capability.Method((*DocumentPrompts).Draft),
					Params: []capability.Param{
						{Name: "topic", Description: "What the document is about", Required: true},
						{Name: "tone", Description: "Tone of the draft", Completion: TonesRef},
					},
				},
			}}, nil
		},
	}
}

// Summarize handles the summarize_document prompt.
func (p *DocumentPrompts) Summarize(ctx context.Context, args map[string]any) (any, error) {
	path, err := requiredString(args, "path")
	if err != nil {
		return nil, err
	}
	content, err := p.ws.ReadDocument(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to load document for prompt: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Summarize the document %q in a %s tone.\n\n", path, toneOf(args))
	b.WriteString(content)

	return mcp.NewGetPromptResult(
		fmt.Sprintf("Summary of %s", path),
		[]mcp.PromptMessage{mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(b.String()))},
	), nil
}

// Draft handles the draft_document prompt.
func (p *DocumentPrompts) Draft(_ context.Context, args map[string]any) (any, error) {
	topic, err := requiredString(args, "topic")
	if err != nil {
		return nil, err
	}

	text := fmt.Sprintf("Write a new document about %s in a %s tone. Use Markdown headings.", topic, toneOf(args))
	return mcp.NewGetPromptResult(
		fmt.Sprintf("Draft about %s", topic),
		[]mcp.PromptMessage{mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(text))},
	), nil
}

func toneOf(args map[string]any) string {
	if tone := stringArg(args, "tone"); tone != "" {
		return tone
	}
	return "neutral"
}
