package server

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"capstan/internal/api"
	"capstan/internal/capability"

	"github.com/mark3labs/mcp-go/mcp"
)

// toolFor builds the MCP tool advertised for a definition.
func toolFor(def *capability.Definition) mcp.Tool {
	tool := mcp.NewTool(def.Name(),
		mcp.WithDescription(def.Description()),
		mcp.WithDestructiveHintAnnotation(def.Dangerous()),
	)
	tool.InputSchema = inputSchema(def.Params())
	return tool
}

// inputSchema converts parameter declarations to a JSON schema object.
func inputSchema(params []capability.Param) mcp.ToolInputSchema {
	properties := make(map[string]any)
	required := []string{}

	for _, param := range params {
		paramType := param.Type
		if paramType == "" {
			paramType = "string"
		}
		prop := map[string]any{"type": paramType}
		if param.Description != "" {
			prop["description"] = param.Description
		}
		properties[param.Name] = prop

		if param.Required {
			required = append(required, param.Name)
		}
	}

	return mcp.ToolInputSchema{
		Type:       "object",
		Properties: properties,
		Required:   required,
	}
}

func promptFor(def *capability.Definition) mcp.Prompt {
	opts := []mcp.PromptOption{mcp.WithPromptDescription(def.Description())}
	for _, param := range def.Params() {
		argOpts := []mcp.ArgumentOption{mcp.ArgumentDescription(param.Description)}
		if param.Required {
			argOpts = append(argOpts, mcp.RequiredArgument())
		}
		opts = append(opts, mcp.WithArgument(param.Name, argOpts...))
	}
	return mcp.NewPrompt(def.Name(), opts...)
}

func resourceFor(def *capability.Definition) mcp.Resource {
	opts := []mcp.ResourceOption{mcp.WithResourceDescription(def.Description())}
	if def.MIMEType() != "" {
		opts = append(opts, mcp.WithMIMEType(def.MIMEType()))
	}
	return mcp.NewResource(def.URI(), def.Name(), opts...)
}

func templateFor(def *capability.Definition) mcp.ResourceTemplate {
	opts := []mcp.ResourceTemplateOption{mcp.WithTemplateDescription(def.Description())}
	if def.MIMEType() != "" {
		opts = append(opts, mcp.WithTemplateMIMEType(def.MIMEType()))
	}
	return mcp.NewResourceTemplate(def.URI(), def.Name(), opts...)
}

// toToolResult converts whatever a tool handler returned to an MCP result.
func toToolResult(v any) (*mcp.CallToolResult, error) {
	switch r := v.(type) {
	case *mcp.CallToolResult:
		if r == nil {
			return mcp.NewToolResultText(""), nil
		}
		return r, nil
	case *api.CallToolResult:
		return convertAPIResult(r), nil
	case string:
		return mcp.NewToolResultText(r), nil
	case []byte:
		return mcp.NewToolResultText(string(r)), nil
	case nil:
		return mcp.NewToolResultText(""), nil
	default:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to encode tool result: %w", err)
		}
		return mcp.NewToolResultText(string(data)), nil
	}
}

// convertAPIResult converts an internal tool result to MCP format. Non-string
// content is marshaled to JSON.
func convertAPIResult(result *api.CallToolResult) *mcp.CallToolResult {
	if result == nil {
		return mcp.NewToolResultText("")
	}
	content := make([]mcp.Content, len(result.Content))
	for i, c := range result.Content {
		if text, ok := c.(string); ok {
			content[i] = mcp.NewTextContent(text)
			continue
		}
		data, _ := json.Marshal(c)
		content[i] = mcp.NewTextContent(string(data))
	}
	return &mcp.CallToolResult{Content: content, IsError: result.IsError}
}

// toPromptResult converts a prompt handler result. Plain values become a
// single user message.
func toPromptResult(def *capability.Definition, v any) (*mcp.GetPromptResult, error) {
	switch r := v.(type) {
	case *mcp.GetPromptResult:
		if r != nil {
			return r, nil
		}
		return mcp.NewGetPromptResult(def.Description(), nil), nil
	case mcp.GetPromptResult:
		return &r, nil
	case []mcp.PromptMessage:
		return mcp.NewGetPromptResult(def.Description(), r), nil
	case string:
		return userPrompt(def, r), nil
	case []byte:
		return userPrompt(def, string(r)), nil
	default:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to encode prompt result: %w", err)
		}
		return userPrompt(def, string(data)), nil
	}
}

func userPrompt(def *capability.Definition, text string) *mcp.GetPromptResult {
	return mcp.NewGetPromptResult(def.Description(), []mcp.PromptMessage{
		mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(text)),
	})
}

// toResourceContents converts a resource handler result for the requested
// uri.
func toResourceContents(def *capability.Definition, uri string, v any) ([]mcp.ResourceContents, error) {
	mimeType := def.MIMEType()

	switch r := v.(type) {
	case []mcp.ResourceContents:
		return r, nil
	case mcp.ResourceContents:
		return []mcp.ResourceContents{r}, nil
	case string:
		return []mcp.ResourceContents{mcp.TextResourceContents{URI: uri, MIMEType: mimeType, Text: r}}, nil
	case []byte:
		if mimeType == "" {
			mimeType = "application/octet-stream"
		}
		return []mcp.ResourceContents{mcp.BlobResourceContents{
			URI:      uri,
			MIMEType: mimeType,
			Blob:     base64.StdEncoding.EncodeToString(r),
		}}, nil
	default:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to encode resource %s: %w", uri, err)
		}
		return []mcp.ResourceContents{mcp.TextResourceContents{URI: uri, MIMEType: "application/json", Text: string(data)}}, nil
	}
}
