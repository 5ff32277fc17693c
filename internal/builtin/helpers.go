package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"capstan/internal/api"

	"github.com/mark3labs/mcp-go/mcp"
)

// Tones returns the writing tones offered by the prompt contributors.
func Tones() []string {
	return []string{"formal", "friendly", "concise", "technical", "playful"}
}

func documentPaths(ctx context.Context) ([]string, error) {
	ws := api.GetWorkspace()
	if ws == nil {
		return nil, api.ErrWorkspaceNotRegistered
	}
	docs, err := ws.ListDocuments(ctx, "")
	if err != nil {
		return nil, err
	}
	paths := make([]string, len(docs))
	for i, d := range docs {
		paths[i] = d.Path
	}
	return paths, nil
}

func workspace() (api.WorkspaceHandler, error) {
	ws := api.GetWorkspace()
	if ws == nil {
		return nil, api.ErrWorkspaceNotRegistered
	}
	return ws, nil
}

func catalog() (api.CatalogHandler, error) {
	c := api.GetCatalog()
	if c == nil {
		return nil, api.ErrCatalogNotRegistered
	}
	return c, nil
}

func stringArg(args map[string]any, name string) string {
	switch v := args[name].(type) {
	case string:
		return v
	case nil:
		return ""
	case []string:
		return strings.Join(v, "/")
	default:
		return fmt.Sprint(v)
	}
}

func requiredString(args map[string]any, name string) (string, error) {
	v := stringArg(args, name)
	if v == "" {
		return "", fmt.Errorf("argument %q is required", name)
	}
	return v, nil
}

// intArg accepts JSON numbers and numeric strings.
func intArg(args map[string]any, name string, fallback int) int {
	switch v := args[name].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

func jsonContents(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode resource %s: %w", uri, err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{URI: uri, MIMEType: "application/json", Text: string(data)},
	}, nil
}
