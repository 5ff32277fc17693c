package builtin

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"capstan/internal/api"
	"capstan/internal/capability"

	"github.com/mark3labs/mcp-go/mcp"
)

// CatalogTools lets clients inspect and reload the capability catalog.
type CatalogTools struct {
	catalog api.CatalogHandler
}

func catalogToolsClass() *capability.Class {
	return &capability.Class{
		Ref: CatalogToolsRef,
		New: func() (any, error) {
			c, err := catalog()
			if err != nil {
				return nil, err
			}
			return &CatalogTools{catalog: c}, nil
		},
		Describe: func() (*capability.Spec, error) {
			return &capability.Spec{Operations: []capability.Operation{
				{
					Name:    "Summary",
					Tool:    &capability.ToolMarker{Name: "catalog_summary", Description: "Summarize registered tools, prompts and resources by source and category"},
					Meta:    &capability.MetaMarker{Category: "system"},
					Handler: capability.Method((*CatalogTools).Summary),
				},
				{
					Name:    "Errors",
					Tool:    &capability.ToolMarker{Name: "registration_errors", Description: "List errors recorded while registering capabilities"},
					Meta:    &capability.MetaMarker{Category: "system"},
					Handler: capability.Method((*CatalogTools).Errors),
				},
				{
					Name:    "Complete",
					Tool:    &capability.ToolMarker{Name: "complete_argument", Description: "Suggest values for an argument of a tool or prompt"},
					Meta:    &capability.MetaMarker{Category: "system"},
					Handler: capability.Method((*CatalogTools).Complete),
					Params: []capability.Param{
						{Name: "kind", Type: "string", Description: "tool or prompt", Required: true},
						{Name: "name", Type: "string", Description: "Tool or prompt name", Required: true},
						{Name: "argument", Type: "string", Description: "Argument to complete", Required: true},
						{Name: "prefix", Type: "string", Description: "Typed prefix, matched case-insensitively"},
					},
				},
				{
					Name:    "Reset",
					Tool:    &capability.ToolMarker{Name: "reset_catalog", Description: "Discard cached registrations and rebuild the catalog", Dangerous: true},
					Meta:    &capability.MetaMarker{Category: "system"},
					Handler: capability.Method((*CatalogTools).Reset),
				},
			}}, nil
		},
	}
}

// Summary handles the catalog_summary tool.
func (t *CatalogTools) Summary(_ context.Context, _ map[string]any) (any, error) {
	return jsonResult(t.catalog.GetSummary())
}

// Errors handles the registration_errors tool. Discovery errors are listed
// next to the per-kind registration errors.
func (t *CatalogTools) Errors(_ context.Context, _ map[string]any) (any, error) {
	errs := t.catalog.GetErrors()
	if len(errs) == 0 {
		return mcp.NewToolResultText("No registration errors"), nil
	}
	return jsonResult(errs)
}

// Complete handles the complete_argument tool.
func (t *CatalogTools) Complete(ctx context.Context, args map[string]any) (any, error) {
	var missing []string
	for _, name := range []string{"kind", "name", "argument"} {
		if stringArg(args, name) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return mcp.NewToolResultError(fmt.Sprintf("Missing required arguments: %s", strings.Join(missing, ", "))), nil
	}

	values, err := t.catalog.Complete(ctx, stringArg(args, "kind"), stringArg(args, "name"), stringArg(args, "argument"), stringArg(args, "prefix"))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to complete argument: %v", err)), nil
	}
	return jsonResult(values)
}

// Reset handles the reset_catalog tool.
func (t *CatalogTools) Reset(_ context.Context, _ map[string]any) (any, error) {
	t.catalog.Reset("reset_catalog tool")
	return mcp.NewToolResultText("Catalog reset; registrations will be rebuilt on next use"), nil
}

// HistoryTools reads the git history of the workspace. It is only
// registered when git is installed and the workspace is a repository.
type HistoryTools struct {
	ws api.WorkspaceHandler
}

const defaultLogLimit = 20

func historyToolsClass() *capability.Class {
	return &capability.Class{
		Ref: HistoryToolsRef,
		New: func() (any, error) {
			ws, err := workspace()
			if err != nil {
				return nil, err
			}
			return &HistoryTools{ws: ws}, nil
		},
		Available: func() bool {
			ws := api.GetWorkspace()
			return ws != nil && ws.IsGitRepository()
		},
		Describe: func() (*capability.Spec, error) {
			return &capability.Spec{Operations: []capability.Operation{
				{
					Name:    "Log",
					Tool:    &capability.ToolMarker{Name: "git_log", Description: "Show recent commits of the workspace repository"},
					Meta:    &capability.MetaMarker{Category: "git"},
					Handler: capability.Method((*HistoryTools).Log),
					Params: []capability.Param{
						{Name: "limit", Type: "number", Description: "Maximum number of commits (default 20)"},
						{Name: "path", Type: "string", Description: "Restrict history to this path", Completion: DocumentPathsRef},
					},
				},
			}}, nil
		},
	}
}

// Log handles the git_log tool.
func (t *HistoryTools) Log(ctx context.Context, args map[string]any) (any, error) {
	limit := intArg(args, "limit", defaultLogLimit)
	if limit <= 0 {
		limit = defaultLogLimit
	}

	cmdArgs := []string{"-C", t.ws.Root(), "log", "--oneline", "-n", strconv.Itoa(limit)}
	if path := stringArg(args, "path"); path != "" {
		cmdArgs = append(cmdArgs, "--", path)
	}

	out, err := exec.CommandContext(ctx, "git", cmdArgs...).CombinedOutput()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("git log failed: %v: %s", err, strings.TrimSpace(string(out)))), nil
	}
	if len(strings.TrimSpace(string(out))) == 0 {
		return mcp.NewToolResultText("No commits"), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}
