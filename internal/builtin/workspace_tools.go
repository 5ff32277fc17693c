package builtin

import (
	"context"
	"fmt"

	"capstan/internal/api"
	"capstan/internal/capability"

	"github.com/mark3labs/mcp-go/mcp"
)

// DocumentTools lists and reads workspace documents.
type DocumentTools struct {
	ws api.WorkspaceHandler
}

func documentToolsClass() *capability.Class {
	return &capability.Class{
		Ref: DocumentToolsRef,
		New: func() (any, error) {
			ws, err := workspace()
			if err != nil {
				return nil, err
			}
			return &DocumentTools{ws: ws}, nil
		},
		Describe: func() (*capability.Spec, error) {
			return &capability.Spec{Operations: []capability.Operation{
				{
					Name:    "ListDocuments",
					Tool:    &capability.ToolMarker{Name: "list_documents", Description: "List workspace documents, optionally filtered by a glob pattern such as guides/**"},
					Meta:    &capability.MetaMarker{Category: "content"},
					Handler: capability.Method((*DocumentTools).ListDocuments),
					Params: []capability.Param{
						{Name: "pattern", Type: "string", Description: "Glob pattern relative to the content directory"},
					},
				},
				{
					Name:    "ReadDocument",
					Tool:    &capability.ToolMarker{Name: "read_document", Description: "Read a workspace document"},
					Meta:    &capability.MetaMarker{Category: "content"},
					Handler: capability.Method((*DocumentTools).ReadDocument),
					Params: []capability.Param{
						{Name: "path", Type: "string", Description: "Document path relative to the content directory", Required: true, Completion: DocumentPathsRef},
					},
				},
			}}, nil
		},
	}
}

// ListDocuments handles the list_documents tool.
func (t *DocumentTools) ListDocuments(ctx context.Context, args map[string]any) (any, error) {
	docs, err := t.ws.ListDocuments(ctx, stringArg(args, "pattern"))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list documents: %v", err)), nil
	}
	return jsonResult(docs)
}

// ReadDocument handles the read_document tool.
func (t *DocumentTools) ReadDocument(ctx context.Context, args map[string]any) (any, error) {
	path, err := requiredString(args, "path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := t.ws.ReadDocument(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to read document: %v", err)), nil
	}
	return mcp.NewToolResultText(content), nil
}

// AssetTools inspects workspace assets.
type AssetTools struct {
	ws api.WorkspaceHandler
}

func assetToolsClass() *capability.Class {
	return &capability.Class{
		Ref: AssetToolsRef,
		New: func() (any, error) {
			ws, err := workspace()
			if err != nil {
				return nil, err
			}
			return &AssetTools{ws: ws}, nil
		},
		Describe: func() (*capability.Spec, error) {
			return &capability.Spec{Operations: []capability.Operation{
				{
					Name:    "ListAssets",
					Tool:    &capability.ToolMarker{Name: "list_assets", Description: "List workspace assets with their size and MIME type"},
					Meta:    &capability.MetaMarker{Category: "assets"},
					Handler: capability.Method((*AssetTools).ListAssets),
				},
			}}, nil
		},
	}
}

// ListAssets handles the list_assets tool.
func (t *AssetTools) ListAssets(ctx context.Context, _ map[string]any) (any, error) {
	assets, err := t.ws.ListAssets(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list assets: %v", err)), nil
	}
	return jsonResult(assets)
}

// BackupTools archives the workspace.
type BackupTools struct {
	ws api.WorkspaceHandler
}

func backupToolsClass() *capability.Class {
	return &capability.Class{
		Ref: BackupToolsRef,
		New: func() (any, error) {
			ws, err := workspace()
			if err != nil {
				return nil, err
			}
			return &BackupTools{ws: ws}, nil
		},
		Describe: func() (*capability.Spec, error) {
			return &capability.Spec{
				Operations: []capability.Operation{
					{
						Name:    "CreateBackup",
						Tool:    &capability.ToolMarker{Name: "create_backup", Description: "Archive the whole workspace into the backup directory", Dangerous: true},
						Meta:    &capability.MetaMarker{Category: "maintenance", Condition: "backupsEnabled"},
						Handler: capability.Method((*BackupTools).CreateBackup),
					},
				},
				Conditions: map[string]capability.ConditionFunc{
					"backupsEnabled": capability.Check((*BackupTools).backupsEnabled),
				},
			}, nil
		},
	}
}

// CreateBackup handles the create_backup tool.
func (t *BackupTools) CreateBackup(ctx context.Context, _ map[string]any) (any, error) {
	backup, err := t.ws.CreateBackup(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to create backup: %v", err)), nil
	}
	return jsonResult(backup)
}

func (t *BackupTools) backupsEnabled() bool {
	return t.ws.BackupsEnabled()
}
