package builtin

import (
	"context"
	"fmt"

	"capstan/internal/api"
	"capstan/internal/capability"

	"github.com/mark3labs/mcp-go/mcp"
)

// Resource URIs.
const (
	CatalogSummaryURI   = "capstan://catalog/summary"
	WorkspaceAssetsURI  = "capstan://workspace/assets"
	DocumentTemplateURI = "capstan://documents/{path}"
)

// WorkspaceResources publishes the catalog summary, the asset inventory and
// every document as resources. Resource handlers receive the requested URI
// as the "uri" argument and template variables as further arguments.
type WorkspaceResources struct {
	ws      api.WorkspaceHandler
	catalog api.CatalogHandler
}

func workspaceResourcesClass() *capability.Class {
	return &capability.Class{
		Ref: WorkspaceResourcesRef,
		New: func() (any, error) {
			return &WorkspaceResources{ws: api.GetWorkspace(), catalog: api.GetCatalog()}, nil
		},
		Describe: func() (*capability.Spec, error) {
			return &capability.Spec{Operations: []capability.Operation{
				{
					Name: "CatalogSummary",
					Resource: &capability.ResourceMarker{
						URI:         CatalogSummaryURI,
						Name:        "catalog_summary",
						Description: "Registered capabilities by kind, source and category",
						MIMEType:    "application/json",
					},
					Meta:    &capability.MetaMarker{Category: "system"},
					Handler: capability.Method((*WorkspaceResources).CatalogSummary),
				},
				{
					Name: "Assets",
					Resource: &capability.ResourceMarker{
						URI:         WorkspaceAssetsURI,
						Name:        "workspace_assets",
						Description: "Inventory of workspace assets",
						MIMEType:    "application/json",
					},
					Meta:    &capability.MetaMarker{Category: "assets"},
					Handler: capability.Method((*WorkspaceResources).Assets),
				},
				{
					Name: "Document",
					Template: &capability.TemplateMarker{
						URITemplate: DocumentTemplateURI,
						Name:        "document",
						Description: "A workspace document by path",
						MIMEType:    "text/markdown",
					},
					Meta:    &capability.MetaMarker{Category: "content"},
					Handler: capability.Method((*WorkspaceResources).Document),
					Params: []capability.Param{
						{Name: "path", Required: true, Completion: DocumentPathsRef},
					},
				},
			}}, nil
		},
	}
}

// CatalogSummary reads the catalog_summary resource.
func (r *WorkspaceResources) CatalogSummary(_ context.Context, args map[string]any) (any, error) {
	if r.catalog == nil {
		return nil, api.ErrCatalogNotRegistered
	}
	return jsonContents(uriOr(args, CatalogSummaryURI), r.catalog.GetSummary())
}

// Assets reads the workspace_assets resource.
func (r *WorkspaceResources) Assets(ctx context.Context, args map[string]any) (any, error) {
	if r.ws == nil {
		return nil, api.ErrWorkspaceNotRegistered
	}
	assets, err := r.ws.ListAssets(ctx)
	if err != nil {
		return nil, err
	}
	return jsonContents(uriOr(args, WorkspaceAssetsURI), assets)
}

// Document reads one document through the document resource template.
func (r *WorkspaceResources) Document(ctx context.Context, args map[string]any) (any, error) {
	if r.ws == nil {
		return nil, api.ErrWorkspaceNotRegistered
	}
	path, err := requiredString(args, "path")
	if err != nil {
		return nil, err
	}
	content, err := r.ws.ReadDocument(ctx, path)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uriOr(args, fmt.Sprintf("capstan://documents/%s", path)),
			MIMEType: "text/markdown",
			Text:     content,
		},
	}, nil
}

func uriOr(args map[string]any, fallback string) string {
	if uri := stringArg(args, "uri"); uri != "" {
		return uri
	}
	return fallback
}
