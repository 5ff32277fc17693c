package api

import (
	"context"
	"time"
)

// CatalogUpdateEvent announces that the capability catalog was reset and
// the next query will run new registration passes.
type CatalogUpdateEvent struct {
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

// CatalogUpdateSubscriber receives catalog update events.
type CatalogUpdateSubscriber interface {
	OnCatalogUpdated(event CatalogUpdateEvent)
}

// CallToolResult represents the result of a capability invocation.
type CallToolResult struct {
	Content []interface{} `json:"content"`
	IsError bool          `json:"isError,omitempty"`
}

// CapabilitySummary aggregates the definitions of one capability kind.
type CapabilitySummary struct {
	Kind            string         `json:"kind"`
	Total           int            `json:"total"`
	BySource        map[string]int `json:"bySource"`
	ByCategory      map[string]int `json:"byCategory"`
	Dangerous       int            `json:"dangerous"`
	Templates       int            `json:"templates"`
	WithCompletions int            `json:"withCompletions"`
	Errors          int            `json:"errors"`
}

// CatalogSummary aggregates the tool, prompt and resource registries.
type CatalogSummary struct {
	Tools       CapabilitySummary `json:"tools"`
	Prompts     CapabilitySummary `json:"prompts"`
	Resources   CapabilitySummary `json:"resources"`

	// DiscoveryErrors counts the declarative tool files the server rejected.
	DiscoveryErrors int `json:"discoveryErrors"`
	TotalErrors     int `json:"totalErrors"`
}

// DiscoveryErrorsKey holds the declarative tool scan errors in
// CatalogHandler.GetErrors.
const DiscoveryErrorsKey = "discovery"

// CatalogHandler exposes the capability catalog to its own contributors.
type CatalogHandler interface {
	// GetSummary returns the aggregated catalog summary.
	GetSummary() CatalogSummary

	// GetErrors returns the registration errors keyed by capability kind,
	// plus the scan errors under DiscoveryErrorsKey.
	GetErrors() map[string][]string

	// Complete returns completion values for one argument of a registered
	// tool or prompt. kind is "tool" or "prompt".
	Complete(ctx context.Context, kind, name, argument, prefix string) ([]string, error)

	// Reset drops every cached registration pass and clears the
	// completion caches.
	Reset(reason string)
}

// Document is a text file inside the workspace.
type Document struct {
	Path     string    `json:"path"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

// Asset is a non-document file inside the workspace.
type Asset struct {
	Path     string `json:"path"`
	Size     int64  `json:"size"`
	MIMEType string `json:"mimeType"`
}

// Backup describes a workspace archive.
type Backup struct {
	ID        string    `json:"id"`
	Path      string    `json:"path"`
	Files     int       `json:"files"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"createdAt"`
}

// WorkspaceHandler exposes the workspace to capability contributors.
type WorkspaceHandler interface {
	Root() string
	ListDocuments(ctx context.Context, pattern string) ([]Document, error)
	ReadDocument(ctx context.Context, path string) (string, error)
	ListAssets(ctx context.Context) ([]Asset, error)
	CreateBackup(ctx context.Context) (*Backup, error)
	BackupsEnabled() bool
	IsGitRepository() bool
}
