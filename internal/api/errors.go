package api

import (
	"errors"
	"fmt"
)

// NotFoundError represents a lookup that found nothing.
//
// The error carries the resource type and name so callers can report
// precisely what was missing.
type NotFoundError struct {
	// ResourceType categorizes what was not found
	// (e.g., "tool", "prompt", "document", "completion provider")
	ResourceType string

	// ResourceName is the identifier that was looked up
	ResourceName string

	// Message overrides the default message when set
	Message string
}

// Error implements the error interface for NotFoundError.
func (e *NotFoundError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s %s not found", e.ResourceType, e.ResourceName)
}

// IsNotFound checks if an error is or wraps a NotFoundError.
//
// Example:
//
//	def, err := lookup("missing_tool")
//	if api.IsNotFound(err) {
//	    return mcp.NewToolResultError(err.Error()), nil
//	}
func IsNotFound(err error) bool {
	var notFoundErr *NotFoundError
	return errors.As(err, &notFoundErr)
}

// NewNotFoundError creates a new NotFoundError with the specified resource type and name.
func NewNotFoundError(resourceType, resourceName string) *NotFoundError {
	return &NotFoundError{
		ResourceType: resourceType,
		ResourceName: resourceName,
	}
}

// NewNotFoundErrorWithMessage creates a new NotFoundError with a custom message.
func NewNotFoundErrorWithMessage(resourceType, resourceName, message string) *NotFoundError {
	return &NotFoundError{
		ResourceType: resourceType,
		ResourceName: resourceName,
		Message:      message,
	}
}

// Specific NotFoundError constructors for each resource type.
var (
	// NewToolNotFoundError creates a tool not found error.
	NewToolNotFoundError = func(name string) *NotFoundError {
		return NewNotFoundError("tool", name)
	}

	// NewPromptNotFoundError creates a prompt not found error.
	NewPromptNotFoundError = func(name string) *NotFoundError {
		return NewNotFoundError("prompt", name)
	}

	// NewResourceNotFoundError creates a resource not found error.
	NewResourceNotFoundError = func(uri string) *NotFoundError {
		return NewNotFoundError("resource", uri)
	}

	// NewCompletionProviderNotFoundError creates a completion provider not found error.
	NewCompletionProviderNotFoundError = func(ref string) *NotFoundError {
		return NewNotFoundError("completion provider", ref)
	}

	// NewDocumentNotFoundError creates a document not found error.
	NewDocumentNotFoundError = func(path string) *NotFoundError {
		return NewNotFoundError("document", path)
	}
)

// Common errors for API operations.
var (
	// ErrCatalogNotRegistered indicates the catalog handler is not registered
	ErrCatalogNotRegistered = errors.New("catalog handler not registered")

	// ErrWorkspaceNotRegistered indicates the workspace handler is not registered
	ErrWorkspaceNotRegistered = errors.New("workspace handler not registered")

	// ErrCapabilityBlocked indicates a dangerous capability was invoked
	// without the server running in yolo mode
	ErrCapabilityBlocked = errors.New("capability is marked dangerous and the server is not running in yolo mode")

	// ErrConditionNotMet indicates a capability whose availability condition
	// currently evaluates to false
	ErrConditionNotMet = errors.New("capability is not available in the current context")
)

// HandleError creates a CallToolResult describing err.
func HandleError(err error) *CallToolResult {
	return &CallToolResult{
		Content: []interface{}{err.Error()},
		IsError: true,
	}
}

// HandleErrorWithPrefix creates a CallToolResult describing err, prefixed
// with the given context.
func HandleErrorWithPrefix(err error, prefix string) *CallToolResult {
	return &CallToolResult{
		Content: []interface{}{fmt.Sprintf("%s: %v", prefix, err)},
		IsError: true,
	}
}
