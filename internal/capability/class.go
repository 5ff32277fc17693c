package capability

import (
	"context"
	"fmt"
)

// Handler is the opaque callable handle behind a capability. The owner is a
// freshly constructed instance of the contributor class; args are the call
// arguments (prompt arguments and resource template variables included).
type Handler func(ctx context.Context, owner any, args map[string]any) (any, error)

// ConditionFunc is a named availability check evaluated against an owner
// instance.
type ConditionFunc func(owner any) bool

// Class describes a contributor: a unit of code that declares one or more
// capabilities.
type Class struct {
	// Ref is the type reference contributors and extensions use to name the
	// class, for example "core/content.DocumentTools".
	Ref string

	// Abstract classes are shared bases and can never be registered.
	Abstract bool

	// New builds an owner instance. A nil New marks the class as not
	// instantiable.
	New func() (any, error)

	// Describe returns the structural declarations of the class.
	Describe func() (*Spec, error)

	// Available is the class-level availability check. Classes that leave it
	// nil do not participate in conditional availability.
	Available func() bool
}

// Spec is the declaration table of a class.
type Spec struct {
	Operations []Operation
	Conditions map[string]ConditionFunc
}

// Operation is one method of a contributor class together with its markers.
type Operation struct {
	Name    string
	Private bool
	Handler Handler

	Tool     *ToolMarker
	Prompt   *PromptMarker
	Resource *ResourceMarker
	Template *TemplateMarker
	Meta     *MetaMarker

	Params []Param
}

// ToolMarker declares an operation as a tool.
type ToolMarker struct {
	Name        string
	Description string
	Dangerous   bool
}

// PromptMarker declares an operation as a prompt.
type PromptMarker struct {
	Name        string
	Description string
}

// ResourceMarker declares an operation as a static resource.
type ResourceMarker struct {
	URI         string
	Name        string
	Description string
	MIMEType    string
}

// TemplateMarker declares an operation as a parameterized resource.
type TemplateMarker struct {
	URITemplate string
	Name        string
	Description string
	MIMEType    string
}

// MetaMarker carries the secondary metadata of an operation.
type MetaMarker struct {
	Category  string
	Condition string
}

// Param describes one operation parameter.
type Param struct {
	Name        string
	Type        string // "string" (default), "number", "boolean", "object", "array"
	Description string
	Required    bool
	// Completion is the reference of the completion provider suggesting
	// values for this parameter.
	Completion string
}

// Method adapts a typed method expression to a Handler.
//
//	Handler: capability.Method((*DocumentTools).list)
func Method[T any](fn func(owner *T, ctx context.Context, args map[string]any) (any, error)) Handler {
	return func(ctx context.Context, owner any, args map[string]any) (any, error) {
		typed, ok := owner.(*T)
		if !ok {
			return nil, fmt.Errorf("handler expects owner of type %T, got %T", (*T)(nil), owner)
		}
		return fn(typed, ctx, args)
	}
}

// Check adapts a typed predicate to a ConditionFunc. An owner of the wrong
// type fails the check.
func Check[T any](fn func(owner *T) bool) ConditionFunc {
	return func(owner any) bool {
		typed, ok := owner.(*T)
		if !ok {
			return false
		}
		return fn(typed)
	}
}
