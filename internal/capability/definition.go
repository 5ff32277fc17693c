package capability

import (
	"context"
	"fmt"
	"sort"
)

// Condition is an operation-level availability gate. The check is a closure
// bound to the owner class factory, so every evaluation runs against a
// fresh instance.
type Condition struct {
	method string
	check  func() bool
}

// NewCondition binds a named check. A nil check never passes.
func NewCondition(method string, check func() bool) *Condition {
	return &Condition{method: method, check: check}
}

// Method returns the name of the condition method on the owner class.
func (c *Condition) Method() string {
	if c == nil {
		return ""
	}
	return c.method
}

// Met evaluates the condition. A nil condition is always met.
func (c *Condition) Met() bool {
	if c == nil {
		return true
	}
	if c.check == nil {
		return false
	}
	return c.check()
}

// DefinitionFields carries the extracted metadata used to build a Definition.
type DefinitionFields struct {
	Name                string
	URI                 string
	Description         string
	OwnerClass          string
	OwnerMethod         string
	Source              string
	Category            string
	Dangerous           bool
	Template            bool
	MIMEType            string
	Condition           *Condition
	CompletionProviders map[string]string
	Params              []Param
	Handler             Handler
	NewOwner            func() (any, error)
}

// Definition is the immutable description of one capability.
type Definition struct {
	kind        Kind
	name        string
	uri         string
	description string
	ownerClass  string
	ownerMethod string
	source      string
	category    string
	dangerous   bool
	template    bool
	mimeType    string
	condition   *Condition
	completions map[string]string
	params      []Param
	handler     Handler
	newOwner    func() (any, error)
}

// NewDefinition builds a Definition, copying maps and slices so later changes
// to fields do not leak into it.
func NewDefinition(kind Kind, f DefinitionFields) *Definition {
	category := f.Category
	if category == "" {
		category = DefaultCategory
	}

	completions := make(map[string]string, len(f.CompletionProviders))
	for param, ref := range f.CompletionProviders {
		completions[param] = ref
	}

	params := make([]Param, len(f.Params))
	copy(params, f.Params)

	return &Definition{
		kind:        kind,
		name:        f.Name,
		uri:         f.URI,
		description: f.Description,
		ownerClass:  f.OwnerClass,
		ownerMethod: f.OwnerMethod,
		source:      f.Source,
		category:    category,
		dangerous:   kind == KindTool && f.Dangerous,
		template:    kind == KindResource && f.Template,
		mimeType:    f.MIMEType,
		condition:   f.Condition,
		completions: completions,
		params:      params,
		handler:     f.Handler,
		newOwner:    f.NewOwner,
	}
}

// Key returns the identity of the definition within its kind: the name for
// tools, prompts and resource templates, the URI for static resources.
func (d *Definition) Key() string {
	if d.kind == KindResource && !d.template {
		return d.uri
	}
	return d.name
}

func (d *Definition) Kind() Kind          { return d.kind }
func (d *Definition) Name() string        { return d.name }
func (d *Definition) Description() string { return d.description }
func (d *Definition) OwnerClass() string  { return d.ownerClass }
func (d *Definition) OwnerMethod() string { return d.ownerMethod }
func (d *Definition) Source() string      { return d.source }
func (d *Definition) Category() string    { return d.category }
func (d *Definition) Dangerous() bool     { return d.dangerous }
func (d *Definition) Template() bool      { return d.template }
func (d *Definition) MIMEType() string    { return d.mimeType }

// URI returns the resource URI, or the URI template for templates.
func (d *Definition) URI() string { return d.uri }

// Condition returns the operation-level condition, nil when there is none.
func (d *Definition) Condition() *Condition { return d.condition }

// HasCondition reports whether the definition is gated at query time.
func (d *Definition) HasCondition() bool { return d.condition != nil }

// IsConditionMet evaluates the operation-level condition. The result is
// never cached.
func (d *Definition) IsConditionMet() bool {
	return d.condition.Met()
}

// Params returns a copy of the declared parameters.
func (d *Definition) Params() []Param {
	params := make([]Param, len(d.params))
	copy(params, d.params)
	return params
}

// CompletionProviders returns a copy of the parameter to provider mapping.
func (d *Definition) CompletionProviders() map[string]string {
	out := make(map[string]string, len(d.completions))
	for param, ref := range d.completions {
		out[param] = ref
	}
	return out
}

// CompletionProvider returns the provider reference for a parameter.
func (d *Definition) CompletionProvider(param string) (string, bool) {
	ref, ok := d.completions[param]
	return ref, ok
}

// HasCompletions reports whether any parameter declares a completion provider.
func (d *Definition) HasCompletions() bool {
	return len(d.completions) > 0
}

// CompletionParams returns the parameters with completion providers, sorted.
func (d *Definition) CompletionParams() []string {
	params := make([]string, 0, len(d.completions))
	for param := range d.completions {
		params = append(params, param)
	}
	sort.Strings(params)
	return params
}

// Invoke constructs a fresh owner instance and calls the handler.
func (d *Definition) Invoke(ctx context.Context, args map[string]any) (any, error) {
	if d.handler == nil {
		return nil, fmt.Errorf("%s %s has no handler", d.kind, d.Key())
	}
	if d.newOwner == nil {
		return nil, fmt.Errorf("class %s is not instantiable", d.ownerClass)
	}
	owner, err := d.newOwner()
	if err != nil {
		return nil, fmt.Errorf("failed to construct %s: %w", d.ownerClass, err)
	}
	if args == nil {
		args = map[string]any{}
	}
	return d.handler(ctx, owner, args)
}
