package extractor

import (
	"capstan/internal/capability"
	"capstan/pkg/logging"
)

// Extract expands a validated class into the definitions of kind it
// declares, contributed under source. Private operations are ignored.
func Extract(kind capability.Kind, class *capability.Class, spec *capability.Spec, source string) []*capability.Definition {
	var defs []*capability.Definition

	for _, op := range spec.Operations {
		if op.Private {
			continue
		}

		base := baseFields(class, spec, op, source)

		switch kind {
		case capability.KindTool:
			if op.Tool == nil {
				continue
			}
			f := base
			f.Name = nameOr(op.Tool.Name, op.Name)
			f.Description = op.Tool.Description
			f.Dangerous = op.Tool.Dangerous
			defs = append(defs, capability.NewDefinition(kind, f))

		case capability.KindPrompt:
			if op.Prompt == nil {
				continue
			}
			f := base
			f.Name = nameOr(op.Prompt.Name, op.Name)
			f.Description = op.Prompt.Description
			defs = append(defs, capability.NewDefinition(kind, f))

		case capability.KindResource:
			if op.Resource != nil {
				if op.Resource.URI == "" {
					logging.Warn("Extractor", "Skipping resource %s.%s: no URI declared", class.Ref, op.Name)
				} else {
					f := base
					f.Name = nameOr(op.Resource.Name, op.Name)
					f.URI = op.Resource.URI
					f.Description = op.Resource.Description
					f.MIMEType = op.Resource.MIMEType
					defs = append(defs, capability.NewDefinition(kind, f))
				}
			}
			if op.Template != nil {
				if op.Template.URITemplate == "" {
					logging.Warn("Extractor", "Skipping resource template %s.%s: no URI template declared", class.Ref, op.Name)
				} else {
					f := base
					f.Name = nameOr(op.Template.Name, op.Name)
					f.URI = op.Template.URITemplate
					f.Description = op.Template.Description
					f.MIMEType = op.Template.MIMEType
					f.Template = true
					defs = append(defs, capability.NewDefinition(kind, f))
				}
			}
		}
	}

	return defs
}

func baseFields(class *capability.Class, spec *capability.Spec, op capability.Operation, source string) capability.DefinitionFields {
	f := capability.DefinitionFields{
		OwnerClass:  class.Ref,
		OwnerMethod: op.Name,
		Source:      source,
		Category:    capability.DefaultCategory,
		Params:      op.Params,
		Handler:     op.Handler,
		NewOwner:    class.New,
	}

	if op.Meta != nil {
		if op.Meta.Category != "" {
			f.Category = op.Meta.Category
		}
		if op.Meta.Condition != "" {
			f.Condition = bindCondition(class, spec, op.Meta.Condition)
		}
	}

	for _, param := range op.Params {
		if param.Completion == "" {
			continue
		}
		if f.CompletionProviders == nil {
			f.CompletionProviders = make(map[string]string)
		}
		f.CompletionProviders[param.Name] = param.Completion
	}

	return f
}

// bindCondition captures the named condition of the class as a closure that
// builds a fresh owner on every evaluation. Unknown methods yield a
// condition that is never met.
func bindCondition(class *capability.Class, spec *capability.Spec, method string) *capability.Condition {
	check, ok := spec.Conditions[method]
	if !ok || check == nil {
		logging.Debug("Extractor", "Condition %s not declared on %s, capability will stay unavailable", method, class.Ref)
		return capability.NewCondition(method, nil)
	}

	newOwner := class.New
	ref := class.Ref
	return capability.NewCondition(method, func() (met bool) {
		if newOwner == nil {
			return false
		}
		owner, err := newOwner()
		if err != nil {
			logging.Debug("Extractor", "Cannot construct %s to evaluate %s: %v", ref, method, err)
			return false
		}

		defer func() {
			if r := recover(); r != nil {
				logging.Warn("Extractor", "Condition %s on %s panicked: %v", method, ref, r)
				met = false
			}
		}()
		return check(owner)
	})
}

func nameOr(override, fallback string) string {
	if override != "" {
		return override
	}
	return fallback
}
