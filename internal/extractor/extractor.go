// Package extractor validates contributor classes and expands them into
// capability definitions.
package extractor

import (
	"fmt"

	"capstan/internal/capability"
	"capstan/pkg/logging"
)

// Reason classifies why a class was rejected.
type Reason string

const (
	ReasonNotFound        Reason = "not_found"
	ReasonIntrospection   Reason = "introspection"
	ReasonAbstract        Reason = "abstract"
	ReasonNotInstantiable Reason = "not_instantiable"
	ReasonNoMarker        Reason = "no_marker"
)

// ValidationError reports a contributor class that cannot be registered.
type ValidationError struct {
	Ref    string
	Reason Reason
	Err    error
}

func (e *ValidationError) Error() string {
	switch e.Reason {
	case ReasonNotFound:
		return fmt.Sprintf("class %q does not exist", e.Ref)
	case ReasonIntrospection:
		return fmt.Sprintf("class %q cannot be introspected: %v", e.Ref, e.Err)
	case ReasonAbstract:
		return fmt.Sprintf("class %q is abstract and cannot be registered", e.Ref)
	case ReasonNotInstantiable:
		return fmt.Sprintf("class %q is not instantiable", e.Ref)
	case ReasonNoMarker:
		return fmt.Sprintf("class %q has no public operation marked as %v", e.Ref, e.Err)
	default:
		return fmt.Sprintf("class %q is invalid: %v", e.Ref, e.Err)
	}
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Validate resolves ref and checks, in order, that the class can be
// introspected, is not abstract, is instantiable and declares at least one
// public operation carrying the marker of kind. It stops at the first
// failure and never panics.
func Validate(kind capability.Kind, ref string, resolver capability.Resolver) (*capability.Class, *capability.Spec, error) {
	class, ok := resolver.Resolve(ref)
	if !ok || class == nil {
		return nil, nil, &ValidationError{Ref: ref, Reason: ReasonNotFound}
	}

	spec, err := describe(class)
	if err != nil {
		return nil, nil, &ValidationError{Ref: ref, Reason: ReasonIntrospection, Err: err}
	}

	if class.Abstract {
		return nil, nil, &ValidationError{Ref: ref, Reason: ReasonAbstract}
	}

	if class.New == nil {
		return nil, nil, &ValidationError{Ref: ref, Reason: ReasonNotInstantiable}
	}

	if !hasMarkedOperation(kind, spec) {
		return nil, nil, &ValidationError{Ref: ref, Reason: ReasonNoMarker, Err: markerError(kind)}
	}

	return class, spec, nil
}

type markerError capability.Kind

func (m markerError) Error() string { return capability.Kind(m).Marker() }

func describe(class *capability.Class) (spec *capability.Spec, err error) {
	if class.Describe == nil {
		return nil, fmt.Errorf("no descriptor")
	}

	defer func() {
		if r := recover(); r != nil {
			spec = nil
			err = fmt.Errorf("descriptor panicked: %v", r)
		}
	}()

	spec, err = class.Describe()
	if err != nil {
		return nil, err
	}
	if spec == nil {
		return nil, fmt.Errorf("descriptor returned no declarations")
	}
	return spec, nil
}

func hasMarkedOperation(kind capability.Kind, spec *capability.Spec) bool {
	for _, op := range spec.Operations {
		if !op.Private && carriesMarker(kind, op) {
			return true
		}
	}
	return false
}

func carriesMarker(kind capability.Kind, op capability.Operation) bool {
	switch kind {
	case capability.KindTool:
		return op.Tool != nil
	case capability.KindPrompt:
		return op.Prompt != nil
	case capability.KindResource:
		return op.Resource != nil || op.Template != nil
	default:
		return false
	}
}

// IsAvailable runs the class-level availability check. Classes without a
// check are available. A panicking check counts as unavailable.
func IsAvailable(class *capability.Class) (available bool) {
	if class.Available == nil {
		return true
	}

	defer func() {
		if r := recover(); r != nil {
			logging.Warn("Extractor", "Availability check of %s panicked: %v", class.Ref, r)
			available = false
		}
	}()

	return class.Available()
}
