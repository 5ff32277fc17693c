package template

import (
	"bytes"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// Engine renders Go templates with the sprig function library. Values may
// be plain strings or nested maps and slices of them, as decoded from YAML.
type Engine struct {
	funcs template.FuncMap

	// Pattern to match simple variable references like {{ .name }}
	variablePattern *regexp.Regexp
}

// New creates a new template engine
func New() *Engine {
	return &Engine{
		funcs:           sprig.TxtFuncMap(),
		variablePattern: regexp.MustCompile(`\{\{-?\s*\.([a-zA-Z_][a-zA-Z0-9_]*)`),
	}
}

// Render executes text against vars. Referencing a variable missing from
// vars is an error.
func (e *Engine) Render(text string, vars map[string]any) (string, error) {
	if !strings.Contains(text, "{{") {
		return text, nil
	}

	tmpl, err := template.New("response").Funcs(e.funcs).Option("missingkey=error").Parse(text)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("failed to render template: %w", err)
	}
	return buf.String(), nil
}

// Replace renders every string inside value
func (e *Engine) Replace(value any, vars map[string]any) (any, error) {
	switch v := value.(type) {
	case string:
		return e.Render(v, vars)
	case map[string]any:
		return e.replaceMap(v, vars)
	case []any:
		return e.replaceSlice(v, vars)
	default:
		// Non-templatable types are returned as-is
		return value, nil
	}
}

func (e *Engine) replaceMap(m map[string]any, vars map[string]any) (map[string]any, error) {
	result := make(map[string]any, len(m))

	for key, value := range m {
		replaced, err := e.Replace(value, vars)
		if err != nil {
			return nil, fmt.Errorf("error in key '%s': %w", key, err)
		}
		result[key] = replaced
	}

	return result, nil
}

func (e *Engine) replaceSlice(s []any, vars map[string]any) ([]any, error) {
	result := make([]any, len(s))

	for i, value := range s {
		replaced, err := e.Replace(value, vars)
		if err != nil {
			return nil, fmt.Errorf("error at index %d: %w", i, err)
		}
		result[i] = replaced
	}

	return result, nil
}

// ExtractVariables returns the sorted top-level variable names value
// refers to.
func (e *Engine) ExtractVariables(value any) []string {
	variables := make(map[string]bool)
	e.extractVariables(value, variables)

	result := make([]string, 0, len(variables))
	for name := range variables {
		result = append(result, name)
	}
	sort.Strings(result)
	return result
}

func (e *Engine) extractVariables(value any, variables map[string]bool) {
	switch v := value.(type) {
	case string:
		for _, match := range e.variablePattern.FindAllStringSubmatch(v, -1) {
			variables[match[1]] = true
		}
	case map[string]any:
		for _, val := range v {
			e.extractVariables(val, variables)
		}
	case []any:
		for _, val := range v {
			e.extractVariables(val, variables)
		}
	}
}

// Validate parses every string inside value without executing it.
func (e *Engine) Validate(value any) error {
	switch v := value.(type) {
	case string:
		if _, err := template.New("response").Funcs(e.funcs).Parse(v); err != nil {
			return err
		}
	case map[string]any:
		for key, val := range v {
			if err := e.Validate(val); err != nil {
				return fmt.Errorf("error in key '%s': %w", key, err)
			}
		}
	case []any:
		for i, val := range v {
			if err := e.Validate(val); err != nil {
				return fmt.Errorf("error at index %d: %w", i, err)
			}
		}
	}
	return nil
}

// ValidateContext ensures every variable value refers to is present in vars
func (e *Engine) ValidateContext(value any, vars map[string]any) error {
	var missing []string
	for _, name := range e.ExtractVariables(value) {
		if _, exists := vars[name]; !exists {
			missing = append(missing, name)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required variables: %s", strings.Join(missing, ", "))
	}

	return nil
}
