package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"capstan/internal/capability"
	"capstan/internal/extractor"
	"capstan/pkg/logging"
)

// CoreSource is the namespace of bundled contributors.
const CoreSource = "core"

// reservedSources can never be claimed by extensions.
var reservedSources = map[string]bool{
	CoreSource: true,
	"capstan":  true,
	"cap":      true,
}

// ReservedSources returns the source identifiers extensions may not use.
func ReservedSources() []string {
	sources := make([]string, 0, len(reservedSources))
	for s := range reservedSources {
		sources = append(sources, s)
	}
	sort.Strings(sources)
	return sources
}

// IsReservedSource reports whether source belongs to the bundled namespace.
// The comparison ignores case and surrounding whitespace.
func IsReservedSource(source string) bool {
	return reservedSources[strings.ToLower(strings.TrimSpace(source))]
}

// DiscoveryPath is a directory handed to the transport layer for bulk
// scanning.
type DiscoveryPath struct {
	Path           string   `json:"path" yaml:"path"`
	Subdirectories []string `json:"subdirectories" yaml:"subdirectories"`
}

// Collector is the registration surface handed to extension points.
type Collector interface {
	// Kind returns the capability kind of the running registration pass.
	Kind() capability.Kind

	// AddFromCaller registers the class referenced by ref under source.
	// Reserved sources are rejected with an error entry.
	AddFromCaller(ref, source string)

	// AddDiscoveryPath records a directory for bulk scanning. Only the tool
	// kind accepts discovery paths.
	AddDiscoveryPath(path string, subdirectories []string, source string)

	// ReportError records a failure the extension hit while deciding what to
	// contribute. It never aborts the pass.
	ReportError(source, message string)
}

// Event accumulates the results of one registration pass for one kind.
// It is owned by the pass that created it and is not safe for concurrent use.
type Event struct {
	kind     capability.Kind
	resolver capability.Resolver

	contributions map[string][]string
	sources       []string

	definitions map[string]*capability.Definition
	order       []string

	errors    []string
	discovery map[string][]DiscoveryPath

	// class-level availability results, evaluated at most once per class
	availability map[string]bool
}

var _ Collector = (*Event)(nil)

// NewEvent creates an empty registration event.
func NewEvent(kind capability.Kind, resolver capability.Resolver) *Event {
	return &Event{
		kind:          kind,
		resolver:      resolver,
		contributions: make(map[string][]string),
		definitions:   make(map[string]*capability.Definition),
		discovery:     make(map[string][]DiscoveryPath),
		availability:  make(map[string]bool),
	}
}

// Kind implements Collector.
func (e *Event) Kind() capability.Kind {
	return e.kind
}

// AddFromCaller implements Collector.
func (e *Event) AddFromCaller(ref, source string) {
	if strings.TrimSpace(source) == "" {
		e.recordError(source, fmt.Sprintf("cannot register %q: source must not be empty", ref))
		return
	}
	if IsReservedSource(source) {
		e.recordError(source, fmt.Sprintf("cannot register %q: source %q is reserved", ref, source))
		return
	}
	e.register(ref, source)
}

// addCoreBatch registers bundled contributors under the core source. It is
// only reachable from the registry that owns the pass.
func (e *Event) addCoreBatch(refs []string) {
	for _, ref := range refs {
		e.register(ref, CoreSource)
	}
}

// AddDiscoveryPath implements Collector.
func (e *Event) AddDiscoveryPath(path string, subdirectories []string, source string) {
	if e.kind != capability.KindTool {
		e.recordError(source, fmt.Sprintf("discovery paths are only supported for tools, not %s", e.kind.Plural()))
		return
	}
	if strings.TrimSpace(source) == "" {
		e.recordError(source, fmt.Sprintf("cannot add discovery path %q: source must not be empty", path))
		return
	}
	if IsReservedSource(source) {
		e.recordError(source, fmt.Sprintf("cannot add discovery path %q: source %q is reserved", path, source))
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			e.recordError(source, fmt.Sprintf("discovery path %q does not exist", path))
		} else {
			e.recordError(source, fmt.Sprintf("discovery path %q is not accessible: %v", path, err))
		}
		return
	}
	if !info.IsDir() {
		e.recordError(source, fmt.Sprintf("discovery path %q is not a directory", path))
		return
	}

	subdirs := make([]string, 0, len(subdirectories))
	for _, dir := range subdirectories {
		if strings.TrimSpace(dir) != "" {
			subdirs = append(subdirs, dir)
		}
	}
	if len(subdirs) == 0 {
		subdirs = []string{"."}
	}

	e.discovery[source] = append(e.discovery[source], DiscoveryPath{
		Path:           filepath.Clean(path),
		Subdirectories: subdirs,
	})
}

// ReportError implements Collector.
func (e *Event) ReportError(source, message string) {
	if strings.TrimSpace(source) == "" {
		source = "extension"
	}
	e.recordError(source, message)
}

func (e *Event) register(ref, source string) {
	class, spec, err := extractor.Validate(e.kind, ref, e.resolver)
	if err != nil {
		e.recordError(source, err.Error())
		return
	}

	available, seen := e.availability[class.Ref]
	if !seen {
		available = extractor.IsAvailable(class)
		e.availability[class.Ref] = available
	}
	if !available {
		logging.Debug("Registry", "Skipping %s %s from %s: class not available", e.kind, ref, source)
		return
	}

	if _, exists := e.contributions[source]; !exists {
		e.sources = append(e.sources, source)
	}
	e.contributions[source] = append(e.contributions[source], class.Ref)

	for _, def := range extractor.Extract(e.kind, class, spec, source) {
		e.put(def)
	}
}

// put stores def under its key. A colliding key is replaced in place.
func (e *Event) put(def *capability.Definition) {
	key := def.Key()
	if previous, exists := e.definitions[key]; exists {
		if previous.Source() != def.Source() {
			logging.Warn("Registry", "%s %q from %s replaces the definition registered by %s",
				e.kind, key, def.Source(), previous.Source())
		}
	} else {
		e.order = append(e.order, key)
	}
	e.definitions[key] = def
}

func (e *Event) recordError(source, message string) {
	entry := fmt.Sprintf("[%s] %s", source, message)
	logging.Warn("Registry", "%s registration error: %s", e.kind, entry)
	e.errors = append(e.errors, entry)
}

// Classes returns every accepted contributor class, grouped by source in the
// order sources first contributed.
func (e *Event) Classes() []string {
	var classes []string
	for _, source := range e.sources {
		classes = append(classes, e.contributions[source]...)
	}
	return classes
}

// Contributions returns a copy of the source to accepted classes mapping.
func (e *Event) Contributions() map[string][]string {
	return copyContributions(e.contributions)
}

// Definitions returns a copy of the key to definition mapping.
func (e *Event) Definitions() map[string]*capability.Definition {
	out := make(map[string]*capability.Definition, len(e.definitions))
	for k, v := range e.definitions {
		out[k] = v
	}
	return out
}

// DefinitionsBySource groups definitions by contributing source.
func (e *Event) DefinitionsBySource() map[string][]*capability.Definition {
	return groupBy(e.ordered(), (*capability.Definition).Source)
}

// DefinitionsByCategory groups definitions by category.
func (e *Event) DefinitionsByCategory() map[string][]*capability.Definition {
	return groupBy(e.ordered(), (*capability.Definition).Category)
}

// Errors returns the accumulated error entries in order.
func (e *Event) Errors() []string {
	return append([]string(nil), e.errors...)
}

// DiscoveryPaths returns the accepted discovery paths by source.
func (e *Event) DiscoveryPaths() map[string][]DiscoveryPath {
	return copyDiscovery(e.discovery)
}

func (e *Event) ordered() []*capability.Definition {
	defs := make([]*capability.Definition, 0, len(e.order))
	for _, key := range e.order {
		defs = append(defs, e.definitions[key])
	}
	return defs
}

// snapshot freezes the event into registry state.
func (e *Event) snapshot() *state {
	return &state{
		contributions: copyContributions(e.contributions),
		sources:       append([]string(nil), e.sources...),
		definitions:   e.Definitions(),
		order:         append([]string(nil), e.order...),
		errors:        e.Errors(),
		discovery:     copyDiscovery(e.discovery),
	}
}

func groupBy(defs []*capability.Definition, key func(*capability.Definition) string) map[string][]*capability.Definition {
	out := make(map[string][]*capability.Definition)
	for _, def := range defs {
		k := key(def)
		out[k] = append(out[k], def)
	}
	return out
}

func copyContributions(in map[string][]string) map[string][]string {
	out := make(map[string][]string, len(in))
	for source, classes := range in {
		out[source] = append([]string(nil), classes...)
	}
	return out
}

func copyDiscovery(in map[string][]DiscoveryPath) map[string][]DiscoveryPath {
	out := make(map[string][]DiscoveryPath, len(in))
	for source, paths := range in {
		copied := make([]DiscoveryPath, len(paths))
		for i, p := range paths {
			copied[i] = DiscoveryPath{Path: p.Path, Subdirectories: append([]string(nil), p.Subdirectories...)}
		}
		out[source] = copied
	}
	return out
}
