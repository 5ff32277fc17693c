package capability

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Resolver looks up contributor classes by reference.
type Resolver interface {
	Resolve(ref string) (*Class, bool)
}

// Types is the catalog of contributor classes known to the host process.
// It is safe for concurrent use.
type Types struct {
	mu      sync.RWMutex
	classes map[string]*Class
}

// NewTypes creates an empty class catalog.
func NewTypes() *Types {
	return &Types{classes: make(map[string]*Class)}
}

// Register adds classes to the catalog. Registration stops at the first class
// with an empty or already registered reference.
func (t *Types) Register(classes ...*Class) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, class := range classes {
		if class == nil {
			return fmt.Errorf("cannot register nil class")
		}
		ref := strings.TrimSpace(class.Ref)
		if ref == "" {
			return fmt.Errorf("class reference must not be empty")
		}
		if _, exists := t.classes[ref]; exists {
			return fmt.Errorf("class %q already registered", ref)
		}
		t.classes[ref] = class
	}
	return nil
}

// MustRegister is like Register but panics on error. It is meant for
// package-level wiring of compiled-in contributors.
func (t *Types) MustRegister(classes ...*Class) {
	if err := t.Register(classes...); err != nil {
		panic(err)
	}
}

// Unregister removes a class. Unknown references are ignored.
func (t *Types) Unregister(ref string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.classes, ref)
}

// Resolve implements Resolver.
func (t *Types) Resolve(ref string) (*Class, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	class, ok := t.classes[ref]
	return class, ok
}

// Refs returns all registered references in sorted order.
func (t *Types) Refs() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	refs := make([]string, 0, len(t.classes))
	for ref := range t.classes {
		refs = append(refs, ref)
	}
	sort.Strings(refs)
	return refs
}
