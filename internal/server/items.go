package server

import (
	"fmt"
	"strings"
	"sync"

	"capstan/internal/capability"
	"capstan/pkg/logging"
)

// itemType represents the type of MCP item
type itemType string

const (
	itemTypeTool     itemType = "tool"
	itemTypePrompt   itemType = "prompt"
	itemTypeResource itemType = "resource"
	itemTypeTemplate itemType = "resource template"
)

// activeItemManager tracks which items are bound on the MCP server and the
// fingerprint of the definition each was bound from.
type activeItemManager struct {
	mu       sync.RWMutex
	items    map[string]string
	itemType itemType
}

func newActiveItemManager(iType itemType) *activeItemManager {
	return &activeItemManager{
		items:    make(map[string]string),
		itemType: iType,
	}
}

// isActive checks if an item is active
func (m *activeItemManager) isActive(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.items[name]
	return ok
}

// isCurrent reports whether name is bound from a definition with the given
// fingerprint.
func (m *activeItemManager) isCurrent(name, fingerprint string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	current, ok := m.items[name]
	return ok && current == fingerprint
}

func (m *activeItemManager) setActive(name, fingerprint string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[name] = fingerprint
}

// getInactiveItems returns items that are no longer in the new set
func (m *activeItemManager) getInactiveItems(newItems map[string]struct{}) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var inactive []string
	for name := range m.items {
		if _, exists := newItems[name]; !exists {
			inactive = append(inactive, name)
		}
	}
	return inactive
}

func (m *activeItemManager) removeItems(items []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, item := range items {
		delete(m.items, item)
	}
}

func (m *activeItemManager) names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.items))
	for name := range m.items {
		out = append(out, name)
	}
	return out
}

// removeObsoleteItems removes items that no longer exist
func removeObsoleteItems(
	manager *activeItemManager,
	newItems map[string]struct{},
	removeFunc func(items []string),
) {
	itemsToRemove := manager.getInactiveItems(newItems)

	if len(itemsToRemove) > 0 {
		logging.Debug("Server", "Removing %d %ss: %v", len(itemsToRemove), manager.itemType, itemsToRemove)
		removeFunc(itemsToRemove)
		manager.removeItems(itemsToRemove)
	}
}

// fingerprint covers the contributor behind a definition and everything the
// MCP listing shows for it. A key whose fingerprint changed across a reset
// is rebound.
func fingerprint(def *capability.Definition) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s|%s|%s|%q|%s|%s|%t|%t",
		def.Source(), def.OwnerClass(), def.OwnerMethod(), def.Description(),
		def.URI(), def.MIMEType(), def.Dangerous(), def.Template())
	for _, p := range def.Params() {
		fmt.Fprintf(&b, "|%s:%s:%t:%s:%q", p.Name, p.Type, p.Required, p.Completion, p.Description)
	}
	return b.String()
}
