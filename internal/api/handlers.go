package api

import (
	"fmt"
	"sync"

	"capstan/pkg/logging"
)

// Handler registry variables store the registered implementations.
// These variables are protected by handlerMutex for thread-safe access.
var (
	catalogHandler   CatalogHandler
	workspaceHandler WorkspaceHandler

	// catalogUpdateSubscribers stores the components subscribed to catalog
	// update events. Access is protected by catalogUpdateMutex.
	catalogUpdateSubscribers []CatalogUpdateSubscriber
	catalogUpdateMutex       sync.Mutex

	// handlerMutex protects all handler registry operations.
	handlerMutex sync.RWMutex
)

// RegisterCatalog registers the catalog handler implementation.
//
// Only one catalog handler can be registered at a time; subsequent
// registrations replace the previous handler.
//
// Example:
//
//	api.RegisterCatalog(registry.NewAPIAdapter(catalog, completions))
func RegisterCatalog(h CatalogHandler) {
	handlerMutex.Lock()
	defer handlerMutex.Unlock()
	logging.Debug("API", "Registering catalog handler: %v", h != nil)
	catalogHandler = h
}

// GetCatalog returns the registered catalog handler, or nil.
func GetCatalog() CatalogHandler {
	handlerMutex.RLock()
	defer handlerMutex.RUnlock()
	return catalogHandler
}

// RegisterWorkspace registers the workspace handler implementation.
func RegisterWorkspace(h WorkspaceHandler) {
	handlerMutex.Lock()
	defer handlerMutex.Unlock()
	logging.Debug("API", "Registering workspace handler: %v", h != nil)
	workspaceHandler = h
}

// GetWorkspace returns the registered workspace handler, or nil.
func GetWorkspace() WorkspaceHandler {
	handlerMutex.RLock()
	defer handlerMutex.RUnlock()
	return workspaceHandler
}

// SubscribeToCatalogUpdates adds a subscriber for catalog update events.
//
// Subscriber callbacks run in their own goroutine and should not block.
// Panics in callbacks are recovered and logged.
func SubscribeToCatalogUpdates(subscriber CatalogUpdateSubscriber) {
	catalogUpdateMutex.Lock()
	defer catalogUpdateMutex.Unlock()
	catalogUpdateSubscribers = append(catalogUpdateSubscribers, subscriber)
	logging.Debug("API", "Added catalog update subscriber, total subscribers: %d", len(catalogUpdateSubscribers))
}

// PublishCatalogUpdate notifies every subscriber of event asynchronously.
func PublishCatalogUpdate(event CatalogUpdateEvent) {
	catalogUpdateMutex.Lock()
	subscribers := make([]CatalogUpdateSubscriber, len(catalogUpdateSubscribers))
	copy(subscribers, catalogUpdateSubscribers)
	catalogUpdateMutex.Unlock()

	logging.Debug("API", "Publishing catalog update event: reason=%s, subscribers=%d", event.Reason, len(subscribers))

	for _, subscriber := range subscribers {
		go func(s CatalogUpdateSubscriber) {
			defer func() {
				if r := recover(); r != nil {
					logging.Error("API", fmt.Errorf("panic in catalog update subscriber: %v", r), "Catalog update subscriber panicked")
				}
			}()
			s.OnCatalogUpdated(event)
		}(subscriber)
	}
}

// resetForTesting clears every registered handler and subscriber.
func resetForTesting() {
	handlerMutex.Lock()
	catalogHandler = nil
	workspaceHandler = nil
	handlerMutex.Unlock()

	catalogUpdateMutex.Lock()
	catalogUpdateSubscribers = nil
	catalogUpdateMutex.Unlock()
}
