// Package api provides the service locator that decouples capstan's
// packages from each other.
//
// Packages that own state (the capability catalog, the workspace) register
// an adapter implementing one of the handler interfaces declared here.
// Consumers, most notably the bundled capability contributors whose owners
// are constructed fresh for every invocation, look the handler up through
// the matching Get* function instead of importing the owning package.
//
// # Handler Interfaces
//
//   - CatalogHandler: capability summaries, registration errors, argument
//     completion and catalog reset
//   - WorkspaceHandler: document, asset and backup access inside the
//     configured workspace root
//
// # Catalog Update Events
//
// Components that mirror the catalog, such as the protocol server binding,
// subscribe with SubscribeToCatalogUpdates. PublishCatalogUpdate notifies
// every subscriber asynchronously after the catalog has been reset.
//
// # Usage
//
//	// during bootstrap
//	api.RegisterCatalog(registry.NewAPIAdapter(catalog, completions))
//
//	// inside a contributor factory
//	catalog := api.GetCatalog()
//	if catalog == nil {
//	    return nil, api.ErrCatalogNotRegistered
//	}
//
// The package does not import any other capstan package.
package api
