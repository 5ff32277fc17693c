package app

import (
	"fmt"
	"strings"

	"capstan/internal/builtin"
	"capstan/internal/capability"
	"capstan/internal/completion"
	"capstan/internal/discovery"
	"capstan/internal/extensions"
	"capstan/internal/registry"
	"capstan/internal/server"
	"capstan/internal/workspace"
	"capstan/pkg/logging"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Services holds all initialized services used by the application.
//
// Initialization order matters: the workspace and the catalog adapter are
// registered with the api layer before anything can construct a
// contributor, because bundled contributors look both up through it.
type Services struct {
	Workspace   *workspace.Workspace
	Types       *capability.Types
	Completions *completion.Catalog
	Extension   *extensions.Extension

	// Watcher is nil unless extensions.watch is enabled.
	Watcher *extensions.Watcher

	Metrics         *registry.Metrics
	MetricsRegistry *prometheus.Registry
	Catalog         *registry.Catalog
	CatalogAPI      *registry.APIAdapter
	Server          *server.Server
}

// InitializeServices creates and registers all required services.
func InitializeServices(cfg *Config) (*Services, error) {
	capstanCfg := cfg.CapstanConfig

	// Step 1: host workspace
	ws, err := workspace.New(workspace.Options{
		Root:           capstanCfg.Workspace.Root,
		BackupDir:      capstanCfg.Workspace.BackupDir,
		BackupsEnabled: capstanCfg.Workspace.BackupsEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open workspace: %w", err)
	}
	ws.Register()
	logging.Info("Services", "Workspace: %s", ws.Root())

	// Step 2: contributor classes and completion providers
	types := capability.NewTypes()
	completions := completion.NewCatalog()
	if err := builtin.Register(types, completions); err != nil {
		return nil, err
	}

	// Step 3: metrics
	metricsRegistry := prometheus.NewRegistry()
	metricsRegistry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := registry.NewMetrics(metricsRegistry)

	// Step 4: catalog
	ext := extensions.NewExtension(capstanCfg.Extensions.Dir)
	catalog := registry.NewCatalog(registry.CatalogConfig{
		Resolver:   types,
		Core:       builtin.Core(),
		Companion:  builtin.GitCompanion(),
		Extensions: []registry.ExtensionPoint{ext},
		Metrics:    metrics,
	})

	// Step 5: register the catalog with the API layer (CRITICAL)
	catalogAPI := registry.NewAPIAdapter(catalog, completions)
	catalogAPI.Register()

	// Step 6: manifest watcher
	var watcher *extensions.Watcher
	if capstanCfg.Extensions.Watch {
		watcher = extensions.NewWatcher([]string{ext.Dir()}, extensions.DefaultDebounceInterval, func(files []string) {
			catalogAPI.Reset("extension manifests changed: " + strings.Join(files, ", "))
		})
	}

	// Step 7: server
	srv := server.New(server.Config{
		Name:           capstanCfg.Server.Name,
		Version:        cfg.Version,
		Transport:      capstanCfg.Server.Transport,
		Host:           capstanCfg.Server.Host,
		Port:           capstanCfg.Server.Port,
		Yolo:           capstanCfg.Server.Yolo,
		MetricsAddress: capstanCfg.Metrics.Address,
		Gatherer:       metricsRegistry,
	}, catalog, discovery.NewScanner())
	catalogAPI.SetDiscoveryErrors(srv.ScanErrors)

	return &Services{
		Workspace:       ws,
		Types:           types,
		Completions:     completions,
		Extension:       ext,
		Watcher:         watcher,
		Metrics:         metrics,
		MetricsRegistry: metricsRegistry,
		Catalog:         catalog,
		CatalogAPI:      catalogAPI,
		Server:          srv,
	}, nil
}
