package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"sync"
	"time"

	"capstan/internal/api"
	"capstan/internal/capability"
	"capstan/internal/config"
	"capstan/internal/discovery"
	"capstan/internal/registry"
	"capstan/pkg/logging"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config configures the MCP binding.
type Config struct {
	Name      string
	Version   string
	Transport string
	Host      string
	Port      int

	// Yolo allows dangerous tools to run.
	Yolo bool

	// MetricsAddress, when set, serves Gatherer on /metrics.
	MetricsAddress string
	Gatherer       prometheus.Gatherer

	// Stdin and Stdout default to the process streams for the stdio
	// transport.
	Stdin  io.Reader
	Stdout io.Writer
}

// Server exposes the capability catalog over MCP. Every definition of every
// kind is bound on the underlying MCP server and rebound on Sync.
type Server struct {
	config  Config
	catalog *registry.Catalog
	scanner *discovery.Scanner
	mcp     *server.MCPServer

	// discovered holds the declarative tools bound by the last Sync
	discovered map[string]*capability.Definition
	scanErrors []string
	scanned    bool

	// Transport-specific servers
	sseServer            *server.SSEServer
	streamableHTTPServer *server.StreamableHTTPServer
	stdioServer          *server.StdioServer
	metricsServer        *http.Server

	// Lifecycle management
	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	mu         sync.RWMutex
	running    bool

	// syncMu serializes Sync
	syncMu sync.Mutex

	toolManager     *activeItemManager
	promptManager   *activeItemManager
	resourceManager *activeItemManager
	templateManager *activeItemManager
}

// New creates a server binding catalog. The MCP server is created
// immediately so Sync can be used before Start.
func New(cfg Config, catalog *registry.Catalog, scanner *discovery.Scanner) *Server {
	if cfg.Name == "" {
		cfg.Name = config.DefaultServerName
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}
	if scanner == nil {
		scanner = discovery.NewScanner()
	}

	return &Server{
		config:  cfg,
		catalog: catalog,
		scanner: scanner,
		mcp: server.NewMCPServer(
			cfg.Name,
			cfg.Version,
			server.WithToolCapabilities(true),
			server.WithResourceCapabilities(false, true),
			server.WithPromptCapabilities(true),
		),
		discovered:      make(map[string]*capability.Definition),
		toolManager:     newActiveItemManager(itemTypeTool),
		promptManager:   newActiveItemManager(itemTypePrompt),
		resourceManager: newActiveItemManager(itemTypeResource),
		templateManager: newActiveItemManager(itemTypeTemplate),
	}
}

// MCPServer returns the underlying MCP server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// Start binds the catalog, subscribes to catalog updates and starts the
// configured transport.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("server already started")
	}
	s.ctx, s.cancelFunc = context.WithCancel(ctx)
	s.running = true
	s.mu.Unlock()

	s.Sync()
	api.SubscribeToCatalogUpdates(s)

	if s.config.MetricsAddress != "" {
		s.startMetrics()
	}

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.config.Transport {
	case config.MCPTransportSSE:
		logging.Info("Server", "Starting MCP server with SSE transport on %s", addr)
		baseURL := fmt.Sprintf("http://%s", addr)
		s.sseServer = server.NewSSEServer(
			s.mcp,
			server.WithBaseURL(baseURL),
			server.WithSSEEndpoint("/sse"),
			server.WithMessageEndpoint("/message"),
			server.WithKeepAlive(true),
			server.WithKeepAliveInterval(30*time.Second),
		)
		sseServer := s.sseServer
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if err := sseServer.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logging.Error("Server", err, "SSE server error")
			}
		}()

	case config.MCPTransportStdio:
		logging.Info("Server", "Starting MCP server with stdio transport")
		s.stdioServer = server.NewStdioServer(s.mcp)
		stdioServer := s.stdioServer
		in, out := s.stdio()
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if err := stdioServer.Listen(s.ctx, in, out); err != nil && !errors.Is(err, context.Canceled) {
				logging.Error("Server", err, "Stdio server error")
			}
		}()

	case config.MCPTransportStreamableHTTP:
		fallthrough
	default:
		logging.Info("Server", "Starting MCP server with streamable-http transport on %s", addr)
		s.streamableHTTPServer = server.NewStreamableHTTPServer(s.mcp)
		streamableServer := s.streamableHTTPServer
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if err := streamableServer.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logging.Error("Server", err, "Streamable HTTP server error")
			}
		}()
	}

	return nil
}

func (s *Server) stdio() (io.Reader, io.Writer) {
	var in io.Reader = os.Stdin
	var out io.Writer = os.Stdout
	if s.config.Stdin != nil {
		in = s.config.Stdin
	}
	if s.config.Stdout != nil {
		out = s.config.Stdout
	}
	return in, out
}

func (s *Server) startMetrics() {
	gatherer := s.config.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              s.config.MetricsAddress,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.mu.Lock()
	s.metricsServer = srv
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		logging.Info("Server", "Serving metrics on %s/metrics", s.config.MetricsAddress)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Server", err, "Metrics server error")
		}
	}()
}

// Stop shuts down the transports and waits for background routines.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return fmt.Errorf("server not started")
	}

	logging.Info("Server", "Stopping MCP server")

	s.running = false
	cancelFunc := s.cancelFunc
	sseServer := s.sseServer
	streamableServer := s.streamableHTTPServer
	metricsServer := s.metricsServer
	s.mu.Unlock()

	if cancelFunc != nil {
		cancelFunc()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if sseServer != nil {
		if err := sseServer.Shutdown(shutdownCtx); err != nil {
			logging.Error("Server", err, "Error shutting down SSE server")
		}
	}
	if streamableServer != nil {
		if err := streamableServer.Shutdown(shutdownCtx); err != nil {
			logging.Error("Server", err, "Error shutting down streamable HTTP server")
		}
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logging.Error("Server", err, "Error shutting down metrics server")
		}
	}

	// Stdio server stops on context cancellation, no explicit shutdown needed.

	s.wg.Wait()

	s.mu.Lock()
	s.sseServer = nil
	s.streamableHTTPServer = nil
	s.stdioServer = nil
	s.metricsServer = nil
	s.mu.Unlock()

	return nil
}

// Endpoint returns the client-facing endpoint for the configured transport.
func (s *Server) Endpoint() string {
	switch s.config.Transport {
	case config.MCPTransportSSE:
		return fmt.Sprintf("http://%s:%d/sse", s.config.Host, s.config.Port)
	case config.MCPTransportStdio:
		return "stdio"
	default:
		return fmt.Sprintf("http://%s:%d/mcp", s.config.Host, s.config.Port)
	}
}

// OnCatalogUpdated implements api.CatalogUpdateSubscriber.
func (s *Server) OnCatalogUpdated(event api.CatalogUpdateEvent) {
	s.mu.RLock()
	running := s.running
	s.mu.RUnlock()
	if !running {
		return
	}

	logging.Info("Server", "Catalog updated (%s), rebinding capabilities", event.Reason)
	s.Sync()
}

// ScanErrors returns the declarative tool files rejected by the last Sync.
// Before the first Sync it scans the discovery paths without binding.
func (s *Server) ScanErrors() []string {
	s.syncMu.Lock()
	defer s.syncMu.Unlock()
	if !s.scanned {
		return scanErrorMessages(s.scanner.Scan(s.catalog.Tools().DiscoveryPaths()).Errors)
	}
	return append([]string(nil), s.scanErrors...)
}

func scanErrorMessages(errs *config.ConfigurationErrorCollection) []string {
	var out []string
	for _, cerr := range errs.GetErrorsByCategory(config.CategoryTools) {
		out = append(out, cerr.Error())
	}
	return out
}

// Sync binds every current definition on the MCP server and removes the
// ones that disappeared. Accessing the catalog runs any pending
// registration pass.
func (s *Server) Sync() {
	s.syncMu.Lock()
	defer s.syncMu.Unlock()

	s.syncTools()
	s.syncPrompts()
	s.syncResources()

	logging.Debug("Server", "Bound %d tools, %d prompts, %d resources, %d resource templates",
		len(s.toolManager.names()), len(s.promptManager.names()),
		len(s.resourceManager.names()), len(s.templateManager.names()))
}

func (s *Server) syncTools() {
	tools := s.catalog.Tools()
	defs := tools.Definitions()

	current := make(map[string]struct{}, len(defs))
	for _, def := range defs {
		current[def.Key()] = struct{}{}
	}

	result := s.scanner.Scan(tools.DiscoveryPaths())
	discovered := make(map[string]*capability.Definition, len(result.Tools))
	for _, tool := range result.Tools {
		if _, taken := current[tool.Name]; taken {
			logging.Warn("Server", "Ignoring declarative tool %s from %s: name is registered by a contributor", tool.Name, tool.File)
			continue
		}
		def := tool.Definition()
		discovered[def.Key()] = def
		defs = append(defs, def)
		current[def.Key()] = struct{}{}
	}
	s.mu.Lock()
	s.discovered = discovered
	s.mu.Unlock()

	s.scanErrors = scanErrorMessages(result.Errors)
	s.scanned = true
	for _, msg := range s.scanErrors {
		logging.Warn("Server", "Declarative tool rejected: %s", msg)
	}

	removeObsoleteItems(s.toolManager, current, func(items []string) {
		s.mcp.DeleteTools(items...)
	})

	var toAdd []server.ServerTool
	for _, def := range defs {
		fp := fingerprint(def)
		if s.toolManager.isCurrent(def.Key(), fp) {
			continue
		}
		s.toolManager.setActive(def.Key(), fp)
		toAdd = append(toAdd, server.ServerTool{
			Tool:    toolFor(def),
			Handler: s.toolHandler(def.Key()),
		})
	}
	if len(toAdd) > 0 {
		logging.Debug("Server", "Adding %d tools in batch", len(toAdd))
		s.mcp.AddTools(toAdd...)
	}
}

func (s *Server) syncPrompts() {
	defs := s.catalog.Prompts().Definitions()

	current := make(map[string]struct{}, len(defs))
	for _, def := range defs {
		current[def.Key()] = struct{}{}
	}

	removeObsoleteItems(s.promptManager, current, func(items []string) {
		s.mcp.DeletePrompts(items...)
	})

	var toAdd []server.ServerPrompt
	for _, def := range defs {
		fp := fingerprint(def)
		if s.promptManager.isCurrent(def.Key(), fp) {
			continue
		}
		s.promptManager.setActive(def.Key(), fp)
		toAdd = append(toAdd, server.ServerPrompt{
			Prompt:  promptFor(def),
			Handler: s.promptHandler(def.Key()),
		})
	}
	if len(toAdd) > 0 {
		logging.Debug("Server", "Adding %d prompts in batch", len(toAdd))
		s.mcp.AddPrompts(toAdd...)
	}
}

func (s *Server) syncResources() {
	defs := s.catalog.Resources().Definitions()

	static := make(map[string]struct{})
	templates := make(map[string]struct{})
	for _, def := range defs {
		if def.Template() {
			templates[def.Key()] = struct{}{}
		} else {
			static[def.Key()] = struct{}{}
		}
	}

	removeObsoleteItems(s.resourceManager, static, func(items []string) {
		// The MCP server API has no batch removal for resources.
		for _, uri := range items {
			s.mcp.RemoveResource(uri)
		}
	})
	// Templates cannot be unregistered from the MCP server; their handlers
	// report the template as gone instead.
	removeObsoleteItems(s.templateManager, templates, func([]string) {})

	var toAdd []server.ServerResource
	for _, def := range defs {
		fp := fingerprint(def)
		if def.Template() {
			if s.templateManager.isCurrent(def.Key(), fp) {
				continue
			}
			s.templateManager.setActive(def.Key(), fp)
			s.mcp.AddResourceTemplate(templateFor(def), s.templateHandler(def.Key()))
			continue
		}
		if s.resourceManager.isCurrent(def.Key(), fp) {
			continue
		}
		s.resourceManager.setActive(def.Key(), fp)
		toAdd = append(toAdd, server.ServerResource{
			Resource: resourceFor(def),
			Handler:  s.resourceHandler(def.Key()),
		})
	}
	if len(toAdd) > 0 {
		logging.Debug("Server", "Adding %d resources in batch", len(toAdd))
		s.mcp.AddResources(toAdd...)
	}
}

// lookupTool resolves a tool by name against the current catalog, then the
// declarative tools.
func (s *Server) lookupTool(name string) (*capability.Definition, bool) {
	if def, ok := s.catalog.Tools().Definition(name); ok {
		return def, true
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	def, ok := s.discovered[name]
	return def, ok
}

func (s *Server) isYolo() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config.Yolo
}

// CallTool runs the tool gating sequence: lookup, condition, dangerous
// check, invocation. Gate failures are reported as error results.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error) {
	def, ok := s.lookupTool(name)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("tool '%s' is no longer available", name)), nil
	}
	if !def.IsConditionMet() {
		logging.Debug("Server", "Tool %s called while condition %s is not met", name, def.Condition().Method())
		return mcp.NewToolResultError(fmt.Sprintf("tool '%s' is currently unavailable: %v", name, api.ErrConditionNotMet)), nil
	}
	if def.Dangerous() && !s.isYolo() {
		logging.Warn("Server", "Blocked dangerous tool call: %s (enable --yolo flag to allow)", name)
		return mcp.NewToolResultError(fmt.Sprintf("tool '%s' is blocked as it is dangerous. Use --yolo flag to allow dangerous operations", name)), nil
	}

	result, err := def.Invoke(ctx, args)
	if err != nil {
		logging.Error("Server", err, "Tool %s failed", name)
		return mcp.NewToolResultError(fmt.Sprintf("tool execution failed: %v", err)), nil
	}
	return toToolResult(result)
}

func (s *Server) toolHandler(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return s.CallTool(ctx, name, req.GetArguments())
	}
}

// GetPrompt resolves and renders a prompt.
func (s *Server) GetPrompt(ctx context.Context, name string, arguments map[string]string) (*mcp.GetPromptResult, error) {
	def, ok := s.catalog.Prompts().Definition(name)
	if !ok {
		return nil, api.NewPromptNotFoundError(name)
	}
	if !def.IsConditionMet() {
		return nil, fmt.Errorf("prompt %s: %w", name, api.ErrConditionNotMet)
	}

	args := make(map[string]any, len(arguments))
	for k, v := range arguments {
		args[k] = v
	}

	result, err := def.Invoke(ctx, args)
	if err != nil {
		return nil, fmt.Errorf("prompt %s failed: %w", name, err)
	}
	return toPromptResult(def, result)
}

func (s *Server) promptHandler(name string) server.PromptHandlerFunc {
	return func(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		return s.GetPrompt(ctx, name, req.Params.Arguments)
	}
}

// ReadResource resolves a resource or resource template by key and reads
// uri from it. Template variables are passed alongside the "uri" argument.
func (s *Server) ReadResource(ctx context.Context, key, uri string, vars map[string]any) ([]mcp.ResourceContents, error) {
	def, ok := s.catalog.Resources().Definition(key)
	if !ok {
		return nil, api.NewResourceNotFoundError(key)
	}
	if !def.IsConditionMet() {
		return nil, fmt.Errorf("resource %s: %w", key, api.ErrConditionNotMet)
	}

	args := make(map[string]any, len(vars)+1)
	for k, v := range vars {
		args[k] = v
	}
	args["uri"] = uri

	result, err := def.Invoke(ctx, args)
	if err != nil {
		return nil, fmt.Errorf("resource %s failed: %w", uri, err)
	}
	return toResourceContents(def, uri, result)
}

func (s *Server) resourceHandler(uri string) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return s.ReadResource(ctx, uri, req.Params.URI, nil)
	}
}

func (s *Server) templateHandler(name string) server.ResourceTemplateHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		if !s.templateManager.isActive(name) {
			return nil, fmt.Errorf("resource template %s is no longer available", name)
		}
		return s.ReadResource(ctx, name, req.Params.URI, req.Params.Arguments)
	}
}

// BoundTools returns the names of the tools currently bound, sorted.
func (s *Server) BoundTools() []string {
	names := s.toolManager.names()
	sort.Strings(names)
	return names
}

// BoundPrompts returns the names of the prompts currently bound, sorted.
func (s *Server) BoundPrompts() []string {
	names := s.promptManager.names()
	sort.Strings(names)
	return names
}

// BoundResources returns the URIs and template names currently bound,
// sorted.
func (s *Server) BoundResources() []string {
	names := append(s.resourceManager.names(), s.templateManager.names()...)
	sort.Strings(names)
	return names
}
