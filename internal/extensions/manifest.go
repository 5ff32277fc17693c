package extensions

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"capstan/internal/capability"
	"capstan/internal/config"
	"capstan/internal/registry"
	"capstan/pkg/logging"

	"gopkg.in/yaml.v3"
)

// ManifestSource is the source name load failures are reported under.
const ManifestSource = "manifest"

// Manifest declares what one extension contributes.
//
//	source: acme-docs
//	tools:
//	  - acme/search.SearchTools
//	prompts:
//	  - acme/prompts.ReviewPrompts
//	discoveryPaths:
//	  - path: tools
//	    subdirectories: [".", "internal"]
type Manifest struct {
	Source         string          `yaml:"source"`
	Tools          []string        `yaml:"tools,omitempty"`
	Prompts        []string        `yaml:"prompts,omitempty"`
	Resources      []string        `yaml:"resources,omitempty"`
	DiscoveryPaths []DiscoveryPath `yaml:"discoveryPaths,omitempty"`

	// File is the path the manifest was loaded from.
	File string `yaml:"-"`
}

// DiscoveryPath is a directory of declarative tool files. Relative paths
// are resolved against the directory of the manifest.
type DiscoveryPath struct {
	Path           string   `yaml:"path"`
	Subdirectories []string `yaml:"subdirectories,omitempty"`
}

// Refs returns the class references the manifest contributes for kind.
func (m Manifest) Refs(kind capability.Kind) []string {
	switch kind {
	case capability.KindTool:
		return m.Tools
	case capability.KindPrompt:
		return m.Prompts
	case capability.KindResource:
		return m.Resources
	default:
		return nil
	}
}

// ResolvePath returns the absolute location of a discovery path.
func (m Manifest) ResolvePath(dp DiscoveryPath) string {
	if filepath.IsAbs(dp.Path) {
		return filepath.Clean(dp.Path)
	}
	return filepath.Join(filepath.Dir(m.File), dp.Path)
}

// Validate checks the fields a manifest cannot do without.
func (m Manifest) Validate() error {
	var errs config.ValidationErrors
	var verr config.ValidationError
	if err := config.ValidateEntityName(m.Source, "extension manifest"); errors.As(err, &verr) {
		errs.Add("source", verr.Message, m.Source)
	}
	for i, dp := range m.DiscoveryPaths {
		if strings.TrimSpace(dp.Path) == "" {
			errs.Add(fmt.Sprintf("discoveryPaths[%d].path", i), "is required")
		}
	}
	if errs.HasErrors() {
		return errs
	}
	return nil
}

// LoadManifests reads every YAML manifest directly inside dir, in file name
// order. A missing directory yields no manifests. Files that cannot be read,
// parsed or validated are skipped and reported in the returned collection.
func LoadManifests(dir string) ([]Manifest, *config.ConfigurationErrorCollection) {
	errs := config.NewConfigurationErrorCollection()
	if dir == "" {
		return nil, errs
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			errs.Add(config.NewConfigurationError(dir, filepath.Base(dir), ManifestSource,
				config.CategoryExtensions, config.ErrorTypeIO, fmt.Sprintf("failed to read directory: %v", err)))
		}
		return nil, errs
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !isYAMLFile(entry.Name()) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	var manifests []Manifest
	for _, name := range names {
		path := filepath.Join(dir, name)
		m, cerr := loadManifest(path)
		if cerr != nil {
			logging.Warn("Extensions", "Skipping manifest %s: %s", name, cerr.Message)
			errs.Add(*cerr)
			continue
		}
		manifests = append(manifests, m)
	}

	return manifests, errs
}

func loadManifest(path string) (Manifest, *config.ConfigurationError) {
	name := filepath.Base(path)

	data, err := os.ReadFile(path)
	if err != nil {
		cerr := config.NewConfigurationError(path, name, ManifestSource,
			config.CategoryExtensions, config.ErrorTypeIO, fmt.Sprintf("failed to read file: %v", err))
		return Manifest{}, &cerr
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		cerr := config.NewConfigurationErrorWithDetails(path, name, ManifestSource,
			config.CategoryExtensions, config.ErrorTypeParse, "invalid YAML", err.Error(),
			[]string{"Check the indentation and that class references are plain strings"})
		return Manifest{}, &cerr
	}
	m.File = path

	if err := m.Validate(); err != nil {
		cerr := config.NewConfigurationError(path, name, ManifestSource,
			config.CategoryExtensions, config.ErrorTypeValidation, err.Error())
		return Manifest{}, &cerr
	}

	return m, nil
}

// Extension contributes the manifests of a directory to every
// registration pass. Manifests are re-read on each pass so a catalog reset
// picks up edits.
type Extension struct {
	dir string
}

var _ registry.ExtensionPoint = (*Extension)(nil)

// NewExtension creates an extension point over the manifests in dir.
func NewExtension(dir string) *Extension {
	return &Extension{dir: dir}
}

// Dir returns the manifest directory.
func (e *Extension) Dir() string {
	return e.dir
}

// Register implements registry.ExtensionPoint.
func (e *Extension) Register(c registry.Collector) {
	kind := c.Kind()
	manifests, errs := LoadManifests(e.dir)
	// every pass reads the same files; report each broken one once
	if kind == capability.KindTool {
		for _, cerr := range errs.GetErrorsByCategory(config.CategoryExtensions) {
			c.ReportError(ManifestSource, fmt.Sprintf("%s: %s", cerr.FileName, cerr.Message))
		}
	}

	for _, m := range manifests {
		for _, ref := range m.Refs(kind) {
			c.AddFromCaller(ref, m.Source)
		}
		if kind != capability.KindTool {
			continue
		}
		for _, dp := range m.DiscoveryPaths {
			c.AddDiscoveryPath(m.ResolvePath(dp), dp.Subdirectories, m.Source)
		}
	}

	logging.Debug("Extensions", "Contributed %d manifests from %s to the %s pass", len(manifests), e.dir, kind)
}

func isYAMLFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
