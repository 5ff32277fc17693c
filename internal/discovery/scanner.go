package discovery

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"capstan/internal/config"
	"capstan/internal/registry"
	"capstan/internal/template"
	"capstan/pkg/logging"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// Scanner loads declarative tools from the discovery paths recorded by a
// tool registration pass.
type Scanner struct {
	engine *template.Engine
}

// NewScanner creates a scanner rendering responses with the sprig
// template engine.
func NewScanner() *Scanner {
	return &Scanner{engine: template.New()}
}

// Result is the outcome of one scan.
type Result struct {
	Tools  []*Tool
	Errors *config.ConfigurationErrorCollection
}

// Scan walks every subdirectory of every discovery path, sources in name
// order. When two files declare the same tool name the first one found is
// kept and the other reported.
func (s *Scanner) Scan(paths map[string][]registry.DiscoveryPath) Result {
	result := Result{Errors: config.NewConfigurationErrorCollection()}
	seen := make(map[string]string)

	for _, source := range registry.SortedKeys(paths) {
		for _, dp := range paths[source] {
			for _, sub := range dp.Subdirectories {
				dir := filepath.Join(dp.Path, sub)
				for _, file := range s.files(dir, source, result.Errors) {
					tool, cerr := s.load(file, source)
					if cerr != nil {
						result.Errors.Add(*cerr)
						continue
					}
					if first, dup := seen[tool.Name]; dup {
						if first == file {
							continue
						}
						result.Errors.Add(config.NewConfigurationError(file, filepath.Base(file), source,
							config.CategoryTools, config.ErrorTypeValidation,
							fmt.Sprintf("tool %q is already declared in %s", tool.Name, first)))
						continue
					}
					seen[tool.Name] = file
					result.Tools = append(result.Tools, tool)
				}
			}
		}
	}

	logging.Debug("Discovery", "Scanned %d sources: %d tools, %d errors", len(paths), len(result.Tools), result.Errors.Count())
	return result
}

func (s *Scanner) files(dir, source string, errs *config.ConfigurationErrorCollection) []string {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		logging.Debug("Discovery", "Skipping %s from %s: not a directory", dir, source)
		return nil
	}

	matches, err := doublestar.Glob(os.DirFS(dir), FilePattern, doublestar.WithFilesOnly())
	if err != nil {
		errs.Add(config.NewConfigurationError(dir, filepath.Base(dir), source,
			config.CategoryTools, config.ErrorTypeIO, fmt.Sprintf("failed to scan directory: %v", err)))
		return nil
	}
	sort.Strings(matches)

	files := make([]string, len(matches))
	for i, m := range matches {
		files[i] = filepath.Join(dir, filepath.FromSlash(m))
	}
	return files
}

func (s *Scanner) load(path, source string) (*Tool, *config.ConfigurationError) {
	name := filepath.Base(path)

	data, err := os.ReadFile(path)
	if err != nil {
		cerr := config.NewConfigurationError(path, name, source,
			config.CategoryTools, config.ErrorTypeIO, fmt.Sprintf("failed to read file: %v", err))
		return nil, &cerr
	}

	var file ToolFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		cerr := config.NewConfigurationErrorWithDetails(path, name, source,
			config.CategoryTools, config.ErrorTypeParse, "invalid YAML", err.Error(),
			[]string{"Quote response templates that start with {{"})
		return nil, &cerr
	}

	if err := file.Validate(s.engine); err != nil {
		cerr := config.NewConfigurationError(path, name, source,
			config.CategoryTools, config.ErrorTypeValidation, err.Error())
		return nil, &cerr
	}

	return &Tool{ToolFile: file, File: path, Source: source, engine: s.engine}, nil
}
