package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"capstan/pkg/logging"

	"gopkg.in/yaml.v3"
)

const (
	userConfigDir  = ".config/capstan"
	configFileName = "config.yaml"
)

// osUserHomeDir is replaceable in tests.
var osUserHomeDir = os.UserHomeDir

// GetDefaultConfigPath returns ~/.config/capstan.
func GetDefaultConfigPath() (string, error) {
	homeDir, err := osUserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine user config directory: %w", err)
	}
	return filepath.Join(homeDir, userConfigDir), nil
}

// GetDefaultConfigPathOrPanic is GetDefaultConfigPath for flag defaults.
func GetDefaultConfigPathOrPanic() string {
	path, err := GetDefaultConfigPath()
	if err != nil {
		panic(err)
	}
	return path
}

// LoadConfig loads configuration from the given directory.
// A missing config.yaml yields the defaults. A relative extensions directory
// is resolved against configPath.
func LoadConfig(configPath string) (CapstanConfig, error) {
	configFilePath := filepath.Join(configPath, configFileName)
	config := GetDefaultConfig()

	data, err := os.ReadFile(configFilePath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logging.Info("ConfigLoader", "Error loading config.yaml from %s: %s", configFilePath, err)
			return CapstanConfig{}, err
		}
		logging.Info("ConfigLoader", "No config.yaml found at %s, using defaults", configFilePath)
	} else {
		if err := yaml.Unmarshal(data, &config); err != nil {
			return CapstanConfig{}, fmt.Errorf("error loading config from %s: %w", configFilePath, err)
		}
		logging.Info("ConfigLoader", "Loaded configuration from %s", configFilePath)
	}

	if config.Extensions.Dir == "" {
		config.Extensions.Dir = filepath.Join(configPath, extensionsDirName)
	} else if !filepath.IsAbs(config.Extensions.Dir) {
		config.Extensions.Dir = filepath.Join(configPath, config.Extensions.Dir)
	}

	if err := config.Validate(); err != nil {
		return CapstanConfig{}, fmt.Errorf("invalid configuration in %s: %w", configFilePath, err)
	}

	return config, nil
}

// BackupPath returns the absolute backup directory.
func (w WorkspaceConfig) BackupPath() string {
	if filepath.IsAbs(w.BackupDir) {
		return w.BackupDir
	}
	return filepath.Join(w.Root, w.BackupDir)
}

// Address returns host:port for the HTTP transports.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
