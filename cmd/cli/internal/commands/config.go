package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const configFileName = "config.yaml"

// fileConfig is the on disk CLI configuration, stored alongside the session
// in the configuration directory.
type fileConfig struct {
	BaseURL   string `yaml:"base_url"`
	ProjectID string `yaml:"project_id"`
}

// loadConfig reads the configuration file from configDir, defaulting to
// ~/.sessionkit. A missing file is not an error, flags can supply the values.
func loadConfig(configDir string) (*fileConfig, error) {
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".sessionkit")
	}

	data, err := os.ReadFile(filepath.Join(configDir, configFileName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &fileConfig{}, nil
		}
		return nil, err
	}

	cfg := &fileConfig{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", configFileName, err)
	}

	return cfg, nil
}
