package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/temirov/flattree/internal/utils"
)

// InitTarget identifies where configuration should be initialized.
type InitTarget string

const (
	// InitTargetLocal writes configuration into the working directory.
	InitTargetLocal InitTarget = "local"
	// InitTargetGlobal writes configuration into the global configuration directory.
	InitTargetGlobal InitTarget = "global"

	defaultConfigurationTemplate = `log_level: info
base_dir: .
server:
  address: 0.0.0.0:3000
  shutdown_timeout: 5s
  scan_timeout: 60s
scan:
  default_ignore:
    - .git
    - node_modules
    - target
    - pnpm-lock.yaml
    - yarn.lock
    - package-lock.json
    - .env
  use_gitignore: false
  follow_symlinks: false
  format: raw
  clipboard: false
tokens:
  model: cl100k_base
`
)

// InitOptions controls how configuration initialization behaves.
type InitOptions struct {
	Target           InitTarget
	Force            bool
	WorkingDirectory string
}

// DefaultConfigurationTemplate returns the YAML written by InitializeConfiguration.
func DefaultConfigurationTemplate() string {
	return defaultConfigurationTemplate
}

// InitializeConfiguration writes the default configuration to the requested target and returns its path.
// An existing file is only replaced when Force is set.
func InitializeConfiguration(options InitOptions) (string, error) {
	destinationPath, destinationErr := initDestination(options)
	if destinationErr != nil {
		return "", destinationErr
	}

	_, statErr := os.Stat(destinationPath)
	switch {
	case statErr == nil && !options.Force:
		return "", fmt.Errorf("configuration file already exists at %s", destinationPath)
	case statErr != nil && !os.IsNotExist(statErr):
		return "", fmt.Errorf("inspect configuration path %s: %w", destinationPath, statErr)
	}

	if mkdirErr := os.MkdirAll(filepath.Dir(destinationPath), 0o755); mkdirErr != nil {
		return "", fmt.Errorf("create configuration directory %s: %w", filepath.Dir(destinationPath), mkdirErr)
	}
	if writeErr := os.WriteFile(destinationPath, []byte(defaultConfigurationTemplate), 0o600); writeErr != nil {
		return "", fmt.Errorf("write configuration to %s: %w", destinationPath, writeErr)
	}
	return destinationPath, nil
}

func initDestination(options InitOptions) (string, error) {
	switch options.Target {
	case InitTargetLocal, "":
		workingDirectory := options.WorkingDirectory
		if workingDirectory == "" {
			current, err := os.Getwd()
			if err != nil {
				return "", fmt.Errorf("determine working directory for configuration: %w", err)
			}
			workingDirectory = current
		}
		return filepath.Join(workingDirectory, utils.ConfigFileName), nil
	case InitTargetGlobal:
		homeDirectory, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory for configuration: %w", err)
		}
		return filepath.Join(homeDirectory, utils.GlobalConfigDirectoryName, utils.ConfigFileName), nil
	default:
		return "", fmt.Errorf("unsupported init target %q", options.Target)
	}
}
