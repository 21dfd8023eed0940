package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/temirov/flattree/internal/utils"
)

const (
	environmentPrefix = utils.ApplicationName
	// BaseDirectoryEnvironmentVariable confines the paths the server accepts.
	BaseDirectoryEnvironmentVariable = "DATA_DIR_BASE"
	// LogLevelEnvironmentVariable selects the log level.
	LogLevelEnvironmentVariable = "LOG_LEVEL"
)

var environmentKeys = []string{
	"log_level",
	"base_dir",
	"server.address",
	"server.shutdown_timeout",
	"server.scan_timeout",
	"scan.default_ignore",
	"scan.use_gitignore",
	"scan.follow_symlinks",
	"scan.format",
	"scan.clipboard",
	"tokens.model",
}

// LoadOptions controls how application configuration is discovered.
type LoadOptions struct {
	WorkingDirectory string
	ExplicitFilePath string
	// SkipEnvironment ignores environment overrides.
	SkipEnvironment bool
}

// LoadApplicationConfiguration layers the built-in defaults, the global file, the local (or
// explicit) file and the environment, in that order.
func LoadApplicationConfiguration(options LoadOptions) (ApplicationConfiguration, error) {
	workingDirectory := options.WorkingDirectory
	if workingDirectory == "" {
		currentDirectory, err := os.Getwd()
		if err != nil {
			return ApplicationConfiguration{}, fmt.Errorf("determine working directory: %w", err)
		}
		workingDirectory = currentDirectory
	}

	merged := DefaultConfiguration()

	if homeDirectory, err := os.UserHomeDir(); err == nil && homeDirectory != "" {
		globalPath := filepath.Join(homeDirectory, utils.GlobalConfigDirectoryName, utils.ConfigFileName)
		globalConfig, loadErr := loadConfigurationFromPath(globalPath)
		if loadErr != nil {
			return ApplicationConfiguration{}, loadErr
		}
		merged = merged.Merge(globalConfig)
	}

	localPath, resolveErr := resolveLocalConfigPath(workingDirectory, options.ExplicitFilePath)
	if resolveErr != nil {
		return ApplicationConfiguration{}, resolveErr
	}
	if options.ExplicitFilePath != "" {
		if _, statErr := os.Stat(localPath); statErr != nil {
			return ApplicationConfiguration{}, fmt.Errorf("configuration file %s: %w", localPath, statErr)
		}
	}
	if localPath != "" {
		localConfig, loadErr := loadConfigurationFromPath(localPath)
		if loadErr != nil {
			return ApplicationConfiguration{}, loadErr
		}
		merged = merged.Merge(localConfig)
	}

	if !options.SkipEnvironment {
		environmentConfig, envErr := loadConfigurationFromEnvironment()
		if envErr != nil {
			return ApplicationConfiguration{}, envErr
		}
		merged = merged.Merge(environmentConfig)
	}

	merged.Scan.DefaultIgnore = utils.DeduplicatePatterns(merged.Scan.DefaultIgnore)
	return merged, nil
}

func resolveLocalConfigPath(workingDirectory, explicitPath string) (string, error) {
	if explicitPath != "" {
		if filepath.IsAbs(explicitPath) {
			return explicitPath, nil
		}
		if workingDirectory == "" {
			absolute, err := filepath.Abs(explicitPath)
			if err != nil {
				return "", fmt.Errorf("resolve configuration path %s: %w", explicitPath, err)
			}
			return absolute, nil
		}
		return filepath.Join(workingDirectory, explicitPath), nil
	}
	if workingDirectory == "" {
		return "", nil
	}
	return filepath.Join(workingDirectory, utils.ConfigFileName), nil
}

func loadConfigurationFromPath(path string) (ApplicationConfiguration, error) {
	if path == "" {
		return ApplicationConfiguration{}, nil
	}
	info, statErr := os.Stat(path)
	if statErr != nil {
		if os.IsNotExist(statErr) {
			return ApplicationConfiguration{}, nil
		}
		return ApplicationConfiguration{}, fmt.Errorf("stat configuration %s: %w", path, statErr)
	}
	if info.IsDir() {
		return ApplicationConfiguration{}, fmt.Errorf("configuration path %s is a directory", path)
	}

	reader := viper.New()
	reader.SetConfigFile(path)
	if readErr := reader.ReadInConfig(); readErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf("read configuration from %s: %w", path, readErr)
	}
	var config ApplicationConfiguration
	if decodeErr := reader.Unmarshal(&config); decodeErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf("decode configuration from %s: %w", path, decodeErr)
	}
	return config, nil
}

// loadConfigurationFromEnvironment reads FLATTREE_<KEY> variables, with the unprefixed
// DATA_DIR_BASE and LOG_LEVEL taking precedence for their keys.
func loadConfigurationFromEnvironment() (ApplicationConfiguration, error) {
	reader := viper.New()
	reader.SetEnvPrefix(environmentPrefix)
	reader.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range environmentKeys {
		if bindErr := reader.BindEnv(key); bindErr != nil {
			return ApplicationConfiguration{}, fmt.Errorf("bind environment for %s: %w", key, bindErr)
		}
	}
	if bindErr := reader.BindEnv("base_dir", BaseDirectoryEnvironmentVariable, environmentPrefix+"_BASE_DIR"); bindErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf("bind environment for base_dir: %w", bindErr)
	}
	if bindErr := reader.BindEnv("log_level", LogLevelEnvironmentVariable, environmentPrefix+"_LOG_LEVEL"); bindErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf("bind environment for log_level: %w", bindErr)
	}

	var config ApplicationConfiguration
	if decodeErr := reader.Unmarshal(&config); decodeErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf("decode environment configuration: %w", decodeErr)
	}
	return config, nil
}
