// Package config loads flattree settings from configuration files and the environment.
package config

import (
	"time"

	"github.com/temirov/flattree/internal/utils"
)

const (
	// DefaultServerAddress binds every interface so the server is reachable from containers.
	DefaultServerAddress   = "0.0.0.0:3000"
	DefaultShutdownTimeout = 5 * time.Second
	DefaultScanTimeout     = 60 * time.Second
	DefaultBaseDirectory   = "."
	DefaultLogLevel        = utils.LogLevelInfo
	DefaultTokenModel      = "cl100k_base"
	DefaultOutputFormat    = "raw"
)

// DefaultIgnorePatterns are the exclusions offered to new scans.
var DefaultIgnorePatterns = []string{
	".git",
	"node_modules",
	"target",
	"pnpm-lock.yaml",
	"yarn.lock",
	"package-lock.json",
	".env",
}

// ApplicationConfiguration holds every setting the commands consume.
type ApplicationConfiguration struct {
	LogLevel      string              `mapstructure:"log_level"`
	BaseDirectory string              `mapstructure:"base_dir"`
	Server        ServerConfiguration `mapstructure:"server"`
	Scan          ScanConfiguration   `mapstructure:"scan"`
	Tokens        TokenConfiguration  `mapstructure:"tokens"`
}

// ServerConfiguration configures the HTTP server.
type ServerConfiguration struct {
	Address         string        `mapstructure:"address"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	ScanTimeout     time.Duration `mapstructure:"scan_timeout"`
}

// ScanConfiguration configures traversal and output defaults.
type ScanConfiguration struct {
	DefaultIgnore  []string `mapstructure:"default_ignore"`
	UseGitignore   *bool    `mapstructure:"use_gitignore"`
	FollowSymlinks *bool    `mapstructure:"follow_symlinks"`
	Format         string   `mapstructure:"format"`
	Clipboard      *bool    `mapstructure:"clipboard"`
}

// TokenConfiguration selects the tokenizer vocabulary.
type TokenConfiguration struct {
	Model string `mapstructure:"model"`
}

// DefaultConfiguration returns the built-in settings.
func DefaultConfiguration() ApplicationConfiguration {
	return ApplicationConfiguration{
		LogLevel:      DefaultLogLevel,
		BaseDirectory: DefaultBaseDirectory,
		Server: ServerConfiguration{
			Address:         DefaultServerAddress,
			ShutdownTimeout: DefaultShutdownTimeout,
			ScanTimeout:     DefaultScanTimeout,
		},
		Scan: ScanConfiguration{
			DefaultIgnore:  append([]string{}, DefaultIgnorePatterns...),
			UseGitignore:   boolPointer(false),
			FollowSymlinks: boolPointer(false),
			Format:         DefaultOutputFormat,
			Clipboard:      boolPointer(false),
		},
		Tokens: TokenConfiguration{Model: DefaultTokenModel},
	}
}

// Merge overlays override onto the receiver returning the combined configuration.
func (config ApplicationConfiguration) Merge(override ApplicationConfiguration) ApplicationConfiguration {
	result := config
	if override.LogLevel != "" {
		result.LogLevel = override.LogLevel
	}
	if override.BaseDirectory != "" {
		result.BaseDirectory = override.BaseDirectory
	}
	result.Server = result.Server.merge(override.Server)
	result.Scan = result.Scan.merge(override.Scan)
	if override.Tokens.Model != "" {
		result.Tokens.Model = override.Tokens.Model
	}
	return result
}

func (config ServerConfiguration) merge(override ServerConfiguration) ServerConfiguration {
	result := config
	if override.Address != "" {
		result.Address = override.Address
	}
	if override.ShutdownTimeout > 0 {
		result.ShutdownTimeout = override.ShutdownTimeout
	}
	if override.ScanTimeout > 0 {
		result.ScanTimeout = override.ScanTimeout
	}
	return result
}

func (config ScanConfiguration) merge(override ScanConfiguration) ScanConfiguration {
	result := config
	if override.DefaultIgnore != nil {
		result.DefaultIgnore = append([]string{}, utils.DeduplicatePatterns(override.DefaultIgnore)...)
	}
	if override.UseGitignore != nil {
		result.UseGitignore = cloneBool(override.UseGitignore)
	}
	if override.FollowSymlinks != nil {
		result.FollowSymlinks = cloneBool(override.FollowSymlinks)
	}
	if override.Format != "" {
		result.Format = override.Format
	}
	if override.Clipboard != nil {
		result.Clipboard = cloneBool(override.Clipboard)
	}
	return result
}

// GitignoreEnabled reports whether the root .gitignore should be honored.
func (config ScanConfiguration) GitignoreEnabled() bool {
	return config.UseGitignore != nil && *config.UseGitignore
}

// FollowSymlinksEnabled reports whether symbolic links to directories are traversed.
func (config ScanConfiguration) FollowSymlinksEnabled() bool {
	return config.FollowSymlinks != nil && *config.FollowSymlinks
}

// ClipboardEnabled reports whether results are copied to the clipboard.
func (config ScanConfiguration) ClipboardEnabled() bool {
	return config.Clipboard != nil && *config.Clipboard
}

func boolPointer(value bool) *bool {
	return &value
}

func cloneBool(value *bool) *bool {
	if value == nil {
		return nil
	}
	cloned := *value
	return &cloned
}
