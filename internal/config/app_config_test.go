package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/temirov/flattree/internal/utils"
)

type configTestCase struct {
	name            string
	globalContent   string
	localContent    string
	explicitPath    string
	expectAddress   string
	expectTimeout   time.Duration
	expectModel     string
	expectGitignore bool
	expectIgnore    []string
}

func writeConfig(t *testing.T, path string, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("create config dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config %s: %v", path, err)
	}
}

func isolateHome(t *testing.T) string {
	t.Helper()
	homeDir := t.TempDir()
	t.Setenv("HOME", homeDir)
	t.Setenv("USERPROFILE", homeDir)
	return homeDir
}

func TestLoadApplicationConfigurationMergesSources(t *testing.T) {
	testCases := []configTestCase{
		{
			name:          "defaults",
			expectAddress: DefaultServerAddress,
			expectTimeout: DefaultScanTimeout,
			expectModel:   DefaultTokenModel,
			expectIgnore:  DefaultIgnorePatterns,
		},
		{
			name:            "local_overrides_global",
			globalContent:   "server:\n  address: 127.0.0.1:8080\n  scan_timeout: 10s\ntokens:\n  model: o200k_base\n",
			localContent:    "server:\n  scan_timeout: 2m\nscan:\n  use_gitignore: true\n  default_ignore: [dist, dist, '*.log']\n",
			expectAddress:   "127.0.0.1:8080",
			expectTimeout:   2 * time.Minute,
			expectModel:     "o200k_base",
			expectGitignore: true,
			expectIgnore:    []string{"dist", "*.log"},
		},
		{
			name:          "explicit_path_replaces_local",
			localContent:  "server:\n  address: 127.0.0.1:1\n",
			explicitPath:  "custom.yaml",
			expectAddress: "127.0.0.1:9999",
			expectTimeout: DefaultScanTimeout,
			expectModel:   DefaultTokenModel,
			expectIgnore:  DefaultIgnorePatterns,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			homeDir := isolateHome(t)
			workingDir := t.TempDir()
			if testCase.globalContent != "" {
				writeConfig(t, filepath.Join(homeDir, utils.GlobalConfigDirectoryName, utils.ConfigFileName), testCase.globalContent)
			}
			if testCase.localContent != "" {
				writeConfig(t, filepath.Join(workingDir, utils.ConfigFileName), testCase.localContent)
			}
			if testCase.explicitPath != "" {
				writeConfig(t, filepath.Join(workingDir, testCase.explicitPath), "server:\n  address: 127.0.0.1:9999\n")
			}

			loaded, err := LoadApplicationConfiguration(LoadOptions{
				WorkingDirectory: workingDir,
				ExplicitFilePath: testCase.explicitPath,
				SkipEnvironment:  true,
			})
			if err != nil {
				t.Fatalf("LoadApplicationConfiguration error: %v", err)
			}
			if loaded.Server.Address != testCase.expectAddress {
				t.Fatalf("expected address %q, got %q", testCase.expectAddress, loaded.Server.Address)
			}
			if loaded.Server.ScanTimeout != testCase.expectTimeout {
				t.Fatalf("expected scan timeout %v, got %v", testCase.expectTimeout, loaded.Server.ScanTimeout)
			}
			if loaded.Tokens.Model != testCase.expectModel {
				t.Fatalf("expected model %q, got %q", testCase.expectModel, loaded.Tokens.Model)
			}
			if loaded.Scan.GitignoreEnabled() != testCase.expectGitignore {
				t.Fatalf("expected use_gitignore %v", testCase.expectGitignore)
			}
			if len(loaded.Scan.DefaultIgnore) != len(testCase.expectIgnore) {
				t.Fatalf("expected ignore %v, got %v", testCase.expectIgnore, loaded.Scan.DefaultIgnore)
			}
			for index := range testCase.expectIgnore {
				if loaded.Scan.DefaultIgnore[index] != testCase.expectIgnore[index] {
					t.Fatalf("expected ignore %v, got %v", testCase.expectIgnore, loaded.Scan.DefaultIgnore)
				}
			}
		})
	}
}

func TestLoadApplicationConfigurationEnvironmentOverrides(t *testing.T) {
	isolateHome(t)
	workingDir := t.TempDir()
	writeConfig(t, filepath.Join(workingDir, utils.ConfigFileName), "base_dir: /from/file\nlog_level: debug\n")

	t.Setenv(BaseDirectoryEnvironmentVariable, "/data")
	t.Setenv(LogLevelEnvironmentVariable, "warn")
	t.Setenv("FLATTREE_SERVER_SCAN_TIMEOUT", "90s")
	t.Setenv("FLATTREE_SCAN_FOLLOW_SYMLINKS", "true")

	loaded, err := LoadApplicationConfiguration(LoadOptions{WorkingDirectory: workingDir})
	if err != nil {
		t.Fatalf("LoadApplicationConfiguration error: %v", err)
	}
	if loaded.BaseDirectory != "/data" {
		t.Fatalf("expected DATA_DIR_BASE to win, got %q", loaded.BaseDirectory)
	}
	if loaded.LogLevel != "warn" {
		t.Fatalf("expected LOG_LEVEL to win, got %q", loaded.LogLevel)
	}
	if loaded.Server.ScanTimeout != 90*time.Second {
		t.Fatalf("expected 90s scan timeout, got %v", loaded.Server.ScanTimeout)
	}
	if !loaded.Scan.FollowSymlinksEnabled() {
		t.Fatalf("expected follow_symlinks from environment")
	}
	if loaded.Server.Address != DefaultServerAddress {
		t.Fatalf("unset variables must keep earlier values, got %q", loaded.Server.Address)
	}
}

func TestLoadApplicationConfigurationRejectsMissingExplicitFile(t *testing.T) {
	isolateHome(t)
	_, err := LoadApplicationConfiguration(LoadOptions{WorkingDirectory: t.TempDir(), ExplicitFilePath: "missing.yaml", SkipEnvironment: true})
	if err == nil {
		t.Fatalf("expected error for missing explicit configuration")
	}
}

func TestLoadApplicationConfigurationRejectsDirectory(t *testing.T) {
	isolateHome(t)
	workingDir := t.TempDir()
	if err := os.Mkdir(filepath.Join(workingDir, utils.ConfigFileName), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	_, err := LoadApplicationConfiguration(LoadOptions{WorkingDirectory: workingDir, SkipEnvironment: true})
	if err == nil {
		t.Fatalf("expected error when configuration path is a directory")
	}
}

func TestMergeKeepsUnsetFields(t *testing.T) {
	base := DefaultConfiguration()
	merged := base.Merge(ApplicationConfiguration{Scan: ScanConfiguration{Clipboard: boolPointer(true)}})
	if !merged.Scan.ClipboardEnabled() {
		t.Fatalf("expected clipboard override")
	}
	if merged.Server != base.Server || merged.Scan.Format != base.Scan.Format {
		t.Fatalf("unset fields changed: %+v", merged)
	}
}
