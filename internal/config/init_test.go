package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestInitializeConfigurationWritesLoadableDefaults(t *testing.T) {
	testCases := []struct {
		name       string
		target     InitTarget
		seed       bool
		force      bool
		expectFail bool
	}{
		{name: "local", target: InitTargetLocal},
		{name: "unset target is local", target: ""},
		{name: "global", target: InitTargetGlobal},
		{name: "existing file kept without force", target: InitTargetLocal, seed: true, expectFail: true},
		{name: "existing file replaced with force", target: InitTargetLocal, seed: true, force: true},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			homeDirectory := t.TempDir()
			workingDirectory := t.TempDir()
			t.Setenv("HOME", homeDirectory)
			t.Setenv("USERPROFILE", homeDirectory)

			expectedPath := filepath.Join(workingDirectory, "config.yaml")
			if testCase.target == InitTargetGlobal {
				expectedPath = filepath.Join(homeDirectory, ".flattree", "config.yaml")
			}
			if testCase.seed {
				if err := os.WriteFile(expectedPath, []byte("log_level: debug\n"), 0o600); err != nil {
					t.Fatalf("write seed config: %v", err)
				}
			}

			path, err := InitializeConfiguration(InitOptions{
				Target:           testCase.target,
				Force:            testCase.force,
				WorkingDirectory: workingDirectory,
			})
			if testCase.expectFail {
				if err == nil {
					t.Fatalf("expected error when configuration already exists")
				}
				return
			}
			if err != nil {
				t.Fatalf("InitializeConfiguration error: %v", err)
			}
			if path != expectedPath {
				t.Fatalf("expected path %s, got %s", expectedPath, path)
			}

			loaded, loadErr := LoadApplicationConfiguration(LoadOptions{WorkingDirectory: workingDirectory, SkipEnvironment: true})
			if loadErr != nil {
				t.Fatalf("LoadApplicationConfiguration error: %v", loadErr)
			}
			defaults := DefaultConfiguration()
			if loaded.LogLevel != defaults.LogLevel || loaded.BaseDirectory != defaults.BaseDirectory {
				t.Fatalf("template diverges from defaults: %+v", loaded)
			}
			if loaded.Server != defaults.Server || loaded.Tokens != defaults.Tokens {
				t.Fatalf("server or token settings diverge: %+v", loaded)
			}
			if !reflect.DeepEqual(loaded.Scan.DefaultIgnore, DefaultIgnorePatterns) {
				t.Fatalf("expected default ignore %v, got %v", DefaultIgnorePatterns, loaded.Scan.DefaultIgnore)
			}
			if loaded.Scan.Format != DefaultOutputFormat {
				t.Fatalf("expected format %q, got %q", DefaultOutputFormat, loaded.Scan.Format)
			}
			if loaded.Scan.GitignoreEnabled() || loaded.Scan.FollowSymlinksEnabled() || loaded.Scan.ClipboardEnabled() {
				t.Fatalf("expected scan toggles off: %+v", loaded.Scan)
			}
		})
	}
}

func TestInitializeConfigurationRejectsUnknownTarget(t *testing.T) {
	if _, err := InitializeConfiguration(InitOptions{Target: "remote", WorkingDirectory: t.TempDir()}); err == nil {
		t.Fatalf("expected error for unknown target")
	}
}
