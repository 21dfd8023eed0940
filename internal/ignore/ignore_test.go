package ignore_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/temirov/flattree/internal/ignore"
)

func TestMatcherMatchesFullRelativePath(t *testing.T) {
	matcher, warnings := ignore.Compile([]string{"*.log", "node_modules", "target", "docs/*.md"})
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}

	testCases := []struct {
		name         string
		relativePath string
		expected     bool
	}{
		{name: "root log file", relativePath: "error.log", expected: true},
		{name: "nested log file", relativePath: "logs/app/error.log", expected: true},
		{name: "directory by exact name", relativePath: "node_modules", expected: true},
		{name: "directory name is not a substring match", relativePath: "my_node_modules", expected: false},
		{name: "nested directory with same name", relativePath: "web/node_modules", expected: false},
		{name: "target directory", relativePath: "target", expected: true},
		{name: "sibling file kept", relativePath: "keep.txt", expected: false},
		{name: "path pattern", relativePath: "docs/readme.md", expected: true},
		{name: "path pattern other directory", relativePath: "notes/readme.md", expected: false},
		{name: "windows separators normalized", relativePath: `docs\guide.md`, expected: true},
		{name: "root itself never matches", relativePath: ".", expected: false},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			if actual := matcher.Matches(testCase.relativePath); actual != testCase.expected {
				t.Fatalf("Matches(%q) = %t, want %t", testCase.relativePath, actual, testCase.expected)
			}
		})
	}
}

func TestRecursiveSegmentMatchesZeroDirectories(t *testing.T) {
	matcher, warnings := ignore.Compile([]string{"**/node_modules", "src/**/*.rs", "a/**/b/**/c.txt"})
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}

	testCases := []struct {
		relativePath string
		expected     bool
	}{
		{relativePath: "node_modules", expected: true},
		{relativePath: "web/node_modules", expected: true},
		{relativePath: "web/app/node_modules", expected: true},
		{relativePath: "node_modules_backup", expected: false},
		{relativePath: "src/lib.rs", expected: true},
		{relativePath: "src/x/lib.rs", expected: true},
		{relativePath: "lib.rs", expected: false},
		{relativePath: "a/b/c.txt", expected: true},
		{relativePath: "a/x/b/y/c.txt", expected: true},
		{relativePath: "a/c.txt", expected: false},
	}
	for _, testCase := range testCases {
		t.Run(testCase.relativePath, func(t *testing.T) {
			if actual := matcher.Matches(testCase.relativePath); actual != testCase.expected {
				t.Fatalf("Matches(%q) = %t, want %t", testCase.relativePath, actual, testCase.expected)
			}
		})
	}
}

func TestBracesMatchLiterally(t *testing.T) {
	matcher, warnings := ignore.Compile([]string{"{a,b}.txt"})
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if !matcher.Matches("{a,b}.txt") {
		t.Fatalf("expected literal brace name to match")
	}
	for _, relativePath := range []string{"a.txt", "b.txt"} {
		if matcher.Matches(relativePath) {
			t.Fatalf("braces must not act as alternation, but %q matched", relativePath)
		}
	}
}

func TestCompileDropsInvalidPatternsWithWarnings(t *testing.T) {
	matcher, warnings := ignore.Compile([]string{"[unclosed", "*.tmp", "", "*.tmp"})
	if matcher.Len() != 1 {
		t.Fatalf("expected one active pattern, got %d (%v)", matcher.Len(), matcher.Patterns())
	}
	if len(warnings) != 1 {
		t.Fatalf("expected one warning, got %d", len(warnings))
	}
	if warnings[0].Pattern != "[unclosed" {
		t.Fatalf("unexpected warning pattern %q", warnings[0].Pattern)
	}
	if warnings[0].String() == "" {
		t.Fatalf("expected warning text")
	}
	if !matcher.Matches("cache.tmp") {
		t.Fatalf("expected remaining pattern to stay active")
	}
}

func TestTrailingSlashPatternSelectsDirectoryEntry(t *testing.T) {
	matcher, _ := ignore.Compile([]string{"build/", "./dist"})
	if !matcher.Matches("build") {
		t.Fatalf("expected build/ to match build")
	}
	if !matcher.Matches("dist") {
		t.Fatalf("expected ./dist to match dist")
	}
}

func TestNilMatcherExcludesNothing(t *testing.T) {
	var matcher *ignore.Matcher
	if matcher.Matches("anything") {
		t.Fatalf("nil matcher must not match")
	}
	if matcher.Len() != 0 {
		t.Fatalf("nil matcher must have no patterns")
	}
}

func TestWithGitIgnoreLines(t *testing.T) {
	base, _ := ignore.Compile([]string{"*.log"})
	matcher := base.WithGitIgnoreLines([]string{"build/", "secret.env"})

	if pattern, matched := matcher.MatchingPattern("build", true); !matched || pattern != ".gitignore" {
		t.Fatalf("expected gitignore directory rule to match build, got %q %t", pattern, matched)
	}
	if !matcher.Matches("config/secret.env") {
		t.Fatalf("expected unanchored gitignore rule to match nested file")
	}
	if pattern, matched := matcher.MatchingPattern("debug.log", false); !matched || pattern != "*.log" {
		t.Fatalf("expected glob pattern to be preserved, got %q %t", pattern, matched)
	}
	if matcher.Matches("src/main.rs") {
		t.Fatalf("unexpected match for source file")
	}
}

func TestLoadRootGitIgnore(t *testing.T) {
	root := t.TempDir()
	content := "# comment\n\nnode_modules/\n  *.pyc  \n"
	if err := os.WriteFile(filepath.Join(root, ".gitignore"), []byte(content), 0o600); err != nil {
		t.Fatalf("write .gitignore: %v", err)
	}

	lines, err := ignore.LoadRootGitIgnore(root)
	if err != nil {
		t.Fatalf("LoadRootGitIgnore error: %v", err)
	}
	expected := []string{"node_modules/", "*.pyc"}
	if len(lines) != len(expected) {
		t.Fatalf("expected %v, got %v", expected, lines)
	}
	for index := range expected {
		if lines[index] != expected[index] {
			t.Fatalf("line %d: expected %q, got %q", index, expected[index], lines[index])
		}
	}

	missing, err := ignore.LoadRootGitIgnore(t.TempDir())
	if err != nil || missing != nil {
		t.Fatalf("expected no lines and no error for missing file, got %v %v", missing, err)
	}
}
