// Package ignore compiles exclusion patterns and decides whether a path relative to the scan root
// should be pruned from traversal.
//
// Patterns are shell-style globs evaluated against the full slash-separated relative path.
// Wildcards are not bounded by path separators, so "*.log" also matches "logs/error.log", while a
// bare name such as "target" only matches the entry at that exact relative path. A "**/" segment
// also matches zero directories, so "**/node_modules" prunes a top-level node_modules. Braces
// match literally. Pattern strings that fail to compile are dropped from the active set and
// reported as warnings.
package ignore

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
	gitignore "github.com/sabhiram/go-gitignore"

	"github.com/temirov/flattree/internal/utils"
)

const (
	commentPrefix          = "#"
	invalidPatternFormat   = "ignore pattern %q dropped: %v"
	readIgnoreFileFormat   = "read ignore file %s: %w"
	backslashSeparator     = "\\"
	forwardSlashSeparator  = "/"
	currentDirectoryPrefix = "./"
	currentDirectoryEntry  = "."
	recursiveSegment       = "**/"
	escapeCharacter        = '\\'
)

// Warning describes a pattern that could not be compiled.
type Warning struct {
	Pattern string `json:"pattern"`
	Reason  string `json:"reason"`
}

// String renders the warning for logs and response payloads.
func (warning Warning) String() string {
	return fmt.Sprintf(invalidPatternFormat, warning.Pattern, warning.Reason)
}

type compiledPattern struct {
	source   string
	variants []glob.Glob
}

func (pattern compiledPattern) match(path string) bool {
	for _, variant := range pattern.variants {
		if variant.Match(path) {
			return true
		}
	}
	return false
}

// Matcher decides whether relative paths are excluded. The zero value and nil matchers exclude nothing.
// A Matcher is immutable after construction and safe for concurrent use.
type Matcher struct {
	patterns  []compiledPattern
	gitIgnore *gitignore.GitIgnore
}

// Compile turns pattern strings into a Matcher. Duplicates and blank entries are skipped; invalid
// globs are dropped and returned as warnings, never as an error.
func Compile(patterns []string) (*Matcher, []Warning) {
	matcher := &Matcher{}
	var warnings []Warning
	for _, pattern := range utils.DeduplicatePatterns(patterns) {
		normalizedPattern := normalizePattern(pattern)
		if normalizedPattern == "" {
			continue
		}
		compiled, compileError := compileVariants(normalizedPattern)
		if compileError != nil {
			warnings = append(warnings, Warning{Pattern: pattern, Reason: compileError.Error()})
			continue
		}
		matcher.patterns = append(matcher.patterns, compiledPattern{source: pattern, variants: compiled})
	}
	return matcher, warnings
}

// WithGitIgnoreLines returns a copy of the matcher that additionally honors gitignore-syntax lines.
func (matcher *Matcher) WithGitIgnoreLines(lines []string) *Matcher {
	extended := &Matcher{}
	if matcher != nil {
		extended.patterns = matcher.patterns
	}
	if len(lines) > 0 {
		extended.gitIgnore = gitignore.CompileIgnoreLines(lines...)
	}
	return extended
}

// Matches reports whether any compiled pattern matches the full relative path.
func (matcher *Matcher) Matches(relativePath string) bool {
	_, matched := matcher.MatchingPattern(relativePath, false)
	return matched
}

// MatchingPattern returns the first pattern that matches relativePath. Directory entries are
// also offered to gitignore rules with a trailing slash so that "build/" rules apply to them.
// Gitignore matches are reported with the ignore file name as the pattern.
func (matcher *Matcher) MatchingPattern(relativePath string, isDirectory bool) (string, bool) {
	if matcher == nil {
		return "", false
	}
	normalized := normalizePath(relativePath)
	if normalized == "" || normalized == currentDirectoryEntry {
		return "", false
	}
	for _, pattern := range matcher.patterns {
		if pattern.match(normalized) {
			return pattern.source, true
		}
	}
	if matcher.gitIgnore == nil {
		return "", false
	}
	if matcher.gitIgnore.MatchesPath(normalized) {
		return utils.GitIgnoreFileName, true
	}
	if isDirectory && matcher.gitIgnore.MatchesPath(normalized+forwardSlashSeparator) {
		return utils.GitIgnoreFileName, true
	}
	return "", false
}

// Len reports the number of active glob patterns.
func (matcher *Matcher) Len() int {
	if matcher == nil {
		return 0
	}
	return len(matcher.patterns)
}

// Patterns returns the source strings of the active glob patterns in compile order.
func (matcher *Matcher) Patterns() []string {
	if matcher == nil {
		return nil
	}
	sources := make([]string, 0, len(matcher.patterns))
	for _, pattern := range matcher.patterns {
		sources = append(sources, pattern.source)
	}
	return sources
}

// LoadIgnoreFileLines reads an ignore file and returns its non-empty, non-comment lines.
// A missing file yields no lines and no error.
//
// #nosec G304
func LoadIgnoreFileLines(ignoreFilePath string) ([]string, error) {
	fileHandle, openError := os.Open(ignoreFilePath)
	if openError != nil {
		if os.IsNotExist(openError) {
			return nil, nil
		}
		return nil, fmt.Errorf(readIgnoreFileFormat, ignoreFilePath, openError)
	}
	defer fileHandle.Close()

	var lines []string
	scanner := bufio.NewScanner(fileHandle)
	for scanner.Scan() {
		trimmedLine := strings.TrimSpace(scanner.Text())
		if trimmedLine == "" || strings.HasPrefix(trimmedLine, commentPrefix) {
			continue
		}
		lines = append(lines, trimmedLine)
	}
	if scanError := scanner.Err(); scanError != nil {
		return nil, fmt.Errorf(readIgnoreFileFormat, ignoreFilePath, scanError)
	}
	return lines, nil
}

// LoadRootGitIgnore reads the .gitignore file located directly in rootDirectory.
func LoadRootGitIgnore(rootDirectory string) ([]string, error) {
	return LoadIgnoreFileLines(filepath.Join(rootDirectory, utils.GitIgnoreFileName))
}

// normalizePattern trims surrounding space, a leading "./" and a trailing "/" so that "build/"
// selects the directory entry "build". Backslashes are kept because they escape glob metacharacters.
func normalizePattern(pattern string) string {
	normalized := strings.TrimPrefix(strings.TrimSpace(pattern), currentDirectoryPrefix)
	return strings.TrimSuffix(normalized, forwardSlashSeparator)
}

// compileVariants compiles every spelling of pattern in which each "**/" segment is either kept or
// removed.
func compileVariants(pattern string) ([]glob.Glob, error) {
	escaped := escapeBraces(pattern)
	var compiled []glob.Glob
	for _, variant := range utils.DeduplicatePatterns(expandRecursiveSegments(escaped)) {
		matcher, err := glob.Compile(variant)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, matcher)
	}
	return compiled, nil
}

// expandRecursiveSegments returns pattern plus every variant with one or more "**/" segments
// collapsed. Only segments at the start of the pattern or after a "/" are recursive.
func expandRecursiveSegments(pattern string) []string {
	for offset := 0; offset < len(pattern); {
		index := strings.Index(pattern[offset:], recursiveSegment)
		if index < 0 {
			break
		}
		position := offset + index
		if position == 0 || pattern[position-1] == '/' {
			prefix := pattern[:position]
			var variants []string
			for _, tail := range expandRecursiveSegments(pattern[position+len(recursiveSegment):]) {
				variants = append(variants, prefix+recursiveSegment+tail, prefix+tail)
			}
			return variants
		}
		offset = position + 1
	}
	return []string{pattern}
}

// escapeBraces turns unescaped "{" and "}" into literals.
func escapeBraces(pattern string) string {
	var builder strings.Builder
	for index := 0; index < len(pattern); index++ {
		character := pattern[index]
		switch {
		case character == escapeCharacter && index+1 < len(pattern):
			builder.WriteByte(character)
			index++
			builder.WriteByte(pattern[index])
		case character == '{' || character == '}':
			builder.WriteByte(escapeCharacter)
			builder.WriteByte(character)
		default:
			builder.WriteByte(character)
		}
	}
	return builder.String()
}

func normalizePath(path string) string {
	normalized := strings.ReplaceAll(strings.TrimSpace(path), backslashSeparator, forwardSlashSeparator)
	return strings.TrimPrefix(normalized, currentDirectoryPrefix)
}
