// Package utils contains general helpers shared across flattree packages.
package utils

import (
	"path/filepath"
	"strings"
)

const pathSegmentSeparator = "/"

// DeduplicatePatterns removes duplicate and blank patterns from a slice while preserving order.
// The first occurrence of each unique pattern is kept.
func DeduplicatePatterns(patterns []string) []string {
	encounteredPatterns := make(map[string]struct{})
	result := make([]string, 0, len(patterns))
	for _, pattern := range patterns {
		if strings.TrimSpace(pattern) == "" {
			continue
		}
		if _, exists := encounteredPatterns[pattern]; !exists {
			encounteredPatterns[pattern] = struct{}{}
			result = append(result, pattern)
		}
	}
	return result
}

// RelativePathOrSelf calculates the slash-separated relative path from root to fullPath.
// Returns the cleaned fullPath if relative calculation fails.
// Returns "." if fullPath and root resolve to the same directory.
func RelativePathOrSelf(fullPath, root string) string {
	cleanPath := filepath.Clean(fullPath)
	cleanRoot := filepath.Clean(root)
	if cleanPath == cleanRoot {
		return "."
	}
	relativePath, relErr := filepath.Rel(cleanRoot, cleanPath)
	if relErr != nil {
		return cleanPath
	}
	return filepath.ToSlash(relativePath)
}

// PathDepth reports the number of components in a slash-separated relative path.
func PathDepth(relativePath string) int {
	trimmed := strings.Trim(relativePath, pathSegmentSeparator)
	if trimmed == "" || trimmed == "." {
		return 0
	}
	return strings.Count(trimmed, pathSegmentSeparator) + 1
}

// IsWithinDirectory reports whether candidatePath equals baseDirectory or lies beneath it.
// Both paths are expected to be absolute and already canonicalized.
func IsWithinDirectory(baseDirectory, candidatePath string) bool {
	relativePath, relErr := filepath.Rel(filepath.Clean(baseDirectory), filepath.Clean(candidatePath))
	if relErr != nil {
		return false
	}
	if relativePath == "." {
		return true
	}
	return relativePath != ".." && !strings.HasPrefix(relativePath, ".."+string(filepath.Separator))
}
