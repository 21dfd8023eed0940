// Package flatten turns a directory tree into a single numbered text document.
package flatten

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/flattree/internal/ignore"
	"github.com/temirov/flattree/internal/utils"
)

const (
	rootMarkerLine    = "."
	listingIndent     = "  "
	listingEntryGlyph = "├── "

	errorRootStatFormat     = "inspect scan root %s: %w"
	errorRootAbsoluteFormat = "resolve scan root %s: %w"
	errorRootNotDirectory   = "scan root %s is not a directory"
)

// Entry is one visited filesystem object below the scan root.
type Entry struct {
	// RelativePath is slash separated and relative to the scan root.
	RelativePath string
	// AbsolutePath is the location used to read the entry.
	AbsolutePath string
	// Depth counts the components of RelativePath.
	Depth  int
	IsFile bool
}

// Tree is the result of a single traversal.
type Tree struct {
	// Listing holds the root marker followed by one indented line per visited entry.
	Listing string
	// Entries lists every visited entry in traversal order.
	Entries []Entry
	// Files lists the entries that resolve to regular files, in traversal order.
	Files []Entry
}

// Walker performs depth-first pre-order traversals that prune ignored subtrees.
type Walker struct {
	Matcher *ignore.Matcher
	// FollowSymlinks descends into symbolic links that point at directories.
	// Each canonical directory is entered at most once.
	FollowSymlinks bool
	Logger         *zap.Logger
}

// Walk traverses root with the provided matcher, leaving symbolic links to directories unvisited.
func Walk(ctx context.Context, root string, matcher *ignore.Matcher) (Tree, error) {
	walker := Walker{Matcher: matcher}
	return walker.Walk(ctx, root)
}

type walkState struct {
	root    string
	listing strings.Builder
	tree    Tree
	visited map[string]struct{}
}

// Walk traverses root. The root itself is never listed. Entries that cannot be inspected are
// listed and skipped; unreadable directories are listed without children.
func (walker Walker) Walk(ctx context.Context, root string) (Tree, error) {
	absoluteRoot, absoluteErr := filepath.Abs(root)
	if absoluteErr != nil {
		return Tree{}, fmt.Errorf(errorRootAbsoluteFormat, root, absoluteErr)
	}
	rootInfo, statErr := os.Stat(absoluteRoot)
	if statErr != nil {
		return Tree{}, fmt.Errorf(errorRootStatFormat, root, statErr)
	}
	if !rootInfo.IsDir() {
		return Tree{}, fmt.Errorf(errorRootNotDirectory, root)
	}

	state := &walkState{root: absoluteRoot, visited: map[string]struct{}{}}
	if walker.FollowSymlinks {
		if canonicalRoot, canonicalErr := filepath.EvalSymlinks(absoluteRoot); canonicalErr == nil {
			state.visited[canonicalRoot] = struct{}{}
		}
	}
	state.listing.WriteString(rootMarkerLine)
	state.listing.WriteString("\n")

	if walkErr := walker.walkDirectory(ctx, state, absoluteRoot); walkErr != nil {
		return Tree{}, walkErr
	}
	state.tree.Listing = state.listing.String()
	return state.tree, nil
}

func (walker Walker) walkDirectory(ctx context.Context, state *walkState, directoryPath string) error {
	directoryEntries, readErr := os.ReadDir(directoryPath)
	if readErr != nil {
		walker.logger().Warn("skipping unreadable directory", zap.String("path", directoryPath), zap.Error(readErr))
		return nil
	}

	for _, directoryEntry := range directoryEntries {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		childPath := filepath.Join(directoryPath, directoryEntry.Name())
		relativePath := utils.RelativePathOrSelf(childPath, state.root)
		isDirectory := directoryEntry.IsDir()
		if pattern, ignored := walker.Matcher.MatchingPattern(relativePath, isDirectory); ignored {
			walker.logger().Debug("ignoring entry", zap.String("path", relativePath), zap.String("pattern", pattern))
			continue
		}

		entry := Entry{
			RelativePath: relativePath,
			AbsolutePath: childPath,
			Depth:        utils.PathDepth(relativePath),
		}
		descend := isDirectory
		if directoryEntry.Type()&fs.ModeSymlink != 0 {
			targetInfo, targetErr := os.Stat(childPath)
			if targetErr != nil {
				walker.logger().Debug("dangling symbolic link", zap.String("path", relativePath), zap.Error(targetErr))
			} else {
				entry.IsFile = targetInfo.Mode().IsRegular()
				descend = targetInfo.IsDir() && walker.FollowSymlinks && state.enter(childPath)
			}
		} else if !isDirectory {
			entry.IsFile = directoryEntry.Type().IsRegular()
		} else if walker.FollowSymlinks && !state.enter(childPath) {
			descend = false
		}

		state.record(entry, directoryEntry.Name())
		if descend {
			if walkErr := walker.walkDirectory(ctx, state, childPath); walkErr != nil {
				return walkErr
			}
		}
	}
	return nil
}

func (state *walkState) record(entry Entry, name string) {
	state.listing.WriteString(strings.Repeat(listingIndent, entry.Depth))
	state.listing.WriteString(listingEntryGlyph)
	state.listing.WriteString(name)
	state.listing.WriteString("\n")
	state.tree.Entries = append(state.tree.Entries, entry)
	if entry.IsFile {
		state.tree.Files = append(state.tree.Files, entry)
	}
}

// enter reports whether the canonical form of directoryPath has not been visited yet and marks it.
func (state *walkState) enter(directoryPath string) bool {
	canonicalPath, canonicalErr := filepath.EvalSymlinks(directoryPath)
	if canonicalErr != nil {
		return false
	}
	if _, seen := state.visited[canonicalPath]; seen {
		return false
	}
	state.visited[canonicalPath] = struct{}{}
	return true
}

func (walker Walker) logger() *zap.Logger {
	if walker.Logger == nil {
		return zap.NewNop()
	}
	return walker.Logger
}
