package flatten

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/temirov/flattree/internal/ignore"
	"github.com/temirov/flattree/internal/tokenizer"
	"github.com/temirov/flattree/internal/utils"
)

const (
	logFieldScanID = "scan_id"
	logFieldRoot   = "root"

	errorWalkFormat      = "walk %s: %w"
	errorRenderFormat    = "render %s: %w"
	errorTokenizeFormat  = "count tokens: %w"
	errorGitIgnoreFormat = "load .gitignore: %w"
	errorPanicFormat     = "%w: %v"
)

// ErrScanFailed marks a scan that aborted unexpectedly.
var ErrScanFailed = errors.New("scan failed")

// Request describes one scan.
type Request struct {
	Root           string
	IgnorePatterns []string
	// UseGitIgnore adds the rules of the root .gitignore to IgnorePatterns.
	UseGitIgnore bool
}

// Result is the merged document, its token count and any non-fatal warnings.
type Result struct {
	Content    string           `json:"content"`
	TokenCount int              `json:"token_count"`
	Warnings   []ignore.Warning `json:"warnings,omitempty"`
	FileCount  int              `json:"-"`
}

// Pipeline walks, renders and tokenizes a directory.
type Pipeline struct {
	Logger *zap.Logger
	// Counter defaults to the shared cl100k_base counter.
	Counter        tokenizer.Counter
	FollowSymlinks bool
}

// Run performs one scan. The returned content is the listing, a blank separator and every
// file block. A panic inside the scan is returned as an error wrapping ErrScanFailed.
func (pipeline Pipeline) Run(ctx context.Context, request Request, reporter ProgressReporter) (result Result, err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := pipeline.logger().With(
		zap.String(logFieldScanID, uuid.NewString()),
		zap.String(logFieldRoot, request.Root),
	)
	defer func() {
		if recovered := recover(); recovered != nil {
			logger.Error("scan panicked", zap.Any("panic", recovered))
			result = Result{}
			err = fmt.Errorf(errorPanicFormat, ErrScanFailed, recovered)
		}
	}()

	startedAt := time.Now()
	logger.Debug("scan started", zap.Strings("ignore_patterns", request.IgnorePatterns))

	matcher, warnings := ignore.Compile(request.IgnorePatterns)
	for _, warning := range warnings {
		logger.Warn("dropping invalid ignore pattern", zap.String("pattern", warning.Pattern), zap.String("reason", warning.Reason))
	}
	if request.UseGitIgnore {
		gitIgnoreLines, gitIgnoreErr := ignore.LoadRootGitIgnore(request.Root)
		if gitIgnoreErr != nil {
			return Result{}, fmt.Errorf(errorGitIgnoreFormat, gitIgnoreErr)
		}
		matcher = matcher.WithGitIgnoreLines(gitIgnoreLines)
	}

	walker := Walker{Matcher: matcher, FollowSymlinks: pipeline.FollowSymlinks, Logger: logger}
	tree, walkErr := walker.Walk(ctx, request.Root)
	if walkErr != nil {
		return Result{}, fmt.Errorf(errorWalkFormat, request.Root, walkErr)
	}

	renderer := Renderer{Logger: logger}
	blocks, renderErr := renderer.Render(ctx, tree.Files, reporter)
	if renderErr != nil {
		return Result{}, fmt.Errorf(errorRenderFormat, request.Root, renderErr)
	}
	content := tree.Listing + listingTerminator + blocks

	counter, counterErr := pipeline.counter()
	if counterErr != nil {
		return Result{}, fmt.Errorf(errorTokenizeFormat, counterErr)
	}
	tokenCount, countErr := counter.CountString(content)
	if countErr != nil {
		return Result{}, fmt.Errorf(errorTokenizeFormat, countErr)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return Result{}, ctxErr
	}

	logger.Info("scan finished",
		zap.Int("files", len(tree.Files)),
		zap.Int("tokens", tokenCount),
		zap.String("size", utils.FormatFileSize(int64(len(content)))),
		zap.Duration("elapsed", time.Since(startedAt)),
	)
	return Result{
		Content:    content,
		TokenCount: tokenCount,
		Warnings:   warnings,
		FileCount:  len(tree.Files),
	}, nil
}

func (pipeline Pipeline) counter() (tokenizer.Counter, error) {
	if pipeline.Counter != nil {
		return pipeline.Counter, nil
	}
	counter, _, err := tokenizer.NewCounter(tokenizer.Config{})
	return counter, err
}

func (pipeline Pipeline) logger() *zap.Logger {
	if pipeline.Logger == nil {
		return zap.NewNop()
	}
	return pipeline.Logger
}
