package flatten

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/flattree/internal/utils"
)

const (
	blockDelimiter        = "--------------------------------------------------"
	unreadablePlaceholder = "[Error: could not read file. It may be binary.]"
	listingTerminator     = "\n\n"
	blockTerminator       = "\n\n"
	numberedLineFormat    = "%*d | %s\n"
)

// Renderer writes numbered file blocks.
type Renderer struct {
	Logger *zap.Logger
}

// Render renders every file with the default renderer.
func Render(ctx context.Context, files []Entry, reporter ProgressReporter) (string, error) {
	return Renderer{}.Render(ctx, files, reporter)
}

// Render reads files in order and returns their concatenated blocks. The reporter sees
// {0,total} first and {i+1,total} after each block. A file that cannot be read as text
// is rendered as a placeholder line. Rendering stops between files when ctx is done.
func (renderer Renderer) Render(ctx context.Context, files []Entry, reporter ProgressReporter) (string, error) {
	var builder strings.Builder
	total := len(files)
	notify(reporter, Progress{Processed: 0, Total: total})

	for index, file := range files {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		renderer.renderFile(&builder, file)
		notify(reporter, Progress{Processed: index + 1, Total: total})
	}
	return builder.String(), nil
}

func (renderer Renderer) renderFile(builder *strings.Builder, file Entry) {
	builder.WriteString(blockDelimiter)
	builder.WriteString("\n/")
	builder.WriteString(file.RelativePath)
	builder.WriteString("\n")
	builder.WriteString(blockDelimiter)
	builder.WriteString("\n\n")

	data, readErr := os.ReadFile(file.AbsolutePath)
	switch {
	case readErr != nil:
		renderer.logger().Warn("failed to read file", zap.String("path", file.RelativePath), zap.Error(readErr))
		builder.WriteString(unreadablePlaceholder)
		builder.WriteString("\n")
	case utils.IsBinary(data):
		renderer.logger().Warn("skipping non-text file", zap.String("path", file.RelativePath))
		builder.WriteString(unreadablePlaceholder)
		builder.WriteString("\n")
	default:
		writeNumberedLines(builder, string(data))
	}
	builder.WriteString(blockTerminator)
}

func writeNumberedLines(builder *strings.Builder, content string) {
	lines := SplitLines(content)
	width := LineNumberWidth(len(lines))
	for index, line := range lines {
		fmt.Fprintf(builder, numberedLineFormat, width, index+1, line)
	}
}

// LineNumberWidth is the number of decimal digits in lineCount, at least 1.
func LineNumberWidth(lineCount int) int {
	if lineCount <= 0 {
		return 1
	}
	return len(strconv.Itoa(lineCount))
}

// SplitLines splits on "\n", dropping a "\r" before it. A trailing newline does not start
// another line and empty content has no lines.
func SplitLines(content string) []string {
	if content == "" {
		return nil
	}
	terminated := strings.HasSuffix(content, "\n")
	lines := strings.Split(strings.TrimSuffix(content, "\n"), "\n")
	for index, line := range lines {
		if index < len(lines)-1 || terminated {
			lines[index] = strings.TrimSuffix(line, "\r")
		}
	}
	return lines
}

func (renderer Renderer) logger() *zap.Logger {
	if renderer.Logger == nil {
		return zap.NewNop()
	}
	return renderer.Logger
}
