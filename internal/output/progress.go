package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/temirov/flattree/internal/flatten"
	"github.com/temirov/flattree/internal/services/stream"
)

const (
	progressBarWidth       = 30
	progressFilledGlyph    = "█"
	progressEmptyGlyph     = "░"
	progressTerminalFormat = "\r%s %s %5.1f%% (%d/%d)"
	progressPlainFormat    = "progress %d/%d (%.0f%%)\n"
	progressLabel          = "scanning"
)

// IsTerminal reports whether file is attached to an interactive terminal.
func IsTerminal(file *os.File) bool {
	if file == nil {
		return false
	}
	descriptor := file.Fd()
	return isatty.IsTerminal(descriptor) || isatty.IsCygwinTerminal(descriptor)
}

type progressRenderer struct {
	writer      io.Writer
	interactive bool
	label       *color.Color
	bar         *color.Color
	done        *color.Color
	failed      *color.Color
	active      bool
}

// NewProgressRenderer draws scan progress on writer. Interactive renderers redraw a single
// colored bar in place; others print one plain line per update.
func NewProgressRenderer(writer io.Writer, interactive bool) StreamRenderer {
	renderer := &progressRenderer{
		writer:      writer,
		interactive: interactive,
		label:       color.New(color.FgCyan, color.Bold),
		bar:         color.New(color.FgGreen),
		done:        color.New(color.FgGreen, color.Bold),
		failed:      color.New(color.FgRed, color.Bold),
	}
	if !interactive {
		for _, painter := range []*color.Color{renderer.label, renderer.bar, renderer.done, renderer.failed} {
			painter.DisableColor()
		}
	}
	return renderer
}

func (renderer *progressRenderer) Handle(event stream.Event) error {
	switch event.Kind {
	case stream.EventKindProgress:
		if event.Progress != nil {
			renderer.drawProgress(*event.Progress)
		}
	case stream.EventKindDone:
		renderer.finish(renderer.done.Sprint("done"))
	case stream.EventKindError:
		message := "failed"
		if event.Err != nil {
			message = event.Err.Message
		}
		renderer.finish(renderer.failed.Sprint(message))
	}
	return nil
}

func (renderer *progressRenderer) Flush() error {
	return nil
}

func (renderer *progressRenderer) drawProgress(progress flatten.Progress) {
	percent := progress.Percent()
	if !renderer.interactive {
		fmt.Fprintf(renderer.writer, progressPlainFormat, progress.Processed, progress.Total, percent)
		return
	}
	renderer.active = true
	fmt.Fprintf(renderer.writer, progressTerminalFormat,
		renderer.label.Sprint(progressLabel),
		renderer.bar.Sprint(progressBar(percent)),
		percent,
		progress.Processed,
		progress.Total,
	)
}

func (renderer *progressRenderer) finish(status string) {
	if renderer.interactive && renderer.active {
		fmt.Fprint(renderer.writer, " ")
	}
	fmt.Fprintln(renderer.writer, status)
	renderer.active = false
}

func progressBar(percent float64) string {
	filled := int(percent / 100 * progressBarWidth)
	if filled > progressBarWidth {
		filled = progressBarWidth
	}
	if filled < 0 {
		filled = 0
	}
	return strings.Repeat(progressFilledGlyph, filled) + strings.Repeat(progressEmptyGlyph, progressBarWidth-filled)
}
