// Package output turns scan stream events into bytes for HTTP clients and terminals.
package output

import (
	"errors"
	"fmt"
	"io"

	"github.com/temirov/flattree/internal/services/stream"
)

// Supported output formats.
const (
	FormatRaw    = "raw"
	FormatJSON   = "json"
	FormatNDJSON = "ndjson"
)

const errorUnsupportedFormat = "unsupported output format %q"

// StreamRenderer consumes events in order. Flush is called once after the terminal event.
type StreamRenderer interface {
	Handle(event stream.Event) error
	Flush() error
}

// NewStreamRenderer returns the renderer for format writing results to stdout and diagnostics to stderr.
func NewStreamRenderer(format string, stdout, stderr io.Writer) (StreamRenderer, error) {
	switch format {
	case FormatRaw, "":
		return NewRawStreamRenderer(stdout, stderr), nil
	case FormatJSON:
		return NewJSONStreamRenderer(stdout), nil
	case FormatNDJSON:
		return NewNDJSONStreamRenderer(stdout, nil), nil
	default:
		return nil, fmt.Errorf(errorUnsupportedFormat, format)
	}
}

type multiRenderer []StreamRenderer

// Combine fans every event out to each non-nil renderer in order.
func Combine(renderers ...StreamRenderer) StreamRenderer {
	combined := make(multiRenderer, 0, len(renderers))
	for _, renderer := range renderers {
		if renderer != nil {
			combined = append(combined, renderer)
		}
	}
	return combined
}

func (renderers multiRenderer) Handle(event stream.Event) error {
	var handleErrs []error
	for _, renderer := range renderers {
		if err := renderer.Handle(event); err != nil {
			handleErrs = append(handleErrs, err)
		}
	}
	return errors.Join(handleErrs...)
}

func (renderers multiRenderer) Flush() error {
	var flushErrs []error
	for _, renderer := range renderers {
		if err := renderer.Flush(); err != nil {
			flushErrs = append(flushErrs, err)
		}
	}
	return errors.Join(flushErrs...)
}
