package output

import (
	"errors"
	"fmt"
	"io"

	"github.com/temirov/flattree/internal/services/stream"
)

const (
	tokenSummaryFormat = "Tokens: %d\n"
	warningLineFormat  = "Warning: %s\n"
)

type rawStreamRenderer struct {
	stdout  io.Writer
	stderr  io.Writer
	done    bool
	failure string
}

// NewRawStreamRenderer prints the merged document to stdout and the token count and warnings to stderr.
func NewRawStreamRenderer(stdout, stderr io.Writer) StreamRenderer {
	return &rawStreamRenderer{stdout: stdout, stderr: stderr}
}

func (renderer *rawStreamRenderer) Handle(event stream.Event) error {
	switch event.Kind {
	case stream.EventKindError:
		if event.Err != nil {
			renderer.failure = event.Err.Message
		}
	case stream.EventKindDone:
		if event.Result == nil {
			return nil
		}
		renderer.done = true
		if renderer.stderr != nil {
			for _, warning := range event.Result.Warnings {
				fmt.Fprintf(renderer.stderr, warningLineFormat, warning.String())
			}
		}
		if _, err := io.WriteString(renderer.stdout, event.Result.Content); err != nil {
			return fmt.Errorf("write content: %w", err)
		}
		if renderer.stderr != nil {
			fmt.Fprintf(renderer.stderr, tokenSummaryFormat, event.Result.TokenCount)
		}
	}
	return nil
}

func (renderer *rawStreamRenderer) Flush() error {
	if renderer.done {
		return nil
	}
	if renderer.failure != "" {
		return errors.New(renderer.failure)
	}
	return ErrNoResult
}
