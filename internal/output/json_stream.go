package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/temirov/flattree/internal/flatten"
	"github.com/temirov/flattree/internal/services/stream"
)

// ErrNoResult is returned when a stream ends without a done event.
var ErrNoResult = errors.New("scan produced no result")

type jsonStreamRenderer struct {
	stdout  io.Writer
	result  *flatten.Result
	failure string
}

// NewJSONStreamRenderer writes a single {content, token_count, warnings} document once the scan ends.
func NewJSONStreamRenderer(stdout io.Writer) StreamRenderer {
	return &jsonStreamRenderer{stdout: stdout}
}

func (renderer *jsonStreamRenderer) Handle(event stream.Event) error {
	switch event.Kind {
	case stream.EventKindDone:
		renderer.result = event.Result
	case stream.EventKindError:
		if event.Err != nil {
			renderer.failure = event.Err.Message
		}
	}
	return nil
}

func (renderer *jsonStreamRenderer) Flush() error {
	if renderer.result == nil {
		if renderer.failure != "" {
			return errors.New(renderer.failure)
		}
		return ErrNoResult
	}
	encoder := json.NewEncoder(renderer.stdout)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(renderer.result); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	return nil
}
