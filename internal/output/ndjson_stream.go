package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/temirov/flattree/internal/ignore"
	"github.com/temirov/flattree/internal/services/stream"
)

// StreamMessage is one newline-delimited JSON line of a scan stream. Exactly one of progress,
// done or error is set.
type StreamMessage struct {
	Progress   *float64         `json:"progress,omitempty"`
	Done       bool             `json:"done,omitempty"`
	Content    *string          `json:"content,omitempty"`
	TokenCount *int             `json:"token_count,omitempty"`
	Warnings   []ignore.Warning `json:"warnings,omitempty"`
	Error      string           `json:"error,omitempty"`
}

// MessageForEvent converts an event into its wire message. Unknown events yield false.
func MessageForEvent(event stream.Event) (StreamMessage, bool) {
	switch event.Kind {
	case stream.EventKindProgress:
		if event.Progress == nil {
			return StreamMessage{}, false
		}
		percent := event.Progress.Percent()
		return StreamMessage{Progress: &percent}, true
	case stream.EventKindDone:
		if event.Result == nil {
			return StreamMessage{}, false
		}
		content := event.Result.Content
		tokenCount := event.Result.TokenCount
		return StreamMessage{Done: true, Content: &content, TokenCount: &tokenCount, Warnings: event.Result.Warnings}, true
	case stream.EventKindError:
		message := "analysis task failed"
		if event.Err != nil && event.Err.Message != "" {
			message = event.Err.Message
		}
		return StreamMessage{Error: message}, true
	default:
		return StreamMessage{}, false
	}
}

type ndjsonStreamRenderer struct {
	encoder *json.Encoder
	flush   func()
}

// NewNDJSONStreamRenderer writes one JSON object per event. flush, when set, runs after every line.
func NewNDJSONStreamRenderer(writer io.Writer, flush func()) StreamRenderer {
	encoder := json.NewEncoder(writer)
	encoder.SetEscapeHTML(false)
	return &ndjsonStreamRenderer{encoder: encoder, flush: flush}
}

func (renderer *ndjsonStreamRenderer) Handle(event stream.Event) error {
	message, ok := MessageForEvent(event)
	if !ok {
		return nil
	}
	if err := renderer.encoder.Encode(message); err != nil {
		return fmt.Errorf("encode stream message: %w", err)
	}
	if renderer.flush != nil {
		renderer.flush()
	}
	return nil
}

func (renderer *ndjsonStreamRenderer) Flush() error {
	if renderer.flush != nil {
		renderer.flush()
	}
	return nil
}
