// Package stream runs scans in the background and relays their events to a consumer channel.
package stream

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/temirov/flattree/internal/flatten"
)

const (
	errorNilChannel         = "stream: event channel is nil"
	defaultFailureMessage   = "analysis task failed"
	defaultTimeoutMessage   = "analysis timed out"
	defaultCancelledMessage = "analysis cancelled"
)

// ScanOptions configures a streamed scan.
type ScanOptions struct {
	Pipeline flatten.Pipeline
	Request  flatten.Request
	// Timeout bounds the scan when positive.
	Timeout time.Duration
	Logger  *zap.Logger
}

// emitter queues events without bounds and relays them to out in order from its own goroutine,
// so progress notifications never wait for the consumer. Only finish blocks.
type emitter struct {
	ctx    context.Context
	out    chan<- Event
	scanID string

	mutex    sync.Mutex
	pending  []Event
	closed   bool
	wake     chan struct{}
	finished chan struct{}
	err      error
}

func newEmitter(ctx context.Context, out chan<- Event, scanID string) *emitter {
	if ctx == nil {
		ctx = context.Background()
	}
	e := &emitter{
		ctx:      ctx,
		out:      out,
		scanID:   scanID,
		wake:     make(chan struct{}, 1),
		finished: make(chan struct{}),
	}
	go e.relay()
	return e
}

func (e *emitter) enqueue(event Event, last bool) {
	event.ScanID = e.scanID
	if event.EmittedAt.IsZero() {
		event.EmittedAt = time.Now().UTC()
	}
	e.mutex.Lock()
	if e.closed {
		e.mutex.Unlock()
		return
	}
	e.pending = append(e.pending, event)
	e.closed = last
	e.mutex.Unlock()
	select {
	case e.wake <- struct{}{}:
	default:
	}
}

func (e *emitter) relay() {
	defer close(e.finished)
	for {
		e.mutex.Lock()
		batch := e.pending
		e.pending = nil
		closed := e.closed
		e.mutex.Unlock()

		for _, event := range batch {
			select {
			case <-e.ctx.Done():
				e.err = e.ctx.Err()
				return
			case e.out <- event:
			}
		}
		if closed {
			return
		}
		select {
		case <-e.ctx.Done():
			e.err = e.ctx.Err()
			return
		case <-e.wake:
		}
	}
}

// Notify queues progress for the consumer and returns immediately. Queued events are dropped
// once the consumer went away.
func (e *emitter) Notify(progress flatten.Progress) {
	snapshot := progress
	e.enqueue(Event{Kind: EventKindProgress, Progress: &snapshot}, false)
}

// finish queues the terminal event and waits until every queued event was delivered or ctx ended.
func (e *emitter) finish(event Event) error {
	e.enqueue(event, true)
	<-e.finished
	return e.err
}

// Scan runs the pipeline and writes zero or more progress events followed by exactly one done
// or error event to out. Progress is queued, so a slow consumer never stalls the scan. Scan failures travel as error events; the returned error is non-nil only
// when the events could not be delivered because ctx ended. Scan does not close out.
func Scan(ctx context.Context, options ScanOptions, out chan<- Event) error {
	if out == nil {
		return errors.New(errorNilChannel)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	scanID := uuid.NewString()
	logger = logger.With(zap.String("scan_id", scanID))

	scanCtx := ctx
	if options.Timeout > 0 {
		var cancel context.CancelFunc
		scanCtx, cancel = context.WithTimeout(ctx, options.Timeout)
		defer cancel()
	}

	events := newEmitter(ctx, out, scanID)
	pipeline := options.Pipeline
	if pipeline.Logger == nil {
		pipeline.Logger = logger
	}
	result, runErr := pipeline.Run(scanCtx, options.Request, events)
	if runErr != nil {
		message := FailureMessage(runErr)
		logger.Warn("streamed scan failed", zap.String("root", options.Request.Root), zap.Error(runErr))
		return events.finish(Event{Kind: EventKindError, Err: &ErrorEvent{Message: message}})
	}
	return events.finish(Event{Kind: EventKindDone, Result: &result})
}

// FailureMessage maps a scan error to the message shown to clients.
func FailureMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.DeadlineExceeded):
		return defaultTimeoutMessage
	case errors.Is(err, context.Canceled):
		return defaultCancelledMessage
	case errors.Is(err, flatten.ErrScanFailed):
		return defaultFailureMessage
	default:
		return fmt.Sprintf("%s: %v", defaultFailureMessage, err)
	}
}
