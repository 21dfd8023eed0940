package stream

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"
)

// Dispatch runs produce and consume concurrently over an unbuffered channel. The channel is
// closed when produce returns. Cancellation of ctx is not reported as an error.
func Dispatch(
	ctx context.Context,
	produce func(context.Context, chan<- Event) error,
	consume func(Event) error,
) error {
	group, streamCtx := errgroup.WithContext(ctx)
	events := make(chan Event)

	group.Go(func() error {
		defer close(events)
		return produce(streamCtx, events)
	})

	group.Go(func() error {
		for {
			select {
			case <-streamCtx.Done():
				return streamCtx.Err()
			case event, ok := <-events:
				if !ok {
					return nil
				}
				if err := consume(event); err != nil {
					return err
				}
			}
		}
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
