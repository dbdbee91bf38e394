package chain

import (
	"context"
)

type EventType string

const (
	EventToken EventType = "token"
	EventDone  EventType = "done"
	EventError EventType = "error"
)

// Event is one item of a streamed run. The last event is always done or error.
type Event struct {
	Type   EventType
	Token  string
	Answer string
	Err    error
}

// Stream runs the pipeline in a goroutine and delivers tokens on the returned channel.
// The channel is closed after the terminal event. Cancelling ctx stops generation;
// the terminal event is then dropped if nobody reads it.
func (c *Chain) Stream(ctx context.Context, req Request) <-chan Event {
	events := make(chan Event)

	go func() {
		defer close(events)

		send := func(ev Event) error {
			select {
			case events <- ev:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		answer, err := c.Run(ctx, req, func(token string) error {
			return send(Event{Type: EventToken, Token: token})
		})
		if err != nil {
			_ = send(Event{Type: EventError, Answer: answer, Err: err})
			return
		}

		_ = send(Event{Type: EventDone, Answer: answer})
	}()

	return events
}
