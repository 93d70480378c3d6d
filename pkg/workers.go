package readout

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// SubEventSource yields sub-events until io.EOF.
type SubEventSource interface {
	Next() (*SubEvent, error)
}

// SendSubEvents reads sub-events from source into subEvents, skipping the
// first skip of them and stopping after maxEvents. subEvents is closed on
// return. A panic while decoding is reported as an error.
func SendSubEvents(ctx context.Context, source SubEventSource, subEvents chan<- *SubEvent,
	skip int, maxEvents int) (err error) {
	defer close(subEvents)
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sub-event reader recovered from panic: %v", r)
		}
	}()

	count := -1
	for {
		subEvent, readErr := source.Next()
		if errors.Is(readErr, io.EOF) {
			return nil
		}
		if readErr != nil {
			return readErr
		}
		count++
		if count >= maxEvents {
			return nil
		}
		if count < skip {
			continue
		}
		select {
		case subEvents <- subEvent:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Simulate feeds every sub-event to the orchestrator, raising a trigger at
// the current time for the sub-events flagged as triggers, and advances the
// clock by spacing after each one. Pending triggers are flushed at the end.
func Simulate(ctx context.Context, orchestrator *Orchestrator, clock *SimClock,
	subEvents <-chan *SubEvent, spacing float64) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case subEvent, ok := <-subEvents:
			if !ok {
				return orchestrator.Flush()
			}
			if subEvent.Trigger {
				orchestrator.Trigger(TriggerSignal{Number: subEvent.Number, Time: clock.Time()})
			}
			if err := orchestrator.ProcessSubEvent(subEvent); err != nil {
				return err
			}
			clock.Advance(spacing)
		}
	}
}
