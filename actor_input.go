package compositor

import (
	"io"
	"log/slog"
	"sync/atomic"

	"github.com/muesli/cancelreader"
)

// InputActor owns a dedicated goroutine that blocks on the terminal's raw
// byte stream, decodes it into InputEvents, and forwards them on a
// bounded channel. Shutdown is cooperative: Shutdown cancels the
// in-flight read so a blocked InputActor unblocks immediately instead of
// waiting for the next keypress.
type InputActor struct {
	reader   cancelreader.CancelReader
	events   chan InputEvent
	done     chan struct{}
	shutdown atomic.Bool
}

// SpawnInputActor wraps r as a cancellable reader and starts decoding it
// on its own goroutine, with events delivered on a channel of capacity
// 64.
func SpawnInputActor(r io.Reader) (*InputActor, error) {
	cr, err := cancelreader.NewReader(r)
	if err != nil {
		return nil, NewTerminalIOError("create input reader", err)
	}
	a := &InputActor{
		reader: cr,
		events: make(chan InputEvent, 64),
		done:   make(chan struct{}),
	}
	go a.run()
	return a, nil
}

// Events returns the channel input events are delivered on.
func (a *InputActor) Events() <-chan InputEvent { return a.events }

func (a *InputActor) run() {
	defer close(a.done)
	defer func() {
		if r := recover(); r != nil {
			slog.Error("compositor: input actor panic", "recovered", r)
			a.trySend(InputEvent{Kind: EventShutdown})
		}
	}()

	decoder := NewDecoder(a.reader)
	for {
		ev, err := decoder.Next()
		if err != nil {
			if a.shutdown.Load() {
				a.trySend(InputEvent{Kind: EventShutdown})
			} else {
				a.trySend(InputEvent{Kind: EventError, Err: NewTerminalIOError("read input", err)})
			}
			return
		}
		a.events <- ev
	}
}

// trySend delivers ev without blocking forever if the consumer has
// already stopped reading during shutdown.
func (a *InputActor) trySend(ev InputEvent) {
	select {
	case a.events <- ev:
	default:
	}
}

// Shutdown cancels the pending read, unblocking the actor goroutine.
func (a *InputActor) Shutdown() {
	a.shutdown.Store(true)
	a.reader.Cancel()
}

// Join requests shutdown and waits for the actor goroutine to exit.
func (a *InputActor) Join() {
	a.Shutdown()
	<-a.done
	_ = a.reader.Close()
}
