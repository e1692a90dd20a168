package compositor

import "time"

// Tick is a single timing event sent at regular intervals.
type Tick struct {
	Frame   uint64
	Elapsed time.Duration
}

// TickerActor is an optional long-lived goroutine that emits a
// monotonically increasing frame counter, paired with time elapsed since
// the ticker started, at a fixed interval — for applications that want to
// animate without being driven by input. Sends are non-blocking against a
// 2-slot channel: a slow consumer drops intermediate ticks rather than
// building up backlog, and the next tick still fires at its own deadline
// rather than catching up tick-for-tick.
type TickerActor struct {
	ticks chan Tick
	done  chan struct{}
	stop  chan struct{}
}

// SpawnTickerActor starts a ticker goroutine at the given interval.
func SpawnTickerActor(interval time.Duration) *TickerActor {
	t := &TickerActor{
		ticks: make(chan Tick, 2),
		done:  make(chan struct{}),
		stop:  make(chan struct{}),
	}
	go t.run(interval)
	return t
}

// Ticks returns the channel ticks are delivered on.
func (t *TickerActor) Ticks() <-chan Tick { return t.ticks }

func (t *TickerActor) run(interval time.Duration) {
	defer close(t.done)

	start := time.Now()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var frame uint64
	for {
		select {
		case <-t.stop:
			return
		case <-ticker.C:
			tick := Tick{Frame: frame, Elapsed: time.Since(start)}
			select {
			case t.ticks <- tick:
			default:
			}
			frame++
		}
	}
}

// Stop halts the ticker goroutine and waits for it to exit.
func (t *TickerActor) Stop() {
	close(t.stop)
	<-t.done
}
