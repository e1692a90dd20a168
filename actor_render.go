package compositor

import (
	"bytes"
	"log/slog"
	"time"
)

// RenderCommandKind discriminates RenderCommand's variant.
type RenderCommandKind uint8

const (
	RenderFullRedraw RenderCommandKind = iota
	RenderUpdate
	RenderResize
	RenderSetCursor
	RenderRawOutput
	RenderShutdown
)

// RenderCommand is a message posted to the renderer actor. Buffer carries
// a value-semantics snapshot the renderer takes ownership of (see
// Buffer.Clone); the caller's own buffer is never aliased across the
// channel.
type RenderCommand struct {
	Kind   RenderCommandKind
	Buffer *Buffer

	Width, Height int

	CursorX *int // nil hides the cursor
	CursorY int

	Raw []byte
}

// renderTiming keeps the last 16 render durations to report a smoothed
// per-frame cost, mirroring the teacher's timing instrumentation in
// arena_app.go.
type renderTiming struct {
	samples [16]time.Duration
	count   int
}

func (r *renderTiming) record(d time.Duration) {
	r.samples[r.count%len(r.samples)] = d
	r.count++
}

func (r *renderTiming) average() time.Duration {
	n := len(r.samples)
	if r.count < n {
		n = r.count
	}
	if n == 0 {
		return 0
	}
	var sum time.Duration
	for i := 0; i < n; i++ {
		sum += r.samples[i]
	}
	return sum / time.Duration(n)
}

// RendererActor owns the shadow ("current") buffer and the terminal
// connection. It serializes every write to the terminal through a single
// goroutine so a frame's bytes are never interleaved with another.
type RendererActor struct {
	commands chan RenderCommand
	done     chan struct{}

	term    *Terminal
	current *Buffer
	state   DiffState
	timing  renderTiming

	needsFullRedraw bool

	// cursorX/cursorY are the pending cursor position: nil cursorX means
	// hidden. SetCursor only updates these; the tail sequence they
	// produce is appended to every render's output, per render, not
	// written standalone.
	cursorX *int
	cursorY int
}

// SpawnRendererActor starts the renderer goroutine with an empty shadow
// buffer of the given size, owning term. The command channel has
// capacity 16.
func SpawnRendererActor(term *Terminal, width, height int) *RendererActor {
	r := &RendererActor{
		commands: make(chan RenderCommand, 16),
		done:     make(chan struct{}),
		term:     term,
		current:  NewBuffer(width, height),
	}
	go r.run()
	return r
}

// Commands returns the channel render commands are sent on.
func (r *RendererActor) Commands() chan<- RenderCommand { return r.commands }

func (r *RendererActor) run() {
	defer close(r.done)
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("compositor: renderer actor panic", "recovered", rec)
		}
	}()

	var out bytes.Buffer
	for cmd := range r.commands {
		switch cmd.Kind {
		case RenderShutdown:
			return
		case RenderFullRedraw:
			out.Reset()
			RenderFull(cmd.Buffer, &out, &r.state)
			r.needsFullRedraw = false
			r.appendCursorTail(&out)
			r.write(&out, cmd.Buffer)
		case RenderUpdate:
			start := time.Now()
			out.Reset()
			if r.needsFullRedraw {
				RenderFull(cmd.Buffer, &out, &r.state)
				r.needsFullRedraw = false
			} else {
				RenderDiff(r.current, cmd.Buffer, nil, &out, &r.state)
			}
			r.appendCursorTail(&out)
			r.timing.record(time.Since(start))
			r.write(&out, cmd.Buffer)
		case RenderResize:
			old := r.current
			r.current = NewBuffer(cmd.Width, cmd.Height)
			PutBuffer(old)
			r.state.Reset()
			r.needsFullRedraw = true
		case RenderSetCursor:
			// Remembered only; applied at the tail of the next render
			// (RenderFullRedraw/RenderUpdate), not written standalone.
			r.cursorX = cmd.CursorX
			r.cursorY = cmd.CursorY
		case RenderRawOutput:
			if len(cmd.Raw) > 0 {
				_, _ = r.term.Write(cmd.Raw)
			}
			// The fast path desynchronizes the renderer's shadow from
			// reality: the next diff render must fall back to a full
			// redraw rather than assume it knows what's on screen.
			r.needsFullRedraw = true
			r.state.Reset()
		}
	}
}

// appendCursorTail appends the renderer's pending cursor show/hide
// sequence to the tail of a render's output, per spec: every render
// clears its output, runs the full or diff encoder, then appends cursor
// state before the single write-all. This is cosmetic positioning of the
// terminal's own cursor and deliberately bypasses DiffState — it has no
// bearing on what the differ believes it last wrote.
func (r *RendererActor) appendCursorTail(out *bytes.Buffer) {
	if r.cursorX == nil {
		out.WriteString("\x1b[?25l")
		return
	}
	out.WriteString("\x1b[")
	writeInt(out, r.cursorY+1)
	out.WriteByte(';')
	writeInt(out, *r.cursorX+1)
	out.WriteByte('H')
	out.WriteString("\x1b[?25h")
}

func (r *RendererActor) write(out *bytes.Buffer, next *Buffer) {
	if out.Len() > 0 {
		_, _ = r.term.Write(out.Bytes())
	}
	old := r.current
	r.current = next
	PutBuffer(old)
}

// AverageRenderTime returns the mean of the last (up to 16) RenderUpdate
// durations; RenderFullRedraw commands are not timed. Not safe to call
// concurrently with the renderer goroutine;
// intended for diagnostic use after Shutdown.
func (r *RendererActor) AverageRenderTime() time.Duration {
	return r.timing.average()
}

// Shutdown asks the renderer to stop and waits for it to exit.
func (r *RendererActor) Shutdown() {
	select {
	case r.commands <- RenderCommand{Kind: RenderShutdown}:
	case <-r.done:
		return
	}
	close(r.commands)
	<-r.done
}
