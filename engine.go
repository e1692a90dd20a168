package compositor

import (
	"os"
	"time"
)

// EngineConfig configures Engine construction. There is no file format to
// load it from — the engine persists nothing — so it is built entirely
// through functional options, per the teacher's declarative option-struct
// convention.
type EngineConfig struct {
	TargetFPS       int
	InputPollTimeout time.Duration
	MouseCapture    bool
	AlternateScreen bool
}

// DefaultEngineConfig returns the engine's default configuration: 60 FPS,
// alternate screen on, mouse capture off.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		TargetFPS:        60,
		InputPollTimeout: 10 * time.Millisecond,
		AlternateScreen:  true,
	}
}

// Option mutates an EngineConfig during NewEngine.
type Option func(*EngineConfig)

// WithTargetFPS sets the frame rate EndFrame paces against.
func WithTargetFPS(fps int) Option {
	return func(c *EngineConfig) { c.TargetFPS = fps }
}

// WithMouseCapture turns on SGR mouse event reporting.
func WithMouseCapture(enabled bool) Option {
	return func(c *EngineConfig) { c.MouseCapture = enabled }
}

// WithAlternateScreen controls whether the engine switches to the
// terminal's alternate screen buffer.
func WithAlternateScreen(enabled bool) Option {
	return func(c *EngineConfig) { c.AlternateScreen = enabled }
}

// WithPollTimeout is retained for configuration-surface parity with the
// poll-based terminal devices this design was adapted from; the actual
// input actor unblocks via cancellation rather than a poll timeout, so
// this value is not read by the runtime.
func WithPollTimeout(d time.Duration) Option {
	return func(c *EngineConfig) { c.InputPollTimeout = d }
}

// Engine is the application-facing façade: it owns the terminal, the
// input/renderer actors, and the drawing buffer, and exposes a frame-
// oriented API on top of the message-passing runtime beneath it.
type Engine struct {
	config EngineConfig
	term   *Terminal

	input    *InputActor
	renderer *RendererActor
	ticker   *TickerActor

	buffer *Buffer
	width  int
	height int

	frameStart    time.Time
	frameDuration time.Duration
	frameCount    uint64

	running bool
}

// NewEngine constructs an engine from DefaultEngineConfig with opts
// applied in order.
func NewEngine(opts ...Option) (*Engine, error) {
	cfg := DefaultEngineConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	term := NewTerminal(nil)
	size, err := term.Size()
	if err != nil {
		size = Size{Width: 80, Height: 24}
	}

	if err := term.EnableRawMode(); err != nil {
		return nil, err
	}

	setup := func() error {
		if cfg.AlternateScreen {
			if err := term.EnterAlternateScreen(); err != nil {
				return err
			}
		}
		if cfg.MouseCapture {
			if err := term.EnableMouseCapture(); err != nil {
				return err
			}
		}
		if err := term.HideCursor(); err != nil {
			return err
		}
		return term.EnableBracketedPaste()
	}
	if err := setup(); err != nil {
		_ = term.Close()
		return nil, err
	}

	inputActor, err := SpawnInputActor(os.Stdin)
	if err != nil {
		_ = term.Close()
		return nil, err
	}

	renderer := SpawnRendererActor(term, size.Width, size.Height)

	fps := cfg.TargetFPS
	if fps <= 0 {
		fps = 60
	}

	return &Engine{
		config:        cfg,
		term:          term,
		input:         inputActor,
		renderer:      renderer,
		buffer:        NewBuffer(size.Width, size.Height),
		width:         size.Width,
		height:        size.Height,
		frameDuration: time.Second / time.Duration(fps),
		running:       true,
	}, nil
}

// Width returns the current buffer/terminal width.
func (e *Engine) Width() int { return e.width }

// Height returns the current buffer/terminal height.
func (e *Engine) Height() int { return e.height }

// Buffer returns the application-owned drawing buffer.
func (e *Engine) Buffer() *Buffer { return e.buffer }

// IsRunning reports whether Stop has been called yet.
func (e *Engine) IsRunning() bool { return e.running }

// EnableTicker starts an optional frame ticker at the given interval,
// for animation-driven rather than input-driven applications.
func (e *Engine) EnableTicker(interval time.Duration) {
	e.ticker = SpawnTickerActor(interval)
}

// Ticks returns the ticker's channel, or nil if EnableTicker was never
// called.
func (e *Engine) Ticks() <-chan Tick {
	if e.ticker == nil {
		return nil
	}
	return e.ticker.Ticks()
}

// PollInput returns the next available input or resize event without
// blocking, and false if none is pending.
func (e *Engine) PollInput() (InputEvent, bool) {
	select {
	case ev := <-e.input.Events():
		return ev, true
	case size := <-e.term.ResizeChan():
		e.HandleResize(size.Width, size.Height)
		return InputEvent{Kind: EventResize, Width: size.Width, Height: size.Height}, true
	default:
		return InputEvent{}, false
	}
}

// WaitInput blocks for up to timeout for the next input or resize event.
func (e *Engine) WaitInput(timeout time.Duration) (InputEvent, bool) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case ev := <-e.input.Events():
		return ev, true
	case size := <-e.term.ResizeChan():
		e.HandleResize(size.Width, size.Height)
		return InputEvent{Kind: EventResize, Width: size.Width, Height: size.Height}, true
	case <-timer.C:
		return InputEvent{}, false
	}
}

// DrainInput collects every currently pending input event without
// blocking.
func (e *Engine) DrainInput() []InputEvent {
	var events []InputEvent
	for {
		ev, ok := e.PollInput()
		if !ok {
			return events
		}
		events = append(events, ev)
	}
}

// RequestRedraw posts a snapshot of the buffer to the renderer for a full
// redraw. The snapshot is drawn from the shared buffer pool rather than
// allocated fresh, since a post happens every frame at sustained
// throughput.
func (e *Engine) RequestRedraw() {
	e.renderer.Commands() <- RenderCommand{Kind: RenderFullRedraw, Buffer: e.snapshot()}
}

// RequestUpdate posts a snapshot of the buffer to the renderer for a
// differential update. Pool-backed for the same reason as RequestRedraw.
func (e *Engine) RequestUpdate() {
	e.renderer.Commands() <- RenderCommand{Kind: RenderUpdate, Buffer: e.snapshot()}
}

// snapshot copies the engine's buffer into a pool-recycled one for
// posting across the render command channel.
func (e *Engine) snapshot() *Buffer {
	snap := GetBuffer(e.width, e.height)
	snap.CopyFrom(e.buffer)
	return snap
}

// SetCursor remembers a cursor position (or hidden, if x is nil) for the
// renderer to apply at the tail of its next render — it does not write
// anything on its own.
func (e *Engine) SetCursor(x *int, y int) {
	e.renderer.Commands() <- RenderCommand{Kind: RenderSetCursor, CursorX: x, CursorY: y}
}

// WriteRaw sends pre-encoded bytes straight to the terminal, bypassing
// the differ. The renderer will force a full redraw on its next diff
// render to resynchronize its shadow.
func (e *Engine) WriteRaw(p []byte) {
	raw := make([]byte, len(p))
	copy(raw, p)
	e.renderer.Commands() <- RenderCommand{Kind: RenderRawOutput, Raw: raw}
}

// HandleResize updates the engine's own buffer and notifies the renderer
// of the new dimensions.
func (e *Engine) HandleResize(width, height int) {
	e.width = width
	e.height = height
	e.buffer.Resize(width, height)
	e.renderer.Commands() <- RenderCommand{Kind: RenderResize, Width: width, Height: height}
}

// BeginFrame marks the start of a frame for pacing purposes.
func (e *Engine) BeginFrame() {
	e.frameStart = time.Now()
}

// EndFrame requests a differential update and sleeps, if necessary, to
// hold the configured target frame rate.
func (e *Engine) EndFrame() {
	e.frameCount++
	e.RequestUpdate()

	elapsed := time.Since(e.frameStart)
	if elapsed < e.frameDuration {
		time.Sleep(e.frameDuration - elapsed)
	}
}

// FrameCount returns the number of frames EndFrame has completed.
func (e *Engine) FrameCount() uint64 { return e.frameCount }

// SetCell is a convenience wrapper over Buffer.Set.
func (e *Engine) SetCell(x, y int, cell Cell) bool {
	return e.buffer.Set(x, y, cell)
}

// SetGrapheme is a convenience wrapper over Buffer.SetGrapheme.
func (e *Engine) SetGrapheme(x, y int, grapheme string, fg, bg Rgb) int {
	return e.buffer.SetGrapheme(x, y, grapheme, fg, bg)
}

// Clear is a convenience wrapper over Buffer.Clear.
func (e *Engine) Clear() { e.buffer.Clear() }

// FillRect is a convenience wrapper over Buffer.FillRect.
func (e *Engine) FillRect(r Rect, cell Cell) {
	e.buffer.FillRect(r.X, r.Y, r.Width, r.Height, cell)
}

// DrawText writes text at (x, y), one grapheme cluster per cell, and
// returns the number of columns it occupied.
func (e *Engine) DrawText(x, y int, text string, fg, bg Rgb) int {
	col := x
	for _, g := range graphemes(text) {
		if col >= e.width {
			break
		}
		width := e.buffer.SetGrapheme(col, y, g, fg, bg)
		if width == 0 {
			width = 1
		}
		col += width
	}
	return col - x
}

// Stop tears the engine down: joins the input actor, shuts down the
// renderer, stops the ticker if one was started, and always restores the
// terminal (raw mode off, alternate screen off, cursor shown, mouse
// capture off) regardless of what triggered the stop. Safe to call more
// than once.
func (e *Engine) Stop() {
	if !e.running {
		return
	}
	e.running = false

	e.input.Join()
	e.renderer.Shutdown()
	if e.ticker != nil {
		e.ticker.Stop()
	}
	_ = e.term.Close()
}
