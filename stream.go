package compositor

import (
	"bytes"
)

// StreamConfig configures a StreamWidget.
type StreamConfig struct {
	MaxScrollback int
	DefaultFg     Rgb
	DefaultBg     Rgb
	AutoScroll    bool
	WordWrap      bool
}

// DefaultStreamConfig returns the widget's default configuration: 10000
// lines of scrollback, auto-scroll and word-wrap both on.
func DefaultStreamConfig() StreamConfig {
	return StreamConfig{
		MaxScrollback: 10000,
		DefaultFg:     Rgb{R: 220, G: 220, B: 220},
		DefaultBg:     defaultBg,
		AutoScroll:    true,
		WordWrap:      true,
	}
}

// AppendKind tags which path an Append call took.
type AppendKind uint8

const (
	AppendEmpty AppendKind = iota
	AppendFastPath
	AppendSlowPath
)

// AppendResult reports what Append did: how many characters it wrote and
// where (fast path), or which rectangle needs re-rendering (slow path).
type AppendResult struct {
	Kind       AppendKind
	Chars      int
	StartCol   int
	Row        int
	DirtyRect  Rect
}

// StreamWidget is a streaming text display optimized for high-throughput
// token-by-token output. Appends that fit cleanly on the current line are
// emitted directly as ANSI bytes (fast path, zero added latency); appends
// that wrap or scroll fall back to updating the retained buffer and
// reporting a dirty rectangle for the next differential render (slow
// path).
type StreamWidget struct {
	bounds Rect
	config StreamConfig
	content *ScrollBuffer

	cursorCol, cursorRow int
	currentFg, currentBg Rgb

	needsFullRedraw bool
	dirtyRects      []Rect
}

// NewStreamWidget creates a stream widget with default configuration.
func NewStreamWidget(bounds Rect) *StreamWidget {
	return NewStreamWidgetWithConfig(bounds, DefaultStreamConfig())
}

// NewStreamWidgetWithConfig creates a stream widget with custom
// configuration.
func NewStreamWidgetWithConfig(bounds Rect, config StreamConfig) *StreamWidget {
	return &StreamWidget{
		bounds:          bounds,
		config:          config,
		content:         NewScrollBuffer(config.MaxScrollback),
		currentFg:       config.DefaultFg,
		currentBg:       config.DefaultBg,
		needsFullRedraw: true,
	}
}

// Bounds returns the widget's bounds within the terminal.
func (w *StreamWidget) Bounds() Rect { return w.bounds }

// SetBounds updates the widget's bounds, forcing a full redraw if they
// actually changed.
func (w *StreamWidget) SetBounds(bounds Rect) {
	if bounds != w.bounds {
		w.bounds = bounds
		w.needsFullRedraw = true
	}
}

// SetFg sets the foreground color applied to subsequently appended text.
func (w *StreamWidget) SetFg(fg Rgb) { w.currentFg = fg }

// SetBg sets the background color applied to subsequently appended text.
func (w *StreamWidget) SetBg(bg Rgb) { w.currentBg = bg }

// ResetColors restores the widget's configured default colors.
func (w *StreamWidget) ResetColors() {
	w.currentFg = w.config.DefaultFg
	w.currentBg = w.config.DefaultBg
}

// canFastPath reports whether text can be appended via the fast path:
// the viewport must be scrolled to the bottom, the text must not contain
// a newline, and it must fit in the remaining width of the current line
// without wrapping.
func (w *StreamWidget) canFastPath(text string) bool {
	if !w.content.AtBottom() {
		return false
	}
	for _, r := range text {
		if r == '\n' {
			return false
		}
	}
	available := w.bounds.Width - w.cursorCol
	if available < 0 {
		available = 0
	}
	width := 0
	for _, g := range graphemes(text) {
		width += displayWidth(g)
	}
	return width <= available
}

func (w *StreamWidget) appendFastPath(text string) AppendResult {
	startCol := w.cursorCol
	row := w.cursorRow
	chars := 0

	// The scrollback store holds self-contained cells with no overflow
	// sidetable of its own, so a grapheme cluster too wide to inline
	// (over 4 UTF-8 bytes) is dropped here rather than encoded — the same
	// tradeoff the fast path's source made by filtering out
	// Cell::from_grapheme failures instead of threading an overflow table
	// through the scrollback.
	var cells []Cell
	for _, g := range graphemes(text) {
		cell, ok := FromGrapheme(g)
		if !ok {
			w.cursorCol += displayWidth(g)
			chars++
			continue
		}
		cell = cell.WithFg(w.currentFg).WithBg(w.currentBg)
		cells = append(cells, cell)
		w.cursorCol += displayWidth(g)
		chars++
	}
	w.content.Append(cells)

	return AppendResult{Kind: AppendFastPath, Chars: chars, StartCol: startCol, Row: row}
}

func (w *StreamWidget) appendSlowPath(text string) AppendResult {
	initialRow := w.cursorRow
	maxRow := w.cursorRow
	maxCol := w.cursorCol
	minTouchedCol := w.cursorCol

	for _, r := range text {
		switch r {
		case '\n':
			wasAtBottom := w.content.AtBottom()
			w.content.Newline(false)
			if !wasAtBottom {
				w.content.ScrollUp(1)
			}
			if w.cursorCol > maxCol {
				maxCol = w.cursorCol
			}
			w.cursorCol = 0
			minTouchedCol = 0
			w.cursorRow++
			if w.cursorRow >= w.bounds.Height {
				w.handleScroll(wasAtBottom)
			}
		case '\r':
			w.cursorCol = 0
			minTouchedCol = 0
		case '\t':
			spaces := 4 - (w.cursorCol % 4)
			for i := 0; i < spaces; i++ {
				w.appendChar(' ')
			}
		default:
			w.appendChar(r)
		}

		if w.cursorRow > maxRow {
			maxRow = w.cursorRow
		}
		if w.cursorCol > maxCol {
			maxCol = w.cursorCol
		}
		if w.cursorRow > initialRow {
			minTouchedCol = 0
		}
	}

	height := maxRow - initialRow + 1
	if height < 1 {
		height = 1
	}
	dirty := Rect{
		X:      w.bounds.X + minTouchedCol,
		Y:      w.bounds.Y + initialRow,
		Width:  w.bounds.Width - minTouchedCol,
		Height: height,
	}

	if !w.needsFullRedraw {
		w.dirtyRects = append(w.dirtyRects, dirty)
	}

	return AppendResult{Kind: AppendSlowPath, DirtyRect: dirty}
}

func (w *StreamWidget) appendChar(r rune) {
	charWidth := displayWidth(string(r))

	if w.cursorCol+charWidth > w.bounds.Width {
		if w.config.WordWrap {
			wasAtBottom := w.content.AtBottom()
			w.content.Newline(true)
			if !wasAtBottom {
				w.content.ScrollUp(1)
			}
			w.cursorCol = 0
			w.cursorRow++
			if w.cursorRow >= w.bounds.Height {
				w.handleScroll(wasAtBottom)
			}
		} else {
			return
		}
	}

	cell := NewCell(r).WithFg(w.currentFg).WithBg(w.currentBg)
	w.content.Append([]Cell{cell})
	w.cursorCol += charWidth
}

// handleScroll pins the cursor to the bottom row when content overruns
// the viewport height, sticking the viewport to the bottom only if it was
// already there and auto-scroll is enabled (sticky-scroll policy: a
// viewer who has scrolled back up stays put rather than being yanked to
// the bottom by new output).
func (w *StreamWidget) handleScroll(wasAtBottom bool) {
	w.cursorRow = w.bounds.Height - 1
	if w.config.AutoScroll && wasAtBottom {
		w.content.ScrollToBottom()
	}
	w.needsFullRedraw = true
}

// Append adds text to the widget, routing automatically to the fast or
// slow path.
func (w *StreamWidget) Append(text string) AppendResult {
	if text == "" {
		return AppendResult{Kind: AppendEmpty}
	}
	if w.canFastPath(text) {
		return w.appendFastPath(text)
	}
	return w.appendSlowPath(text)
}

// WriteFastPath encodes a fast-path AppendResult's ANSI bytes (cursor
// move, colors, raw text) into out. Only meaningful when result.Kind is
// AppendFastPath.
func (w *StreamWidget) WriteFastPath(result AppendResult, text string, out *bytes.Buffer) {
	if result.Kind != AppendFastPath {
		return
	}
	absX := w.bounds.X + result.StartCol + 1
	absY := w.bounds.Y + result.Row + 1

	out.WriteString("\x1b[")
	writeInt(out, absY)
	out.WriteByte(';')
	writeInt(out, absX)
	out.WriteByte('H')

	writeFg(out, w.currentFg)
	writeBg(out, w.currentBg)

	out.WriteString(text)
}

// Push appends text and, if the fast path applies, writes its ANSI bytes
// directly to the engine, bypassing the differ (and arming the renderer's
// fast-path/differ coherence guard so the next diff render is forced to a
// full redraw). Slow-path and empty appends leave it to the next render
// cycle to pick up the widget's dirty state.
func (w *StreamWidget) Push(engine *Engine, text string) AppendResult {
	result := w.Append(text)
	if result.Kind == AppendFastPath {
		var out bytes.Buffer
		w.WriteFastPath(result, text, &out)
		engine.WriteRaw(out.Bytes())
	}
	return result
}

// NeedsRedraw reports whether the widget has pending dirty state.
func (w *StreamWidget) NeedsRedraw() bool {
	return w.needsFullRedraw || len(w.dirtyRects) > 0
}

// DirtyRects returns the rectangles accumulated since the last Render.
func (w *StreamWidget) DirtyRects() []Rect { return w.dirtyRects }

// Invalidate forces the next Render to redraw the whole widget.
func (w *StreamWidget) Invalidate() { w.needsFullRedraw = true }

// Clear discards all content and resets the cursor to the widget's
// origin.
func (w *StreamWidget) Clear() {
	w.content.Clear()
	w.cursorCol = 0
	w.cursorRow = 0
	w.needsFullRedraw = true
}

// ScrollUp scrolls the viewport toward older content.
func (w *StreamWidget) ScrollUp(lines int) {
	w.content.ScrollUp(lines)
	w.needsFullRedraw = true
}

// ScrollDown scrolls the viewport toward newer content.
func (w *StreamWidget) ScrollDown(lines int) {
	w.content.ScrollDown(lines)
	w.needsFullRedraw = true
}

// CursorPosition returns the cursor's column and row within the widget.
func (w *StreamWidget) CursorPosition() (int, int) { return w.cursorCol, w.cursorRow }

// LineCount returns the number of lines retained in scrollback.
func (w *StreamWidget) LineCount() int { return w.content.Len() }

// Render draws the widget's currently visible lines into buffer, padding
// unused columns and rows with space cells in the widget's current
// colors, then clears the dirty state.
func (w *StreamWidget) Render(buffer *Buffer) {
	viewportHeight := w.bounds.Height
	visible := w.content.VisibleLines(viewportHeight)

	blank := NewCell(' ').WithFg(w.currentFg).WithBg(w.currentBg)

	row := 0
	for ; row < len(visible); row++ {
		y := w.bounds.Y + row
		if y >= w.bounds.Y+w.bounds.Height {
			break
		}

		col := 0
		for _, cell := range visible[row].Content {
			if col >= w.bounds.Width {
				break
			}
			x := w.bounds.X + col
			buffer.Set(x, y, cell)
			adv := cell.Width()
			if adv <= 0 {
				adv = 1
			}
			col += adv
		}
		for col < w.bounds.Width {
			buffer.Set(w.bounds.X+col, y, blank)
			col++
		}
	}

	for ; row < viewportHeight; row++ {
		y := w.bounds.Y + row
		for col := 0; col < w.bounds.Width; col++ {
			buffer.Set(w.bounds.X+col, y, blank)
		}
	}

	w.needsFullRedraw = false
	w.dirtyRects = w.dirtyRects[:0]
}
