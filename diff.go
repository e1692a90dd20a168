package compositor

import (
	"bytes"
	"unicode/utf8"
)

// DiffState is the renderer's belief about the terminal's current cursor
// position and most-recently-emitted foreground/background/modifier set.
// It starts "unknown," forcing an absolute cursor move and full attribute
// reemit on the first cell touched, and is reset after a full redraw or a
// raw write that desynchronizes the shadow from the terminal.
type DiffState struct {
	cursorX, cursorY int
	fg, bg           Rgb
	modifiers        Modifier
	known            bool // cursor position known
	attrsKnown       bool // fg/bg/modifiers known
}

// Reset returns the DiffState to its unknown starting condition.
func (d *DiffState) Reset() {
	*d = DiffState{}
}

// RenderStats reports what a render pass did.
type RenderStats struct {
	CellsChanged int
	CursorMoves  int
	BytesWritten int
}

// RenderDiff walks next against current in row-major order (restricted to
// dirtyRects when non-empty, the full buffer otherwise) and appends the
// minimal ANSI byte sequence that transforms the terminal from current to
// next into out. It mutates state to track what it has emitted and
// returns statistics about the pass.
//
// Cells equal between current and next, and cells flagged as a wide
// continuation, are skipped entirely.
func RenderDiff(current, next *Buffer, dirtyRects []Rect, out *bytes.Buffer, state *DiffState) RenderStats {
	var stats RenderStats
	startLen := out.Len()

	visit := func(x, y int) {
		nextCell := next.Get(x, y)
		if nextCell.IsWideContinuation() {
			return
		}
		if current.Get(x, y) == nextCell {
			return
		}
		stats.CellsChanged++
		if writeCellMove(out, state, x, y) {
			stats.CursorMoves++
		}
		writeCellAttrs(out, state, nextCell)
		writeCellGrapheme(out, next, nextCell)
		state.cursorX = x + cellAdvance(nextCell)
		state.cursorY = y
	}

	if len(dirtyRects) == 0 {
		for y := 0; y < next.Height(); y++ {
			for x := 0; x < next.Width(); x++ {
				visit(x, y)
			}
		}
	} else {
		for _, r := range dirtyRects {
			clipped := r.Clip(next.Width(), next.Height())
			for y := clipped.Y; y < clipped.Bottom(); y++ {
				for x := clipped.X; x < clipped.Right(); x++ {
					visit(x, y)
				}
			}
		}
	}

	stats.BytesWritten = out.Len() - startLen
	return stats
}

// RenderFull performs a full, position-independent redraw of next into
// out: hide cursor, home, then every non-continuation cell row by row with
// CRLF row transitions, finishing with an attribute reset and show
// cursor. Used for first paint, after resize, and after any raw write
// that invalidated the renderer's shadow. It always resets state.
func RenderFull(next *Buffer, out *bytes.Buffer, state *DiffState) RenderStats {
	var stats RenderStats
	startLen := out.Len()
	state.Reset()

	out.WriteString("\x1b[?25l")
	out.WriteString("\x1b[H")

	for y := 0; y < next.Height(); y++ {
		for x := 0; x < next.Width(); x++ {
			cell := next.Get(x, y)
			if cell.IsWideContinuation() {
				continue
			}
			writeCellAttrs(out, state, cell)
			writeCellGrapheme(out, next, cell)
			stats.CellsChanged++
		}
		if y < next.Height()-1 {
			out.WriteString("\r\n")
		}
	}

	out.WriteString("\x1b[0m")
	out.WriteString("\x1b[?25h")
	state.Reset()

	stats.BytesWritten = out.Len() - startLen
	return stats
}

// writeCellMove emits an absolute cursor-move sequence if (x, y) is not
// exactly where state believes the cursor to be, and reports whether it
// wrote one. Uses the shortest wire form: home for (0,0), column-1 form
// for x==0, full positional form otherwise. Positions on the wire are
// 1-indexed.
func writeCellMove(out *bytes.Buffer, state *DiffState, x, y int) bool {
	if state.known && state.cursorX == x && state.cursorY == y {
		return false
	}
	switch {
	case x == 0 && y == 0:
		out.WriteString("\x1b[H")
	case x == 0:
		out.WriteString("\x1b[")
		writeInt(out, y+1)
		out.WriteByte('H')
	default:
		out.WriteString("\x1b[")
		writeInt(out, y+1)
		out.WriteByte(';')
		writeInt(out, x+1)
		out.WriteByte('H')
	}
	state.known = true
	return true
}

// writeCellAttrs emits the SGR sequences needed to move state's
// remembered attributes to match cell, in the spec's required order:
// reset-if-removing, fg, bg, added modifiers.
func writeCellAttrs(out *bytes.Buffer, state *DiffState, cell Cell) {
	removed := state.modifiers &^ cell.Modifiers
	if state.attrsKnown && removed != ModNone {
		out.WriteString("\x1b[0m")
		state.fg, state.bg, state.modifiers = Rgb{}, Rgb{}, ModNone
		state.attrsKnown = false
	}

	if !state.attrsKnown || cell.Fg != state.fg {
		writeFg(out, cell.Fg)
		state.fg = cell.Fg
	}
	if !state.attrsKnown || cell.Bg != state.bg {
		writeBg(out, cell.Bg)
		state.bg = cell.Bg
	}

	added := cell.Modifiers
	if state.attrsKnown {
		added = cell.Modifiers &^ state.modifiers
	}
	if added != ModNone {
		writeModifiers(out, added)
	}
	state.modifiers = cell.Modifiers
	state.attrsKnown = true
}

// writeCellGrapheme emits a cell's content bytes: inline bytes if present,
// the buffer's overflow lookup otherwise (falling back to U+FFFD if the
// index is missing — a bug elsewhere, never a failure here), or a single
// space if the grapheme is empty.
func writeCellGrapheme(out *bytes.Buffer, buf *Buffer, cell Cell) {
	if cell.IsOverflow() {
		g, ok := buf.GetOverflow(cell.OverflowIndex())
		if !ok {
			out.WriteRune(utf8.RuneError)
			return
		}
		if g == "" {
			out.WriteByte(' ')
			return
		}
		out.WriteString(g)
		return
	}
	g := cell.InlineGrapheme()
	if g == "" {
		out.WriteByte(' ')
		return
	}
	out.WriteString(g)
}

// cellAdvance returns how far the cursor moves after writing cell: its
// display width, or 1 if that width is somehow zero.
func cellAdvance(cell Cell) int {
	w := cell.Width()
	if w <= 0 {
		return 1
	}
	return w
}

func writeFg(out *bytes.Buffer, c Rgb) {
	out.WriteString("\x1b[38;2;")
	writeInt(out, int(c.R))
	out.WriteByte(';')
	writeInt(out, int(c.G))
	out.WriteByte(';')
	writeInt(out, int(c.B))
	out.WriteByte('m')
}

func writeBg(out *bytes.Buffer, c Rgb) {
	out.WriteString("\x1b[48;2;")
	writeInt(out, int(c.R))
	out.WriteByte(';')
	writeInt(out, int(c.G))
	out.WriteByte(';')
	writeInt(out, int(c.B))
	out.WriteByte('m')
}

// modifierCodes maps each modifier bit to its SGR code, in the wire order
// required by the spec.
var modifierCodes = []struct {
	mod  Modifier
	code int
}{
	{ModBold, 1},
	{ModDim, 2},
	{ModItalic, 3},
	{ModUnderline, 4},
	{ModBlink, 5},
	{ModReverse, 7},
	{ModHidden, 8},
	{ModStrikethrough, 9},
}

func writeModifiers(out *bytes.Buffer, added Modifier) {
	for _, mc := range modifierCodes {
		if added.Has(mc.mod) {
			out.WriteString("\x1b[")
			writeInt(out, mc.code)
			out.WriteByte('m')
		}
	}
}

// writeInt appends a non-negative integer to out without allocating.
func writeInt(out *bytes.Buffer, n int) {
	if n == 0 {
		out.WriteByte('0')
		return
	}
	var scratch [10]byte
	i := len(scratch)
	for n > 0 {
		i--
		scratch[i] = byte('0' + n%10)
		n /= 10
	}
	out.Write(scratch[i:])
}
