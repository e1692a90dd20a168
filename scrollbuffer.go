package compositor

// StyledLine is a single line of cells, tagged with whether it ended in a
// soft wrap (continues the same logical line) or a hard newline.
type StyledLine struct {
	Content []Cell
	Wrapped bool
}

// NewStyledLine builds a StyledLine from cell content.
func NewStyledLine(content []Cell, wrapped bool) StyledLine {
	return StyledLine{Content: content, Wrapped: wrapped}
}

// EmptyStyledLine returns an empty, non-wrapped line.
func EmptyStyledLine() StyledLine {
	return StyledLine{}
}

// ScrollBuffer is a fixed-capacity ring of StyledLines backing a streaming
// widget's scrollback. Unlike RopeBuffer's whole-chunk eviction, it evicts
// one line at a time — scrollback here is bounded and line-granular, not
// the wider retained-document store.
type ScrollBuffer struct {
	lines        []StyledLine
	maxLines     int
	scrollOffset int
}

// NewScrollBuffer creates a scroll buffer retaining at most maxLines lines.
func NewScrollBuffer(maxLines int) *ScrollBuffer {
	return &ScrollBuffer{
		lines:    []StyledLine{EmptyStyledLine()},
		maxLines: maxLines,
	}
}

// Len returns the number of lines currently retained.
func (b *ScrollBuffer) Len() int { return len(b.lines) }

// IsEmpty reports whether the buffer holds no lines (never true after
// construction — it always holds at least the current line).
func (b *ScrollBuffer) IsEmpty() bool { return len(b.lines) == 0 }

// CurrentLine returns the line currently being appended to.
func (b *ScrollBuffer) CurrentLine() StyledLine {
	return b.lines[len(b.lines)-1]
}

// CurrentLineMut returns a pointer to the line currently being appended to.
func (b *ScrollBuffer) CurrentLineMut() *StyledLine {
	return &b.lines[len(b.lines)-1]
}

// CurrentLineLen returns the cell count of the current line.
func (b *ScrollBuffer) CurrentLineLen() int {
	return len(b.CurrentLine().Content)
}

// Append extends the current line with cells.
func (b *ScrollBuffer) Append(cells []Cell) {
	cur := b.CurrentLineMut()
	cur.Content = append(cur.Content, cells...)
}

// Newline closes the current line (tagging it as wrapped if this is a
// soft line break) and starts a new empty one, evicting from the front
// one line at a time if at capacity.
func (b *ScrollBuffer) Newline(wrapped bool) {
	if len(b.lines) > 0 {
		b.lines[len(b.lines)-1].Wrapped = wrapped
	}
	for b.maxLines > 0 && len(b.lines) >= b.maxLines {
		b.lines = b.lines[1:]
	}
	b.lines = append(b.lines, EmptyStyledLine())
}

// GetLine returns the line at index, counted from the top of the buffer.
func (b *ScrollBuffer) GetLine(index int) (StyledLine, bool) {
	if index < 0 || index >= len(b.lines) {
		return StyledLine{}, false
	}
	return b.lines[index], true
}

// VisibleLines returns the lines that should be visible for a viewport of
// the given height, accounting for the current scroll offset.
func (b *ScrollBuffer) VisibleLines(viewportHeight int) []StyledLine {
	total := len(b.lines)
	end := total - b.scrollOffset
	if end < 0 {
		end = 0
	}
	start := end - viewportHeight
	if start < 0 {
		start = 0
	}
	return b.lines[start:end]
}

// ScrollOffset returns the current scroll offset from the bottom.
func (b *ScrollBuffer) ScrollOffset() int { return b.scrollOffset }

// ScrollUp moves the viewport up (toward older content) by lines, clamped
// so the offset never exceeds the number of retained lines.
func (b *ScrollBuffer) ScrollUp(lines int) {
	maxOffset := len(b.lines) - 1
	if maxOffset < 0 {
		maxOffset = 0
	}
	b.scrollOffset += lines
	if b.scrollOffset > maxOffset {
		b.scrollOffset = maxOffset
	}
}

// ScrollDown moves the viewport down (toward newer content) by lines.
func (b *ScrollBuffer) ScrollDown(lines int) {
	b.scrollOffset -= lines
	if b.scrollOffset < 0 {
		b.scrollOffset = 0
	}
}

// ScrollToBottom resets the viewport to the latest content.
func (b *ScrollBuffer) ScrollToBottom() { b.scrollOffset = 0 }

// AtBottom reports whether the viewport is showing the latest content.
func (b *ScrollBuffer) AtBottom() bool { return b.scrollOffset == 0 }

// Clear discards all content, leaving a single empty line.
func (b *ScrollBuffer) Clear() {
	b.lines = []StyledLine{EmptyStyledLine()}
	b.scrollOffset = 0
}

// Rewrap re-flows all retained content to a new width: soft-wrapped line
// runs are first merged back into their logical lines, then re-chunked at
// newWidth. Scroll position resets to the bottom, since offsets computed
// against the old wrapping no longer mean anything.
func (b *ScrollBuffer) Rewrap(newWidth int) {
	if newWidth <= 0 {
		return
	}

	var logical [][]Cell
	var current []Cell
	for _, line := range b.lines {
		current = append(current, line.Content...)
		if !line.Wrapped {
			logical = append(logical, current)
			current = nil
		}
	}
	if len(current) > 0 || len(logical) == 0 {
		logical = append(logical, current)
	}

	var rewrapped []StyledLine
	for _, l := range logical {
		if len(l) == 0 {
			rewrapped = append(rewrapped, EmptyStyledLine())
			continue
		}
		for i := 0; i < len(l); i += newWidth {
			end := i + newWidth
			if end > len(l) {
				end = len(l)
			}
			chunk := append([]Cell(nil), l[i:end]...)
			rewrapped = append(rewrapped, NewStyledLine(chunk, end < len(l)))
		}
	}
	if len(rewrapped) == 0 {
		rewrapped = append(rewrapped, EmptyStyledLine())
	}
	if b.maxLines > 0 {
		for len(rewrapped) > b.maxLines {
			rewrapped = rewrapped[1:]
		}
	}

	b.lines = rewrapped
	b.scrollOffset = 0
}
