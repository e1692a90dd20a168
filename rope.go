package compositor

// chunkSize is the number of lines grouped into a single chunk. Chunking
// keeps appends cheap and gives eviction an O(1) whole-chunk path instead
// of per-line shifting.
const chunkSize = 64

// ChunkedLine is one line of scrollback: a sequence of cells plus whether
// it was produced by a soft wrap (as opposed to an explicit newline).
type ChunkedLine struct {
	Content []Cell
	Wrapped bool
}

// NewChunkedLine builds a line from content.
func NewChunkedLine(content []Cell, wrapped bool) ChunkedLine {
	return ChunkedLine{Content: content, Wrapped: wrapped}
}

// EmptyChunkedLine returns an empty, non-wrapped line.
func EmptyChunkedLine() ChunkedLine {
	return ChunkedLine{}
}

// Len returns the number of cells in the line.
func (l ChunkedLine) Len() int { return len(l.Content) }

// IsEmpty reports whether the line has no cells.
func (l ChunkedLine) IsEmpty() bool { return len(l.Content) == 0 }

type chunk struct {
	lines []ChunkedLine
}

func newChunk() *chunk {
	return &chunk{lines: make([]ChunkedLine, 0, chunkSize)}
}

func (c *chunk) isFull() bool { return len(c.lines) >= chunkSize }
func (c *chunk) len() int     { return len(c.lines) }

// RopeBuffer is a chunked scrollback store for large, append-mostly
// terminal history: lines are grouped into fixed-size chunks so both
// appends and front eviction amortize to O(1), and iteration over a
// chunk stays cache-friendly. Random access is O(1) via division, not
// O(log n) — there is no tree, just a slice of chunks.
//
// RopeBuffer is distinct from ScrollBuffer: this type backs general
// scrollback history (full lines of cells, wrap-aware, evicted whole
// chunks at a time); ScrollBuffer backs the streaming widget's own
// ring of styled text lines with character-level rewrap on resize.
type RopeBuffer struct {
	chunks       []*chunk
	totalLines   int
	maxLines     int // 0 means unlimited
	scrollOffset int
}

// NewRopeBuffer creates a rope buffer retaining at most maxLines lines
// (0 for unlimited), seeded with one empty line.
func NewRopeBuffer(maxLines int) *RopeBuffer {
	b := &RopeBuffer{maxLines: maxLines}
	b.PushLine(EmptyChunkedLine())
	return b
}

// UnboundedRopeBuffer creates a rope buffer with no retention limit.
func UnboundedRopeBuffer() *RopeBuffer {
	return NewRopeBuffer(0)
}

// Len returns the total number of lines retained.
func (b *RopeBuffer) Len() int { return b.totalLines }

// IsEmpty reports whether the buffer holds no lines.
func (b *RopeBuffer) IsEmpty() bool { return b.totalLines == 0 }

// ChunkCount returns the number of chunks currently allocated.
func (b *RopeBuffer) ChunkCount() int { return len(b.chunks) }

// GetLine returns the line at global index, and whether it exists.
func (b *RopeBuffer) GetLine(index int) (ChunkedLine, bool) {
	if index < 0 || index >= b.totalLines {
		return ChunkedLine{}, false
	}
	c := b.chunks[index/chunkSize]
	return c.lines[index%chunkSize], true
}

// GetLineMut returns a pointer to the line at global index for in-place
// mutation, and whether it exists.
func (b *RopeBuffer) GetLineMut(index int) (*ChunkedLine, bool) {
	if index < 0 || index >= b.totalLines {
		return nil, false
	}
	c := b.chunks[index/chunkSize]
	return &c.lines[index%chunkSize], true
}

// CurrentLine returns the most recently pushed line, if any.
func (b *RopeBuffer) CurrentLine() (ChunkedLine, bool) {
	if b.totalLines == 0 {
		return ChunkedLine{}, false
	}
	return b.GetLine(b.totalLines - 1)
}

// CurrentLineMut returns a mutable pointer to the most recently pushed
// line, if any.
func (b *RopeBuffer) CurrentLineMut() (*ChunkedLine, bool) {
	if b.totalLines == 0 {
		return nil, false
	}
	return b.GetLineMut(b.totalLines - 1)
}

// PushLine appends a line, allocating a new chunk if the last one is
// full, then trims from the front if maxLines was exceeded.
func (b *RopeBuffer) PushLine(line ChunkedLine) {
	if len(b.chunks) == 0 || b.chunks[len(b.chunks)-1].isFull() {
		b.chunks = append(b.chunks, newChunk())
	}
	last := b.chunks[len(b.chunks)-1]
	last.lines = append(last.lines, line)
	b.totalLines++

	if b.maxLines > 0 && b.totalLines > b.maxLines {
		b.trimFront()
	}
}

// Newline appends a new empty line.
func (b *RopeBuffer) Newline() {
	b.PushLine(EmptyChunkedLine())
}

// Append extends the current line's content with cells.
func (b *RopeBuffer) Append(cells []Cell) {
	if line, ok := b.CurrentLineMut(); ok {
		line.Content = append(line.Content, cells...)
	}
}

// Clear discards all content and reseeds a single empty line.
func (b *RopeBuffer) Clear() {
	b.chunks = nil
	b.totalLines = 0
	b.scrollOffset = 0
	b.PushLine(EmptyChunkedLine())
}

// ScrollOffset returns the current scroll distance from the bottom, in
// lines.
func (b *RopeBuffer) ScrollOffset() int { return b.scrollOffset }

// ScrollUp moves the viewport back by lines, clamped to the oldest line.
func (b *RopeBuffer) ScrollUp(lines int) {
	maxOffset := b.totalLines - 1
	if maxOffset < 0 {
		maxOffset = 0
	}
	b.scrollOffset += lines
	if b.scrollOffset > maxOffset {
		b.scrollOffset = maxOffset
	}
}

// ScrollDown moves the viewport forward by lines, clamped to the bottom.
func (b *RopeBuffer) ScrollDown(lines int) {
	b.scrollOffset -= lines
	if b.scrollOffset < 0 {
		b.scrollOffset = 0
	}
}

// ScrollToBottom resets the viewport to show the most recent content.
func (b *RopeBuffer) ScrollToBottom() { b.scrollOffset = 0 }

// VisibleLine pairs a global line index with its content, as yielded by
// VisibleLines.
type VisibleLine struct {
	Index int
	Line  ChunkedLine
}

// VisibleLines returns the lines visible in a viewport of the given
// height at the current scroll offset, oldest first.
func (b *RopeBuffer) VisibleLines(viewportHeight int) []VisibleLine {
	end := b.totalLines - b.scrollOffset
	if end < 0 {
		end = 0
	}
	start := end - viewportHeight
	if start < 0 {
		start = 0
	}
	out := make([]VisibleLine, 0, end-start)
	for i := start; i < end; i++ {
		if line, ok := b.GetLine(i); ok {
			out = append(out, VisibleLine{Index: i, Line: line})
		}
	}
	return out
}

// trimFront evicts whole chunks from the front until totalLines is
// within maxLines, adjusting scrollOffset to track the eviction.
func (b *RopeBuffer) trimFront() {
	for b.totalLines > b.maxLines && len(b.chunks) > 0 {
		removed := b.chunks[0]
		b.chunks = b.chunks[1:]
		b.totalLines -= removed.len()

		if b.scrollOffset > removed.len() {
			b.scrollOffset -= removed.len()
		} else {
			b.scrollOffset = 0
		}
	}
}

// RopeMemoryStats summarizes a rope buffer's retained footprint.
type RopeMemoryStats struct {
	Chunks         int
	Lines          int
	Cells          int
	BytesEstimated int
}

// MemoryStats computes a snapshot of the buffer's current footprint. It
// walks every retained chunk, so callers on a hot path should cache the
// result rather than call it per frame.
func (b *RopeBuffer) MemoryStats() RopeMemoryStats {
	const cellSize = 16 // bytes per Cell, see cell.go
	totalCells := 0
	for _, c := range b.chunks {
		for _, line := range c.lines {
			totalCells += len(line.Content)
		}
	}
	return RopeMemoryStats{
		Chunks:         len(b.chunks),
		Lines:          b.totalLines,
		Cells:          totalCells,
		BytesEstimated: totalCells * cellSize,
	}
}
