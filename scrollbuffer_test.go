package compositor

import "testing"

func cellsFromText(s string) []Cell {
	var out []Cell
	for _, r := range s {
		out = append(out, NewCell(r))
	}
	return out
}

func lineText(l StyledLine) string {
	var s []rune
	for _, c := range l.Content {
		s = append(s, []rune(c.InlineGrapheme())...)
	}
	return string(s)
}

func TestScrollBufferNew(t *testing.T) {
	b := NewScrollBuffer(100)
	if b.Len() != 1 {
		t.Fatalf("expected a single starting line, got %d", b.Len())
	}
	if b.CurrentLineLen() != 0 {
		t.Fatalf("expected the starting line to be empty")
	}
}

func TestScrollBufferAppend(t *testing.T) {
	b := NewScrollBuffer(100)
	b.Append(cellsFromText("Hello"))
	b.Append(cellsFromText(", world!"))

	if got := lineText(b.CurrentLine()); got != "Hello, world!" {
		t.Fatalf("expected %q, got %q", "Hello, world!", got)
	}
}

func TestScrollBufferNewline(t *testing.T) {
	b := NewScrollBuffer(100)
	b.Append(cellsFromText("Line 1"))
	b.Newline(false)
	b.Append(cellsFromText("Line 2"))

	if b.Len() != 2 {
		t.Fatalf("expected 2 lines, got %d", b.Len())
	}
	l0, _ := b.GetLine(0)
	if got := lineText(l0); got != "Line 1" {
		t.Fatalf("expected %q, got %q", "Line 1", got)
	}
}

func TestScrollBufferCapacity(t *testing.T) {
	b := NewScrollBuffer(3)
	for i := 1; i <= 4; i++ {
		b.Append(cellsFromText("Line X"))
		b.Newline(false)
	}

	if b.Len() != 3 {
		t.Fatalf("expected capacity to cap retained lines at 3, got %d", b.Len())
	}
}

func TestScrollBufferEvictionDoesNotDriftScrollOffset(t *testing.T) {
	b := NewScrollBuffer(3)
	for i := 0; i < 2; i++ {
		b.Append(cellsFromText("Line"))
		b.Newline(false)
	}

	b.ScrollUp(1)
	offsetBeforeEviction := b.ScrollOffset()
	if offsetBeforeEviction == 0 {
		t.Fatalf("expected a nonzero scroll offset before triggering eviction")
	}

	for i := 0; i < 5; i++ {
		b.Append(cellsFromText("Line"))
		b.Newline(false)
	}

	if b.ScrollOffset() != offsetBeforeEviction {
		t.Fatalf("expected eviction to leave a bottom-relative scroll offset untouched, got %d, want %d", b.ScrollOffset(), offsetBeforeEviction)
	}
}

func TestScrollBufferScroll(t *testing.T) {
	b := NewScrollBuffer(100)
	for i := 0; i < 10; i++ {
		b.Append(cellsFromText("Line"))
		b.Newline(false)
	}

	if !b.AtBottom() {
		t.Fatalf("expected to start at bottom")
	}

	b.ScrollUp(3)
	if b.AtBottom() {
		t.Fatalf("expected not at bottom after scrolling up")
	}
	if b.ScrollOffset() != 3 {
		t.Fatalf("expected offset 3, got %d", b.ScrollOffset())
	}

	b.ScrollDown(1)
	if b.ScrollOffset() != 2 {
		t.Fatalf("expected offset 2, got %d", b.ScrollOffset())
	}

	b.ScrollToBottom()
	if !b.AtBottom() {
		t.Fatalf("expected at bottom after ScrollToBottom")
	}
}

func TestScrollBufferVisibleLines(t *testing.T) {
	b := NewScrollBuffer(100)
	for i := 0; i < 5; i++ {
		b.Append(cellsFromText("X"))
		b.Newline(false)
	}

	visible := b.VisibleLines(3)
	if len(visible) != 3 {
		t.Fatalf("expected 3 visible lines, got %d", len(visible))
	}
}

func TestScrollBufferClear(t *testing.T) {
	b := NewScrollBuffer(100)
	b.Append(cellsFromText("content"))
	b.Newline(false)
	b.Clear()

	if b.Len() != 1 || b.CurrentLineLen() != 0 {
		t.Fatalf("expected Clear to reset to a single empty line")
	}
	if b.ScrollOffset() != 0 {
		t.Fatalf("expected scroll offset reset by Clear")
	}
}

func TestScrollBufferRewrapMergesSoftWrappedLines(t *testing.T) {
	b := NewScrollBuffer(100)
	b.Append(cellsFromText("ABCDEFGHIJ"))

	b.Rewrap(5)
	if b.Len() != 2 {
		t.Fatalf("expected 10 chars rewrapped at width 5 to produce 2 lines, got %d", b.Len())
	}
	l0, _ := b.GetLine(0)
	l1, _ := b.GetLine(1)
	if !l0.Wrapped {
		t.Fatalf("expected the first chunk to be marked wrapped")
	}
	if l1.Wrapped {
		t.Fatalf("expected the final chunk not to be marked wrapped")
	}
	if lineText(l0)+lineText(l1) != "ABCDEFGHIJ" {
		t.Fatalf("expected rewrap to preserve content, got %q+%q", lineText(l0), lineText(l1))
	}
}

func TestScrollBufferRewrapResetsScrollOffset(t *testing.T) {
	b := NewScrollBuffer(100)
	for i := 0; i < 5; i++ {
		b.Append(cellsFromText("hello"))
		b.Newline(false)
	}
	b.ScrollUp(2)
	b.Rewrap(3)

	if b.ScrollOffset() != 0 {
		t.Fatalf("expected Rewrap to reset scroll offset, got %d", b.ScrollOffset())
	}
}

func TestScrollBufferScrollUpClampsToLineCount(t *testing.T) {
	b := NewScrollBuffer(100)
	b.Append(cellsFromText("only line"))

	b.ScrollUp(50)
	if b.ScrollOffset() != 0 {
		t.Fatalf("expected scroll offset clamped to 0 with only one line, got %d", b.ScrollOffset())
	}
}
