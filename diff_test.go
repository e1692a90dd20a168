package compositor

import (
	"bytes"
	"testing"
)

func TestRenderDiffSingleCellChange(t *testing.T) {
	current := NewBuffer(10, 5)
	next := current.Clone()
	next.Set(3, 2, NewCell('X'))

	var out bytes.Buffer
	var state DiffState
	stats := RenderDiff(current, next, nil, &out, &state)

	if stats.CellsChanged != 1 {
		t.Fatalf("expected 1 cell changed, got %d", stats.CellsChanged)
	}
	if stats.CursorMoves != 1 {
		t.Fatalf("expected 1 cursor move, got %d", stats.CursorMoves)
	}
	if out.Len() > 32 {
		t.Fatalf("expected output <= 32 bytes, got %d: %q", out.Len(), out.String())
	}
	if bytes.Contains(out.Bytes(), []byte("\x1b[0m")) {
		t.Fatalf("did not expect a trailing reset in a diff render, got %q", out.String())
	}
}

func TestRenderDiffAdjacentRunSingleCursorMove(t *testing.T) {
	current := NewBuffer(10, 5)
	next := current.Clone()
	next.Set(2, 1, NewCell('A'))
	next.Set(3, 1, NewCell('B'))
	next.Set(4, 1, NewCell('C'))

	var out bytes.Buffer
	var state DiffState
	stats := RenderDiff(current, next, nil, &out, &state)

	if stats.CellsChanged != 3 {
		t.Fatalf("expected 3 cells changed, got %d", stats.CellsChanged)
	}
	if stats.CursorMoves != 1 {
		t.Fatalf("expected exactly 1 cursor move for an adjacent run, got %d", stats.CursorMoves)
	}
}

func TestRenderDiffWideCharacterSkipsContinuation(t *testing.T) {
	current := NewBuffer(10, 5)
	next := current.Clone()
	next.SetGrapheme(2, 0, "日", White, Black)

	var out bytes.Buffer
	var state DiffState
	stats := RenderDiff(current, next, nil, &out, &state)

	if stats.CellsChanged != 1 {
		t.Fatalf("expected the wide character to count as 1 changed cell, got %d", stats.CellsChanged)
	}
	if !bytes.Contains(out.Bytes(), []byte("日")) {
		t.Fatalf("expected the wide grapheme bytes in output, got %q", out.String())
	}
}

func TestRenderDiffOverflowGrapheme(t *testing.T) {
	current := NewBuffer(10, 5)
	next := current.Clone()
	next.SetGrapheme(0, 0, "👨‍👩‍👧‍👦", White, Black)

	var out bytes.Buffer
	var state DiffState
	stats := RenderDiff(current, next, nil, &out, &state)

	if stats.CellsChanged != 1 {
		t.Fatalf("expected 1 cell changed, got %d", stats.CellsChanged)
	}
	if !bytes.Contains(out.Bytes(), []byte("👨‍👩‍👧‍👦")) {
		t.Fatalf("expected overflow grapheme bytes resolved in output, got %q", out.String())
	}
}

func TestRenderDiffNoChangesEmitsNothing(t *testing.T) {
	current := NewBuffer(10, 5)
	next := current.Clone()

	var out bytes.Buffer
	var state DiffState
	stats := RenderDiff(current, next, nil, &out, &state)

	if stats.CellsChanged != 0 || stats.CursorMoves != 0 || out.Len() != 0 {
		t.Fatalf("expected a no-op diff to emit nothing, got stats=%+v bytes=%q", stats, out.String())
	}
}

func TestRenderDiffSkipsUnchangedCells(t *testing.T) {
	current := NewBuffer(10, 5)
	current.Set(0, 0, NewCell('A'))
	current.Set(5, 0, NewCell('B'))
	next := current.Clone()
	next.Set(5, 0, NewCell('C'))

	var out bytes.Buffer
	var state DiffState
	stats := RenderDiff(current, next, nil, &out, &state)

	if stats.CellsChanged != 1 {
		t.Fatalf("expected only the changed cell to be counted, got %d", stats.CellsChanged)
	}
}

func TestCursorMoveEncoding(t *testing.T) {
	cases := []struct {
		x, y int
		want string
	}{
		{0, 0, "\x1b[H"},
		{0, 3, "\x1b[4H"},
		{5, 2, "\x1b[3;6H"},
	}
	for _, c := range cases {
		var out bytes.Buffer
		var state DiffState
		moved := writeCellMove(&out, &state, c.x, c.y)
		if !moved {
			t.Fatalf("expected a move to be written for (%d,%d)", c.x, c.y)
		}
		if out.String() != c.want {
			t.Fatalf("for (%d,%d) expected %q, got %q", c.x, c.y, c.want, out.String())
		}
	}
}

func TestCursorMoveSkippedWhenAlreadyThere(t *testing.T) {
	var out bytes.Buffer
	state := DiffState{known: true, cursorX: 4, cursorY: 4}
	moved := writeCellMove(&out, &state, 4, 4)
	if moved {
		t.Fatalf("expected no move when cursor is already at the target")
	}
	if out.Len() != 0 {
		t.Fatalf("expected no bytes written, got %q", out.String())
	}
}

func TestRenderDiffIdempotentOnReapply(t *testing.T) {
	current := NewBuffer(8, 4)
	next := current.Clone()
	next.Set(1, 1, NewCell('Q'))

	var out1 bytes.Buffer
	var state DiffState
	RenderDiff(current, next, nil, &out1, &state)

	// Applying the diff logically advances current to next; diffing next
	// against itself must produce no further output.
	var out2 bytes.Buffer
	stats2 := RenderDiff(next, next, nil, &out2, &state)
	if stats2.CellsChanged != 0 || out2.Len() != 0 {
		t.Fatalf("expected idempotent second diff to be empty, got stats=%+v bytes=%q", stats2, out2.String())
	}
}

func TestRenderDiffRestrictedToDirtyRect(t *testing.T) {
	current := NewBuffer(10, 10)
	next := current.Clone()
	next.Set(1, 1, NewCell('A'))
	next.Set(8, 8, NewCell('B'))

	var out bytes.Buffer
	var state DiffState
	stats := RenderDiff(current, next, []Rect{{X: 0, Y: 0, Width: 3, Height: 3}}, &out, &state)

	if stats.CellsChanged != 1 {
		t.Fatalf("expected only the cell within the dirty rect to be counted, got %d", stats.CellsChanged)
	}
}

func TestRenderFullEndsWithResetAndShowCursor(t *testing.T) {
	next := NewBuffer(4, 2)
	next.Set(0, 0, NewCell('A'))

	var out bytes.Buffer
	var state DiffState
	RenderFull(next, &out, &state)

	if !bytes.HasPrefix(out.Bytes(), []byte("\x1b[?25l\x1b[H")) {
		t.Fatalf("expected full redraw to start with hide-cursor and home, got %q", out.String())
	}
	if !bytes.HasSuffix(out.Bytes(), []byte("\x1b[0m\x1b[?25h")) {
		t.Fatalf("expected full redraw to end with reset and show-cursor, got %q", out.String())
	}
}

func TestRenderFullUsesCRLFRowTransitions(t *testing.T) {
	next := NewBuffer(2, 3)
	var out bytes.Buffer
	var state DiffState
	RenderFull(next, &out, &state)

	if bytes.Count(out.Bytes(), []byte("\r\n")) != 2 {
		t.Fatalf("expected 2 CRLF row transitions for a 3-row buffer, got %q", out.String())
	}
}

func TestWriteCellAttrsResetOrderingOnRemoval(t *testing.T) {
	cell1 := NewCell('a').WithModifiers(ModBold)
	cell2 := NewCell('b')

	var out bytes.Buffer
	var state DiffState
	writeCellAttrs(&out, &state, cell1)
	out.Reset()
	writeCellAttrs(&out, &state, cell2)

	if !bytes.HasPrefix(out.Bytes(), []byte("\x1b[0m")) {
		t.Fatalf("expected a reset when modifiers are removed, got %q", out.String())
	}
}
