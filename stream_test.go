package compositor

import (
	"bytes"
	"testing"
)

func TestStreamWidgetNew(t *testing.T) {
	w := NewStreamWidget(Rect{X: 0, Y: 0, Width: 80, Height: 24})
	if w.Bounds().Width != 80 || w.Bounds().Height != 24 {
		t.Fatalf("unexpected bounds: %+v", w.Bounds())
	}
	col, row := w.CursorPosition()
	if col != 0 || row != 0 {
		t.Fatalf("expected cursor at origin, got (%d,%d)", col, row)
	}
}

func TestStreamWidgetAppendFastPath(t *testing.T) {
	w := NewStreamWidget(Rect{X: 0, Y: 0, Width: 80, Height: 24})
	result := w.Append("Hello")

	if result.Kind != AppendFastPath {
		t.Fatalf("expected fast path, got %v", result.Kind)
	}
	if result.Chars != 5 || result.StartCol != 0 || result.Row != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
	col, row := w.CursorPosition()
	if col != 5 || row != 0 {
		t.Fatalf("expected cursor (5,0), got (%d,%d)", col, row)
	}
}

func TestStreamWidgetAppendSlowPathOnNewline(t *testing.T) {
	w := NewStreamWidget(Rect{X: 0, Y: 0, Width: 80, Height: 24})
	result := w.Append("Hello\nWorld")

	if result.Kind != AppendSlowPath {
		t.Fatalf("expected slow path due to newline, got %v", result.Kind)
	}
	col, row := w.CursorPosition()
	if col != 5 || row != 1 {
		t.Fatalf("expected cursor (5,1), got (%d,%d)", col, row)
	}
}

func TestStreamWidgetWraps(t *testing.T) {
	w := NewStreamWidget(Rect{X: 0, Y: 0, Width: 10, Height: 24})
	w.Append("12345678901234567890")

	_, row := w.CursorPosition()
	if row == 0 {
		t.Fatalf("expected wrapping to advance the cursor row")
	}
}

func TestStreamWidgetRender(t *testing.T) {
	w := NewStreamWidget(Rect{X: 0, Y: 0, Width: 10, Height: 3})
	w.Append("Line 1\nLine 2\nLine 3")

	buf := NewBuffer(10, 3)
	w.Render(buf)

	if g, _ := buf.GetGrapheme(0, 0); g != "L" {
		t.Fatalf("expected 'L' at (0,0), got %q", g)
	}
	if w.NeedsRedraw() {
		t.Fatalf("expected dirty state cleared after Render")
	}
}

func TestStreamWidgetEmptyAppend(t *testing.T) {
	w := NewStreamWidget(Rect{X: 0, Y: 0, Width: 80, Height: 24})
	result := w.Append("")
	if result.Kind != AppendEmpty {
		t.Fatalf("expected Empty result for empty text, got %v", result.Kind)
	}
}

func TestStreamWidgetFastPathFallsBackWhenLineFull(t *testing.T) {
	w := NewStreamWidget(Rect{X: 0, Y: 0, Width: 5, Height: 24})
	w.Append("12345")
	result := w.Append("more text that cannot fit")
	if result.Kind != AppendSlowPath {
		t.Fatalf("expected slow path once the current line is full, got %v", result.Kind)
	}
}

func TestStreamWidgetScrollStickyWhenDetached(t *testing.T) {
	w := NewStreamWidget(Rect{X: 0, Y: 0, Width: 10, Height: 2})
	for i := 0; i < 5; i++ {
		w.Append("line\n")
	}
	w.ScrollUp(2)
	if w.content.AtBottom() {
		t.Fatalf("expected viewport detached from bottom after ScrollUp")
	}

	w.Append("more\n")
	if w.content.AtBottom() {
		t.Fatalf("expected sticky-scroll to leave a detached viewport alone on new output")
	}
}

func TestStreamWidgetWriteFastPathEncodesCursorAndColors(t *testing.T) {
	w := NewStreamWidget(Rect{X: 2, Y: 3, Width: 80, Height: 24})
	w.SetFg(Red)
	w.SetBg(Blue)

	result := w.Append("hi")
	var out bytes.Buffer
	w.WriteFastPath(result, "hi", &out)

	if out.Len() == 0 {
		t.Fatalf("expected fast-path bytes to be written")
	}
	if !bytes.Contains(out.Bytes(), []byte("hi")) {
		t.Fatalf("expected the appended text in the output, got %q", out.String())
	}
	if !bytes.HasPrefix(out.Bytes(), []byte("\x1b[4;3H\x1b[38;2;205;0;0m\x1b[48;2;0;0;238m")) {
		t.Fatalf("expected cursor move to (3,4) then red fg and blue bg, got %q", out.String())
	}
}
