package compositor

import "testing"

func TestRectContains(t *testing.T) {
	r := Rect{X: 2, Y: 2, Width: 3, Height: 3}
	if !r.Contains(2, 2) || !r.Contains(4, 4) {
		t.Fatalf("expected corners to be contained")
	}
	if r.Contains(5, 5) {
		t.Fatalf("expected (5,5) to be outside the half-open bound")
	}
}

func TestRectIntersection(t *testing.T) {
	a := Rect{X: 0, Y: 0, Width: 5, Height: 5}
	b := Rect{X: 3, Y: 3, Width: 5, Height: 5}

	got, ok := a.Intersection(b)
	if !ok {
		t.Fatalf("expected overlapping rects to intersect")
	}
	want := Rect{X: 3, Y: 3, Width: 2, Height: 2}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestRectNoIntersection(t *testing.T) {
	a := Rect{X: 0, Y: 0, Width: 2, Height: 2}
	b := Rect{X: 5, Y: 5, Width: 2, Height: 2}
	if _, ok := a.Intersection(b); ok {
		t.Fatalf("expected disjoint rects not to intersect")
	}
}

func TestRectClip(t *testing.T) {
	r := Rect{X: -2, Y: -2, Width: 10, Height: 10}
	got := r.Clip(5, 5)
	want := Rect{X: 0, Y: 0, Width: 5, Height: 5}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestRectShrink(t *testing.T) {
	r := Rect{X: 0, Y: 0, Width: 10, Height: 10}
	got := r.Shrink(2)
	want := Rect{X: 2, Y: 2, Width: 6, Height: 6}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestRectShrinkClampsToZero(t *testing.T) {
	r := Rect{X: 0, Y: 0, Width: 2, Height: 2}
	got := r.Shrink(5)
	if got.Width != 0 || got.Height != 0 {
		t.Fatalf("expected zero-area rect, got %+v", got)
	}
}

func TestRectSplitHorizontal(t *testing.T) {
	r := Rect{X: 0, Y: 0, Width: 10, Height: 5}
	left, right := r.SplitHorizontal(4)
	if left != (Rect{X: 0, Y: 0, Width: 4, Height: 5}) {
		t.Fatalf("unexpected left split: %+v", left)
	}
	if right != (Rect{X: 4, Y: 0, Width: 6, Height: 5}) {
		t.Fatalf("unexpected right split: %+v", right)
	}
}

func TestRectSplitVertical(t *testing.T) {
	r := Rect{X: 0, Y: 0, Width: 5, Height: 10}
	top, bottom := r.SplitVertical(3)
	if top != (Rect{X: 0, Y: 0, Width: 5, Height: 3}) {
		t.Fatalf("unexpected top split: %+v", top)
	}
	if bottom != (Rect{X: 0, Y: 3, Width: 5, Height: 7}) {
		t.Fatalf("unexpected bottom split: %+v", bottom)
	}
}

func TestRectUnion(t *testing.T) {
	a := Rect{X: 0, Y: 0, Width: 2, Height: 2}
	b := Rect{X: 5, Y: 5, Width: 2, Height: 2}
	got := a.Union(b)
	want := Rect{X: 0, Y: 0, Width: 7, Height: 7}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}
