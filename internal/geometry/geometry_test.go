package geometry

import "testing"

func TestShrinkClampsAtZero(t *testing.T) {
	r := New(0, 0, 10, 10)
	out := r.Shrink(6)
	if out.Width != 0 || out.Height != 0 {
		t.Fatalf("expected zero extent, got %+v", out)
	}
}

func TestShrinkInsetsBothSides(t *testing.T) {
	r := New(10, 10, 100, 50)
	out := r.Shrink(5)
	if out.X != 15 || out.Y != 15 || out.Width != 90 || out.Height != 40 {
		t.Fatalf("unexpected shrink result: %+v", out)
	}
}

func TestContains(t *testing.T) {
	r := New(0, 0, 10, 10)
	cases := []struct {
		x, y int32
		want bool
	}{
		{0, 0, true},
		{9, 9, true},
		{10, 10, false},
		{-1, 5, false},
	}
	for _, c := range cases {
		if got := r.Contains(c.x, c.y); got != c.want {
			t.Errorf("Contains(%d, %d) = %v, want %v", c.x, c.y, got, c.want)
		}
	}
}

func TestSplitVerticalGapDisjoint(t *testing.T) {
	r := New(0, 0, 100, 50)
	first, second := r.SplitVerticalGap(0.5, 10)
	if first.X+int32(first.Width) >= second.X {
		t.Fatalf("halves overlap or touch: first=%+v second=%+v", first, second)
	}
	if second.X-int32(first.Width+first.X) != 10 {
		// gap between the two rectangles should be exactly 10px
		t.Fatalf("expected 10px gap, first=%+v second=%+v", first, second)
	}
}

func TestSplitHorizontalGapZeroWhenGapExceedsHeight(t *testing.T) {
	r := New(0, 0, 10, 5)
	first, second := r.SplitHorizontalGap(0.5, 10)
	if first.Height != 0 || second.Height != 0 {
		t.Fatalf("expected both halves to collapse, got first=%+v second=%+v", first, second)
	}
}

func TestWide(t *testing.T) {
	if !New(0, 0, 20, 10).Wide() {
		t.Fatal("20x10 should be wide")
	}
	if New(0, 0, 10, 20).Wide() {
		t.Fatal("10x20 should not be wide")
	}
}

func TestIntersectArea(t *testing.T) {
	a := New(0, 0, 10, 10)
	b := New(5, 5, 10, 10)
	if got := IntersectArea(a, b); got != 25 {
		t.Fatalf("IntersectArea = %d, want 25", got)
	}
	c := New(20, 20, 5, 5)
	if got := IntersectArea(a, c); got != 0 {
		t.Fatalf("IntersectArea (disjoint) = %d, want 0", got)
	}
}
