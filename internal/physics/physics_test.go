package physics

import (
	"math"
	"sort"
	"testing"
)

func TestDistance(t *testing.T) {
	tests := []struct {
		name           string
		x1, y1, x2, y2 float64
		want           float64
	}{
		{"same point", 1, 1, 1, 1, 0},
		{"horizontal", 0, 0, 3, 0, 3},
		{"pythagorean", 0, 0, 3, 4, 5},
		{"negative", -1, -1, 2, 3, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Distance(tt.x1, tt.y1, tt.x2, tt.y2); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Distance = %v, want %v", got, tt.want)
			}
			if got := DistanceSquared(tt.x1, tt.y1, tt.x2, tt.y2); math.Abs(got-tt.want*tt.want) > 1e-9 {
				t.Errorf("DistanceSquared = %v, want %v", got, tt.want*tt.want)
			}
		})
	}
}

func TestCircles(t *testing.T) {
	if !PointInCircle(3, 4, 0, 0, 5) {
		t.Error("point on the boundary should be inside")
	}
	if PointInCircle(3, 4.1, 0, 0, 5) {
		t.Error("point outside reported inside")
	}
	if CirclesOverlap(0, 0, 1, 2, 0, 1) {
		t.Error("touching circles should not overlap")
	}
	if !CirclesOverlap(0, 0, 1, 1.5, 0, 1) {
		t.Error("overlapping circles not detected")
	}
}

func TestSpatialGridQueryAround(t *testing.T) {
	g := NewSpatialGrid(100, 100, 10)
	g.Insert(5, 5, 0)
	g.Insert(15, 5, 1)
	g.Insert(50, 50, 2)
	g.Insert(95, 95, 3) // wraps next to (5,5)

	var got []int
	g.QueryAround(5, 5, func(i int) bool {
		got = append(got, i)
		return false
	})
	sort.Ints(got)
	want := []int{0, 1, 3}
	if len(got) != len(want) {
		t.Fatalf("QueryAround = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("QueryAround = %v, want %v", got, want)
		}
	}

	calls := 0
	g.QueryAround(5, 5, func(int) bool {
		calls++
		return true
	})
	if calls != 1 {
		t.Errorf("early stop made %d calls, want 1", calls)
	}

	g.Clear()
	g.QueryAround(50, 50, func(int) bool {
		t.Error("cleared grid returned an item")
		return false
	})
}

func TestSpatialGridClampsOutOfRange(t *testing.T) {
	g := NewSpatialGrid(20, 20, 10)
	g.Insert(-5, 500, 7)
	found := false
	g.QueryAround(0, 19, func(i int) bool {
		found = i == 7
		return found
	})
	if !found {
		t.Error("out-of-range insert not clamped into the grid")
	}
}

func TestListenersFanOut(t *testing.T) {
	var order []string
	ls := Listeners{
		ContactListenerFunc(func(c Contact) { order = append(order, "first:"+c.A.(string)) }),
		nil,
		ContactListenerFunc(func(c Contact) { order = append(order, "second:"+c.B.(string)) }),
	}
	ls.BeginContact(Contact{A: "a", B: "b", X: 1, Y: 2})

	if len(order) != 2 || order[0] != "first:a" || order[1] != "second:b" {
		t.Errorf("fan-out order = %v", order)
	}
}

func TestContactSwap(t *testing.T) {
	c := Contact{A: 1, B: 2, X: 3, Y: 4}.Swap()
	if c.A != 2 || c.B != 1 || c.X != 3 || c.Y != 4 {
		t.Errorf("Swap = %+v", c)
	}
}

func TestTorusDelta(t *testing.T) {
	world := Torus{Width: 100, Height: 50}
	tests := []struct {
		name           string
		x1, y1, x2, y2 float64
		dx, dy         float64
	}{
		{"inside", 10, 10, 20, 15, 10, 5},
		{"across x seam", 98, 10, 2, 10, 4, 0},
		{"across y seam backwards", 10, 2, 10, 48, 0, -4},
		{"half way", 0, 0, 50, 0, 50, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dx, dy := world.Delta(tt.x1, tt.y1, tt.x2, tt.y2)
			if math.Abs(dx-tt.dx) > 1e-9 || math.Abs(dy-tt.dy) > 1e-9 {
				t.Errorf("Delta = (%v,%v), want (%v,%v)", dx, dy, tt.dx, tt.dy)
			}
		})
	}

	if !world.CirclesOverlap(99, 25, 2, 1, 25, 2) {
		t.Error("circles across the seam not overlapping")
	}
	if !world.PointInCircle(0.5, 49.5, 99.5, 0.5, 1.5) {
		t.Error("point across the corner not inside")
	}
	if got := (Torus{}).DistanceSquared(0, 0, 300, 400); got != 250000 {
		t.Errorf("unbounded DistanceSquared = %v", got)
	}
}

func TestSpatialGridSmallWorldVisitsOnce(t *testing.T) {
	g := NewSpatialGrid(10, 10, 10) // single cell
	g.Insert(1, 1, 0)
	g.Insert(9, 9, 1)

	counts := map[int]int{}
	g.QueryAround(5, 5, func(i int) bool {
		counts[i]++
		return false
	})
	if counts[0] != 1 || counts[1] != 1 {
		t.Errorf("visits = %v, want each item once", counts)
	}
	if g.Len() != 2 {
		t.Errorf("Len = %d, want 2", g.Len())
	}
}
