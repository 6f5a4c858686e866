package draw

import (
	"bytes"
	"strings"
	"testing"

	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/termenv"
)

func render(c *Canvas) string {
	var buf bytes.Buffer
	c.Render(&buf)
	return buf.String()
}

func TestCanvasHalfBlocks(t *testing.T) {
	tests := []struct {
		name   string
		pixels [][2]int
		want   rune
	}{
		{"top", [][2]int{{0, 0}}, BlockUpperHalf},
		{"bottom", [][2]int{{0, 1}}, BlockLowerHalf},
		{"both", [][2]int{{0, 0}, {0, 1}}, BlockFull},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCanvas(2, 1)
			for _, p := range tt.pixels {
				c.Set(p[0], p[1])
			}
			out := render(c)
			if !strings.ContainsRune(out, tt.want) {
				t.Errorf("render %q does not contain %q", out, tt.want)
			}
		})
	}
}

func TestCanvasRenderOnlyWritesChanges(t *testing.T) {
	c := NewCanvas(4, 2)
	c.Set(1, 1)
	if out := render(c); !strings.ContainsRune(out, BlockLowerHalf) {
		t.Fatalf("first render missing pixel: %q", out)
	}

	c.Clear()
	c.Set(1, 1)
	if out := render(c); out != "" {
		t.Errorf("unchanged frame wrote %q", out)
	}

	c.Clear()
	out := render(c)
	if !strings.Contains(out, "\033[1;2H ") {
		t.Errorf("erased pixel not blanked: %q", out)
	}

	c.MarkTextDirty(3, 2, 1)
	if out := render(c); out != "\033[2;3H " {
		t.Errorf("dirty text cell not repainted: %q", out)
	}

	c.ForceRedraw()
	if out := render(c); strings.Count(out, "H") != 8 {
		t.Errorf("force redraw wrote %d cells, want 8", strings.Count(out, "H"))
	}
}

func TestCanvasOffset(t *testing.T) {
	c := NewCanvas(2, 1)
	c.SetOffset(3, 5)
	c.Set(0, 0)
	if out := render(c); !strings.Contains(out, "\033[6;4H") {
		t.Errorf("offset not applied: %q", out)
	}
}

func TestCanvasColors(t *testing.T) {
	c := NewCanvas(2, 1)
	c.SetColor(0, 0, colorful.Color{R: 1})
	out := render(c)
	if !strings.Contains(out, "38;2;255;0;0m") {
		t.Errorf("truecolor sequence missing: %q", out)
	}
	if !strings.HasSuffix(out, ColorReset) {
		t.Errorf("colors not reset at end of frame: %q", out)
	}
	if got := c.At(0, 0); got != RGB(colorful.Color{R: 1}) {
		t.Errorf("At = %x", got)
	}
	if c.ink != InkDefault {
		t.Errorf("SetColor changed the current ink")
	}

	c.SetProfile(termenv.Ascii)
	if out := render(c); strings.Contains(out, "38;") {
		t.Errorf("ascii profile emitted color: %q", out)
	}
}

func TestCanvasScaling(t *testing.T) {
	c := NewScaledCanvas(10, 5, 20, 20)
	c.SetFloat(10, 10)
	// 10 * (10/20) = 5, 10 * (10/20) = 5
	if c.At(5, 5) == InkNone {
		t.Error("scaled pixel not set")
	}
	col, row := c.LogicalToTerminal(10, 10)
	if col != 6 || row != 3 {
		t.Errorf("LogicalToTerminal = (%d,%d), want (6,3)", col, row)
	}
}

func TestDrawPolygonFilled(t *testing.T) {
	c := NewCanvas(10, 5)
	square := []Point{{X: 2, Y: 2}, {X: 7, Y: 2}, {X: 7, Y: 7}, {X: 2, Y: 7}}
	c.DrawPolygon(square, true)
	if c.At(4, 4) == InkNone {
		t.Error("interior not filled")
	}
	if c.At(0, 0) != InkNone {
		t.Error("pixel outside polygon set")
	}

	c.Clear()
	c.DrawPolygon(square, false)
	if c.At(4, 4) != InkNone {
		t.Error("outline-only polygon filled")
	}
	if c.At(2, 4) == InkNone {
		t.Error("outline missing")
	}
}

func TestChunkWriter(t *testing.T) {
	var buf bytes.Buffer
	cw := NewChunkWriter(&buf, 2, 1)
	cw.WriteAt(1, 1, "hi")
	cw.WriteLines(5, 3, []string{"a", "b"})
	if err := cw.Flush(); err != nil {
		t.Fatal(err)
	}
	want := "\033[2;3Hhi\033[4;7Ha\033[5;7Hb"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
	if cw.Len() != 0 {
		t.Errorf("Len = %d after Flush", cw.Len())
	}

	buf.Reset()
	cw.WriteRune(BlockFull)
	ClearScreen(cw)
	if err := cw.Flush(); err != nil {
		t.Fatal(err)
	}
	if want := "█" + SeqClearScreen; buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}
