package object

import (
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Text is a styled block of HUD text at a 1-based terminal position.
// Value may span several lines; Style is applied to the whole block.
type Text struct {
	X     int
	Y     int
	Value string
	Style lipgloss.Style
}

// Lines returns the rendered lines of the block.
func (t Text) Lines() []string {
	if t.Value == "" {
		return nil
	}
	return strings.Split(t.Style.Render(t.Value), "\n")
}

// Size returns the rendered width and height in terminal cells.
func (t Text) Size() (width, height int) {
	return lipgloss.Size(t.Style.Render(t.Value))
}

// Centered returns a copy of t positioned so the block is centered on (col, row).
func (t Text) Centered(col, row int) Text {
	w, h := t.Size()
	t.X = col - w/2
	t.Y = row - h/2
	return t
}

// Draw writes the text at its position using ANSI cursor movement.
func (t Text) Draw(w io.Writer) error {
	x := max(t.X, 1)
	y := max(t.Y, 1)
	var b strings.Builder
	for i, line := range t.Lines() {
		b.WriteString("\033[" + strconv.Itoa(y+i) + ";" + strconv.Itoa(x) + "H")
		b.WriteString(line)
	}
	_, err := io.WriteString(w, b.String())
	return err
}
