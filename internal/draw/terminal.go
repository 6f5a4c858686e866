package draw

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"unicode/utf8"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Cursor and screen control sequences.
const (
	SeqClearScreen = termenv.CSI + "2J" + termenv.CSI + "H"
	SeqHideCursor  = termenv.CSI + termenv.HideCursorSeq
	SeqShowCursor  = termenv.CSI + termenv.ShowCursorSeq
)

// ChunkWriter collects one frame of terminal output and sends it in
// fixed-size chunks on Flush, which keeps SSH packets small and regular.
// Cursor positions are shifted by an offset so a centered canvas can use
// its own 1-based coordinates. Not safe for concurrent use.
type ChunkWriter struct {
	frame  []byte
	out    *bufio.Writer
	offCol int
	offRow int
}

var _ io.Writer = (*ChunkWriter)(nil)

// NewChunkWriter creates a ChunkWriter writing to w with the given cursor
// offset.
func NewChunkWriter(w io.Writer, offsetCol, offsetRow int) *ChunkWriter {
	return &ChunkWriter{
		frame:  make([]byte, 0, 16*1024),
		out:    bufio.NewWriterSize(w, 8192),
		offCol: offsetCol,
		offRow: offsetRow,
	}
}

// SetOffset changes the cursor offset, e.g. after a resize.
func (cw *ChunkWriter) SetOffset(offsetCol, offsetRow int) {
	cw.offCol = offsetCol
	cw.offRow = offsetRow
}

// MoveCursor queues a cursor move to 1-based canvas coordinates.
func (cw *ChunkWriter) MoveCursor(col, row int) {
	cw.frame = append(cw.frame, termenv.CSI...)
	cw.frame = strconv.AppendInt(cw.frame, int64(row+cw.offRow), 10)
	cw.frame = append(cw.frame, ';')
	cw.frame = strconv.AppendInt(cw.frame, int64(col+cw.offCol), 10)
	cw.frame = append(cw.frame, 'H')
}

// Write implements io.Writer. It never fails.
func (cw *ChunkWriter) Write(p []byte) (int, error) {
	cw.frame = append(cw.frame, p...)
	return len(p), nil
}

// WriteString queues s.
func (cw *ChunkWriter) WriteString(s string) {
	cw.frame = append(cw.frame, s...)
}

// WriteRune queues r.
func (cw *ChunkWriter) WriteRune(r rune) {
	cw.frame = utf8.AppendRune(cw.frame, r)
}

// WriteAt queues s at 1-based canvas coordinates.
func (cw *ChunkWriter) WriteAt(col, row int, s string) {
	cw.MoveCursor(col, row)
	cw.WriteString(s)
}

// WriteLines queues lines one below the other, all starting at col.
func (cw *ChunkWriter) WriteLines(col, row int, lines []string) {
	for i, line := range lines {
		cw.WriteAt(col, row+i, line)
	}
}

// Len returns the number of queued bytes.
func (cw *ChunkWriter) Len() int {
	return len(cw.frame)
}

// Flush sends the queued frame and empties the queue.
func (cw *ChunkWriter) Flush() error {
	writeChunked(cw.out, string(cw.frame))
	cw.frame = cw.frame[:0]
	return cw.out.Flush()
}

// TermSizeFunc returns the terminal dimensions in cells.
type TermSizeFunc func() (width, height int, err error)

// DefaultTermSizeFunc reads the size of the process's stdout.
var DefaultTermSizeFunc TermSizeFunc = func() (int, int, error) {
	return term.GetSize(int(os.Stdout.Fd()))
}

// ClearScreen clears the terminal and homes the cursor.
func ClearScreen(w io.Writer) {
	_, _ = io.WriteString(w, SeqClearScreen)
}

// HideCursor hides the terminal cursor.
func HideCursor(w io.Writer) {
	_, _ = io.WriteString(w, SeqHideCursor)
}

// ShowCursor shows the terminal cursor.
func ShowCursor(w io.Writer) {
	_, _ = io.WriteString(w, SeqShowCursor)
}
