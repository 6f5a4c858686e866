// Package input turns raw terminal bytes into held-key state.
package input

import (
	"bufio"
	"time"
)

// keyHoldDuration is how long a key is considered "held" after its last press.
// Terminals only report key repeats, so a key counts as down until its
// repeats stop arriving.
const keyHoldDuration = 30 * time.Millisecond

// Input represents the current frame's input state.
type Input struct {
	Quit      bool
	Left      bool
	Right     bool
	Up        bool
	Down      bool
	Space     bool
	Enter     bool
	Backspace bool
	Escape    bool
	Number    int    // Last digit pressed, or -1
	Pressed   []byte // Raw bytes read this frame
}

// key indexes keyState.pressed.
type key int

const (
	keyQuit key = iota
	keyLeft
	keyRight
	keyUp
	keyDown
	keySpace
	keyEnter
	keyBackspace
	keyEscape
	keyNumber
	numKeys
)

// keyState tracks the last time each key was pressed.
type keyState struct {
	pressed   [numKeys]time.Time
	numberVal int
}

// Stream delivers input bytes via a channel and tracks key state for combinations.
type Stream struct {
	ch     chan byte
	state  keyState
	now    func() time.Time
	closed bool
}

// StartStream spawns a goroutine that reads from r and sends bytes to the stream.
func StartStream(r *bufio.Reader) *Stream {
	s := newStream()
	go func() {
		for {
			b, err := r.ReadByte()
			if err != nil {
				close(s.ch)
				return
			}
			s.ch <- b
		}
	}()
	return s
}

func newStream() *Stream {
	return &Stream{
		ch:    make(chan byte, 128),
		state: keyState{numberVal: -1},
		now:   time.Now,
	}
}

// Closed reports whether the underlying reader has ended.
func (s *Stream) Closed() bool {
	return s.closed
}

// ReadInput drains all available bytes from the stream (non-blocking).
// Handles escape sequences for arrow keys and keeps keys held for a short
// window so simultaneous keys are seen together.
func ReadInput(s *Stream) Input {
	var buf []byte
drain:
	for {
		select {
		case b, ok := <-s.ch:
			if !ok {
				s.closed = true
				break drain
			}
			buf = append(buf, b)
		default:
			break drain
		}
	}
	return s.apply(buf, s.now())
}

// ResetKeyInput forgets all held keys, so a key that started the game does
// not also act inside it.
func ResetKeyInput(s *Stream) {
	s.state = keyState{numberVal: -1}
}

func (s *Stream) apply(buf []byte, now time.Time) Input {
	for i := 0; i < len(buf); i++ {
		b := buf[i]

		// CSI sequence: ESC [ <code>
		if b == '\x1b' && i+2 < len(buf) && buf[i+1] == '[' {
			if k, ok := arrowKeys[buf[i+2]]; ok {
				s.state.pressed[k] = now
				i += 2
				continue
			}
		}

		applyByteToState(&s.state, b, now)
	}

	held := func(k key) bool {
		t := s.state.pressed[k]
		return !t.IsZero() && now.Sub(t) < keyHoldDuration
	}

	in := Input{
		Quit:      held(keyQuit),
		Left:      held(keyLeft),
		Right:     held(keyRight),
		Up:        held(keyUp),
		Down:      held(keyDown),
		Space:     held(keySpace),
		Enter:     held(keyEnter),
		Backspace: held(keyBackspace),
		Escape:    held(keyEscape),
		Number:    -1,
		Pressed:   buf,
	}
	if held(keyNumber) {
		in.Number = s.state.numberVal
	}
	return in
}

var arrowKeys = map[byte]key{
	'A': keyUp,
	'B': keyDown,
	'C': keyRight,
	'D': keyLeft,
}

// applyByteToState updates the key state timestamps based on the pressed byte.
func applyByteToState(state *keyState, b byte, now time.Time) {
	switch b {
	case 'q', 'Q':
		state.pressed[keyQuit] = now
	case 'a', 'A', 'j', 'J':
		state.pressed[keyLeft] = now
	case 'd', 'D', 'l', 'L':
		state.pressed[keyRight] = now
	case 'w', 'W', 'i', 'I':
		state.pressed[keyUp] = now
	case 's', 'S', 'k', 'K':
		state.pressed[keyDown] = now
	case ' ':
		state.pressed[keySpace] = now
	case '\n', '\r':
		state.pressed[keyEnter] = now
	case '\b', '\x7f':
		state.pressed[keyBackspace] = now
	case '\x1b':
		state.pressed[keyEscape] = now
	case '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		state.pressed[keyNumber] = now
		state.numberVal = int(b - '0')
	}
}
