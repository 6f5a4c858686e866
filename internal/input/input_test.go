package input

import (
	"bufio"
	"strings"
	"testing"
	"time"
)

func TestApplyKeys(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name  string
		bytes string
		check func(Input) bool
	}{
		{"thrust", "w", func(in Input) bool { return in.Up && !in.Left }},
		{"arrow up", "\x1b[A", func(in Input) bool { return in.Up && !in.Escape }},
		{"arrow left", "\x1b[D", func(in Input) bool { return in.Left }},
		{"rotate and shoot", "d ", func(in Input) bool { return in.Right && in.Space }},
		{"quit", "Q", func(in Input) bool { return in.Quit }},
		{"lone escape", "\x1b", func(in Input) bool { return in.Escape }},
		{"digit", "7", func(in Input) bool { return in.Number == 7 }},
		{"enter", "\r", func(in Input) bool { return in.Enter }},
		{"nothing", "", func(in Input) bool { return !in.Up && in.Number == -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStream()
			in := s.apply([]byte(tt.bytes), now)
			if !tt.check(in) {
				t.Errorf("unexpected input for %q: %+v", tt.bytes, in)
			}
			if string(in.Pressed) != tt.bytes {
				t.Errorf("Pressed = %q, want %q", in.Pressed, tt.bytes)
			}
		})
	}
}

func TestKeysStayHeldBriefly(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := newStream()
	s.apply([]byte("a"), now)

	if in := s.apply(nil, now.Add(keyHoldDuration/2)); !in.Left {
		t.Error("key released too early")
	}
	if in := s.apply(nil, now.Add(keyHoldDuration)); in.Left {
		t.Error("key still held after hold duration")
	}
}

func TestResetKeyInput(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := newStream()
	s.apply([]byte(" 3"), now)
	ResetKeyInput(s)
	in := s.apply(nil, now)
	if in.Space || in.Number != -1 {
		t.Errorf("keys survived reset: %+v", in)
	}
}

func TestReadInputDetectsClose(t *testing.T) {
	s := StartStream(bufio.NewReader(strings.NewReader("w")))
	deadline := time.Now().Add(2 * time.Second)
	var seen []byte
	for !s.Closed() && time.Now().Before(deadline) {
		seen = append(seen, ReadInput(s).Pressed...)
		time.Sleep(time.Millisecond)
	}
	if !s.Closed() {
		t.Fatal("stream never reported close")
	}
	if string(seen) != "w" {
		t.Errorf("read %q, want %q", seen, "w")
	}
}
