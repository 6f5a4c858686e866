package timing

import "time"

// FrameFunc receives the time the previous frame fired and the wall time
// elapsed since then.
type FrameFunc func(last time.Time, elapsed time.Duration)

// Throttle wraps fn so that calling the returned function only invokes fn
// once more than frame has passed since the last invocation. Calls that
// arrive earlier are dropped, not queued.
//
// The first window starts when Throttle is called.
func Throttle(clock Clock, frame time.Duration, fn FrameFunc) func() {
	last := clock.Now()
	return func() {
		elapsed := clock.Now().Sub(last)
		if elapsed <= frame {
			return
		}
		fn(last, elapsed)
		last = clock.Now()
	}
}
