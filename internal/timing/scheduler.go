package timing

import (
	"time"

	"github.com/eapache/queue"
)

// Token identifies a scheduled task so it can be cancelled.
type Token uint64

// Scheduler runs callbacks later, either once or periodically.
type Scheduler interface {
	// Every runs fn on each tick at least interval after its previous run.
	// An interval of 0 runs fn on every tick.
	Every(interval time.Duration, fn func()) Token
	// After runs fn once, on the first tick at or after delay has passed.
	After(delay time.Duration, fn func()) Token
	// Cancel stops a task. Unknown or finished tokens are ignored.
	Cancel(tok Token)
}

type task struct {
	token     Token
	fn        func()
	due       time.Time
	interval  time.Duration
	periodic  bool
	cancelled bool
}

// Loop is a cooperative Scheduler. Nothing runs on its own: the owner calls
// Tick from its frame loop and due callbacks run on that goroutine.
// Tasks scheduled from inside a callback become live on the next Tick.
type Loop struct {
	clock   Clock
	tasks   []*task
	pending *queue.Queue // *task scheduled since the last pass
	byToken map[Token]*task
	next    Token
}

// Compile-time check that Loop implements Scheduler.
var _ Scheduler = (*Loop)(nil)

// NewLoop creates a scheduler reading time from clock.
func NewLoop(clock Clock) *Loop {
	return &Loop{
		clock:   clock,
		pending: queue.New(),
		byToken: make(map[Token]*task),
	}
}

// Every implements Scheduler.
func (l *Loop) Every(interval time.Duration, fn func()) Token {
	return l.schedule(&task{
		fn:       fn,
		due:      l.clock.Now().Add(interval),
		interval: interval,
		periodic: true,
	})
}

// After implements Scheduler.
func (l *Loop) After(delay time.Duration, fn func()) Token {
	return l.schedule(&task{
		fn:  fn,
		due: l.clock.Now().Add(delay),
	})
}

func (l *Loop) schedule(t *task) Token {
	l.next++
	t.token = l.next
	l.byToken[t.token] = t
	l.pending.Add(t)
	return t.token
}

// Cancel implements Scheduler.
func (l *Loop) Cancel(tok Token) {
	if t, ok := l.byToken[tok]; ok {
		t.cancelled = true
		delete(l.byToken, tok)
	}
}

// Pending returns the number of tasks that can still fire.
func (l *Loop) Pending() int {
	return len(l.byToken)
}

// Tick runs every task that is due. Tasks run in scheduling order.
func (l *Loop) Tick() {
	for l.pending.Length() > 0 {
		l.tasks = append(l.tasks, l.pending.Remove().(*task))
	}

	now := l.clock.Now()
	for _, t := range l.tasks {
		if t.cancelled || now.Before(t.due) {
			continue
		}
		if t.periodic {
			t.due = now.Add(t.interval)
		} else {
			t.cancelled = true
			delete(l.byToken, t.token)
		}
		t.fn()
	}

	kept := l.tasks[:0]
	for _, t := range l.tasks {
		if !t.cancelled {
			kept = append(kept, t)
		}
	}
	clear(l.tasks[len(kept):])
	l.tasks = kept
}
