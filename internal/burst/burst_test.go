package burst

import (
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/tomz197/shatter/internal/pool"
	"github.com/tomz197/shatter/internal/scene"
	"github.com/tomz197/shatter/internal/timing"
)

const epsilon = 1e-9

// countingRenderer wraps the scene renderer and counts calls.
type countingRenderer struct {
	*scene.Renderer
	created  int
	attached int
	detached int
}

func (r *countingRenderer) NewPoints(p []scene.Vec3, c []colorful.Color, m *scene.Material) *scene.Points {
	r.created++
	return r.Renderer.NewPoints(p, c, m)
}

func (r *countingRenderer) Attach(p *scene.Points, c *scene.Container) {
	r.attached++
	r.Renderer.Attach(p, c)
}

func (r *countingRenderer) Detach(p *scene.Points, c *scene.Container) {
	r.detached++
	r.Renderer.Detach(p, c)
}

type harness struct {
	clock    *timing.ManualClock
	loop     *timing.Loop
	renderer *countingRenderer
	stage    *scene.Container
	env      Env
}

func newHarness(seed int64) *harness {
	clock := timing.NewManualClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	loop := timing.NewLoop(clock)
	renderer := &countingRenderer{Renderer: scene.NewRenderer()}
	return &harness{
		clock:    clock,
		loop:     loop,
		renderer: renderer,
		stage:    scene.NewContainer(1),
		env: Env{
			Renderer:  renderer,
			Scheduler: loop,
			Clock:     clock,
			Rand:      rand.New(rand.NewSource(seed)),
		},
	}
}

// run advances the clock in steps, ticking the scheduler after each step.
func (h *harness) run(total, step time.Duration) {
	for elapsed := time.Duration(0); elapsed < total; elapsed += step {
		h.clock.Advance(step)
		h.loop.Tick()
	}
}

func TestBuildAllocatesBuffers(t *testing.T) {
	h := newHarness(1)
	b := New(h.env)
	if b.State() != StateUnbuilt {
		t.Fatalf("new burst state = %v, want unbuilt", b.State())
	}

	b.Build(WithParticles(64))

	if b.State() != StateIdle {
		t.Errorf("state = %v, want idle", b.State())
	}
	if len(b.Particles()) != 64 || len(b.Velocity()) != 64 || len(b.Colors()) != 64 {
		t.Errorf("buffer sizes = %d/%d/%d, want 64", len(b.Particles()), len(b.Velocity()), len(b.Colors()))
	}
	if h.renderer.created != 1 {
		t.Errorf("drawables created = %d, want 1", h.renderer.created)
	}
	for i, p := range b.Particles() {
		if p.Z != particleDepth {
			t.Fatalf("particle %d depth = %v, want %v", i, p.Z, particleDepth)
		}
	}
}

func TestVelocityBound(t *testing.T) {
	h := newHarness(2)
	b := New(h.env)
	b.Build(WithParticles(5000))

	for i, v := range b.Velocity() {
		if v.Magnitude >= velocityRadius {
			t.Fatalf("velocity %d magnitude %v not below %v", i, v.Magnitude, velocityRadius)
		}
		if v.Direction < -math.Pi || v.Direction > math.Pi {
			t.Fatalf("velocity %d direction %v out of range", i, v.Direction)
		}
	}
}

func TestPolarRoundTrip(t *testing.T) {
	tests := []struct{ x, y float64 }{
		{3, 4}, {-2, 0.5}, {0, -7}, {-1, -1},
	}
	for _, tt := range tests {
		p := ToPolar(tt.x, tt.y)
		x, y := p.Cartesian()
		if math.Abs(x-tt.x) > epsilon || math.Abs(y-tt.y) > epsilon {
			t.Errorf("round trip of (%v,%v) gave (%v,%v)", tt.x, tt.y, x, y)
		}
	}
	if m := ToPolar(3, 4).Magnitude; m != 5 {
		t.Errorf("magnitude = %v, want 5", m)
	}
}

func TestRearmKeepsVelocityField(t *testing.T) {
	h := newHarness(3)
	b := New(h.env)
	b.Build(WithParticles(32), WithHSV(200, 1, 0.8, 0.2))

	velocity := append([]Polar(nil), b.Velocity()...)
	colors := append([]colorful.Color(nil), b.Colors()...)
	particles := &b.Particles()[0]

	b.Animate(time.Time{}, 100*time.Millisecond)
	b.Rearm(WithParticles(32), WithHSV(200, 1, 0.8, 0.2), WithPosition(4, 4))

	if &b.Particles()[0] != particles {
		t.Errorf("rearm reallocated the particle buffer")
	}
	for i := range velocity {
		if b.Velocity()[i] != velocity[i] {
			t.Fatalf("velocity %d changed on rearm", i)
		}
	}
	if b.Elapsed() != 0 {
		t.Errorf("elapsed = %v after rearm, want 0", b.Elapsed())
	}
	if h.renderer.created != 1 {
		t.Errorf("rearm created a new drawable")
	}

	changed := 0
	for i := range colors {
		if b.Colors()[i] != colors[i] {
			changed++
		}
	}
	if changed == 0 {
		t.Errorf("rearm did not re-randomize colors")
	}
}

func TestRearmWithNewCountRebuilds(t *testing.T) {
	h := newHarness(4)
	b := New(h.env)
	b.Build(WithParticles(10))
	b.Rearm(WithParticles(20))

	if len(b.Particles()) != 20 || len(b.Velocity()) != 20 {
		t.Errorf("buffers not resized: %d/%d", len(b.Particles()), len(b.Velocity()))
	}
	if h.renderer.created != 2 {
		t.Errorf("drawables created = %d, want 2", h.renderer.created)
	}
}

func TestRearmUnbuiltBuilds(t *testing.T) {
	h := newHarness(5)
	b := New(h.env)
	b.Rearm(WithParticles(8))
	if b.State() != StateIdle || len(b.Particles()) != 8 {
		t.Errorf("state=%v particles=%d, want idle/8", b.State(), len(b.Particles()))
	}
}

func TestColorValueJitter(t *testing.T) {
	h := newHarness(6)
	b := New(h.env)
	b.Build(WithParticles(200), WithHSV(120, 1, 0.7, 0.5))

	for i, c := range b.Colors() {
		hue, _, v := c.Hsv()
		// value = 0.7 ± 0.2
		if v < 0.5-1e-6 || v > 0.9+1e-6 {
			t.Fatalf("color %d value %v outside [0.5,0.9]", i, v)
		}
		if math.Abs(hue-120) > 0.5 {
			t.Fatalf("color %d hue %v, want 120", i, hue)
		}
	}
}

func TestExplodeErrors(t *testing.T) {
	h := newHarness(7)
	b := New(h.env)

	if err := b.Explode(nil); !errors.Is(err, ErrBurstUnbuilt) {
		t.Errorf("explode unbuilt: err = %v, want ErrBurstUnbuilt", err)
	}

	b.Build(WithParticles(4))
	if err := b.Explode(nil); !errors.Is(err, ErrNoTarget) {
		t.Errorf("explode without target: err = %v, want ErrNoTarget", err)
	}

	b.Rearm(WithParticles(4), WithTarget(h.stage))
	if err := b.Explode(nil); err != nil {
		t.Fatalf("explode: %v", err)
	}
	if err := b.Explode(nil); !errors.Is(err, ErrBurstActive) {
		t.Errorf("explode active: err = %v, want ErrBurstActive", err)
	}
	if h.renderer.attached != 1 {
		t.Errorf("attached = %d, want 1", h.renderer.attached)
	}
}

func TestLifecycleThroughPool(t *testing.T) {
	h := newHarness(8)
	const conv = 10.0
	bursts := pool.New[*Burst, Option](func() *Burst { return New(h.env) })

	b := bursts.Alloc(
		WithPosition(10, 5),
		WithParticles(50),
		WithDuration(1000*time.Millisecond),
		WithFrameDuration(50*time.Millisecond),
		WithCoordsConversion(conv),
		WithTarget(h.stage),
	)

	if len(b.Particles()) != 50 {
		t.Fatalf("particles = %d, want 50", len(b.Particles()))
	}
	for i, p := range b.Particles() {
		if math.Abs(p.X-10/conv) > epsilon || math.Abs(p.Y+5/conv) > epsilon {
			t.Fatalf("particle %d at (%v,%v), want (%v,%v)", i, p.X, p.Y, 10/conv, -5/conv)
		}
	}

	completed := 0
	if err := b.Explode(func() {
		completed++
		bursts.Free(b)
	}); err != nil {
		t.Fatalf("explode: %v", err)
	}
	if b.State() != StateActive || !h.stage.Contains(b.Drawable()) {
		t.Fatalf("burst not active and attached after explode")
	}

	h.run(999*time.Millisecond, time.Millisecond)
	if completed != 0 {
		t.Fatalf("completed early")
	}
	h.run(time.Millisecond, time.Millisecond)
	if completed != 1 {
		t.Fatalf("completed = %d, want 1", completed)
	}
	if h.stage.Contains(b.Drawable()) {
		t.Errorf("burst still attached after completion")
	}
	if b.State() != StateIdle {
		t.Errorf("state = %v, want idle", b.State())
	}

	h.run(time.Second, time.Millisecond)
	if completed != 1 {
		t.Errorf("completion callback fired %d times", completed)
	}
	if bursts.NumFree() != 1 {
		t.Errorf("NumFree = %d, want 1", bursts.NumFree())
	}

	// Throttled to 50ms frames over one second.
	if got := b.Elapsed(); got < 900*time.Millisecond || got > time.Second {
		t.Errorf("animated time = %v, want ~1s", got)
	}
	if h.loop.Pending() != 0 {
		t.Errorf("scheduler still has %d tasks", h.loop.Pending())
	}

	again := bursts.Alloc(WithParticles(50), WithTarget(h.stage))
	if again != b || bursts.NumAllocated() != 1 {
		t.Errorf("second alloc did not reuse the burst")
	}
}

func TestRadialExpansion(t *testing.T) {
	h := newHarness(9)
	b := New(h.env)
	b.Build(WithParticles(40), WithPosition(30, -12), WithTarget(h.stage))
	if err := b.Explode(nil); err != nil {
		t.Fatal(err)
	}

	origin := scene.Vec3{X: 30, Y: 12}
	prev := make([]float64, 40)
	frames := []time.Duration{0, 25 * time.Millisecond, 40 * time.Millisecond, 100 * time.Millisecond}
	for _, delta := range frames {
		active := b.Elapsed()
		b.Animate(time.Time{}, delta)

		scale := float64(active) / float64(time.Millisecond) * expansionRate
		for i, p := range b.Particles() {
			dist := math.Hypot(p.X-origin.X, p.Y-origin.Y)
			want := b.Velocity()[i].Magnitude * scale
			if math.Abs(dist-want) > 1e-9 {
				t.Fatalf("particle %d at t=%v: distance %v, want %v", i, active, dist, want)
			}
			if dist+1e-12 < prev[i] {
				t.Fatalf("particle %d moved inward", i)
			}
			prev[i] = dist
		}
	}
}

func TestOpacityFloor(t *testing.T) {
	h := newHarness(10)
	b := New(h.env)
	b.Build(WithParticles(4), WithOpacity(1, 0.07, 0.6), WithTarget(h.stage))

	for i := 0; i < 100; i++ {
		b.Animate(time.Time{}, 24*time.Millisecond)
		if b.Opacity() < 0.6 {
			t.Fatalf("opacity %v dropped below floor after %d frames", b.Opacity(), i+1)
		}
	}
	if b.Opacity() != 0.6 {
		t.Errorf("opacity = %v, want to settle at 0.6", b.Opacity())
	}

	b.Rearm(WithParticles(4), WithOpacity(1, 0.07, 0.6))
	if b.Opacity() != 1 {
		t.Errorf("rearm did not restore opacity: %v", b.Opacity())
	}
}

func TestOptionsMergeOverDefaults(t *testing.T) {
	a := resolve([]Option{WithHue(45), nil, WithCoordsConversion(0)})
	d := DefaultAttributes()

	if a.Hue != 45 {
		t.Errorf("hue = %v, want 45", a.Hue)
	}
	if a.Particles != d.Particles || a.Duration != d.Duration || a.OpacityFloor != d.OpacityFloor {
		t.Errorf("unnamed fields changed: %+v", a)
	}
	if a.CoordsConversion != 1 {
		t.Errorf("zero coords conversion not defaulted: %v", a.CoordsConversion)
	}
}

func TestStateString(t *testing.T) {
	tests := map[State]string{
		StateUnbuilt: "unbuilt",
		StateIdle:    "idle",
		StateActive:  "active",
		State(9):     "unknown",
	}
	for s, want := range tests {
		if got := s.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", s, got, want)
		}
	}
}
