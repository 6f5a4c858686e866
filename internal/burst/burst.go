// Package burst implements a pooled particle explosion.
//
// A Burst allocates its particle, velocity and color buffers once in Build.
// Rearm re-colors the particles and resets the clock without allocating, so
// a pool.Pool of bursts can fire explosions every frame without garbage.
// Each burst keeps the velocity field drawn at build time for its whole
// life: a recycled burst replays the same shape at a new origin.
package burst

import (
	"errors"
	"math"
	"math/rand"
	"time"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/tomz197/shatter/internal/scene"
	"github.com/tomz197/shatter/internal/timing"
)

// Errors returned by Explode.
var (
	ErrBurstActive  = errors.New("burst: already exploding")
	ErrBurstUnbuilt = errors.New("burst: not built")
	ErrNoTarget     = errors.New("burst: no target container")
)

const (
	// expansionRate converts elapsed milliseconds into a velocity multiplier.
	expansionRate = 0.008
	// particleDepth keeps particles in front of the scene plane.
	particleDepth = 5.0
)

// Renderer is the drawing collaborator a burst needs.
type Renderer interface {
	NewPoints(positions []scene.Vec3, colors []colorful.Color, mat *scene.Material) *scene.Points
	Attach(p *scene.Points, c *scene.Container)
	Detach(p *scene.Points, c *scene.Container)
	MarkDirty(p *scene.Points)
}

// Env holds the collaborators shared by all bursts of a game.
type Env struct {
	Renderer  Renderer
	Scheduler timing.Scheduler
	Clock     timing.Clock
	Rand      *rand.Rand // Nil means a time-seeded source per burst
}

// State is a burst's lifecycle phase.
type State int

const (
	StateUnbuilt State = iota // Buffers not allocated yet
	StateIdle                 // Built, not drawing
	StateActive               // Attached and animating
)

func (s State) String() string {
	switch s {
	case StateUnbuilt:
		return "unbuilt"
	case StateIdle:
		return "idle"
	case StateActive:
		return "active"
	default:
		return "unknown"
	}
}

// Burst is one particle explosion. Not safe for concurrent use; it must be
// driven from the goroutine that ticks its scheduler.
type Burst struct {
	env   Env
	rng   *rand.Rand
	attrs Attributes
	state State

	particles []scene.Vec3
	velocity  []Polar
	colors    []colorful.Color
	material  scene.Material
	points    *scene.Points

	elapsed time.Duration
	target  *scene.Container // Container attached to while active
	loop    timing.Token
	timeout timing.Token
}

// New creates an unbuilt burst. Call Build (or let a pool do it) before use.
func New(env Env) *Burst {
	rng := env.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if env.Clock == nil {
		env.Clock = timing.SystemClock{}
	}
	return &Burst{env: env, rng: rng}
}

// Build allocates the particle buffers and the drawable and draws a new
// velocity field, then arms the burst.
func (b *Burst) Build(opts ...Option) {
	b.attrs = resolve(opts)
	b.build()
	b.arm()
}

// Rearm applies opts and readies the burst for another explosion while
// keeping its buffers and velocity field. A burst that was never built, or
// whose particle count changes, is rebuilt instead.
func (b *Burst) Rearm(opts ...Option) {
	if b.state == StateUnbuilt {
		b.Build(opts...)
		return
	}
	b.attrs = resolve(opts)
	if b.attrs.Particles != len(b.particles) && b.state != StateActive {
		b.build()
	}
	b.arm()
}

func (b *Burst) build() {
	n := b.attrs.Particles
	b.particles = make([]scene.Vec3, n)
	b.velocity = make([]Polar, n)
	b.colors = make([]colorful.Color, n)
	for i := range b.particles {
		b.particles[i].Z = particleDepth
		b.velocity[i] = randomVelocity(b.rng, velocityRadius)
	}
	b.points = b.env.Renderer.NewPoints(b.particles, b.colors, &b.material)
	b.state = StateIdle
}

func (b *Burst) arm() {
	b.material = scene.Material{
		Size:         b.attrs.ParticleSize,
		Opacity:      b.attrs.Opacity,
		Transparent:  true,
		VertexColors: true,
	}
	ox, oy := b.renderOrigin()
	for i := range b.particles {
		b.particles[i].X = ox
		b.particles[i].Y = oy
		b.colors[i] = b.randomColor()
	}
	b.elapsed = 0
	if b.state != StateActive {
		b.state = StateIdle
	}
}

// randomColor jitters the value channel around the configured base color.
func (b *Burst) randomColor() colorful.Color {
	a := &b.attrs
	spread := a.Value - a.ValueRange
	value := a.Value + b.rng.Float64()*spread - b.rng.Float64()*spread
	hue := math.Mod(a.Hue, 360)
	if hue < 0 {
		hue += 360
	}
	return colorful.Hsv(hue, a.Saturation, value).Clamped()
}

// Explode starts the burst at its configured position. After
// Attributes.Duration the burst detaches itself, becomes idle again and
// calls done (if non-nil), which is where callers return it to its pool.
func (b *Burst) Explode(done func()) error {
	switch {
	case b.state == StateUnbuilt:
		return ErrBurstUnbuilt
	case b.state == StateActive:
		return ErrBurstActive
	case b.attrs.Target == nil:
		return ErrNoTarget
	}

	ox, oy := b.renderOrigin()
	for i := range b.particles {
		b.particles[i].X = ox
		b.particles[i].Y = oy
	}
	b.env.Renderer.MarkDirty(b.points)

	b.target = b.attrs.Target
	b.env.Renderer.Attach(b.points, b.target)
	b.state = StateActive

	frame := timing.Throttle(b.env.Clock, b.attrs.FrameDuration, b.Animate)
	b.loop = b.env.Scheduler.Every(0, frame)
	b.timeout = b.env.Scheduler.After(b.attrs.Duration, func() {
		b.finish(done)
	})
	return nil
}

func (b *Burst) finish(done func()) {
	b.env.Scheduler.Cancel(b.loop)
	b.env.Renderer.Detach(b.points, b.target)
	b.target = nil
	b.state = StateIdle
	if done != nil {
		done()
	}
}

// renderOrigin maps the world-space origin to render space.
func (b *Burst) renderOrigin() (x, y float64) {
	conv := b.attrs.CoordsConversion
	return b.attrs.Position.X / conv, -b.attrs.Position.Y / conv
}

// Animate advances the burst by one frame. Each particle sits on its own
// fixed ray from the origin at a distance proportional to the active time
// accumulated before this frame.
func (b *Burst) Animate(_ time.Time, delta time.Duration) {
	scale := float64(b.elapsed) / float64(time.Millisecond) * expansionRate
	conv := b.attrs.CoordsConversion
	ox, oy := b.attrs.Position.X, b.attrs.Position.Y

	for i, v := range b.velocity {
		dx, dy := Polar{Magnitude: v.Magnitude * scale, Direction: v.Direction}.Cartesian()
		b.particles[i].X = (dx + ox) / conv
		b.particles[i].Y = (dy - oy) / conv
	}

	if floor := b.attrs.OpacityFloor; b.material.Opacity > floor {
		b.material.Opacity = math.Max(b.material.Opacity-b.attrs.OpacityDelta, floor)
	}

	b.env.Renderer.MarkDirty(b.points)
	b.elapsed += delta
}

// State returns the lifecycle phase.
func (b *Burst) State() State {
	return b.state
}

// Attributes returns the configuration applied by the last Build or Rearm.
func (b *Burst) Attributes() Attributes {
	return b.attrs
}

// Particles returns the render-space particle positions. The slice is owned
// by the burst and must not be modified.
func (b *Burst) Particles() []scene.Vec3 {
	return b.particles
}

// Velocity returns the per-particle velocity field. Read only.
func (b *Burst) Velocity() []Polar {
	return b.velocity
}

// Colors returns the per-particle colors. Read only.
func (b *Burst) Colors() []colorful.Color {
	return b.colors
}

// Opacity returns the current material opacity.
func (b *Burst) Opacity() float64 {
	return b.material.Opacity
}

// Elapsed returns the animated time accumulated since the last arm.
func (b *Burst) Elapsed() time.Duration {
	return b.elapsed
}

// Drawable returns the burst's drawable.
func (b *Burst) Drawable() *scene.Points {
	return b.points
}
