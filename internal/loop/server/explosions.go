package server

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tomz197/shatter/internal/burst"
	"github.com/tomz197/shatter/internal/config"
	"github.com/tomz197/shatter/internal/object"
	"github.com/tomz197/shatter/internal/physics"
	"github.com/tomz197/shatter/internal/pool"
	"github.com/tomz197/shatter/internal/scene"
)

// ErrUnknownEffect is returned when no preset exists for an effect kind.
var ErrUnknownEffect = errors.New("unknown effect kind")

// EffectStats reports one effect kind's pool and how many of its bursts are
// on screen.
type EffectStats struct {
	Kind string
	pool.Metrics
	Active int
}

type burstPool = pool.Pool[*burst.Burst, burst.Option]

// Explosions turns contacts and effect requests into pooled particle
// bursts. Each effect kind has its own pool so a recycled burst always has
// the particle count of its preset. Not safe for concurrent use; it runs on
// the server goroutine that ticks env.Scheduler.
type Explosions struct {
	log   *log.Logger
	env   burst.Env
	stage *scene.Container

	base      map[string][]burst.Option // Preset options per kind
	durations map[string]time.Duration
	pools     map[string]*burstPool
	active    map[string]int
	kinds     []string // Sorted, for stable stats
}

// Compile-time checks for the hooks Explosions serves.
var (
	_ physics.ContactListener = (*Explosions)(nil)
	_ object.Effects          = (*Explosions)(nil)
)

// NewExplosions creates a controller drawing into stage. Presets without
// particles are ignored.
func NewExplosions(logger *log.Logger, env burst.Env, stage *scene.Container, presets config.EffectPresets) *Explosions {
	e := &Explosions{
		log:       logger,
		env:       env,
		stage:     stage,
		base:      make(map[string][]burst.Option, len(presets)),
		durations: make(map[string]time.Duration, len(presets)),
		pools:     make(map[string]*burstPool, len(presets)),
		active:    make(map[string]int, len(presets)),
	}
	for kind, p := range presets {
		if p.Particles <= 0 {
			logger.Warn("ignoring effect preset without particles", "kind", kind)
			continue
		}
		e.base[kind] = presetOptions(p, stage.Scale)
		e.durations[kind] = p.Duration()
		e.kinds = append(e.kinds, kind)
	}
	sort.Strings(e.kinds)
	return e
}

func presetOptions(p config.EffectPreset, conv float64) []burst.Option {
	return []burst.Option{
		burst.WithHSV(p.Hue, p.Saturation, p.Value, p.ValueRange),
		burst.WithOpacity(p.Opacity, p.OpacityDelta, p.OpacityFloor),
		burst.WithParticleSize(p.ParticleSize),
		burst.WithParticles(p.Particles),
		burst.WithDuration(p.Duration()),
		burst.WithFrameDuration(p.FrameDuration()),
		burst.WithCoordsConversion(conv),
	}
}

// Spawn starts a burst of the given kind at a world position. Extra options
// are applied after the kind's preset.
func (e *Explosions) Spawn(kind string, x, y float64, extra ...burst.Option) error {
	base, ok := e.base[kind]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownEffect, kind)
	}

	opts := make([]burst.Option, 0, len(base)+2+len(extra))
	opts = append(opts, base...)
	opts = append(opts, burst.WithPosition(x, y), burst.WithTarget(e.stage))
	opts = append(opts, extra...)

	p := e.poolFor(kind)
	b := p.Alloc(opts...)
	err := b.Explode(func() {
		e.active[kind]--
		p.Free(b)
	})
	if err != nil {
		p.Free(b)
		return fmt.Errorf("exploding %s: %w", kind, err)
	}
	e.active[kind]++
	return nil
}

func (e *Explosions) poolFor(kind string) *burstPool {
	p, ok := e.pools[kind]
	if !ok {
		p = pool.New[*burst.Burst, burst.Option](func() *burst.Burst {
			return burst.New(e.env)
		})
		e.pools[kind] = p
	}
	return p
}

// BeginContact implements physics.ContactListener. Anything hitting a ship
// bursts the ship; projectile hits on asteroids burst the asteroid.
func (e *Explosions) BeginContact(c physics.Contact) {
	if _, ok := c.B.(*object.User); ok {
		c = c.Swap()
	}
	if _, ok := c.A.(*object.User); ok {
		e.spawnLogged(config.EffectShip, c.X, c.Y)
		return
	}

	if _, ok := c.A.(*object.Asteroid); ok {
		c = c.Swap()
	}
	_, shot := c.A.(*object.Projectile)
	a, rock := c.B.(*object.Asteroid)
	if shot && rock {
		e.spawnLogged(config.EffectAsteroid, c.X, c.Y, e.asteroidDuration(a.Size))
	}
}

// asteroidDuration shortens the burst of smaller rocks.
func (e *Explosions) asteroidDuration(size object.AsteroidSize) burst.Option {
	d := e.durations[config.EffectAsteroid] * time.Duration(size) / time.Duration(object.AsteroidLarge)
	return burst.WithDuration(d)
}

// Puff implements object.Effects.
func (e *Explosions) Puff(x, y float64) {
	e.spawnLogged(config.EffectExhaust, x, y)
}

func (e *Explosions) spawnLogged(kind string, x, y float64, extra ...burst.Option) {
	if err := e.Spawn(kind, x, y, extra...); err != nil {
		e.log.Debug("effect dropped", "kind", kind, "err", err)
	}
}

// Stats returns per-kind metrics sorted by kind.
func (e *Explosions) Stats() []EffectStats {
	stats := make([]EffectStats, 0, len(e.kinds))
	for _, kind := range e.kinds {
		s := EffectStats{Kind: kind, Active: e.active[kind]}
		if p, ok := e.pools[kind]; ok {
			s.Metrics = p.Metrics()
		}
		stats = append(stats, s)
	}
	return stats
}
