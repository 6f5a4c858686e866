package burst

import (
	"time"

	"github.com/tomz197/shatter/internal/scene"
)

// Attributes configures a burst. Every Build and Rearm starts from
// DefaultAttributes and applies the caller's options on top.
type Attributes struct {
	// Color, HSV with hue in degrees. Each particle's value is jittered by
	// up to ±(Value-ValueRange).
	Hue        float64
	Saturation float64
	Value      float64
	ValueRange float64

	// Transparency. Opacity drops by OpacityDelta every animation frame
	// until it reaches OpacityFloor.
	Opacity      float64
	OpacityDelta float64
	OpacityFloor float64

	ParticleSize  float64
	Particles     int
	Duration      time.Duration // Wall time from Explode to completion
	FrameDuration time.Duration // Minimum time between animation frames

	// CoordsConversion is the number of world units per render unit.
	CoordsConversion float64
	// Position is the burst origin in world coordinates (Y down).
	Position Point
	// Target is the scene container the burst draws into while active.
	Target *scene.Container
}

// Point is a 2D world position.
type Point struct {
	X, Y float64
}

// DefaultAttributes returns the baseline configuration.
func DefaultAttributes() Attributes {
	return Attributes{
		Hue:              0,
		Saturation:       1,
		Value:            1,
		ValueRange:       0,
		Opacity:          1,
		OpacityDelta:     0,
		OpacityFloor:     0.6,
		ParticleSize:     0.1,
		Particles:        1000,
		Duration:         10 * time.Second,
		FrameDuration:    24 * time.Millisecond,
		CoordsConversion: 1,
	}
}

// Option overrides part of a burst's attributes.
type Option func(*Attributes)

// WithPosition sets the origin in world coordinates.
func WithPosition(x, y float64) Option {
	return func(a *Attributes) { a.Position = Point{X: x, Y: y} }
}

// WithTarget sets the container the burst is drawn into.
func WithTarget(c *scene.Container) Option {
	return func(a *Attributes) { a.Target = c }
}

// WithParticles sets the particle count.
func WithParticles(n int) Option {
	return func(a *Attributes) { a.Particles = n }
}

// WithDuration sets how long the burst stays active.
func WithDuration(d time.Duration) Option {
	return func(a *Attributes) { a.Duration = d }
}

// WithFrameDuration sets the minimum interval between animation frames.
func WithFrameDuration(d time.Duration) Option {
	return func(a *Attributes) { a.FrameDuration = d }
}

// WithHSV sets the base color and the value jitter range.
func WithHSV(hue, saturation, value, valueRange float64) Option {
	return func(a *Attributes) {
		a.Hue = hue
		a.Saturation = saturation
		a.Value = value
		a.ValueRange = valueRange
	}
}

// WithHue sets only the hue, in degrees.
func WithHue(hue float64) Option {
	return func(a *Attributes) { a.Hue = hue }
}

// WithOpacity sets the starting opacity, the per-frame fade and the floor.
func WithOpacity(opacity, delta, floor float64) Option {
	return func(a *Attributes) {
		a.Opacity = opacity
		a.OpacityDelta = delta
		a.OpacityFloor = floor
	}
}

// WithParticleSize sets the material point size.
func WithParticleSize(size float64) Option {
	return func(a *Attributes) { a.ParticleSize = size }
}

// WithCoordsConversion sets the world-to-render scale divisor.
func WithCoordsConversion(c float64) Option {
	return func(a *Attributes) { a.CoordsConversion = c }
}

func resolve(opts []Option) Attributes {
	a := DefaultAttributes()
	for _, opt := range opts {
		if opt != nil {
			opt(&a)
		}
	}
	if a.Particles < 0 {
		a.Particles = 0
	}
	if a.CoordsConversion == 0 {
		a.CoordsConversion = 1
	}
	return a
}
