package object

import (
	"math"
	"math/rand"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/tomz197/shatter/internal/draw"
)

// AsteroidSize represents the size category of an asteroid.
type AsteroidSize int

const (
	AsteroidSmall  AsteroidSize = 1
	AsteroidMedium AsteroidSize = 2
	AsteroidLarge  AsteroidSize = 3
)

// SpawnProtectionSeconds is how long a freshly spawned rock blinks and
// ignores collisions.
const SpawnProtectionSeconds = 2.0

// asteroidClass holds the fixed properties of one size.
type asteroidClass struct {
	radius float64
	speed  float64
	weight int // In small asteroids
}

var asteroidClasses = [...]asteroidClass{
	AsteroidSmall:  {radius: 1.5, speed: 15, weight: 1},
	AsteroidMedium: {radius: 3, speed: 10, weight: 2},
	AsteroidLarge:  {radius: 5, speed: 6, weight: 4},
}

func classOf(size AsteroidSize) asteroidClass {
	if size < AsteroidSmall || size > AsteroidLarge {
		return asteroidClass{}
	}
	return asteroidClasses[size]
}

var asteroidInk = draw.RGB(colorful.Hsv(30, 0.15, 0.8))

// AsteroidWeight returns how many small asteroids an asteroid is worth:
// large splits into two medium, medium into two small. Other objects weigh 0.
// Destroyed asteroids keep their weight until they are removed.
func AsteroidWeight(obj Object) int {
	if a, ok := obj.(*Asteroid); ok {
		return classOf(a.Size).weight
	}
	return 0
}

// Asteroid is a destructible space rock.
type Asteroid struct {
	X, Y            float64
	VX, VY          float64
	Angle           float64 // Rotation of the outline
	RotationSpeed   float64 // Radians per second
	Size            AsteroidSize
	Radius          float64
	Vertices        []float64 // Outline distances from the center, evenly spaced in angle
	Destroyed       bool
	SpawnProtection float64 // Seconds left
}

// NewAsteroid creates an asteroid at (x, y) heading along angle.
// A negative angle picks a random heading.
func NewAsteroid(x, y float64, size AsteroidSize, angle float64) *Asteroid {
	if angle < 0 {
		angle = rand.Float64() * 2 * math.Pi
	}
	class := classOf(size)
	return &Asteroid{
		X:             x,
		Y:             y,
		VX:            math.Cos(angle) * class.speed,
		VY:            math.Sin(angle) * class.speed,
		Angle:         rand.Float64() * 2 * math.Pi,
		RotationSpeed: rand.Float64()*2 - 1,
		Size:          size,
		Radius:        class.radius,
		Vertices:      roughOutline(class.radius),
	}
}

// roughOutline returns 8 to 12 vertex distances within 30% of radius.
func roughOutline(radius float64) []float64 {
	v := make([]float64, 8+rand.Intn(5))
	for i := range v {
		v[i] = radius * (0.7 + rand.Float64()*0.6)
	}
	return v
}

// NewProtectedAsteroid creates an asteroid at a random place in the world
// with spawn protection, so new rocks never appear inside a ship.
func NewProtectedAsteroid(world Screen, size AsteroidSize) *Asteroid {
	a := NewAsteroid(rand.Float64()*float64(world.Width), rand.Float64()*float64(world.Height), size, -1)
	a.SpawnProtection = SpawnProtectionSeconds
	return a
}

// IsProtected reports whether the asteroid still has spawn protection.
func (a *Asteroid) IsProtected() bool {
	return a.SpawnProtection > 0
}

// Fragments returns the two pieces a destroyed asteroid breaks into. They
// fly off to either side of the parent's heading. Small asteroids have none.
func (a *Asteroid) Fragments() []*Asteroid {
	if a.Size <= AsteroidSmall {
		return nil
	}
	heading := math.Atan2(a.VY, a.VX)
	frags := make([]*Asteroid, 2)
	for i, side := range [2]float64{-1, 1} {
		spread := side * (math.Pi/4 + rand.Float64()*math.Pi/4)
		frags[i] = NewAsteroid(a.X, a.Y, a.Size-1, math.Mod(heading+spread+2*math.Pi, 2*math.Pi))
	}
	return frags
}

// Update moves and spins the asteroid. A destroyed asteroid spawns its
// fragments and is removed; the explosion is drawn by whoever reported
// the contact.
func (a *Asteroid) Update(ctx UpdateContext) (bool, error) {
	if a.Destroyed {
		if ctx.Spawner != nil {
			for _, f := range a.Fragments() {
				ctx.Spawner.Spawn(f)
			}
		}
		return true, nil
	}

	dt := ctx.Delta.Seconds()
	a.SpawnProtection = max(a.SpawnProtection-dt, 0)
	a.Angle += a.RotationSpeed * dt
	a.X += a.VX * dt
	a.Y += a.VY * dt
	ctx.Screen.WrapPosition(&a.X, &a.Y)
	return false, nil
}

// Draw renders the outline at every wrapped screen position. Protected
// rocks blink.
func (a *Asteroid) Draw(ctx DrawContext) error {
	if !Visible(a.SpawnProtection, 5.0) {
		return nil
	}

	ctx.Canvas.SetInk(asteroidInk)
	positions := WorldToScreen(a.X, a.Y, ctx.Camera, ctx.View, ctx.World)
	for _, pos := range positions.Positions[:positions.Count] {
		ctx.Canvas.DrawPolygon(a.outline(ctx.Canvas, pos.X, pos.Y), false)
	}
	return nil
}

// outline fills a canvas-owned buffer with the rotated vertices around
// (cx, cy).
func (a *Asteroid) outline(c *draw.Canvas, cx, cy float64) []draw.Point {
	n := len(a.Vertices)
	points := c.BorrowPoints(n)
	step := 2 * math.Pi / float64(n)
	for i, dist := range a.Vertices {
		angle := a.Angle + float64(i)*step
		points[i] = draw.Point{X: cx + math.Cos(angle)*dist, Y: cy + math.Sin(angle)*dist}
	}
	return points
}

// MarkDestroyed flags the asteroid for splitting and removal.
func (a *Asteroid) MarkDestroyed() {
	a.Destroyed = true
}

// IsDestroyed reports whether the asteroid was hit.
func (a *Asteroid) IsDestroyed() bool {
	return a.Destroyed
}

// GetPosition returns the asteroid's center position.
func (a *Asteroid) GetPosition() (float64, float64) {
	return a.X, a.Y
}

// GetRadius returns the asteroid's collision radius.
func (a *Asteroid) GetRadius() float64 {
	return a.Radius
}
