// Package object holds the game entities: ships, asteroids, projectiles.
package object

import (
	"math"
	"time"

	"github.com/tomz197/shatter/internal/draw"
	"github.com/tomz197/shatter/internal/input"
)

// Object is anything that lives in the world.
type Object interface {
	// Update advances the object by ctx.Delta and reports whether it should
	// be removed.
	Update(ctx UpdateContext) (remove bool, err error)
	Draw(ctx DrawContext) error
}

// Spawner receives objects created during an update. They join the world
// after the update pass.
type Spawner interface {
	Spawn(obj Object)
}

// Effects receives visual effect requests from objects during update.
type Effects interface {
	// Puff requests a small thruster exhaust burst at a world position.
	Puff(x, y float64)
}

// Input is the per-tick control state of one ship.
type Input = input.Input

// UpdateContext is everything an object may read or call during Update.
type UpdateContext struct {
	Delta         time.Duration
	Input         Input
	Screen        Screen // World bounds
	Spawner       Spawner
	AsteroidCount int             // Weighted, see AsteroidWeight
	Projectiles   *ProjectilePool // Nil means projectiles are heap allocated
	Effects       Effects         // Nil disables effects
}

// Camera is the world position at the center of the view.
type Camera struct {
	X, Y float64
}

// DrawContext is what an object needs to draw itself on one client.
type DrawContext struct {
	Canvas *draw.Canvas
	Camera Camera
	View   Screen
	World  Screen
}

// Screen is a rectangle in world units, anchored at the origin.
type Screen struct {
	Width  int
	Height int
}

// NewScreen creates a screen of the given size.
func NewScreen(width, height int) Screen {
	return Screen{Width: width, Height: height}
}

// WrapPosition folds x and y back into the screen, which is a torus.
func (s Screen) WrapPosition(x, y *float64) {
	*x = wrap(*x, float64(s.Width))
	*y = wrap(*y, float64(s.Height))
}

func wrap(v, size float64) float64 {
	if size <= 0 {
		return v
	}
	v = math.Mod(v, size)
	if v < 0 {
		v += size
	}
	return v
}

// ScreenPositions lists where a wrapped object appears in the view. A fixed
// array keeps drawing allocation free.
type ScreenPositions struct {
	Positions [4]draw.Point
	Count     int
}

// drawMargin keeps large objects visible while partly off screen.
const drawMargin = 10.0

// WorldToScreen maps a world position to every view position it shows up
// at. Near the world seam one object can appear up to twice per axis.
func WorldToScreen(worldX, worldY float64, cam Camera, view, world Screen) ScreenPositions {
	xs, nx := wrappedCopies(worldX-cam.X+float64(view.Width)/2, float64(view.Width), float64(world.Width))
	ys, ny := wrappedCopies(worldY-cam.Y+float64(view.Height)/2, float64(view.Height), float64(world.Height))

	var out ScreenPositions
	for _, x := range xs[:nx] {
		for _, y := range ys[:ny] {
			if out.Count == len(out.Positions) {
				return out
			}
			out.Positions[out.Count] = draw.Point{X: x, Y: y}
			out.Count++
		}
	}
	return out
}

// wrappedCopies returns the copies of v, shifted by whole world lengths,
// that fall inside the view plus margin.
func wrappedCopies(v, view, world float64) (copies [3]float64, n int) {
	for _, shift := range [3]float64{-world, 0, world} {
		if p := v + shift; p >= -drawMargin && p <= view+drawMargin {
			copies[n] = p
			n++
		}
	}
	return copies, n
}

// Releasable is implemented by pooled objects.
type Releasable interface {
	Release()
}

// ReleaseObject returns obj to its pool, if it has one.
func ReleaseObject(obj Object) {
	if r, ok := obj.(Releasable); ok {
		r.Release()
	}
}

// FilterUsers returns the ships among objects.
func FilterUsers(objects []Object) []*User {
	var users []*User
	for _, obj := range objects {
		if u, ok := obj.(*User); ok {
			users = append(users, u)
		}
	}
	return users
}

// Visible reports whether something blinking at hz with remaining seconds
// of protection is drawn this frame. Unprotected objects are always drawn.
func Visible(remaining, hz float64) bool {
	return remaining <= 0 || int(remaining*hz)%2 == 1
}
