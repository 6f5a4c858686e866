package object

import (
	"math"
	"time"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/tomz197/shatter/internal/draw"
)

var shipInk = draw.RGB(colorful.Hsv(190, 0.6, 1))

// User is the player-controlled spaceship (Asteroids-style).
type User struct {
	X, Y   float64 // Position (center of ship)
	VX, VY float64 // Velocity (momentum)
	Angle  float64 // Rotation in radians (0 = pointing right, increases clockwise on screen)

	ThrustPower   float64 // Acceleration when thrusting
	RotationSpeed float64 // Radians per second
	MaxSpeed      float64 // Maximum velocity magnitude
	Drag          float64 // Fraction of speed kept per second when not thrusting
	Size          float64 // Size of the ship triangle

	OwnerID  int    // Client that controls this ship
	Username string // Display name drawn above the ship

	// Shooting
	FireRate     float64 // Minimum seconds between shots
	fireCooldown float64

	// Exhaust
	ExhaustInterval time.Duration // Minimum time between thruster puffs
	exhaustCooldown time.Duration
}

// NewUser creates a new spaceship at the given position.
func NewUser(x, y float64) *User {
	return &User{
		X:               x,
		Y:               y,
		Angle:           -math.Pi / 2, // Start pointing up
		ThrustPower:     40.0,
		RotationSpeed:   5.0,
		MaxSpeed:        25.0,
		Drag:            0.5,
		Size:            2.0,
		FireRate:        0.15,
		ExhaustInterval: 90 * time.Millisecond,
	}
}

// Update handles rotation, thrust, momentum physics, and shooting.
func (u *User) Update(ctx UpdateContext) (bool, error) {
	dt := ctx.Delta.Seconds()

	if ctx.Input.Left {
		u.Angle -= u.RotationSpeed * dt
	}
	if ctx.Input.Right {
		u.Angle += u.RotationSpeed * dt
	}
	u.Angle = math.Remainder(u.Angle, 2*math.Pi)

	u.exhaustCooldown -= ctx.Delta
	if ctx.Input.Up {
		u.VX += math.Cos(u.Angle) * u.ThrustPower * dt
		u.VY += math.Sin(u.Angle) * u.ThrustPower * dt

		if ctx.Effects != nil && u.exhaustCooldown <= 0 {
			u.exhaustCooldown = u.ExhaustInterval
			backX := u.X - math.Cos(u.Angle)*u.Size
			backY := u.Y - math.Sin(u.Angle)*u.Size
			ctx.Effects.Puff(backX, backY)
		}
	} else {
		dragFactor := math.Pow(u.Drag, dt)
		u.VX *= dragFactor
		u.VY *= dragFactor
	}

	if speed := math.Hypot(u.VX, u.VY); speed > u.MaxSpeed {
		scale := u.MaxSpeed / speed
		u.VX *= scale
		u.VY *= scale
	}

	u.X += u.VX * dt
	u.Y += u.VY * dt
	ctx.Screen.WrapPosition(&u.X, &u.Y)

	u.fireCooldown -= dt
	if ctx.Input.Space && u.fireCooldown <= 0 && ctx.Spawner != nil {
		u.fireCooldown = u.FireRate
		ctx.Spawner.Spawn(u.fire(ctx.Projectiles))
	}

	return false, nil
}

// fire creates a projectile at the nose of the ship.
func (u *User) fire(pp *ProjectilePool) *Projectile {
	spec := ProjectileSpec{
		X:         u.X + math.Cos(u.Angle)*u.Size,
		Y:         u.Y + math.Sin(u.Angle)*u.Size,
		Angle:     u.Angle,
		ShooterVX: u.VX,
		ShooterVY: u.VY,
		OwnerID:   u.OwnerID,
	}
	if pp == nil {
		return NewProjectile(spec.X, spec.Y, spec.Angle, spec.ShooterVX, spec.ShooterVY, spec.OwnerID)
	}
	return pp.Alloc(spec)
}

// Draw renders the spaceship as a filled triangle pointing in the direction of travel.
func (u *User) Draw(ctx DrawContext) error {
	ctx.Canvas.SetInk(shipInk)
	positions := WorldToScreen(u.X, u.Y, ctx.Camera, ctx.View, ctx.World)
	for i := 0; i < positions.Count; i++ {
		pos := positions.Positions[i]
		u.drawAt(ctx.Canvas, pos.X, pos.Y)
	}
	return nil
}

func (u *User) drawAt(c *draw.Canvas, x, y float64) {
	// Wings sit ~143 degrees off the nose.
	const wing = 2.5
	points := c.BorrowPoints(3)
	points[0] = draw.Point{X: x + math.Cos(u.Angle)*u.Size, Y: y + math.Sin(u.Angle)*u.Size}
	points[1] = draw.Point{X: x + math.Cos(u.Angle+wing)*u.Size*0.7, Y: y + math.Sin(u.Angle+wing)*u.Size*0.7}
	points[2] = draw.Point{X: x + math.Cos(u.Angle-wing)*u.Size*0.7, Y: y + math.Sin(u.Angle-wing)*u.Size*0.7}
	c.DrawPolygon(points, true)
}

// GetPosition returns the ship's center.
func (u *User) GetPosition() (float64, float64) {
	return u.X, u.Y
}

// GetRadius returns the ship's collision radius.
func (u *User) GetRadius() float64 {
	return u.Size * 0.8
}
